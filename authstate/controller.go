package authstate

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Persister mirrors the record to storage. *sessions.Store implements it.
type Persister interface {
	Load() (sessions.Record, bool)
	Save(sessions.Record) error
	Clear() error
}

// Poster runs callbacks serially; *eventloop.Loop implements it.
type Poster interface {
	Post(fn func())
}

// Change is delivered to subscribers after every committed mutation
type Change struct {
	Version uint64
	Record  sessions.Record
}

// Controller owns the single session record of the application. All mutations go
// through Update; every committed change is mirrored to storage and announced
// to subscribers on the event loop, in version order.
type Controller struct {
	store      Persister
	poster     Poster
	logger     zerolog.Logger
	adminRoles config.RoleSet

	mu      sync.RWMutex
	record  sessions.Record
	version uint64
	subs    map[int]func(Change)
	nextSub int

	// persistMu is taken before mu is released so writes reach storage in version order
	persistMu sync.Mutex

	loggedIn *View
	admin    *View
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithAdminRoles(roles config.RoleSet) Option {
	return func(c *Controller) {
		c.adminRoles = roles
	}
}

// New hydrates the controller from storage. A stored record is always installed
// as stale so that its freshness is re-checked on every start.
func New(store Persister, poster Poster, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		poster:     poster,
		logger:     log.Logger,
		adminRoles: config.NewRoleSet("admin", "superuser"),
		subs:       make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.loggedIn = newView("isLoggedIn",
		func(r sessions.Record) string { return r.AccessToken },
		func(r sessions.Record) bool { return r.IsLoggedIn() },
	)
	c.admin = newView("isAdmin",
		func(r sessions.Record) string { return r.AccessToken + "\x00" + r.Scope },
		func(r sessions.Record) bool { return r.IsAdmin(c.adminRoles) },
	)

	if record, ok := store.Load(); ok {
		record = record.Stale()
		if record.SessionID == "" {
			record.SessionID = uuid.NewString()
		}
		c.record = record
		c.logger.Debug().Fields(record.Redacted()).Msg("Restored session from storage")
	}
	c.loggedIn.refresh(c.record)
	c.admin.refresh(c.record)

	return c
}

// Current reads the record without subscribing
func (c *Controller) Current() sessions.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record
}

// Snapshot returns the record together with its version
func (c *Controller) Snapshot() Change {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Change{Version: c.version, Record: c.record}
}

func (c *Controller) LoggedIn() *View {
	return c.loggedIn
}

func (c *Controller) Admin() *View {
	return c.admin
}

func (c *Controller) IsLoggedIn() bool {
	return c.loggedIn.Get()
}

func (c *Controller) IsAdmin() bool {
	return c.admin.Get()
}

// Subscribe registers fn for every committed change. fn runs on the event loop.
func (c *Controller) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Update applies fn atomically. It reports whether the record changed; an update
// that leaves the record as it was is not announced.
//
// The store write happens before Update returns, so a caller on the event loop
// holds the loop for the duration of the write. Remote backends bound that with
// their own timeout (redisstore.WithTimeout).
func (c *Controller) Update(fn func(*sessions.Record)) bool {
	c.mu.Lock()
	next := c.record
	fn(&next)
	if next == c.record {
		c.mu.Unlock()
		return false
	}

	c.record = next
	c.version++
	change := Change{Version: c.version, Record: next}

	var flipped []viewChange
	for _, view := range []*View{c.loggedIn, c.admin} {
		if value, changed := view.refresh(next); changed {
			flipped = append(flipped, viewChange{view: view, value: value})
		}
	}
	c.poster.Post(func() { c.dispatch(change, flipped) })

	c.persistMu.Lock()
	c.mu.Unlock()
	c.persist(next)
	c.persistMu.Unlock()

	return true
}

// Login installs a brand new session record
func (c *Controller) Login(record sessions.Record) {
	if record.SessionID == "" {
		record.SessionID = uuid.NewString()
	}
	c.Update(func(r *sessions.Record) {
		*r = record
	})
	c.logger.Info().Fields(record.Redacted()).Msg("Session installed")
}

// Logout clears the record and the persisted entry
func (c *Controller) Logout() {
	if !c.Update(func(r *sessions.Record) { *r = sessions.Record{} }) {
		c.persistMu.Lock()
		c.persist(sessions.Record{})
		c.persistMu.Unlock()
	}
	c.logger.Info().Msg("Session cleared")
}

func (c *Controller) persist(record sessions.Record) {
	if record.IsEmpty() {
		if err := c.store.Clear(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to clear authorization token from session storage")
		}
		return
	}
	if err := c.store.Save(record); err != nil {
		c.logger.Error().Err(err).Msg("Failed to save authorization token to session storage")
	}
}

type viewChange struct {
	view  *View
	value bool
}

func (c *Controller) dispatch(change Change, flipped []viewChange) {
	c.mu.RLock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, c.subs[id])
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
	for _, vc := range flipped {
		vc.view.notify(vc.value)
	}
}
