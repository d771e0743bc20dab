package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-webadmin/authstate"
	"github.com/jrsteele09/go-webadmin/eventloop"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/metrics"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

// State is the session cell the scheduler watches. *authstate.Controller implements it.
type State interface {
	Current() sessions.Record
	Update(fn func(*sessions.Record)) bool
	Subscribe(fn func(authstate.Change)) func()
}

// Scheduler renews stale sessions. Every committed change is evaluated on the
// event loop; at most one refresh call runs per session and refresh token.
type Scheduler struct {
	state     State
	loop      eventloop.Dispatcher
	refresher Refresher
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Session

	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	unsubscribe  func()
	inflight     map[string]struct{}
	timer        eventloop.Timer
	timerGen     uint64
	timerSession string
}

type Option func(*Scheduler)

func WithTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Session) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func NewScheduler(state State, loop eventloop.Dispatcher, refresher Refresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		state:     state,
		loop:      loop,
		refresher: refresher,
		timeout:   defaultTimeout,
		logger:    log.Logger,
		ctx:       context.Background(),
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the session and evaluates the current record, so a
// session hydrated as stale is refreshed on startup.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsubscribe = s.state.Subscribe(s.onChange)
	s.mu.Unlock()

	s.Kick()
}

// Stop unsubscribes, disarms the expiry timer and cancels calls in flight
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.disarmLocked()
}

// Kick re-evaluates the current record. It is the manual retry after a failed refresh.
func (s *Scheduler) Kick() {
	s.loop.Post(func() {
		s.evaluate(s.state.Current())
	})
}

// InFlight reports the number of refresh calls awaiting completion
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Armed reports whether an expiry timer is pending
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// onChange acts on the record as it is now. The change may have been queued
// behind later updates, so its snapshot is only used for logging.
func (s *Scheduler) onChange(change authstate.Change) {
	record := s.state.Current()

	s.mu.Lock()
	if s.timer != nil && (!record.IsLoggedIn() || record.SessionID != s.timerSession) {
		s.disarmLocked()
		s.logger.Debug().Uint64("version", change.Version).Msg("Expiry timer disarmed")
	}
	s.mu.Unlock()

	s.evaluate(record)
}

func (s *Scheduler) evaluate(record sessions.Record) {
	if !record.NeedsRefresh() {
		return
	}

	key := lineage(record)
	s.mu.Lock()
	if _, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		s.logger.Debug().Str("session_id", record.SessionID).Msg("Token refresh already in flight")
		return
	}
	s.inflight[key] = struct{}{}
	ctx := s.ctx
	s.mu.Unlock()

	s.metrics.RefreshAttempt()
	go s.call(ctx, key, record)
}

func (s *Scheduler) call(parent context.Context, key string, record sessions.Record) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	grant, err := s.refresh(ctx, record)
	s.loop.Post(func() {
		s.complete(key, record, grant, err)
	})
}

func (s *Scheduler) refresh(ctx context.Context, record sessions.Record) (grant Grant, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Wrapf(errors.ErrRefreshFailed, "[Scheduler refresh] panic: %v", rec)
		}
	}()
	return s.refresher.Refresh(ctx, record.BaseURL, record.RefreshToken)
}

func (s *Scheduler) complete(key string, requested sessions.Record, grant Grant, err error) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()

	if err == nil && grant.AccessToken == "" {
		err = errors.Wrapf(errors.ErrRefreshFailed, "[Scheduler complete] grant without access token")
	}
	if err != nil {
		s.metrics.RefreshResult(metrics.ResultFailure)
		s.logger.Warn().Err(err).Str("session_id", requested.SessionID).Msg("Failed to refresh OAuth token")
		return
	}

	applied := false
	var next sessions.Record
	s.state.Update(func(r *sessions.Record) {
		if lineage(*r) != key || r.BaseURL != requested.BaseURL {
			return
		}
		applied = true
		r.AccessToken = grant.AccessToken
		if grant.RefreshToken != nil {
			r.RefreshToken = *grant.RefreshToken
		}
		if grant.Scope != nil {
			r.Scope = *grant.Scope
		}
		r.IsValid = true
		next = *r
	})
	if !applied {
		s.metrics.RefreshResult(metrics.ResultSuperseded)
		s.logger.Debug().Str("session_id", requested.SessionID).Msg("Discarding token refresh for a replaced session")
		return
	}
	s.metrics.RefreshResult(metrics.ResultSuccess)

	if grant.ExpiresIn > 0 && next.RefreshToken != "" {
		s.arm(next.SessionID, grant.ExpiresIn)
	}
}

func (s *Scheduler) arm(sessionID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked()
	gen := s.timerGen
	s.timerSession = sessionID
	s.timer = s.loop.AfterFunc(d, func() {
		s.expire(gen, sessionID)
	})
	s.metrics.TimerArmed()
	s.logger.Debug().Msg(fmt.Sprintf("Next OAuth token refresh in %d seconds", int(d.Seconds())))
}

func (s *Scheduler) expire(gen uint64, sessionID string) {
	s.mu.Lock()
	if gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	marked := s.state.Update(func(r *sessions.Record) {
		if r.SessionID != sessionID || !r.IsLoggedIn() {
			return
		}
		r.IsValid = false
	})
	if marked {
		s.metrics.Expired()
		s.logger.Debug().Str("session_id", sessionID).Msg("Session marked stale")
	}
}

// disarmLocked stops the pending timer and invalidates its generation
func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func lineage(r sessions.Record) string {
	return r.SessionID + "\x00" + r.RefreshToken
}
