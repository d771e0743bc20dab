package authstate_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-webadmin/authstate"
	"github.com/jrsteele09/go-webadmin/eventloop"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const stateKey = "webadmin_state"

type fixture struct {
	loop    *eventloop.Loop
	backend *sessions.InMemoryBackend
	store   *sessions.Store
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	loop := eventloop.New(eventloop.WithLogger(zerolog.Nop()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	backend := sessions.NewInMemoryBackend()
	return &fixture{
		loop:    loop,
		backend: backend,
		store:   sessions.NewStore(backend, stateKey, sessions.WithStoreLogger(zerolog.Nop())),
	}
}

func (f *fixture) newController(opts ...authstate.Option) *authstate.Controller {
	opts = append([]authstate.Option{authstate.WithLogger(zerolog.Nop())}, opts...)
	return authstate.New(f.store, f.loop, opts...)
}

// settle waits until every callback posted so far has run
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.loop.Sync(context.Background(), func() {}))
}

type changeRecorder struct {
	mu      sync.Mutex
	changes []authstate.Change
}

func (r *changeRecorder) record(c authstate.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *changeRecorder) all() []authstate.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]authstate.Change(nil), r.changes...)
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":   "admin",
		"roles": []string{"admin"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestNew_HydrationForcesStale(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.store.Save(sessions.Record{
		SessionID:    "s-1",
		BaseURL:      "https://mail.example.org",
		AccessToken:  "A",
		RefreshToken: "R",
		IsValid:      true,
	}))

	c := f.newController()

	require.Equal(t, sessions.Record{
		SessionID:    "s-1",
		BaseURL:      "https://mail.example.org",
		AccessToken:  "A",
		RefreshToken: "R",
		IsValid:      false,
	}, c.Current())
	require.True(t, c.IsLoggedIn())
	require.Equal(t, uint64(0), c.Snapshot().Version)
}

func TestNew_HydrationAssignsMissingSessionID(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.backend.Set(stateKey, []byte(`{"base_url":"https://mail.example.org","access_token":"A","refresh_token":"R","is_valid":true}`)))

	c := f.newController()
	require.NotEmpty(t, c.Current().SessionID)
	require.False(t, c.Current().IsValid)
}

func TestNew_EmptyOrMalformedStorage(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.backend.Set(stateKey, []byte(`not json`)))

	c := f.newController()
	require.Equal(t, sessions.Record{}, c.Current())
	require.False(t, c.IsLoggedIn())
	require.False(t, c.IsAdmin())
}

func TestUpdate_PersistsAndNotifiesInOrder(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	recorder := &changeRecorder{}
	c.Subscribe(recorder.record)

	require.True(t, c.Update(func(r *sessions.Record) {
		r.BaseURL = "https://mail.example.org"
		r.AccessToken = "A"
		r.RefreshToken = "R"
	}))
	require.True(t, c.Update(func(r *sessions.Record) { r.IsValid = true }))

	stored, ok := f.store.Load()
	require.True(t, ok)
	require.Equal(t, "A", stored.AccessToken)

	f.settle(t)
	changes := recorder.all()
	require.Len(t, changes, 2)
	require.Equal(t, uint64(1), changes[0].Version)
	require.False(t, changes[0].Record.IsValid)
	require.Equal(t, uint64(2), changes[1].Version)
	require.True(t, changes[1].Record.IsValid)

	raw, err := f.backend.Get(stateKey)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"is_valid":true`)
}

func TestUpdate_UnchangedRecordIsNotAnnounced(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	c.Login(sessions.Record{AccessToken: "A"})
	f.settle(t)

	recorder := &changeRecorder{}
	c.Subscribe(recorder.record)
	version := c.Snapshot().Version

	require.False(t, c.Update(func(r *sessions.Record) { r.AccessToken = "A" }))
	f.settle(t)

	require.Empty(t, recorder.all())
	require.Equal(t, version, c.Snapshot().Version)
}

func TestUnsubscribe(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	recorder := &changeRecorder{}
	unsubscribe := c.Subscribe(recorder.record)
	unsubscribe()

	c.Login(sessions.Record{AccessToken: "A"})
	f.settle(t)
	require.Empty(t, recorder.all())
}

func TestViews_IgnoreValidity(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	c.Login(sessions.Record{AccessToken: adminToken(t), RefreshToken: "R", IsValid: true})

	for i := 0; i < 3; i++ {
		c.Update(func(r *sessions.Record) { r.IsValid = !r.IsValid })
		require.True(t, c.IsLoggedIn())
		require.True(t, c.IsAdmin())
	}
}

func TestViews_AreMemoized(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	c.Login(sessions.Record{AccessToken: "A", RefreshToken: "R"})

	loggedIn := c.LoggedIn().Recomputes()
	admin := c.Admin().Recomputes()

	c.Update(func(r *sessions.Record) { r.IsValid = true })
	c.Update(func(r *sessions.Record) { r.RefreshToken = "R2" })
	c.Update(func(r *sessions.Record) { r.IsValid = false })

	require.Equal(t, loggedIn, c.LoggedIn().Recomputes())
	require.Equal(t, admin, c.Admin().Recomputes())

	c.Update(func(r *sessions.Record) { r.AccessToken = "A2" })
	require.Equal(t, loggedIn+1, c.LoggedIn().Recomputes())
	require.Equal(t, admin+1, c.Admin().Recomputes())

	c.Update(func(r *sessions.Record) { r.Scope = "admin" })
	require.Equal(t, loggedIn+1, c.LoggedIn().Recomputes())
	require.Equal(t, admin+2, c.Admin().Recomputes())
	require.True(t, c.IsAdmin())
}

func TestViews_SubscribersSeeFlipsOnly(t *testing.T) {
	f := setupFixture(t)
	c := f.newController(authstate.WithAdminRoles(config.NewRoleSet("admin")))

	var mu sync.Mutex
	var loggedIn, admin []bool
	c.LoggedIn().Subscribe(func(v bool) {
		mu.Lock()
		defer mu.Unlock()
		loggedIn = append(loggedIn, v)
	})
	c.Admin().Subscribe(func(v bool) {
		mu.Lock()
		defer mu.Unlock()
		admin = append(admin, v)
	})

	c.Login(sessions.Record{AccessToken: "A"})
	c.Update(func(r *sessions.Record) { r.AccessToken = "B" })
	c.Update(func(r *sessions.Record) { r.Scope = "admin" })
	c.Logout()
	f.settle(t)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, loggedIn)
	require.Equal(t, []bool{true, false}, admin)
}

func TestLogin_AssignsSessionID(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()

	c.Login(sessions.Record{AccessToken: "A"})
	first := c.Current().SessionID
	require.NotEmpty(t, first)

	c.Login(sessions.Record{AccessToken: "A"})
	require.NotEqual(t, first, c.Current().SessionID)

	c.Login(sessions.Record{SessionID: "given", AccessToken: "A"})
	require.Equal(t, "given", c.Current().SessionID)
}

func TestLogout_ClearsRecordAndStorage(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	c.Login(sessions.Record{BaseURL: "https://mail.example.org", AccessToken: "A", RefreshToken: "R"})

	c.Logout()

	require.Equal(t, sessions.Record{}, c.Current())
	require.False(t, c.IsLoggedIn())
	_, err := f.backend.Get(stateKey)
	require.ErrorIs(t, err, errors.ErrNotFound)

	t.Run("logout without session still clears storage", func(t *testing.T) {
		require.NoError(t, f.backend.Set(stateKey, []byte(`{"access_token":"leftover"}`)))
		c.Logout()
		_, err := f.backend.Get(stateKey)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}

type brokenBackend struct{}

func (brokenBackend) Get(string) ([]byte, error) { return nil, errors.ErrStoreUnavailable }
func (brokenBackend) Set(string, []byte) error   { return errors.ErrStoreUnavailable }
func (brokenBackend) Delete(string) error        { return errors.ErrStoreUnavailable }

func TestPersistenceErrorsAreLoggedNotPropagated(t *testing.T) {
	f := setupFixture(t)
	var buf bytes.Buffer
	store := sessions.NewStore(brokenBackend{}, stateKey, sessions.WithStoreLogger(zerolog.Nop()))
	c := authstate.New(store, f.loop, authstate.WithLogger(zerolog.New(&buf)))

	require.NotPanics(t, func() {
		c.Login(sessions.Record{AccessToken: "A"})
		c.Logout()
	})
	require.Contains(t, buf.String(), "Failed to save authorization token to session storage")
	require.Contains(t, buf.String(), "Failed to clear authorization token")
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	f := setupFixture(t)
	c := f.newController()
	c.Login(sessions.Record{AccessToken: "A"})
	recorder := &changeRecorder{}
	c.Subscribe(recorder.record)
	base := c.Snapshot().Version

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update(func(r *sessions.Record) { r.RefreshToken += "x" })
		}()
	}
	wg.Wait()
	f.settle(t)

	require.Len(t, c.Current().RefreshToken, 20)
	changes := recorder.all()
	require.Len(t, changes, 20)
	for i, change := range changes {
		require.Equal(t, base+uint64(i)+1, change.Version)
	}

	stored, ok := f.store.Load()
	require.True(t, ok)
	require.Len(t, stored.RefreshToken, 20)
	require.Eventually(t, func() bool { return f.loop.Pending() == 0 }, time.Second, time.Millisecond)
}
