// Package webadmin wires the session controller, the refresh scheduler and the
// navigation guard into one application.
package webadmin

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-webadmin/authstate"
	"github.com/jrsteele09/go-webadmin/eventloop"
	"github.com/jrsteele09/go-webadmin/guard"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/metrics"
	"github.com/jrsteele09/go-webadmin/refresh"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type App struct {
	Loop       *eventloop.Loop
	Store      *sessions.Store
	LoginNames *sessions.LoginNameStore
	Controller *authstate.Controller
	Scheduler  *refresh.Scheduler
	Router     *guard.Router
	Navigator  *guard.Navigator
	Metrics    *metrics.Session

	logger       zerolog.Logger
	closeBackend func() error

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	unsubs  []func()
	running bool
}

type options struct {
	backend     sessions.Backend
	redisClient redis.UniversalClient
	refresher   refresh.Refresher
	clock       eventloop.Clock
	registerer  prometheus.Registerer
	navigation  guard.Navigation
	logger      zerolog.Logger
}

type Option func(*options)

// WithBackend replaces the configured session storage
func WithBackend(backend sessions.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

func WithRefresher(refresher refresh.Refresher) Option {
	return func(o *options) {
		o.refresher = refresher
	}
}

func WithClock(clock eventloop.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRegisterer registers the session metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithNavigation(navigation guard.Navigation) Option {
	return func(o *options) {
		o.navigation = navigation
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func New(cfg config.Config, opts ...Option) (*App, error) {
	o := &options{
		clock:  eventloop.Real,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{
		logger:       o.logger,
		closeBackend: func() error { return nil },
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, app.closeBackend, err = NewBackend(cfg, cfg.GetDataFolder(), o.redisClient)
		if err != nil {
			return nil, err
		}
	}

	if o.registerer != nil {
		app.Metrics = metrics.NewSession(o.registerer)
	}
	if o.refresher == nil {
		o.refresher = refresh.NewOAuthRefresher(cfg, refresh.WithOAuthLogger(o.logger))
	}
	if o.navigation == nil {
		o.navigation = logNavigation{logger: o.logger}
	}

	app.Loop = eventloop.New(eventloop.WithClock(o.clock), eventloop.WithLogger(o.logger))
	app.Store = sessions.NewStore(backend, cfg.GetSessionKey(), sessions.WithStoreLogger(o.logger))
	app.LoginNames = sessions.NewLoginNameStore(backend, cfg.GetLoginNameKey())
	app.Controller = authstate.New(app.Store, app.Loop,
		authstate.WithLogger(o.logger),
		authstate.WithAdminRoles(cfg.GetAdminRoles()),
	)
	app.Scheduler = refresh.NewScheduler(app.Controller, app.Loop, o.refresher,
		refresh.WithTimeout(cfg.GetRefreshTimeout()),
		refresh.WithLogger(o.logger),
		refresh.WithMetrics(app.Metrics),
	)

	router, err := guard.NewRouter(Routes(app.Controller.IsLoggedIn, app.Controller.IsAdmin)...)
	if err != nil {
		_ = app.closeBackend()
		return nil, errors.Wrapf(err, "[webadmin New]")
	}
	app.Router = router
	app.Navigator = guard.NewNavigator(router, o.navigation, guard.WithLogger(o.logger))

	return app, nil
}

// Start runs the event loop and begins watching the session
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		_ = a.Loop.Run(loopCtx)
	}()

	a.Navigator.Watch(a.Controller.LoggedIn(), a.Controller.Admin())
	a.Metrics.SetLoggedIn(a.Controller.IsLoggedIn())
	a.Metrics.SetAdmin(a.Controller.IsAdmin())
	a.unsubs = append(a.unsubs,
		a.Controller.LoggedIn().Subscribe(a.Metrics.SetLoggedIn),
		a.Controller.Admin().Subscribe(a.Metrics.SetAdmin),
	)
	a.Scheduler.Start(loopCtx)

	a.logger.Info().
		Bool("logged_in", a.Controller.IsLoggedIn()).
		Bool("admin", a.Controller.IsAdmin()).
		Msg("Web admin session started")
}

// Stop halts the scheduler and the loop and releases storage connections
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false

	a.Scheduler.Stop()
	a.Navigator.Close()
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	a.cancel()
	<-a.done

	return a.closeBackend()
}

// Login installs a session produced by the login flow and remembers the account name
func (a *App) Login(record sessions.Record, loginName string) {
	if loginName != "" {
		if err := a.LoginNames.Set(loginName); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to remember login name")
		}
	}
	record.SessionID = ""
	a.Controller.Login(record)
}

func (a *App) Logout() {
	a.Controller.Logout()
}

// Settle waits until every callback queued on the event loop has run
func (a *App) Settle(ctx context.Context) error {
	return a.Loop.Sync(ctx, func() {})
}

type logNavigation struct {
	logger zerolog.Logger
}

func (n logNavigation) Redirect(path string) {
	n.logger.Info().Str("location", path).Msg("Session no longer authorized for the current location")
}
