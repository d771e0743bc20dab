package guard

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultMaxRedirects = 8

// Navigation performs the location change a redirect asks for
type Navigation interface {
	Redirect(path string)
}

// Watchable is a boolean signal whose flips trigger re-resolution. *authstate.View implements it.
type Watchable interface {
	Subscribe(fn func(bool)) func()
}

// Navigator tracks the current location and keeps it authorized: whenever a
// watched signal flips, the location is resolved again and any redirect is issued.
type Navigator struct {
	router       *Router
	navigation   Navigation
	maxRedirects int
	logger       zerolog.Logger

	mu       sync.Mutex
	location string
	current  Resolution
	unsubs   []func()
}

type NavigatorOption func(*Navigator)

func WithMaxRedirects(n int) NavigatorOption {
	return func(nav *Navigator) {
		if n > 0 {
			nav.maxRedirects = n
		}
	}
}

func WithLogger(logger zerolog.Logger) NavigatorOption {
	return func(nav *Navigator) {
		nav.logger = logger
	}
}

func NewNavigator(router *Router, navigation Navigation, opts ...NavigatorOption) *Navigator {
	nav := &Navigator{
		router:       router,
		navigation:   navigation,
		maxRedirects: defaultMaxRedirects,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(nav)
	}
	return nav
}

// Watch re-resolves the current location whenever one of signals flips
func (nav *Navigator) Watch(signals ...Watchable) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	for _, signal := range signals {
		nav.unsubs = append(nav.unsubs, signal.Subscribe(func(bool) {
			nav.Refresh()
		}))
	}
}

func (nav *Navigator) Close() {
	nav.mu.Lock()
	unsubs := nav.unsubs
	nav.unsubs = nil
	nav.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Navigate resolves path, following redirects, and makes the result current
func (nav *Navigator) Navigate(path string) Resolution {
	nav.mu.Lock()
	resolution, redirected := nav.resolveLocked(path)
	nav.mu.Unlock()

	nav.announce(resolution, redirected)
	return resolution
}

// Refresh resolves the current location again, issuing a redirect if it is no longer authorized
func (nav *Navigator) Refresh() Resolution {
	nav.mu.Lock()
	if nav.location == "" {
		current := nav.current
		nav.mu.Unlock()
		return current
	}
	resolution, redirected := nav.resolveLocked(nav.location)
	nav.mu.Unlock()

	nav.announce(resolution, redirected)
	return resolution
}

func (nav *Navigator) Location() string {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.location
}

func (nav *Navigator) Current() Resolution {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.current
}

func (nav *Navigator) resolveLocked(path string) (Resolution, bool) {
	resolution := nav.router.Resolve(path)
	requested := resolution.Path

	for hops := 0; resolution.Kind == Redirect; hops++ {
		if hops == nav.maxRedirects {
			nav.logger.Error().Str("path", requested).Str("target", resolution.Target).Msg("Too many redirects")
			return resolution, false
		}
		nav.logger.Debug().Str("from", resolution.Path).Str("to", resolution.Target).Msg("Navigation redirected")
		resolution = nav.router.Resolve(resolution.Target)
	}

	nav.location = resolution.Path
	nav.current = resolution
	return resolution, resolution.Path != requested
}

func (nav *Navigator) announce(resolution Resolution, redirected bool) {
	if redirected && nav.navigation != nil {
		nav.navigation.Redirect(resolution.Path)
	}
}
