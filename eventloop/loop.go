package eventloop

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Timer is a pending one-shot callback
type Timer interface {
	Stop() bool
}

// Clock arms timers. Real uses the runtime timers; tests substitute a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Real is the wall clock
var Real Clock = realClock{}

// Dispatcher is what components need from the loop: serialized callbacks and timers
// whose callbacks also run on the loop.
type Dispatcher interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop runs posted callbacks one at a time, in the order they were posted.
// Post never blocks, so a callback may post further work to its own loop.
type Loop struct {
	clock  Clock
	logger zerolog.Logger

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

var _ Dispatcher = (*Loop)(nil)

type Option func(*Loop)

func WithClock(clock Clock) Option {
	return func(l *Loop) {
		l.clock = clock
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  Real,
		logger: log.Logger,
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the loop
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc arms a timer whose callback is posted to the loop when it fires
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Run executes callbacks until ctx is done. Callbacks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Sync posts fn and waits until the loop has run it
func (l *Loop) Sync(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued callbacks
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) drain(ctx context.Context) {
	for ctx.Err() == nil {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

// exec isolates a panicking callback so one bad subscriber cannot stop the loop
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in event loop callback")
		}
	}()
	fn()
}
