// Package refresherfake provides a scripted refresh.Refresher for tests
package refresherfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/refresh"
)

type Call struct {
	BaseURL      string
	RefreshToken string
}

type response struct {
	grant refresh.Grant
	err   error
	panic any
}

// Refresher answers calls from a queue of scripted responses. With an empty
// queue every call fails.
type Refresher struct {
	mu        sync.Mutex
	responses []response
	calls     []Call
	gate      chan struct{}
}

var _ refresh.Refresher = (*Refresher)(nil)

func New() *Refresher {
	return &Refresher{}
}

// Push queues the outcome of the next call
func (f *Refresher) Push(grant refresh.Grant, err error) *Refresher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{grant: grant, err: err})
	return f
}

// PushPanic makes the next call panic with v
func (f *Refresher) PushPanic(v any) *Refresher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{panic: v})
	return f
}

// Block holds every call until Release is called or its context ends
func (f *Refresher) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

func (f *Refresher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

func (f *Refresher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Refresher) Refresh(ctx context.Context, baseURL, refreshToken string) (refresh.Grant, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{BaseURL: baseURL, RefreshToken: refreshToken})
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return refresh.Grant{}, ctx.Err()
		}
	}

	f.mu.Lock()
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return refresh.Grant{}, errors.Wrapf(errors.ErrRefreshFailed, "[refresherfake Refresh] no scripted response")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()

	if next.panic != nil {
		panic(next.panic)
	}
	return next.grant, next.err
}
