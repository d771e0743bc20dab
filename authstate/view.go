package authstate

import (
	"sync"

	"github.com/jrsteele09/go-webadmin/sessions"
)

// View is a memoized boolean derived from the session record.
// It is recomputed only when its key (the inputs it depends on) changes.
type View struct {
	name    string
	key     func(sessions.Record) string
	compute func(sessions.Record) bool

	mu         sync.RWMutex
	value      bool
	lastKey    string
	computed   bool
	recomputes int
	subs       map[int]func(bool)
	nextSub    int
}

func newView(name string, key func(sessions.Record) string, compute func(sessions.Record) bool) *View {
	return &View{
		name:    name,
		key:     key,
		compute: compute,
		subs:    make(map[int]func(bool)),
	}
}

func (v *View) Name() string {
	return v.name
}

// Get returns the current value without subscribing
func (v *View) Get() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Recomputes counts how often the derivation actually ran
func (v *View) Recomputes() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.recomputes
}

// Subscribe registers fn to be called on the event loop whenever the value flips
func (v *View) Subscribe(fn func(bool)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// refresh brings the view up to date with record and reports whether the value flipped
func (v *View) refresh(record sessions.Record) (bool, bool) {
	key := v.key(record)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.computed && key == v.lastKey {
		return v.value, false
	}
	previous := v.value
	v.value = v.compute(record)
	v.lastKey = key
	v.recomputes++
	first := !v.computed
	v.computed = true
	return v.value, !first && previous != v.value
}

func (v *View) notify(value bool) {
	v.mu.RLock()
	subs := make([]func(bool), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.RUnlock()

	for _, fn := range subs {
		fn(value)
	}
}
