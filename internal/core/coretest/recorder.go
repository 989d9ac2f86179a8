// Package coretest provides an in-memory core.Connection for tests.
package coretest

import (
	"sync"

	"github.com/dkeye/clicker/internal/core"
)

// Recorder is a Connection that keeps every event it is sent.
type Recorder struct {
	mu      sync.Mutex
	events  []core.Event
	aborts  int
	SendErr error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Send(ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return r.SendErr
	}
	if r.aborts > 0 {
		return core.ErrConnectionClosed
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborts++
}

func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Named returns the events with the given name, in delivery order.
func (r *Recorder) Named(name core.EventName) []core.Event {
	var out []core.Event
	for _, ev := range r.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Last() (core.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return core.Event{}, false
	}
	return r.events[len(r.events)-1], true
}

func (r *Recorder) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborts > 0
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
