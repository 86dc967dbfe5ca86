package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory. Tests use it to assert on emitted subjects.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, subject string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Envelope{Subject: subject, Data: data})
	return nil
}

func (r *Recorder) Close() {}

func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Subject)
	}
	return out
}
