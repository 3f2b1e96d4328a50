package telemetry

import (
	"context"
	"sync"
)

// Event is one recorded telemetry call.
type Event struct {
	Name       string
	Properties map[string]string
	Duration   float64
	// Kind is "event", "user-error" or "system-error".
	Kind    string
	Message string
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

func (r *Recorder) SendEvent(name string, properties map[string]string, durationSeconds float64) {
	r.add(Event{Name: name, Properties: properties, Duration: durationSeconds, Kind: "event"})
}

func (r *Recorder) SendEventWithDuration(ctx context.Context, name string, action func(ctx context.Context) error) error {
	seconds, err := timeAction(ctx, action)
	r.add(Event{Name: name, Duration: seconds, Kind: "event"})
	return err
}

func (r *Recorder) SendUserErrorEvent(name, message string) {
	r.add(Event{Name: name, Kind: "user-error", Message: message})
}

func (r *Recorder) SendSystemErrorEvent(name, message, stack string) {
	r.add(Event{Name: name, Kind: "system-error", Message: message})
}

// Has reports whether an event with name was recorded.
func (r *Recorder) Has(name string) bool {
	_, ok := r.Find(name)
	return ok
}

// Find returns the first event with name.
func (r *Recorder) Find(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}
