package manager

import "time"

// Event represents a manager lifecycle event.
// Minimal and stable: name + attempt id and optional fields via key/values.
type Event struct {
	Name    string         `json:"name"`
	Attempt string         `json:"attempt,omitempty"`
	Time    time.Time      `json:"time"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
