package render

import (
	"sync"
	"time"
)

// Event is a single telemetry record. The log is append-only; readers
// get copies.
type Event struct {
	Name       string         `json:"name"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Telemetry is a bounded in-memory ring of stage-transition events.
// Oldest events are evicted past capacity.
type Telemetry struct {
	mu     sync.Mutex
	events []Event
	head   int
	count  int
}

// NewTelemetry creates a ring with the given capacity.
func NewTelemetry(capacity int) *Telemetry {
	if capacity < 1 {
		capacity = 256
	}
	return &Telemetry{events: make([]Event, capacity)}
}

// Record appends an event with the current timestamp.
func (t *Telemetry) Record(name string, fields map[string]any) {
	t.record(Event{Name: name, Timestamp: time.Now().UTC(), Fields: fields})
}

// RecordDuration appends an event carrying an elapsed duration.
func (t *Telemetry) RecordDuration(name string, elapsed time.Duration, fields map[string]any) {
	t.record(Event{
		Name:       name,
		Timestamp:  time.Now().UTC(),
		DurationMS: elapsed.Milliseconds(),
		Fields:     fields,
	})
}

func (t *Telemetry) record(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := (t.head + t.count) % len(t.events)
	if t.count == len(t.events) {
		// Full: overwrite the oldest slot.
		t.events[t.head] = e
		t.head = (t.head + 1) % len(t.events)
		return
	}
	t.events[idx] = e
	t.count++
}

// Recent returns up to n of the most recent events, newest last.
func (t *Telemetry) Recent(n int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > t.count {
		n = t.count
	}

	out := make([]Event, n)
	start := t.count - n
	for i := 0; i < n; i++ {
		out[i] = t.events[(t.head+start+i)%len(t.events)]
	}
	return out
}

// Len reports the number of retained events.
func (t *Telemetry) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
