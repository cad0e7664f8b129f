package domain

import (
	"fmt"
	"time"
)

// EventType enumerates the event kinds carried by the envelope.
type EventType string

const (
	// CounterEvent carries the sufficient statistics of a counter.
	CounterEvent EventType = "counter"
	// GaugeEvent carries a single gauge sample.
	GaugeEvent EventType = "gauge"
	// ValidationEvent carries one node validation result.
	ValidationEvent EventType = "validation"
)

// TimeLayout is the wire format of the event time, always UTC.
const TimeLayout = "2006-01-02T15:04:05Z"

// MarkerKey is the data key identifying the reporting node.
const MarkerKey = "marker"

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case CounterEvent, GaugeEvent, ValidationEvent:
		return true
	default:
		return false
	}
}

// Event is the decoded form of one envelope entry as seen by the collector.
type Event struct {
	Data map[string]any `json:"data"`
	Type EventType      `json:"type"`
	Time string         `json:"time"`
}

// Validate checks the envelope shape of a received event.
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if _, err := time.Parse(TimeLayout, e.Time); err != nil {
		return fmt.Errorf("%w: bad time %q", ErrInvalidEvent, e.Time)
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalidEvent)
	}
	if e.Marker() == "" {
		return fmt.Errorf("%w: missing marker", ErrInvalidEvent)
	}
	return nil
}

// Marker returns the reporting node tag or "" when absent.
func (e Event) Marker() string {
	s, _ := e.Data[MarkerKey].(string)
	return s
}

// StringField returns the data value under key when it is a string.
func (e Event) StringField(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// NumberField returns the data value under key when it is a JSON number.
func (e Event) NumberField(key string) (float64, bool) {
	switch v := e.Data[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// StoredEvent is an event accepted by the collector.
type StoredEvent struct {
	ReceivedAt time.Time `json:"received_at"`
	ID         string    `json:"id"`
	Event
}

// EventFilter narrows event listings.
type EventFilter struct {
	Type   EventType
	Marker string
	Limit  int
}

// Match reports whether e passes the type and marker filters.
func (f EventFilter) Match(e Event) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Marker != "" && e.Marker() != f.Marker {
		return false
	}
	return true
}
