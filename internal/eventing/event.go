// Package eventing defines the immutable signal that enters the pipeline.
//
// An Event is constructed once at ingest (HTTP or the broker consumer) and
// is read-only thereafter, except for the one-time trace_id assignment when
// the caller did not supply one.
package eventing

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event is an inbound business signal, e.g. an order-creation notification.
type Event struct {
	ID      string                 `json:"id"`
	Source  string                 `json:"source"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
	Headers map[string]string      `json:"headers"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// EnsureTraceID assigns a fresh trace id when the event arrived without one.
// Safe to call more than once: it is a no-op once a trace id is set.
func (e *Event) EnsureTraceID() string {
	if e.TraceID == "" {
		e.TraceID = "trc_" + uuid.New().String()
	}
	return e.TraceID
}

// DecodeEvent parses a broker message value as an Event (spec §6: "Consumer
// decodes each message as JSON matching the Event schema").
func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if e.ID == "" || e.Type == "" {
		return nil, fmt.Errorf("event missing required id or type field")
	}
	return &e, nil
}

// Observation is the read-only view of an Event the Planner reasons over.
type Observation struct {
	Type    string
	Payload map[string]interface{}
	Headers map[string]string
}

// Observe builds the Observation the planner consumes from an Event.
func Observe(e *Event) Observation {
	return Observation{Type: e.Type, Payload: e.Payload, Headers: e.Headers}
}

// PayloadString reads a string field from the payload, accepting either the
// exact key or the same key with a capitalized first letter — the planner's
// region rule must accept both "region" and "Region".
func (o Observation) PayloadString(key string) (string, bool) {
	if v, ok := o.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	capKey := capitalize(key)
	if v, ok := o.Payload[capKey]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
