package observability

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a visualization state transition.
type EventKind string

const (
	EventPlay          EventKind = "play"
	EventPause         EventKind = "pause"
	EventStop          EventKind = "stop"
	EventStep          EventKind = "step"
	EventLayerSelected EventKind = "layer_selected"
	EventToggle        EventKind = "toggle"
	EventModelLoaded   EventKind = "model_loaded"
	EventLightCone     EventKind = "light_cone"
)

// Event is a single state transition notification.
type Event struct {
	ID     string         `json:"id"`
	Kind   EventKind      `json:"kind"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// NewEvent creates an event with a fresh id and the current time.
// kv is a flat list of alternating keys and values; a trailing key without a
// value is dropped.
func NewEvent(kind EventKind, kv ...any) Event {
	e := Event{
		ID:   uuid.NewString(),
		Kind: kind,
		At:   time.Now(),
	}
	if len(kv) >= 2 {
		e.Fields = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				continue
			}
			e.Fields[key] = kv[i+1]
		}
	}
	return e
}

// Emit builds an event and hands it to the registered EventHooks.
func Emit(kind EventKind, kv ...any) {
	Events().OnEvent(NewEvent(kind, kv...))
}
