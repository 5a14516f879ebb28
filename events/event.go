// Package events defines the structured event emission surface described in
// spec §4.J: every operation emits exactly one record describing its
// post-state delta, serialised the same way regardless of which registry or
// access-control account produced it.
//
// Grounded on the teacher's core/events.Emitter interface and
// core/types.Event struct, merged into one package here since the rest of
// core/ (token transfer/staking/governance events) is out of this module's
// scope.
package events

// Event is anything that can report its own type string. Record, below,
// is the one concrete implementation every component in this module uses;
// the interface exists so Emitter stays decoupled from the concrete shape.
type Event interface {
	EventType() string
}

// Record is the structured payload emitted by registry and access-control
// operations: a type tag plus a flat string-keyed attribute map, so
// off-chain indexers can decode every event with one generic decoder
// instead of one per event type.
type Record struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// EventType implements Event.
func (r Record) EventType() string { return r.Type }

// Emitter broadcasts events to downstream subscribers (off-chain indexers,
// metrics, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding every event. Engines
// default to it so an emitter is never required to be wired in tests.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
