package engine

import "github.com/arthshield/fraudlabs/internal/domain"

// EventType identifies a simulation event pushed to the client.
type EventType string

const (
	// EventStepChanged fires whenever the session enters a step,
	// including the initial Intro entry on start.
	EventStepChanged EventType = "step_changed"
	// EventProfit fires on each fake balance growth tick. The client
	// shows the increment transiently; it carries no session semantics
	// beyond the new balance.
	EventProfit EventType = "profit"
	// EventCountdownTick fires once per second while a countdown runs.
	EventCountdownTick EventType = "countdown_tick"
	// EventCountdownExpired fires when a countdown reaches zero.
	EventCountdownExpired EventType = "countdown_expired"
	// EventSessionReset fires when the user restarts the simulation.
	EventSessionReset EventType = "session_reset"
	// EventResultsReady fires when the session reaches the terminal
	// results step.
	EventResultsReady EventType = "results_ready"
)

// Event is one simulation event. Fields beyond Type are populated per
// event type; zero values are omitted on the wire.
type Event struct {
	Type      EventType     `json:"type"`
	Step      domain.Step   `json:"step"`
	Timer     CountdownKind `json:"timer,omitempty"`
	Remaining int           `json:"remaining,omitempty"`
	Increment domain.Money  `json:"increment,omitempty"`
	Balance   domain.Money  `json:"balance,omitempty"`
	Score     int           `json:"score,omitempty"`
}

// Sink receives simulation events for delivery to a user's clients.
// Implementations must be safe for concurrent use and must not block:
// events are published from timer goroutines and from request handlers.
type Sink interface {
	Publish(userID string, ev Event)
}

// NopSink discards events. Used when no client transport is attached.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(string, Event) {}
