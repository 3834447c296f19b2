package types

import "time"

// SweepKind identifies what triggered a sweep pass.
type SweepKind string

const (
	SweepPeriodic SweepKind = "periodic"
	SweepReactive SweepKind = "reactive"
)

// EntryView is one pool entry as shown to callers. Age is computed at the
// time the view was built.
type EntryView struct {
	ID       string        `json:"id"`
	Payload  string        `json:"payload,omitempty"`
	Created  time.Time     `json:"created"`
	Lifetime time.Duration `json:"lifetime"`
	Age      time.Duration `json:"age"`
}

// CollectorStatus describes the expiry engine at a point in time.
type CollectorStatus struct {
	State    string        `json:"state"` // "idle" | "running" | "stop_requested"
	Period   time.Duration `json:"period"`
	Reactive bool          `json:"reactive"`
	Entries  int           `json:"entries"`
}

// Event types carried by Event.Type.
const (
	EventCollectorStarted = "collector_started"
	EventCollectorStopped = "collector_stopped"
	EventSweepStarted     = "sweep_started"
	EventEntryInserted    = "entry_inserted"
	EventEntryDeleted     = "entry_deleted"
	EventEntryRemoved     = "entry_removed"
)

// Event is a single engine notification, as pushed to stream clients.
type Event struct {
	Type     string        `json:"type"`
	Kind     SweepKind     `json:"kind,omitempty"`
	ID       string        `json:"id,omitempty"`
	Lifetime time.Duration `json:"lifetime,omitempty"`
	Period   time.Duration `json:"period,omitempty"`
	At       time.Time     `json:"at"`
}
