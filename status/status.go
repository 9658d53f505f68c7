// Package status defines the event surface consumed by display sinks.
// The core reports through these types; rendering lives elsewhere.
package status

type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Update is one status-line change: the coarse state plus a main and an
// optional detail text.
type Update struct {
	State  State
	Main   string
	Detail string
}

// Summary is the summary panel content. Visible stays untouched by
// sinks unless an update explicitly changes it.
type Summary struct {
	Visible bool
	Text    string
}

type Sink interface {
	SetStatus(Update)
	SetSummary(Summary)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) SetStatus(Update)   {}
func (NopSink) SetSummary(Summary) {}
