// Package session drives one end-to-end orchestration run.
package session

import "time"

// Event types emitted during a run.
const (
	EventStart          = "start"
	EventAgentChange    = "agent_change"
	EventToolCall       = "tool_call"
	EventToolResult     = "tool_result"
	EventDelta          = "delta"
	EventComplete       = "complete"
	EventArtifactsSaved = "artifacts_saved"
	EventError          = "error"
)

// Event is one element of a run's live event stream. Every event
// carries type, timestamp, and agent; the remaining fields are
// type-specific.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Agent     string    `json:"agent"`

	Message        string   `json:"message,omitempty"`
	Details        string   `json:"details,omitempty"`
	Tool           string   `json:"tool,omitempty"`
	Content        string   `json:"content,omitempty"`
	Response       string   `json:"response,omitempty"`
	AgentsInvolved []string `json:"agents_involved,omitempty"`
	Path           string   `json:"path,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Terminal reports whether this event seals the run outcome. At most
// one terminal event is emitted per run.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// Observer consumes a copy of every event a run emits. Observers must
// not block; slow sinks should buffer internally.
type Observer interface {
	ObserveEvent(runID string, ev Event)
}
