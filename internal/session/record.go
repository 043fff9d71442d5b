package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/workforcehq/workforce/internal/cost"
)

// Run statuses recorded in the RunRecord.
const (
	StatusCompleted = "completed"
	StatusErrored   = "errored"
	StatusAborted   = "aborted"
)

// HandoffStep is one entry of the ordered handoff trace.
type HandoffStep struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from_agent"`
	To        string    `json:"to_agent"`
	Kind      string    `json:"kind"`
}

// EvaluationStep records one reviewer verdict, so a ceiling exhaustion
// stays distinguishable in the trace from a clean PASS.
type EvaluationStep struct {
	Iteration int    `json:"iteration"`
	Verdict   string `json:"verdict"`
	Outcome   string `json:"outcome"`
}

// RunRecord is the session's own bookkeeping: created at run start,
// sealed at run end.
type RunRecord struct {
	RunID          string           `json:"run_id"`
	Company        string           `json:"company"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	Status         string           `json:"status"`
	Handoffs       []HandoffStep    `json:"handoffs"`
	Evaluations    []EvaluationStep `json:"evaluations,omitempty"`
	AgentsInvolved []string         `json:"agents_involved"`
	Response       string           `json:"response"`
	Usage          cost.Estimate    `json:"usage"`
	EventCount     int              `json:"event_count"`
}

// DurationMS returns the run duration in milliseconds.
func (r *RunRecord) DurationMS() int64 {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime).Milliseconds()
}

// NewRunID generates a run identity: time-ordered down to the
// microsecond, with a short random suffix against collisions. The id
// doubles as the artifact directory key.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("%s_%06d_%s",
		now.Format("20060102_150405"),
		now.Nanosecond()/1000,
		uuid.NewString()[:8])
}
