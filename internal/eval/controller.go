// Package eval implements the bounded pass/revise loop gating
// user-facing deliverables.
package eval

import (
	"github.com/workforcehq/workforce/internal/protocol"
	"github.com/workforcehq/workforce/internal/task"
)

// Outcomes of one evaluation step.
const (
	OutcomePass = "pass"
	// OutcomeRevise sends the deliverable back to its producer with
	// feedback; the task iteration has already been advanced.
	OutcomeRevise = "revise"
	// OutcomeCeiling means the iteration budget is exhausted on a
	// REVISE verdict; the run completes with the last artifact anyway.
	// Not an error: availability is preferred over perfection.
	OutcomeCeiling = "ceiling_exhausted"
)

// Decision is the controller's verdict on one evaluation message.
type Decision struct {
	Outcome  string
	Feedback string
}

// Decide applies an evaluation to the task context and returns what the
// session should do next. The loop is bounded by construction: every
// REVISE either fits under MaxIterations or finishes the task.
func Decide(tc *task.Context, ev protocol.Evaluation) Decision {
	if ev.Verdict == protocol.VerdictPass {
		tc.Finish()
		return Decision{Outcome: OutcomePass}
	}

	if !tc.RecordRevision(ev.Feedback) {
		tc.Finish()
		return Decision{Outcome: OutcomeCeiling, Feedback: ev.Feedback}
	}
	return Decision{Outcome: OutcomeRevise, Feedback: ev.Feedback}
}
