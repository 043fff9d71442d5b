package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workforcehq/workforce/internal/eval"
	"github.com/workforcehq/workforce/internal/protocol"
	"github.com/workforcehq/workforce/internal/task"
)

// reviewRequest is the payload of the task the session synthesizes for
// the reviewer when a deliverable needs evaluation.
type reviewRequest struct {
	Goal        string `json:"goal"`
	Deliverable string `json:"deliverable"`
	Iteration   int    `json:"iteration"`
}

// deliver routes one message and applies the orchestration rules for
// messages arriving at the entry agent: review dispatch, evaluation
// verdicts, and completion of non-reviewed tasks. It returns the
// message the next turn should receive and whether the run is done.
func (s *Session) deliver(ctx context.Context, ch chan<- Event, msg protocol.Message) (protocol.Message, bool, error) {
	next, err := s.rt.Route(msg)
	if err != nil {
		return protocol.Message{}, false, err
	}

	if msg.Kind == protocol.KindResult {
		if err := s.tc.AddArtifact(msg.From, msg.Kind, msg.Payload); err != nil {
			slog.Warn("Artifact not recorded", "run_id", s.record.RunID, "error", err)
		}
	}

	if !s.handoff(ctx, ch, msg, next) {
		return protocol.Message{}, false, nil
	}

	if next != s.reg.Entry() {
		return msg, false, nil
	}

	switch msg.Kind {
	case protocol.KindResult:
		return s.receiveResult(ctx, ch, msg)
	case protocol.KindEvaluation:
		return s.receiveEvaluation(ctx, ch, msg)
	}
	return msg, false, nil
}

// receiveResult handles a deliverable arriving at the orchestrator:
// either forward it to the reviewer or let the orchestrator wrap up.
func (s *Session) receiveResult(ctx context.Context, ch chan<- Event, msg protocol.Message) (protocol.Message, bool, error) {
	reviewer, hasReviewer := s.reg.Reviewer()
	needsReview := s.tc.RequiresReview() && s.tc.Status == task.StatusInProgress && hasReviewer
	if !needsReview {
		// No evaluation cycle for this task type; the orchestrator's
		// next turn produces the final answer from this result.
		if s.tc.Status == task.StatusInProgress && !s.tc.RequiresReview() {
			s.tc.Finish()
		}
		return msg, false, nil
	}

	if s.producer == "" {
		s.producer = msg.From
	}
	review, err := protocol.NewMessage(protocol.KindTask, s.reg.Entry(), reviewer, reviewRequest{
		Goal:        s.tc.Goal,
		Deliverable: msg.Text(),
		Iteration:   s.tc.Iteration,
	})
	if err != nil {
		return protocol.Message{}, false, err
	}
	if _, err := s.rt.Route(review); err != nil {
		return protocol.Message{}, false, err
	}
	if !s.handoff(ctx, ch, review, reviewer) {
		return protocol.Message{}, false, nil
	}
	return review, false, nil
}

// receiveEvaluation applies the reviewer's verdict via the evaluation
// controller: finish on PASS or ceiling exhaustion, re-delegate with
// feedback otherwise.
func (s *Session) receiveEvaluation(ctx context.Context, ch chan<- Event, msg protocol.Message) (protocol.Message, bool, error) {
	verdict, err := protocol.DecodeEvaluation(&msg)
	if err != nil {
		return protocol.Message{}, false, err
	}

	decision := eval.Decide(s.tc, verdict)
	s.record.Evaluations = append(s.record.Evaluations, EvaluationStep{
		Iteration: s.tc.Iteration,
		Verdict:   verdict.Verdict,
		Outcome:   decision.Outcome,
	})

	switch decision.Outcome {
	case eval.OutcomePass, eval.OutcomeCeiling:
		// The answer is the evaluated artifact; on a ceiling the last
		// version ships regardless of the verdict.
		s.response = s.producerDeliverable()
		return protocol.Message{}, true, nil
	}

	feedback := s.tc.Redelegate()
	fb := protocol.TextMessage(protocol.KindFeedback, s.reg.Entry(), s.producer, feedback)
	if _, err := s.rt.Route(fb); err != nil {
		return protocol.Message{}, false, err
	}
	if !s.handoff(ctx, ch, fb, s.producer) {
		return protocol.Message{}, false, nil
	}
	return fb, false, nil
}

// producerDeliverable returns the text of the producer's latest artifact.
func (s *Session) producerDeliverable() string {
	a, ok := s.tc.LatestArtifact(s.producer)
	if !ok {
		return ""
	}
	m := protocol.Message{Payload: a.Payload}
	return m.Text()
}

// handoff records the hop in the trace, then emits the agent_change
// event; the trace is always a superset of the stream. Returns false if
// the run was cancelled mid-emit.
func (s *Session) handoff(ctx context.Context, ch chan<- Event, msg protocol.Message, to string) bool {
	s.record.Handoffs = append(s.record.Handoffs, HandoffStep{
		Timestamp: s.now(),
		From:      msg.From,
		To:        to,
		Kind:      msg.Kind,
	})
	s.current = to
	s.addAgent(to)

	name := to
	if n, ok := s.reg.Node(to); ok && n.Name != "" {
		name = n.Name
	}
	if !s.emit(ctx, ch, Event{
		Type:    EventAgentChange,
		Agent:   to,
		Details: fmt.Sprintf("%s is now handling the request", name),
	}) {
		s.abort()
		return false
	}
	return true
}

func (s *Session) addAgent(id string) {
	for _, a := range s.record.AgentsInvolved {
		if a == id {
			return
		}
	}
	s.record.AgentsInvolved = append(s.record.AgentsInvolved, id)
}
