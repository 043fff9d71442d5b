// Package router decides which agent receives control after each turn.
package router

import (
	"fmt"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/protocol"
)

// Error is a routing failure: a (from, to, kind) triple outside the
// allowed table, or a bounce-back violation. Fatal to the run and
// surfaced distinctly from protocol errors so operators can tell bad
// wiring from bad messages.
type Error struct {
	From   string
	To     string
	Kind   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("routing error: %s -> %s (%s): %s", e.From, e.To, e.Kind, e.Reason)
}

// Router enforces the fixed route table and bounce-back discipline for
// one run. It is not safe for concurrent use; each run owns its own.
type Router struct {
	reg *company.Registry
	// delegations maps a delegated agent to the agent that tasked it.
	// A result or evaluation must travel back along exactly this edge.
	delegations map[string]string
}

// New creates a router over a company registry.
func New(reg *company.Registry) *Router {
	return &Router{
		reg:         reg,
		delegations: make(map[string]string),
	}
}

// Route validates the message the active agent just produced and
// returns the id of the next agent to receive control.
func (r *Router) Route(msg protocol.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	from, ok := r.reg.Node(msg.From)
	if !ok {
		return "", &Error{From: msg.From, To: msg.To, Kind: msg.Kind, Reason: "unknown sender"}
	}
	to, ok := r.reg.Node(msg.To)
	if !ok {
		return "", &Error{From: msg.From, To: msg.To, Kind: msg.Kind, Reason: "unknown recipient"}
	}

	if err := r.checkEdge(from, to, msg.Kind); err != nil {
		return "", err
	}

	switch msg.Kind {
	case protocol.KindTask, protocol.KindFeedback:
		r.delegations[msg.To] = msg.From
	case protocol.KindResult, protocol.KindEvaluation:
		owner, delegated := r.delegations[msg.From]
		if !delegated {
			return "", &Error{From: msg.From, To: msg.To, Kind: msg.Kind,
				Reason: "reply from an agent that was never delegated to"}
		}
		if owner != msg.To {
			return "", &Error{From: msg.From, To: msg.To, Kind: msg.Kind,
				Reason: fmt.Sprintf("reply must return to delegator %s", owner)}
		}
		// Exactly one reply per delegation.
		delete(r.delegations, msg.From)
	}

	return msg.To, nil
}

// checkEdge enforces the static route table.
func (r *Router) checkEdge(from, to company.AgentNode, kind string) error {
	fail := func(reason string) error {
		return &Error{From: from.ID, To: to.ID, Kind: kind, Reason: reason}
	}

	switch from.Role {
	case company.RoleOrchestrator:
		if kind != protocol.KindTask && kind != protocol.KindFeedback {
			return fail("orchestrator may only send task or feedback")
		}
		if to.Role == company.RoleOrchestrator {
			return fail("orchestrator cannot delegate to itself")
		}

	case company.RoleLead:
		switch kind {
		case protocol.KindTask:
			if !r.reg.IsChild(from.ID, to.ID) {
				return fail("lead may only task its own workers")
			}
		case protocol.KindResult:
			if to.Role != company.RoleOrchestrator {
				return fail("lead results go to the orchestrator")
			}
		default:
			return fail("kind not legal for lead")
		}

	case company.RoleWorker:
		if kind != protocol.KindResult {
			return fail("workers only emit results")
		}
		// Results return to whoever delegated; absent a recorded
		// delegation that is the structural owner.
		allowed := r.reg.Owner(from.ID)
		if d, ok := r.delegations[from.ID]; ok {
			allowed = d
		}
		if to.ID != allowed {
			return fail(fmt.Sprintf("worker results go to owner %s", allowed))
		}

	case company.RoleReviewer:
		if kind != protocol.KindEvaluation {
			return fail("reviewer only emits evaluations")
		}
		if to.Role != company.RoleOrchestrator {
			return fail("evaluations go to the orchestrator")
		}

	default:
		return fail(fmt.Sprintf("unknown role %q", from.Role))
	}
	return nil
}

// CanFinalize reports whether agentID may produce the final user-visible
// answer. Only the orchestrator ever terminates a run.
func (r *Router) CanFinalize(agentID string) bool {
	n, ok := r.reg.Node(agentID)
	return ok && n.Role == company.RoleOrchestrator
}
