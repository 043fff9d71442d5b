package session

import (
	"context"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/protocol"
	"github.com/workforcehq/workforce/internal/task"
)

// TurnInput is everything an agent needs to take one turn.
type TurnInput struct {
	Agent    company.AgentNode
	Incoming protocol.Message
	Task     *task.Context
	Company  *company.Data
}

// ToolEvent is one tool invocation sub-event reported by a turn.
type ToolEvent struct {
	Type   string // EventToolCall or EventToolResult
	Tool   string
	Detail string
}

// TurnUsage is the token usage of one turn.
type TurnUsage struct {
	InputTokens  int
	OutputTokens int
}

// TurnOutput is the outcome of one agent turn: either a handoff
// message, or a final free-text answer when the agent is the
// orchestrator terminating the run.
type TurnOutput struct {
	Message     *protocol.Message
	FinalAnswer string
	ToolEvents  []ToolEvent
	Deltas      []string
	Usage       TurnUsage
}

// Executor is the external agent-execution capability. Implementations
// produce exactly one of Message or FinalAnswer per turn.
type Executor interface {
	ExecuteTurn(ctx context.Context, in TurnInput) (*TurnOutput, error)
}
