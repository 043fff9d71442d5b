// Package runner drives agent turns against an LLM provider. It builds
// the system prompt for the current agent, runs the tool-call loop, and
// parses the model's control decision into a routed message or a final
// answer.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/protocol"
	"github.com/workforcehq/workforce/internal/provider"
	"github.com/workforcehq/workforce/internal/session"
	"github.com/workforcehq/workforce/internal/workforce"
)

// maxToolIterations bounds the tool-call loop within a single turn.
const maxToolIterations = 8

// Options configures an LLMExecutor.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMExecutor implements session.Executor on top of an LLM provider.
// One executor serves one company; tools are bound to its dataset.
type LLMExecutor struct {
	provider provider.LLMProvider
	registry *company.Registry
	data     *company.Data
	tools    *workforce.Registry
	opts     Options
}

// NewLLMExecutor builds an executor for one company.
func NewLLMExecutor(p provider.LLMProvider, reg *company.Registry, data *company.Data, opts Options) *LLMExecutor {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}
	return &LLMExecutor{
		provider: p,
		registry: reg,
		data:     data,
		tools:    workforce.NewTools(data),
		opts:     opts,
	}
}

// ExecuteTurn runs one agent turn: prompt, tool loop, control parse.
func (e *LLMExecutor) ExecuteTurn(ctx context.Context, in session.TurnInput) (*session.TurnOutput, error) {
	out := &session.TurnOutput{}

	messages := []provider.Message{
		{Role: "system", Content: e.systemPrompt(in)},
		{Role: "user", Content: e.userPrompt(in)},
	}

	agentTools := workforce.ToolsForAgent(e.tools, in.Agent.ID)
	defs := workforce.Definitions(agentTools)

	var resp *provider.ChatResponse
	for i := 0; i < maxToolIterations; i++ {
		var err error
		resp, err = e.provider.Chat(ctx, &provider.ChatRequest{
			Messages:    messages,
			Tools:       defs,
			Model:       e.opts.Model,
			MaxTokens:   e.opts.MaxTokens,
			Temperature: e.opts.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", in.Agent.ID, err)
		}
		out.Usage.InputTokens += resp.Usage.PromptTokens
		out.Usage.OutputTokens += resp.Usage.CompletionTokens

		if len(resp.ToolCalls) == 0 {
			break
		}

		messages = append(messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			out.ToolEvents = append(out.ToolEvents, session.ToolEvent{
				Type:   session.EventToolCall,
				Tool:   tc.Name,
				Detail: fmt.Sprintf("%s calling %s", in.Agent.Name, tc.Name),
			})
			result, err := e.tools.Execute(ctx, tc.Name, tc.Arguments)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			out.ToolEvents = append(out.ToolEvents, session.ToolEvent{
				Type:   session.EventToolResult,
				Tool:   tc.Name,
				Detail: summarize(result, 160),
			})
			messages = append(messages, provider.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	if resp == nil || (len(resp.ToolCalls) > 0 && resp.Content == "") {
		return nil, fmt.Errorf("agent %s: no completion after %d tool iterations", in.Agent.ID, maxToolIterations)
	}

	return e.parseControl(in, resp.Content, out)
}

// control is the decision envelope every agent turn must end with.
type control struct {
	Action  string `json:"action"`
	Kind    string `json:"kind,omitempty"`
	To      string `json:"to,omitempty"`
	Text    string `json:"text,omitempty"`
	Verdict string `json:"verdict,omitempty"`

	BrandVoiceScore int    `json:"brand_voice_score,omitempty"`
	QualityScore    int    `json:"quality_score,omitempty"`
	CompletionScore int    `json:"completion_score,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}

func (e *LLMExecutor) parseControl(in session.TurnInput, content string, out *session.TurnOutput) (*session.TurnOutput, error) {
	var ctl control
	if err := json.Unmarshal([]byte(stripFences(content)), &ctl); err != nil || ctl.Action == "" {
		// The orchestrator answering in plain prose is usable as-is;
		// anyone else has broken the contract.
		if in.Agent.Role == company.RoleOrchestrator {
			slog.Debug("orchestrator replied in prose, treating as final answer", "agent", in.Agent.ID)
			out.FinalAnswer = strings.TrimSpace(content)
			out.Deltas = []string{out.FinalAnswer}
			return out, nil
		}
		return nil, fmt.Errorf("agent %s: unparseable control response: %s", in.Agent.ID, summarize(content, 120))
	}

	switch ctl.Action {
	case "final":
		out.FinalAnswer = strings.TrimSpace(ctl.Text)
		out.Deltas = []string{out.FinalAnswer}
		return out, nil

	case "handoff":
		if !protocol.KnownKind(ctl.Kind) {
			return nil, fmt.Errorf("agent %s: handoff with unknown kind %q", in.Agent.ID, ctl.Kind)
		}
		msg := protocol.TextMessage(ctl.Kind, in.Agent.ID, ctl.To, ctl.Text)
		out.Message = &msg
		return out, nil

	case "evaluate":
		ev := protocol.Evaluation{
			Verdict:         strings.ToUpper(ctl.Verdict),
			BrandVoiceScore: ctl.BrandVoiceScore,
			QualityScore:    ctl.QualityScore,
			CompletionScore: ctl.CompletionScore,
			Feedback:        ctl.Feedback,
		}
		msg, err := protocol.NewMessage(protocol.KindEvaluation, in.Agent.ID, e.registry.Entry(), ev)
		if err != nil {
			return nil, fmt.Errorf("agent %s: encode evaluation: %w", in.Agent.ID, err)
		}
		out.Message = &msg
		return out, nil

	default:
		return nil, fmt.Errorf("agent %s: unknown control action %q", in.Agent.ID, ctl.Action)
	}
}

func (e *LLMExecutor) systemPrompt(in session.TurnInput) string {
	parts := []string{
		workforce.Instructions(in.Agent, e.registry, e.data),
		e.responseContract(in),
	}
	return strings.Join(parts, "\n\n")
}

// responseContract tells the agent exactly what JSON to end its turn with.
func (e *LLMExecutor) responseContract(in session.TurnInput) string {
	if in.Agent.Role == company.RoleReviewer {
		return `## Response Format
After reviewing, respond with ONLY a JSON object:
{"action": "evaluate", "verdict": "PASS" or "REVISE", "brand_voice_score": 1-5, "quality_score": 1-5, "completion_score": 1-5, "feedback": "specific feedback if REVISE"}`
	}

	var sb strings.Builder
	sb.WriteString("## Response Format\nWhen you are done with this turn, respond with ONLY a JSON object. Choose one:\n")
	switch in.Agent.Role {
	case company.RoleOrchestrator:
		sb.WriteString(`- Delegate: {"action": "handoff", "kind": "task", "to": "<agent_id>", "text": "<clear instructions>"}
- Answer the user: {"action": "final", "text": "<your complete answer>"}`)
	case company.RoleLead:
		sb.WriteString(`- Delegate to your team: {"action": "handoff", "kind": "task", "to": "<agent_id>", "text": "<clear instructions>"}
- Report upward: {"action": "handoff", "kind": "result", "to": "` + ownerOf(e.registry, in.Agent) + `", "text": "<your compiled deliverable>"}`)
	default:
		sb.WriteString(`- Report your deliverable: {"action": "handoff", "kind": "result", "to": "` + replyTarget(in) + `", "text": "<your complete deliverable>"}`)
	}
	return sb.String()
}

func (e *LLMExecutor) userPrompt(in session.TurnInput) string {
	var sb strings.Builder
	if in.Agent.Role == company.RoleReviewer && in.Incoming.Kind == protocol.KindTask {
		var req struct {
			Goal        string `json:"goal"`
			Deliverable string `json:"deliverable"`
			Iteration   int    `json:"iteration"`
		}
		if err := in.Incoming.Decode(&req); err == nil && req.Deliverable != "" {
			fmt.Fprintf(&sb, "Review the following deliverable (iteration %d) for the request %q:\n\n%s",
				req.Iteration, req.Goal, req.Deliverable)
			return sb.String()
		}
	}
	switch in.Incoming.Kind {
	case protocol.KindTask:
		if in.Incoming.From == "" {
			sb.WriteString("A user request has arrived:\n\n")
		} else {
			from := in.Incoming.From
			if node, ok := e.registry.Node(from); ok {
				from = node.Name
			}
			fmt.Fprintf(&sb, "%s has delegated a task to you:\n\n", from)
		}
		sb.WriteString(in.Incoming.Text())
	case protocol.KindResult:
		from := in.Incoming.From
		if node, ok := e.registry.Node(from); ok {
			from = node.Name
		}
		fmt.Fprintf(&sb, "%s reports back on the task %q:\n\n%s", from, in.Task.Goal, in.Incoming.Text())
	case protocol.KindFeedback:
		fmt.Fprintf(&sb, "Your deliverable for %q needs revision (iteration %d of %d). Reviewer feedback:\n\n%s",
			in.Task.Goal, in.Task.Iteration, in.Task.MaxIterations, in.Incoming.Text())
	default:
		sb.WriteString(in.Incoming.Text())
	}
	return sb.String()
}

// replyTarget is where a worker should send its result: back to whoever
// delegated the current message.
func replyTarget(in session.TurnInput) string {
	if in.Incoming.From != "" {
		return in.Incoming.From
	}
	return in.Agent.Parent
}

func ownerOf(reg *company.Registry, node company.AgentNode) string {
	if node.Parent != "" {
		return node.Parent
	}
	return reg.Entry()
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func summarize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
