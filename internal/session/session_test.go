package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/protocol"
)

// scriptExec drives a session from a table of per-turn responses.
type scriptExec struct {
	fn func(in TurnInput) (*TurnOutput, error)
}

func (e *scriptExec) ExecuteTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.fn(in)
}

func testCompany() *company.Data {
	return &company.Data{
		ID: "testco",
		Company: company.Info{
			Name:       "TestCo",
			BrandVoice: "plain",
		},
		Hierarchy: map[string]company.AgentNode{
			"founder": {
				Name:     "Founder",
				Role:     company.RoleOrchestrator,
				Children: []string{"marketing_head", "market_researcher"},
			},
			"marketing_head": {
				Name:     "Marketing Head",
				Role:     company.RoleLead,
				Children: []string{"content_creator"},
			},
			"market_researcher": {Name: "Market Researcher", Role: company.RoleWorker},
			"content_creator":   {Name: "Content Creator", Role: company.RoleWorker},
			"brand_reviewer":    {Name: "Brand Reviewer", Role: company.RoleReviewer},
		},
	}
}

func handoffTo(kind, to, text string) *TurnOutput {
	msg := protocol.TextMessage(kind, "", to, text)
	return &TurnOutput{Message: &msg, Usage: TurnUsage{InputTokens: 100, OutputTokens: 50}}
}

func evaluation(verdict, feedback string) *TurnOutput {
	msg, _ := protocol.NewMessage(protocol.KindEvaluation, "", "founder", protocol.Evaluation{
		Verdict:         verdict,
		BrandVoiceScore: 4,
		QualityScore:    4,
		CompletionScore: 4,
		Feedback:        feedback,
	})
	return &TurnOutput{Message: &msg, Usage: TurnUsage{InputTokens: 80, OutputTokens: 40}}
}

func collect(t *testing.T, s *Session, ctx context.Context, goal string) []Event {
	t.Helper()
	var events []Event
	for ev := range s.RunStream(ctx, goal) {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func countTerminal(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.Terminal() {
			n++
		}
	}
	return n
}

func TestRunSimpleResearch(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindTask, "market_researcher", "find the trends"), nil
		case in.Agent.ID == "market_researcher":
			return &TurnOutput{
				Message: func() *protocol.Message {
					m := protocol.TextMessage(protocol.KindResult, "", "founder", "3 trends found")
					return &m
				}(),
				ToolEvents: []ToolEvent{
					{Type: EventToolCall, Tool: "get_market_research", Detail: "calling"},
					{Type: EventToolResult, Tool: "get_market_research", Detail: "done"},
				},
				Usage: TurnUsage{InputTokens: 200, OutputTokens: 100},
			}, nil
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindResult:
			return &TurnOutput{
				FinalAnswer: "Here are the trends.",
				Deltas:      []string{"Here are ", "the trends."},
				Usage:       TurnUsage{InputTokens: 150, OutputTokens: 80},
			}, nil
		}
		return nil, fmt.Errorf("unexpected turn: %s/%s", in.Agent.ID, in.Incoming.Kind)
	}}

	sess, err := New(Options{
		Company:      testCompany(),
		Executor:     exec,
		ArtifactsDir: t.TempDir(),
		Model:        "gpt-4.1",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := collect(t, sess, context.Background(), "Research current industry trends")

	want := []string{
		EventStart,
		EventAgentChange, // market_researcher
		EventToolCall,
		EventToolResult,
		EventAgentChange, // back to founder
		EventDelta,
		EventDelta,
		EventComplete,
		EventArtifactsSaved,
	}
	got := eventTypes(events)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("event sequence = %v, want %v", got, want)
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want exactly 1", countTerminal(events))
	}

	res := sess.Result()
	if res.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", res.Status)
	}
	if res.Response != "Here are the trends." {
		t.Errorf("response = %q", res.Response)
	}
	wantAgents := []string{"founder", "market_researcher"}
	if strings.Join(res.AgentsInvolved, ",") != strings.Join(wantAgents, ",") {
		t.Errorf("agents = %v, want %v", res.AgentsInvolved, wantAgents)
	}
	if res.Cost.Requests != 3 || res.Cost.TotalTokens != 680 {
		t.Errorf("usage = %+v, want 3 requests / 680 tokens", res.Cost.Usage)
	}
	if res.EventCount != len(events) {
		t.Errorf("EventCount = %d, want %d", res.EventCount, len(events))
	}
}

func TestRunReviewPass(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindTask, "content_creator", "draft the post"), nil
		case in.Agent.ID == "content_creator":
			return handoffTo(protocol.KindResult, "founder", "the draft v0"), nil
		case in.Agent.ID == "brand_reviewer":
			return evaluation(protocol.VerdictPass, ""), nil
		}
		return nil, fmt.Errorf("unexpected turn: %s/%s", in.Agent.ID, in.Incoming.Kind)
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := collect(t, sess, context.Background(), "Write a blog post about sleep")

	res := sess.Result()
	if res.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	// A PASS ships the reviewed artifact as-is.
	if res.Response != "the draft v0" {
		t.Errorf("response = %q, want the reviewed deliverable", res.Response)
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want 1", countTerminal(events))
	}

	rec := sess.Record()
	if len(rec.Evaluations) != 1 || rec.Evaluations[0].Outcome != "pass" {
		t.Errorf("evaluations = %+v, want one pass", rec.Evaluations)
	}
	// Handoffs: founder->creator, creator->founder, founder->reviewer, reviewer->founder.
	if len(rec.Handoffs) != 4 {
		t.Errorf("handoffs = %d, want 4", len(rec.Handoffs))
	}
}

func TestRunReviseThenPass(t *testing.T) {
	reviews := 0
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindTask, "content_creator", "draft the post"), nil
		case in.Agent.ID == "content_creator" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindResult, "founder", "the draft v0"), nil
		case in.Agent.ID == "content_creator" && in.Incoming.Kind == protocol.KindFeedback:
			if !strings.Contains(in.Incoming.Text(), "tone") {
				return nil, fmt.Errorf("feedback not delivered: %q", in.Incoming.Text())
			}
			return handoffTo(protocol.KindResult, "founder", "the draft v1"), nil
		case in.Agent.ID == "brand_reviewer":
			reviews++
			if reviews == 1 {
				return evaluation(protocol.VerdictRevise, "fix the tone"), nil
			}
			return evaluation(protocol.VerdictPass, ""), nil
		}
		return nil, fmt.Errorf("unexpected turn: %s/%s", in.Agent.ID, in.Incoming.Kind)
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	collect(t, sess, context.Background(), "Write a blog post about sleep")

	res := sess.Result()
	if res.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.Response != "the draft v1" {
		t.Errorf("response = %q, want the revised deliverable", res.Response)
	}

	rec := sess.Record()
	if len(rec.Evaluations) != 2 {
		t.Fatalf("evaluations = %+v, want revise then pass", rec.Evaluations)
	}
	if rec.Evaluations[0].Outcome != "revise" || rec.Evaluations[1].Outcome != "pass" {
		t.Errorf("evaluation outcomes = %+v", rec.Evaluations)
	}
}

func TestRunCeilingExhausted(t *testing.T) {
	creatorTurns := 0
	reviews := 0
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindTask, "content_creator", "draft the post"), nil
		case in.Agent.ID == "content_creator":
			out := handoffTo(protocol.KindResult, "founder", fmt.Sprintf("the draft v%d", creatorTurns))
			creatorTurns++
			return out, nil
		case in.Agent.ID == "brand_reviewer":
			reviews++
			return evaluation(protocol.VerdictRevise, "still not right"), nil
		}
		return nil, fmt.Errorf("unexpected turn: %s/%s", in.Agent.ID, in.Incoming.Kind)
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec, MaxIterations: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := collect(t, sess, context.Background(), "Write a blog post about sleep")

	// Three REVISE verdicts exhaust a budget of three: the run ships
	// the third draft without a fourth delegation.
	res := sess.Result()
	if res.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (ceiling is not an error)", res.Status)
	}
	if res.Response != "the draft v2" {
		t.Errorf("response = %q, want the third draft", res.Response)
	}
	if creatorTurns != 3 {
		t.Errorf("creator turns = %d, want 3", creatorTurns)
	}
	if reviews != 3 {
		t.Errorf("reviewer turns = %d, want 3", reviews)
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want 1", countTerminal(events))
	}

	rec := sess.Record()
	if len(rec.Evaluations) != 3 {
		t.Fatalf("evaluations = %+v", rec.Evaluations)
	}
	if rec.Evaluations[0].Outcome != "revise" || rec.Evaluations[1].Outcome != "revise" {
		t.Errorf("early outcomes = %+v, want revise, revise", rec.Evaluations[:2])
	}
	if rec.Evaluations[2].Outcome != "ceiling_exhausted" {
		t.Errorf("final outcome = %q, want ceiling_exhausted", rec.Evaluations[2].Outcome)
	}
}

func TestRunCeilingSingleIteration(t *testing.T) {
	creatorTurns := 0
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
			return handoffTo(protocol.KindTask, "content_creator", "draft the post"), nil
		case in.Agent.ID == "content_creator":
			creatorTurns++
			return handoffTo(protocol.KindResult, "founder", "the draft v0"), nil
		case in.Agent.ID == "brand_reviewer":
			return evaluation(protocol.VerdictRevise, "still not right"), nil
		}
		return nil, fmt.Errorf("unexpected turn: %s/%s", in.Agent.ID, in.Incoming.Kind)
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec, MaxIterations: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	collect(t, sess, context.Background(), "Write a blog post about sleep")

	// A budget of one means the very first REVISE already ships v0.
	res := sess.Result()
	if res.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.Response != "the draft v0" {
		t.Errorf("response = %q, want the only draft", res.Response)
	}
	if creatorTurns != 1 {
		t.Errorf("creator turns = %d, want 1", creatorTurns)
	}

	rec := sess.Record()
	if len(rec.Evaluations) != 1 || rec.Evaluations[0].Outcome != "ceiling_exhausted" {
		t.Errorf("evaluations = %+v, want a single ceiling_exhausted", rec.Evaluations)
	}
}

func TestRunExecutorError(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder":
			return handoffTo(protocol.KindTask, "market_researcher", "find the trends"), nil
		default:
			return nil, errors.New("llm unavailable")
		}
	}}

	dir := t.TempDir()
	sess, err := New(Options{Company: testCompany(), Executor: exec, ArtifactsDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := collect(t, sess, context.Background(), "Research current industry trends")

	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Errorf("last event = %q, want error as the final event", last.Type)
	}
	if !strings.Contains(last.Error, "llm unavailable") {
		t.Errorf("error event text = %q", last.Error)
	}
	if countTerminal(events) != 1 {
		t.Errorf("terminal events = %d, want 1", countTerminal(events))
	}
	for _, ev := range events {
		if ev.Type == EventArtifactsSaved {
			t.Error("artifacts_saved emitted after an error")
		}
	}

	res := sess.Result()
	if res.Status != StatusErrored {
		t.Errorf("status = %q, want errored", res.Status)
	}
	if !strings.HasPrefix(res.Response, "Error: ") {
		t.Errorf("response = %q, want Error: prefix", res.Response)
	}

	// Partial artifacts still land on disk, without a saved event.
	if _, err := os.Stat(filepath.Join(res.ArtifactsPath, "trace.json")); err != nil {
		t.Errorf("trace.json missing after error: %v", err)
	}
}

func TestRunRoutingViolation(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch in.Agent.ID {
		case "founder":
			return handoffTo(protocol.KindTask, "market_researcher", "go"), nil
		default:
			// A worker trying to reach a sibling is a routing error.
			return handoffTo(protocol.KindResult, "content_creator", "psst"), nil
		}
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := collect(t, sess, context.Background(), "Research current industry trends")

	res := sess.Result()
	if res.Status != StatusErrored {
		t.Fatalf("status = %q, want errored", res.Status)
	}
	last := events[len(events)-1]
	if last.Type != EventError || !strings.Contains(last.Error, "routing error") {
		t.Errorf("last event = %+v, want routing error", last)
	}
}

func TestRunNonOrchestratorCannotFinalize(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch in.Agent.ID {
		case "founder":
			return handoffTo(protocol.KindTask, "market_researcher", "go"), nil
		default:
			return &TurnOutput{FinalAnswer: "I'll just answer the user myself"}, nil
		}
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	collect(t, sess, context.Background(), "Research current industry trends")

	res := sess.Result()
	if res.Status != StatusErrored {
		t.Errorf("status = %q, want errored", res.Status)
	}
	if !strings.Contains(res.Response, "orchestrator") {
		t.Errorf("response = %q, want finalize-permission error", res.Response)
	}
}

func TestRunMaxTurns(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		switch {
		case in.Agent.ID == "founder":
			return handoffTo(protocol.KindTask, "market_researcher", "again"), nil
		default:
			return handoffTo(protocol.KindResult, "founder", "more"), nil
		}
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec, MaxTurns: 6})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	collect(t, sess, context.Background(), "Research current industry trends")

	res := sess.Result()
	if res.Status != StatusErrored {
		t.Fatalf("status = %q, want errored", res.Status)
	}
	if !strings.Contains(res.Response, "max turns") {
		t.Errorf("response = %q, want max-turns error", res.Response)
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		if in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask {
			return handoffTo(protocol.KindTask, "market_researcher", "go"), nil
		}
		// The client disconnects while a worker is busy.
		cancel()
		return nil, ctx.Err()
	}}

	sess, err := New(Options{Company: testCompany(), Executor: exec, ArtifactsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := collect(t, sess, ctx, "Research current industry trends")

	if countTerminal(events) != 0 {
		t.Errorf("terminal events = %d, want none on cancellation", countTerminal(events))
	}
	res := sess.Result()
	if res.Status != StatusAborted {
		t.Errorf("status = %q, want aborted", res.Status)
	}

	// Partial capture: the trace is still written.
	if _, err := os.Stat(filepath.Join(res.ArtifactsPath, "trace.json")); err != nil {
		t.Errorf("trace.json missing after abort: %v", err)
	}
}

func TestRunStreamSingleUse(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		return &TurnOutput{FinalAnswer: "done"}, nil
	}}
	sess, err := New(Options{Company: testCompany(), Executor: exec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := collect(t, sess, context.Background(), "hello")
	if len(first) == 0 {
		t.Fatal("first stream produced no events")
	}
	second := collect(t, sess, context.Background(), "hello again")
	if len(second) != 0 {
		t.Errorf("second RunStream yielded %d events, want closed channel", len(second))
	}
}

type captureObserver struct {
	runIDs []string
	events []Event
}

func (c *captureObserver) ObserveEvent(runID string, ev Event) {
	c.runIDs = append(c.runIDs, runID)
	c.events = append(c.events, ev)
}

func TestObserversSeeEveryEvent(t *testing.T) {
	obs := &captureObserver{}
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		return &TurnOutput{FinalAnswer: "done"}, nil
	}}
	sess, err := New(Options{Company: testCompany(), Executor: exec, Observers: []Observer{obs}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := collect(t, sess, context.Background(), "hello")

	if len(obs.events) != len(events) {
		t.Errorf("observer saw %d events, stream had %d", len(obs.events), len(events))
	}
	for _, id := range obs.runIDs {
		if id != sess.RunID() {
			t.Errorf("observer run id = %q, want %q", id, sess.RunID())
		}
	}
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	data := testCompany()
	mkExec := func(answer string) Executor {
		return &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
			switch {
			case in.Agent.ID == "founder" && in.Incoming.Kind == protocol.KindTask:
				return handoffTo(protocol.KindTask, "market_researcher", "go"), nil
			case in.Agent.ID == "market_researcher":
				return handoffTo(protocol.KindResult, "founder", answer), nil
			default:
				return &TurnOutput{FinalAnswer: answer}, nil
			}
		}}
	}

	const n = 8
	results := make(chan *Result, n)
	for i := 0; i < n; i++ {
		answer := fmt.Sprintf("answer-%d", i)
		sess, err := New(Options{Company: data, Executor: mkExec(answer)})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		go func() {
			for range sess.RunStream(context.Background(), "Research trends") {
			}
			results <- sess.Result()
		}()
	}

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		res := <-results
		if res.Status != StatusCompleted {
			t.Errorf("status = %q, want completed", res.Status)
		}
		if seen[res.RunID] {
			t.Errorf("duplicate run id %q", res.RunID)
		}
		seen[res.RunID] = true
		if !strings.HasPrefix(res.Response, "answer-") {
			t.Errorf("response = %q, cross-run contamination?", res.Response)
		}
	}
}

func TestArtifactFiles(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) {
		return &TurnOutput{FinalAnswer: "the answer"}, nil
	}}
	sess, err := New(Options{Company: testCompany(), Executor: exec, ArtifactsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	collect(t, sess, context.Background(), "What should we do?")

	res := sess.Result()
	input, err := os.ReadFile(filepath.Join(res.ArtifactsPath, "input.txt"))
	if err != nil || string(input) != "What should we do?" {
		t.Errorf("input.txt = %q, %v", input, err)
	}
	response, err := os.ReadFile(filepath.Join(res.ArtifactsPath, "response.md"))
	if err != nil || string(response) != "the answer" {
		t.Errorf("response.md = %q, %v", response, err)
	}

	raw, err := os.ReadFile(filepath.Join(res.ArtifactsPath, "trace.json"))
	if err != nil {
		t.Fatalf("trace.json: %v", err)
	}
	var trace struct {
		RunID      string `json:"run_id"`
		Status     string `json:"status"`
		EventCount int    `json:"event_count"`
	}
	if err := json.Unmarshal(raw, &trace); err != nil {
		t.Fatalf("trace.json parse: %v", err)
	}
	if trace.RunID != res.RunID || trace.Status != StatusCompleted {
		t.Errorf("trace = %+v, want run %s completed", trace, res.RunID)
	}

	if _, err := os.Stat(filepath.Join(res.ArtifactsPath, "conversation.json")); err != nil {
		t.Errorf("conversation.json missing: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	exec := &scriptExec{fn: func(in TurnInput) (*TurnOutput, error) { return nil, nil }}
	if _, err := New(Options{Executor: exec}); err == nil {
		t.Error("New without company = nil, want error")
	}
	if _, err := New(Options{Company: testCompany()}); err == nil {
		t.Error("New without executor = nil, want error")
	}
}

func TestNewRunID(t *testing.T) {
	now := time.Now()
	a := NewRunID(now)
	b := NewRunID(now)
	if a == b {
		t.Error("two run ids collided")
	}
	if len(strings.Split(a, "_")) != 4 {
		t.Errorf("run id %q not in time_micros_suffix form", a)
	}
}
