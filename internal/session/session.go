package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/workforcehq/workforce/internal/artifacts"
	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/cost"
	"github.com/workforcehq/workforce/internal/protocol"
	"github.com/workforcehq/workforce/internal/router"
	"github.com/workforcehq/workforce/internal/task"
)

// DefaultMaxTurns caps the number of agent turns per run. The
// evaluation-iteration ceiling is the intrinsic bound; this is a safety
// net against runaway delegation chains.
const DefaultMaxTurns = 30

// Options configures one session.
type Options struct {
	Company       *company.Data
	Executor      Executor
	ArtifactsDir  string // empty disables artifact persistence
	MaxIterations int
	MaxTurns      int
	Model         string
	Rates         cost.RateLookup
	Observers     []Observer
}

// Session manages a single agent workflow run. A session is single-use:
// the stream is finite and non-restartable, and no state is shared with
// any other run.
type Session struct {
	opts   Options
	reg    *company.Registry
	store  *artifacts.Store
	acc    *cost.Accumulator
	record RunRecord

	tc        *task.Context
	rt        *router.Router
	current   string
	producer  string
	response  string
	toolCalls []toolCallRef
	started   atomic.Bool
	aborted   bool
}

type toolCallRef struct {
	Agent string `json:"agent"`
	Tool  string `json:"tool"`
}

// Result is the sealed outcome of a run.
type Result struct {
	RunID          string        `json:"run_id"`
	Status         string        `json:"status"`
	Response       string        `json:"response"`
	AgentsInvolved []string      `json:"agents_involved"`
	DurationMS     int64         `json:"duration_ms"`
	Cost           cost.Estimate `json:"cost"`
	ArtifactsPath  string        `json:"artifacts_path,omitempty"`
	EventCount     int           `json:"event_count"`
}

// New creates a session for one run against the given company.
func New(opts Options) (*Session, error) {
	if opts.Company == nil {
		return nil, errors.New("company data is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	reg, err := opts.Company.Registry()
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}

	s := &Session{
		opts: opts,
		reg:  reg,
		acc:  cost.NewAccumulator(opts.Model, opts.Rates),
		record: RunRecord{
			RunID:   NewRunID(time.Now()),
			Company: opts.Company.Company.Name,
		},
	}
	if opts.ArtifactsDir != "" {
		store, err := artifacts.NewStore(opts.ArtifactsDir, s.record.RunID)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// RunID returns the run identity, stable for the session's lifetime.
func (s *Session) RunID() string {
	return s.record.RunID
}

// Record returns the run record. Call after the stream closes.
func (s *Session) Record() RunRecord {
	return s.record
}

// Result returns the sealed result. Call after the stream closes.
func (s *Session) Result() *Result {
	res := &Result{
		RunID:          s.record.RunID,
		Status:         s.record.Status,
		Response:       s.record.Response,
		AgentsInvolved: s.record.AgentsInvolved,
		DurationMS:     s.record.DurationMS(),
		Cost:           s.record.Usage,
		EventCount:     s.record.EventCount,
	}
	if s.store != nil {
		res.ArtifactsPath = s.store.Dir()
	}
	return res
}

// Run executes the workflow and blocks until the final result.
func (s *Session) Run(ctx context.Context, goal string) (*Result, error) {
	for range s.RunStream(ctx, goal) {
		// Drain; the terminal event seals the record.
	}
	res := s.Result()
	switch s.record.Status {
	case StatusErrored:
		return res, fmt.Errorf("run %s failed: %s", res.RunID, res.Response)
	case StatusAborted:
		return res, ctx.Err()
	}
	return res, nil
}

// RunStream executes the workflow and yields events as they occur. The
// returned channel closes after the terminal event, or silently on
// cancellation. A session streams at most once.
func (s *Session) RunStream(ctx context.Context, goal string) <-chan Event {
	ch := make(chan Event, 16)
	if !s.started.CompareAndSwap(false, true) {
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		s.run(ctx, ch, goal)
	}()
	return ch
}

func (s *Session) run(ctx context.Context, ch chan<- Event, goal string) {
	s.record.StartTime = time.Now()
	s.tc = task.New(goal, task.Classify(goal), s.opts.MaxIterations)
	s.rt = router.New(s.reg)
	s.current = s.reg.Entry()
	s.addAgent(s.current)

	if s.store != nil {
		if err := s.store.WriteInput(goal); err != nil {
			slog.Warn("Input capture failed", "run_id", s.record.RunID, "error", err)
		}
	}

	if !s.emit(ctx, ch, Event{Type: EventStart, Agent: s.current, Message: "Starting agent workflow..."}) {
		s.abort()
		return
	}

	incoming := protocol.TextMessage(protocol.KindTask, "", s.current, goal)

	for turn := 0; turn < s.opts.MaxTurns; turn++ {
		if ctx.Err() != nil {
			s.abort()
			return
		}

		node, _ := s.reg.Node(s.current)
		out, err := s.opts.Executor.ExecuteTurn(ctx, TurnInput{
			Agent:    node,
			Incoming: incoming,
			Task:     s.tc,
			Company:  s.opts.Company,
		})
		if err != nil {
			if ctx.Err() != nil {
				s.abort()
				return
			}
			s.fail(ctx, ch, fmt.Errorf("agent %s: %w", s.current, err))
			return
		}

		s.acc.Add(out.Usage.InputTokens, out.Usage.OutputTokens)
		for _, te := range out.ToolEvents {
			if te.Type == EventToolCall {
				s.toolCalls = append(s.toolCalls, toolCallRef{Agent: s.current, Tool: te.Tool})
			}
			if !s.emit(ctx, ch, Event{Type: te.Type, Agent: s.current, Tool: te.Tool, Details: te.Detail}) {
				s.abort()
				return
			}
		}
		for _, delta := range out.Deltas {
			if !s.emit(ctx, ch, Event{Type: EventDelta, Agent: s.current, Content: delta}) {
				s.abort()
				return
			}
		}

		if out.Message == nil {
			if !s.rt.CanFinalize(s.current) {
				s.fail(ctx, ch, &router.Error{From: s.current, Kind: "final",
					Reason: "only the orchestrator may answer the user"})
				return
			}
			s.response = out.FinalAnswer
			if s.tc.Status != task.StatusDone {
				s.tc.Finish()
			}
			s.complete(ctx, ch)
			return
		}

		msg := *out.Message
		msg.From = s.current

		next, done, err := s.deliver(ctx, ch, msg)
		if err != nil {
			s.fail(ctx, ch, err)
			return
		}
		if s.aborted {
			return
		}
		if done {
			s.complete(ctx, ch)
			return
		}
		incoming = next
	}

	s.fail(ctx, ch, fmt.Errorf("max turns (%d) exceeded", s.opts.MaxTurns))
}
