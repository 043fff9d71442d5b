package session

import (
	"context"
	"log/slog"
	"time"
)

func (s *Session) now() time.Time {
	return time.Now()
}

// emit logs, observes, and delivers one event. Returns false when the
// consumer is gone (context cancelled) and the run should abort.
func (s *Session) emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	ev.Timestamp = s.now()
	s.record.EventCount++

	if s.store != nil {
		if err := s.store.AppendEvent(ev); err != nil {
			slog.Warn("Event log append failed", "run_id", s.record.RunID, "error", err)
		}
	}
	for _, obs := range s.opts.Observers {
		obs.ObserveEvent(s.record.RunID, ev)
	}

	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// complete seals a successful run: complete event, artifact flush,
// artifacts_saved event, in that order.
func (s *Session) complete(ctx context.Context, ch chan<- Event) {
	if s.response == "" {
		s.response = "No response generated."
	}
	s.record.EndTime = s.now()
	s.record.Status = StatusCompleted
	s.record.Response = s.response
	s.record.Usage = s.acc.Estimate()

	if !s.emit(ctx, ch, Event{
		Type:           EventComplete,
		Agent:          s.current,
		Response:       s.response,
		AgentsInvolved: s.record.AgentsInvolved,
	}) {
		s.abort()
		return
	}

	if s.store == nil {
		return
	}
	s.flushArtifacts()
	if !s.emit(ctx, ch, Event{
		Type:  EventArtifactsSaved,
		Agent: s.current,
		Path:  s.store.Dir(),
	}) {
		s.abort()
	}
}

// fail seals an errored run. The error event is the last event; the
// artifacts written so far are still flushed (partial capture).
func (s *Session) fail(ctx context.Context, ch chan<- Event, err error) {
	s.record.EndTime = s.now()
	s.record.Status = StatusErrored
	s.record.Response = "Error: " + err.Error()
	s.record.Usage = s.acc.Estimate()
	slog.Error("Run failed", "run_id", s.record.RunID, "error", err)

	s.emit(ctx, ch, Event{Type: EventError, Agent: s.current, Error: err.Error()})
	if s.store != nil {
		s.flushArtifacts()
	}
}

// abort seals a cancelled run: no terminal event, recorded as aborted.
func (s *Session) abort() {
	if s.aborted {
		return
	}
	s.aborted = true
	s.record.EndTime = s.now()
	s.record.Status = StatusAborted
	s.record.Usage = s.acc.Estimate()
	if s.store != nil {
		s.flushArtifacts()
	}
}

// runTrace is the trace.json shape.
type runTrace struct {
	RunID          string           `json:"run_id"`
	Company        string           `json:"company"`
	Status         string           `json:"status"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	DurationMS     int64            `json:"duration_ms"`
	AgentsInvolved []string         `json:"agents_involved"`
	EventCount     int              `json:"event_count"`
	Usage          any              `json:"usage"`
	Handoffs       []HandoffStep    `json:"handoffs"`
	Evaluations    []EvaluationStep `json:"evaluations,omitempty"`
	TaskState      any              `json:"task_state"`
}

// conversationSummary is the conversation.json shape.
type conversationSummary struct {
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	Agents    []string      `json:"agents"`
	Handoffs  []HandoffStep `json:"handoffs"`
	ToolCalls []toolCallRef `json:"tool_calls"`
}

// flushArtifacts writes the completion-time artifacts. Each file is
// written once per run; the event log was appended incrementally.
func (s *Session) flushArtifacts() {
	if s.response != "" {
		if err := s.store.WriteResponse(s.response); err != nil {
			slog.Warn("Response artifact write failed", "run_id", s.record.RunID, "error", err)
		}
	}
	trace := runTrace{
		RunID:          s.record.RunID,
		Company:        s.record.Company,
		Status:         s.record.Status,
		StartTime:      s.record.StartTime,
		EndTime:        s.record.EndTime,
		DurationMS:     s.record.DurationMS(),
		AgentsInvolved: s.record.AgentsInvolved,
		EventCount:     s.record.EventCount,
		Usage:          s.record.Usage,
		Handoffs:       s.record.Handoffs,
		Evaluations:    s.record.Evaluations,
		TaskState:      s.tc,
	}
	if err := s.store.WriteTrace(trace); err != nil {
		slog.Warn("Trace artifact write failed", "run_id", s.record.RunID, "error", err)
	}
	conv := conversationSummary{
		Input:     s.store.ReadInput(),
		Output:    s.response,
		Agents:    s.record.AgentsInvolved,
		Handoffs:  s.record.Handoffs,
		ToolCalls: s.toolCalls,
	}
	if err := s.store.WriteConversation(conv); err != nil {
		slog.Warn("Conversation artifact write failed", "run_id", s.record.RunID, "error", err)
	}
}
