// Package artifacts persists the per-run artifact directory.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Artifact file names inside a run directory.
const (
	InputFile        = "input.txt"
	EventLogFile     = "events.jsonl"
	ResponseFile     = "response.md"
	TraceFile        = "trace.json"
	ConversationFile = "conversation.json"
)

// Store owns one run's artifact directory. Each file is written exactly
// once, except the event log which is append-only. A store is never
// shared between runs.
type Store struct {
	dir string

	mu      sync.Mutex
	written map[string]bool
}

// NewStore creates the artifact directory for a run.
func NewStore(baseDir, runID string) (*Store, error) {
	dir := filepath.Join(baseDir, filepath.Base(runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Store{dir: dir, written: map[string]bool{}}, nil
}

// Dir returns the run's artifact directory path.
func (s *Store) Dir() string {
	return s.dir
}

// WriteInput captures the user input at run start.
func (s *Store) WriteInput(text string) error {
	return s.writeOnce(InputFile, []byte(text))
}

// AppendEvent appends one event as a JSON line to the event log.
func (s *Store) AppendEvent(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(s.dir, EventLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// WriteResponse persists the final answer text.
func (s *Store) WriteResponse(text string) error {
	return s.writeOnce(ResponseFile, []byte(text))
}

// WriteTrace persists the run trace summary.
func (s *Store) WriteTrace(v any) error {
	return s.writeJSONOnce(TraceFile, v)
}

// WriteConversation persists the conversation summary.
func (s *Store) WriteConversation(v any) error {
	return s.writeJSONOnce(ConversationFile, v)
}

// ReadInput returns the captured input, empty if never written.
func (s *Store) ReadInput() string {
	raw, err := os.ReadFile(filepath.Join(s.dir, InputFile))
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *Store) writeJSONOnce(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.writeOnce(name, raw)
}

func (s *Store) writeOnce(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written[name] {
		return fmt.Errorf("artifact %s already written", name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	s.written[name] = true
	return nil
}
