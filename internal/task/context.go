// Package task holds the mutable per-run task state.
package task

import (
	"encoding/json"
	"fmt"
)

// Task types.
const (
	TypeContentCreation = "content_creation"
	TypeResearch        = "research"
	TypeAnalysis        = "analysis"
	TypeStrategy        = "strategy"
)

// Task statuses.
const (
	StatusInProgress    = "in_progress"
	StatusNeedsRevision = "needs_revision"
	StatusDone          = "done"
)

// DefaultMaxIterations is the revision hard ceiling.
const DefaultMaxIterations = 3

// Artifact is one produced deliverable version.
type Artifact struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Context is the mutable state threaded through one run. It is owned
// exclusively by that run's session; no locking is needed because no
// two runs ever share an instance.
type Context struct {
	Goal          string              `json:"goal"`
	Type          string              `json:"task_type"`
	Iteration     int                 `json:"iteration"`
	MaxIterations int                 `json:"max_iterations"`
	Status        string              `json:"status"`
	Artifacts     map[string]Artifact `json:"artifacts"`
	Feedback      string              `json:"feedback,omitempty"`
}

// New creates a task context for one run.
func New(goal, taskType string, maxIterations int) *Context {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Context{
		Goal:          goal,
		Type:          taskType,
		MaxIterations: maxIterations,
		Status:        StatusInProgress,
		Artifacts:     map[string]Artifact{},
	}
}

// ArtifactKey names the artifact slot for an agent at the current iteration.
func (c *Context) ArtifactKey(agentID string) string {
	return fmt.Sprintf("%s_v%d", agentID, c.Iteration)
}

// AddArtifact appends a deliverable. Keys are unique per (agent,
// iteration); an existing key is never overwritten.
func (c *Context) AddArtifact(agentID, kind string, payload json.RawMessage) error {
	key := c.ArtifactKey(agentID)
	if _, exists := c.Artifacts[key]; exists {
		return fmt.Errorf("artifact %s already recorded", key)
	}
	c.Artifacts[key] = Artifact{Kind: kind, Payload: payload}
	return nil
}

// LatestArtifact returns the most recent artifact produced by agentID,
// searching back from the current iteration.
func (c *Context) LatestArtifact(agentID string) (Artifact, bool) {
	for i := c.Iteration; i >= 0; i-- {
		if a, ok := c.Artifacts[fmt.Sprintf("%s_v%d", agentID, i)]; ok {
			return a, true
		}
	}
	return Artifact{}, false
}

// RecordRevision counts a REVISE verdict against the ceiling. The
// iteration always advances; when budget remains the feedback is
// stored and the task moves to needs_revision for re-delegation.
// Returns false once the advanced iteration reaches MaxIterations,
// meaning the verdict landed on the last permitted cycle and the task
// must finish with the artifact it already has.
func (c *Context) RecordRevision(feedback string) bool {
	c.Iteration++
	if c.Iteration >= c.MaxIterations {
		return false
	}
	c.Status = StatusNeedsRevision
	c.Feedback = feedback
	return true
}

// Redelegate takes the revision back-edge: consumes and clears the
// stored feedback and returns the task to in_progress.
func (c *Context) Redelegate() string {
	fb := c.Feedback
	c.Feedback = ""
	c.Status = StatusInProgress
	return fb
}

// Finish marks the task done. Status is monotonic from here.
func (c *Context) Finish() {
	c.Status = StatusDone
}

// RequiresReview reports whether this task type produces a user-facing
// deliverable that must pass the evaluation cycle.
func (c *Context) RequiresReview() bool {
	return c.Type == TypeContentCreation || c.Type == TypeStrategy
}
