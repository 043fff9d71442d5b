// Package company loads company data and exposes the agent registry.
package company

import (
	"fmt"
	"sort"
)

// Agent display roles.
const (
	RoleOrchestrator = "Orchestrator"
	RoleLead         = "Lead"
	RoleWorker       = "Worker"
	RoleReviewer     = "Reviewer"
)

// AgentNode describes one agent in the company hierarchy.
// Nodes are immutable for the lifetime of a registry.
type AgentNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Children []string `json:"children,omitempty"`
	Parent   string   `json:"parent,omitempty"`
}

// Registry is the read-only agent hierarchy for one company.
// It is the only state shared between concurrent runs and must never
// be mutated after build.
type Registry struct {
	nodes map[string]AgentNode
	entry string
}

// BuildRegistry validates raw hierarchy nodes and wires parent links
// from the declared children. Exactly one orchestrator is required and
// becomes the entry agent.
func BuildRegistry(nodes map[string]AgentNode) (*Registry, error) {
	reg := &Registry{nodes: make(map[string]AgentNode, len(nodes))}
	for id, n := range nodes {
		n.ID = id
		reg.nodes[id] = n
	}

	for id, n := range reg.nodes {
		for _, child := range n.Children {
			c, ok := reg.nodes[child]
			if !ok {
				return nil, fmt.Errorf("agent %s lists unknown child %s", id, child)
			}
			if c.Parent != "" && c.Parent != id {
				return nil, fmt.Errorf("agent %s has two parents (%s, %s)", child, c.Parent, id)
			}
			c.Parent = id
			reg.nodes[child] = c
		}
	}

	for id, n := range reg.nodes {
		if n.Role != RoleOrchestrator {
			continue
		}
		if reg.entry != "" {
			return nil, fmt.Errorf("multiple orchestrators: %s and %s", reg.entry, id)
		}
		reg.entry = id
	}
	if reg.entry == "" {
		return nil, fmt.Errorf("hierarchy has no orchestrator")
	}
	return reg, nil
}

// Entry returns the entry agent id (the orchestrator).
func (r *Registry) Entry() string {
	return r.entry
}

// Node returns an agent by id.
func (r *Registry) Node(id string) (AgentNode, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Owner returns the agent that delegates to id: its parent, or the
// orchestrator for parentless non-orchestrator agents.
func (r *Registry) Owner(id string) string {
	n, ok := r.nodes[id]
	if !ok || n.Role == RoleOrchestrator {
		return ""
	}
	if n.Parent != "" {
		return n.Parent
	}
	return r.entry
}

// IsChild reports whether child is a direct child of parent.
func (r *Registry) IsChild(parent, child string) bool {
	n, ok := r.nodes[child]
	return ok && n.Parent == parent
}

// Reviewer returns the reviewer agent id, if the company has one.
func (r *Registry) Reviewer() (string, bool) {
	for _, id := range r.IDs() {
		if r.nodes[id].Role == RoleReviewer {
			return id, true
		}
	}
	return "", false
}

// IDs returns all agent ids sorted for stable iteration.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of agents.
func (r *Registry) Count() int {
	return len(r.nodes)
}
