// Package workforce binds agents to a company: the tools each agent may
// call and the instructions that frame its role.
package workforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/provider"
)

// Tool is the interface that all agent tools must implement.
type Tool interface {
	// Name returns the tool identifier used in function calls.
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON Schema for tool parameters.
	Parameters() map[string]any
	// Execute runs the tool with the given parameters.
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// Registry manages tool registration and execution.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	if _, ok := r.tools[tool.Name()]; !ok {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Definitions converts tools to provider function definitions.
func Definitions(tools []Tool) []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs a tool by name with the given parameters.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(ctx, params)
}

// dataTool serves one section of the company dataset as indented JSON.
// All company tools are read-only and take no parameters.
type dataTool struct {
	name  string
	desc  string
	data  json.RawMessage
	empty string
}

func (t *dataTool) Name() string        { return t.name }
func (t *dataTool) Description() string { return t.desc }

func (t *dataTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *dataTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	if emptyJSON(t.data) {
		return t.empty, nil
	}
	return indentJSON(t.data), nil
}

// brandAssetsTool merges the company profile with the brand asset section,
// so agents see voice, mission, and audience alongside tone examples.
type brandAssetsTool struct {
	data *company.Data
}

func (t *brandAssetsTool) Name() string { return "get_brand_assets" }

func (t *brandAssetsTool) Description() string {
	return "Get brand voice examples, tone guidelines, and value propositions. Returns complete brand assets as JSON."
}

func (t *brandAssetsTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *brandAssetsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	assets := t.data.BrandAssets
	if emptyJSON(assets) {
		assets = json.RawMessage(`{}`)
	}
	result := map[string]any{
		"company_info": map[string]any{
			"name":            t.data.Company.Name,
			"brand_voice":     t.data.Company.BrandVoice,
			"mission":         t.data.Company.Mission,
			"target_audience": t.data.Company.TargetAudience,
			"philosophy":      t.data.Company.Philosophy,
			"products":        t.data.Company.Products,
		},
		"brand_assets": assets,
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal brand assets: %w", err)
	}
	return string(out), nil
}

// NewTools builds the full tool registry for a company dataset.
func NewTools(data *company.Data) *Registry {
	reg := NewRegistry()
	reg.Register(&dataTool{
		name:  "get_market_research",
		desc:  "Get all market research data including trends, competitive analysis, and consumer insights. Returns the complete market research database as JSON.",
		data:  data.MarketResearch,
		empty: "No market research data available.",
	})
	reg.Register(&dataTool{
		name:  "get_seo_data",
		desc:  "Get all SEO and keyword data including keyword rankings, volumes, difficulty scores, and content gaps. Returns the complete SEO database as JSON.",
		data:  data.SEOData,
		empty: "No SEO data available.",
	})
	reg.Register(&brandAssetsTool{data: data})
	reg.Register(&dataTool{
		name:  "get_content_templates",
		desc:  "Get content structure templates and social media best practices. Returns all content templates as JSON.",
		data:  data.ContentTemplates,
		empty: "No content templates available.",
	})
	reg.Register(&dataTool{
		name:  "get_analytics",
		desc:  "Get internal analytics including sales metrics, customer data, marketing performance, and website analytics. Returns the complete analytics database as JSON.",
		data:  data.Analytics,
		empty: "No analytics data available.",
	})
	return reg
}

// agentTools maps each agent to the tool names it may call. Agents not
// listed here work without tools.
var agentTools = map[string][]string{
	"market_researcher": {"get_market_research"},
	"data_analyst":      {"get_analytics"},
	"seo_analyst":       {"get_seo_data"},
	"content_creator":   {"get_content_templates", "get_brand_assets"},
	"brand_reviewer":    {"get_brand_assets"},
}

// ToolsForAgent returns the subset of the registry available to one agent.
func ToolsForAgent(reg *Registry, agentID string) []Tool {
	names := agentTools[agentID]
	result := make([]Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := reg.Get(name); ok {
			result = append(result, tool)
		}
	}
	return result
}

func emptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
