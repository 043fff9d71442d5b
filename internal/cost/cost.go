// Package cost accumulates token usage and estimates run cost in USD.
package cost

import (
	"math"
	"sync"
)

// Rate is the per-1M-token USD price for one model.
type Rate struct {
	Input  float64
	Output float64
}

// DefaultModel is used when a model has no configured rate.
const DefaultModel = "gpt-4.1"

// defaultRates mirror the published per-1M-token prices.
var defaultRates = map[string]Rate{
	"gpt-4.1":      {Input: 2.00, Output: 8.00},
	"gpt-4.1-mini": {Input: 0.40, Output: 1.60},
	"gpt-4.1-nano": {Input: 0.10, Output: 0.40},
	"gpt-4o":       {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":  {Input: 0.15, Output: 0.60},
}

// RateLookup resolves a model id to its rate. External configuration
// can supply its own table.
type RateLookup func(model string) (Rate, bool)

// DefaultRates is the built-in rate table lookup.
func DefaultRates(model string) (Rate, bool) {
	r, ok := defaultRates[model]
	return r, ok
}

// Usage is the accumulated token usage for one run.
type Usage struct {
	Requests     int    `json:"requests"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	Model        string `json:"model"`
}

// Estimate is Usage plus its computed USD cost.
type Estimate struct {
	Usage
	EstimatedUSD float64 `json:"total_estimated_usd_cost"`
}

// Accumulator sums usage across the agent turns of one run. It is safe
// for concurrent use; executor callbacks may report from goroutines.
type Accumulator struct {
	mu     sync.Mutex
	usage  Usage
	lookup RateLookup
}

// NewAccumulator creates an accumulator with the given rate lookup,
// falling back to the built-in table when lookup is nil.
func NewAccumulator(model string, lookup RateLookup) *Accumulator {
	if lookup == nil {
		lookup = DefaultRates
	}
	return &Accumulator{usage: Usage{Model: model}, lookup: lookup}
}

// Add records the token counts of one agent turn.
func (a *Accumulator) Add(inputTokens, outputTokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.Requests++
	a.usage.InputTokens += inputTokens
	a.usage.OutputTokens += outputTokens
	a.usage.TotalTokens += inputTokens + outputTokens
}

// Snapshot returns the current usage.
func (a *Accumulator) Snapshot() Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// Estimate converts the accumulated usage to an estimated USD cost.
// Unknown models fall back to the default model's rate.
func (a *Accumulator) Estimate() Estimate {
	u := a.Snapshot()
	rate, ok := a.lookup(u.Model)
	if !ok {
		rate, _ = a.lookup(DefaultModel)
		if rate == (Rate{}) {
			rate = defaultRates[DefaultModel]
		}
		u.Model = DefaultModel
	}
	usd := float64(u.InputTokens)/1_000_000*rate.Input +
		float64(u.OutputTokens)/1_000_000*rate.Output
	return Estimate{
		Usage:        u,
		EstimatedUSD: math.Round(usd*1e6) / 1e6,
	}
}
