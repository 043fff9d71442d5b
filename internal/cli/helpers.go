package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/config"
	"github.com/workforcehq/workforce/internal/ledger"
	"github.com/workforcehq/workforce/internal/provider"
)

// loadConfig loads configuration or falls back to defaults with a warning.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config warning: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

func buildProvider(cfg *config.Config) provider.LLMProvider {
	return provider.NewOpenAIProvider(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Model.Name)
}

// openLedger opens the run ledger, or returns nil when disabled.
func openLedger(cfg *config.Config) *ledger.Service {
	if !cfg.Ledger.Enabled {
		return nil
	}
	led, err := ledger.New(cfg.Ledger.Path)
	if err != nil {
		fmt.Printf("Ledger warning: %v (runs will not be indexed)\n", err)
		return nil
	}
	return led
}

// resolveCompany picks the requested company id, the configured default,
// or the first one available in the data directory.
func resolveCompany(cfg *config.Config, requested string) string {
	if requested != "" {
		return requested
	}
	if cfg.Run.DefaultCompany != "" {
		return cfg.Run.DefaultCompany
	}
	ids, err := company.List(cfg.Paths.DataDir)
	if err != nil || len(ids) == 0 {
		return "solaris"
	}
	return ids[0]
}

func mustLoadCompany(cfg *config.Config, id string) *company.Data {
	data, err := company.Load(cfg.Paths.DataDir, id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return data
}

// roleColors give each role a stable color in streaming output.
var roleColors = map[string]*color.Color{
	company.RoleOrchestrator: color.New(color.FgCyan, color.Bold),
	company.RoleLead:         color.New(color.FgYellow),
	company.RoleWorker:       color.New(color.FgGreen),
	company.RoleReviewer:     color.New(color.FgMagenta),
}

func colorFor(reg *company.Registry, agentID string) *color.Color {
	if node, ok := reg.Node(agentID); ok {
		if c, ok := roleColors[node.Role]; ok {
			return c
		}
	}
	return color.New(color.FgWhite)
}

func agentName(reg *company.Registry, agentID string) string {
	if node, ok := reg.Node(agentID); ok {
		return node.Name
	}
	return agentID
}
