package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workforcehq/workforce/internal/company"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List available companies",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏢 Companies")
		cfg := loadConfig()
		ids, err := company.List(cfg.Paths.DataDir)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Printf("No company data files in %s\n", cfg.Paths.DataDir)
			return
		}
		for _, id := range ids {
			name := id
			if data, err := company.Load(cfg.Paths.DataDir, id); err == nil && data.Company.Name != "" {
				name = data.Company.Name
			}
			fmt.Printf("  %-16s %s\n", id, name)
		}
	},
}

var agentsCmd = &cobra.Command{
	Use:   "agents [company]",
	Short: "Show a company's agent hierarchy",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requested := ""
		if len(args) > 0 {
			requested = args[0]
		}
		id := resolveCompany(cfg, requested)
		data := mustLoadCompany(cfg, id)
		reg, err := data.Registry()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		printHeader(fmt.Sprintf("👥 %s Agents", data.Company.Name))
		entry, _ := reg.Node(reg.Entry())
		printAgentTree(reg, entry, 0)
		if reviewer, ok := reg.Reviewer(); ok {
			node, _ := reg.Node(reviewer)
			fmt.Println()
			colorFor(reg, reviewer).Printf("%s (%s), reviews deliverables\n", node.Name, node.Role)
		}
	},
}

func printAgentTree(reg *company.Registry, node company.AgentNode, depth int) {
	indent := strings.Repeat("  ", depth)
	colorFor(reg, node.ID).Printf("%s%s", indent, node.Name)
	fmt.Printf(" (%s)\n", node.Role)
	for _, childID := range node.Children {
		if child, ok := reg.Node(childID); ok {
			printAgentTree(reg, child, depth+1)
		}
	}
}

var promptsCmd = &cobra.Command{
	Use:   "prompts [company]",
	Short: "Show suggested starter prompts",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requested := ""
		if len(args) > 0 {
			requested = args[0]
		}
		data := mustLoadCompany(cfg, resolveCompany(cfg, requested))

		printHeader(fmt.Sprintf("💡 %s Prompts", data.Company.Name))
		for _, p := range company.SuggestedPrompts(data) {
			fmt.Printf("%s (%s)\n", p.Label, p.Complexity)
			fmt.Printf("  %s\n", p.Prompt)
			fmt.Printf("  flow: %s\n\n", strings.Join(p.ExpectedFlow, " → "))
		}
	},
}
