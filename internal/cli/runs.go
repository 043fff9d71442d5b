package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs from the ledger",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📒 Recent Runs")
		cfg := loadConfig()
		led := openLedger(cfg)
		if led == nil {
			fmt.Println("Run ledger is disabled.")
			os.Exit(1)
		}
		defer led.Close()

		runs, err := led.ListRuns(runsLimit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}
		for _, r := range runs {
			status := r.Status
			switch status {
			case "completed":
				status = color.GreenString(status)
			case "errored":
				status = color.RedString(status)
			default:
				status = color.YellowString(status)
			}
			fmt.Printf("%s  %-10s %-12s %6dms  $%.6f  %s\n",
				r.RunID, status, r.Company, r.DurationMS, r.EstimatedUSD, truncateGoal(r.Goal, 48))
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run <run_id>",
	Short: "Show one run with its handoff trace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		led := openLedger(cfg)
		if led == nil {
			fmt.Println("Run ledger is disabled.")
			os.Exit(1)
		}
		defer led.Close()

		run, handoffs, err := led.GetRun(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		printHeader("🔍 Run " + run.RunID)
		fmt.Printf("Company:  %s\n", run.Company)
		fmt.Printf("Status:   %s\n", run.Status)
		fmt.Printf("Goal:     %s\n", run.Goal)
		fmt.Printf("Duration: %dms\n", run.DurationMS)
		fmt.Printf("Tokens:   %d (%s)\n", run.TotalTokens, run.Model)
		fmt.Printf("Cost:     $%.6f\n", run.EstimatedUSD)
		if run.ArtifactsPath != "" {
			fmt.Printf("Artifacts: %s\n", run.ArtifactsPath)
		}
		if len(handoffs) > 0 {
			fmt.Println("\nHandoffs:")
			for _, h := range handoffs {
				from := h.From
				if from == "" {
					from = "(user)"
				}
				fmt.Printf("  %s  %-18s → %-18s %s\n", h.Timestamp.Format("15:04:05"), from, h.To, h.Kind)
			}
		}
		if run.Response != "" {
			fmt.Println("\nResponse:")
			fmt.Println(run.Response)
		}
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show")
}

func truncateGoal(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
