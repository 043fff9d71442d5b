// Package cli implements the workforce command-line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/workforcehq/workforce/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		" __        __         _     __\n" +
		" \\ \\      / /__  _ __| | __/ _| ___  _ __ ___ ___\n" +
		"  \\ \\ /\\ / / _ \\| '__| |/ / |_ / _ \\| '__/ __/ _ \\\n" +
		"   \\ V  V / (_) | |  |   <|  _| (_) | | | (_|  __/\n" +
		"    \\_/\\_/ \\___/|_|  |_|\\_\\_|  \\___/|_|  \\___\\___|\n"
)

var rootCmd = &cobra.Command{
	Use:   "workforce",
	Short: "Workforce - AI Workforce Orchestrator",
	Long:  color.CyanString(logo) + "\nA multi-agent workforce engine: one orchestrator, specialist agents, reviewed deliverables.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(runCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ Workforce Version")
		fmt.Printf("Version: %s\n", version)
	},
}
