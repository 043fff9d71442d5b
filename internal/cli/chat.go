package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/runner"
	"github.com/workforcehq/workforce/internal/session"
)

var (
	chatMessage  string
	chatCompany  string
	chatNoStream bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a request to a company's workforce",
	Run:   runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Message to send to the workforce")
	chatCmd.Flags().StringVarP(&chatCompany, "company", "c", "", "Company id (default: configured or first available)")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Print only the final response")
}

func runChat(cmd *cobra.Command, args []string) {
	if chatMessage == "" {
		fmt.Println("Error: --message is required")
		os.Exit(1)
	}

	cfg := loadConfig()
	companyID := resolveCompany(cfg, chatCompany)
	data := mustLoadCompany(cfg, companyID)
	reg, err := data.Registry()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printHeader(fmt.Sprintf("💼 %s Workforce", data.Company.Name))

	prov := buildProvider(cfg)
	exec := runner.NewLLMExecutor(prov, reg, data, runner.Options{
		Model:       cfg.Model.Name,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
	})

	sess, err := session.New(session.Options{
		Company:       data,
		Executor:      exec,
		ArtifactsDir:  cfg.Paths.ArtifactsDir,
		MaxIterations: cfg.Run.MaxIterations,
		MaxTurns:      cfg.Run.MaxTurns,
		Model:         cfg.Model.Name,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led := openLedger(cfg)
	if led != nil {
		defer led.Close()
	}

	for ev := range sess.RunStream(ctx, chatMessage) {
		if !chatNoStream {
			renderEvent(reg, ev)
		}
	}

	res := sess.Result()
	if led != nil {
		if err := led.RecordRun(sess.Record(), chatMessage, res.ArtifactsPath); err != nil {
			fmt.Printf("Ledger warning: %v\n", err)
		}
	}

	switch res.Status {
	case session.StatusErrored:
		color.Red("\n%s", res.Response)
		os.Exit(1)
	case session.StatusAborted:
		color.Yellow("\nRun aborted.")
		os.Exit(1)
	}

	if chatNoStream {
		fmt.Println("\n" + res.Response)
	}
	printRunSummary(reg, res)
}

func renderEvent(reg *company.Registry, ev session.Event) {
	c := colorFor(reg, ev.Agent)
	switch ev.Type {
	case session.EventStart:
		fmt.Printf("▶ %s\n", ev.Message)
	case session.EventAgentChange:
		c.Printf("→ %s\n", ev.Details)
	case session.EventToolCall:
		color.New(color.Faint).Printf("  ⚙ %s\n", ev.Details)
	case session.EventToolResult:
		color.New(color.Faint).Printf("  ✓ %s: %s\n", ev.Tool, ev.Details)
	case session.EventDelta:
		fmt.Print(ev.Content)
	case session.EventComplete:
		fmt.Printf("\n\n%s\n", ev.Response)
	case session.EventArtifactsSaved:
		color.New(color.Faint).Printf("Artifacts: %s\n", ev.Path)
	case session.EventError:
		color.Red("✗ %s", ev.Error)
	}
}

func printRunSummary(reg *company.Registry, res *session.Result) {
	fmt.Println("\n─────────────────────")
	fmt.Printf("Run:      %s (%s, %dms)\n", res.RunID, res.Status, res.DurationMS)
	fmt.Print("Agents:   ")
	for i, id := range res.AgentsInvolved {
		if i > 0 {
			fmt.Print(", ")
		}
		colorFor(reg, id).Print(agentName(reg, id))
	}
	fmt.Println()
	fmt.Printf("Tokens:   %d in / %d out (%s)\n", res.Cost.InputTokens, res.Cost.OutputTokens, res.Cost.Model)
	fmt.Printf("Cost:     $%.6f\n", res.Cost.EstimatedUSD)
	if res.ArtifactsPath != "" {
		fmt.Printf("Artifacts: %s\n", res.ArtifactsPath)
	}
}
