package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workforcehq/workforce/internal/notify"
	"github.com/workforcehq/workforce/internal/server"
	"github.com/workforcehq/workforce/internal/session"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("🌐 Workforce Gateway")

	cfg := loadConfig()
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	prov := buildProvider(cfg)
	led := openLedger(cfg)
	if led != nil {
		defer led.Close()
	}

	var notifier session.Observer
	if cfg.Notify.Enabled && cfg.Notify.Token != "" {
		notifier = notify.NewSlackNotifier(cfg.Notify.Token, cfg.Notify.Channel)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, prov, led, notifier)
	fmt.Printf("Model:     %s\n", cfg.Model.Name)
	fmt.Printf("Data dir:  %s\n", cfg.Paths.DataDir)
	fmt.Printf("Artifacts: %s\n", cfg.Paths.ArtifactsDir)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Printf("Gateway error: %v\n", err)
		os.Exit(1)
	}
}
