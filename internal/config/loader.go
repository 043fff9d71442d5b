package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:      "data",
			ArtifactsDir: "tmp",
		},
		Model: ModelConfig{
			Name:        "gpt-4.1",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Run: RunConfig{
			MaxIterations: 3,
			MaxTurns:      30,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
		Observe: ObserveConfig{
			TopicPrefix: "workforce",
		},
	}
}

// Load builds the configuration from defaults and environment
// variables. Priority: environment > env file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load process env vars from ~/.config/workforce/env (and fallbacks) first.
	LoadEnvFileCandidates()

	if err := envconfig.Process("WORKFORCE_PATHS", &cfg.Paths); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_MODEL", &cfg.Model); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_RUN", &cfg.Run); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_SERVER", &cfg.Server); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_PROVIDER", &cfg.Provider); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_LEDGER", &cfg.Ledger); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_OBSERVE", &cfg.Observe); err != nil {
		return nil, err
	}
	if err := envconfig.Process("WORKFORCE_NOTIFY", &cfg.Notify); err != nil {
		return nil, err
	}

	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(cfg.Paths.ArtifactsDir, "ledger.db")
	}
	// Honor the provider key conventions of the original backend.
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}
