// Package config provides configuration types and loading for workforce.
package config

// Config is the root configuration struct.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Model    ModelConfig    `json:"model"`
	Run      RunConfig      `json:"run"`
	Server   ServerConfig   `json:"server"`
	Provider ProviderConfig `json:"provider"`
	Ledger   LedgerConfig   `json:"ledger"`
	Observe  ObserveConfig  `json:"observe"`
	Notify   NotifyConfig   `json:"notify"`
}

// PathsConfig groups filesystem locations.
type PathsConfig struct {
	DataDir      string `json:"dataDir" envconfig:"DATA_DIR"`
	ArtifactsDir string `json:"artifactsDir" envconfig:"ARTIFACTS_DIR"`
}

// ModelConfig groups LLM model settings.
type ModelConfig struct {
	Name        string  `json:"name" envconfig:"NAME"`
	MaxTokens   int     `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature float64 `json:"temperature" envconfig:"TEMPERATURE"`
}

// RunConfig groups orchestration-loop settings.
type RunConfig struct {
	DefaultCompany string `json:"defaultCompany" envconfig:"DEFAULT_COMPANY"`
	MaxIterations  int    `json:"maxIterations" envconfig:"MAX_ITERATIONS"`
	MaxTurns       int    `json:"maxTurns" envconfig:"MAX_TURNS"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
}

// ProviderConfig configures the LLM provider client.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" envconfig:"API_KEY"`
	APIBase string `json:"apiBase" envconfig:"API_BASE"`
}

// LedgerConfig configures the sqlite run ledger.
type LedgerConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Path    string `json:"path" envconfig:"PATH"`
}

// ObserveConfig configures the Kafka trace publisher.
type ObserveConfig struct {
	Enabled     bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers     string `json:"brokers" envconfig:"BROKERS"`
	TopicPrefix string `json:"topicPrefix" envconfig:"TOPIC_PREFIX"`
}

// NotifyConfig configures the Slack completion notifier.
type NotifyConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Token   string `json:"token" envconfig:"TOKEN"`
	Channel string `json:"channel" envconfig:"CHANNEL"`
}
