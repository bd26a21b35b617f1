// Package config loads the hub configuration from YAML with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Storage   StorageConfig   `yaml:"storage"`
	Export    ExportConfig    `yaml:"export"`
	Execution ExecutionConfig `yaml:"execution"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the Gemini generation client.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// EmbeddingConfig configures the embedding engine feeding the index.
type EmbeddingConfig struct {
	Model string `yaml:"model"`
}

// IndexConfig configures the knowledge-base vector index.
type IndexConfig struct {
	Path string `yaml:"path"`
	TopK int    `yaml:"top_k"`
}

// WarehouseConfig configures the Postgres analytics warehouse.
type WarehouseConfig struct {
	DSN string `yaml:"dsn"`
}

// StorageConfig configures the chart blob store.
type StorageConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// ExportConfig configures the Workspace exporters.
type ExportConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// ExecutionConfig configures the chart-rendering interpreter.
type ExecutionConfig struct {
	Interpreter      string `yaml:"interpreter"`
	WorkingDirectory string `yaml:"working_directory"`
	Timeout          string `yaml:"timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:           "gemini-2.5-flash",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "120s",
			MaxOutputTokens: 8192,
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-004",
		},
		Index: IndexConfig{
			Path: "data/knowledge.db",
			TopK: 3,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Execution: ExecutionConfig{
			Interpreter:      "python3",
			WorkingDirectory: "data/charts",
			Timeout:          "60s",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment variables override what
// the file sets.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Secrets
// are expected to arrive this way rather than in the YAML file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if dsn := os.Getenv("WAREHOUSE_DSN"); dsn != "" {
		c.Warehouse.DSN = dsn
	}
	if bucket := os.Getenv("CHARTS_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		c.Export.CredentialsFile = creds
	}
	if addr := os.Getenv("AGENTHUB_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("AGENTHUB_DB"); path != "" {
		c.Index.Path = path
	}
}

// GetLLMTimeout parses the LLM timeout with a sane fallback.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetExecutionTimeout parses the interpreter timeout with a sane
// fallback.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set GOOGLE_API_KEY)")
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index.top_k must be positive")
	}
	return nil
}
