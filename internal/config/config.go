package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/aluque/mailpilot/internal/gmail"
)

// AIConfig holds configuration for the local AI microservice
type AIConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout"`

	// Summary generation
	SummaryDetail string `json:"summary_detail"` // short, detailed

	// Caching configuration
	CacheEnabled bool   `json:"cache_enabled"`
	CachePath    string `json:"cache_path"`
}

// FetchConfig holds configuration for the email fetch pipeline
type FetchConfig struct {
	PageSize   int64 `json:"page_size"`
	MaxWorkers int   `json:"max_workers"`

	// Which body part wins when a message carries both HTML and plain
	// text: "html" or "last"
	BodyPreference string `json:"body_preference"`
}

// Config holds all configuration for the mailpilot application
type Config struct {
	Credentials string `json:"credentials"`
	Token       string `json:"token"`

	AI    AIConfig    `json:"ai"`
	Fetch FetchConfig `json:"fetch"`

	// LogFile is the path for debug logs; empty disables file logging
	LogFile string `json:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		AI:      DefaultAIConfig(),
		Fetch:   DefaultFetchConfig(),
		LogFile: "",
	}
}

// DefaultAIConfig returns default AI service configuration
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Enabled:       true,
		Endpoint:      "http://localhost:5000",
		Timeout:       "30s",
		SummaryDetail: "short",
		CacheEnabled:  true,
		CachePath:     "",
	}
}

// DefaultFetchConfig returns default fetch pipeline configuration
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		PageSize:       50,
		MaxWorkers:     10,
		BodyPreference: "html",
	}
}

// LoadConfig loads configuration from a JSON file, falling back to
// defaults for anything missing
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailpilot", "config.json")
}

// DefaultCredentialPaths returns the default paths for credentials and token
func DefaultCredentialPaths() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}

	configDir := filepath.Join(home, ".config", "mailpilot")
	credentialsPath := filepath.Join(configDir, "credentials.json")
	tokenPath := filepath.Join(configDir, "token.json")

	return credentialsPath, tokenPath
}

// DefaultCacheDir returns the default cache directory path
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailpilot", "cache")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailpilot")
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetAITimeout returns the parsed AI request timeout
func (c *Config) GetAITimeout() time.Duration {
	if c.AI.Timeout != "" {
		if d, err := time.ParseDuration(c.AI.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}

// BodyPolicy maps the configured body preference onto the decoder
// policy, defaulting to preferring HTML
func (c *Config) BodyPolicy() gmail.BodyPolicy {
	if c.Fetch.BodyPreference == "last" {
		return gmail.BodyLastWins
	}
	return gmail.BodyPreferHTML
}
