package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sentinews/sentinews/internal/region"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feeds       []Feed      `yaml:"feeds"`
	Enrichment  Enrichment  `yaml:"enrichment"`
	Geocoding   Geocoding   `yaml:"geocoding"`
	Aggregation Aggregation `yaml:"aggregation"`
	Output      Output      `yaml:"output"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
}

// Feed is one registered RSS source. Region is a canonical voivodeship name
// or "polska" for nationwide outlets.
type Feed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Region   string `yaml:"region"`
	Category string `yaml:"category"`
}

type Enrichment struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	OllamaURL      string `yaml:"ollama_url"`
	OpenAIModel    string `yaml:"openai_model"`
	OpenAIKeyEnv   string `yaml:"openai_key_env"`
	GeminiModel    string `yaml:"gemini_model"`
	GeminiKeyEnv   string `yaml:"gemini_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours"`
}

type Geocoding struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Aggregation struct {
	WindowHours int `yaml:"window_hours"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// overrides are environment knobs for containerized deployments, applied on
// top of the YAML file.
type overrides struct {
	Port    int    `env:"SENTINEWS_PORT"`
	DataDir string `env:"SENTINEWS_DATA_DIR"`
}

// ConfigDir returns the XDG config directory for sentinews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "sentinews")
}

// DataDir returns the XDG data directory for sentinews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "sentinews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/sentinews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'sentinews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	var ov overrides
	if err := envconfig.Process(context.Background(), &ov); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}
	if ov.Port != 0 {
		cfg.Server.Port = ov.Port
	}
	if ov.DataDir != "" {
		cfg.Output.DataDir = ov.DataDir
	}

	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults and validating
// feed regions.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Enrichment: Enrichment{
			Provider:       "ollama",
			Model:          "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o-mini",
			OpenAIKeyEnv:   "OPENAI_API_KEY",
			GeminiModel:    "gemini-2.0-flash",
			GeminiKeyEnv:   "GEMINI_API_KEY",
			TimeoutSeconds: 30,
			CacheTTLHours:  24,
		},
		Geocoding: Geocoding{
			Enabled:        true,
			BaseURL:        "https://nominatim.openstreetmap.org",
			UserAgent:      "sentinews/1.0 (news sentiment map)",
			TimeoutSeconds: 10,
		},
		Aggregation: Aggregation{WindowHours: 48},
		Server:      Server{Port: 8000},
		Logging:     Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Feeds {
		f := &cfg.Feeds[i]
		if f.URL == "" {
			return nil, fmt.Errorf("feed %d: url is required", i)
		}
		canonical := region.Resolve(f.Region)
		if canonical == "" {
			return nil, fmt.Errorf("feed %q: unknown region %q", f.URL, f.Region)
		}
		f.Region = canonical
	}

	return cfg, nil
}

// EnrichmentTimeout returns the configured provider timeout.
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Enrichment.TimeoutSeconds) * time.Second
}

// CacheTTL returns the configured enrichment cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Enrichment.CacheTTLHours) * time.Hour
}

// Window returns the aggregation window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Aggregation.WindowHours) * time.Hour
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
