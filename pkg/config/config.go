package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	History    HistoryConfig    `yaml:"history"`
	Request    RequestConfig    `yaml:"request"`
	Cache      CacheConfig      `yaml:"cache"`
	LLM        LLMConfig        `yaml:"llm"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// HistorySettings holds settings for a prompt/response history log.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HistoryConfig holds history logging settings.
type HistoryConfig struct {
	LLM HistorySettings `yaml:"llm"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// LLMConfig holds settings for the generative-AI provider.
type LLMConfig struct {
	Provider string            `yaml:"provider"` // "gemini"
	Model    string            `yaml:"model"`
	Key      string            `yaml:"key"`
	Profiles map[string]string `yaml:"profiles"` // intent -> model override
}

// CatalogConfig holds settings for the podcast catalog provider.
type CatalogConfig struct {
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Language string `yaml:"language"`
	SafeMode bool   `yaml:"safe_mode"`
}

// SummarizerConfig holds settings for the summarization pipeline.
type SummarizerConfig struct {
	// MaxAudioBytes caps how much audio the transcriber downloads.
	MaxAudioBytes int64 `yaml:"max_audio_bytes"`
}

// secrets is the environment overlay for credentials, so API keys never
// have to live in the YAML file.
type secrets struct {
	CatalogKey string `envconfig:"LISTENNOTES_API_KEY"`
	GeminiKey  string `envconfig:"GEMINI_API_KEY"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		DB: DBConfig{
			Path: "./data/podsum.db",
		},
		Log: LogConfig{
			Server:   LogSettings{Path: "./logs/server.log", Level: "INFO"},
			Requests: LogSettings{Path: "./logs/requests.log", Level: "INFO"},
		},
		History: HistoryConfig{
			LLM: HistorySettings{Enabled: false, Path: "./logs/gemini.log"},
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(300 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Cache: CacheConfig{
			TTL: Duration(14 * Day),
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Catalog: CatalogConfig{
			BaseURL:  "https://listen-api.listennotes.com/api/v2",
			Language: "English",
			SafeMode: true,
		},
		Summarizer: SummarizerConfig{
			MaxAudioBytes: 48 << 20, // inline-data limit of the multimodal endpoint
		},
	}
}

// Load loads the configuration from the given path. If the file does not
// exist it is created with default values. Existing files are merged over
// the defaults but never written back, to preserve user comments.
// Credentials missing from the file are taken from the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	var sec secrets
	if err := envconfig.Process("podsum", &sec); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.Catalog.Key == "" {
		cfg.Catalog.Key = sec.CatalogKey
	}
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = sec.GeminiKey
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# PodSumGo Configuration
# ---------------------
# Credentials may be left empty here and provided via the environment
# (LISTENNOTES_API_KEY, GEMINI_API_KEY), including a .env file.
# Duration units: ns, us, ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for enum fields.
	reFormat := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reFormat.ReplaceAll(data, []byte("${1}# Options: gemini\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
