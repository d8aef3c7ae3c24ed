package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config holds all application configuration.
type Config struct {
	Workspace  WorkspaceConfig  `yaml:"workspace" toml:"workspace"`
	Fetch      FetchConfig      `yaml:"fetch" toml:"fetch"`
	Validation ValidationConfig `yaml:"validation" toml:"validation"`
	Repair     RepairConfig     `yaml:"repair" toml:"repair"`
	Suggest    SuggestConfig    `yaml:"suggest" toml:"suggest"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
}

// WorkspaceConfig locates the catalog, snapshots and report.
type WorkspaceConfig struct {
	Root         string `envconfig:"HEALTH_WORKSPACE" default:"." yaml:"root" toml:"root"`
	SourcesDir   string `envconfig:"HEALTH_SOURCES_DIR" default:"sources" yaml:"sources_dir" toml:"sources_dir"`
	SnapshotsDir string `envconfig:"HEALTH_SNAPSHOTS_DIR" default:"snapshots" yaml:"snapshots_dir" toml:"snapshots_dir"`
	ReportPath   string `envconfig:"HEALTH_REPORT" default:"health-report.json" yaml:"report_path" toml:"report_path"`
	DefaultLang  string `envconfig:"HEALTH_DEFAULT_LANG" default:"en" yaml:"default_lang" toml:"default_lang"`
}

// FetchConfig holds page fetcher configuration.
type FetchConfig struct {
	CacheDir     string   `envconfig:"HEALTH_CACHE_DIR" default:".cache/source-health" yaml:"cache_dir" toml:"cache_dir"`
	CacheTTL     Duration `envconfig:"HEALTH_CACHE_TTL" default:"24h" yaml:"cache_ttl" toml:"cache_ttl"`
	Timeout      Duration `envconfig:"HEALTH_FETCH_TIMEOUT" default:"30s" yaml:"timeout" toml:"timeout"`
	Retries      int      `envconfig:"HEALTH_FETCH_RETRIES" default:"2" yaml:"retries" toml:"retries"`
	UserAgent    string   `envconfig:"HEALTH_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" yaml:"user_agent" toml:"user_agent"`
	UseJS        bool     `envconfig:"HEALTH_USE_JS" default:"false" yaml:"use_js" toml:"use_js"`
	BrowserURL   string   `envconfig:"HEALTH_BROWSER_URL" yaml:"browser_url" toml:"browser_url"`
	IdleWait     Duration `envconfig:"HEALTH_BROWSER_IDLE" default:"500ms" yaml:"idle_wait" toml:"idle_wait"`
	MaxBodyBytes int64    `envconfig:"HEALTH_MAX_BODY_BYTES" default:"10485760" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// ValidationConfig holds classification thresholds and pool sizing.
type ValidationConfig struct {
	Workers           int     `envconfig:"HEALTH_WORKERS" default:"4" yaml:"workers" toml:"workers"`
	BrokenFailRatio   float64 `envconfig:"HEALTH_BROKEN_RATIO" default:"0.5" yaml:"broken_fail_ratio" toml:"broken_fail_ratio"`
	DegradedWarnRatio float64 `envconfig:"HEALTH_DEGRADED_WARN_RATIO" default:"0.3" yaml:"degraded_warn_ratio" toml:"degraded_warn_ratio"`
	SelectorLimit     int     `envconfig:"HEALTH_SELECTOR_LIMIT" default:"10" yaml:"selector_limit" toml:"selector_limit"`
	RateLimitMillis   int     `envconfig:"HEALTH_RATE_LIMIT_MS" default:"0" yaml:"rate_limit_ms" toml:"rate_limit_ms"`
}

// RepairConfig bounds the advisor and gates the repairer.
type RepairConfig struct {
	AutoThreshold        float64 `envconfig:"HEALTH_AUTO_THRESHOLD" default:"0.5" yaml:"auto_threshold" toml:"auto_threshold"`
	ContextChars         int     `envconfig:"HEALTH_CONTEXT_CHARS" default:"500" yaml:"context_chars" toml:"context_chars"`
	PromptHTMLChars      int     `envconfig:"HEALTH_PROMPT_HTML_CHARS" default:"1500" yaml:"prompt_html_chars" toml:"prompt_html_chars"`
	MaxRequestsPerSource int     `envconfig:"HEALTH_REPAIR_MAX_REQUESTS" default:"20" yaml:"max_requests_per_source" toml:"max_requests_per_source"`
	TokenBudget          int     `envconfig:"HEALTH_REPAIR_TOKEN_BUDGET" default:"20000" yaml:"token_budget" toml:"token_budget"`
}

// SuggestConfig selects and configures the suggestion provider.
type SuggestConfig struct {
	Provider         string   `envconfig:"SUGGEST_PROVIDER" default:"auto" yaml:"provider" toml:"provider"`
	OpenAIKey        string   `envconfig:"OPENAI_API_KEY" yaml:"openai_api_key" toml:"openai_api_key"`
	OpenAIBaseURL    string   `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" yaml:"openai_base_url" toml:"openai_base_url"`
	OpenAIModel      string   `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo" yaml:"openai_model" toml:"openai_model"`
	AnthropicKey     string   `envconfig:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	AnthropicBaseURL string   `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com" yaml:"anthropic_base_url" toml:"anthropic_base_url"`
	AnthropicModel   string   `envconfig:"ANTHROPIC_MODEL" default:"claude-3-haiku-20240307" yaml:"anthropic_model" toml:"anthropic_model"`
	GeminiKey        string   `envconfig:"GEMINI_API_KEY" yaml:"gemini_api_key" toml:"gemini_api_key"`
	GeminiBaseURL    string   `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com" yaml:"gemini_base_url" toml:"gemini_base_url"`
	GeminiModel      string   `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash" yaml:"gemini_model" toml:"gemini_model"`
	MaxTokens        int      `envconfig:"SUGGEST_MAX_TOKENS" default:"200" yaml:"max_tokens" toml:"max_tokens"`
	Temperature      float64  `envconfig:"SUGGEST_TEMPERATURE" default:"0.3" yaml:"temperature" toml:"temperature"`
	Timeout          Duration `envconfig:"SUGGEST_TIMEOUT" default:"60s" yaml:"timeout" toml:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// ServerConfig holds dashboard HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"127.0.0.1" yaml:"host" toml:"host"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads the environment and then overlays the given YAML or TOML
// file. Keys absent from the file keep their environment or default value.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.Validation.Workers < 1 {
		return fmt.Errorf("validation workers must be >= 1, got %d", c.Validation.Workers)
	}
	if !inUnit(c.Validation.BrokenFailRatio) || !inUnit(c.Validation.DegradedWarnRatio) {
		return fmt.Errorf("health ratios must be within [0,1]")
	}
	if !inUnit(c.Repair.AutoThreshold) {
		return fmt.Errorf("auto threshold must be within [0,1], got %v", c.Repair.AutoThreshold)
	}
	if c.Fetch.Timeout.Std() <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	return nil
}

// SourcesPath resolves the catalog directory against the workspace root.
func (w WorkspaceConfig) SourcesPath() string {
	return w.resolve(w.SourcesDir)
}

// SnapshotsPath resolves the snapshot directory against the workspace root.
func (w WorkspaceConfig) SnapshotsPath() string {
	return w.resolve(w.SnapshotsDir)
}

// ReportFile resolves the health report path against the workspace root.
func (w WorkspaceConfig) ReportFile() string {
	return w.resolve(w.ReportPath)
}

// CacheDir resolves the fetch cache directory against the workspace root.
func (c *Config) CacheDir() string {
	if c.Fetch.CacheDir == "" {
		return ""
	}
	return c.Workspace.resolve(c.Fetch.CacheDir)
}

func (w WorkspaceConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.Root, p)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:         ".",
			SourcesDir:   "sources",
			SnapshotsDir: "snapshots",
			ReportPath:   "health-report.json",
			DefaultLang:  "en",
		},
		Fetch: FetchConfig{
			CacheDir:     ".cache/source-health",
			CacheTTL:     Duration(24 * time.Hour),
			Timeout:      Duration(30 * time.Second),
			Retries:      2,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			IdleWait:     Duration(500 * time.Millisecond),
			MaxBodyBytes: 10 << 20,
		},
		Validation: ValidationConfig{
			Workers:           4,
			BrokenFailRatio:   0.5,
			DegradedWarnRatio: 0.3,
			SelectorLimit:     10,
		},
		Repair: RepairConfig{
			AutoThreshold:        0.5,
			ContextChars:         500,
			PromptHTMLChars:      1500,
			MaxRequestsPerSource: 20,
			TokenBudget:          20000,
		},
		Suggest: SuggestConfig{
			Provider:         "auto",
			OpenAIBaseURL:    "https://api.openai.com/v1",
			OpenAIModel:      "gpt-3.5-turbo",
			AnthropicBaseURL: "https://api.anthropic.com",
			AnthropicModel:   "claude-3-haiku-20240307",
			GeminiBaseURL:    "https://generativelanguage.googleapis.com",
			GeminiModel:      "gemini-1.5-flash",
			MaxTokens:        200,
			Temperature:      0.3,
			Timeout:          Duration(60 * time.Second),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Server: ServerConfig{
			Port: "8090",
			Host: "127.0.0.1",
		},
	}
}
