package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for autojob.
type Config struct {
	Store        StoreConfig
	Search       SearchConfig
	GitHub       GitHubConfig
	Report       ReportConfig
	Notification NotificationConfig
	AI           AIConfig
	Harvest      HarvestConfig
}

// StoreConfig selects the job record backend.
type StoreConfig struct {
	Backend        string // "json" or "sqlite"
	Path           string
	QueryCacheSize int // 0 (default) disables the query cache
}

// SearchConfig controls web search and page fetching.
type SearchConfig struct {
	BaseURL      string
	MinDelay     time.Duration // minimum gap between requests to the same host
	MaxResults   int
	MaxPageChars int
	Timeout      time.Duration
}

// GitHubConfig controls repository search.
type GitHubConfig struct {
	APIURL string
	Token  string // expanded from env var by Load
}

// ReportConfig controls where reports are written.
type ReportConfig struct {
	Dir string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// AIConfig controls the optional OpenAI tag suggestion layer.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// HarvestConfig describes the cache-first JD harvester.
type HarvestConfig struct {
	Schedule        string // cron spec, e.g. "@every 6h"
	MinContentChars int
	Targets         []TargetConfig
}

// TargetConfig is a single company/role pair to keep cached.
type TargetConfig struct {
	Company  string `yaml:"company"`
	Role     string `yaml:"role"`
	Location string `yaml:"location"`
	Salary   string `yaml:"salary"`
	Tags     string `yaml:"tags"`
}

const (
	defaultStorePath       = "jd_database.json"
	defaultSearchBaseURL   = "https://html.duckduckgo.com/html/"
	defaultMaxResults      = 5
	defaultMaxPageChars    = 40000
	defaultGitHubAPIURL    = "https://api.github.com"
	defaultReportDir       = "."
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultSchedule        = "@every 6h"
	defaultMinContentChars = 200
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Store        rawStoreConfig     `yaml:"store"`
	Search       rawSearchConfig    `yaml:"search"`
	GitHub       rawGitHubConfig    `yaml:"github"`
	Report       rawReportConfig    `yaml:"report"`
	Notification NotificationConfig `yaml:"notification"`
	AI           rawAIConfig        `yaml:"ai"`
	Harvest      rawHarvestConfig   `yaml:"harvest"`
}

type rawStoreConfig struct {
	Backend        string `yaml:"backend"`
	Path           string `yaml:"path"`
	QueryCacheSize int    `yaml:"query_cache_size"`
}

type rawSearchConfig struct {
	BaseURL      string `yaml:"base_url"`
	MinDelay     string `yaml:"min_delay"`
	MaxResults   int    `yaml:"max_results"`
	MaxPageChars int    `yaml:"max_page_chars"`
	Timeout      string `yaml:"timeout"`
}

type rawGitHubConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
}

type rawReportConfig struct {
	Dir string `yaml:"dir"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawHarvestConfig struct {
	Schedule        string         `yaml:"schedule"`
	MinContentChars int            `yaml:"min_content_chars"`
	Targets         []TargetConfig `yaml:"targets"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg, err := build(rawConfig{})
	if err != nil {
		// Built-in defaults always parse.
		panic(fmt.Sprintf("config defaults invalid: %v", err))
	}
	return cfg
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(raw rawConfig) (*Config, error) {
	minDelay, err := parseDuration("search.min_delay", raw.Search.MinDelay, 1*time.Second)
	if err != nil {
		return nil, err
	}
	searchTimeout, err := parseDuration("search.timeout", raw.Search.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:        strings.ToLower(orDefault(raw.Store.Backend, "json")),
			Path:           orDefault(raw.Store.Path, defaultStorePath),
			QueryCacheSize: raw.Store.QueryCacheSize,
		},
		Search: SearchConfig{
			BaseURL:      orDefault(raw.Search.BaseURL, defaultSearchBaseURL),
			MinDelay:     minDelay,
			MaxResults:   orDefaultInt(raw.Search.MaxResults, defaultMaxResults),
			MaxPageChars: orDefaultInt(raw.Search.MaxPageChars, defaultMaxPageChars),
			Timeout:      searchTimeout,
		},
		GitHub: GitHubConfig{
			APIURL: strings.TrimRight(orDefault(raw.GitHub.APIURL, defaultGitHubAPIURL), "/"),
			Token:  raw.GitHub.Token,
		},
		Report: ReportConfig{
			Dir: orDefault(raw.Report.Dir, defaultReportDir),
		},
		Notification: NotificationConfig{
			Type:       orDefault(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
		},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Harvest: HarvestConfig{
			Schedule:        orDefault(raw.Harvest.Schedule, defaultSchedule),
			MinContentChars: orDefaultInt(raw.Harvest.MinContentChars, defaultMinContentChars),
			Targets:         raw.Harvest.Targets,
		},
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.backend must be \"json\" or \"sqlite\", got %q", cfg.Store.Backend)
	}
	if cfg.Store.QueryCacheSize < 0 {
		return fmt.Errorf("store.query_cache_size must not be negative, got %d", cfg.Store.QueryCacheSize)
	}

	if cfg.Search.MinDelay < 0 {
		return fmt.Errorf("search.min_delay must not be negative, got %v", cfg.Search.MinDelay)
	}
	if cfg.Search.MaxResults < 0 || cfg.Search.MaxPageChars < 0 {
		return fmt.Errorf("search.max_results and search.max_page_chars must not be negative")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if _, err := cron.ParseStandard(cfg.Harvest.Schedule); err != nil {
		return fmt.Errorf("parse harvest.schedule %q: %w", cfg.Harvest.Schedule, err)
	}
	for i, t := range cfg.Harvest.Targets {
		if strings.TrimSpace(t.Company) == "" || strings.TrimSpace(t.Role) == "" {
			return fmt.Errorf("harvest.targets[%d]: company and role are required", i)
		}
	}

	return nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func orDefaultInt(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
