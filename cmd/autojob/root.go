package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/autojob/internal/adapter"
	"github.com/amishk599/autojob/internal/ai"
	"github.com/amishk599/autojob/internal/config"
	"github.com/amishk599/autojob/internal/model"
	"github.com/amishk599/autojob/internal/notifier"
	"github.com/amishk599/autojob/internal/ratelimit"
	"github.com/amishk599/autojob/internal/retry"
	"github.com/amishk599/autojob/internal/store"
)

const (
	searchMaxRetries = 2
	searchRetryDelay = 2 * time.Second
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "autojob",
	Short:        "Job description cache and career research tools",
	Long:         "autojob keeps a tag-searchable cache of job descriptions and bundles the search, fetch, resume and report tools used for career planning.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: AUTOJOB_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadDotEnv reads .env from the working directory if present so that
// ${VAR} references in the config resolve.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > AUTOJOB_CONFIG env var > "./config.yaml".
// Built-in defaults are used when the default file does not exist.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if path == "" {
		if env := os.Getenv("AUTOJOB_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = "config.yaml"
		}
	}
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// setupLogger writes to stderr so tool output on stdout stays clean.
func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustLoad loads config and exits on failure.
func mustLoad(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

// openStore builds the configured record store, wrapped in the LRU query
// cache when enabled. The returned close func is never nil.
func openStore(cfg *config.Config, logger *slog.Logger) (model.RecordStore, func(), error) {
	var inner model.RecordStore
	closeFn := func() {}

	switch cfg.Store.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		inner = s
		closeFn = func() {
			if err := s.Close(); err != nil {
				logger.Warn("closing store failed", "error", err)
			}
		}
	default:
		inner = store.NewJSONFileStore(cfg.Store.Path, logger)
	}

	if cfg.Store.QueryCacheSize == 0 {
		return inner, closeFn, nil
	}
	cached, err := store.NewCachedStore(inner, cfg.Store.QueryCacheSize)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cached, closeFn, nil
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Search.Timeout}
}

// tools bundles the network collaborators shared by the CLI commands.
type tools struct {
	searcher model.WebSearcher
	fetcher  model.PageFetcher
	repos    model.RepoSearcher
}

// buildTools wires DuckDuckGo search and page fetching behind the shared
// per-host rate limiter and the retry policy, and GitHub search with the web
// searcher as its fallback.
func buildTools(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) tools {
	limiter := ratelimit.NewHostRateLimiter(cfg.Search.MinDelay)
	policy := retry.NewPolicy(searchMaxRetries, searchRetryDelay, logger)
	logger.Debug("rate limiter configured", "min_delay", cfg.Search.MinDelay.String())

	var searcher model.WebSearcher = adapter.NewDuckDuckGoSearcher(cfg.Search.BaseURL, httpClient)
	searcher = ratelimit.NewRateLimitedSearcher(searcher, limiter, hostOf(cfg.Search.BaseURL))
	searcher = retry.NewRetrySearcher(searcher, policy)

	var fetcher model.PageFetcher = adapter.NewPageFetcher(httpClient, cfg.Search.MaxPageChars)
	fetcher = ratelimit.NewRateLimitedPageFetcher(fetcher, limiter)
	fetcher = retry.NewRetryPageFetcher(fetcher, policy)

	return tools{
		searcher: searcher,
		fetcher:  fetcher,
		repos:    adapter.NewGitHubSearcher(cfg.GitHub.APIURL, cfg.GitHub.Token, httpClient, searcher, logger),
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

func setupTagger(cfg *config.Config, logger *slog.Logger) model.TagSuggester {
	if !cfg.AI.Enabled {
		return ai.NewNopTagger()
	}
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	logger.Info("AI tag suggestion enabled", "model", cfg.AI.Model)
	return ai.NewLLMTagger(provider, ai.TagExtractionTemplate, logger)
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}
