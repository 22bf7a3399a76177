package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/contents.db" description:"SQLite database file"`
	FallbackDir string `long:"fallback-dir" env:"FALLBACK_DIR" default:"./data/fallback" description:"Directory for JSONL records the database could not take"`
	CatalogDir  string `long:"catalog-dir" env:"CATALOG_DIR" description:"Directory with YAML files overriding the built-in channel catalog"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for daily usage totals (optional)"`

	// LLM
	LLMProvider    string  `long:"llm-provider" env:"LLM_PROVIDER" default:"anthropic" choice:"anthropic" choice:"openai" description:"Completion provider"`
	LLMModel       string  `long:"llm-model" env:"LLM_MODEL" default:"claude-sonnet-4-20250514" description:"Model name"`
	LLMAPIKey      string  `long:"llm-api-key" env:"LLM_API_KEY" description:"Provider API key"`
	LLMBaseURL     string  `long:"llm-base-url" env:"LLM_BASE_URL" description:"Relay or proxy base URL (optional)"`
	LLMMaxRetries  int     `long:"llm-max-retries" env:"LLM_MAX_RETRIES" default:"3" description:"Retries on an overloaded response"`
	LLMRetryDelay  int     `long:"llm-retry-delay" env:"LLM_RETRY_DELAY" default:"2" description:"Base retry delay in seconds, doubled per retry"`
	LLMConcurrency int     `long:"llm-concurrency" env:"LLM_CONCURRENCY" default:"4" description:"Concurrent completion calls per request"`
	InputPrice     float64 `long:"input-price" env:"LLM_INPUT_PRICE" default:"3" description:"USD per million input tokens"`
	OutputPrice    float64 `long:"output-price" env:"LLM_OUTPUT_PRICE" default:"15" description:"USD per million output tokens"`

	// Application configuration
	Port              string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	PublicURL         string   `long:"public-url" env:"PUBLIC_URL" description:"Public base URL used in channel feeds (e.g., https://ops.britzmedi.com)"`
	WorkerCount       int      `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`
	SchedulerInterval int      `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string   `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	CORSOrigins       []string `long:"cors-origin" env:"CORS_ORIGINS" env-delim:"," description:"Allowed dashboard origins (repeatable)"`
	NewsroomFeeds     []string `long:"newsroom-feed" env:"NEWSROOM_FEEDS" env-delim:"," description:"Newsroom RSS/Atom feed URL to import (repeatable)"`
	SourcesDir        string   `long:"sources-dir" env:"SOURCES_DIR" description:"Directory containing newsroom source YAML files (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"BRITZMEDI Contents Ops/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Seoul" description:"Timezone for timestamps (e.g., UTC, Asia/Seoul)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env when present, then flags and environment.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.LLMMaxRetries < 0 || raw.LLMRetryDelay < 0 {
		return nil, fmt.Errorf("retry settings must be non-negative")
	}

	return &Cfg{
		DBPath:            raw.DBPath,
		FallbackDir:       raw.FallbackDir,
		CatalogDir:        raw.CatalogDir,
		RedisAddr:         raw.RedisAddr,
		LLMProvider:       raw.LLMProvider,
		LLMModel:          raw.LLMModel,
		LLMAPIKey:         raw.LLMAPIKey,
		LLMBaseURL:        raw.LLMBaseURL,
		LLMMaxRetries:     raw.LLMMaxRetries,
		LLMRetryDelay:     raw.LLMRetryDelay,
		LLMConcurrency:    raw.LLMConcurrency,
		InputPrice:        raw.InputPrice,
		OutputPrice:       raw.OutputPrice,
		Port:              raw.Port,
		PublicURL:         raw.PublicURL,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		CORSOrigins:       raw.CORSOrigins,
		NewsroomFeeds:     raw.NewsroomFeeds,
		SourcesDir:        raw.SourcesDir,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// RetryDelay is the base delay between overloaded retries.
func (c *Cfg) RetryDelay() time.Duration {
	return time.Duration(c.LLMRetryDelay) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
