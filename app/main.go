package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/api"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/cfg"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/llm"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/pipeline"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/tasks"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/usage"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting BRITZMEDI contents ops", "version", appCfg.Version, "timezone", time.Local.String())

	channelCatalog := catalog.NewCatalog(appCfg.CatalogDir)
	if err := channelCatalog.Run(); err != nil {
		slog.Error("Failed to load channel catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded channel catalog", "channels", len(channelCatalog.Channels()), "override_dir", appCfg.CatalogDir)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	contentRepo := database.NewContentRepository(db)
	channelRepo := database.NewChannelRepository(db)
	fallback := database.NewFallbackWriter(appCfg.FallbackDir)

	var daily usage.DailyStore = usage.NewMemoryDailyStore()
	var usageStore api.HealthChecker
	if appCfg.RedisAddr != "" {
		redisStore, err := usage.NewRedisDailyStore(appCfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, keeping daily usage in memory", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisStore.Close()
			daily = redisStore
			usageStore = redisStore
		}
	}
	tracker := usage.NewTracker(usage.Pricing{
		InputPerMillion:  appCfg.InputPrice,
		OutputPerMillion: appCfg.OutputPrice,
	}, daily)
	defer tracker.Close()

	completer, err := newCompleter(appCfg, tracker)
	if err != nil {
		slog.Error("Failed to create LLM client", "error", err)
		db.Close()
		os.Exit(1)
	}

	sourceCache := feed.NewConfigCache(appCfg.SourcesDir)
	if err := sourceCache.Run(); err != nil {
		slog.Error("Failed to load newsroom sources", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	for _, rawURL := range appCfg.NewsroomFeeds {
		if _, err := sourceCache.AddURL(rawURL); err != nil {
			slog.Warn("Skipping newsroom feed", "url", rawURL, "error", err)
		}
	}
	slog.Info("Loaded newsroom sources", "count", sourceCache.GetConfigCount())

	fetcher := tasks.NewFetcher(&http.Client{Timeout: 60 * time.Second}, appCfg.UserAgent)
	feedParser := feed.NewParser()
	filterer := feed.NewFilterer()
	extractor := feed.NewContentExtractor()

	scheduler := tasks.NewScheduler(sourceCache, contentRepo, fetcher, feedParser, filterer, extractor,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)

	contentPipeline := pipeline.New(completer, channelCatalog,
		pipeline.WithConcurrency(appCfg.LLMConcurrency),
		pipeline.WithHooks(tasks.PersistHook(scheduler, contentRepo, channelRepo, fallback)))

	handler := api.NewHandler(api.Deps{
		Catalog:          channelCatalog,
		ContentRepo:      contentRepo,
		ChannelRepo:      channelRepo,
		Pipeline:         contentPipeline,
		Usage:            tracker,
		UsageStore:       usageStore,
		ConfigCache:      sourceCache,
		Fetcher:          fetcher,
		Parser:           feedParser,
		Filterer:         filterer,
		ContentExtractor: extractor,
		Scheduler:        scheduler,
		PublicURL:        appCfg.PublicURL,
		Version:          appCfg.Version,
	})
	router := api.NewServer(handler, appCfg.APIAccessKey, appCfg.CORSOrigins)

	scheduler.Start()

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// generation with review and auto-fix can take minutes
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "auth", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// pending persist tasks fall back to the JSONL log
	scheduler.Stop()

	slog.Info("Shutdown complete")
}

// newCompleter builds the llm client. A missing key does not stop the
// server; every generation then fails with a configuration error.
func newCompleter(appCfg *cfg.Cfg, recorder usage.Recorder) (llm.Completer, error) {
	llmCfg := llm.Config{
		Provider:    appCfg.LLMProvider,
		Model:       appCfg.LLMModel,
		APIKey:      appCfg.LLMAPIKey,
		BaseURL:     appCfg.LLMBaseURL,
		MaxRetries:  appCfg.LLMMaxRetries,
		RetryDelay:  appCfg.RetryDelay(),
		Concurrency: appCfg.LLMConcurrency,
	}

	client, err := llm.New(llmCfg, recorder)
	if err == nil {
		slog.Info("LLM client ready", "provider", client.ProviderName(), "model", appCfg.LLMModel)
		return client, nil
	}

	var ce *llm.ConfigError
	if !errors.As(err, &ce) {
		return nil, err
	}

	slog.Warn("LLM client not configured, generation requests will fail", "error", err)
	var provider llm.Provider
	if appCfg.LLMProvider == "openai" {
		provider = llm.NewOpenAIProvider(llmCfg.APIKey, llmCfg.Model, llmCfg.BaseURL, nil)
	} else {
		provider = llm.NewAnthropicProvider(llmCfg.APIKey, llmCfg.Model, llmCfg.BaseURL, nil)
	}
	return llm.NewWithProvider(provider, recorder), nil
}
