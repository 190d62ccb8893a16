// Command xhsinsight runs the note insight HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/analysis"
	"github.com/lihongqing2001-gif/XhsInsight/internal/api"
	blobgcs "github.com/lihongqing2001-gif/XhsInsight/internal/blob/gcs"
	blobmem "github.com/lihongqing2001-gif/XhsInsight/internal/blob/memory"
	"github.com/lihongqing2001-gif/XhsInsight/internal/clock/system"
	"github.com/lihongqing2001-gif/XhsInsight/internal/config"
	"github.com/lihongqing2001-gif/XhsInsight/internal/engine"
	collyengine "github.com/lihongqing2001-gif/XhsInsight/internal/engine/colly"
	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/headless"
	enginenoop "github.com/lihongqing2001-gif/XhsInsight/internal/engine/noop"
	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/signer"
	"github.com/lihongqing2001-gif/XhsInsight/internal/fallback"
	"github.com/lihongqing2001-gif/XhsInsight/internal/id/uuid"
	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/logging"
	"github.com/lihongqing2001-gif/XhsInsight/internal/orchestrator"
	"github.com/lihongqing2001-gif/XhsInsight/internal/pool"
	pubmem "github.com/lihongqing2001-gif/XhsInsight/internal/publisher/memory"
	pubgcp "github.com/lihongqing2001-gif/XhsInsight/internal/publisher/pubsub"
	"github.com/lihongqing2001-gif/XhsInsight/internal/store/memory"
	"github.com/lihongqing2001-gif/XhsInsight/internal/store/postgres"
	gemini "github.com/lihongqing2001-gif/XhsInsight/internal/summarizer/gemini"
	sumnoop "github.com/lihongqing2001-gif/XhsInsight/internal/summarizer/noop"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clk := system.New()
	ids := uuid.New()

	credStore, noteStore, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	blobStore, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	publisher, pubCleanup, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer pubCleanup()

	fetchEngine, engCleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer engCleanup()

	summarizer, err := buildSummarizer(cfg, logger)
	if err != nil {
		return err
	}

	adapter := engine.NewAdapter(fetchEngine, cfg.EngineTimeout(), logger)
	selector := pool.NewSelector(credStore, clk, logger)
	breaker := pool.NewBreaker(credStore, cfg.Pool.InvalidateThreshold, logger)
	limiter := pool.NewLimiter(pool.LimiterConfig{
		OwnerRPS:   cfg.Pool.OwnerRPS,
		OwnerBurst: cfg.Pool.OwnerBurst,
	})
	orch := orchestrator.New(
		orchestrator.Config{MaxAttempts: cfg.Pool.MaxAttempts},
		selector, adapter, breaker, fallback.New(), limiter, logger,
	)
	service := analysis.New(
		orch, summarizer, noteStore, blobStore, publisher,
		ids, clk, cfg.PubSub.TopicName, logger,
	)
	server := api.NewServer(credStore, service, ids, clk, cfg, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func buildStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (insight.CredentialStore, insight.NoteStore, func(), error) {
	switch cfg.DB.Provider {
	case "memory", "":
		return memory.NewCredentialStore(), memory.NewNoteStore(), func() {}, nil
	case "postgres":
		pgPool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxConns),
			MinConns: int32(cfg.DB.MinConns),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		credStore, err := postgres.NewCredentialStore(pgPool, cfg.DB.CredentialTable)
		if err != nil {
			pgPool.Close()
			return nil, nil, nil, err
		}
		noteStore, err := postgres.NewNoteStore(pgPool, cfg.DB.NoteTable)
		if err != nil {
			pgPool.Close()
			return nil, nil, nil, err
		}
		if err := credStore.EnsureSchema(ctx); err != nil {
			pgPool.Close()
			return nil, nil, nil, fmt.Errorf("ensure credential schema: %w", err)
		}
		if err := noteStore.EnsureSchema(ctx); err != nil {
			pgPool.Close()
			return nil, nil, nil, fmt.Errorf("ensure note schema: %w", err)
		}
		logger.Info("postgres stores ready",
			zap.String("credential_table", cfg.DB.CredentialTable),
			zap.String("note_table", cfg.DB.NoteTable),
		)
		return credStore, noteStore, pgPool.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (insight.BlobStore, error) {
	switch cfg.Storage.Provider {
	case "memory", "":
		return blobmem.New(), nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return blobgcs.New(client, blobgcs.Config{Bucket: cfg.Storage.GCSBucket})
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (insight.Publisher, func(), error) {
	switch cfg.PubSub.Provider {
	case "memory", "":
		return pubmem.New(), func() {}, nil
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pubsub client: %w", err)
		}
		topic := client.Topic(cfg.PubSub.TopicName)
		cleanup := func() {
			topic.Stop()
			_ = client.Close()
		}
		return pubgcp.New(topic), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown pubsub provider %q", cfg.PubSub.Provider)
	}
}

func buildEngine(cfg config.Config, logger *zap.Logger) (insight.FetchEngine, func(), error) {
	switch cfg.Engine.Provider {
	case "colly":
		sig := signer.New(signer.Config{
			Dir:    cfg.Engine.SignerDir,
			Script: cfg.Engine.SignerScript,
		})
		eng := collyengine.New(collyengine.Config{
			UserAgent: cfg.Engine.UserAgent,
			Timeout:   cfg.EngineTimeout(),
		}, sig, logger)
		return eng, func() {}, nil
	case "headless":
		eng, err := headless.New(headless.Config{
			MaxParallel:       cfg.Engine.HeadlessParallel,
			UserAgent:         cfg.Engine.UserAgent,
			NavigationTimeout: time.Duration(cfg.Engine.NavTimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return eng, eng.Close, nil
	case "noop":
		return enginenoop.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine provider %q", cfg.Engine.Provider)
	}
}

func buildSummarizer(cfg config.Config, logger *zap.Logger) (insight.Summarizer, error) {
	switch cfg.Summarizer.Provider {
	case "noop", "":
		return sumnoop.New(), nil
	case "gemini":
		return gemini.New(gemini.Config{
			Endpoint: cfg.Summarizer.Endpoint,
			Model:    cfg.Summarizer.Model,
			APIKey:   cfg.Summarizer.APIKey,
			Timeout:  time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Summarizer.Provider)
	}
}
