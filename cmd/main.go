package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsrank/internal/config"
	"newsrank/internal/database"
	"newsrank/internal/news"
	"newsrank/internal/ranker"
	"newsrank/internal/server"
	"newsrank/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WarnContext(ctx, "Failed to load .env file",
			"error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	engine := ranker.NewEngine(db, ranker.Config{
		Alpha:         cfg.Alpha,
		Epsilon:       cfg.Epsilon,
		TrendWeight:   cfg.TrendWeight,
		RecencyWeight: cfg.RecencyWeight,
		Rewards:       ranker.DefaultRewards(),
	}, log)
	log.InfoContext(ctx, "Ranking engine is initialized",
		"alpha", cfg.Alpha,
		"epsilon", cfg.Epsilon,
		"trendWeight", cfg.TrendWeight,
		"recencyWeight", cfg.RecencyWeight)

	client := news.NewClient(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, cfg.ProviderTimeout, log)
	assembler := news.NewAssembler(client, cfg.PageSize, log)
	log.InfoContext(ctx, "News provider client is initialized",
		"baseURL", cfg.NewsAPIBaseURL,
		"pageSize", cfg.PageSize,
		"timeout", cfg.ProviderTimeout.String())

	sessions := session.NewRegistry(cfg.SessionWindow, log)
	defer sessions.Stop()

	srv := server.New(cfg.HTTPAddr, db, engine, assembler, sessions, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.InfoContext(ctx, "HTTP server is started",
		"addr", cfg.HTTPAddr)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-errCh:
		log.ErrorContext(ctx, "HTTP server is failed",
			"error", err,
			"addr", cfg.HTTPAddr)
	}
	cancel()

	if err = srv.Shutdown(context.Background()); err != nil {
		log.ErrorContext(ctx, "Failed to shut down HTTP server",
			"error", err)
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}
