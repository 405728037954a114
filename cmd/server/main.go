package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/warmconnect/api"
	dbfs "github.com/garnizeh/warmconnect/db"
	"github.com/garnizeh/warmconnect/internal/config"
	"github.com/garnizeh/warmconnect/internal/db"
	"github.com/garnizeh/warmconnect/internal/icebreaker"
	"github.com/garnizeh/warmconnect/pkg/ollama"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "warmconnect: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	ollama.SetLogger(logger)

	logger.Info("starting warmconnect", slog.String("version", version), slog.String("build_time", buildTime), slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.New(ctx, db.FileDSN(cfg.DatabasePath), logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("close db", slog.Any("err", err))
		}
	}()

	if cfg.MigrateOnStart {
		applied, err := db.Migrate(ctx, conn, dbfs.Migrations)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", slog.Any("versions", applied))
	}

	completer, err := icebreaker.OpenCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open language model: %w", err)
	}
	gen := icebreaker.New(completer, cfg.LLM.Timeout, logger)
	defer gen.Close()
	logger.Info("language model", slog.String("provider", cfg.LLM.Provider), slog.String("model", cfg.LLM.Model))

	handler, err := api.SetupRoutes(cfg, version, buildTime, conn, gen)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
