// Command warmctl is the administration tool for a Warm Connect deployment:
// schema migrations, database backup and restore, and checks of the
// configured language model.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/garnizeh/warmconnect/internal/config"
	"github.com/garnizeh/warmconnect/pkg/ollama"
)

type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "warmctl",
		Short:         "Administer a Warm Connect server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config YAML file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database file (overrides database_path)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.migrateCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		a.icebreakerCmd(),
		a.encourageCmd(),
		a.modelsCmd(),
	)

	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	a.cfg = cfg

	level := cfg.SlogLevel()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	ollama.SetLogger(a.logger)

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "warmctl: %v\n", err)
		os.Exit(1)
	}
}
