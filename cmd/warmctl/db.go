package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	dbfs "github.com/garnizeh/warmconnect/db"
	"github.com/garnizeh/warmconnect/internal/db"
)

func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	return db.New(ctx, db.FileDSN(a.cfg.DatabasePath), a.logger)
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := db.Migrate(ctx, conn, dbfs.Migrations)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	}
}

func (a *app) backupCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a consistent snapshot of the database to a new file",
		Long: `Copies the live database with VACUUM INTO. The server may keep running;
the target file must not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}

			ctx := cmd.Context()
			conn, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if _, err := conn.Exec(ctx, `VACUUM INTO ?`, out); err != nil {
				return fmt.Errorf("vacuum into %s: %w", out, err)
			}

			a.logger.Info("backup written", "from", a.cfg.DatabasePath, "to", out)
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "backup file to create")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the database with a backup",
		Long: `Checks the backup's integrity and replaces the database file with it.
Stop the server first: open connections keep using the old file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := verifyBackup(ctx, from); err != nil {
				return err
			}

			if err := replaceFile(from, a.cfg.DatabasePath); err != nil {
				return err
			}

			a.logger.Info("database restored", "from", from, "to", a.cfg.DatabasePath)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", a.cfg.DatabasePath, from)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "backup file to restore")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

var errNotABackup = errors.New("not a warmconnect backup")

// verifyBackup checks that path is an intact, migrated database.
func verifyBackup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	conn, err := db.New(ctx, "file:"+path, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var result string
	if err := conn.QueryRow(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("%w: %v", errNotABackup, err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("%w: integrity check: %s", errNotABackup, result)
	}

	var n int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil || n == 0 {
		return fmt.Errorf("%w: no applied migrations", errNotABackup)
	}

	return nil
}

// replaceFile copies src next to dst and renames it into place, dropping
// any WAL files left by the previous database.
func replaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return os.Rename(tmp.Name(), dst)
}
