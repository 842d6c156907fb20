package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docledger/app/server"
	"docledger/config"
	"docledger/logging"
	"docledger/store"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "docledger",
		Short:         "Versioned document ledger with structural diffs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			_, err = logging.New(cfg.LogLevel, cfg.LogFormat)
			return err
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	s := server.NewServer(cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(cmd.Context()) }()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigch:
		slog.Info("received shutdown signal, shutting down server")
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pool, err := store.NewPostgresStore(ctx, cfg.ConnString(), cfg.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Init(ctx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	slog.Info("schema is up to date", "embedding_dim", cfg.EmbeddingDim)
	return nil
}
