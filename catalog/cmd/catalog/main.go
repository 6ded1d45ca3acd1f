package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/showroom/catalog/internal/api"
	"github.com/obsidianstack/showroom/catalog/internal/auth"
	"github.com/obsidianstack/showroom/catalog/internal/config"
	"github.com/obsidianstack/showroom/catalog/internal/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Serve the car catalog over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file (defaults apply when it does not exist)")

	var seedFile string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if seedFile != "" {
				cfg.Catalog.SeedFile = seedFile
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg.Catalog)
		},
	}
	serve.Flags().StringVar(&seedFile, "seed", "", "YAML or JSON file of cars to insert into an empty database")
	root.AddCommand(serve)

	return root
}

func run(ctx context.Context, cfg config.CatalogConfig) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("catalog starting",
		"http_port", cfg.HTTPPort,
		"database", cfg.Database,
		"auth_mode", cfg.Auth.Mode,
	)

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SeedFile != "" {
		cars, err := db.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := store.Seed(ctx, cars)
		if err != nil {
			return err
		}
		slog.Info("catalog seeded", "file", cfg.SeedFile, "inserted", n)
	}

	mw := auth.APIKey(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key())
	if cfg.Auth.Mode == "apikey" && cfg.Auth.Key() == "" {
		slog.Warn("catalog: auth mode is apikey but the key env var is empty; requests are not authenticated",
			"key_env", cfg.Auth.KeyEnv)
	}

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: api.New(store, mw, logger),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		slog.Info("catalog shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
