package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/showroom/viewer/internal/config"
	"github.com/obsidianstack/showroom/viewer/internal/metrics"
	"github.com/obsidianstack/showroom/viewer/internal/notifier"
	"github.com/obsidianstack/showroom/viewer/internal/server"
	"github.com/obsidianstack/showroom/viewer/internal/session"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection as a live web page",
		Long: `serve mounts the view, fetches the collection once and serves it on
/ (HTML), /api/v1/records (JSON) and /ws/stream (WebSocket updates).

With --watch, editing the config file remounts the view against the new
settings. The previous mount is discarded even if its fetch is still running.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(root.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Viewer.HTTPPort = port
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, root.configPath, cfg, watch)
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultHTTPPort, "HTTP port (overrides viewer.http_port)")
	cmd.Flags().BoolVar(&watch, "watch", true, "remount when the config file changes")

	return cmd
}

func runServe(ctx context.Context, configPath string, cfg *config.Config, watch bool) error {
	logger := slog.Default()
	logger.Info("viewer starting",
		"endpoint", cfg.Viewer.Source.Endpoint,
		"http_port", cfg.Viewer.HTTPPort,
		"timeout", cfg.Viewer.Source.Timeout,
		"auth_mode", cfg.Viewer.Source.Auth.Mode,
	)

	n := notifier.New()
	reg := metrics.New()
	sess := session.New(n, session.WithMetrics(reg), session.WithLogger(logger))
	defer sess.Close()

	if _, err := sess.Mount(ctx, cfg.Viewer); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:     cfg.Viewer.HTTPPort,
		Session:  sess,
		Notifier: n,
		Metrics:  reg,
		Logger:   logger,
	})

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Serve(egctx) })

	if watch {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			logger.Info("config file not found, not watching", "path", configPath)
		} else {
			eg.Go(func() error {
				return config.Watch(egctx, configPath, func(next *config.Config) {
					if _, err := sess.Mount(egctx, next.Viewer); err != nil {
						logger.Error("remount failed, keeping current mount", "err", err)
					}
				})
			})
		}
	}

	err := eg.Wait()
	logger.Info("viewer stopped")
	return err
}
