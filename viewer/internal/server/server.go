// Package server wires the viewer's HTTP surface: the HTML page, the JSON
// API, the WebSocket stream and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/showroom/viewer/internal/api"
	"github.com/obsidianstack/showroom/viewer/internal/metrics"
	"github.com/obsidianstack/showroom/viewer/internal/notifier"
	"github.com/obsidianstack/showroom/viewer/internal/session"
	"github.com/obsidianstack/showroom/viewer/internal/view"
	"github.com/obsidianstack/showroom/viewer/internal/ws"
)

// Config holds the dependencies of a Server.
type Config struct {
	Port     int
	Session  *session.Session
	Notifier *notifier.Notifier
	Metrics  *metrics.Registry
	Logger   *slog.Logger
}

// Server serves the viewer over HTTP.
type Server struct {
	port    int
	session *session.Session
	hub     *ws.Hub
	metrics *metrics.Registry
	logger  *slog.Logger
}

// New creates a Server. Metrics and Logger are optional.
func New(cfg Config) *Server {
	s := &Server{
		port:    cfg.Port,
		session: cfg.Session,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.hub = ws.New(cfg.Notifier, s.snapshot)
	return s
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(s.logger),
	)

	r.Get("/", s.page)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/api/*", api.New(s.session))
	r.Handle("/ws/stream", s.hub)
	r.Handle("/metrics", s.metrics)

	return r
}

// Serve listens on the configured port and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.port, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener. It closes ln.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.hub.Run(egctx)
		return nil
	})

	eg.Go(func() error {
		s.logger.Info("viewer: HTTP server listening", "addr", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("viewer: shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) snapshot() view.Snapshot {
	return s.session.Snapshot(time.Now())
}

// page renders the full HTML document for the current collection.
func (s *Server) page(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderPage(w, s.session.Layout(), snap.Rows); err != nil {
		s.logger.Error("viewer: render page", "err", err)
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
