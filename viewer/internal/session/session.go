// Package session owns the currently mounted store of the viewer process.
//
// A mount creates a fresh Store for a configuration and activates it. A
// remount (for example after the config file changes) activates a new Store
// and deactivates the old one, so a slow response for the previous endpoint
// can never overwrite the new collection.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/obsidianstack/showroom/viewer/internal/config"
	"github.com/obsidianstack/showroom/viewer/internal/fetcher"
	"github.com/obsidianstack/showroom/viewer/internal/notifier"
	"github.com/obsidianstack/showroom/viewer/internal/store"
	"github.com/obsidianstack/showroom/viewer/internal/view"
)

// ErrClosed is returned by Mount after Close.
var ErrClosed = errors.New("session: closed")

// FetcherFunc builds the fetcher for a source.
type FetcherFunc func(config.Source) (store.Fetcher, error)

func defaultFetcher(src config.Source) (store.Fetcher, error) {
	return fetcher.New(src)
}

// Session holds at most one active store at a time.
type Session struct {
	notify     *notifier.Notifier
	metrics    store.Metrics
	logger     *slog.Logger
	newFetcher FetcherFunc

	mu      sync.RWMutex
	current *store.Store
	layout  view.Layout
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics passes m to every store the session mounts.
func WithMetrics(m store.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger sets the logger handed to mounted stores.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithFetcher replaces the HTTP fetcher constructor.
func WithFetcher(fn FetcherFunc) Option {
	return func(s *Session) { s.newFetcher = fn }
}

// New returns an unmounted Session that pings n after each commit and
// each remount.
func New(n *notifier.Notifier, opts ...Option) *Session {
	s := &Session{
		notify:     n,
		logger:     slog.Default(),
		newFetcher: defaultFetcher,
		layout:     view.DefaultLayout(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount activates a new store for cfg and then deactivates the previous one.
// On error the previous store stays mounted.
func (s *Session) Mount(ctx context.Context, cfg config.ViewerConfig) (*store.Store, error) {
	f, err := s.newFetcher(cfg.Source)
	if err != nil {
		return nil, err
	}

	opts := []store.Option{store.WithNotifier(s.notify), store.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, store.WithMetrics(s.metrics))
	}
	next := store.New(f, opts...)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if err := next.Activate(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	prev := s.current
	s.current = next
	s.layout = view.LayoutFrom(cfg.View)
	s.mu.Unlock()

	if prev != nil {
		prev.Deactivate()
	}
	s.logger.Info("session: mounted", "mount_id", next.ID(), "endpoint", cfg.Source.Endpoint)

	// Observers re-render the (empty) collection of the new mount.
	s.notify.Broadcast()
	return next, nil
}

// Current returns the mounted store, or nil before the first Mount.
func (s *Session) Current() *store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Layout returns the view layout of the current mount.
func (s *Session) Layout() view.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// Snapshot renders the current collection. Before the first Mount the
// snapshot is empty.
func (s *Session) Snapshot(now time.Time) view.Snapshot {
	s.mu.RLock()
	st, layout := s.current, s.layout
	s.mu.RUnlock()

	if st == nil {
		return view.BuildSnapshot(nil, layout, now)
	}
	return view.BuildSnapshot(st.Records(), layout, now)
}

// Observers returns how many listeners are subscribed to the session's
// change notifications.
func (s *Session) Observers() int {
	return s.notify.Len()
}

// Close deactivates the current store. Later Mount calls fail.
func (s *Session) Close() {
	s.mu.Lock()
	st := s.current
	s.closed = true
	s.mu.Unlock()

	if st != nil {
		st.Deactivate()
	}
}
