package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/obsidianstack/showroom/pkg/types"
	"github.com/obsidianstack/showroom/viewer/internal/notifier"
)

// ErrAlreadyActivated is returned by Activate on a store that has already
// been activated or deactivated. A new mount needs a new Store.
var ErrAlreadyActivated = errors.New("store: already activated")

// Fetcher retrieves the collection. It is called once per activation.
type Fetcher interface {
	Fetch(ctx context.Context) (types.Collection, error)
}

// Outcome classifies how a fetch settled.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeFailed    Outcome = "failed"
)

// Metrics receives lifecycle events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	Activated()
	Settled(outcome Outcome, records int)
}

type state int

const (
	stateIdle state = iota
	stateActive
	stateClosed
)

// Store is the lifecycle-guarded holder of one displayed collection.
type Store struct {
	fetcher Fetcher
	notify  *notifier.Notifier
	metrics Metrics
	onError func(error)
	logger  *slog.Logger
	id      string

	mu      sync.RWMutex
	state   state
	records types.Collection
	lease   *lease
	err     error

	settled chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the notifier pinged after each commit.
func WithNotifier(n *notifier.Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithMetrics sets the lifecycle event sink.
func WithMetrics(m Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger. The store adds a mount_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithErrorHandler replaces the default handler for fetch failures.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onError = fn }
}

// New creates an idle Store that will fetch through f.
func New(f Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: f,
		metrics: nopMetrics{},
		logger:  slog.Default(),
		id:      uuid.NewString(),
		records: types.Collection{},
		settled: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("mount_id", s.id)
	if s.onError == nil {
		s.onError = func(err error) {
			s.logger.Error("store: unhandled fetch failure", "err", err)
		}
	}
	return s
}

// ID returns the unique identifier of this store instance.
func (s *Store) ID() string { return s.id }

// Activate resets the collection to empty and starts the fetch. The fetch
// keeps ctx's values but not its cancellation; only Deactivate governs
// whether the result is used.
func (s *Store) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return ErrAlreadyActivated
	}
	l := newLease()
	s.state = stateActive
	s.records = types.Collection{}
	s.lease = l
	s.mu.Unlock()

	s.metrics.Activated()
	s.logger.Debug("store: activated")

	go s.run(context.WithoutCancel(ctx), l)
	return nil
}

// Deactivate revokes the current lease. It is idempotent and does not
// cancel an in-flight fetch. A store that was never activated becomes
// unusable.
func (s *Store) Deactivate() {
	s.mu.Lock()
	l := s.lease
	s.state = stateClosed
	s.mu.Unlock()

	if l != nil && l.Revoke() {
		s.logger.Debug("store: deactivated")
	}
}

// Records returns a copy of the current collection: either empty or the
// complete batch from the last committed fetch.
func (s *Store) Records() types.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Clone()
}

// Settled is closed once the fetch of this activation has settled,
// whether it was committed, discarded or failed. It is never closed for a
// store that was not activated.
func (s *Store) Settled() <-chan struct{} { return s.settled }

// Wait blocks until the fetch settles or ctx is done and returns the fetch
// error, if any.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.settled:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the fetch error of a settled activation, or nil.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) run(ctx context.Context, l *lease) {
	defer close(s.settled)

	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.metrics.Settled(OutcomeFailed, 0)
		s.onError(err)
		return
	}

	committed := l.Commit(func() {
		s.mu.Lock()
		s.records = records
		s.mu.Unlock()
	})
	if !committed {
		s.metrics.Settled(OutcomeDiscarded, len(records))
		s.logger.Debug("store: discarded result after deactivation", "records", len(records))
		return
	}

	s.metrics.Settled(OutcomeCommitted, len(records))
	s.logger.Info("store: collection committed", "records", len(records))
	if s.notify != nil {
		s.notify.Broadcast()
	}
}

type nopMetrics struct{}

func (nopMetrics) Activated()           {}
func (nopMetrics) Settled(Outcome, int) {}
