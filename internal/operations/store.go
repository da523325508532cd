package operations

import (
	"context"
	"log/slog"
	"sync"

	"finhealth/internal/infrastructure"
)

// Subscriber receives every committed snapshot in version order. It is called with
// the store lock held, so it must not block or call back into the store.
type Subscriber func(ctx context.Context, s State)

// StoreOptions configures a Store
type StoreOptions struct {
	DiscardStale bool
	Logger       *slog.Logger
	Metrics      *infrastructure.BusinessMetrics
}

// Store is the single authority for console state. Every mutation goes through
// Reduce under one lock, so each completion commits atomically.
type Store struct {
	mu          sync.Mutex
	state       State
	nextToken   uint64
	opts        ReduceOptions
	subscribers map[int]Subscriber
	nextSubID   int
	logger      *slog.Logger
	metrics     *infrastructure.BusinessMetrics
}

// NewStore creates a store holding InitialState
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		state:       InitialState(),
		opts:        ReduceOptions{DiscardStale: opts.DiscardStale},
		subscribers: make(map[int]Subscriber),
		logger:      infrastructure.WithComponent(logger, "state_store"),
		metrics:     opts.Metrics,
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for future commits and returns a function that removes it
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Dispatch records a new dispatch of kind and returns its token. Tokens increase
// monotonically across all kinds.
func (s *Store) Dispatch(ctx context.Context, kind Kind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextToken++
	token := s.nextToken
	s.commitLocked(ctx, Dispatched{Kind: kind, Token: token})
	return token
}

// Commit folds e into the state. It reports whether the event was applied; a
// discarded stale completion returns false and publishes nothing.
func (s *Store) Commit(ctx context.Context, e Event) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.commitLocked(ctx, e)
	return s.state, applied
}

// Touch bumps the version and republishes the current state, for changes held
// outside the store such as the active language.
func (s *Store) Touch(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Version++
	s.publishLocked(ctx)
	return s.state
}

func (s *Store) commitLocked(ctx context.Context, e Event) bool {
	next, applied := Reduce(s.state, e, s.opts)

	// Released in-flight slots are kept even when the event is discarded
	s.state = next
	infrastructure.RecordStateCommit(ctx, s.metrics, e.EventName(), !applied)

	if !applied {
		s.logger.InfoContext(ctx, "State event not applied",
			slog.String("event", e.EventName()),
			slog.Uint64("latest_token", s.state.LatestToken))
		return false
	}

	s.state.Version++
	s.logger.DebugContext(ctx, "State committed",
		slog.String("event", e.EventName()),
		slog.Uint64("version", s.state.Version),
		slog.Bool("loading", s.state.Loading))

	s.publishLocked(ctx)
	return true
}

func (s *Store) publishLocked(ctx context.Context) {
	for _, fn := range s.subscribers {
		fn(ctx, s.state)
	}
}
