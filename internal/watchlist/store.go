package watchlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
	"github.com/arvindri2005/Crypto-Tracker/internal/storage"
)

// Phase is the hydration lifecycle of the store.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseHydrating
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseHydrating:
		return "hydrating"
	case PhaseReady:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarketSource is the bulk snapshot fetch capability the store needs from
// the market-data API.
type MarketSource interface {
	GetCoinsMarkets(ctx context.Context, ids []string) ([]coingecko.CoinMarket, error)
}

// Store owns the authoritative set of watched coin ids and their cached
// market snapshots. Ids are persisted on every mutation; snapshots live only
// for the session and are filled by hydration or scheduled refreshes.
//
// A coin id may be present without a snapshot: an id added without eager
// data stays bare until the next bulk fetch.
type Store struct {
	storage storage.Store
	source  MarketSource
	logger  *logrus.Logger

	mu        sync.Mutex
	ids       []string
	snapshots map[string]coingecko.CoinMarket
	phase     Phase
	fetching  bool
	fetchErr  error

	listenerSeq int
	listeners   map[int]func()
}

func New(store storage.Store, source MarketSource, logger *logrus.Logger) *Store {
	return &Store{
		storage:   store,
		source:    source,
		logger:    logger,
		ids:       []string{},
		snapshots: make(map[string]coingecko.CoinMarket),
		listeners: make(map[int]func()),
	}
}

// Add inserts id into the watchlist if absent. A supplied snapshot is cached
// immediately; otherwise the entry stays empty until the next bulk fetch.
// Persistence failure is logged and swallowed: the in-memory state remains
// authoritative for the session.
func (s *Store) Add(id string, snap *coingecko.CoinMarket) {
	s.mu.Lock()
	if s.containsLocked(id) {
		s.mu.Unlock()
		return
	}

	s.ids = append(s.ids, id)
	if snap != nil {
		s.snapshots[id] = *snap
	}
	s.persistLocked()

	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.WithField("coin_id", id).Debug("Added coin to watchlist")
	notify(listeners)
}

// Remove drops id and its snapshot if present; a no-op otherwise.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	idx := -1
	for i, existing := range s.ids {
		if existing == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
	delete(s.snapshots, id)
	s.persistLocked()

	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.WithField("coin_id", id).Debug("Removed coin from watchlist")
	notify(listeners)
}

// Contains reports membership against the in-memory id list. Never blocks
// on I/O.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(id)
}

// Subscribe registers fn to be called after every state change. The returned
// cancel deregisters it and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.listenerSeq
	s.listenerSeq++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Hydrate loads the persisted id list and, if non-empty, performs the
// one-time bulk snapshot fetch. It runs at most once per store; later calls
// are no-ops. A fetch failure is recorded in state for the UI and returned,
// but does not prevent subsequent Add/Remove calls from working.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseNotStarted {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseHydrating

	ids, err := s.storage.Load()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load persisted watchlist, starting empty")
		ids = []string{}
	}
	s.ids = ids

	if len(ids) == 0 {
		s.phase = PhaseReady
		s.fetching = false
		listeners := s.listenersLocked()
		s.mu.Unlock()
		notify(listeners)
		return nil
	}

	s.fetching = true
	fetchIDs := make([]string, len(ids))
	copy(fetchIDs, ids)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners)

	markets, fetchErr := s.source.GetCoinsMarkets(ctx, fetchIDs)

	s.mu.Lock()
	if fetchErr != nil {
		s.logger.WithError(fetchErr).Error("Failed to fetch initial watchlist coin data")
		s.snapshots = make(map[string]coingecko.CoinMarket)
		s.fetchErr = fetchErr
	} else {
		s.replaceSnapshotsLocked(markets)
		s.fetchErr = nil
	}
	s.fetching = false
	s.phase = PhaseReady
	listeners = s.listenersLocked()
	s.mu.Unlock()
	notify(listeners)

	if fetchErr == nil {
		s.logger.WithField("coins", len(markets)).Info("Watchlist hydrated")
	}
	return fetchErr
}

// Refresh refetches snapshots for the current ids. On failure the previous
// snapshots are kept; stale data beats a blank list between polls.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if len(s.ids) == 0 {
		s.mu.Unlock()
		return nil
	}
	fetchIDs := make([]string, len(s.ids))
	copy(fetchIDs, s.ids)
	s.mu.Unlock()

	markets, err := s.source.GetCoinsMarkets(ctx, fetchIDs)

	s.mu.Lock()
	if err != nil {
		s.fetchErr = err
	} else {
		s.replaceSnapshotsLocked(markets)
		s.fetchErr = nil
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()
	notify(listeners)

	if err != nil {
		return fmt.Errorf("failed to refresh watchlist: %w", err)
	}
	return nil
}

// IDs returns the watched ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Coins returns cached snapshots in watchlist insertion order, skipping ids
// that have no snapshot yet.
func (s *Store) Coins() []coingecko.CoinMarket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]coingecko.CoinMarket, 0, len(s.ids))
	for _, id := range s.ids {
		if snap, ok := s.snapshots[id]; ok {
			out = append(out, snap)
		}
	}
	return out
}

// Snapshot returns the cached market data for id, if any.
func (s *Store) Snapshot(id string) (coingecko.CoinMarket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	return snap, ok
}

// State returns the lifecycle phase, fetching flag and last fetch error as
// one consistent reading. Callers that need more than one of the three must
// use this instead of the individual getters, which each take the lock
// separately and can tear across a concurrent mutation.
func (s *Store) State() (Phase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.fetching, s.fetchErr
}

func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Store) IsFetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}

// Err returns the error from the last bulk fetch, nil after a success.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

func (s *Store) containsLocked(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *Store) replaceSnapshotsLocked(markets []coingecko.CoinMarket) {
	snaps := make(map[string]coingecko.CoinMarket, len(markets))
	for _, m := range markets {
		snaps[m.ID] = m
	}
	s.snapshots = snaps
}

func (s *Store) persistLocked() {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	if err := s.storage.Save(ids); err != nil {
		s.logger.WithError(err).Warn("Failed to persist watchlist ids, in-memory state kept")
	}
}

func (s *Store) listenersLocked() []func() {
	out := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}
