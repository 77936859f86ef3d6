package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
)

// DefaultDebounce matches the input-layer debounce of the dashboard search
// box.
const DefaultDebounce = 300 * time.Millisecond

// Result is one completed search delivered to subscribers.
type Result struct {
	Query string
	Coins []coingecko.CoinSearchItem
	Err   error
}

// SearchSource is the query capability the searcher needs from the
// market-data API.
type SearchSource interface {
	SearchCoins(ctx context.Context, query string) (*coingecko.SearchResult, error)
}

// Searcher debounces raw keystrokes into API queries. Each fired query gets
// a generation number; firing a new query cancels the previous in-flight
// request, and a response carrying a stale generation is discarded, so
// subscribers never see an older result land after a newer one.
type Searcher struct {
	source   SearchSource
	logger   *logrus.Logger
	debounce time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	pending     string
	generation  uint64
	cancel      context.CancelFunc
	listenerSeq int
	listeners   map[int]func(Result)
	closed      bool
}

func NewSearcher(source SearchSource, logger *logrus.Logger, debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Searcher{
		source:    source,
		logger:    logger,
		debounce:  debounce,
		listeners: make(map[int]func(Result)),
	}
}

// Subscribe registers fn to receive completed search results. The returned
// cancel deregisters it.
func (s *Searcher) Subscribe(fn func(Result)) func() {
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

// Query records q as the pending query and (re)starts the debounce timer.
// Only the last query observed within the debounce window is sent.
func (s *Searcher) Query(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = q
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *Searcher) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.generation++
	gen := s.generation
	query := s.pending

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	requestID := uuid.NewString()
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"query":      query,
	}).Debug("Firing search query")

	go func() {
		result, err := s.source.SearchCoins(ctx, query)

		s.mu.Lock()
		if gen != s.generation || s.closed {
			s.mu.Unlock()
			s.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"query":      query,
			}).Debug("Discarding stale search response")
			return
		}
		listeners := make([]func(Result), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
		s.mu.Unlock()

		out := Result{Query: query, Err: err}
		if err == nil {
			out.Coins = result.Coins
		}
		for _, fn := range listeners {
			fn(out)
		}
	}()
}

// Close stops the debounce timer and cancels any in-flight request. The
// searcher delivers no results after Close returns.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
}
