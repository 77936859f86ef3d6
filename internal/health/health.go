package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/storage"
)

// APIPinger checks reachability of the market-data API.
type APIPinger interface {
	Ping(ctx context.Context) error
}

type Checker struct {
	store  storage.Store
	api    APIPinger
	logger *logrus.Logger
}

type Status struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewChecker(store storage.Store, api APIPinger, logger *logrus.Logger) *Checker {
	return &Checker{
		store:  store,
		api:    api,
		logger: logger,
	}
}

func (h *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status := h.CheckHealth(ctx)

		w.Header().Set("Content-Type", "application/json")
		if status.Status == "healthy" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}

func (h *Checker) CheckHealth(ctx context.Context) Status {
	services := make(map[string]string)
	overallStatus := "healthy"

	// Check watchlist storage with a full round trip. The watchlist store
	// swallows Save failures, so this probe is the only place a write
	// failure (read-only mount, full disk) can surface.
	if err := h.probeStorage(); err != nil {
		services["storage"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
		h.logger.WithError(err).Error("Storage health check failed")
	} else {
		services["storage"] = "healthy"
	}

	// Check CoinGecko reachability
	if err := h.api.Ping(ctx); err != nil {
		services["coingecko"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
		h.logger.WithError(err).Error("CoinGecko health check failed")
	} else {
		services["coingecko"] = "healthy"
	}

	return Status{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Services:  services,
	}
}

// probeStorage rewrites the currently persisted ids so both the read and
// the write path are exercised.
func (h *Checker) probeStorage() error {
	ids, err := h.store.Load()
	if err != nil {
		return err
	}
	return h.store.Save(ids)
}

func (h *Checker) StartServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Handler())
	mux.HandleFunc("/ready", h.Handler())

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		h.logger.WithField("port", port).Info("Starting health check server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.WithError(err).Error("Health check server failed")
		}
	}()

	return server
}
