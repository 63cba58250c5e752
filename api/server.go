package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openalpha/perp-router/api/middleware"
	"github.com/openalpha/perp-router/api/store"
	"github.com/openalpha/perp-router/api/websocket"
	"github.com/openalpha/perp-router/metrics"
	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

const defaultListLimit = 100

// Server serves the indexed request lifecycles over HTTP and websocket
type Server struct {
	config      *Config
	store       store.Store
	hub         *websocket.Hub
	rateLimiter *middleware.RateLimiter
	logger      log.Logger
	httpServer  *http.Server
}

// NewServer creates an API server over st. The hub must be running.
func NewServer(config *Config, st store.Store, hub *websocket.Hub, logger log.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		config: config,
		store:  st,
		hub:    hub,
		logger: logger.With("module", "api"),
	}
	if !config.DisableRateLimit {
		s.rateLimiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: config.RateLimitRPS,
			Burst:             config.RateLimitBurst,
			BlockDuration:     10 * time.Second,
			CleanupInterval:   5 * time.Minute,
			BucketTTL:         time.Hour,
		})
	}
	return s
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(middleware.RateLimitMiddleware(s.rateLimiter))
		}
		r.Get("/requests/{key}", s.handleRequest)
		r.Get("/accounts/{account}/requests", s.handleAccountRequests)
		r.Get("/latency", s.handleLatency)
		if s.hub != nil {
			r.Get("/ws", s.hub.ServeWS)
		}
	})
	return r
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.Info("API server starting", "addr", s.config.ListenAddr, "rate_limit", s.rateLimiter != nil)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	height, err := s.store.LastHeight(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"last_height": height,
	})
}

// handleRequest returns the lifecycle of one request key. The optional
// queue parameter disambiguates an increase and a decrease sharing a key.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, err := routertypes.ParseRequestKey(key); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request key: %v", err))
		return
	}
	queue, ok := parseQueue(r.URL.Query().Get("queue"))
	if !ok {
		writeError(w, http.StatusBadRequest, "queue must be increase or decrease")
		return
	}

	recs, err := s.store.GetByKey(r.Context(), queue, key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		s.logger.Error("get request", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":     key,
		"status":  lifecycleStatus(recs),
		"records": recs,
	})
}

func (s *Server) handleAccountRequests(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	recs, err := s.store.ListByAccount(r.Context(), account, limit)
	if err != nil {
		s.logger.Error("list account records", "account", account, "err", err)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"records": recs,
	})
}

func (s *Server) handleLatency(w http.ResponseWriter, r *http.Request) {
	queue, ok := parseQueue(r.URL.Query().Get("queue"))
	if !ok {
		writeError(w, http.StatusBadRequest, "queue must be increase or decrease")
		return
	}

	queues := []string{queue}
	if queue == "" {
		queues = []string{routertypes.QueueIncrease.String(), routertypes.QueueDecrease.String()}
	}

	out := make([]*store.LatencyStats, 0, len(queues))
	for _, q := range queues {
		stats, err := s.store.Latency(r.Context(), q)
		if err != nil {
			s.logger.Error("latency", "queue", q, "err", err)
			writeError(w, http.StatusInternalServerError, "store error")
			return
		}
		out = append(out, stats)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queues": out})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		metrics.GetCollector().RecordAPIRequest(r.Method, path, strconv.Itoa(ww.Status()), timer.ElapsedMs())
	})
}

// lifecycleStatus is the latest action of a request's records
func lifecycleStatus(recs []store.Record) string {
	if len(recs) == 0 {
		return "unknown"
	}
	last := recs[len(recs)-1].Action
	if last == store.ActionCreated {
		return "pending"
	}
	return string(last)
}

// parseQueue validates an optional queue name
func parseQueue(v string) (string, bool) {
	if v == "" {
		return "", true
	}
	kind, err := routertypes.ParseQueueKind(v)
	if err != nil {
		return "", false
	}
	return kind.String(), true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
