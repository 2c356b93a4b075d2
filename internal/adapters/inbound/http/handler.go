// Package http provides the inbound HTTP adapter for the stats service.
//
// Routes:
//   - POST /api/check-wallet       wallet stats lookup
//   - GET  /api/health             service health and cache state
//   - GET  /api/admin/stats        full leaderboard snapshot
//   - GET  /api/refresh-leaderboard snapshot cache invalidation + rebuild
//   - GET  /api/cache/stats        cache introspection
//   - GET  /api/cache/clear        corrupted-entry cleanup
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/inbound"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// maxRequestBytes caps the check-wallet request body.
const maxRequestBytes = 1000

// HandlerConfig holds configuration for the HTTP handler.
type HandlerConfig struct {
	// Version is reported by the health endpoint.
	Version string

	// ProxyCount is how many outbound proxies are loaded, reported by the
	// health endpoint.
	ProxyCount int

	// Logger is the structured logger for the handler.
	Logger *slog.Logger
}

// Handler implements the REST API on top of the stats service.
type Handler struct {
	service    inbound.StatsService
	version    string
	proxyCount int
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler with the given service.
func NewHandler(service inbound.StatsService, config HandlerConfig) *Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:    service,
		version:    config.Version,
		proxyCount: config.ProxyCount,
		logger:     logger.With("component", "http-handler"),
	}
}

// RegisterRoutes registers the HTTP routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/check-wallet", h.CheckWallet)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/admin/stats", h.AdminStats)
	mux.HandleFunc("GET /api/refresh-leaderboard", h.RefreshLeaderboard)
	mux.HandleFunc("GET /api/cache/stats", h.CacheStats)
	mux.HandleFunc("GET /api/cache/clear", h.CacheClear)
}

// WithCORS wraps an HTTP handler with permissive CORS headers and preflight
// handling; the dashboard frontend is served from a different origin.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type checkWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// CheckWallet handles the wallet stats lookup.
func (h *Handler) CheckWallet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req checkWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request payload too large")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WalletAddress == "" {
		h.respondError(w, http.StatusBadRequest, "missing wallet_address field")
		return
	}

	stats, err := h.service.CheckWallet(r.Context(), req.WalletAddress)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// AdminStats handles the full leaderboard read.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, snapshot)
}

// RefreshLeaderboard invalidates the snapshot cache and rebuilds it.
func (h *Handler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snapshot, err := h.service.RefreshLeaderboard(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"message":                "leaderboard refresh completed",
		"total_users":            snapshot.TotalUsers,
		"total_checks":           snapshot.TotalChecks,
		"execution_time_seconds": time.Since(start).Seconds(),
		"timestamp":              time.Now().UTC(),
	})
}

// CacheStats handles the cache introspection read.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CacheStats(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"cache_statistics": stats,
		"timestamp":        time.Now().UTC(),
	})
}

// CacheClear handles the corrupted-entry cleanup.
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	purged, err := h.service.ClearCache(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"message":                "cache cleanup completed",
		"cleared_entries":        purged,
		"execution_time_seconds": time.Since(start).Seconds(),
		"timestamp":              time.Now().UTC(),
	})
}

// Health reports service health, store connectivity and cache state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeStatus := "healthy"
	if err := h.service.Ping(r.Context()); err != nil {
		storeStatus = "error"
	}

	response := map[string]any{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC(),
		"system_status": map[string]any{
			"redis":          storeStatus,
			"proxies_loaded": h.proxyCount,
		},
	}
	if stats, err := h.service.CacheStats(r.Context()); err == nil {
		response["cache"] = stats
	}
	h.respondJSON(w, http.StatusOK, response)
}

// respondServiceError maps domain errors to status codes. Unexpected errors
// get an opaque request id for log correlation instead of leaking details.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress):
		h.respondError(w, http.StatusBadRequest, "invalid wallet address: expected 0x followed by 40 hexadecimal characters")
	case errors.Is(err, outbound.ErrUpstreamUnavailable):
		h.respondError(w, http.StatusBadGateway, "upstream points API unavailable, try again later")
	case errors.Is(err, outbound.ErrStoreUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "statistics service unavailable")
	default:
		requestID := uuid.NewString()[:8]
		h.logger.Error("request failed", "path", r.URL.Path, "requestId", requestID, "error", err)
		h.respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success":    false,
			"error":      "internal server error",
			"request_id": requestID,
		})
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]any{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
