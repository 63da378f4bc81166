package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/searcher/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
)

const (
	kindSearch    = "search"
	kindFrequency = "frequency"
)

// CacheHeader reports how a query was answered: hit, miss or disabled.
const CacheHeader = "X-Cache"

// Index is the read-only query surface of an indexer.Engine.
type Index interface {
	Search(word string) index.OccurrenceList
	Frequency(word string) int
	Report() indexer.BuildReport
}

type SearchResponse struct {
	Word        string               `json:"word"`
	Total       int                  `json:"total"`
	Files       []string             `json:"files"`
	Occurrences index.OccurrenceList `json:"occurrences"`
}

type FrequencyResponse struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

type Handler struct {
	index          Index
	cache          *cache.QueryCache
	collector      *analytics.Collector
	metrics        *metrics.Metrics
	maxOccurrences int
	logger         *slog.Logger
}

// New returns a Handler. queryCache, collector and m may be nil.
func New(idx Index, queryCache *cache.QueryCache, collector *analytics.Collector, m *metrics.Metrics, maxOccurrences int) *Handler {
	return &Handler{
		index:          idx,
		cache:          queryCache,
		collector:      collector,
		metrics:        m,
		maxOccurrences: maxOccurrences,
		logger:         slog.Default().With("component", "query-handler"),
	}
}

// Register mounts the query API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/frequency", h.Frequency)
	mux.HandleFunc("GET /api/v1/index/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	word, err := wordParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := h.limitParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	compute := func() (SearchResponse, error) {
		occurrences := h.index.Search(word)
		return SearchResponse{
			Word:        word,
			Total:       len(occurrences),
			Files:       occurrences.Files(),
			Occurrences: occurrences,
		}, nil
	}
	resp, cacheStatus, err := lookup(ctx, h.cache, kindSearch, word, compute)
	if err != nil {
		logger.FromContext(ctx).Error("search failed", "word", word, "error", err)
		h.writeError(w, fmt.Errorf("%w: search", apperrors.ErrInternal))
		return
	}
	if limit > 0 && limit < len(resp.Occurrences) {
		resp.Occurrences = resp.Occurrences[:limit]
	}

	h.observe(ctx, analytics.EventSearch, word, resp.Total, cacheStatus, start)
	w.Header().Set(CacheHeader, cacheStatus)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Frequency(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	word, err := wordParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	compute := func() (FrequencyResponse, error) {
		return FrequencyResponse{Word: word, Frequency: h.index.Frequency(word)}, nil
	}
	resp, cacheStatus, err := lookup(ctx, h.cache, kindFrequency, word, compute)
	if err != nil {
		logger.FromContext(ctx).Error("frequency lookup failed", "word", word, "error", err)
		h.writeError(w, fmt.Errorf("%w: frequency", apperrors.ErrInternal))
		return
	}

	h.observe(ctx, analytics.EventFrequency, word, resp.Frequency, cacheStatus, start)
	w.Header().Set(CacheHeader, cacheStatus)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.index.Report())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrCacheDisabled, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: cache invalidation", apperrors.ErrInternal))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// lookup runs compute through the cache when there is one. The returned
// status is "hit", "miss" or "disabled".
func lookup[T any](ctx context.Context, c *cache.QueryCache, kind, word string, compute func() (T, error)) (T, string, error) {
	if c == nil {
		v, err := compute()
		return v, "disabled", err
	}
	v, hit, err := cache.GetOrCompute(ctx, c, kind, word, compute)
	if hit {
		return v, "hit", err
	}
	return v, "miss", err
}

func (h *Handler) observe(ctx context.Context, kind analytics.EventType, word string, hits int, cacheStatus string, start time.Time) {
	elapsed := time.Since(start)
	result := "found"
	if hits == 0 {
		result = "not_found"
	}
	if h.metrics != nil {
		h.metrics.QueriesTotal.WithLabelValues(string(kind), result).Inc()
		h.metrics.QueryLatency.WithLabelValues(string(kind), cacheStatus).Observe(elapsed.Seconds())
	}
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Type:      kind,
			Word:      word,
			Hits:      hits,
			CacheHit:  cacheStatus == "hit",
			LatencyUs: elapsed.Microseconds(),
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	logger.FromContext(ctx).Debug("query answered",
		"kind", kind,
		"word", word,
		"hits", hits,
		"cache", cacheStatus,
		"latency_us", elapsed.Microseconds(),
	)
}

// wordParam returns the q parameter. An empty q is a valid query; a missing
// one is not.
func wordParam(r *http.Request) (string, error) {
	query := r.URL.Query()
	if !query.Has("q") {
		return "", apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	return query.Get("q"), nil
}

func (h *Handler) limitParam(r *http.Request) (int, error) {
	limit := h.maxOccurrences
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return limit, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	if limit > 0 && parsed > limit {
		return limit, nil
	}
	return parsed, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := "internal error"
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
