package api

import (
	"log/slog"
	"net/http"

	"podsumgo/pkg/store"
	"podsumgo/pkg/tracker"
)

// StatsHandler reports per-provider counters for the current process and
// the persisted usage totals across restarts.
type StatsHandler struct {
	tracker *tracker.Tracker
	usage   store.UsageStore
}

func NewStatsHandler(t *tracker.Tracker, u store.UsageStore) *StatsHandler {
	return &StatsHandler{tracker: t, usage: u}
}

type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	HitRate     int64 `json:"hit_rate"`
	InputChars  int64 `json:"input_chars"`
	OutputChars int64 `json:"output_chars"`
}

type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
	Usage     []*store.UsageRecord        `json:"usage"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
		Usage:     []*store.UsageRecord{},
	}

	for provider, stats := range h.tracker.Snapshot() {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			HitRate:     hitRate,
			InputChars:  stats.InputChars,
			OutputChars: stats.OutputChars,
		}
	}

	if h.usage != nil {
		usage, err := h.usage.GetUsage(r.Context())
		if err != nil {
			slog.Error("failed to load usage", "error", err)
		} else if usage != nil {
			resp.Usage = usage
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
