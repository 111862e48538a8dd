package handlers

import (
	"net/http"
	"strconv"

	"github.com/seatrack/cargo-backend/internal/cargo"
)

// handleDashboardStats serves the aggregate container summary. The
// aggregation is recomputed from the live container set on a cache
// miss and cached under the configured TTL; every container write
// invalidates it.
func (h *HTTPHandler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	var stats cargo.DashboardStats
	if h.cache.GetJSON(r.Context(), statsCacheKey, &stats) {
		h.metrics.RecordStatsCache(true)
		h.writeJSON(w, http.StatusOK, stats)
		return
	}
	h.metrics.RecordStatsCache(false)

	containers, err := h.containers.ListAll(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load containers")
		return
	}

	stats = cargo.BuildDashboardStats(containers, h.now(), h.config.Cargo.DemurrageThresholdDays)
	h.metrics.SetContainerCounts(stats.Containers)
	h.cache.SetJSON(r.Context(), statsCacheKey, stats)

	h.writeJSON(w, http.StatusOK, stats)
}

// handleDashboardDemurrage serves the demurrage watchlist: containers
// whose stored status is demurrage, oldest ETA first, with derived
// lifecycle fields for the dashboard table.
func (h *HTTPHandler) handleDashboardDemurrage(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 && parsed <= 200 {
		limit = parsed
	}

	containers, err := h.containers.ListByStatus(r.Context(), cargo.StatusDemurrage, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load demurrage containers")
		return
	}

	views := cargo.AugmentAll(containers, h.now(), h.config.Cargo.DemurrageThresholdDays)
	h.writeJSON(w, http.StatusOK, listResponse{Data: views, Total: len(views)})
}
