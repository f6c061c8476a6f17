package handlers

import (
	"crypto/subtle"
	"net/http"
)

// StatsSummary is an operator endpoint guarded by a shared token rather than
// a tenant JWT; it aggregates across all tenants.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Stats-Token")
	if a.StatsToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.StatsToken)) != 1 {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid stats token")
		return
	}
	stats, err := a.Stats.Summary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to load stats summary")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_jobs":         stats.TotalJobs,
		"completed":          stats.Completed,
		"failed":             stats.Failed,
		"in_flight":          stats.InFlight,
		"videos_completed":   stats.VideosCompleted,
		"images_completed":   stats.ImagesCompleted,
		"completed_last_24h": stats.CompletedLast24,
	})
}
