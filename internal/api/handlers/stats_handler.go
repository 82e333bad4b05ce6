package handlers

import (
	"net/http"

	"github.com/avelez/clipvault-be/internal/monitoring"
)

// SnapshotProvider exposes the latest storage statistics.
type SnapshotProvider interface {
	Snapshot() monitoring.StorageSnapshot
}

// StatsHandler serves the storage statistics snapshot.
type StatsHandler struct {
	stats SnapshotProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats SnapshotProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get returns the most recent storage snapshot.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}
