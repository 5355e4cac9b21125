package handlers

import (
	"net/http"

	"github.com/cuemap/cuemap/pkg/api/response"
)

// StatsHandler handles GET /stats.
type StatsHandler struct{}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

type statsResponse struct {
	TotalMemories int      `json:"total_memories"`
	TotalCues     int      `json:"total_cues"`
	Cues          []string `json:"cues"`
}

// Get handles GET /stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}

	stats := eng.Stats()
	cues := eng.Cues()
	cueStrs := make([]string, len(cues))
	for i, c := range cues {
		cueStrs[i] = string(c)
	}

	response.JSON(w, http.StatusOK, statsResponse{
		TotalMemories: stats.RecordCount,
		TotalCues:     len(cueStrs),
		Cues:          cueStrs,
	})
}
