package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
)

// MemoriesHandler handles the /memories endpoints.
type MemoriesHandler struct{}

// NewMemoriesHandler creates a new memories handler.
func NewMemoriesHandler() *MemoriesHandler {
	return &MemoriesHandler{}
}

type memorizeRequest struct {
	Content string   `json:"content"`
	Cues    []string `json:"cues"`
	// DisableTemporalChunking is accepted for forward compatibility with
	// callers that pre-chunk large documents themselves; chunking a raw
	// document into multiple records is an external collaborator's job
	// (a filesystem watcher or code chunker upstream of this endpoint),
	// so this engine always stores content as a single record regardless
	// of this flag's value.
	DisableTemporalChunking bool `json:"disable_temporal_chunking"`
}

type memorizeResponse struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	AcceptedCues  []string `json:"accepted_cues"`
	RejectedCues  []string `json:"rejected_cues"`
}

// Create handles POST /memories.
func (h *MemoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}

	var req memorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}

	rec, report, err := eng.Memorize(req.Content, req.Cues, nil)
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}

	rejected := make([]string, 0, len(report.Rejected))
	for _, rc := range report.Rejected {
		rejected = append(rejected, rc.Cue)
	}

	response.JSON(w, http.StatusCreated, memorizeResponse{
		ID:           rec.ID,
		Status:       "created",
		AcceptedCues: report.Accepted,
		RejectedCues: rejected,
	})
}

type memoryRecordResponse struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Cues          []string `json:"cues"`
	CreatedAt     string   `json:"created_at"`
	Reinforcement uint32   `json:"reinforcement"`
}

func toMemoryRecordResponse(rec *cuemap.MemoryRecord) memoryRecordResponse {
	cues := make([]string, 0, len(rec.Cues))
	for c := range rec.Cues {
		cues = append(cues, string(c))
	}
	return memoryRecordResponse{
		ID:            rec.ID,
		Content:       rec.Content,
		Cues:          cues,
		CreatedAt:     rec.CreatedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
		Reinforcement: rec.Reinforcement,
	}
}

// Get handles GET /memories/{id}.
func (h *MemoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	rec, err := eng.Get(id)
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, toMemoryRecordResponse(rec))
}

type reinforceRequest struct {
	Cues []string `json:"cues"`
}

type reinforceResponse struct {
	ID            string `json:"id"`
	Reinforcement uint32 `json:"reinforcement"`
}

// Reinforce handles PATCH /memories/{id}/reinforce.
func (h *MemoriesHandler) Reinforce(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req reinforceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
			return
		}
	}

	extraCues := make([]cuemap.Cue, len(req.Cues))
	for i, c := range req.Cues {
		extraCues[i] = cuemap.Cue(c)
	}

	if err := eng.Reinforce(id, extraCues); err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}

	rec, err := eng.Get(id)
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, reinforceResponse{ID: rec.ID, Reinforcement: rec.Reinforcement})
}
