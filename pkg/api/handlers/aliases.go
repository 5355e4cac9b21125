package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
)

// AliasesHandler handles the /aliases endpoints.
type AliasesHandler struct{}

// NewAliasesHandler creates a new aliases handler.
func NewAliasesHandler() *AliasesHandler {
	return &AliasesHandler{}
}

type addAliasRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Add handles POST /aliases.
func (h *AliasesHandler) Add(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}

	var req addAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if req.From == "" || req.To == "" {
		response.HandleEngineError(w, cuemap.ErrInvalidCue("from and to must both be non-empty"), getRequestID(r.Context()))
		return
	}
	if req.Weight <= 0 {
		req.Weight = 1.0
	}

	eng.AddAlias(cuemap.Cue(req.From), cuemap.Cue(req.To), req.Weight)
	response.JSON(w, http.StatusCreated, statusResponse{Status: "created"})
}

type mergeAliasesRequest struct {
	Cues []string `json:"cues"`
	To   string   `json:"to"`
}

type mergeAliasesResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Merge handles POST /aliases/merge.
func (h *AliasesHandler) Merge(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}

	var req mergeAliasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if req.To == "" || len(req.Cues) == 0 {
		response.HandleEngineError(w, cuemap.ErrInvalidCue("to and cues must both be non-empty"), getRequestID(r.Context()))
		return
	}

	to := cuemap.Cue(req.To)
	for _, c := range req.Cues {
		eng.MergeAliases(cuemap.Cue(c), to)
	}

	response.JSON(w, http.StatusOK, mergeAliasesResponse{Status: "merged", Count: len(req.Cues)})
}

type aliasDTO struct {
	Cue    string  `json:"cue"`
	Weight float64 `json:"weight"`
}

type listAliasesResponse struct {
	Aliases []aliasDTO `json:"aliases"`
}

// List handles GET /aliases?cue=X.
func (h *AliasesHandler) List(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}

	cue := r.URL.Query().Get("cue")
	if cue == "" {
		response.HandleEngineError(w, cuemap.ErrInvalidQuery("cue query parameter is required"), getRequestID(r.Context()))
		return
	}

	expanded := eng.ExpandAlias(cuemap.Cue(cue))
	aliases := make([]aliasDTO, len(expanded))
	for i, wc := range expanded {
		aliases[i] = aliasDTO{Cue: string(wc.Cue), Weight: wc.Weight}
	}

	response.JSON(w, http.StatusOK, listAliasesResponse{Aliases: aliases})
}
