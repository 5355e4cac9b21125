package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cuemap/cuemap/pkg/api/response"
	"github.com/cuemap/cuemap/pkg/cuemap"
	"github.com/cuemap/cuemap/pkg/tenant"
)

// RecallHandler handles /recall and /recall/grounded.
type RecallHandler struct {
	router *tenant.Router
}

// NewRecallHandler creates a new recall handler.
func NewRecallHandler(router *tenant.Router) *RecallHandler {
	return &RecallHandler{router: router}
}

type recallRequest struct {
	Cues                       []string `json:"cues"`
	QueryText                  string   `json:"query_text"`
	Limit                      int      `json:"limit"`
	AutoReinforce              bool     `json:"auto_reinforce"`
	Explain                    bool     `json:"explain"`
	DisablePatternCompletion   bool     `json:"disable_pattern_completion"`
	DisableSalienceBias        bool     `json:"disable_salience_bias"`
	DisableSystemsConsolidation bool    `json:"disable_systems_consolidation"`
}

// weightedCuesFromRequest resolves the caller's cues[] (weight 1.0
// each) and/or query_text (resolved via the tenant's lexicon) into the
// weighted cue set a RecallQuery needs. At least one of the two must
// produce cues or the request is InvalidQuery.
func (h *RecallHandler) weightedCuesFromRequest(r *http.Request, tenantID string, req recallRequest) ([]cuemap.WeightedCue, error) {
	var out []cuemap.WeightedCue
	for _, c := range req.Cues {
		out = append(out, cuemap.WeightedCue{Cue: cuemap.Cue(c), Weight: 1.0})
	}

	if req.QueryText != "" {
		lx, err := h.router.GetLexicon(r.Context(), tenantID)
		if err != nil {
			return nil, err
		}
		resolutions, err := lx.Resolve(req.QueryText, 10)
		if err != nil {
			return nil, err
		}
		for _, res := range resolutions {
			out = append(out, cuemap.WeightedCue{Cue: cuemap.Cue(res.CanonicalCue), Weight: res.Confidence})
		}
	}

	if len(out) == 0 {
		return nil, cuemap.ErrInvalidQuery("recall requires cues, query_text, or both")
	}
	return out, nil
}

type recallResultResponse struct {
	ID             string         `json:"id"`
	Content        string         `json:"content"`
	Cues           []string       `json:"cues"`
	Score          float64        `json:"score"`
	MatchIntegrity float64        `json:"match_integrity"`
	Reinforcement  uint32         `json:"reinforcement"`
	CreatedAt      string         `json:"created_at"`
	Explain        *hitExplainDTO `json:"explain,omitempty"`
}

type hitExplainDTO struct {
	QueryWeightSum     float64 `json:"query_weight_sum"`
	MatchedWeightSum   float64 `json:"matched_weight_sum"`
	ReinforcementBoost float64 `json:"reinforcement_boost"`
	RecencyFactor      float64 `json:"recency_factor"`
	SalienceMultiplier float64 `json:"salience_multiplier"`
	Driver             string  `json:"driver"`
	PatternCompleted   []string `json:"pattern_completed,omitempty"`
}

func toRecallResultResponse(hit cuemap.RecallHit) recallResultResponse {
	res := recallResultResponse{
		ID:             hit.Record.ID,
		Content:        hit.Record.Content,
		Cues:           cuesToStrings(hit.Record.Cues),
		Score:          hit.Score,
		MatchIntegrity: hit.MatchIntegrity,
		Reinforcement:  hit.Reinforcement,
		CreatedAt:      hit.Record.CreatedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
	if hit.Explain != nil {
		completed := make([]string, len(hit.Explain.PatternCompleted))
		for i, c := range hit.Explain.PatternCompleted {
			completed[i] = string(c)
		}
		res.Explain = &hitExplainDTO{
			QueryWeightSum:     hit.Explain.QueryWeightSum,
			MatchedWeightSum:   hit.Explain.MatchedWeightSum,
			ReinforcementBoost: hit.Explain.ReinforcementBoost,
			RecencyFactor:      hit.Explain.RecencyFactor,
			SalienceMultiplier: hit.Explain.SalienceMultiplier,
			Driver:             string(hit.Explain.Driver),
			PatternCompleted:   completed,
		}
	}
	return res
}

func cuesToStrings(cues map[cuemap.Cue]struct{}) []string {
	out := make([]string, 0, len(cues))
	for c := range cues {
		out = append(out, string(c))
	}
	return out
}

type recallResponse struct {
	Results        []recallResultResponse `json:"results"`
	EngineLatencyMs float64                `json:"engine_latency_ms"`
}

// Recall handles POST /recall.
func (h *RecallHandler) Recall(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}
	tenantID, ok := tenantIDFromRequest(w, r)
	if !ok {
		return
	}

	var req recallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	cues, err := h.weightedCuesFromRequest(r, tenantID, req)
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}

	start := time.Now()
	hits, err := eng.Recall(cuemap.RecallQuery{
		Cues:                        cues,
		Limit:                       req.Limit,
		AutoReinforce:               req.AutoReinforce,
		Explain:                     req.Explain,
		DisablePatternCompletion:    req.DisablePatternCompletion,
		DisableSalienceBias:         req.DisableSalienceBias,
		DisableSystemsConsolidation: req.DisableSystemsConsolidation,
		ExpandAliases:               true,
	})
	elapsed := time.Since(start)
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}

	results := make([]recallResultResponse, len(hits))
	for i, hit := range hits {
		results[i] = toRecallResultResponse(hit)
	}

	response.JSON(w, http.StatusOK, recallResponse{
		Results:         results,
		EngineLatencyMs: float64(elapsed.Microseconds()) / 1000.0,
	})
}

type recallGroundedRequest struct {
	QueryText   string `json:"query_text"`
	TokenBudget uint32 `json:"token_budget"`
	Limit       int    `json:"limit"`
}

type recallGroundedResponse struct {
	VerifiedContext string               `json:"verified_context"`
	Proof           *cuemap.GroundingProof `json:"proof"`
	EngineLatencyMs float64              `json:"engine_latency_ms"`
}

// RecallGrounded handles POST /recall/grounded.
func (h *RecallHandler) RecallGrounded(w http.ResponseWriter, r *http.Request) {
	eng, ok := engineFromRequest(w, r)
	if !ok {
		return
	}
	tenantID, ok := tenantIDFromRequest(w, r)
	if !ok {
		return
	}

	var req recallGroundedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if req.QueryText == "" {
		response.HandleEngineError(w, cuemap.ErrInvalidQuery("query_text is required"), getRequestID(r.Context()))
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	cues, err := h.weightedCuesFromRequest(r, tenantID, recallRequest{QueryText: req.QueryText, Limit: req.Limit})
	if err != nil {
		response.HandleEngineError(w, err, getRequestID(r.Context()))
		return
	}

	requestID := getRequestID(r.Context())
	start := time.Now()
	proof, err := eng.RecallGrounded(requestID, req.QueryText, cuemap.RecallQuery{
		Cues:          cues,
		Limit:         req.Limit,
		ExpandAliases: true,
	}, req.TokenBudget)
	elapsed := time.Since(start)
	if err != nil {
		response.HandleEngineError(w, err, requestID)
		return
	}

	response.JSON(w, http.StatusOK, recallGroundedResponse{
		VerifiedContext: proof.ContextBlock,
		Proof:           proof,
		EngineLatencyMs: float64(elapsed.Microseconds()) / 1000.0,
	})
}
