package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mastery/internal/api/shared"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/service/session"
)

// KnowledgePointHandler handles attempts and teaching strategies.
type KnowledgePointHandler struct {
	session session.Service
	logger  *slog.Logger
}

// NewKnowledgePointHandler creates a new KnowledgePointHandler.
func NewKnowledgePointHandler(sessionService session.Service, logger *slog.Logger) *KnowledgePointHandler {
	if sessionService == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("session service cannot be nil for KnowledgePointHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgePointHandler{
		session: sessionService,
		logger:  logger.With(slog.String("component", "knowledge_point_handler")),
	}
}

// RecordAttempt handles POST /api/knowledge-points/{id}/attempts.
func (h *KnowledgePointHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req RecordAttemptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := session.AttemptInput{
		KnowledgePointID: id,
		Result:           domain.Result(req.Result),
		ParentFeedback:   req.ParentFeedback,
		AgentResponse:    req.AgentResponse,
	}
	if req.Strategy != nil {
		in.Strategy = &session.StrategyInput{
			StrategyType: req.Strategy.StrategyType,
			Content:      req.Strategy.Content,
		}
	}

	recorded, err := h.session.RecordAttempt(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record attempt")
		return
	}

	log.Debug("attempt recorded",
		slog.String("kp_id", id.String()),
		slog.String("mastery_level", string(recorded.KnowledgePoint.MasteryLevel)))
	shared.RespondWithJSON(w, r, http.StatusCreated, attemptToResponse(recorded))
}

// History handles GET /api/knowledge-points/{id}/history.
func (h *KnowledgePointHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.session.History(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get history")
		return
	}
	out := make([]HistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = historyToResponse(e)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Strategies handles GET /api/knowledge-points/{id}/strategies.
func (h *KnowledgePointHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.session.Strategies(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get strategies")
		return
	}
	out := make([]StrategyResponse, len(list))
	for i, s := range list {
		out[i] = strategyToResponse(s)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// SuggestStrategy handles POST /api/knowledge-points/{id}/strategies/suggest.
// Nothing is stored; the client sends the text back with its next attempt.
func (h *KnowledgePointHandler) SuggestStrategy(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req SuggestStrategyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	draft, err := h.session.SuggestStrategy(r.Context(), id, req.StrategyType)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to suggest strategy")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SuggestedStrategyResponse{
		StrategyType: draft.StrategyType,
		Content:      draft.Content,
	})
}

// UpdateEffectiveness handles PUT /api/strategies/{id}/effectiveness.
func (h *KnowledgePointHandler) UpdateEffectiveness(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEffectivenessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.session.UpdateStrategyEffectiveness(r.Context(), id, domain.Effectiveness(req.Effectiveness)); err != nil {
		HandleAPIError(w, r, err, "Failed to update strategy")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
