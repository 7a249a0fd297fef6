package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
)

// GraphHandler serves the graph exploration endpoints
type GraphHandler struct {
	graph  *services.GraphService
	logger *zap.Logger
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(graph *services.GraphService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{graph: graph, logger: logger}
}

// GetKnowledgeGraph handles GET /graph?center_id=...&depth=...
func (h *GraphHandler) GetKnowledgeGraph(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	// depth=0 is meaningful (center only); omitting the parameter
	// selects the service default
	depth := -1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		depth, err = strconv.Atoi(raw)
		if err != nil || depth < 0 {
			respondAppError(w, h.logger, pkgerrors.NewValidationError("depth must be a non-negative integer"))
			return
		}
	}

	graph, err := h.graph.GetKnowledgeGraph(r.Context(), user.UserID, r.URL.Query().Get("center_id"), depth)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, graphResponse{
		Nodes: toNodeResponses(graph.Nodes),
		Edges: toConnectionResponses(graph.Edges),
	})
}

// GetRelatedNodes handles GET /nodes/{nodeID}/related?limit=...
func (h *GraphHandler) GetRelatedNodes(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondAppError(w, h.logger, pkgerrors.NewValidationError("limit must be a positive integer"))
			return
		}
	}

	related, err := h.graph.GetRelatedNodes(r.Context(), user.UserID, chi.URLParam(r, "nodeID"), limit)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toRelatedNodeResponses(related))
}
