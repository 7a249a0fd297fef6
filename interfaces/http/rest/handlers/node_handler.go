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
	"synapse-backend/pkg/utils"
)

// NodeHandler serves the node CRUD endpoints
type NodeHandler struct {
	nodes  *services.NodeService
	logger *zap.Logger
}

// NewNodeHandler creates a node handler
func NewNodeHandler(nodes *services.NodeService, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{nodes: nodes, logger: logger}
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var input services.CreateNodeInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	node, err := h.nodes.CreateNode(r.Context(), user.UserID, input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toNodeResponse(node))
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	node, err := h.nodes.GetNode(r.Context(), user.UserID, chi.URLParam(r, "nodeID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toNodeResponse(node))
}

// ListNodes handles GET /nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	params := common.ExtractPaginationParams(r)
	query := services.ListNodesQuery{
		Types:      r.URL.Query()["type"],
		Category:   r.URL.Query().Get("category"),
		Tags:       r.URL.Query()["tag"],
		Search:     r.URL.Query().Get("q"),
		Pagination: params,
	}
	if raw := r.URL.Query().Get("min_importance"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil {
			respondAppError(w, h.logger, pkgerrors.NewValidationError("min_importance must be an integer"))
			return
		}
		query.MinImportance = min
	}

	nodes, total, err := h.nodes.ListNodes(r.Context(), user.UserID, query)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, toNodeResponses(nodes), &common.MetaInfo{
		Timestamp:  utils.NowRFC3339(),
		Pagination: common.BuildPaginationMeta(params.Page, params.Limit, total),
	})
}

// UpdateNode handles PUT /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var input services.UpdateNodeInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	node, err := h.nodes.UpdateNode(r.Context(), user.UserID, chi.URLParam(r, "nodeID"), input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toNodeResponse(node))
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.nodes.DeleteNode(r.Context(), user.UserID, chi.URLParam(r, "nodeID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
