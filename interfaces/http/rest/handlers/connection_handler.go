package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
)

// ConnectionHandler serves the edge CRUD endpoints
type ConnectionHandler struct {
	connections *services.ConnectionService
	logger      *zap.Logger
}

// NewConnectionHandler creates a connection handler
func NewConnectionHandler(connections *services.ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

type createConnectionRequest struct {
	SourceNodeID string  `json:"source_node_id"`
	TargetNodeID string  `json:"target_node_id"`
	Type         string  `json:"connection_type"`
	Strength     float64 `json:"strength"`
	Description  string  `json:"description"`
}

// CreateConnection handles POST /connections
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req createConnectionRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	conn, err := h.connections.CreateConnection(r.Context(), user.UserID, services.CreateConnectionInput{
		SourceID:    req.SourceNodeID,
		TargetID:    req.TargetNodeID,
		Type:        req.Type,
		Strength:    req.Strength,
		Description: req.Description,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

// ListConnections handles GET /nodes/{nodeID}/connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	conns, err := h.connections.ListConnections(r.Context(), user.UserID, chi.URLParam(r, "nodeID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toConnectionResponses(conns))
}

type updateConnectionRequest struct {
	Type        *string  `json:"connection_type"`
	Strength    *float64 `json:"strength"`
	Description *string  `json:"description"`
}

// UpdateConnection handles PUT /connections/{connectionID}
func (h *ConnectionHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req updateConnectionRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	conn, err := h.connections.UpdateConnection(r.Context(), user.UserID, chi.URLParam(r, "connectionID"), services.UpdateConnectionInput{
		Type:        req.Type,
		Strength:    req.Strength,
		Description: req.Description,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toConnectionResponse(conn))
}

// DeleteConnection handles DELETE /connections/{connectionID}
func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.connections.DeleteConnection(r.Context(), user.UserID, chi.URLParam(r, "connectionID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
