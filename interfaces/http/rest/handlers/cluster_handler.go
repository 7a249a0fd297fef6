package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/utils"
)

// ClusterHandler serves the cluster endpoints
type ClusterHandler struct {
	clusters *services.ClusterService
	logger   *zap.Logger
}

// NewClusterHandler creates a cluster handler
func NewClusterHandler(clusters *services.ClusterService, logger *zap.Logger) *ClusterHandler {
	return &ClusterHandler{clusters: clusters, logger: logger}
}

// CreateCluster handles POST /clusters
func (h *ClusterHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	var input services.CreateClusterInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		respondAppError(w, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	cluster, err := h.clusters.CreateCluster(r.Context(), user.UserID, input)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toClusterResponse(cluster))
}

// GetCluster handles GET /clusters/{clusterID}
func (h *ClusterHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	cluster, err := h.clusters.GetCluster(r.Context(), user.UserID, chi.URLParam(r, "clusterID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toClusterResponse(cluster))
}

// ListClusters handles GET /clusters
func (h *ClusterHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	clusters, err := h.clusters.ListClusters(r.Context(), user.UserID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	out := make([]clusterResponse, 0, len(clusters))
	for _, cluster := range clusters {
		out = append(out, toClusterResponse(cluster))
	}
	common.RespondJSON(w, http.StatusOK, out)
}

// DeleteCluster handles DELETE /clusters/{clusterID}
func (h *ClusterHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := h.clusters.DeleteCluster(r.Context(), user.UserID, chi.URLParam(r, "clusterID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
