package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
)

// SearchHandler serves the lexical search endpoint
type SearchHandler struct {
	search *services.SearchService
	logger *zap.Logger
}

// NewSearchHandler creates a search handler
func NewSearchHandler(search *services.SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: logger}
}

// Search handles GET /search?q=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondAppError(w, h.logger, pkgerrors.NewUnauthorizedError("authentication required"))
		return
	}

	opts := services.SearchOptions{
		Types:      r.URL.Query()["type"],
		Categories: r.URL.Query()["category"],
		Tags:       r.URL.Query()["tag"],
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondAppError(w, h.logger, pkgerrors.NewValidationError("limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}

	results, err := h.search.Search(r.Context(), user.UserID, r.URL.Query().Get("q"), opts)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	out := make([]searchResultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, searchResultResponse{
			Node:             toNodeResponse(result.Node),
			RelevanceScore:   result.RelevanceScore,
			Snippet:          result.Snippet,
			HighlightedTerms: result.HighlightedTerms,
		})
	}
	common.RespondJSON(w, http.StatusOK, out)
}
