package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/domain/knowledge"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
)

// maxBodyBytes caps request body sizes
const maxBodyBytes = 1 << 20

// nodeResponse is the wire shape of a knowledge node
type nodeResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Type           string    `json:"type"`
	Source         string    `json:"source,omitempty"`
	Author         string    `json:"author,omitempty"`
	URL            string    `json:"url,omitempty"`
	Category       string    `json:"category,omitempty"`
	Tags           []string  `json:"tags"`
	Importance     int       `json:"importance"`
	AccessCount    int       `json:"access_count"`
	NeighborIDs    []string  `json:"neighbor_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

func toNodeResponse(node *knowledge.Node) nodeResponse {
	neighborIDs := make([]string, 0, len(node.Neighbors()))
	for _, id := range node.Neighbors() {
		neighborIDs = append(neighborIDs, id.String())
	}
	return nodeResponse{
		ID:             node.ID().String(),
		Title:          node.Title(),
		Body:           node.Body(),
		Type:           string(node.Type()),
		Source:         node.Source(),
		Author:         node.Author(),
		URL:            node.URL(),
		Category:       node.Category(),
		Tags:           node.Tags(),
		Importance:     node.Importance(),
		AccessCount:    node.AccessCount(),
		NeighborIDs:    neighborIDs,
		CreatedAt:      node.CreatedAt(),
		UpdatedAt:      node.UpdatedAt(),
		LastAccessedAt: node.LastAccessedAt(),
	}
}

func toNodeResponses(nodes []*knowledge.Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, toNodeResponse(node))
	}
	return out
}

// connectionResponse is the wire shape of an edge
type connectionResponse struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_node_id"`
	TargetID    string    `json:"target_node_id"`
	Type        string    `json:"connection_type"`
	Strength    float64   `json:"strength"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toConnectionResponse(conn *knowledge.Connection) connectionResponse {
	return connectionResponse{
		ID:          conn.ID().String(),
		SourceID:    conn.SourceID().String(),
		TargetID:    conn.TargetID().String(),
		Type:        string(conn.Type()),
		Strength:    conn.Strength(),
		Description: conn.Description(),
		CreatedAt:   conn.CreatedAt(),
		UpdatedAt:   conn.UpdatedAt(),
	}
}

func toConnectionResponses(conns []*knowledge.Connection) []connectionResponse {
	out := make([]connectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, toConnectionResponse(conn))
	}
	return out
}

// clusterResponse is the wire shape of a cluster
type clusterResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	MemberIDs      []string  `json:"member_ids"`
	CenterID       string    `json:"center_id"`
	CoherenceScore float64   `json:"coherence_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toClusterResponse(cluster *knowledge.Cluster) clusterResponse {
	memberIDs := make([]string, 0, len(cluster.Members()))
	for _, id := range cluster.Members() {
		memberIDs = append(memberIDs, id.String())
	}
	return clusterResponse{
		ID:             cluster.ID().String(),
		Name:           cluster.Name(),
		Description:    cluster.Description(),
		MemberIDs:      memberIDs,
		CenterID:       cluster.CenterID().String(),
		CoherenceScore: cluster.CoherenceScore(),
		CreatedAt:      cluster.CreatedAt(),
		UpdatedAt:      cluster.UpdatedAt(),
	}
}

// searchResultResponse is one ranked search hit
type searchResultResponse struct {
	Node             nodeResponse `json:"node"`
	RelevanceScore   float64      `json:"relevance_score"`
	Snippet          string       `json:"snippet"`
	HighlightedTerms []string     `json:"highlighted_terms"`
}

// graphResponse is a node set plus its internal edges
type graphResponse struct {
	Nodes []nodeResponse       `json:"nodes"`
	Edges []connectionResponse `json:"edges"`
}

// relatedNodeResponse pairs a neighbor with its connection
type relatedNodeResponse struct {
	Node       nodeResponse       `json:"node"`
	Connection connectionResponse `json:"connection"`
}

func toRelatedNodeResponses(related []services.RelatedNode) []relatedNodeResponse {
	out := make([]relatedNodeResponse, 0, len(related))
	for _, item := range related {
		out = append(out, relatedNodeResponse{
			Node:       toNodeResponse(item.Node),
			Connection: toConnectionResponse(item.Connection),
		})
	}
	return out
}

// respondAppError translates service errors into the API envelope
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		logger.Error("unclassified handler error", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, string(pkgerrors.ErrorTypeInternal), "internal error")
		return
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
}
