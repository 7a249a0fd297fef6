package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/observability"
)

// autoLinkTimeout bounds the in-process fallback scan after a write
const autoLinkTimeout = 30 * time.Second

// NodeService owns the knowledge node lifecycle. Node writes trigger
// the auto-link scan: through the event publisher when one is wired
// (the worker picks the event up), or on a background goroutine when
// running with the in-process linker.
type NodeService struct {
	nodeRepo    ports.NodeRepository
	connRepo    ports.ConnectionRepository
	clusterRepo ports.ClusterRepository
	publisher   ports.EventPublisher
	linker      *AutoLinkService
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewNodeService creates a node service. linker may be nil when link
// scans run in a separate worker fed by the event publisher.
func NewNodeService(
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	clusterRepo ports.ClusterRepository,
	publisher ports.EventPublisher,
	linker *AutoLinkService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *NodeService {
	return &NodeService{
		nodeRepo:    nodeRepo,
		connRepo:    connRepo,
		clusterRepo: clusterRepo,
		publisher:   publisher,
		linker:      linker,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateNodeInput carries the request to capture a new node
type CreateNodeInput struct {
	Title      string   `json:"title" validate:"required,max=500"`
	Body       string   `json:"body" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	Source     string   `json:"source"`
	Author     string   `json:"author"`
	URL        string   `json:"url"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance" validate:"omitempty,gte=1,lte=10"`
}

// UpdateNodeInput carries a partial node update; nil fields are untouched
type UpdateNodeInput struct {
	Title      *string   `json:"title"`
	Body       *string   `json:"body"`
	Type       *string   `json:"type"`
	Source     *string   `json:"source"`
	Author     *string   `json:"author"`
	URL        *string   `json:"url"`
	Category   *string   `json:"category"`
	Tags       *[]string `json:"tags"`
	Importance *int      `json:"importance"`
}

// ListNodesQuery filters and paginates a node listing
type ListNodesQuery struct {
	Types         []string
	Category      string
	Tags          []string
	Search        string
	MinImportance int
	Pagination    common.PaginationParams
}

// CreateNode validates, persists, and triggers the auto-link scan.
// The scan is fire-and-forget: its failure never fails the create.
func (s *NodeService) CreateNode(ctx context.Context, ownerID string, input CreateNodeInput) (*knowledge.Node, error) {
	nodeType, err := knowledge.ParseNodeType(input.Type)
	if err != nil {
		return nil, err
	}

	node, err := knowledge.NewNode(ownerID, knowledge.NodeAttributes{
		Title:      input.Title,
		Body:       input.Body,
		Type:       nodeType,
		Source:     input.Source,
		Author:     input.Author,
		URL:        input.URL,
		Category:   input.Category,
		Tags:       input.Tags,
		Importance: input.Importance,
	})
	if err != nil {
		return nil, err
	}

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(ctx, "NodeCreated", map[string]string{"type": string(nodeType)})
	s.logger.Info("node created",
		zap.String("node_id", node.ID().String()),
		zap.String("owner_id", ownerID),
		zap.String("type", string(nodeType)))

	s.triggerAutoLink(ctx, node)
	return node, nil
}

// GetNode fetches a node and records the access as a side effect
func (s *NodeService) GetNode(ctx context.Context, requesterID, nodeID string) (*knowledge.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	node, err := s.nodeRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	node.RecordAccess()
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		// The read itself succeeded; losing one access bump is fine
		s.logger.Warn("access count update failed",
			zap.String("node_id", nodeID),
			zap.Error(err))
	}
	return node, nil
}

// ListNodes returns the requester's nodes matching the query, newest
// first, with the page slice and the total match count
func (s *NodeService) ListNodes(ctx context.Context, requesterID string, query ListNodesQuery) ([]*knowledge.Node, int, error) {
	nodes, err := s.nodeRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]*knowledge.Node, 0, len(nodes))
	for _, node := range nodes {
		if matchesQuery(node, query) {
			filtered = append(filtered, node)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt().After(filtered[j].CreatedAt())
	})

	total := len(filtered)
	offset := query.Pagination.CalculateOffset()
	if offset >= total {
		return []*knowledge.Node{}, total, nil
	}
	end := offset + query.Pagination.Limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

// UpdateNode applies a partial update and, when the body or tags
// changed, re-triggers the auto-link scan
func (s *NodeService) UpdateNode(ctx context.Context, requesterID, nodeID string, input UpdateNodeInput) (*knowledge.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	node, err := s.nodeRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	patch := knowledge.NodePatch{
		Title:      input.Title,
		Body:       input.Body,
		Source:     input.Source,
		Author:     input.Author,
		URL:        input.URL,
		Category:   input.Category,
		Tags:       input.Tags,
		Importance: input.Importance,
	}
	if input.Type != nil {
		nodeType, err := knowledge.ParseNodeType(*input.Type)
		if err != nil {
			return nil, err
		}
		patch.Type = &nodeType
	}

	contentChanged, err := node.ApplyPatch(patch)
	if err != nil {
		return nil, err
	}
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, err
	}

	if contentChanged {
		s.triggerAutoLink(ctx, node)
	} else {
		node.MarkEventsAsCommitted()
	}
	return node, nil
}

// DeleteNode cascades: incident connections first, then the node, then
// membership in any cluster. Clusters survive even when emptied and
// their coherence scores are left stale.
func (s *NodeService) DeleteNode(ctx context.Context, requesterID, nodeID string) error {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	node, err := s.nodeRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return err
	}

	removed, err := s.connRepo.DeleteByNode(ctx, requesterID, id)
	if err != nil {
		return err
	}
	for _, conn := range removed {
		if other, ok := conn.OtherEnd(id); ok {
			s.dropNeighbor(ctx, requesterID, other, id)
		}
	}

	if err := s.nodeRepo.Delete(ctx, requesterID, id); err != nil {
		return err
	}

	s.dropFromClusters(ctx, requesterID, id)

	s.metrics.IncrementCounter(ctx, "NodeDeleted", nil)
	s.logger.Info("node deleted",
		zap.String("node_id", nodeID),
		zap.String("owner_id", node.OwnerID()),
		zap.Int("connections_removed", len(removed)))
	return nil
}

// RebuildNeighbors re-derives the node's neighbor cache from the edge
// table. The cache is a convenience index; when a cache write was lost
// this puts it back in step with the authoritative edges.
func (s *NodeService) RebuildNeighbors(ctx context.Context, requesterID, nodeID string) (*knowledge.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	node, err := s.nodeRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	conns, err := s.connRepo.FindByNode(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(conns))
	neighbors := make([]valueobjects.NodeID, 0, len(conns))
	for _, conn := range conns {
		other, ok := conn.OtherEnd(id)
		if !ok || seen[other.String()] {
			continue
		}
		seen[other.String()] = true
		neighbors = append(neighbors, other)
	}

	node.SetNeighbors(neighbors)
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("neighbor cache rebuilt",
		zap.String("node_id", nodeID),
		zap.Int("neighbors", len(neighbors)))
	return node, nil
}

// triggerAutoLink hands the written node to the linker without coupling
// the write's latency or outcome to link generation
func (s *NodeService) triggerAutoLink(ctx context.Context, node *knowledge.Node) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, node.GetUncommittedEvents()...); err != nil {
			s.logger.Warn("event publish failed",
				zap.String("node_id", node.ID().String()),
				zap.Error(err))
		}
	}
	node.MarkEventsAsCommitted()

	if s.linker == nil {
		return
	}

	ownerID := node.OwnerID()
	nodeID := node.ID()
	go func() {
		scanCtx, cancel := context.WithTimeout(context.Background(), autoLinkTimeout)
		defer cancel()
		if err := s.linker.ScanNode(scanCtx, ownerID, nodeID); err != nil {
			s.logger.Warn("auto-link scan failed",
				zap.String("node_id", nodeID.String()),
				zap.Error(err))
		}
	}()
}

func (s *NodeService) dropNeighbor(ctx context.Context, requesterID string, nodeID, neighborID valueobjects.NodeID) {
	node, err := s.nodeRepo.FindByID(ctx, requesterID, nodeID)
	if err != nil {
		return
	}
	node.RemoveNeighbor(neighborID)
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		s.logger.Warn("neighbor cache repair failed",
			zap.String("node_id", nodeID.String()),
			zap.Error(err))
	}
}

func (s *NodeService) dropFromClusters(ctx context.Context, requesterID string, nodeID valueobjects.NodeID) {
	clusters, err := s.clusterRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		s.logger.Warn("cluster membership cleanup failed",
			zap.String("node_id", nodeID.String()),
			zap.Error(err))
		return
	}
	for _, cluster := range clusters {
		if !cluster.RemoveMember(nodeID) {
			continue
		}
		if err := s.clusterRepo.Save(ctx, cluster); err != nil {
			s.logger.Warn("cluster membership cleanup failed",
				zap.String("cluster_id", cluster.ID().String()),
				zap.Error(err))
		}
	}
}

// matchesQuery applies the listing filters to one node
func matchesQuery(node *knowledge.Node, query ListNodesQuery) bool {
	if len(query.Types) > 0 {
		found := false
		for _, t := range query.Types {
			if strings.EqualFold(t, string(node.Type())) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if query.Category != "" && !strings.EqualFold(query.Category, node.Category()) {
		return false
	}

	if len(query.Tags) > 0 {
		found := false
		for _, tag := range query.Tags {
			if node.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if query.Search != "" {
		needle := strings.ToLower(query.Search)
		if !strings.Contains(strings.ToLower(node.Title()), needle) &&
			!strings.Contains(strings.ToLower(node.Body()), needle) {
			return false
		}
	}

	if query.MinImportance > 0 && node.Importance() < query.MinImportance {
		return false
	}

	return true
}
