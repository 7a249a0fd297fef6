package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

// ClusterService groups nodes into named clusters. The coherence score
// is computed once at creation from the induced subgraph and never
// recomputed afterwards.
type ClusterService struct {
	nodeRepo    ports.NodeRepository
	connRepo    ports.ConnectionRepository
	clusterRepo ports.ClusterRepository
	logger      *zap.Logger
}

// NewClusterService creates a cluster service
func NewClusterService(
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	clusterRepo ports.ClusterRepository,
	logger *zap.Logger,
) *ClusterService {
	return &ClusterService{
		nodeRepo:    nodeRepo,
		connRepo:    connRepo,
		clusterRepo: clusterRepo,
		logger:      logger,
	}
}

// CreateClusterInput carries the request to group nodes
type CreateClusterInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids" validate:"required,min=1"`
	CenterID    string   `json:"center_id" validate:"required"`
}

// CreateCluster validates that every member belongs to the requester
// and the center is a member, then scores and persists the cluster
func (s *ClusterService) CreateCluster(ctx context.Context, requesterID string, input CreateClusterInput) (*knowledge.Cluster, error) {
	memberIDs := make([]valueobjects.NodeID, 0, len(input.MemberIDs))
	for _, raw := range input.MemberIDs {
		id, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		memberIDs = append(memberIDs, id)
	}
	centerID, err := valueobjects.NewNodeIDFromString(input.CenterID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	// Ownership check per member before any write
	for _, id := range memberIDs {
		if _, err := s.nodeRepo.FindByID(ctx, requesterID, id); err != nil {
			return nil, err
		}
	}

	conns, err := s.connRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	score := knowledge.CoherenceScore(memberIDs, conns)

	cluster, err := knowledge.NewCluster(requesterID, input.Name, input.Description, memberIDs, centerID, score)
	if err != nil {
		return nil, err
	}
	if err := s.clusterRepo.Save(ctx, cluster); err != nil {
		return nil, err
	}

	s.logger.Info("cluster created",
		zap.String("cluster_id", cluster.ID().String()),
		zap.String("owner_id", requesterID),
		zap.Int("members", len(memberIDs)),
		zap.Float64("coherence", score))

	return cluster, nil
}

// GetCluster fetches one cluster
func (s *ClusterService) GetCluster(ctx context.Context, requesterID, clusterID string) (*knowledge.Cluster, error) {
	id, err := valueobjects.NewClusterIDFromString(clusterID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return s.clusterRepo.FindByID(ctx, requesterID, id)
}

// ListClusters returns the requester's clusters, newest first
func (s *ClusterService) ListClusters(ctx context.Context, requesterID string) ([]*knowledge.Cluster, error) {
	clusters, err := s.clusterRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].CreatedAt().After(clusters[j].CreatedAt())
	})
	return clusters, nil
}

// DeleteCluster removes a cluster; member nodes are untouched
func (s *ClusterService) DeleteCluster(ctx context.Context, requesterID, clusterID string) error {
	id, err := valueobjects.NewClusterIDFromString(clusterID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if _, err := s.clusterRepo.FindByID(ctx, requesterID, id); err != nil {
		return err
	}
	return s.clusterRepo.Delete(ctx, requesterID, id)
}
