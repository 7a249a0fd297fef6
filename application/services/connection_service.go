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

// ConnectionService owns the lifecycle of edges between nodes. Besides
// the edge table itself it maintains the denormalized neighbor-ID
// cache on each endpoint; the edge table stays authoritative and the
// cache is repaired best-effort.
type ConnectionService struct {
	nodeRepo  ports.NodeRepository
	connRepo  ports.ConnectionRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewConnectionService creates a connection service
func NewConnectionService(
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		nodeRepo:  nodeRepo,
		connRepo:  connRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateConnectionInput carries the request to link two nodes
type CreateConnectionInput struct {
	SourceID    string
	TargetID    string
	Type        string
	Strength    float64
	Description string
}

// CreateConnection links two nodes owned by the requester. Both
// endpoints must exist and belong to the requester; self-loops are
// rejected and strength is clamped into [0,1].
func (s *ConnectionService) CreateConnection(ctx context.Context, requesterID string, input CreateConnectionInput) (*knowledge.Connection, error) {
	sourceID, err := valueobjects.NewNodeIDFromString(input.SourceID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	targetID, err := valueobjects.NewNodeIDFromString(input.TargetID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	connType, err := knowledge.ParseConnectionType(input.Type)
	if err != nil {
		return nil, err
	}

	source, err := s.nodeRepo.FindByID(ctx, requesterID, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := s.nodeRepo.FindByID(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}

	conn, err := knowledge.NewConnection(requesterID, sourceID, targetID, connType, input.Strength, input.Description)
	if err != nil {
		return nil, err
	}

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.updateNeighborCaches(ctx, source, target)
	s.publishEvents(ctx, conn)

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID().String()),
		zap.String("source_id", sourceID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("type", string(connType)),
		zap.Float64("strength", conn.Strength()))

	return conn, nil
}

// ListConnections returns every edge incident to the node, ordered by
// strength descending
func (s *ConnectionService) ListConnections(ctx context.Context, requesterID, nodeID string) ([]*knowledge.Connection, error) {
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	if _, err := s.nodeRepo.FindByID(ctx, requesterID, id); err != nil {
		return nil, err
	}

	conns, err := s.connRepo.FindByNode(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].Strength() > conns[j].Strength()
	})
	return conns, nil
}

// UpdateConnectionInput carries a partial connection update
type UpdateConnectionInput struct {
	Type        *string
	Strength    *float64
	Description *string
}

// UpdateConnection applies a partial update, re-validating the type
// and re-clamping strength
func (s *ConnectionService) UpdateConnection(ctx context.Context, requesterID, connectionID string, input UpdateConnectionInput) (*knowledge.Connection, error) {
	id, err := valueobjects.NewConnectionIDFromString(connectionID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	conn, err := s.connRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	patch := knowledge.ConnectionPatch{
		Strength:    input.Strength,
		Description: input.Description,
	}
	if input.Type != nil {
		connType, err := knowledge.ParseConnectionType(*input.Type)
		if err != nil {
			return nil, err
		}
		patch.Type = &connType
	}

	if err := conn.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// DeleteConnection removes an edge and drops each endpoint from the
// other's neighbor cache
func (s *ConnectionService) DeleteConnection(ctx context.Context, requesterID, connectionID string) error {
	id, err := valueobjects.NewConnectionIDFromString(connectionID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	conn, err := s.connRepo.FindByID(ctx, requesterID, id)
	if err != nil {
		return err
	}

	if err := s.connRepo.Delete(ctx, requesterID, id); err != nil {
		return err
	}

	s.removeFromNeighborCache(ctx, requesterID, conn.SourceID(), conn.TargetID())
	s.removeFromNeighborCache(ctx, requesterID, conn.TargetID(), conn.SourceID())

	conn.MarkEventsAsCommitted()
	return nil
}

// updateNeighborCaches appends each endpoint to the other's cached
// neighbor list. Cache writes are best-effort: a failure here leaves
// the cache stale, never the edge table.
func (s *ConnectionService) updateNeighborCaches(ctx context.Context, source, target *knowledge.Node) {
	source.AddNeighbor(target.ID())
	if err := s.nodeRepo.Save(ctx, source); err != nil {
		s.logger.Warn("neighbor cache update failed",
			zap.String("node_id", source.ID().String()),
			zap.Error(err))
	}

	target.AddNeighbor(source.ID())
	if err := s.nodeRepo.Save(ctx, target); err != nil {
		s.logger.Warn("neighbor cache update failed",
			zap.String("node_id", target.ID().String()),
			zap.Error(err))
	}
}

func (s *ConnectionService) removeFromNeighborCache(ctx context.Context, requesterID string, nodeID, neighborID valueobjects.NodeID) {
	node, err := s.nodeRepo.FindByID(ctx, requesterID, nodeID)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			s.logger.Warn("neighbor cache repair failed",
				zap.String("node_id", nodeID.String()),
				zap.Error(err))
		}
		return
	}

	node.RemoveNeighbor(neighborID)
	if err := s.nodeRepo.Save(ctx, node); err != nil {
		s.logger.Warn("neighbor cache repair failed",
			zap.String("node_id", nodeID.String()),
			zap.Error(err))
	}
}

func (s *ConnectionService) publishEvents(ctx context.Context, conn *knowledge.Connection) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, conn.GetUncommittedEvents()...); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("connection_id", conn.ID().String()),
			zap.Error(err))
	}
	conn.MarkEventsAsCommitted()
}
