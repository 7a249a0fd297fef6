package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"synapse-backend/application/ports"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
	"synapse-backend/domain/similarity"
)

// scoringConcurrency bounds the parallel similarity workers per scan
const scoringConcurrency = 4

// AutoLinkService scans a written node against all sibling nodes of
// the same owner and creates connections for every pair scoring above
// the threshold. The scan is best-effort end to end: individual
// candidate failures are logged and skipped, and a scan failure never
// propagates to the write that triggered it.
type AutoLinkService struct {
	nodeRepo ports.NodeRepository
	connSvc  *ConnectionService
	scorer   *similarity.Scorer
	logger   *zap.Logger
}

// NewAutoLinkService creates an auto-link service
func NewAutoLinkService(
	nodeRepo ports.NodeRepository,
	connSvc *ConnectionService,
	scorer *similarity.Scorer,
	logger *zap.Logger,
) *AutoLinkService {
	return &AutoLinkService{
		nodeRepo: nodeRepo,
		connSvc:  connSvc,
		scorer:   scorer,
		logger:   logger,
	}
}

type scoredCandidate struct {
	candidate *knowledge.Node
	result    similarity.Result
}

// ScanNode scores the node against every other node the owner has and
// links the pairs above the threshold. Existing connections between a
// pair are left untouched; a re-scan can add another edge alongside
// them.
func (s *AutoLinkService) ScanNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) error {
	node, err := s.nodeRepo.FindByID(ctx, ownerID, nodeID)
	if err != nil {
		return err
	}

	siblings, err := s.nodeRepo.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	// Scoring is pure and parallelizes cleanly; edge creation below
	// stays sequential because each new edge rewrites the scanned
	// node's neighbor cache.
	var (
		mu      sync.Mutex
		matches []scoredCandidate
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(scoringConcurrency)
	for _, candidate := range siblings {
		if candidate.ID().Equals(nodeID) {
			continue
		}
		candidate := candidate
		g.Go(func() error {
			result := s.scorer.Score(node, candidate)
			if result.Score > similarity.AutoLinkThreshold {
				mu.Lock()
				matches = append(matches, scoredCandidate{candidate: candidate, result: result})
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	linked := 0
	for _, match := range matches {
		_, err := s.connSvc.CreateConnection(ctx, ownerID, CreateConnectionInput{
			SourceID:    nodeID.String(),
			TargetID:    match.candidate.ID().String(),
			Type:        string(match.result.RelationType),
			Strength:    match.result.Score,
			Description: fmt.Sprintf("auto-generated, score=%.2f", match.result.Score),
		})
		if err != nil {
			s.logger.Warn("auto-link candidate skipped",
				zap.String("node_id", nodeID.String()),
				zap.String("candidate_id", match.candidate.ID().String()),
				zap.Error(err))
			continue
		}
		linked++
	}

	s.logger.Info("auto-link scan finished",
		zap.String("node_id", nodeID.String()),
		zap.Int("candidates", len(siblings)-1),
		zap.Int("linked", linked))

	return nil
}
