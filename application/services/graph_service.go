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

// DefaultGraphDepth bounds the traversal when the caller gives none
const DefaultGraphDepth = 2

// GraphService answers graph-shaped read queries: bounded-depth
// neighborhoods for visualization and strongest-first related nodes
type GraphService struct {
	nodeRepo ports.NodeRepository
	connRepo ports.ConnectionRepository
	logger   *zap.Logger
}

// NewGraphService creates a graph service
func NewGraphService(nodeRepo ports.NodeRepository, connRepo ports.ConnectionRepository, logger *zap.Logger) *GraphService {
	return &GraphService{
		nodeRepo: nodeRepo,
		connRepo: connRepo,
		logger:   logger,
	}
}

// Graph is a node set plus every edge whose endpoints are both in it
type Graph struct {
	Nodes []*knowledge.Node
	Edges []*knowledge.Connection
}

// RelatedNode pairs a neighbor with the connection that reaches it
type RelatedNode struct {
	Node       *knowledge.Node
	Connection *knowledge.Connection
}

// GetKnowledgeGraph extracts the neighborhood around a center node by
// breadth-first traversal up to the depth bound. A negative depth
// selects the default; depth 0 yields the center alone. With an empty
// centerID it returns the requester's entire node and edge set instead.
func (s *GraphService) GetKnowledgeGraph(ctx context.Context, requesterID, centerID string, depth int) (*Graph, error) {
	if depth < 0 {
		depth = DefaultGraphDepth
	}

	if centerID == "" {
		return s.fullGraph(ctx, requesterID)
	}

	center, err := valueobjects.NewNodeIDFromString(centerID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	centerNode, err := s.nodeRepo.FindByID(ctx, requesterID, center)
	if err != nil {
		return nil, err
	}

	type queueItem struct {
		id    valueobjects.NodeID
		depth int
	}

	visited := map[string]*knowledge.Node{center.String(): centerNode}
	edges := make(map[string]*knowledge.Connection)
	queue := []queueItem{{id: center, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= depth {
			continue
		}

		incident, err := s.connRepo.FindByNode(ctx, requesterID, item.id)
		if err != nil {
			return nil, err
		}
		for _, conn := range incident {
			edges[conn.ID().String()] = conn

			other, ok := conn.OtherEnd(item.id)
			if !ok || visited[other.String()] != nil {
				continue
			}
			node, err := s.nodeRepo.FindByID(ctx, requesterID, other)
			if err != nil {
				if pkgerrors.IsNotFound(err) {
					// dangling edge; the cache-repair path will catch up
					continue
				}
				return nil, err
			}
			visited[other.String()] = node
			queue = append(queue, queueItem{id: other, depth: item.depth + 1})
		}
	}

	graph := &Graph{
		Nodes: make([]*knowledge.Node, 0, len(visited)),
		Edges: make([]*knowledge.Connection, 0, len(edges)),
	}
	for _, node := range visited {
		graph.Nodes = append(graph.Nodes, node)
	}
	// Only edges fully inside the visited set: frontier edges at the
	// depth bound reference nodes the traversal never collected
	for _, conn := range edges {
		if visited[conn.SourceID().String()] != nil && visited[conn.TargetID().String()] != nil {
			graph.Edges = append(graph.Edges, conn)
		}
	}
	sortGraph(graph)

	s.logger.Debug("neighborhood extracted",
		zap.String("center_id", centerID),
		zap.Int("depth", depth),
		zap.Int("nodes", len(graph.Nodes)),
		zap.Int("edges", len(graph.Edges)))

	return graph, nil
}

// GetRelatedNodes returns the node's neighbors ordered by connection
// strength descending, one entry per neighbor
func (s *GraphService) GetRelatedNodes(ctx context.Context, requesterID, nodeID string, limit int) ([]RelatedNode, error) {
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

	related := make([]RelatedNode, 0, len(conns))
	seen := make(map[string]bool)
	for _, conn := range conns {
		if limit > 0 && len(related) >= limit {
			break
		}
		other, ok := conn.OtherEnd(id)
		if !ok || seen[other.String()] {
			continue
		}
		node, err := s.nodeRepo.FindByID(ctx, requesterID, other)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		seen[other.String()] = true
		related = append(related, RelatedNode{Node: node, Connection: conn})
	}
	return related, nil
}

func (s *GraphService) fullGraph(ctx context.Context, requesterID string) (*Graph, error) {
	nodes, err := s.nodeRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	edges, err := s.connRepo.FindAllByOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	graph := &Graph{Nodes: nodes, Edges: edges}
	sortGraph(graph)
	return graph, nil
}

// sortGraph orders output deterministically for stable responses
func sortGraph(g *Graph) {
	sort.Slice(g.Nodes, func(i, j int) bool {
		return g.Nodes[i].ID().String() < g.Nodes[j].ID().String()
	})
	sort.Slice(g.Edges, func(i, j int) bool {
		return g.Edges[i].ID().String() < g.Edges[j].ID().String()
	})
}
