package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/similarity"
	"synapse-backend/infrastructure/persistence/memory"
	"synapse-backend/pkg/observability"
)

// fixture wires every service over shared in-memory stores. The node
// service is built without the in-process linker so tests drive scans
// explicitly and deterministically.
type fixture struct {
	nodeRepo    *memory.NodeRepository
	connRepo    *memory.ConnectionRepository
	clusterRepo *memory.ClusterRepository
	publisher   *memory.EventPublisher

	nodes       *NodeService
	connections *ConnectionService
	linker      *AutoLinkService
	search      *SearchService
	graph       *GraphService
	clusters    *ClusterService
}

func newFixture() *fixture {
	logger := zap.NewNop()
	metrics := observability.NewMetrics("test", nil)

	f := &fixture{
		nodeRepo:    memory.NewNodeRepository(),
		connRepo:    memory.NewConnectionRepository(),
		clusterRepo: memory.NewClusterRepository(),
		publisher:   memory.NewEventPublisher(),
	}

	f.connections = NewConnectionService(f.nodeRepo, f.connRepo, f.publisher, logger)
	f.linker = NewAutoLinkService(f.nodeRepo, f.connections, similarity.NewScorer(nil), logger)
	f.nodes = NewNodeService(f.nodeRepo, f.connRepo, f.clusterRepo, f.publisher, nil, metrics, logger)
	f.search = NewSearchService(f.nodeRepo, metrics, logger)
	f.graph = NewGraphService(f.nodeRepo, f.connRepo, logger)
	f.clusters = NewClusterService(f.nodeRepo, f.connRepo, f.clusterRepo, logger)

	return f
}

func (f *fixture) createNode(t *testing.T, ownerID, title, body string, tags []string) *knowledge.Node {
	t.Helper()
	node, err := f.nodes.CreateNode(context.Background(), ownerID, CreateNodeInput{
		Title: title,
		Body:  body,
		Type:  "note",
		Tags:  tags,
	})
	require.NoError(t, err)
	return node
}

func (f *fixture) connect(t *testing.T, ownerID string, source, target *knowledge.Node, strength float64) *knowledge.Connection {
	t.Helper()
	conn, err := f.connections.CreateConnection(context.Background(), ownerID, CreateConnectionInput{
		SourceID: source.ID().String(),
		TargetID: target.ID().String(),
		Type:     "related",
		Strength: strength,
	})
	require.NoError(t, err)
	return conn
}
