// Package memory provides map-backed repository implementations used
// by tests and local development. Semantics mirror the DynamoDB
// implementations: last-write-wins saves, NotFound for absent ids,
// PermissionDenied for ids owned by someone else.
package memory

import (
	"context"
	"sync"

	"synapse-backend/domain/events"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

// NodeRepository is an in-memory node store
type NodeRepository struct {
	mu    sync.RWMutex
	nodes map[string]*knowledge.Node
}

// NewNodeRepository creates an empty in-memory node store
func NewNodeRepository() *NodeRepository {
	return &NodeRepository{nodes: make(map[string]*knowledge.Node)}
}

func (r *NodeRepository) Save(_ context.Context, node *knowledge.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.ID().String()] = node
	return nil
}

func (r *NodeRepository) FindByID(_ context.Context, requesterID string, id valueobjects.NodeID) (*knowledge.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	if node.OwnerID() != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("node")
	}
	return node, nil
}

func (r *NodeRepository) FindAllByOwner(_ context.Context, ownerID string) ([]*knowledge.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*knowledge.Node, 0)
	for _, node := range r.nodes {
		if node.OwnerID() == ownerID {
			out = append(out, node)
		}
	}
	return out, nil
}

func (r *NodeRepository) Delete(_ context.Context, requesterID string, id valueobjects.NodeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	if node.OwnerID() != requesterID {
		return pkgerrors.NewPermissionDeniedError("node")
	}
	delete(r.nodes, id.String())
	return nil
}

// ConnectionRepository is an in-memory edge store
type ConnectionRepository struct {
	mu    sync.RWMutex
	conns map[string]*knowledge.Connection
}

// NewConnectionRepository creates an empty in-memory edge store
func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{conns: make(map[string]*knowledge.Connection)}
}

func (r *ConnectionRepository) Save(_ context.Context, conn *knowledge.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID().String()] = conn
	return nil
}

func (r *ConnectionRepository) FindByID(_ context.Context, requesterID string, id valueobjects.ConnectionID) (*knowledge.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	if conn.OwnerID() != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("connection")
	}
	return conn, nil
}

func (r *ConnectionRepository) FindByNode(_ context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*knowledge.Connection, 0)
	for _, conn := range r.conns {
		if conn.OwnerID() == ownerID && conn.Touches(nodeID) {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) FindAllByOwner(_ context.Context, ownerID string) ([]*knowledge.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*knowledge.Connection, 0)
	for _, conn := range r.conns {
		if conn.OwnerID() == ownerID {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) Delete(_ context.Context, requesterID string, id valueobjects.ConnectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("connection")
	}
	if conn.OwnerID() != requesterID {
		return pkgerrors.NewPermissionDeniedError("connection")
	}
	delete(r.conns, id.String())
	return nil
}

func (r *ConnectionRepository) DeleteByNode(_ context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]*knowledge.Connection, 0)
	for key, conn := range r.conns {
		if conn.OwnerID() == ownerID && conn.Touches(nodeID) {
			removed = append(removed, conn)
			delete(r.conns, key)
		}
	}
	return removed, nil
}

// ClusterRepository is an in-memory cluster store
type ClusterRepository struct {
	mu       sync.RWMutex
	clusters map[string]*knowledge.Cluster
}

// NewClusterRepository creates an empty in-memory cluster store
func NewClusterRepository() *ClusterRepository {
	return &ClusterRepository{clusters: make(map[string]*knowledge.Cluster)}
}

func (r *ClusterRepository) Save(_ context.Context, cluster *knowledge.Cluster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clusters[cluster.ID().String()] = cluster
	return nil
}

func (r *ClusterRepository) FindByID(_ context.Context, requesterID string, id valueobjects.ClusterID) (*knowledge.Cluster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cluster, ok := r.clusters[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("cluster")
	}
	if cluster.OwnerID() != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("cluster")
	}
	return cluster, nil
}

func (r *ClusterRepository) FindAllByOwner(_ context.Context, ownerID string) ([]*knowledge.Cluster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*knowledge.Cluster, 0)
	for _, cluster := range r.clusters {
		if cluster.OwnerID() == ownerID {
			out = append(out, cluster)
		}
	}
	return out, nil
}

func (r *ClusterRepository) Delete(_ context.Context, requesterID string, id valueobjects.ClusterID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cluster, ok := r.clusters[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("cluster")
	}
	if cluster.OwnerID() != requesterID {
		return pkgerrors.NewPermissionDeniedError("cluster")
	}
	delete(r.clusters, id.String())
	return nil
}

// EventPublisher collects published events for inspection in tests
type EventPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

// NewEventPublisher creates an in-memory event collector
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Publish records the events
func (p *EventPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

// Events returns a copy of everything published so far
func (p *EventPublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}
