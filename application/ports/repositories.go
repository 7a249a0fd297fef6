// Package ports defines the interfaces through which the application
// layer reaches infrastructure. Implementations live under
// infrastructure/; services depend only on these contracts.
package ports

import (
	"context"

	"synapse-backend/domain/events"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
)

// NodeRepository persists knowledge nodes, partitioned by owner
type NodeRepository interface {
	// Save creates or overwrites a node (last-write-wins)
	Save(ctx context.Context, node *knowledge.Node) error

	// FindByID fetches one node on behalf of a requester. Returns a
	// NotFound error when the id does not exist and a PermissionDenied
	// error when the node belongs to a different owner.
	FindByID(ctx context.Context, requesterID string, id valueobjects.NodeID) (*knowledge.Node, error)

	// FindAllByOwner fetches every node an owner has. Filtering and
	// ranking happen in the application layer; the candidate sets are
	// per-user and small enough to scan.
	FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Node, error)

	// Delete removes a node. Returns a NotFound error when absent.
	Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error
}

// ConnectionRepository persists edges between nodes
type ConnectionRepository interface {
	Save(ctx context.Context, conn *knowledge.Connection) error

	// FindByID follows the same NotFound/PermissionDenied contract as
	// NodeRepository.FindByID
	FindByID(ctx context.Context, requesterID string, id valueobjects.ConnectionID) (*knowledge.Connection, error)

	// FindByNode returns every edge where the node is either endpoint
	FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error)

	FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Connection, error)

	Delete(ctx context.Context, ownerID string, id valueobjects.ConnectionID) error

	// DeleteByNode removes every edge incident to the node and returns
	// the removed edges so callers can repair neighbor caches
	DeleteByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error)
}

// ClusterRepository persists node clusters
type ClusterRepository interface {
	Save(ctx context.Context, cluster *knowledge.Cluster) error

	FindByID(ctx context.Context, requesterID string, id valueobjects.ClusterID) (*knowledge.Cluster, error)

	FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Cluster, error)

	Delete(ctx context.Context, ownerID string, id valueobjects.ClusterID) error
}

// EventPublisher delivers domain events to interested consumers. The
// auto-link worker subscribes to node lifecycle events through it.
// Publishing is best-effort from the caller's perspective.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
