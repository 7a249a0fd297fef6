package events

import (
	"time"

	"synapse-backend/domain/knowledge/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// Node events

// NodeCreated is raised when a new knowledge node is created. The
// auto-link worker consumes it to scan for similar sibling nodes.
type NodeCreated struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OwnerID string              `json:"owner_id"`
	Title   string              `json:"title"`
	Tags    []string            `json:"tags"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID valueobjects.NodeID, ownerID, title string, tags []string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.created",
			Timestamp:   timestamp,
		},
		NodeID:  nodeID,
		OwnerID: ownerID,
		Title:   title,
		Tags:    tags,
	}
}

// NodeContentUpdated is raised when a node's body or tags change.
// Pure metadata updates (title, category, importance) do not raise it,
// so the auto-link scan only runs when similarity inputs changed.
type NodeContentUpdated struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OwnerID string              `json:"owner_id"`
}

// NewNodeContentUpdated creates a NodeContentUpdated event
func NewNodeContentUpdated(nodeID valueobjects.NodeID, ownerID string, timestamp time.Time) NodeContentUpdated {
	return NodeContentUpdated{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.content_updated",
			Timestamp:   timestamp,
		},
		NodeID:  nodeID,
		OwnerID: ownerID,
	}
}

// NodeDeleted is raised after a node and its incident connections are removed
type NodeDeleted struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OwnerID string              `json:"owner_id"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID valueobjects.NodeID, ownerID string, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "node.deleted",
			Timestamp:   timestamp,
		},
		NodeID:  nodeID,
		OwnerID: ownerID,
	}
}

// Connection events

// NodesConnected is raised when a connection between two nodes is created
type NodesConnected struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
	SourceID     valueobjects.NodeID       `json:"source_id"`
	TargetID     valueobjects.NodeID       `json:"target_id"`
	OwnerID      string                    `json:"owner_id"`
	Type         string                    `json:"type"`
	Strength     float64                   `json:"strength"`
}

// NewNodesConnected creates a NodesConnected event
func NewNodesConnected(connectionID valueobjects.ConnectionID, sourceID, targetID valueobjects.NodeID, ownerID, connType string, strength float64, timestamp time.Time) NodesConnected {
	return NodesConnected{
		BaseEvent: BaseEvent{
			AggregateID: connectionID.String(),
			EventType:   "nodes.connected",
			Timestamp:   timestamp,
		},
		ConnectionID: connectionID,
		SourceID:     sourceID,
		TargetID:     targetID,
		OwnerID:      ownerID,
		Type:         connType,
		Strength:     strength,
	}
}

// NodesDisconnected is raised when a connection is deleted
type NodesDisconnected struct {
	BaseEvent
	ConnectionID valueobjects.ConnectionID `json:"connection_id"`
	SourceID     valueobjects.NodeID       `json:"source_id"`
	TargetID     valueobjects.NodeID       `json:"target_id"`
	OwnerID      string                    `json:"owner_id"`
}

// NewNodesDisconnected creates a NodesDisconnected event
func NewNodesDisconnected(connectionID valueobjects.ConnectionID, sourceID, targetID valueobjects.NodeID, ownerID string, timestamp time.Time) NodesDisconnected {
	return NodesDisconnected{
		BaseEvent: BaseEvent{
			AggregateID: connectionID.String(),
			EventType:   "nodes.disconnected",
			Timestamp:   timestamp,
		},
		ConnectionID: connectionID,
		SourceID:     sourceID,
		TargetID:     targetID,
		OwnerID:      ownerID,
	}
}
