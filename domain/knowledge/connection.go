package knowledge

import (
	"fmt"
	"strings"
	"time"

	"synapse-backend/domain/events"
	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

// ConnectionType captures the semantic relation between two nodes
type ConnectionType string

const (
	ConnectionRelated     ConnectionType = "related"
	ConnectionSupports    ConnectionType = "supports"
	ConnectionContradicts ConnectionType = "contradicts"
	ConnectionExampleOf   ConnectionType = "example_of"
	ConnectionBuildsOn    ConnectionType = "builds_on"
)

var validConnectionTypes = map[ConnectionType]bool{
	ConnectionRelated:     true,
	ConnectionSupports:    true,
	ConnectionContradicts: true,
	ConnectionExampleOf:   true,
	ConnectionBuildsOn:    true,
}

// ParseConnectionType validates and converts a string to a ConnectionType
func ParseConnectionType(s string) (ConnectionType, error) {
	t := ConnectionType(strings.ToLower(strings.TrimSpace(s)))
	if !validConnectionTypes[t] {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("invalid connection type: %q", s))
	}
	return t, nil
}

// Connection is a weighted, typed edge between two nodes of the same
// owner. Storage is directed (source/target) but the relation is
// treated as undirected by traversal and clustering.
type Connection struct {
	id          valueobjects.ConnectionID
	ownerID     string
	sourceID    valueobjects.NodeID
	targetID    valueobjects.NodeID
	connType    ConnectionType
	strength    float64
	description string
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// ConnectionPatch describes a partial update; nil fields are untouched
type ConnectionPatch struct {
	Type        *ConnectionType
	Strength    *float64
	Description *string
}

// NewConnection creates an edge between two nodes, rejecting self-loops
// and clamping strength into [0,1]
func NewConnection(ownerID string, sourceID, targetID valueobjects.NodeID, connType ConnectionType, strength float64, description string) (*Connection, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("both endpoints are required")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("cannot connect a node to itself")
	}
	if !validConnectionTypes[connType] {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid connection type: %q", connType))
	}

	now := time.Now().UTC()
	conn := &Connection{
		id:          valueobjects.NewConnectionID(),
		ownerID:     ownerID,
		sourceID:    sourceID,
		targetID:    targetID,
		connType:    connType,
		strength:    clampStrength(strength),
		description: description,
		createdAt:   now,
		updatedAt:   now,
		events:      []events.DomainEvent{},
	}

	conn.addEvent(events.NewNodesConnected(conn.id, sourceID, targetID, ownerID, string(connType), conn.strength, now))

	return conn, nil
}

// ReconstructConnection rebuilds a connection from repository data
func ReconstructConnection(
	id valueobjects.ConnectionID,
	ownerID string,
	sourceID, targetID valueobjects.NodeID,
	connType ConnectionType,
	strength float64,
	description string,
	createdAt, updatedAt time.Time,
) (*Connection, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	return &Connection{
		id:          id,
		ownerID:     ownerID,
		sourceID:    sourceID,
		targetID:    targetID,
		connType:    connType,
		strength:    clampStrength(strength),
		description: description,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		events:      []events.DomainEvent{},
	}, nil
}

// ID returns the connection's unique identifier
func (c *Connection) ID() valueobjects.ConnectionID { return c.id }

// OwnerID returns the owner's ID
func (c *Connection) OwnerID() string { return c.ownerID }

// SourceID returns the stored source endpoint
func (c *Connection) SourceID() valueobjects.NodeID { return c.sourceID }

// TargetID returns the stored target endpoint
func (c *Connection) TargetID() valueobjects.NodeID { return c.targetID }

// Type returns the semantic relation type
func (c *Connection) Type() ConnectionType { return c.connType }

// Strength returns the edge weight in [0,1]
func (c *Connection) Strength() float64 { return c.strength }

// Description returns the free-form description. Auto-generated edges
// carry a description flagging their origin and score.
func (c *Connection) Description() string { return c.description }

// CreatedAt returns when the connection was created
func (c *Connection) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the connection was last updated
func (c *Connection) UpdatedAt() time.Time { return c.updatedAt }

// Touches reports whether the given node is either endpoint
func (c *Connection) Touches(nodeID valueobjects.NodeID) bool {
	return c.sourceID.Equals(nodeID) || c.targetID.Equals(nodeID)
}

// OtherEnd returns the endpoint opposite to the given node. The second
// return is false when the node is not an endpoint at all.
func (c *Connection) OtherEnd(nodeID valueobjects.NodeID) (valueobjects.NodeID, bool) {
	switch {
	case c.sourceID.Equals(nodeID):
		return c.targetID, true
	case c.targetID.Equals(nodeID):
		return c.sourceID, true
	default:
		return valueobjects.NodeID{}, false
	}
}

// ApplyPatch applies a partial update, re-clamping strength if changed
func (c *Connection) ApplyPatch(patch ConnectionPatch) error {
	if patch.Type != nil && !validConnectionTypes[*patch.Type] {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid connection type: %q", *patch.Type))
	}

	if patch.Type != nil {
		c.connType = *patch.Type
	}
	if patch.Strength != nil {
		c.strength = clampStrength(*patch.Strength)
	}
	if patch.Description != nil {
		c.description = *patch.Description
	}

	c.updatedAt = time.Now().UTC()
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Connection) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Connection) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Connection) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}

// clampStrength forces a weight into [0,1]
func clampStrength(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
