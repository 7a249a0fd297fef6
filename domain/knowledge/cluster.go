package knowledge

import (
	"strings"
	"time"

	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

// Cluster is a named grouping of nodes with a coherence score computed
// at creation time. The score is a point-in-time snapshot: later graph
// changes do not update it.
type Cluster struct {
	id             valueobjects.ClusterID
	ownerID        string
	name           string
	description    string
	memberIDs      []valueobjects.NodeID
	centerID       valueobjects.NodeID
	coherenceScore float64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewCluster creates a cluster after validating the member set and the
// center. The coherence score is computed by the caller from the
// induced subgraph (see CoherenceScore) and passed in.
func NewCluster(ownerID, name, description string, memberIDs []valueobjects.NodeID, centerID valueobjects.NodeID, coherenceScore float64) (*Cluster, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("cluster name cannot be empty")
	}
	if len(memberIDs) == 0 {
		return nil, pkgerrors.NewValidationError("cluster must have at least one member")
	}
	if centerID.IsZero() {
		return nil, pkgerrors.NewValidationError("cluster must have a center node")
	}
	if !containsNodeID(memberIDs, centerID) {
		return nil, pkgerrors.NewValidationError("center node must be a cluster member")
	}

	now := time.Now().UTC()
	return &Cluster{
		id:             valueobjects.NewClusterID(),
		ownerID:        ownerID,
		name:           name,
		description:    description,
		memberIDs:      dedupeNodeIDs(memberIDs),
		centerID:       centerID,
		coherenceScore: coherenceScore,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructCluster rebuilds a cluster from repository data
func ReconstructCluster(
	id valueobjects.ClusterID,
	ownerID, name, description string,
	memberIDs []valueobjects.NodeID,
	centerID valueobjects.NodeID,
	coherenceScore float64,
	createdAt, updatedAt time.Time,
) (*Cluster, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if memberIDs == nil {
		memberIDs = []valueobjects.NodeID{}
	}
	return &Cluster{
		id:             id,
		ownerID:        ownerID,
		name:           name,
		description:    description,
		memberIDs:      memberIDs,
		centerID:       centerID,
		coherenceScore: coherenceScore,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// ID returns the cluster's unique identifier
func (c *Cluster) ID() valueobjects.ClusterID { return c.id }

// OwnerID returns the owner's ID
func (c *Cluster) OwnerID() string { return c.ownerID }

// Name returns the cluster name
func (c *Cluster) Name() string { return c.name }

// Description returns the optional description
func (c *Cluster) Description() string { return c.description }

// CenterID returns the designated center node
func (c *Cluster) CenterID() valueobjects.NodeID { return c.centerID }

// CoherenceScore returns the score computed at creation time
func (c *Cluster) CoherenceScore() float64 { return c.coherenceScore }

// CreatedAt returns when the cluster was created
func (c *Cluster) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the cluster was last updated
func (c *Cluster) UpdatedAt() time.Time { return c.updatedAt }

// Members returns a copy of the member node IDs
func (c *Cluster) Members() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(c.memberIDs))
	copy(out, c.memberIDs)
	return out
}

// HasMember reports whether the given node is part of the cluster
func (c *Cluster) HasMember(nodeID valueobjects.NodeID) bool {
	return containsNodeID(c.memberIDs, nodeID)
}

// RemoveMember drops a node from the membership list. Used by the node
// delete cascade; clusters survive even when emptied and the coherence
// score is left stale.
func (c *Cluster) RemoveMember(nodeID valueobjects.NodeID) bool {
	kept := c.memberIDs[:0]
	removed := false
	for _, id := range c.memberIDs {
		if id.Equals(nodeID) {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	c.memberIDs = kept
	if removed {
		c.updatedAt = time.Now().UTC()
	}
	return removed
}

// CoherenceScore measures how densely and strongly a member set is
// interconnected: 0.6 x mean strength of internal edges plus 0.4 x
// edge density over all member pairs. Returns 0 when no internal edge
// exists or fewer than two members are given.
func CoherenceScore(memberIDs []valueobjects.NodeID, connections []*Connection) float64 {
	if len(memberIDs) < 2 {
		return 0
	}

	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id.String()] = true
	}

	var internal int
	var totalStrength float64
	for _, conn := range connections {
		if members[conn.SourceID().String()] && members[conn.TargetID().String()] {
			internal++
			totalStrength += conn.Strength()
		}
	}
	if internal == 0 {
		return 0
	}

	n := len(members)
	possiblePairs := float64(n*(n-1)) / 2
	meanStrength := totalStrength / float64(internal)
	density := float64(internal) / possiblePairs

	return 0.6*meanStrength + 0.4*density
}

func containsNodeID(ids []valueobjects.NodeID, id valueobjects.NodeID) bool {
	for _, existing := range ids {
		if existing.Equals(id) {
			return true
		}
	}
	return false
}

func dedupeNodeIDs(ids []valueobjects.NodeID) []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		out = append(out, id)
	}
	return out
}
