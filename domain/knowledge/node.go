package knowledge

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"synapse-backend/domain/events"
	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

// NodeType classifies the kind of knowledge a node captures
type NodeType string

const (
	TypeNote    NodeType = "note"
	TypeArticle NodeType = "article"
	TypeBook    NodeType = "book"
	TypeVideo   NodeType = "video"
	TypePodcast NodeType = "podcast"
	TypeIdea    NodeType = "idea"
	TypeQuote   NodeType = "quote"
)

var validNodeTypes = map[NodeType]bool{
	TypeNote:    true,
	TypeArticle: true,
	TypeBook:    true,
	TypeVideo:   true,
	TypePodcast: true,
	TypeIdea:    true,
	TypeQuote:   true,
}

// ParseNodeType validates and converts a string to a NodeType
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	if !validNodeTypes[t] {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("invalid node type: %q", s))
	}
	return t, nil
}

const (
	// DefaultImportance is assigned when a node is created without an
	// explicit importance score
	DefaultImportance = 5

	MinImportance = 1
	MaxImportance = 10
)

// NodeAttributes carries the caller-supplied content of a node
type NodeAttributes struct {
	Title      string
	Body       string
	Type       NodeType
	Source     string
	Author     string
	URL        string
	Category   string
	Tags       []string
	Importance int
}

// NodePatch describes a partial update; nil fields are left untouched
type NodePatch struct {
	Title      *string
	Body       *string
	Type       *NodeType
	Source     *string
	Author     *string
	URL        *string
	Category   *string
	Tags       *[]string
	Importance *int
}

// Node is the main entity representing a unit of captured knowledge.
// The edge set in the connection store is authoritative for the graph;
// the neighborIDs field is a derived cache maintained alongside it.
type Node struct {
	id             valueobjects.NodeID
	ownerID        string
	title          string
	body           string
	nodeType       NodeType
	source         string
	author         string
	url            string
	category       string
	tags           []string
	importance     int
	accessCount    int
	neighborIDs    []valueobjects.NodeID
	createdAt      time.Time
	updatedAt      time.Time
	lastAccessedAt time.Time

	// Domain events that occurred during this aggregate's lifetime
	events []events.DomainEvent
}

// NewNode creates a new node with full business rule validation
func NewNode(ownerID string, attrs NodeAttributes) (*Node, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if strings.TrimSpace(attrs.Title) == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}
	if strings.TrimSpace(attrs.Body) == "" {
		return nil, pkgerrors.NewValidationError("body cannot be empty")
	}
	if !validNodeTypes[attrs.Type] {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid node type: %q", attrs.Type))
	}
	if attrs.URL != "" {
		if err := validateURL(attrs.URL); err != nil {
			return nil, err
		}
	}

	importance := attrs.Importance
	if importance == 0 {
		importance = DefaultImportance
	}
	if importance < MinImportance || importance > MaxImportance {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("importance must be between %d and %d", MinImportance, MaxImportance))
	}

	now := time.Now().UTC()
	node := &Node{
		id:             valueobjects.NewNodeID(),
		ownerID:        ownerID,
		title:          attrs.Title,
		body:           attrs.Body,
		nodeType:       attrs.Type,
		source:         attrs.Source,
		author:         attrs.Author,
		url:            attrs.URL,
		category:       attrs.Category,
		tags:           normalizeTags(attrs.Tags),
		importance:     importance,
		accessCount:    0,
		neighborIDs:    []valueobjects.NodeID{},
		createdAt:      now,
		updatedAt:      now,
		lastAccessedAt: now,
		events:         []events.DomainEvent{},
	}

	node.addEvent(events.NewNodeCreated(node.id, ownerID, node.title, node.Tags(), now))

	return node, nil
}

// ReconstructNode rebuilds a node from repository data with preserved state
func ReconstructNode(
	id valueobjects.NodeID,
	ownerID string,
	attrs NodeAttributes,
	accessCount int,
	neighborIDs []valueobjects.NodeID,
	createdAt, updatedAt, lastAccessedAt time.Time,
) (*Node, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if neighborIDs == nil {
		neighborIDs = []valueobjects.NodeID{}
	}

	return &Node{
		id:             id,
		ownerID:        ownerID,
		title:          attrs.Title,
		body:           attrs.Body,
		nodeType:       attrs.Type,
		source:         attrs.Source,
		author:         attrs.Author,
		url:            attrs.URL,
		category:       attrs.Category,
		tags:           normalizeTags(attrs.Tags),
		importance:     attrs.Importance,
		accessCount:    accessCount,
		neighborIDs:    neighborIDs,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		lastAccessedAt: lastAccessedAt,
		events:         []events.DomainEvent{},
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID { return n.id }

// OwnerID returns the owner's ID
func (n *Node) OwnerID() string { return n.ownerID }

// Title returns the node's title
func (n *Node) Title() string { return n.title }

// Body returns the node's body text
func (n *Node) Body() string { return n.body }

// Type returns the node's type
func (n *Node) Type() NodeType { return n.nodeType }

// Source returns the optional source
func (n *Node) Source() string { return n.source }

// Author returns the optional author
func (n *Node) Author() string { return n.author }

// URL returns the optional URL
func (n *Node) URL() string { return n.url }

// Category returns the free-form category
func (n *Node) Category() string { return n.category }

// Importance returns the importance score
func (n *Node) Importance() int { return n.importance }

// AccessCount returns how many times the node has been read
func (n *Node) AccessCount() int { return n.accessCount }

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// LastAccessedAt returns when the node was last read
func (n *Node) LastAccessedAt() time.Time { return n.lastAccessedAt }

// Tags returns a copy of the node's tags
func (n *Node) Tags() []string {
	tags := make([]string, len(n.tags))
	copy(tags, n.tags)
	return tags
}

// HasTag reports whether the node carries the given tag (case-insensitive)
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Neighbors returns a copy of the cached neighbor node IDs. The cache
// is a lazily-correct index over the connection store, safe to rebuild.
func (n *Node) Neighbors() []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, len(n.neighborIDs))
	copy(ids, n.neighborIDs)
	return ids
}

// ApplyPatch applies a partial update with validation, bumping updatedAt.
// It reports whether the body or tags changed, which decides whether the
// auto-link scan must re-run.
func (n *Node) ApplyPatch(patch NodePatch) (contentChanged bool, err error) {
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return false, pkgerrors.NewValidationError("title cannot be empty")
		}
	}
	if patch.Body != nil {
		if strings.TrimSpace(*patch.Body) == "" {
			return false, pkgerrors.NewValidationError("body cannot be empty")
		}
	}
	if patch.Type != nil && !validNodeTypes[*patch.Type] {
		return false, pkgerrors.NewValidationError(fmt.Sprintf("invalid node type: %q", *patch.Type))
	}
	if patch.URL != nil && *patch.URL != "" {
		if err := validateURL(*patch.URL); err != nil {
			return false, err
		}
	}
	if patch.Importance != nil {
		if *patch.Importance < MinImportance || *patch.Importance > MaxImportance {
			return false, pkgerrors.NewValidationError(fmt.Sprintf("importance must be between %d and %d", MinImportance, MaxImportance))
		}
	}

	if patch.Title != nil {
		n.title = *patch.Title
	}
	if patch.Body != nil && *patch.Body != n.body {
		n.body = *patch.Body
		contentChanged = true
	}
	if patch.Type != nil {
		n.nodeType = *patch.Type
	}
	if patch.Source != nil {
		n.source = *patch.Source
	}
	if patch.Author != nil {
		n.author = *patch.Author
	}
	if patch.URL != nil {
		n.url = *patch.URL
	}
	if patch.Category != nil {
		n.category = *patch.Category
	}
	if patch.Tags != nil {
		newTags := normalizeTags(*patch.Tags)
		if !equalTagSets(n.tags, newTags) {
			n.tags = newTags
			contentChanged = true
		}
	}
	if patch.Importance != nil {
		n.importance = *patch.Importance
	}

	n.updatedAt = time.Now().UTC()

	if contentChanged {
		n.addEvent(events.NewNodeContentUpdated(n.id, n.ownerID, n.updatedAt))
	}

	return contentChanged, nil
}

// RecordAccess bumps the access counter and last-accessed timestamp.
// Called as a side effect of every direct read.
func (n *Node) RecordAccess() {
	n.accessCount++
	n.lastAccessedAt = time.Now().UTC()
}

// AddNeighbor appends a node ID to the cached neighbor list
func (n *Node) AddNeighbor(id valueobjects.NodeID) {
	for _, existing := range n.neighborIDs {
		if existing.Equals(id) {
			return
		}
	}
	n.neighborIDs = append(n.neighborIDs, id)
}

// RemoveNeighbor drops a node ID from the cached neighbor list
func (n *Node) RemoveNeighbor(id valueobjects.NodeID) {
	kept := n.neighborIDs[:0]
	for _, existing := range n.neighborIDs {
		if !existing.Equals(id) {
			kept = append(kept, existing)
		}
	}
	n.neighborIDs = kept
}

// SetNeighbors replaces the cached neighbor list wholesale, used when
// rebuilding the cache from the authoritative edge set
func (n *Node) SetNeighbors(ids []valueobjects.NodeID) {
	n.neighborIDs = make([]valueobjects.NodeID, len(ids))
	copy(n.neighborIDs, ids)
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

func (n *Node) addEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

// validateURL checks the URL is syntactically valid with a scheme and host
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid url: %q", raw))
	}
	return nil
}

// normalizeTags trims, drops empties, and dedupes preserving order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

func equalTagSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[strings.ToLower(t)] = true
	}
	for _, t := range b {
		if !set[strings.ToLower(t)] {
			return false
		}
	}
	return true
}
