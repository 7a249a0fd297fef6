package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

func validAttrs() NodeAttributes {
	return NodeAttributes{
		Title: "Deep Work",
		Body:  "Cal Newport on focus and depth",
		Type:  TypeBook,
		Tags:  []string{"focus", "productivity"},
	}
}

func TestNewNode(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		mutate  func(*NodeAttributes)
		wantErr bool
	}{
		{
			name:    "valid node",
			ownerID: "user-123",
		},
		{
			name:    "empty owner",
			ownerID: "",
			wantErr: true,
		},
		{
			name:    "blank title",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.Title = "   " },
			wantErr: true,
		},
		{
			name:    "blank body",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.Body = "" },
			wantErr: true,
		},
		{
			name:    "unknown type",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.Type = "tweet" },
			wantErr: true,
		},
		{
			name:    "malformed url",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.URL = "not a url" },
			wantErr: true,
		},
		{
			name:    "valid url accepted",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.URL = "https://calnewport.com/books" },
		},
		{
			name:    "importance above range",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.Importance = 11 },
			wantErr: true,
		},
		{
			name:    "importance below range",
			ownerID: "user-123",
			mutate:  func(a *NodeAttributes) { a.Importance = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := validAttrs()
			if tt.mutate != nil {
				tt.mutate(&attrs)
			}

			node, err := NewNode(tt.ownerID, attrs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}

			require.NoError(t, err)
			assert.False(t, node.ID().IsZero())
			assert.Equal(t, tt.ownerID, node.OwnerID())
			assert.Zero(t, node.AccessCount())
			assert.Empty(t, node.Neighbors())
		})
	}
}

func TestNewNode_Defaults(t *testing.T) {
	node, err := NewNode("user-123", validAttrs())
	require.NoError(t, err)

	assert.Equal(t, DefaultImportance, node.Importance())
	assert.False(t, node.CreatedAt().IsZero())
	assert.Equal(t, node.CreatedAt(), node.UpdatedAt())

	events := node.GetUncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "node.created", events[0].GetEventType())
}

func TestNewNode_DeduplicatesTags(t *testing.T) {
	attrs := validAttrs()
	attrs.Tags = []string{"focus", "Focus", " focus ", "", "psychology"}

	node, err := NewNode("user-123", attrs)
	require.NoError(t, err)
	assert.Equal(t, []string{"focus", "psychology"}, node.Tags())
}

func TestNode_ApplyPatch(t *testing.T) {
	newBody := "updated body about attention residue"
	newTitle := "Deep Work (2nd read)"
	badImportance := 42
	sameTags := []string{"Productivity", "FOCUS"}
	newTags := []string{"focus", "attention"}

	tests := []struct {
		name           string
		patch          NodePatch
		wantContent    bool
		wantErr        bool
	}{
		{
			name:        "body change is a content change",
			patch:       NodePatch{Body: &newBody},
			wantContent: true,
		},
		{
			name:        "title change is not a content change",
			patch:       NodePatch{Title: &newTitle},
			wantContent: false,
		},
		{
			name:        "tag set change is a content change",
			patch:       NodePatch{Tags: &newTags},
			wantContent: true,
		},
		{
			name:        "case-insensitive same tags is not a content change",
			patch:       NodePatch{Tags: &sameTags},
			wantContent: false,
		},
		{
			name:    "invalid importance rejected before any mutation",
			patch:   NodePatch{Title: &newTitle, Importance: &badImportance},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewNode("user-123", validAttrs())
			require.NoError(t, err)
			node.MarkEventsAsCommitted()
			originalTitle := node.Title()

			changed, err := node.ApplyPatch(tt.patch)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, originalTitle, node.Title())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, changed)
			if tt.wantContent {
				require.Len(t, node.GetUncommittedEvents(), 1)
				assert.Equal(t, "node.content_updated", node.GetUncommittedEvents()[0].GetEventType())
			} else {
				assert.Empty(t, node.GetUncommittedEvents())
			}
		})
	}
}

func TestNode_RecordAccess(t *testing.T) {
	node, err := NewNode("user-123", validAttrs())
	require.NoError(t, err)

	before := node.LastAccessedAt()
	time.Sleep(time.Millisecond)

	node.RecordAccess()
	node.RecordAccess()

	assert.Equal(t, 2, node.AccessCount())
	assert.True(t, node.LastAccessedAt().After(before))
}

func TestNode_NeighborCache(t *testing.T) {
	node, err := NewNode("user-123", validAttrs())
	require.NoError(t, err)

	a := valueobjects.NewNodeID()
	b := valueobjects.NewNodeID()

	node.AddNeighbor(a)
	node.AddNeighbor(b)
	node.AddNeighbor(a) // idempotent
	assert.Len(t, node.Neighbors(), 2)

	node.RemoveNeighbor(a)
	require.Len(t, node.Neighbors(), 1)
	assert.True(t, node.Neighbors()[0].Equals(b))

	node.SetNeighbors([]valueobjects.NodeID{a})
	require.Len(t, node.Neighbors(), 1)
	assert.True(t, node.Neighbors()[0].Equals(a))
}
