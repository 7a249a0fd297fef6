package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/domain/knowledge/valueobjects"
	"synapse-backend/pkg/common"
	pkgerrors "synapse-backend/pkg/errors"
)

const (
	owner    = "user-123"
	stranger = "user-456"
)

func TestNodeService_CreateNode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("valid input persists with defaults", func(t *testing.T) {
		node, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "Deep Work",
			Body:  "Cal Newport on focus and depth",
			Type:  "book",
			Tags:  []string{"focus"},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, node.Importance())
		assert.Zero(t, node.AccessCount())

		stored, err := f.nodeRepo.FindByID(ctx, owner, node.ID())
		require.NoError(t, err)
		assert.Equal(t, "Deep Work", stored.Title())
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		_, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
			Title: "x", Body: "y", Type: "tweet",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("node created event published", func(t *testing.T) {
		before := len(f.publisher.Events())
		f.createNode(t, owner, "Event check", "some body text", nil)

		evts := f.publisher.Events()
		require.Greater(t, len(evts), before)
		assert.Equal(t, "node.created", evts[len(evts)-1].GetEventType())
	})
}

func TestNodeService_GetNode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	node := f.createNode(t, owner, "Deep Work", "focus and depth matter", nil)

	t.Run("read bumps access count", func(t *testing.T) {
		got, err := f.nodes.GetNode(ctx, owner, node.ID().String())
		require.NoError(t, err)
		assert.Equal(t, 1, got.AccessCount())

		got, err = f.nodes.GetNode(ctx, owner, node.ID().String())
		require.NoError(t, err)
		assert.Equal(t, 2, got.AccessCount())
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := f.nodes.GetNode(ctx, owner, "11111111-2222-3333-4444-555555555555")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("other owner is denied", func(t *testing.T) {
		_, err := f.nodes.GetNode(ctx, stranger, node.ID().String())
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	t.Run("malformed id is a validation error", func(t *testing.T) {
		_, err := f.nodes.GetNode(ctx, owner, "not-a-uuid")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestNodeService_ListNodes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.nodes.CreateNode(ctx, owner, CreateNodeInput{
		Title: "Deep Work", Body: "Cal Newport on focus", Type: "book",
		Category: "productivity", Tags: []string{"focus"}, Importance: 8,
	})
	require.NoError(t, err)
	_, err = f.nodes.CreateNode(ctx, owner, CreateNodeInput{
		Title: "Grocery list", Body: "eggs and bread", Type: "note", Importance: 1,
	})
	require.NoError(t, err)
	f.createNode(t, stranger, "Not mine", "belongs to someone else", nil)

	page := common.PaginationParams{Page: 1, Limit: 20}

	tests := []struct {
		name      string
		query     ListNodesQuery
		wantCount int
	}{
		{"no filters returns all owned", ListNodesQuery{Pagination: page}, 2},
		{"type filter", ListNodesQuery{Types: []string{"book"}, Pagination: page}, 1},
		{"category filter", ListNodesQuery{Category: "productivity", Pagination: page}, 1},
		{"tag overlap filter", ListNodesQuery{Tags: []string{"focus", "unused"}, Pagination: page}, 1},
		{"substring filter on body", ListNodesQuery{Search: "newport", Pagination: page}, 1},
		{"minimum importance", ListNodesQuery{MinImportance: 5, Pagination: page}, 1},
		{"no match", ListNodesQuery{Search: "quantum", Pagination: page}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, total, err := f.nodes.ListNodes(ctx, owner, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, total)
			assert.Len(t, nodes, tt.wantCount)
		})
	}

	t.Run("pagination slices the result", func(t *testing.T) {
		nodes, total, err := f.nodes.ListNodes(ctx, owner, ListNodesQuery{
			Pagination: common.PaginationParams{Page: 2, Limit: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, nodes, 1)
		// newest first, so page 2 holds the earlier node
		assert.Equal(t, a.ID().String(), nodes[0].ID().String())
	})
}

func TestNodeService_UpdateNode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	node := f.createNode(t, owner, "Deep Work", "original body text", []string{"focus"})

	t.Run("patch applied and persisted", func(t *testing.T) {
		title := "Deep Work, revisited"
		got, err := f.nodes.UpdateNode(ctx, owner, node.ID().String(), UpdateNodeInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, got.Title())
	})

	t.Run("other owner is denied", func(t *testing.T) {
		title := "hijacked"
		_, err := f.nodes.UpdateNode(ctx, stranger, node.ID().String(), UpdateNodeInput{Title: &title})
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	t.Run("invalid patch rejected", func(t *testing.T) {
		importance := 99
		_, err := f.nodes.UpdateNode(ctx, owner, node.ID().String(), UpdateNodeInput{Importance: &importance})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("body change publishes content updated", func(t *testing.T) {
		body := "rewritten body about attention"
		_, err := f.nodes.UpdateNode(ctx, owner, node.ID().String(), UpdateNodeInput{Body: &body})
		require.NoError(t, err)

		evts := f.publisher.Events()
		require.NotEmpty(t, evts)
		assert.Equal(t, "node.content_updated", evts[len(evts)-1].GetEventType())
	})
}

func TestNodeService_DeleteNode_Cascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	c := f.createNode(t, owner, "C", "gamma body content", nil)
	f.connect(t, owner, a, b, 0.5)
	f.connect(t, owner, a, c, 0.7)

	cluster, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
		Name:      "everything",
		MemberIDs: []string{a.ID().String(), b.ID().String(), c.ID().String()},
		CenterID:  a.ID().String(),
	})
	require.NoError(t, err)

	require.NoError(t, f.nodes.DeleteNode(ctx, owner, a.ID().String()))

	t.Run("node gone", func(t *testing.T) {
		_, err := f.nodes.GetNode(ctx, owner, a.ID().String())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("incident edges gone", func(t *testing.T) {
		conns, err := f.connRepo.FindAllByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, conns)
	})

	t.Run("neighbor caches repaired", func(t *testing.T) {
		got, err := f.nodeRepo.FindByID(ctx, owner, b.ID())
		require.NoError(t, err)
		assert.Empty(t, got.Neighbors())
	})

	t.Run("cluster membership dropped but cluster survives", func(t *testing.T) {
		got, err := f.clusters.GetCluster(ctx, owner, cluster.ID().String())
		require.NoError(t, err)
		assert.Len(t, got.Members(), 2)
		assert.False(t, got.HasMember(a.ID()))
	})
}

func TestNodeService_RebuildNeighbors(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	c := f.createNode(t, owner, "C", "gamma body content", nil)
	f.connect(t, owner, a, b, 0.8)
	f.connect(t, owner, a, c, 0.5)

	t.Run("re-derives the cache from the edge table", func(t *testing.T) {
		// simulate a lost cache write
		a.SetNeighbors(nil)
		require.NoError(t, f.nodeRepo.Save(ctx, a))

		rebuilt, err := f.nodes.RebuildNeighbors(ctx, owner, a.ID().String())
		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]valueobjects.NodeID{b.ID(), c.ID()},
			rebuilt.Neighbors())
	})

	t.Run("drops entries with no backing edge", func(t *testing.T) {
		b.AddNeighbor(c.ID())
		require.NoError(t, f.nodeRepo.Save(ctx, b))

		rebuilt, err := f.nodes.RebuildNeighbors(ctx, owner, b.ID().String())
		require.NoError(t, err)
		assert.ElementsMatch(t, []valueobjects.NodeID{a.ID()}, rebuilt.Neighbors())
	})

	t.Run("node of another owner is denied", func(t *testing.T) {
		_, err := f.nodes.RebuildNeighbors(ctx, stranger, a.ID().String())
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})
}
