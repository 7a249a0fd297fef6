package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/domain/knowledge"
	pkgerrors "synapse-backend/pkg/errors"
)

// chainFixture builds a -- b -- c -- d plus an isolated node
func chainFixture(t *testing.T) (*fixture, []*knowledge.Node) {
	f := newFixture()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	c := f.createNode(t, owner, "C", "gamma body content", nil)
	d := f.createNode(t, owner, "D", "delta body content", nil)
	isolated := f.createNode(t, owner, "E", "epsilon body content", nil)

	f.connect(t, owner, a, b, 0.9)
	f.connect(t, owner, b, c, 0.6)
	f.connect(t, owner, c, d, 0.3)

	return f, []*knowledge.Node{a, b, c, d, isolated}
}

func TestGraphService_GetKnowledgeGraph(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		depth     int
		wantNodes int
		wantEdges int
	}{
		{"depth 0 returns only the center", 0, 1, 0},
		{"depth 1 reaches direct neighbors", 1, 2, 1},
		{"depth 2 reaches two hops", 2, 3, 2},
		{"depth beyond the chain collects the component", 10, 4, 3},
		{"negative depth falls back to the default", -1, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, nodes := chainFixture(t)
			graph, err := f.graph.GetKnowledgeGraph(ctx, owner, nodes[0].ID().String(), tt.depth)
			require.NoError(t, err)
			assert.Len(t, graph.Nodes, tt.wantNodes)
			assert.Len(t, graph.Edges, tt.wantEdges)
		})
	}

	t.Run("edges leaving the visited set are excluded", func(t *testing.T) {
		f, nodes := chainFixture(t)
		graph, err := f.graph.GetKnowledgeGraph(ctx, owner, nodes[0].ID().String(), 1)
		require.NoError(t, err)

		// b was visited at the depth bound, so b--c must not appear
		require.Len(t, graph.Edges, 1)
		assert.True(t, graph.Edges[0].Touches(nodes[0].ID()))
	})

	t.Run("empty center returns the whole graph", func(t *testing.T) {
		f, _ := chainFixture(t)
		graph, err := f.graph.GetKnowledgeGraph(ctx, owner, "", 1)
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 5, "isolated nodes included")
		assert.Len(t, graph.Edges, 3)
	})

	t.Run("center of another owner is denied", func(t *testing.T) {
		f, nodes := chainFixture(t)
		_, err := f.graph.GetKnowledgeGraph(ctx, stranger, nodes[0].ID().String(), 1)
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	t.Run("unknown center is not found", func(t *testing.T) {
		f, _ := chainFixture(t)
		_, err := f.graph.GetKnowledgeGraph(ctx, owner, "11111111-2222-3333-4444-555555555555", 1)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("cycles terminate", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)
		b := f.createNode(t, owner, "B", "beta body content", nil)
		c := f.createNode(t, owner, "C", "gamma body content", nil)
		f.connect(t, owner, a, b, 0.5)
		f.connect(t, owner, b, c, 0.5)
		f.connect(t, owner, c, a, 0.5)

		graph, err := f.graph.GetKnowledgeGraph(ctx, owner, a.ID().String(), 10)
		require.NoError(t, err)
		assert.Len(t, graph.Nodes, 3)
		assert.Len(t, graph.Edges, 3)
	})
}

func TestGraphService_GetRelatedNodes(t *testing.T) {
	ctx := context.Background()
	f, nodes := chainFixture(t)
	b := nodes[1]

	t.Run("neighbors ordered by strength", func(t *testing.T) {
		related, err := f.graph.GetRelatedNodes(ctx, owner, b.ID().String(), 0)
		require.NoError(t, err)
		require.Len(t, related, 2)
		assert.Equal(t, "A", related[0].Node.Title())
		assert.InDelta(t, 0.9, related[0].Connection.Strength(), 1e-9)
		assert.Equal(t, "C", related[1].Node.Title())
	})

	t.Run("limit caps neighbors", func(t *testing.T) {
		related, err := f.graph.GetRelatedNodes(ctx, owner, b.ID().String(), 1)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "A", related[0].Node.Title())
	})

	t.Run("isolated node has none", func(t *testing.T) {
		related, err := f.graph.GetRelatedNodes(ctx, owner, nodes[4].ID().String(), 0)
		require.NoError(t, err)
		assert.Empty(t, related)
	})
}
