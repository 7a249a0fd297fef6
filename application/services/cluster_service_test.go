package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "synapse-backend/pkg/errors"
)

func TestClusterService_CreateCluster(t *testing.T) {
	ctx := context.Background()

	t.Run("coherence of a fully connected triangle", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)
		b := f.createNode(t, owner, "B", "beta body content", nil)
		c := f.createNode(t, owner, "C", "gamma body content", nil)
		f.connect(t, owner, a, b, 0.4)
		f.connect(t, owner, b, c, 0.6)
		f.connect(t, owner, a, c, 0.8)

		cluster, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
			Name:      "Focus research",
			MemberIDs: []string{a.ID().String(), b.ID().String(), c.ID().String()},
			CenterID:  a.ID().String(),
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.76, cluster.CoherenceScore(), 1e-9)
	})

	t.Run("unconnected members score zero", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)
		b := f.createNode(t, owner, "B", "beta body content", nil)

		cluster, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
			Name:      "Loose ends",
			MemberIDs: []string{a.ID().String(), b.ID().String()},
			CenterID:  a.ID().String(),
		})
		require.NoError(t, err)
		assert.Zero(t, cluster.CoherenceScore())
	})

	t.Run("member of another owner is denied", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)
		foreign := f.createNode(t, stranger, "X", "foreign body content", nil)

		_, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
			Name:      "Mixed",
			MemberIDs: []string{a.ID().String(), foreign.ID().String()},
			CenterID:  a.ID().String(),
		})
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	t.Run("center outside membership rejected", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)
		b := f.createNode(t, owner, "B", "beta body content", nil)
		outsider := f.createNode(t, owner, "Out", "outsider body content", nil)

		_, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
			Name:      "Broken",
			MemberIDs: []string{a.ID().String(), b.ID().String()},
			CenterID:  outsider.ID().String(),
		})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown member is not found before any write", func(t *testing.T) {
		f := newFixture()
		a := f.createNode(t, owner, "A", "alpha body content", nil)

		_, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
			Name:      "Ghost",
			MemberIDs: []string{a.ID().String(), "11111111-2222-3333-4444-555555555555"},
			CenterID:  a.ID().String(),
		})
		assert.True(t, pkgerrors.IsNotFound(err))

		clusters, listErr := f.clusters.ListClusters(ctx, owner)
		require.NoError(t, listErr)
		assert.Empty(t, clusters)
	})
}

func TestClusterService_ListAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	cluster, err := f.clusters.CreateCluster(ctx, owner, CreateClusterInput{
		Name:      "Solo",
		MemberIDs: []string{a.ID().String()},
		CenterID:  a.ID().String(),
	})
	require.NoError(t, err)

	clusters, err := f.clusters.ListClusters(ctx, owner)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	t.Run("other owner cannot delete", func(t *testing.T) {
		err := f.clusters.DeleteCluster(ctx, stranger, cluster.ID().String())
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	require.NoError(t, f.clusters.DeleteCluster(ctx, owner, cluster.ID().String()))

	clusters, err = f.clusters.ListClusters(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, clusters)

	t.Run("member node untouched by cluster delete", func(t *testing.T) {
		_, err := f.nodes.GetNode(ctx, owner, a.ID().String())
		assert.NoError(t, err)
	})
}
