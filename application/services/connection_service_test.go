package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "synapse-backend/pkg/errors"
)

func TestConnectionService_CreateConnection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	foreign := f.createNode(t, stranger, "X", "foreign body content", nil)

	t.Run("links two owned nodes and updates both caches", func(t *testing.T) {
		conn, err := f.connections.CreateConnection(ctx, owner, CreateConnectionInput{
			SourceID: a.ID().String(),
			TargetID: b.ID().String(),
			Type:     "supports",
			Strength: 1.7,
		})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, conn.Strength(), 1e-9, "strength clamped")

		gotA, err := f.nodeRepo.FindByID(ctx, owner, a.ID())
		require.NoError(t, err)
		require.Len(t, gotA.Neighbors(), 1)
		assert.True(t, gotA.Neighbors()[0].Equals(b.ID()))

		gotB, err := f.nodeRepo.FindByID(ctx, owner, b.ID())
		require.NoError(t, err)
		require.Len(t, gotB.Neighbors(), 1)
		assert.True(t, gotB.Neighbors()[0].Equals(a.ID()))
	})

	t.Run("self-loop rejected", func(t *testing.T) {
		_, err := f.connections.CreateConnection(ctx, owner, CreateConnectionInput{
			SourceID: a.ID().String(),
			TargetID: a.ID().String(),
			Type:     "related",
		})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("missing endpoint is not found", func(t *testing.T) {
		_, err := f.connections.CreateConnection(ctx, owner, CreateConnectionInput{
			SourceID: a.ID().String(),
			TargetID: "11111111-2222-3333-4444-555555555555",
			Type:     "related",
		})
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("endpoint of another owner is denied", func(t *testing.T) {
		_, err := f.connections.CreateConnection(ctx, owner, CreateConnectionInput{
			SourceID: a.ID().String(),
			TargetID: foreign.ID().String(),
			Type:     "related",
		})
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := f.connections.CreateConnection(ctx, owner, CreateConnectionInput{
			SourceID: a.ID().String(),
			TargetID: b.ID().String(),
			Type:     "friends_with",
		})
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestConnectionService_ListConnections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	c := f.createNode(t, owner, "C", "gamma body content", nil)
	f.connect(t, owner, a, b, 0.2)
	f.connect(t, owner, a, c, 0.9)
	f.connect(t, owner, b, c, 0.5)

	conns, err := f.connections.ListConnections(ctx, owner, a.ID().String())
	require.NoError(t, err)
	require.Len(t, conns, 2, "only edges touching the node")
	assert.InDelta(t, 0.9, conns[0].Strength(), 1e-9, "strongest first")
	assert.InDelta(t, 0.2, conns[1].Strength(), 1e-9)

	t.Run("unknown node is not found", func(t *testing.T) {
		_, err := f.connections.ListConnections(ctx, owner, "11111111-2222-3333-4444-555555555555")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestConnectionService_UpdateConnection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	conn := f.connect(t, owner, a, b, 0.5)

	t.Run("strength re-clamped on update", func(t *testing.T) {
		strength := -2.0
		got, err := f.connections.UpdateConnection(ctx, owner, conn.ID().String(), UpdateConnectionInput{
			Strength: &strength,
		})
		require.NoError(t, err)
		assert.Zero(t, got.Strength())
	})

	t.Run("other owner is denied", func(t *testing.T) {
		desc := "hijacked"
		_, err := f.connections.UpdateConnection(ctx, stranger, conn.ID().String(), UpdateConnectionInput{
			Description: &desc,
		})
		assert.True(t, pkgerrors.IsPermissionDenied(err))
	})
}

func TestConnectionService_DeleteConnection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.createNode(t, owner, "A", "alpha body content", nil)
	b := f.createNode(t, owner, "B", "beta body content", nil)
	conn := f.connect(t, owner, a, b, 0.5)

	require.NoError(t, f.connections.DeleteConnection(ctx, owner, conn.ID().String()))

	conns, err := f.connections.ListConnections(ctx, owner, a.ID().String())
	require.NoError(t, err)
	assert.Empty(t, conns)

	gotA, err := f.nodeRepo.FindByID(ctx, owner, a.ID())
	require.NoError(t, err)
	assert.Empty(t, gotA.Neighbors(), "cache entry dropped with the edge")

	t.Run("double delete is not found", func(t *testing.T) {
		err := f.connections.DeleteConnection(ctx, owner, conn.ID().String())
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}
