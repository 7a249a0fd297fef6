package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
)

func TestNewConnection(t *testing.T) {
	source := valueobjects.NewNodeID()
	target := valueobjects.NewNodeID()

	tests := []struct {
		name         string
		sourceID     valueobjects.NodeID
		targetID     valueobjects.NodeID
		connType     ConnectionType
		strength     float64
		wantStrength float64
		wantErr      bool
	}{
		{
			name:         "valid connection",
			sourceID:     source,
			targetID:     target,
			connType:     ConnectionRelated,
			strength:     0.42,
			wantStrength: 0.42,
		},
		{
			name:     "self-loop rejected",
			sourceID: source,
			targetID: source,
			connType: ConnectionRelated,
			wantErr:  true,
		},
		{
			name:     "missing endpoint rejected",
			sourceID: source,
			targetID: valueobjects.NodeID{},
			connType: ConnectionRelated,
			wantErr:  true,
		},
		{
			name:     "unknown type rejected",
			sourceID: source,
			targetID: target,
			connType: "friends_with",
			wantErr:  true,
		},
		{
			name:         "strength clamped from above",
			sourceID:     source,
			targetID:     target,
			connType:     ConnectionSupports,
			strength:     3.7,
			wantStrength: 1,
		},
		{
			name:         "strength clamped from below",
			sourceID:     source,
			targetID:     target,
			connType:     ConnectionSupports,
			strength:     -0.5,
			wantStrength: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := NewConnection("user-123", tt.sourceID, tt.targetID, tt.connType, tt.strength, "")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.wantStrength, conn.Strength(), 1e-9)

			events := conn.GetUncommittedEvents()
			require.Len(t, events, 1)
			assert.Equal(t, "nodes.connected", events[0].GetEventType())
		})
	}
}

func TestConnection_OtherEnd(t *testing.T) {
	source := valueobjects.NewNodeID()
	target := valueobjects.NewNodeID()
	stranger := valueobjects.NewNodeID()

	conn, err := NewConnection("user-123", source, target, ConnectionRelated, 0.5, "")
	require.NoError(t, err)

	got, ok := conn.OtherEnd(source)
	require.True(t, ok)
	assert.True(t, got.Equals(target))

	got, ok = conn.OtherEnd(target)
	require.True(t, ok)
	assert.True(t, got.Equals(source))

	_, ok = conn.OtherEnd(stranger)
	assert.False(t, ok)

	assert.True(t, conn.Touches(source))
	assert.False(t, conn.Touches(stranger))
}

func TestConnection_ApplyPatch(t *testing.T) {
	conn, err := NewConnection("user-123", valueobjects.NewNodeID(), valueobjects.NewNodeID(), ConnectionRelated, 0.5, "")
	require.NoError(t, err)

	t.Run("strength re-clamped", func(t *testing.T) {
		strength := 1.8
		require.NoError(t, conn.ApplyPatch(ConnectionPatch{Strength: &strength}))
		assert.InDelta(t, 1.0, conn.Strength(), 1e-9)
	})

	t.Run("type re-validated", func(t *testing.T) {
		bad := ConnectionType("nonsense")
		err := conn.ApplyPatch(ConnectionPatch{Type: &bad})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("description updated", func(t *testing.T) {
		desc := "manually verified"
		require.NoError(t, conn.ApplyPatch(ConnectionPatch{Description: &desc}))
		assert.Equal(t, desc, conn.Description())
	})
}
