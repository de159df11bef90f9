package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateNormalModePermitsEverything(t *testing.T) {
	gate := NewGate(ModeNormal)

	assert.NoError(t, gate.Authorize("pod_list", ClassRead))
	assert.NoError(t, gate.Authorize("pod_delete", ClassWrite))
}

func TestGateReadOnlyModePermitsReads(t *testing.T) {
	gate := NewGate(ModeReadOnly)

	assert.NoError(t, gate.Authorize("pod_list", ClassRead))
	assert.NoError(t, gate.Authorize("namespace_get", ClassRead))
}

func TestGateReadOnlyModeDeniesWrites(t *testing.T) {
	gate := NewGate(ModeReadOnly)

	tests := []string{"pod_delete", "deployment_create", "node_cordon", "configmap_update"}
	for _, op := range tests {
		t.Run(op, func(t *testing.T) {
			err := gate.Authorize(op, ClassWrite)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrReadOnlyViolation)

			var violation *ReadOnlyViolationError
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, op, violation.Operation)
			assert.Contains(t, err.Error(), op)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "normal", ModeNormal.String())
	assert.Equal(t, "readonly", ModeReadOnly.String())
}

func TestMutationClassString(t *testing.T) {
	assert.Equal(t, "read", ClassRead.String())
	assert.Equal(t, "write", ClassWrite.String())
}
