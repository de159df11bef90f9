package ops

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func TestAllBuildsRegistry(t *testing.T) {
	registry, err := dispatch.NewRegistry(All())
	require.NoError(t, err)
	assert.Greater(t, registry.Len(), 75)
}

func TestAllDescriptorsComplete(t *testing.T) {
	for _, op := range All() {
		assert.NotEmpty(t, op.Name)
		assert.NotEmpty(t, op.Kind, "operation %s has no kind", op.Name)
		assert.NotEmpty(t, op.Summary, "operation %s has no summary", op.Name)
		assert.NotNil(t, op.Handler, "operation %s has no handler", op.Name)
	}
}

// Every operation that changes cluster state must carry the write class so
// the read-only gate can deny it. The suffix convention is the safety net
// against a new operation landing unclassified.
func TestMutationClassification(t *testing.T) {
	writeSuffixes := []string{
		"_create", "_update", "_delete", "_scale",
		"_cordon", "_uncordon", "_label", "_unlabel",
		"_taint", "_untaint", "_set_current",
	}

	isWriteName := func(name string) bool {
		for _, suffix := range writeSuffixes {
			if strings.HasSuffix(name, suffix) {
				return true
			}
		}
		return false
	}

	for _, op := range All() {
		if isWriteName(op.Name) {
			assert.Equal(t, policy.ClassWrite, op.Class, "operation %s must be classified as a write", op.Name)
		} else {
			assert.Equal(t, policy.ClassRead, op.Class, "operation %s must be classified as a read", op.Name)
		}
	}
}

func TestParamsNamedAndDescribed(t *testing.T) {
	for _, op := range All() {
		for _, p := range op.Params {
			assert.NotEmpty(t, p.Name, "operation %s has an unnamed parameter", op.Name)
			assert.NotEmpty(t, p.Description, "parameter %s of %s has no description", p.Name, op.Name)
		}
	}
}
