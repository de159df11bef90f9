package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func noopHandler(ctx context.Context, inv *Invocation) (any, error) {
	return nil, nil
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Operation{
		{Name: "pod_list", Class: policy.ClassRead, Handler: noopHandler},
		{Name: "pod_list", Class: policy.ClassRead, Handler: noopHandler},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRegistryRejectsMissingHandler(t *testing.T) {
	_, err := NewRegistry([]Operation{{Name: "pod_list", Class: policy.ClassRead}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler")
}

func TestNewRegistryRejectsMissingName(t *testing.T) {
	_, err := NewRegistry([]Operation{{Handler: noopHandler}})
	require.Error(t, err)
}

func TestRegistryLookupAndOrder(t *testing.T) {
	reg, err := NewRegistry([]Operation{
		{Name: "namespace_list", Kind: "Namespace", Class: policy.ClassRead, Handler: noopHandler},
		{Name: "pod_delete", Kind: "Pod", Class: policy.ClassWrite, Handler: noopHandler},
	})
	require.NoError(t, err)

	op, err := reg.Lookup("pod_delete")
	require.NoError(t, err)
	assert.Equal(t, policy.ClassWrite, op.Class)
	assert.Equal(t, "Pod", op.Kind)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	ops := reg.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "namespace_list", ops[0].Name)
	assert.Equal(t, "pod_delete", ops[1].Name)
	assert.Equal(t, 2, reg.Len())
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"name":     "web-1",
		"replicas": float64(3),
		"all":      true,
		"labels":   map[string]any{"app": "web", "bogus": 1},
		"command":  []any{"sh", "-c", 42},
	}

	assert.Equal(t, "web-1", args.String("name"))
	assert.Equal(t, "", args.String("missing"))

	n, ok := args.Int("replicas")
	require.True(t, ok)
	assert.Equal(t, 3, n)

	r, err := args.RequireInt32("replicas")
	require.NoError(t, err)
	assert.Equal(t, int32(3), r)

	_, err = args.RequireInt32("missing")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, int32(1), args.Int32Or("missing", 1))
	assert.True(t, args.Bool("all"))
	assert.Equal(t, map[string]string{"app": "web"}, args.StringMap("labels"))
	assert.Equal(t, []string{"sh", "-c"}, args.StringSlice("command"))
	assert.True(t, args.Has("name"))
	assert.False(t, args.Has("missing"))

	require.Nil(t, args.Int64("missing"))
	if v := args.Int64("replicas"); assert.NotNil(t, v) {
		assert.Equal(t, int64(3), *v)
	}
}

func TestRequireString(t *testing.T) {
	args := Args{"name": "web-1", "empty": ""}

	s, err := args.RequireString("name")
	require.NoError(t, err)
	assert.Equal(t, "web-1", s)

	_, err = args.RequireString("empty")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = args.RequireString("missing")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
