package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

type stubPool struct{}

func (stubPool) Get(ctx context.Context, desc *kubecontext.Descriptor) (*k8s.ClientSet, error) {
	return &k8s.ClientSet{}, nil
}

func testContexts(t *testing.T) *kubecontext.Registry {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config")
	kubeconfig := `apiVersion: v1
kind: Config
current-context: prod
clusters:
- name: prod-cluster
  cluster:
    server: https://prod.example.com:6443
contexts:
- name: prod
  context:
    cluster: prod-cluster
    user: admin
users:
- name: admin
  user:
    token: not-a-real-token
`
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	reg, err := kubecontext.Load(kubecontext.LoadOptions{KubeconfigPath: path})
	require.NoError(t, err)
	return reg
}

func testServerContext(t *testing.T, mode policy.Mode) *ServerContext {
	t.Helper()

	contexts := testContexts(t)
	gate := policy.NewGate(mode)

	registry, err := dispatch.NewRegistry([]dispatch.Operation{
		{
			Name:    "pod_list",
			Kind:    "Pod",
			Class:   policy.ClassRead,
			Summary: "List pods in a namespace",
			Params: []dispatch.Param{
				{Name: "namespace", Type: dispatch.ParamString, Description: "Target namespace"},
				{Name: "labelSelector", Type: dispatch.ParamString, Description: "Label selector"},
			},
			Handler: func(ctx context.Context, inv *dispatch.Invocation) (any, error) {
				return []map[string]any{{"name": "web-1"}}, nil
			},
		},
		{
			Name:    "pod_delete",
			Kind:    "Pod",
			Class:   policy.ClassWrite,
			Summary: "Delete a pod",
			Params: []dispatch.Param{
				{Name: "name", Type: dispatch.ParamString, Required: true, Description: "Pod name"},
			},
			Handler: func(ctx context.Context, inv *dispatch.Invocation) (any, error) {
				return map[string]string{"status": "Deleted"}, nil
			},
		},
	})
	require.NoError(t, err)

	dispatcher := dispatch.New(registry, contexts, stubPool{}, gate, dispatch.Config{})

	sc, err := NewServerContext(context.Background(),
		WithServerInfo("k8s-pilot", "test"),
		WithContexts(contexts),
		WithGate(gate),
		WithDispatcher(dispatcher),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContextRequiresDispatcher(t *testing.T) {
	_, err := NewServerContext(context.Background(), WithContexts(testContexts(t)))
	require.ErrorIs(t, err, ErrMissingDispatcher)
}

func TestNewServerContextRequiresContexts(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	_, err := NewServerContext(context.Background(), WithDispatcher(sc.Dispatcher()))
	require.ErrorIs(t, err, ErrMissingContexts)
}

func TestShutdownIsIdempotent(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	require.True(t, sc.IsShutdown())

	select {
	case <-sc.Context().Done():
	default:
		t.Fatal("lifecycle context not cancelled after shutdown")
	}
}
