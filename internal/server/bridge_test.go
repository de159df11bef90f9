package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent in result, got %T", result.Content[0])
	return text.Text
}

func TestNewMCPServerBuilds(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)
	srv := NewMCPServer(sc)
	require.NotNil(t, srv)
}

func TestToolFromOperationSchema(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	op, err := sc.Dispatcher().Registry().Lookup("pod_delete")
	require.NoError(t, err)

	tool := toolFromOperation(sc, op, true)
	assert.Equal(t, "pod_delete", tool.Name)
	assert.Equal(t, "Delete a pod", tool.Description)

	assert.Contains(t, tool.InputSchema.Properties, "name")
	assert.Contains(t, tool.InputSchema.Properties, "context")
	assert.Contains(t, tool.InputSchema.Required, "name")
	assert.NotContains(t, tool.InputSchema.Required, "context")
}

func TestToolFromOperationOmitsContextParam(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	op, err := sc.Dispatcher().Registry().Lookup("pod_list")
	require.NoError(t, err)

	tool := toolFromOperation(sc, op, false)
	assert.NotContains(t, tool.InputSchema.Properties, "context")
}

func TestToolHandlerReturnsJSON(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	handler := toolHandler(sc, "pod_list")
	result, err := handler(context.Background(), callRequest("pod_list", map[string]any{
		"namespace": "default",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var pods []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pods))
	require.Len(t, pods, 1)
	assert.Equal(t, "web-1", pods[0]["name"])
}

func TestToolHandlerStripsContextArgument(t *testing.T) {
	sc := testServerContext(t, policy.ModeNormal)

	var seen dispatch.Args
	registry, err := dispatch.NewRegistry([]dispatch.Operation{{
		Name:  "probe",
		Kind:  "Probe",
		Class: policy.ClassRead,
		Handler: func(ctx context.Context, inv *dispatch.Invocation) (any, error) {
			seen = inv.Args
			return "ok", nil
		},
	}})
	require.NoError(t, err)

	dispatcher := dispatch.New(registry, sc.Contexts(), stubPool{}, sc.Gate(), dispatch.Config{})
	probe, err := NewServerContext(context.Background(),
		WithContexts(sc.Contexts()),
		WithGate(sc.Gate()),
		WithDispatcher(dispatcher),
	)
	require.NoError(t, err)

	handler := toolHandler(probe, "probe")
	result, err := handler(context.Background(), callRequest("probe", map[string]any{
		"context": "prod",
		"extra":   "kept",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.False(t, seen.Has("context"))
	assert.Equal(t, "kept", seen.String("extra"))
}

func TestToolHandlerReadOnlyDenial(t *testing.T) {
	sc := testServerContext(t, policy.ModeReadOnly)

	handler := toolHandler(sc, "pod_delete")
	result, err := handler(context.Background(), callRequest("pod_delete", map[string]any{
		"name": "web-1",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Pod Delete")
	assert.Contains(t, text, "read-only")
}

func TestDenialMessageTitleCases(t *testing.T) {
	msg := denialMessage("deployment_scale")
	assert.Contains(t, msg, "Deployment Scale Is Not Available")
}

func TestRenderResultPassesStringsThrough(t *testing.T) {
	text, err := renderResult("plain log output")
	require.NoError(t, err)
	assert.Equal(t, "plain log output", text)

	text, err = renderResult(map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, text)
}
