package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

// contextsResourceURI is the MCP resource listing the known contexts.
const contextsResourceURI = "k8s://contexts"

var titleCaser = cases.Title(language.English)

// NewMCPServer builds the MCP server and registers one tool per operation
// in the dispatch registry, plus the contexts resource.
func NewMCPServer(sc *ServerContext) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(sc.Name(), sc.Version(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
	)

	// With a single in-cluster context there is nothing to select, so the
	// context parameter is omitted from every tool.
	includeContextParam := !sc.Contexts().InCluster()

	for _, op := range sc.Dispatcher().Registry().Operations() {
		srv.AddTool(toolFromOperation(sc, op, includeContextParam), toolHandler(sc, op.Name))
	}

	registerContextsResource(srv, sc)
	return srv
}

func toolFromOperation(sc *ServerContext, op *dispatch.Operation, includeContextParam bool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(op.Summary)}

	if includeContextParam {
		opts = append(opts, mcp.WithString("context",
			mcp.Description("Kubeconfig context to target (defaults to "+sc.Contexts().DefaultName()+")"),
		))
	}

	for _, p := range op.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}

		switch p.Type {
		case dispatch.ParamNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case dispatch.ParamBool:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		case dispatch.ParamObject:
			opts = append(opts, mcp.WithObject(p.Name, propOpts...))
		case dispatch.ParamStringArray:
			propOpts = append(propOpts, mcp.Items(map[string]any{"type": "string"}))
			opts = append(opts, mcp.WithArray(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	return mcp.NewTool(op.Name, opts...)
}

func toolHandler(sc *ServerContext, operation string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := request.GetArguments()

		contextName, _ := raw["context"].(string)
		args := make(dispatch.Args, len(raw))
		for k, v := range raw {
			if k == "context" {
				continue
			}
			args[k] = v
		}

		result, err := sc.Dispatcher().Dispatch(ctx, operation, contextName, args)
		if err != nil {
			if errors.Is(err, policy.ErrReadOnlyViolation) {
				return mcp.NewToolResultError(denialMessage(operation)), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := renderResult(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// denialMessage phrases a read-only refusal for the calling model, naming
// the operation so the caller can pick a read instead of retrying.
func denialMessage(operation string) string {
	return fmt.Sprintf("%s Is Not Available: the server is running in read-only mode, so operations that change cluster state are refused",
		titleCaser.String(strings.ReplaceAll(operation, "_", " ")))
}

func renderResult(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func registerContextsResource(srv *mcpserver.MCPServer, sc *ServerContext) {
	resource := mcp.NewResource(contextsResourceURI, "Kubernetes contexts",
		mcp.WithResourceDescription("All contexts this server can reach, with the default marked"),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(sc.Contexts().List(), "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      contextsResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
