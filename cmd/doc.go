// Package cmd provides the command-line interface for k8s-pilot.
//
// The CLI is Cobra-based with these subcommands:
//   - serve: starts the MCP server (default when no subcommand is given)
//   - version: displays the application version
//   - self-update: updates the binary to the latest GitHub release
//
// Command structure:
//
//	k8s-pilot [flags]              # Starts the MCP server (default)
//	k8s-pilot serve [flags]        # Explicitly starts the MCP server
//	k8s-pilot version              # Shows version information
//	k8s-pilot self-update          # Updates to the latest release
//
// The serve command supports three transports:
//   - stdio: standard input/output (default), for command-line integration
//   - sse: Server-Sent Events over HTTP
//   - streamable-http: streamable HTTP transport
//
// Transport configuration examples:
//
//	k8s-pilot serve --transport stdio
//	k8s-pilot serve --transport sse --http-addr :8080
//	k8s-pilot serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// Every serve flag can also be set through the environment with the
// K8S_PILOT_ prefix, for example K8S_PILOT_READONLY=true or
// K8S_PILOT_KUBECONFIG=/etc/pilot/kubeconfig.
package cmd
