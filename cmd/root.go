package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the k8s-pilot application. It is the
// entry point when the binary is called without any subcommand.
var rootCmd = &cobra.Command{
	Use:   "k8s-pilot",
	Short: "MCP server for multi-cluster Kubernetes operations",
	Long: `k8s-pilot is a Model Context Protocol (MCP) server that lets LLM tool
callers operate Kubernetes clusters. It resolves operations against any
context in a kubeconfig, caches one client per context, and can run in a
read-only mode that refuses every state-changing operation.

When run without subcommands, it starts the MCP server (equivalent to
'k8s-pilot serve').`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main to
// inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point for the CLI, called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "k8s-pilot version %s\n" .Version}}`)

	// No subcommand means serve.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
