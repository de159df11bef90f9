package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/instrumentation"
	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
	"github.com/k8s-pilot/k8s-pilot/internal/logging"
	"github.com/k8s-pilot/k8s-pilot/internal/ops"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
	"github.com/k8s-pilot/k8s-pilot/internal/server"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// envPrefix is the prefix for environment variable configuration, so
// --http-addr becomes K8S_PILOT_HTTP_ADDR.
const envPrefix = "K8S_PILOT"

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport       string
	HTTPAddr        string
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Context source settings
	Kubeconfig     string
	DefaultContext string
	InCluster      bool

	// Policy settings
	ReadOnly bool

	// Kubernetes client settings
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// Observability settings
	Debug bool
	Trace bool
}

// Validate checks the configuration for contradictions before anything is
// started.
func (c *ServeConfig) Validate() error {
	switch c.Transport {
	case transportStdio, transportSSE, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (expected %s, %s or %s)",
			c.Transport, transportStdio, transportSSE, transportStreamableHTTP)
	}

	if c.Transport != transportStdio && c.HTTPAddr == "" {
		return fmt.Errorf("--http-addr is required for the %s transport", c.Transport)
	}

	if c.InCluster && c.Kubeconfig != "" {
		return fmt.Errorf("--in-cluster and --kubeconfig are mutually exclusive")
	}
	if c.InCluster && c.DefaultContext != "" {
		return fmt.Errorf("--in-cluster and --context are mutually exclusive")
	}

	if c.QPSLimit <= 0 {
		return fmt.Errorf("--qps-limit must be positive, got %v", c.QPSLimit)
	}
	if c.BurstLimit <= 0 {
		return fmt.Errorf("--burst-limit must be positive, got %d", c.BurstLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the k8s-pilot MCP server",
		Long: `Start the MCP server that exposes Kubernetes operations as tools.

Contexts come from the kubeconfig (every context becomes addressable by
name), or from the service account mount when --in-cluster is set. With
--readonly every state-changing operation is refused before any cluster
client is built.

Supported transports:
  - stdio: standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: streamable HTTP transport

All flags can be set through the environment with the K8S_PILOT_ prefix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := serveConfigFrom(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("transport", transportStdio, "Transport type (stdio, sse or streamable-http)")
	flags.String("http-addr", ":8080", "Listen address for HTTP transports")
	flags.String("sse-endpoint", "/sse", "SSE endpoint path")
	flags.String("message-endpoint", "/message", "SSE message endpoint path")
	flags.String("http-endpoint", "/mcp", "Streamable HTTP endpoint path")
	flags.String("kubeconfig", "", "Path to the kubeconfig file (default: standard loading rules)")
	flags.String("context", "", "Context used when a tool call does not name one (default: current-context)")
	flags.Bool("in-cluster", false, "Use the service account of the surrounding pod instead of a kubeconfig")
	flags.Bool("readonly", false, "Refuse all operations that change cluster state")
	flags.Float64("qps-limit", float64(k8s.DefaultQPSLimit), "Kubernetes API queries per second per client")
	flags.Int("burst-limit", k8s.DefaultBurstLimit, "Kubernetes API burst limit per client")
	flags.Duration("timeout", dispatch.DefaultTimeout, "Per-operation timeout")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("trace", false, "Emit OpenTelemetry spans to stderr")

	cobra.CheckErr(v.BindPFlags(flags))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func serveConfigFrom(v *viper.Viper) ServeConfig {
	return ServeConfig{
		Transport:       v.GetString("transport"),
		HTTPAddr:        v.GetString("http-addr"),
		SSEEndpoint:     v.GetString("sse-endpoint"),
		MessageEndpoint: v.GetString("message-endpoint"),
		HTTPEndpoint:    v.GetString("http-endpoint"),
		Kubeconfig:      v.GetString("kubeconfig"),
		DefaultContext:  v.GetString("context"),
		InCluster:       v.GetBool("in-cluster"),
		ReadOnly:        v.GetBool("readonly"),
		QPSLimit:        float32(v.GetFloat64("qps-limit")),
		BurstLimit:      v.GetInt("burst-limit"),
		Timeout:         v.GetDuration("timeout"),
		Debug:           v.GetBool("debug"),
		Trace:           v.GetBool("trace"),
	}
}

// runServe wires the context registry, client pool, policy gate and
// dispatcher together and runs the MCP server on the configured transport.
func runServe(cfg ServeConfig) error {
	logger := logging.Setup(cfg.Debug)

	shutdownTracing, err := instrumentation.SetupTracing("k8s-pilot", rootCmd.Version, cfg.Trace)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contexts, err := kubecontext.Load(kubecontext.LoadOptions{
		KubeconfigPath: cfg.Kubeconfig,
		DefaultContext: cfg.DefaultContext,
		InCluster:      cfg.InCluster,
	})
	if err != nil {
		return fmt.Errorf("loading contexts: %w", err)
	}

	mode := policy.ModeNormal
	if cfg.ReadOnly {
		mode = policy.ModeReadOnly
	}
	gate := policy.NewGate(mode)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := instrumentation.NewMetrics(promReg)

	pool := k8s.NewPool(k8s.BuildConfig{
		KubeconfigPath: cfg.Kubeconfig,
		QPSLimit:       cfg.QPSLimit,
		BurstLimit:     cfg.BurstLimit,
		Timeout:        cfg.Timeout,
	}, k8s.WithPoolMetrics(metrics))

	registry, err := dispatch.NewRegistry(ops.All())
	if err != nil {
		return fmt.Errorf("building operation table: %w", err)
	}

	dispatcher := dispatch.New(registry, contexts, pool, gate,
		dispatch.Config{Timeout: cfg.Timeout},
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics),
	)

	sc, err := server.NewServerContext(ctx,
		server.WithServerInfo("k8s-pilot", rootCmd.Version),
		server.WithContexts(contexts),
		server.WithPool(pool),
		server.WithGate(gate),
		server.WithDispatcher(dispatcher),
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("creating server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	if cfg.Transport != transportStdio {
		logger.Info("starting server",
			"transport", cfg.Transport,
			"contexts", contexts.Len(),
			"default_context", contexts.DefaultName(),
			"mode", gate.Mode().String(),
			"operations", registry.Len(),
		)
	}

	mcpSrv := server.NewMCPServer(sc)

	switch cfg.Transport {
	case transportSSE:
		return runSSEServer(ctx, mcpSrv, cfg, logger)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, sc, promReg, cfg)
	default:
		return runStdioServer(mcpSrv)
	}
}
