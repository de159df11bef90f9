package k8s

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
)

// Default rate limiting and timeout settings applied to every rest.Config.
const (
	DefaultQPSLimit   float32 = 20.0
	DefaultBurstLimit         = 30
	DefaultTimeout            = 30 * time.Second
)

// ClientSet bundles the per-context clients needed by the operation handlers.
// All embedded clients are safe for concurrent use by multiple in-flight
// operations.
type ClientSet struct {
	// Typed is the standard typed clientset covering core, apps, batch,
	// networking, rbac and storage groups.
	Typed kubernetes.Interface

	// Discovery serves API resource and version discovery.
	Discovery discovery.DiscoveryInterface

	restConfig *rest.Config
}

// Host returns the API server endpoint the bundle is connected to.
func (cs *ClientSet) Host() string {
	if cs.restConfig == nil {
		return ""
	}
	return cs.restConfig.Host
}

// BuildConfig controls client construction for all contexts in a pool.
type BuildConfig struct {
	// KubeconfigPath is the explicit kubeconfig path used to derive
	// per-context rest configs. Empty means default loading rules.
	KubeconfigPath string

	QPSLimit   float32
	BurstLimit int

	// Timeout is the per-request timeout applied to the rest config.
	Timeout time.Duration
}

func (c BuildConfig) withDefaults() BuildConfig {
	if c.QPSLimit == 0 {
		c.QPSLimit = DefaultQPSLimit
	}
	if c.BurstLimit == 0 {
		c.BurstLimit = DefaultBurstLimit
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// newClientSet builds and validates a client bundle for one context
// descriptor. Validation issues a discovery call so that unreachable
// endpoints or bad credentials surface at construction time rather than on
// the first resource operation.
func newClientSet(ctx context.Context, desc *kubecontext.Descriptor, cfg BuildConfig) (*ClientSet, error) {
	restConfig, err := restConfigFor(desc, cfg)
	if err != nil {
		return nil, err
	}

	typed, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating clientset: %w", err)
	}

	disco, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating discovery client: %w", err)
	}

	if err := validateConnectivity(ctx, disco); err != nil {
		return nil, err
	}

	return &ClientSet{
		Typed:      typed,
		Discovery:  disco,
		restConfig: restConfig,
	}, nil
}

// restConfigFor derives a rest.Config for one context, applying the pool's
// rate limits and timeout.
func restConfigFor(desc *kubecontext.Descriptor, cfg BuildConfig) (*rest.Config, error) {
	var restConfig *rest.Config
	var err error

	if desc.InCluster {
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("creating in-cluster rest config: %w", err)
		}
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		if cfg.KubeconfigPath != "" {
			loadingRules.ExplicitPath = cfg.KubeconfigPath
		}

		contextConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules,
			&clientcmd.ConfigOverrides{CurrentContext: desc.Name},
		)

		restConfig, err = contextConfig.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("creating rest config for context %q: %w", desc.Name, err)
		}
	}

	restConfig.QPS = cfg.QPSLimit
	restConfig.Burst = cfg.BurstLimit
	restConfig.Timeout = cfg.Timeout

	return restConfig, nil
}

// validateConnectivity confirms the API server answers before the bundle is
// admitted to the pool.
func validateConnectivity(ctx context.Context, disco discovery.DiscoveryInterface) error {
	done := make(chan error, 1)
	go func() {
		_, err := disco.ServerVersion()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("validating connectivity: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("validating connectivity: %w", ctx.Err())
	}
}
