package kubecontext

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// InClusterName is the descriptor name used when running with service account
// credentials inside a cluster.
const InClusterName = "in-cluster"

// Default paths for the in-cluster service account mount.
const (
	DefaultTokenPath     = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	DefaultCACertPath    = "/var/run/secrets/kubernetes.io/serviceaccount/ca.crt"
	DefaultNamespacePath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// Descriptor identifies one reachable cluster context. Descriptors are
// immutable once loaded.
type Descriptor struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace"`
	InCluster bool   `json:"inCluster,omitempty"`
	Current   bool   `json:"current"`
}

// DefaultNamespace returns the context's default namespace, falling back to
// "default" when the kubeconfig entry does not set one.
func (d *Descriptor) DefaultNamespace() string {
	if d.Namespace == "" {
		return "default"
	}
	return d.Namespace
}

// LoadOptions configures how the registry is populated.
type LoadOptions struct {
	// KubeconfigPath is an explicit kubeconfig file path. When empty, the
	// KUBECONFIG environment variable and the default loading rules apply.
	KubeconfigPath string

	// DefaultContext overrides the kubeconfig's current-context as the
	// designated default. Must name a context present in the source.
	DefaultContext string

	// InCluster selects service account authentication instead of a
	// kubeconfig. The registry then contains a single in-cluster descriptor.
	InCluster bool
}

// Registry holds the loaded context descriptors. Read-only after Load; safe
// for concurrent use without locking.
type Registry struct {
	byName      map[string]*Descriptor
	order       []string
	defaultName string

	// kubeconfigPath is the resolved source path, kept for client
	// construction against individual contexts. Empty in in-cluster mode.
	kubeconfigPath string
	inCluster      bool
}

// Load reads the credential source once and builds the registry. It fails
// with a *LoadError when the source is unreadable or yields zero contexts.
func Load(opts LoadOptions) (*Registry, error) {
	if opts.InCluster {
		return loadInCluster()
	}
	return loadKubeconfig(opts)
}

func loadInCluster() (*Registry, error) {
	for _, p := range []string{DefaultTokenPath, DefaultCACertPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, &LoadError{
				Source: "in-cluster service account",
				Reason: fmt.Sprintf("required credential file %s not available", p),
				Err:    err,
			}
		}
	}

	namespace := "default"
	if data, err := os.ReadFile(DefaultNamespacePath); err == nil {
		if ns := strings.TrimSpace(string(data)); ns != "" {
			namespace = ns
		}
	}

	desc := &Descriptor{
		Name:      InClusterName,
		Cluster:   InClusterName,
		User:      "service-account",
		Namespace: namespace,
		InCluster: true,
		Current:   true,
	}

	return &Registry{
		byName:      map[string]*Descriptor{InClusterName: desc},
		order:       []string{InClusterName},
		defaultName: InClusterName,
		inCluster:   true,
	}, nil
}

func loadKubeconfig(opts LoadOptions) (*Registry, error) {
	path := opts.KubeconfigPath
	if path == "" {
		path = os.Getenv("KUBECONFIG")
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		loadingRules.ExplicitPath = path
	}

	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{},
	)

	raw, err := config.RawConfig()
	if err != nil {
		return nil, &LoadError{Source: sourceName(path), Reason: "kubeconfig unreadable", Err: err}
	}

	reg, err := fromRawConfig(&raw, opts.DefaultContext)
	if err != nil {
		return nil, err
	}
	reg.kubeconfigPath = path
	return reg, nil
}

// fromRawConfig builds a registry from parsed kubeconfig data. Split out from
// loadKubeconfig so tests can feed synthetic configs.
func fromRawConfig(raw *clientcmdapi.Config, defaultContext string) (*Registry, error) {
	if len(raw.Contexts) == 0 {
		return nil, &LoadError{Source: "kubeconfig", Reason: ErrNoContexts.Error(), Err: ErrNoContexts}
	}

	reg := &Registry{byName: make(map[string]*Descriptor, len(raw.Contexts))}

	names := make([]string, 0, len(raw.Contexts))
	for name := range raw.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx := raw.Contexts[name]
		reg.byName[name] = &Descriptor{
			Name:      name,
			Cluster:   ctx.Cluster,
			User:      ctx.AuthInfo,
			Namespace: ctx.Namespace,
			Current:   name == raw.CurrentContext,
		}
		reg.order = append(reg.order, name)
	}

	switch {
	case defaultContext != "":
		if _, ok := reg.byName[defaultContext]; !ok {
			return nil, &LoadError{
				Source: "kubeconfig",
				Reason: fmt.Sprintf("configured default context %q not found", defaultContext),
				Err:    &UnknownContextError{Name: defaultContext},
			}
		}
		reg.defaultName = defaultContext
	case raw.CurrentContext != "" && reg.byName[raw.CurrentContext] != nil:
		reg.defaultName = raw.CurrentContext
	default:
		reg.defaultName = reg.order[0]
	}

	return reg, nil
}

// Resolve returns the descriptor for the given context name. An empty name
// resolves to the designated default descriptor.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	if name == "" {
		name = r.defaultName
	}
	desc, ok := r.byName[name]
	if !ok {
		return nil, &UnknownContextError{Name: name}
	}
	return desc, nil
}

// List returns all descriptors in stable (sorted) order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.byName[name])
	}
	return out
}

// DefaultName returns the name of the designated default context.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// KubeconfigPath returns the resolved kubeconfig path the registry was loaded
// from, or empty in in-cluster mode.
func (r *Registry) KubeconfigPath() string {
	return r.kubeconfigPath
}

// InCluster reports whether the registry was built from in-cluster
// credentials.
func (r *Registry) InCluster() bool {
	return r.inCluster
}

// Len returns the number of registered contexts.
func (r *Registry) Len() int {
	return len(r.byName)
}

func sourceName(path string) string {
	if path == "" {
		return "default kubeconfig"
	}
	return path
}
