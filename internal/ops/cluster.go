package ops

import (
	"context"
	"fmt"

	"k8s.io/client-go/tools/clientcmd"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func clusterOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "cluster_list",
			Kind:    "Cluster",
			Class:   policy.ClassRead,
			Summary: "List all configured cluster contexts",
			Handler: handleClusterList,
		},
		{
			Name:    "cluster_current",
			Kind:    "Cluster",
			Class:   policy.ClassRead,
			Summary: "Show the default cluster context",
			Handler: handleClusterCurrent,
		},
		{
			Name:    "cluster_set_current",
			Kind:    "Cluster",
			Class:   policy.ClassWrite,
			Summary: "Set the current context in the kubeconfig file",
			Params: []dispatch.Param{
				{Name: "name", Type: dispatch.ParamString, Required: true, Description: "Context name to make current"},
			},
			Handler: handleClusterSetCurrent,
		},
		{
			Name:    "cluster_version",
			Kind:    "Cluster",
			Class:   policy.ClassRead,
			Summary: "Report the Kubernetes server version of the target cluster",
			Handler: handleClusterVersion,
		},
		{
			Name:    "cluster_api_resources",
			Kind:    "Cluster",
			Class:   policy.ClassRead,
			Summary: "List API resource types served by the target cluster",
			Handler: handleClusterAPIResources,
		},
	}
}

func handleClusterList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	return inv.Contexts.List(), nil
}

func handleClusterCurrent(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	desc, err := inv.Contexts.Resolve("")
	if err != nil {
		return nil, err
	}
	return desc, nil
}

func handleClusterSetCurrent(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	if _, err := inv.Contexts.Resolve(name); err != nil {
		return nil, err
	}
	if inv.Contexts.InCluster() {
		return nil, &dispatch.InvalidArgumentError{Param: "name", Reason: "no kubeconfig to modify in in-cluster mode"}
	}

	pathOptions := clientcmd.NewDefaultPathOptions()
	if path := inv.Contexts.KubeconfigPath(); path != "" {
		pathOptions.LoadingRules.ExplicitPath = path
	}

	config, err := pathOptions.GetStartingConfig()
	if err != nil {
		return nil, fmt.Errorf("reading kubeconfig: %w", err)
	}
	config.CurrentContext = name
	if err := clientcmd.ModifyConfig(pathOptions, *config, true); err != nil {
		return nil, fmt.Errorf("writing kubeconfig: %w", err)
	}

	// The running registry keeps its startup default: contexts are not
	// hot-reloaded, only the file on disk changes.
	return map[string]any{
		"currentContext": name,
		"status":         "Updated",
	}, nil
}

func handleClusterVersion(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	version, err := inv.Clients.Discovery.ServerVersion()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"gitVersion": version.GitVersion,
		"major":      version.Major,
		"minor":      version.Minor,
		"platform":   version.Platform,
	}, nil
}

func handleClusterAPIResources(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	_, lists, err := inv.Clients.Discovery.ServerGroupsAndResources()
	if err != nil {
		// Partial discovery results are usable; only fail when nothing
		// came back at all.
		if len(lists) == 0 {
			return nil, err
		}
	}

	out := make([]map[string]any, 0, 64)
	for _, list := range lists {
		for _, res := range list.APIResources {
			out = append(out, map[string]any{
				"name":         res.Name,
				"kind":         res.Kind,
				"namespaced":   res.Namespaced,
				"groupVersion": list.GroupVersion,
				"verbs":        []string(res.Verbs),
			})
		}
	}
	return out, nil
}
