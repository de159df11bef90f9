package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func namespaceOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "namespace_list",
			Kind:    "Namespace",
			Class:   policy.ClassRead,
			Summary: "List all namespaces in the cluster",
			Handler: handleNamespaceList,
		},
		{
			Name:    "namespace_get",
			Kind:    "Namespace",
			Class:   policy.ClassRead,
			Summary: "Get details of a namespace",
			Params:  []dispatch.Param{paramName("namespace")},
			Handler: handleNamespaceGet,
		},
		{
			Name:    "namespace_create",
			Kind:    "Namespace",
			Class:   policy.ClassWrite,
			Summary: "Create a namespace",
			Params:  []dispatch.Param{paramName("namespace"), paramLabels()},
			Handler: handleNamespaceCreate,
		},
		{
			Name:    "namespace_delete",
			Kind:    "Namespace",
			Class:   policy.ClassWrite,
			Summary: "Delete a namespace",
			Params:  []dispatch.Param{paramName("namespace")},
			Handler: handleNamespaceDelete,
		},
	}
}

func handleNamespaceList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	namespaces, err := inv.Clients.Typed.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(namespaces.Items))
	for _, ns := range namespaces.Items {
		out = append(out, map[string]any{
			"name":   ns.Name,
			"status": string(ns.Status.Phase),
		})
	}
	return out, nil
}

func handleNamespaceGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	ns, err := inv.Clients.Typed.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":     ns.Name,
		"status":   string(ns.Status.Phase),
		"labels":   ns.Labels,
		"manifest": manifestYAML(ns),
	}, nil
}

func handleNamespaceCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: inv.Args.StringMap("labels")},
	}
	if _, err := inv.Clients.Typed.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Namespace", "", name), nil
}

func handleNamespaceDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Namespace", "", name), nil
}
