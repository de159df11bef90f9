package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func serviceAccountOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "serviceaccount_list",
			Kind:    "ServiceAccount",
			Class:   policy.ClassRead,
			Summary: "List service accounts in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleServiceAccountList,
		},
		{
			Name:    "serviceaccount_get",
			Kind:    "ServiceAccount",
			Class:   policy.ClassRead,
			Summary: "Get details of a service account",
			Params:  []dispatch.Param{paramNamespace(), paramName("service account")},
			Handler: handleServiceAccountGet,
		},
		{
			Name:    "serviceaccount_create",
			Kind:    "ServiceAccount",
			Class:   policy.ClassWrite,
			Summary: "Create a service account",
			Params:  []dispatch.Param{paramNamespace(), paramName("service account"), paramLabels()},
			Handler: handleServiceAccountCreate,
		},
		{
			Name:    "serviceaccount_delete",
			Kind:    "ServiceAccount",
			Class:   policy.ClassWrite,
			Summary: "Delete a service account",
			Params:  []dispatch.Param{paramNamespace(), paramName("service account")},
			Handler: handleServiceAccountDelete,
		},
	}
}

func handleServiceAccountList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	serviceAccounts, err := inv.Clients.Typed.CoreV1().ServiceAccounts(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(serviceAccounts.Items))
	for _, sa := range serviceAccounts.Items {
		out = append(out, map[string]any{
			"name":      sa.Name,
			"namespace": sa.Namespace,
			"secrets":   len(sa.Secrets),
		})
	}
	return out, nil
}

func handleServiceAccountGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	sa, err := inv.Clients.Typed.CoreV1().ServiceAccounts(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	secrets := make([]string, 0, len(sa.Secrets))
	for _, ref := range sa.Secrets {
		secrets = append(secrets, ref.Name)
	}

	return map[string]any{
		"name":      sa.Name,
		"namespace": sa.Namespace,
		"labels":    sa.Labels,
		"secrets":   secrets,
		"manifest":  manifestYAML(sa),
	}, nil
}

func handleServiceAccountCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	sa := &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: inv.Args.StringMap("labels")},
	}
	if _, err := inv.Clients.Typed.CoreV1().ServiceAccounts(inv.Namespace()).Create(ctx, sa, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("ServiceAccount", inv.Namespace(), name), nil
}

func handleServiceAccountDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().ServiceAccounts(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("ServiceAccount", inv.Namespace(), name), nil
}
