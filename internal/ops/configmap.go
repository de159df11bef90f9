package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func configMapOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "configmap_list",
			Kind:    "ConfigMap",
			Class:   policy.ClassRead,
			Summary: "List configmaps in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleConfigMapList,
		},
		{
			Name:    "configmap_get",
			Kind:    "ConfigMap",
			Class:   policy.ClassRead,
			Summary: "Get the data of a configmap",
			Params:  []dispatch.Param{paramNamespace(), paramName("configmap")},
			Handler: handleConfigMapGet,
		},
		{
			Name:    "configmap_create",
			Kind:    "ConfigMap",
			Class:   policy.ClassWrite,
			Summary: "Create a configmap from key-value data",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("configmap"),
				{Name: "data", Type: dispatch.ParamObject, Required: true, Description: "Key-value data as a string-to-string object"},
			},
			Handler: handleConfigMapCreate,
		},
		{
			Name:    "configmap_update",
			Kind:    "ConfigMap",
			Class:   policy.ClassWrite,
			Summary: "Replace the data of a configmap",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("configmap"),
				{Name: "data", Type: dispatch.ParamObject, Required: true, Description: "Key-value data as a string-to-string object"},
			},
			Handler: handleConfigMapUpdate,
		},
		{
			Name:    "configmap_delete",
			Kind:    "ConfigMap",
			Class:   policy.ClassWrite,
			Summary: "Delete a configmap",
			Params:  []dispatch.Param{paramNamespace(), paramName("configmap")},
			Handler: handleConfigMapDelete,
		},
	}
}

func handleConfigMapList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	configMaps, err := inv.Clients.Typed.CoreV1().ConfigMaps(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(configMaps.Items))
	for _, cm := range configMaps.Items {
		out = append(out, map[string]any{
			"name":      cm.Name,
			"namespace": cm.Namespace,
			"keys":      sortedKeys(cm.Data),
		})
	}
	return out, nil
}

func handleConfigMapGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	cm, err := inv.Clients.Typed.CoreV1().ConfigMaps(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":      cm.Name,
		"namespace": cm.Namespace,
		"data":      cm.Data,
	}, nil
}

func handleConfigMapCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	data := inv.Args.StringMap("data")
	if len(data) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "data", Reason: "must be a non-empty string-to-string object"}
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Data:       data,
	}
	if _, err := inv.Clients.Typed.CoreV1().ConfigMaps(inv.Namespace()).Create(ctx, cm, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("ConfigMap", inv.Namespace(), name), nil
}

func handleConfigMapUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	data := inv.Args.StringMap("data")
	if len(data) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "data", Reason: "must be a non-empty string-to-string object"}
	}

	client := inv.Clients.Typed.CoreV1().ConfigMaps(inv.Namespace())
	cm, err := client.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	cm.Data = data
	if _, err := client.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("ConfigMap", inv.Namespace(), name), nil
}

func handleConfigMapDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().ConfigMaps(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("ConfigMap", inv.Namespace(), name), nil
}
