package ops

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func daemonSetOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "daemonset_list",
			Kind:    "DaemonSet",
			Class:   policy.ClassRead,
			Summary: "List daemonsets in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleDaemonSetList,
		},
		{
			Name:    "daemonset_get",
			Kind:    "DaemonSet",
			Class:   policy.ClassRead,
			Summary: "Get details of a daemonset",
			Params:  []dispatch.Param{paramNamespace(), paramName("daemonset")},
			Handler: handleDaemonSetGet,
		},
		{
			Name:    "daemonset_update",
			Kind:    "DaemonSet",
			Class:   policy.ClassWrite,
			Summary: "Update a daemonset's container image",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("daemonset"),
				{Name: "image", Type: dispatch.ParamString, Required: true, Description: "New container image"},
			},
			Handler: handleDaemonSetUpdate,
		},
		{
			Name:    "daemonset_delete",
			Kind:    "DaemonSet",
			Class:   policy.ClassWrite,
			Summary: "Delete a daemonset",
			Params:  []dispatch.Param{paramNamespace(), paramName("daemonset")},
			Handler: handleDaemonSetDelete,
		},
	}
}

func handleDaemonSetList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	daemonSets, err := inv.Clients.Typed.AppsV1().DaemonSets(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(daemonSets.Items))
	for _, ds := range daemonSets.Items {
		out = append(out, map[string]any{
			"name":      ds.Name,
			"namespace": ds.Namespace,
			"desired":   ds.Status.DesiredNumberScheduled,
			"ready":     ds.Status.NumberReady,
			"available": ds.Status.NumberAvailable,
		})
	}
	return out, nil
}

func handleDaemonSetGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	ds, err := inv.Clients.Typed.AppsV1().DaemonSets(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(ds.Spec.Template.Spec.Containers))
	for _, c := range ds.Spec.Template.Spec.Containers {
		images = append(images, c.Image)
	}

	return map[string]any{
		"name":      ds.Name,
		"namespace": ds.Namespace,
		"desired":   ds.Status.DesiredNumberScheduled,
		"ready":     ds.Status.NumberReady,
		"images":    images,
		"manifest":  manifestYAML(ds),
	}, nil
}

func handleDaemonSetUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	image, err := inv.Args.RequireString("image")
	if err != nil {
		return nil, err
	}

	daemonSets := inv.Clients.Typed.AppsV1().DaemonSets(inv.Namespace())
	ds, err := daemonSets.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	if len(ds.Spec.Template.Spec.Containers) > 0 {
		ds.Spec.Template.Spec.Containers[0].Image = image
	}
	if _, err := daemonSets.Update(ctx, ds, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("DaemonSet", inv.Namespace(), name), nil
}

func handleDaemonSetDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.AppsV1().DaemonSets(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("DaemonSet", inv.Namespace(), name), nil
}
