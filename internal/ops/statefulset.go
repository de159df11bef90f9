package ops

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func statefulSetOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "statefulset_list",
			Kind:    "StatefulSet",
			Class:   policy.ClassRead,
			Summary: "List statefulsets in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleStatefulSetList,
		},
		{
			Name:    "statefulset_get",
			Kind:    "StatefulSet",
			Class:   policy.ClassRead,
			Summary: "Get details of a statefulset",
			Params:  []dispatch.Param{paramNamespace(), paramName("statefulset")},
			Handler: handleStatefulSetGet,
		},
		{
			Name:    "statefulset_update",
			Kind:    "StatefulSet",
			Class:   policy.ClassWrite,
			Summary: "Update a statefulset's image and replica count",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("statefulset"),
				{Name: "image", Type: dispatch.ParamString, Description: "New container image"},
				{Name: "replicas", Type: dispatch.ParamNumber, Description: "New replica count"},
			},
			Handler: handleStatefulSetUpdate,
		},
		{
			Name:    "statefulset_scale",
			Kind:    "StatefulSet",
			Class:   policy.ClassWrite,
			Summary: "Scale a statefulset",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("statefulset"),
				{Name: "replicas", Type: dispatch.ParamNumber, Required: true, Description: "Desired replica count"},
			},
			Handler: handleStatefulSetScale,
		},
		{
			Name:    "statefulset_delete",
			Kind:    "StatefulSet",
			Class:   policy.ClassWrite,
			Summary: "Delete a statefulset",
			Params:  []dispatch.Param{paramNamespace(), paramName("statefulset")},
			Handler: handleStatefulSetDelete,
		},
	}
}

func handleStatefulSetList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	statefulSets, err := inv.Clients.Typed.AppsV1().StatefulSets(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(statefulSets.Items))
	for _, sts := range statefulSets.Items {
		out = append(out, map[string]any{
			"name":      sts.Name,
			"namespace": sts.Namespace,
			"replicas":  ptrInt32(sts.Spec.Replicas),
			"ready":     sts.Status.ReadyReplicas,
			"service":   sts.Spec.ServiceName,
		})
	}
	return out, nil
}

func handleStatefulSetGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	sts, err := inv.Clients.Typed.AppsV1().StatefulSets(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(sts.Spec.Template.Spec.Containers))
	for _, c := range sts.Spec.Template.Spec.Containers {
		images = append(images, c.Image)
	}

	return map[string]any{
		"name":      sts.Name,
		"namespace": sts.Namespace,
		"replicas":  ptrInt32(sts.Spec.Replicas),
		"ready":     sts.Status.ReadyReplicas,
		"service":   sts.Spec.ServiceName,
		"images":    images,
		"manifest":  manifestYAML(sts),
	}, nil
}

func handleStatefulSetUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	statefulSets := inv.Clients.Typed.AppsV1().StatefulSets(inv.Namespace())
	sts, err := statefulSets.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	if image := inv.Args.String("image"); image != "" && len(sts.Spec.Template.Spec.Containers) > 0 {
		sts.Spec.Template.Spec.Containers[0].Image = image
	}
	if replicas, ok := inv.Args.Int("replicas"); ok {
		r := int32(replicas)
		sts.Spec.Replicas = &r
	}

	if _, err := statefulSets.Update(ctx, sts, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("StatefulSet", inv.Namespace(), name), nil
}

func handleStatefulSetScale(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	replicas, err := inv.Args.RequireInt32("replicas")
	if err != nil {
		return nil, err
	}

	statefulSets := inv.Clients.Typed.AppsV1().StatefulSets(inv.Namespace())
	scale, err := statefulSets.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	scale.Spec.Replicas = replicas
	if _, err := statefulSets.UpdateScale(ctx, name, scale, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}

	result := updated("StatefulSet", inv.Namespace(), name)
	result["replicas"] = replicas
	return result, nil
}

func handleStatefulSetDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.AppsV1().StatefulSets(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("StatefulSet", inv.Namespace(), name), nil
}
