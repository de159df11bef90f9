package ops

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func replicaSetOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "replicaset_list",
			Kind:    "ReplicaSet",
			Class:   policy.ClassRead,
			Summary: "List replicasets in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleReplicaSetList,
		},
		{
			Name:    "replicaset_get",
			Kind:    "ReplicaSet",
			Class:   policy.ClassRead,
			Summary: "Get details of a replicaset",
			Params:  []dispatch.Param{paramNamespace(), paramName("replicaset")},
			Handler: handleReplicaSetGet,
		},
		{
			Name:    "replicaset_update",
			Kind:    "ReplicaSet",
			Class:   policy.ClassWrite,
			Summary: "Update a replicaset's image and replica count",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("replicaset"),
				{Name: "image", Type: dispatch.ParamString, Description: "New container image"},
				{Name: "replicas", Type: dispatch.ParamNumber, Description: "New replica count"},
			},
			Handler: handleReplicaSetUpdate,
		},
		{
			Name:    "replicaset_scale",
			Kind:    "ReplicaSet",
			Class:   policy.ClassWrite,
			Summary: "Scale a replicaset",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("replicaset"),
				{Name: "replicas", Type: dispatch.ParamNumber, Required: true, Description: "Desired replica count"},
			},
			Handler: handleReplicaSetScale,
		},
		{
			Name:    "replicaset_delete",
			Kind:    "ReplicaSet",
			Class:   policy.ClassWrite,
			Summary: "Delete a replicaset",
			Params:  []dispatch.Param{paramNamespace(), paramName("replicaset")},
			Handler: handleReplicaSetDelete,
		},
	}
}

func handleReplicaSetList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	replicaSets, err := inv.Clients.Typed.AppsV1().ReplicaSets(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(replicaSets.Items))
	for _, rs := range replicaSets.Items {
		owner := ""
		for _, ref := range rs.OwnerReferences {
			if ref.Kind == "Deployment" {
				owner = ref.Name
				break
			}
		}
		out = append(out, map[string]any{
			"name":      rs.Name,
			"namespace": rs.Namespace,
			"replicas":  ptrInt32(rs.Spec.Replicas),
			"ready":     rs.Status.ReadyReplicas,
			"owner":     owner,
		})
	}
	return out, nil
}

func handleReplicaSetGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	rs, err := inv.Clients.Typed.AppsV1().ReplicaSets(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":      rs.Name,
		"namespace": rs.Namespace,
		"replicas":  ptrInt32(rs.Spec.Replicas),
		"ready":     rs.Status.ReadyReplicas,
		"labels":    rs.Labels,
		"manifest":  manifestYAML(rs),
	}, nil
}

func handleReplicaSetUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	replicaSets := inv.Clients.Typed.AppsV1().ReplicaSets(inv.Namespace())
	rs, err := replicaSets.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	if image := inv.Args.String("image"); image != "" && len(rs.Spec.Template.Spec.Containers) > 0 {
		rs.Spec.Template.Spec.Containers[0].Image = image
	}
	if replicas, ok := inv.Args.Int("replicas"); ok {
		r := int32(replicas)
		rs.Spec.Replicas = &r
	}

	if _, err := replicaSets.Update(ctx, rs, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("ReplicaSet", inv.Namespace(), name), nil
}

func handleReplicaSetScale(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	replicas, err := inv.Args.RequireInt32("replicas")
	if err != nil {
		return nil, err
	}

	replicaSets := inv.Clients.Typed.AppsV1().ReplicaSets(inv.Namespace())
	scale, err := replicaSets.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	scale.Spec.Replicas = replicas
	if _, err := replicaSets.UpdateScale(ctx, name, scale, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}

	result := updated("ReplicaSet", inv.Namespace(), name)
	result["replicas"] = replicas
	return result, nil
}

func handleReplicaSetDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.AppsV1().ReplicaSets(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("ReplicaSet", inv.Namespace(), name), nil
}
