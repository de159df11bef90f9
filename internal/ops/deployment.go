package ops

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func deploymentOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "deployment_list",
			Kind:    "Deployment",
			Class:   policy.ClassRead,
			Summary: "List deployments in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleDeploymentList,
		},
		{
			Name:    "deployment_get",
			Kind:    "Deployment",
			Class:   policy.ClassRead,
			Summary: "Get details of a deployment",
			Params:  []dispatch.Param{paramNamespace(), paramName("deployment")},
			Handler: handleDeploymentGet,
		},
		{
			Name:    "deployment_create",
			Kind:    "Deployment",
			Class:   policy.ClassWrite,
			Summary: "Create a deployment with a single container",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("deployment"),
				{Name: "image", Type: dispatch.ParamString, Required: true, Description: "Container image"},
				{Name: "replicas", Type: dispatch.ParamNumber, Description: "Number of replicas (default 1)"},
				paramLabels(),
			},
			Handler: handleDeploymentCreate,
		},
		{
			Name:    "deployment_update",
			Kind:    "Deployment",
			Class:   policy.ClassWrite,
			Summary: "Update a deployment's image and replica count",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("deployment"),
				{Name: "image", Type: dispatch.ParamString, Description: "New container image"},
				{Name: "replicas", Type: dispatch.ParamNumber, Description: "New replica count"},
			},
			Handler: handleDeploymentUpdate,
		},
		{
			Name:    "deployment_scale",
			Kind:    "Deployment",
			Class:   policy.ClassWrite,
			Summary: "Scale a deployment",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("deployment"),
				{Name: "replicas", Type: dispatch.ParamNumber, Required: true, Description: "Desired replica count"},
			},
			Handler: handleDeploymentScale,
		},
		{
			Name:    "deployment_delete",
			Kind:    "Deployment",
			Class:   policy.ClassWrite,
			Summary: "Delete a deployment",
			Params:  []dispatch.Param{paramNamespace(), paramName("deployment")},
			Handler: handleDeploymentDelete,
		},
	}
}

func handleDeploymentList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	deployments, err := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(deployments.Items))
	for _, dep := range deployments.Items {
		out = append(out, map[string]any{
			"name":      dep.Name,
			"namespace": dep.Namespace,
			"replicas":  ptrInt32(dep.Spec.Replicas),
			"ready":     dep.Status.ReadyReplicas,
			"available": dep.Status.AvailableReplicas,
		})
	}
	return out, nil
}

func handleDeploymentGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	dep, err := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(dep.Spec.Template.Spec.Containers))
	for _, c := range dep.Spec.Template.Spec.Containers {
		images = append(images, c.Image)
	}

	return map[string]any{
		"name":      dep.Name,
		"namespace": dep.Namespace,
		"replicas":  ptrInt32(dep.Spec.Replicas),
		"ready":     dep.Status.ReadyReplicas,
		"labels":    dep.Labels,
		"images":    images,
		"manifest":  manifestYAML(dep),
	}, nil
}

func handleDeploymentCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	image, err := inv.Args.RequireString("image")
	if err != nil {
		return nil, err
	}

	replicas := inv.Args.Int32Or("replicas", 1)
	labels := inv.Args.StringMap("labels")
	if len(labels) == 0 {
		labels = map[string]string{"app": name}
	}

	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: name, Image: image}},
				},
			},
		},
	}

	if _, err := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace()).Create(ctx, dep, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Deployment", inv.Namespace(), name), nil
}

func handleDeploymentUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	deployments := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace())
	dep, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	if image := inv.Args.String("image"); image != "" && len(dep.Spec.Template.Spec.Containers) > 0 {
		dep.Spec.Template.Spec.Containers[0].Image = image
	}
	if replicas, ok := inv.Args.Int("replicas"); ok {
		r := int32(replicas)
		dep.Spec.Replicas = &r
	}

	if _, err := deployments.Update(ctx, dep, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("Deployment", inv.Namespace(), name), nil
}

func handleDeploymentScale(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	replicas, err := inv.Args.RequireInt32("replicas")
	if err != nil {
		return nil, err
	}

	deployments := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace())
	scale, err := deployments.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	scale.Spec.Replicas = replicas
	if _, err := deployments.UpdateScale(ctx, name, scale, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}

	result := updated("Deployment", inv.Namespace(), name)
	result["replicas"] = replicas
	return result, nil
}

func handleDeploymentDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.AppsV1().Deployments(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Deployment", inv.Namespace(), name), nil
}

func ptrInt32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
