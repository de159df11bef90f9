package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func serviceOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "service_list",
			Kind:    "Service",
			Class:   policy.ClassRead,
			Summary: "List services in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleServiceList,
		},
		{
			Name:    "service_get",
			Kind:    "Service",
			Class:   policy.ClassRead,
			Summary: "Get details of a service",
			Params:  []dispatch.Param{paramNamespace(), paramName("service")},
			Handler: handleServiceGet,
		},
		{
			Name:    "service_create",
			Kind:    "Service",
			Class:   policy.ClassWrite,
			Summary: "Create a ClusterIP service",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("service"),
				{Name: "port", Type: dispatch.ParamNumber, Required: true, Description: "Service port"},
				{Name: "targetPort", Type: dispatch.ParamNumber, Description: "Target container port (defaults to port)"},
				{Name: "selector", Type: dispatch.ParamObject, Required: true, Description: "Pod selector as a string-to-string object"},
			},
			Handler: handleServiceCreate,
		},
		{
			Name:    "service_update",
			Kind:    "Service",
			Class:   policy.ClassWrite,
			Summary: "Merge labels onto a service",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("service"),
				{Name: "labels", Type: dispatch.ParamObject, Required: true, Description: "Labels to merge as a string-to-string object"},
			},
			Handler: handleServiceUpdate,
		},
		{
			Name:    "service_delete",
			Kind:    "Service",
			Class:   policy.ClassWrite,
			Summary: "Delete a service",
			Params:  []dispatch.Param{paramNamespace(), paramName("service")},
			Handler: handleServiceDelete,
		},
	}
}

func handleServiceList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	services, err := inv.Clients.Typed.CoreV1().Services(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(services.Items))
	for _, svc := range services.Items {
		ports := make([]int32, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			ports = append(ports, p.Port)
		}
		out = append(out, map[string]any{
			"name":      svc.Name,
			"namespace": svc.Namespace,
			"type":      string(svc.Spec.Type),
			"clusterIP": svc.Spec.ClusterIP,
			"ports":     ports,
		})
	}
	return out, nil
}

func handleServiceGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	svc, err := inv.Clients.Typed.CoreV1().Services(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":      svc.Name,
		"namespace": svc.Namespace,
		"type":      string(svc.Spec.Type),
		"clusterIP": svc.Spec.ClusterIP,
		"selector":  svc.Spec.Selector,
		"manifest":  manifestYAML(svc),
	}, nil
}

func handleServiceCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	port, err := inv.Args.RequireInt32("port")
	if err != nil {
		return nil, err
	}
	selector := inv.Args.StringMap("selector")
	if len(selector) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "selector", Reason: "must be a non-empty string-to-string object"}
	}

	targetPort := inv.Args.Int32Or("targetPort", port)

	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: selector,
			Ports: []corev1.ServicePort{{
				Port:       port,
				TargetPort: intstr.FromInt32(targetPort),
			}},
		},
	}

	if _, err := inv.Clients.Typed.CoreV1().Services(inv.Namespace()).Create(ctx, svc, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Service", inv.Namespace(), name), nil
}

func handleServiceUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	labels := inv.Args.StringMap("labels")
	if len(labels) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "labels", Reason: "must be a non-empty string-to-string object"}
	}

	patch, err := labelsPatch(labels)
	if err != nil {
		return nil, err
	}
	svc, err := inv.Clients.Typed.CoreV1().Services(inv.Namespace()).Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	result := updated("Service", inv.Namespace(), name)
	result["labels"] = svc.Labels
	return result, nil
}

func handleServiceDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().Services(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Service", inv.Namespace(), name), nil
}
