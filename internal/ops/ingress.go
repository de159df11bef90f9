package ops

import (
	"context"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func ingressOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "ingress_list",
			Kind:    "Ingress",
			Class:   policy.ClassRead,
			Summary: "List ingresses in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleIngressList,
		},
		{
			Name:    "ingress_get",
			Kind:    "Ingress",
			Class:   policy.ClassRead,
			Summary: "Get details of an ingress",
			Params:  []dispatch.Param{paramNamespace(), paramName("ingress")},
			Handler: handleIngressGet,
		},
		{
			Name:    "ingress_create",
			Kind:    "Ingress",
			Class:   policy.ClassWrite,
			Summary: "Create an ingress routing one host to a service",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("ingress"),
				{Name: "host", Type: dispatch.ParamString, Required: true, Description: "Hostname to route"},
				{Name: "serviceName", Type: dispatch.ParamString, Required: true, Description: "Backend service name"},
				{Name: "servicePort", Type: dispatch.ParamNumber, Required: true, Description: "Backend service port"},
				{Name: "path", Type: dispatch.ParamString, Description: "HTTP path (default /)"},
			},
			Handler: handleIngressCreate,
		},
		{
			Name:    "ingress_update",
			Kind:    "Ingress",
			Class:   policy.ClassWrite,
			Summary: "Rewrite an ingress's first rule to a new host and backend",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("ingress"),
				{Name: "host", Type: dispatch.ParamString, Required: true, Description: "New hostname to route"},
				{Name: "serviceName", Type: dispatch.ParamString, Required: true, Description: "New backend service name"},
				{Name: "servicePort", Type: dispatch.ParamNumber, Required: true, Description: "New backend service port"},
			},
			Handler: handleIngressUpdate,
		},
		{
			Name:    "ingress_delete",
			Kind:    "Ingress",
			Class:   policy.ClassWrite,
			Summary: "Delete an ingress",
			Params:  []dispatch.Param{paramNamespace(), paramName("ingress")},
			Handler: handleIngressDelete,
		},
	}
}

func handleIngressList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	ingresses, err := inv.Clients.Typed.NetworkingV1().Ingresses(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(ingresses.Items))
	for _, ing := range ingresses.Items {
		hosts := make([]string, 0, len(ing.Spec.Rules))
		for _, rule := range ing.Spec.Rules {
			hosts = append(hosts, rule.Host)
		}
		out = append(out, map[string]any{
			"name":      ing.Name,
			"namespace": ing.Namespace,
			"hosts":     hosts,
			"class":     ingressClassName(&ing),
		})
	}
	return out, nil
}

func handleIngressGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	ing, err := inv.Clients.Typed.NetworkingV1().Ingresses(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	rules := make([]map[string]any, 0, len(ing.Spec.Rules))
	for _, rule := range ing.Spec.Rules {
		paths := make([]map[string]any, 0)
		if rule.HTTP != nil {
			for _, p := range rule.HTTP.Paths {
				entry := map[string]any{"path": p.Path}
				if p.Backend.Service != nil {
					entry["service"] = p.Backend.Service.Name
					entry["port"] = p.Backend.Service.Port.Number
				}
				paths = append(paths, entry)
			}
		}
		rules = append(rules, map[string]any{"host": rule.Host, "paths": paths})
	}

	return map[string]any{
		"name":      ing.Name,
		"namespace": ing.Namespace,
		"class":     ingressClassName(ing),
		"rules":     rules,
		"manifest":  manifestYAML(ing),
	}, nil
}

func handleIngressCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	host, err := inv.Args.RequireString("host")
	if err != nil {
		return nil, err
	}
	serviceName, err := inv.Args.RequireString("serviceName")
	if err != nil {
		return nil, err
	}
	servicePort, err := inv.Args.RequireInt32("servicePort")
	if err != nil {
		return nil, err
	}

	path := inv.Args.String("path")
	if path == "" {
		path = "/"
	}

	ing := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{ingressRule(host, serviceName, servicePort, path)},
		},
	}

	if _, err := inv.Clients.Typed.NetworkingV1().Ingresses(inv.Namespace()).Create(ctx, ing, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Ingress", inv.Namespace(), name), nil
}

func handleIngressUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	host, err := inv.Args.RequireString("host")
	if err != nil {
		return nil, err
	}
	serviceName, err := inv.Args.RequireString("serviceName")
	if err != nil {
		return nil, err
	}
	servicePort, err := inv.Args.RequireInt32("servicePort")
	if err != nil {
		return nil, err
	}

	ingresses := inv.Clients.Typed.NetworkingV1().Ingresses(inv.Namespace())
	ing, err := ingresses.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	// The existing first path is preserved; everything else about the rule is
	// replaced.
	path := "/"
	if len(ing.Spec.Rules) > 0 && ing.Spec.Rules[0].HTTP != nil && len(ing.Spec.Rules[0].HTTP.Paths) > 0 {
		path = ing.Spec.Rules[0].HTTP.Paths[0].Path
	}
	rule := ingressRule(host, serviceName, servicePort, path)
	if len(ing.Spec.Rules) == 0 {
		ing.Spec.Rules = []networkingv1.IngressRule{rule}
	} else {
		ing.Spec.Rules[0] = rule
	}

	if _, err := ingresses.Update(ctx, ing, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("Ingress", inv.Namespace(), name), nil
}

func ingressRule(host, serviceName string, servicePort int32, path string) networkingv1.IngressRule {
	pathType := networkingv1.PathTypePrefix
	return networkingv1.IngressRule{
		Host: host,
		IngressRuleValue: networkingv1.IngressRuleValue{
			HTTP: &networkingv1.HTTPIngressRuleValue{
				Paths: []networkingv1.HTTPIngressPath{{
					Path:     path,
					PathType: &pathType,
					Backend: networkingv1.IngressBackend{
						Service: &networkingv1.IngressServiceBackend{
							Name: serviceName,
							Port: networkingv1.ServiceBackendPort{Number: servicePort},
						},
					},
				}},
			},
		},
	}
}

func handleIngressDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.NetworkingV1().Ingresses(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Ingress", inv.Namespace(), name), nil
}

func ingressClassName(ing *networkingv1.Ingress) string {
	if ing.Spec.IngressClassName != nil {
		return *ing.Spec.IngressClassName
	}
	return ""
}
