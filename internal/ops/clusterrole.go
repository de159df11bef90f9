package ops

import (
	"context"

	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func clusterRoleOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "clusterrole_list",
			Kind:    "ClusterRole",
			Class:   policy.ClassRead,
			Summary: "List RBAC cluster roles",
			Handler: handleClusterRoleList,
		},
		{
			Name:    "clusterrole_get",
			Kind:    "ClusterRole",
			Class:   policy.ClassRead,
			Summary: "Get the rules of an RBAC cluster role",
			Params:  []dispatch.Param{paramName("cluster role")},
			Handler: handleClusterRoleGet,
		},
		{
			Name:    "clusterrole_create",
			Kind:    "ClusterRole",
			Class:   policy.ClassWrite,
			Summary: "Create an RBAC cluster role with a single rule",
			Params: []dispatch.Param{
				paramName("cluster role"),
				{Name: "verbs", Type: dispatch.ParamStringArray, Required: true, Description: "Allowed verbs, for example get, list, watch"},
				{Name: "resources", Type: dispatch.ParamStringArray, Required: true, Description: "Resource types the rule covers"},
				{Name: "apiGroups", Type: dispatch.ParamStringArray, Description: "API groups (default the core group)"},
			},
			Handler: handleClusterRoleCreate,
		},
		{
			Name:    "clusterrole_delete",
			Kind:    "ClusterRole",
			Class:   policy.ClassWrite,
			Summary: "Delete an RBAC cluster role",
			Params:  []dispatch.Param{paramName("cluster role")},
			Handler: handleClusterRoleDelete,
		},
	}
}

func handleClusterRoleList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	clusterRoles, err := inv.Clients.Typed.RbacV1().ClusterRoles().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(clusterRoles.Items))
	for _, cr := range clusterRoles.Items {
		out = append(out, map[string]any{
			"name":  cr.Name,
			"rules": len(cr.Rules),
		})
	}
	return out, nil
}

func handleClusterRoleGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	cr, err := inv.Clients.Typed.RbacV1().ClusterRoles().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	rules := make([]map[string]any, 0, len(cr.Rules))
	for _, rule := range cr.Rules {
		rules = append(rules, map[string]any{
			"apiGroups": rule.APIGroups,
			"resources": rule.Resources,
			"verbs":     rule.Verbs,
		})
	}

	return map[string]any{
		"name":     cr.Name,
		"rules":    rules,
		"manifest": manifestYAML(cr),
	}, nil
}

func handleClusterRoleCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	verbs := inv.Args.StringSlice("verbs")
	if len(verbs) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "verbs", Reason: "must be a non-empty string array"}
	}
	resources := inv.Args.StringSlice("resources")
	if len(resources) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "resources", Reason: "must be a non-empty string array"}
	}

	apiGroups := inv.Args.StringSlice("apiGroups")
	if len(apiGroups) == 0 {
		apiGroups = []string{""}
	}

	cr := &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Rules: []rbacv1.PolicyRule{{
			APIGroups: apiGroups,
			Resources: resources,
			Verbs:     verbs,
		}},
	}

	if _, err := inv.Clients.Typed.RbacV1().ClusterRoles().Create(ctx, cr, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("ClusterRole", "", name), nil
}

func handleClusterRoleDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.RbacV1().ClusterRoles().Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("ClusterRole", "", name), nil
}
