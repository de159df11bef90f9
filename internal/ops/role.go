package ops

import (
	"context"

	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func roleOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "role_list",
			Kind:    "Role",
			Class:   policy.ClassRead,
			Summary: "List RBAC roles in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleRoleList,
		},
		{
			Name:    "role_get",
			Kind:    "Role",
			Class:   policy.ClassRead,
			Summary: "Get the rules of an RBAC role",
			Params:  []dispatch.Param{paramNamespace(), paramName("role")},
			Handler: handleRoleGet,
		},
		{
			Name:    "role_create",
			Kind:    "Role",
			Class:   policy.ClassWrite,
			Summary: "Create an RBAC role with a single rule",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("role"),
				{Name: "verbs", Type: dispatch.ParamStringArray, Required: true, Description: "Allowed verbs, for example get, list, watch"},
				{Name: "resources", Type: dispatch.ParamStringArray, Required: true, Description: "Resource types the rule covers"},
				{Name: "apiGroups", Type: dispatch.ParamStringArray, Description: "API groups (default the core group)"},
			},
			Handler: handleRoleCreate,
		},
		{
			Name:    "role_delete",
			Kind:    "Role",
			Class:   policy.ClassWrite,
			Summary: "Delete an RBAC role",
			Params:  []dispatch.Param{paramNamespace(), paramName("role")},
			Handler: handleRoleDelete,
		},
	}
}

func handleRoleList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	roles, err := inv.Clients.Typed.RbacV1().Roles(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(roles.Items))
	for _, role := range roles.Items {
		out = append(out, map[string]any{
			"name":      role.Name,
			"namespace": role.Namespace,
			"rules":     len(role.Rules),
		})
	}
	return out, nil
}

func handleRoleGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	role, err := inv.Clients.Typed.RbacV1().Roles(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	rules := make([]map[string]any, 0, len(role.Rules))
	for _, rule := range role.Rules {
		rules = append(rules, map[string]any{
			"apiGroups": rule.APIGroups,
			"resources": rule.Resources,
			"verbs":     rule.Verbs,
		})
	}

	return map[string]any{
		"name":      role.Name,
		"namespace": role.Namespace,
		"rules":     rules,
		"manifest":  manifestYAML(role),
	}, nil
}

func handleRoleCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
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

	role := &rbacv1.Role{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Rules: []rbacv1.PolicyRule{{
			APIGroups: apiGroups,
			Resources: resources,
			Verbs:     verbs,
		}},
	}

	if _, err := inv.Clients.Typed.RbacV1().Roles(inv.Namespace()).Create(ctx, role, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Role", inv.Namespace(), name), nil
}

func handleRoleDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.RbacV1().Roles(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Role", inv.Namespace(), name), nil
}
