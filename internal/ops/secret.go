package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

const redactedValue = "REDACTED"

func secretOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "secret_list",
			Kind:    "Secret",
			Class:   policy.ClassRead,
			Summary: "List secrets in a namespace, reporting key names only",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handleSecretList,
		},
		{
			Name:    "secret_get",
			Kind:    "Secret",
			Class:   policy.ClassRead,
			Summary: "Get a secret with its values redacted",
			Params:  []dispatch.Param{paramNamespace(), paramName("secret")},
			Handler: handleSecretGet,
		},
		{
			Name:    "secret_create",
			Kind:    "Secret",
			Class:   policy.ClassWrite,
			Summary: "Create an Opaque secret from key-value data",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("secret"),
				{Name: "data", Type: dispatch.ParamObject, Required: true, Description: "Key-value data as a string-to-string object, plain text"},
			},
			Handler: handleSecretCreate,
		},
		{
			Name:    "secret_update",
			Kind:    "Secret",
			Class:   policy.ClassWrite,
			Summary: "Merge key-value data into an existing secret",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("secret"),
				{Name: "data", Type: dispatch.ParamObject, Required: true, Description: "Key-value data as a string-to-string object, plain text"},
			},
			Handler: handleSecretUpdate,
		},
		{
			Name:    "secret_delete",
			Kind:    "Secret",
			Class:   policy.ClassWrite,
			Summary: "Delete a secret",
			Params:  []dispatch.Param{paramNamespace(), paramName("secret")},
			Handler: handleSecretDelete,
		},
	}
}

func handleSecretList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	secrets, err := inv.Clients.Typed.CoreV1().Secrets(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(secrets.Items))
	for _, s := range secrets.Items {
		out = append(out, map[string]any{
			"name":      s.Name,
			"namespace": s.Namespace,
			"type":      string(s.Type),
			"keys":      sortedKeys(s.Data),
		})
	}
	return out, nil
}

func handleSecretGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	s, err := inv.Clients.Typed.CoreV1().Secrets(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	// Values never leave the server. Only key names and the secret type are
	// reported.
	data := make(map[string]string, len(s.Data))
	for k := range s.Data {
		data[k] = redactedValue
	}

	return map[string]any{
		"name":      s.Name,
		"namespace": s.Namespace,
		"type":      string(s.Type),
		"data":      data,
	}, nil
}

func handleSecretCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	data := inv.Args.StringMap("data")
	if len(data) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "data", Reason: "must be a non-empty string-to-string object"}
	}

	s := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Type:       corev1.SecretTypeOpaque,
		StringData: data,
	}
	if _, err := inv.Clients.Typed.CoreV1().Secrets(inv.Namespace()).Create(ctx, s, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("Secret", inv.Namespace(), name), nil
}

func handleSecretUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	data := inv.Args.StringMap("data")
	if len(data) == 0 {
		return nil, &dispatch.InvalidArgumentError{Param: "data", Reason: "must be a non-empty string-to-string object"}
	}

	secrets := inv.Clients.Typed.CoreV1().Secrets(inv.Namespace())
	s, err := secrets.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	// StringData entries overwrite matching Data keys on update; keys absent
	// from the patch keep their stored values.
	s.StringData = data
	if _, err := secrets.Update(ctx, s, metav1.UpdateOptions{}); err != nil {
		return nil, err
	}
	return updated("Secret", inv.Namespace(), name), nil
}

func handleSecretDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().Secrets(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Secret", inv.Namespace(), name), nil
}
