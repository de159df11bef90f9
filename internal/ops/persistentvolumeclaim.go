package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func persistentVolumeClaimOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "pvc_list",
			Kind:    "PersistentVolumeClaim",
			Class:   policy.ClassRead,
			Summary: "List persistent volume claims in a namespace",
			Params:  []dispatch.Param{paramNamespace()},
			Handler: handlePersistentVolumeClaimList,
		},
		{
			Name:    "pvc_get",
			Kind:    "PersistentVolumeClaim",
			Class:   policy.ClassRead,
			Summary: "Get details of a persistent volume claim",
			Params:  []dispatch.Param{paramNamespace(), paramName("persistent volume claim")},
			Handler: handlePersistentVolumeClaimGet,
		},
		{
			Name:    "pvc_create",
			Kind:    "PersistentVolumeClaim",
			Class:   policy.ClassWrite,
			Summary: "Create a persistent volume claim",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("persistent volume claim"),
				{Name: "storage", Type: dispatch.ParamString, Required: true, Description: "Requested storage quantity, for example 10Gi"},
				{Name: "storageClass", Type: dispatch.ParamString, Description: "Storage class name"},
				{Name: "accessMode", Type: dispatch.ParamString, Description: "Access mode (default ReadWriteOnce)"},
			},
			Handler: handlePersistentVolumeClaimCreate,
		},
		{
			Name:    "pvc_update",
			Kind:    "PersistentVolumeClaim",
			Class:   policy.ClassWrite,
			Summary: "Merge labels onto a persistent volume claim",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("persistent volume claim"),
				{Name: "labels", Type: dispatch.ParamObject, Required: true, Description: "Labels to merge as a string-to-string object"},
			},
			Handler: handlePersistentVolumeClaimUpdate,
		},
		{
			Name:    "pvc_delete",
			Kind:    "PersistentVolumeClaim",
			Class:   policy.ClassWrite,
			Summary: "Delete a persistent volume claim",
			Params:  []dispatch.Param{paramNamespace(), paramName("persistent volume claim")},
			Handler: handlePersistentVolumeClaimDelete,
		},
	}
}

func handlePersistentVolumeClaimList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	claims, err := inv.Clients.Typed.CoreV1().PersistentVolumeClaims(inv.Namespace()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(claims.Items))
	for _, pvc := range claims.Items {
		out = append(out, map[string]any{
			"name":      pvc.Name,
			"namespace": pvc.Namespace,
			"phase":     string(pvc.Status.Phase),
			"volume":    pvc.Spec.VolumeName,
			"storage":   pvcRequestedStorage(&pvc),
		})
	}
	return out, nil
}

func handlePersistentVolumeClaimGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	pvc, err := inv.Clients.Typed.CoreV1().PersistentVolumeClaims(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	accessModes := make([]string, 0, len(pvc.Spec.AccessModes))
	for _, m := range pvc.Spec.AccessModes {
		accessModes = append(accessModes, string(m))
	}

	out := map[string]any{
		"name":        pvc.Name,
		"namespace":   pvc.Namespace,
		"phase":       string(pvc.Status.Phase),
		"volume":      pvc.Spec.VolumeName,
		"storage":     pvcRequestedStorage(pvc),
		"accessModes": accessModes,
		"manifest":    manifestYAML(pvc),
	}
	if pvc.Spec.StorageClassName != nil {
		out["storageClass"] = *pvc.Spec.StorageClassName
	}
	return out, nil
}

func handlePersistentVolumeClaimCreate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	storage, err := inv.Args.RequireString("storage")
	if err != nil {
		return nil, err
	}
	qty, err := resource.ParseQuantity(storage)
	if err != nil {
		return nil, &dispatch.InvalidArgumentError{Param: "storage", Reason: "must be a quantity such as 10Gi"}
	}

	accessMode := corev1.ReadWriteOnce
	if m := inv.Args.String("accessMode"); m != "" {
		accessMode = corev1.PersistentVolumeAccessMode(m)
	}

	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{accessMode},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: qty},
			},
		},
	}
	if sc := inv.Args.String("storageClass"); sc != "" {
		pvc.Spec.StorageClassName = &sc
	}

	if _, err := inv.Clients.Typed.CoreV1().PersistentVolumeClaims(inv.Namespace()).Create(ctx, pvc, metav1.CreateOptions{}); err != nil {
		return nil, err
	}
	return created("PersistentVolumeClaim", inv.Namespace(), name), nil
}

func handlePersistentVolumeClaimUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
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
	pvc, err := inv.Clients.Typed.CoreV1().PersistentVolumeClaims(inv.Namespace()).Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	result := updated("PersistentVolumeClaim", inv.Namespace(), name)
	result["labels"] = pvc.Labels
	return result, nil
}

func handlePersistentVolumeClaimDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().PersistentVolumeClaims(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("PersistentVolumeClaim", inv.Namespace(), name), nil
}

func pvcRequestedStorage(pvc *corev1.PersistentVolumeClaim) string {
	if qty, ok := pvc.Spec.Resources.Requests[corev1.ResourceStorage]; ok {
		return qty.String()
	}
	return ""
}
