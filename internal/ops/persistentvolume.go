package ops

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func persistentVolumeOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "pv_list",
			Kind:    "PersistentVolume",
			Class:   policy.ClassRead,
			Summary: "List persistent volumes in the cluster",
			Handler: handlePersistentVolumeList,
		},
		{
			Name:    "pv_get",
			Kind:    "PersistentVolume",
			Class:   policy.ClassRead,
			Summary: "Get details of a persistent volume",
			Params:  []dispatch.Param{paramName("persistent volume")},
			Handler: handlePersistentVolumeGet,
		},
		{
			Name:    "pv_update",
			Kind:    "PersistentVolume",
			Class:   policy.ClassWrite,
			Summary: "Merge labels onto a persistent volume",
			Params: []dispatch.Param{
				paramName("persistent volume"),
				{Name: "labels", Type: dispatch.ParamObject, Required: true, Description: "Labels to merge as a string-to-string object"},
			},
			Handler: handlePersistentVolumeUpdate,
		},
		{
			Name:    "pv_delete",
			Kind:    "PersistentVolume",
			Class:   policy.ClassWrite,
			Summary: "Delete a persistent volume",
			Params:  []dispatch.Param{paramName("persistent volume")},
			Handler: handlePersistentVolumeDelete,
		},
	}
}

func handlePersistentVolumeList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	volumes, err := inv.Clients.Typed.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(volumes.Items))
	for _, pv := range volumes.Items {
		out = append(out, map[string]any{
			"name":         pv.Name,
			"capacity":     pvCapacity(&pv),
			"phase":        string(pv.Status.Phase),
			"storageClass": pv.Spec.StorageClassName,
			"claim":        pvClaimRef(&pv),
		})
	}
	return out, nil
}

func handlePersistentVolumeGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	pv, err := inv.Clients.Typed.CoreV1().PersistentVolumes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	accessModes := make([]string, 0, len(pv.Spec.AccessModes))
	for _, m := range pv.Spec.AccessModes {
		accessModes = append(accessModes, string(m))
	}

	return map[string]any{
		"name":          pv.Name,
		"capacity":      pvCapacity(pv),
		"phase":         string(pv.Status.Phase),
		"storageClass":  pv.Spec.StorageClassName,
		"accessModes":   accessModes,
		"reclaimPolicy": string(pv.Spec.PersistentVolumeReclaimPolicy),
		"claim":         pvClaimRef(pv),
		"manifest":      manifestYAML(pv),
	}, nil
}

func handlePersistentVolumeUpdate(ctx context.Context, inv *dispatch.Invocation) (any, error) {
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
	pv, err := inv.Clients.Typed.CoreV1().PersistentVolumes().Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	result := updated("PersistentVolume", "", name)
	result["labels"] = pv.Labels
	return result, nil
}

func handlePersistentVolumeDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().PersistentVolumes().Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("PersistentVolume", "", name), nil
}

func pvCapacity(pv *corev1.PersistentVolume) string {
	if qty, ok := pv.Spec.Capacity[corev1.ResourceStorage]; ok {
		return qty.String()
	}
	return ""
}

func pvClaimRef(pv *corev1.PersistentVolume) string {
	if pv.Spec.ClaimRef == nil {
		return ""
	}
	return pv.Spec.ClaimRef.Namespace + "/" + pv.Spec.ClaimRef.Name
}
