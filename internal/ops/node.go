package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/types"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func nodeOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "node_list",
			Kind:    "Node",
			Class:   policy.ClassRead,
			Summary: "List nodes in the cluster",
			Handler: handleNodeList,
		},
		{
			Name:    "node_get",
			Kind:    "Node",
			Class:   policy.ClassRead,
			Summary: "Get details of a node",
			Params:  []dispatch.Param{paramName("node")},
			Handler: handleNodeGet,
		},
		{
			Name:    "node_cordon",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Mark a node unschedulable",
			Params:  []dispatch.Param{paramName("node")},
			Handler: handleNodeCordon,
		},
		{
			Name:    "node_uncordon",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Mark a node schedulable again",
			Params:  []dispatch.Param{paramName("node")},
			Handler: handleNodeUncordon,
		},
		{
			Name:    "node_label",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Merge labels onto a node",
			Params: []dispatch.Param{
				paramName("node"),
				{Name: "labels", Type: dispatch.ParamObject, Required: true, Description: "Labels to merge as a string-to-string object"},
			},
			Handler: handleNodeLabel,
		},
		{
			Name:    "node_unlabel",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Remove a label from a node",
			Params: []dispatch.Param{
				paramName("node"),
				{Name: "key", Type: dispatch.ParamString, Required: true, Description: "Label key to remove"},
			},
			Handler: handleNodeUnlabel,
		},
		{
			Name:    "node_taint",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Add or replace a taint on a node",
			Params: []dispatch.Param{
				paramName("node"),
				{Name: "key", Type: dispatch.ParamString, Required: true, Description: "Taint key"},
				{Name: "value", Type: dispatch.ParamString, Description: "Taint value"},
				{Name: "effect", Type: dispatch.ParamString, Required: true, Description: "Taint effect: NoSchedule, PreferNoSchedule or NoExecute"},
			},
			Handler: handleNodeTaint,
		},
		{
			Name:    "node_untaint",
			Kind:    "Node",
			Class:   policy.ClassWrite,
			Summary: "Remove a taint from a node by key",
			Params: []dispatch.Param{
				paramName("node"),
				{Name: "key", Type: dispatch.ParamString, Required: true, Description: "Taint key to remove"},
			},
			Handler: handleNodeUntaint,
		},
		{
			Name:    "node_pods",
			Kind:    "Node",
			Class:   policy.ClassRead,
			Summary: "List the pods running on a node across all namespaces",
			Params:  []dispatch.Param{paramName("node")},
			Handler: handleNodePods,
		},
	}
}

func handleNodeList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	nodes, err := inv.Clients.Typed.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		out = append(out, map[string]any{
			"name":           node.Name,
			"status":         nodeReadyStatus(&node),
			"schedulable":    !node.Spec.Unschedulable,
			"kubeletVersion": node.Status.NodeInfo.KubeletVersion,
			"roles":          nodeRoles(&node),
		})
	}
	return out, nil
}

func handleNodeGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	node, err := inv.Clients.Typed.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"name":           node.Name,
		"status":         nodeReadyStatus(node),
		"schedulable":    !node.Spec.Unschedulable,
		"kubeletVersion": node.Status.NodeInfo.KubeletVersion,
		"osImage":        node.Status.NodeInfo.OSImage,
		"architecture":   node.Status.NodeInfo.Architecture,
		"labels":         node.Labels,
		"taints":         nodeTaints(node),
		"capacity": map[string]string{
			"cpu":    node.Status.Capacity.Cpu().String(),
			"memory": node.Status.Capacity.Memory().String(),
			"pods":   node.Status.Capacity.Pods().String(),
		},
	}, nil
}

func handleNodeCordon(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	return setNodeSchedulable(ctx, inv, true)
}

func handleNodeUncordon(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	return setNodeSchedulable(ctx, inv, false)
}

func setNodeSchedulable(ctx context.Context, inv *dispatch.Invocation, unschedulable bool) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	patch := fmt.Sprintf(`{"spec":{"unschedulable":%t}}`, unschedulable)
	node, err := inv.Clients.Typed.CoreV1().Nodes().Patch(ctx, name, types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	status := "Uncordoned"
	if unschedulable {
		status = "Cordoned"
	}
	return map[string]any{
		"kind":        "Node",
		"name":        node.Name,
		"status":      status,
		"schedulable": !node.Spec.Unschedulable,
	}, nil
}

func handleNodeLabel(ctx context.Context, inv *dispatch.Invocation) (any, error) {
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

	node, err := inv.Clients.Typed.CoreV1().Nodes().Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"kind":   "Node",
		"name":   node.Name,
		"status": "Updated",
		"labels": node.Labels,
	}, nil
}

func handleNodeUnlabel(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	key, err := inv.Args.RequireString("key")
	if err != nil {
		return nil, err
	}

	nodes := inv.Clients.Typed.CoreV1().Nodes()
	node, err := nodes.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	if _, ok := node.Labels[key]; !ok {
		return map[string]any{
			"kind":   "Node",
			"name":   node.Name,
			"status": "Unchanged",
			"labels": node.Labels,
		}, nil
	}

	// A null value in a strategic merge patch deletes the key.
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"labels": map[string]any{key: nil}},
	})
	if err != nil {
		return nil, err
	}

	node, err = nodes.Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"kind":   "Node",
		"name":   node.Name,
		"status": "Updated",
		"labels": node.Labels,
	}, nil
}

func handleNodeTaint(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	key, err := inv.Args.RequireString("key")
	if err != nil {
		return nil, err
	}
	effect := corev1.TaintEffect(inv.Args.String("effect"))
	switch effect {
	case corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
	default:
		return nil, &dispatch.InvalidArgumentError{Param: "effect", Reason: "must be NoSchedule, PreferNoSchedule or NoExecute"}
	}
	taint := corev1.Taint{Key: key, Value: inv.Args.String("value"), Effect: effect}

	nodes := inv.Clients.Typed.CoreV1().Nodes()
	node, err := nodes.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	taints := make([]corev1.Taint, 0, len(node.Spec.Taints)+1)
	replaced := false
	for _, t := range node.Spec.Taints {
		if t.Key == key {
			taints = append(taints, taint)
			replaced = true
			continue
		}
		taints = append(taints, t)
	}
	if !replaced {
		taints = append(taints, taint)
	}

	node, err = patchNodeTaints(ctx, inv, name, taints)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"kind":   "Node",
		"name":   node.Name,
		"status": "Updated",
		"taints": nodeTaints(node),
	}, nil
}

func handleNodeUntaint(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}
	key, err := inv.Args.RequireString("key")
	if err != nil {
		return nil, err
	}

	node, err := inv.Clients.Typed.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	taints := make([]corev1.Taint, 0, len(node.Spec.Taints))
	for _, t := range node.Spec.Taints {
		if t.Key != key {
			taints = append(taints, t)
		}
	}
	if len(taints) == len(node.Spec.Taints) {
		return map[string]any{
			"kind":   "Node",
			"name":   node.Name,
			"status": "Unchanged",
			"taints": nodeTaints(node),
		}, nil
	}

	node, err = patchNodeTaints(ctx, inv, name, taints)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"kind":   "Node",
		"name":   node.Name,
		"status": "Updated",
		"taints": nodeTaints(node),
	}, nil
}

// patchNodeTaints replaces the node's full taint list. Taints carry no merge
// key, so the strategic merge patch swaps the list atomically.
func patchNodeTaints(ctx context.Context, inv *dispatch.Invocation, name string, taints []corev1.Taint) (*corev1.Node, error) {
	patch, err := json.Marshal(map[string]any{
		"spec": map[string]any{"taints": taints},
	})
	if err != nil {
		return nil, err
	}
	return inv.Clients.Typed.CoreV1().Nodes().Patch(ctx, name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
}

func handleNodePods(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	pods, err := inv.Clients.Typed.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("spec.nodeName", name).String(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(pods.Items))
	for _, pod := range pods.Items {
		containers := make([]string, 0, len(pod.Spec.Containers))
		for _, c := range pod.Spec.Containers {
			containers = append(containers, c.Name)
		}
		out = append(out, map[string]any{
			"name":       pod.Name,
			"namespace":  pod.Namespace,
			"phase":      string(pod.Status.Phase),
			"containers": containers,
		})
	}
	return map[string]any{
		"node":  name,
		"count": len(out),
		"pods":  out,
	}, nil
}

func nodeReadyStatus(node *corev1.Node) string {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			if cond.Status == corev1.ConditionTrue {
				return "Ready"
			}
			return "NotReady"
		}
	}
	return "Unknown"
}

func nodeRoles(node *corev1.Node) []string {
	const prefix = "node-role.kubernetes.io/"
	roles := make([]string, 0, 1)
	for label := range node.Labels {
		if role, ok := strings.CutPrefix(label, prefix); ok && role != "" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

func nodeTaints(node *corev1.Node) []string {
	taints := make([]string, 0, len(node.Spec.Taints))
	for _, t := range node.Spec.Taints {
		taints = append(taints, fmt.Sprintf("%s=%s:%s", t.Key, t.Value, t.Effect))
	}
	return taints
}
