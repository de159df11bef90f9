package ops

import (
	"context"
	"io"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

func podOperations() []dispatch.Operation {
	return []dispatch.Operation{
		{
			Name:    "pod_list",
			Kind:    "Pod",
			Class:   policy.ClassRead,
			Summary: "List pods in a namespace",
			Params: []dispatch.Param{
				paramNamespace(),
				{Name: "labelSelector", Type: dispatch.ParamString, Description: "Label selector to filter pods"},
			},
			Handler: handlePodList,
		},
		{
			Name:    "pod_get",
			Kind:    "Pod",
			Class:   policy.ClassRead,
			Summary: "Get details of a pod",
			Params:  []dispatch.Param{paramNamespace(), paramName("pod")},
			Handler: handlePodGet,
		},
		{
			Name:    "pod_logs",
			Kind:    "Pod",
			Class:   policy.ClassRead,
			Summary: "Get logs from a pod container",
			Params: []dispatch.Param{
				paramNamespace(),
				paramName("pod"),
				{Name: "container", Type: dispatch.ParamString, Description: "Container name (optional for single-container pods)"},
				{Name: "tailLines", Type: dispatch.ParamNumber, Description: "Number of lines from the end of the logs"},
				{Name: "previous", Type: dispatch.ParamBool, Description: "Logs from the previous container instance"},
			},
			Handler: handlePodLogs,
		},
		{
			Name:    "pod_delete",
			Kind:    "Pod",
			Class:   policy.ClassWrite,
			Summary: "Delete a pod",
			Params:  []dispatch.Param{paramNamespace(), paramName("pod")},
			Handler: handlePodDelete,
		},
	}
}

func podSummary(pod *corev1.Pod) map[string]any {
	ready := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
	}
	restarts := int32(0)
	for _, cs := range pod.Status.ContainerStatuses {
		restarts += cs.RestartCount
	}
	return map[string]any{
		"name":       pod.Name,
		"namespace":  pod.Namespace,
		"phase":      string(pod.Status.Phase),
		"ready":      ready,
		"containers": len(pod.Spec.Containers),
		"restarts":   restarts,
		"node":       pod.Spec.NodeName,
	}
}

func handlePodList(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	pods, err := inv.Clients.Typed.CoreV1().Pods(inv.Namespace()).List(ctx, metav1.ListOptions{
		LabelSelector: inv.Args.String("labelSelector"),
	})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(pods.Items))
	for i := range pods.Items {
		out = append(out, podSummary(&pods.Items[i]))
	}
	return out, nil
}

func handlePodGet(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	pod, err := inv.Clients.Typed.CoreV1().Pods(inv.Namespace()).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}

	summary := podSummary(pod)
	summary["labels"] = pod.Labels
	summary["manifest"] = manifestYAML(pod)
	return summary, nil
}

func handlePodLogs(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	opts := &corev1.PodLogOptions{
		Container: inv.Args.String("container"),
		Previous:  inv.Args.Bool("previous"),
		TailLines: inv.Args.Int64("tailLines"),
	}

	stream, err := inv.Clients.Typed.CoreV1().Pods(inv.Namespace()).GetLogs(name, opts).Stream(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	logs, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"pod":       name,
		"namespace": inv.Namespace(),
		"logs":      string(logs),
	}, nil
}

func handlePodDelete(ctx context.Context, inv *dispatch.Invocation) (any, error) {
	name, err := inv.Args.RequireString("name")
	if err != nil {
		return nil, err
	}

	if err := inv.Clients.Typed.CoreV1().Pods(inv.Namespace()).Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return nil, err
	}
	return deleted("Pod", inv.Namespace(), name), nil
}
