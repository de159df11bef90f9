package ops

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
)

func newTestInvocation(args dispatch.Args, objects ...runtime.Object) (*dispatch.Invocation, *fake.Clientset) {
	client := fake.NewClientset(objects...)
	inv := &dispatch.Invocation{
		Clients: &k8s.ClientSet{Typed: client},
		Context: &kubecontext.Descriptor{Name: "test"},
		Args:    args,
	}
	return inv, client
}

func TestNamespaceCreateAndList(t *testing.T) {
	inv, client := newTestInvocation(dispatch.Args{"name": "staging"})

	result, err := handleNamespaceCreate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Created", result.(map[string]any)["status"])

	got, err := client.CoreV1().Namespaces().Get(context.Background(), "staging", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "staging", got.Name)

	listInv := &dispatch.Invocation{
		Clients: inv.Clients,
		Context: inv.Context,
		Args:    dispatch.Args{},
	}
	listed, err := handleNamespaceList(context.Background(), listInv)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestPodListFiltersByLabelSelector(t *testing.T) {
	web := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name: "web-1", Namespace: "default", Labels: map[string]string{"app": "web"},
	}}
	db := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name: "db-1", Namespace: "default", Labels: map[string]string{"app": "db"},
	}}

	inv, _ := newTestInvocation(dispatch.Args{"labelSelector": "app=web"}, web, db)

	result, err := handlePodList(context.Background(), inv)
	require.NoError(t, err)

	pods := result.([]map[string]any)
	require.Len(t, pods, 1)
	assert.Equal(t, "web-1", pods[0]["name"])
}

func TestSecretGetRedactsValues(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db-creds", Namespace: "default"},
		Type:       corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			"password": []byte("hunter2"),
			"username": []byte("admin"),
		},
	}

	inv, _ := newTestInvocation(dispatch.Args{"name": "db-creds"}, secret)

	result, err := handleSecretGet(context.Background(), inv)
	require.NoError(t, err)

	data := result.(map[string]any)["data"].(map[string]string)
	assert.Equal(t, redactedValue, data["password"])
	assert.Equal(t, redactedValue, data["username"])
	assert.NotContains(t, data, "hunter2")
}

func TestSecretCreateStoresPlainData(t *testing.T) {
	inv, client := newTestInvocation(dispatch.Args{
		"name": "api-token",
		"data": map[string]any{"token": "abc123"},
	})

	_, err := handleSecretCreate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().Secrets("default").Get(context.Background(), "api-token", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.StringData["token"])
}

func TestConfigMapUpdateReplacesData(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "settings", Namespace: "default"},
		Data:       map[string]string{"old": "value"},
	}

	inv, client := newTestInvocation(dispatch.Args{
		"name": "settings",
		"data": map[string]any{"mode": "fast"},
	}, cm)

	result, err := handleConfigMapUpdate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.(map[string]any)["status"])

	got, err := client.CoreV1().ConfigMaps("default").Get(context.Background(), "settings", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mode": "fast"}, got.Data)
}

func TestNodeCordonAndUncordon(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "worker-1"}}
	inv, client := newTestInvocation(dispatch.Args{"name": "worker-1"}, node)

	result, err := handleNodeCordon(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Cordoned", result.(map[string]any)["status"])

	got, err := client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.True(t, got.Spec.Unschedulable)

	result, err = handleNodeUncordon(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Uncordoned", result.(map[string]any)["status"])

	got, err = client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.False(t, got.Spec.Unschedulable)
}

func TestNodeLabelMergesLabels(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{
		Name:   "worker-1",
		Labels: map[string]string{"existing": "yes"},
	}}
	inv, client := newTestInvocation(dispatch.Args{
		"name":   "worker-1",
		"labels": map[string]any{"pool": "general"},
	}, node)

	_, err := handleNodeLabel(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "general", got.Labels["pool"])
	assert.Equal(t, "yes", got.Labels["existing"])
}

func TestNodeUnlabelRemovesOnlyThatKey(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{
		Name:   "worker-1",
		Labels: map[string]string{"pool": "general", "zone": "eu-1"},
	}}
	inv, client := newTestInvocation(dispatch.Args{"name": "worker-1", "key": "pool"}, node)

	result, err := handleNodeUnlabel(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.(map[string]any)["status"])

	got, err := client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.NotContains(t, got.Labels, "pool")
	assert.Equal(t, "eu-1", got.Labels["zone"])
}

func TestNodeUnlabelMissingKeyLeavesNodeUntouched(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{
		Name:   "worker-1",
		Labels: map[string]string{"zone": "eu-1"},
	}}
	inv, _ := newTestInvocation(dispatch.Args{"name": "worker-1", "key": "pool"}, node)

	result, err := handleNodeUnlabel(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Unchanged", result.(map[string]any)["status"])
}

func TestNodeTaintAddReplaceAndRemove(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "worker-1"}}
	inv, client := newTestInvocation(dispatch.Args{
		"name":   "worker-1",
		"key":    "dedicated",
		"value":  "batch",
		"effect": "NoSchedule",
	}, node)

	_, err := handleNodeTaint(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.Spec.Taints, 1)
	assert.Equal(t, corev1.TaintEffectNoSchedule, got.Spec.Taints[0].Effect)

	// Same key again replaces the taint instead of appending a second one.
	inv.Args["effect"] = "NoExecute"
	_, err = handleNodeTaint(context.Background(), inv)
	require.NoError(t, err)

	got, err = client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.Spec.Taints, 1)
	assert.Equal(t, corev1.TaintEffectNoExecute, got.Spec.Taints[0].Effect)

	result, err := handleNodeUntaint(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.(map[string]any)["status"])

	got, err = client.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.Spec.Taints)

	result, err = handleNodeUntaint(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Unchanged", result.(map[string]any)["status"])
}

func TestNodeTaintRejectsBadEffect(t *testing.T) {
	node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "worker-1"}}
	inv, _ := newTestInvocation(dispatch.Args{
		"name":   "worker-1",
		"key":    "dedicated",
		"effect": "Sometimes",
	}, node)

	_, err := handleNodeTaint(context.Background(), inv)
	var invalidErr *dispatch.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "effect", invalidErr.Param)
}

func TestNodePodsReportsPodsAndCount(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "default"},
		Spec: corev1.PodSpec{
			NodeName:   "worker-1",
			Containers: []corev1.Container{{Name: "web", Image: "nginx"}},
		},
	}
	inv, _ := newTestInvocation(dispatch.Args{"name": "worker-1"}, pod)

	result, err := handleNodePods(context.Background(), inv)
	require.NoError(t, err)

	out := result.(map[string]any)
	assert.Equal(t, "worker-1", out["node"])
	assert.Equal(t, 1, out["count"])
	pods := out["pods"].([]map[string]any)
	require.Len(t, pods, 1)
	assert.Equal(t, "web-1", pods[0]["name"])
	assert.Equal(t, []string{"web"}, pods[0]["containers"])
}

func TestClusterRoleCreateGetAndDelete(t *testing.T) {
	inv, client := newTestInvocation(dispatch.Args{
		"name":      "pod-reader",
		"verbs":     []any{"get", "list"},
		"resources": []any{"pods"},
	})

	result, err := handleClusterRoleCreate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Created", result.(map[string]any)["status"])

	got, err := client.RbacV1().ClusterRoles().Get(context.Background(), "pod-reader", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, []string{"get", "list"}, got.Rules[0].Verbs)
	assert.Equal(t, []string{""}, got.Rules[0].APIGroups)

	getResult, err := handleClusterRoleGet(context.Background(), inv)
	require.NoError(t, err)
	rules := getResult.(map[string]any)["rules"].([]map[string]any)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"pods"}, rules[0]["resources"])

	_, err = handleClusterRoleDelete(context.Background(), inv)
	require.NoError(t, err)
	_, err = client.RbacV1().ClusterRoles().Get(context.Background(), "pod-reader", metav1.GetOptions{})
	assert.Error(t, err)
}

func TestServiceUpdateMergesLabels(t *testing.T) {
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{
		Name: "web", Namespace: "default",
		Labels: map[string]string{"team": "platform"},
	}}
	inv, client := newTestInvocation(dispatch.Args{
		"name":   "web",
		"labels": map[string]any{"tier": "frontend"},
	}, svc)

	result, err := handleServiceUpdate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.(map[string]any)["status"])

	got, err := client.CoreV1().Services("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "frontend", got.Labels["tier"])
	assert.Equal(t, "platform", got.Labels["team"])
}

func TestSecretUpdateSetsNewValues(t *testing.T) {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db-creds", Namespace: "default"},
		Type:       corev1.SecretTypeOpaque,
		Data:       map[string][]byte{"password": []byte("hunter2")},
	}
	inv, client := newTestInvocation(dispatch.Args{
		"name": "db-creds",
		"data": map[string]any{"password": "hunter3"},
	}, secret)

	result, err := handleSecretUpdate(context.Background(), inv)
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.(map[string]any)["status"])

	got, err := client.CoreV1().Secrets("default").Get(context.Background(), "db-creds", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hunter3", got.StringData["password"])
}

func TestDaemonSetUpdateSetsImage(t *testing.T) {
	ds := &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{Name: "log-agent", Namespace: "default"},
		Spec: appsv1.DaemonSetSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "agent", Image: "agent:1.0"}},
				},
			},
		},
	}
	inv, client := newTestInvocation(dispatch.Args{"name": "log-agent", "image": "agent:1.1"}, ds)

	_, err := handleDaemonSetUpdate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.AppsV1().DaemonSets("default").Get(context.Background(), "log-agent", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "agent:1.1", got.Spec.Template.Spec.Containers[0].Image)
}

func TestStatefulSetUpdateSetsImageAndReplicas(t *testing.T) {
	one := int32(1)
	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "default"},
		Spec: appsv1.StatefulSetSpec{
			Replicas: &one,
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "db", Image: "postgres:16"}},
				},
			},
		},
	}
	inv, client := newTestInvocation(dispatch.Args{
		"name":     "db",
		"image":    "postgres:17",
		"replicas": float64(3),
	}, sts)

	_, err := handleStatefulSetUpdate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.AppsV1().StatefulSets("default").Get(context.Background(), "db", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "postgres:17", got.Spec.Template.Spec.Containers[0].Image)
	require.NotNil(t, got.Spec.Replicas)
	assert.Equal(t, int32(3), *got.Spec.Replicas)
}

func TestIngressUpdateRewritesRuleKeepingPath(t *testing.T) {
	pathType := networkingv1.PathTypePrefix
	ing := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: "old.example.com",
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/api",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: "old-svc",
									Port: networkingv1.ServiceBackendPort{Number: 80},
								},
							},
						}},
					},
				},
			}},
		},
	}
	inv, client := newTestInvocation(dispatch.Args{
		"name":        "web",
		"host":        "new.example.com",
		"serviceName": "new-svc",
		"servicePort": float64(8080),
	}, ing)

	_, err := handleIngressUpdate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.NetworkingV1().Ingresses("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.Spec.Rules, 1)
	assert.Equal(t, "new.example.com", got.Spec.Rules[0].Host)
	paths := got.Spec.Rules[0].HTTP.Paths
	require.Len(t, paths, 1)
	assert.Equal(t, "/api", paths[0].Path)
	assert.Equal(t, "new-svc", paths[0].Backend.Service.Name)
	assert.Equal(t, int32(8080), paths[0].Backend.Service.Port.Number)
}

func TestPersistentVolumeUpdateMergesLabels(t *testing.T) {
	pv := &corev1.PersistentVolume{ObjectMeta: metav1.ObjectMeta{
		Name:   "pv-001",
		Labels: map[string]string{"backup": "daily"},
	}}
	inv, client := newTestInvocation(dispatch.Args{
		"name":   "pv-001",
		"labels": map[string]any{"tier": "fast"},
	}, pv)

	_, err := handlePersistentVolumeUpdate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().PersistentVolumes().Get(context.Background(), "pv-001", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fast", got.Labels["tier"])
	assert.Equal(t, "daily", got.Labels["backup"])
}

func TestPersistentVolumeClaimUpdateRequiresLabels(t *testing.T) {
	inv, _ := newTestInvocation(dispatch.Args{"name": "data"})

	_, err := handlePersistentVolumeClaimUpdate(context.Background(), inv)
	var invalidErr *dispatch.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "labels", invalidErr.Param)
}

func TestPersistentVolumeClaimCreateRejectsBadQuantity(t *testing.T) {
	inv, _ := newTestInvocation(dispatch.Args{
		"name":    "data",
		"storage": "not-a-quantity",
	})

	_, err := handlePersistentVolumeClaimCreate(context.Background(), inv)
	var invalidErr *dispatch.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "storage", invalidErr.Param)
}

func TestPersistentVolumeClaimCreate(t *testing.T) {
	inv, client := newTestInvocation(dispatch.Args{
		"name":         "data",
		"storage":      "10Gi",
		"storageClass": "fast-ssd",
	})

	_, err := handlePersistentVolumeClaimCreate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().PersistentVolumeClaims("default").Get(context.Background(), "data", metav1.GetOptions{})
	require.NoError(t, err)
	qty := got.Spec.Resources.Requests[corev1.ResourceStorage]
	assert.Equal(t, "10Gi", qty.String())
	require.NotNil(t, got.Spec.StorageClassName)
	assert.Equal(t, "fast-ssd", *got.Spec.StorageClassName)
}

func TestServiceCreateRequiresSelector(t *testing.T) {
	inv, _ := newTestInvocation(dispatch.Args{
		"name": "web",
		"port": float64(80),
	})

	_, err := handleServiceCreate(context.Background(), inv)
	var invalidErr *dispatch.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "selector", invalidErr.Param)
}

func TestServiceCreateDefaultsTargetPort(t *testing.T) {
	inv, client := newTestInvocation(dispatch.Args{
		"name":     "web",
		"port":     float64(80),
		"selector": map[string]any{"app": "web"},
	})

	_, err := handleServiceCreate(context.Background(), inv)
	require.NoError(t, err)

	got, err := client.CoreV1().Services("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.Spec.Ports, 1)
	assert.Equal(t, int32(80), got.Spec.Ports[0].Port)
	assert.Equal(t, int32(80), got.Spec.Ports[0].TargetPort.IntVal)
}

func TestMissingNameFailsBeforeAPICall(t *testing.T) {
	inv, _ := newTestInvocation(dispatch.Args{})

	_, err := handlePodGet(context.Background(), inv)
	assert.True(t, errors.Is(err, dispatch.ErrInvalidArgument))
}
