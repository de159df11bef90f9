package ops

import "github.com/k8s-pilot/k8s-pilot/internal/dispatch"

// All returns the complete operation table. The slice order groups
// operations by resource kind; the dispatch registry preserves it for tool
// listings.
func All() []dispatch.Operation {
	var out []dispatch.Operation
	out = append(out, clusterOperations()...)
	out = append(out, namespaceOperations()...)
	out = append(out, podOperations()...)
	out = append(out, deploymentOperations()...)
	out = append(out, serviceOperations()...)
	out = append(out, configMapOperations()...)
	out = append(out, secretOperations()...)
	out = append(out, statefulSetOperations()...)
	out = append(out, daemonSetOperations()...)
	out = append(out, replicaSetOperations()...)
	out = append(out, ingressOperations()...)
	out = append(out, nodeOperations()...)
	out = append(out, persistentVolumeOperations()...)
	out = append(out, persistentVolumeClaimOperations()...)
	out = append(out, roleOperations()...)
	out = append(out, clusterRoleOperations()...)
	out = append(out, serviceAccountOperations()...)
	return out
}
