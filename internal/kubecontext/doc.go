// Package kubecontext loads the set of reachable cluster contexts and resolves
// context names to connection descriptors.
//
// The registry is populated exactly once at startup, either from a kubeconfig
// file (honouring KUBECONFIG and an explicit path) or from the in-cluster
// service account mount. It is immutable afterwards: contexts added to the
// kubeconfig while the process is running are not picked up.
//
// A process with zero usable contexts must not serve; Load fails with a
// *LoadError in that case so callers can abort startup.
package kubecontext
