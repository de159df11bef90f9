package ops

import (
	"encoding/json"
	"sort"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
)

// Shared parameter descriptors. The "context" parameter is added by the
// server bridge, not here.

func paramNamespace() dispatch.Param {
	return dispatch.Param{
		Name:        "namespace",
		Type:        dispatch.ParamString,
		Description: "Target namespace (defaults to the context's namespace)",
	}
}

func paramName(kind string) dispatch.Param {
	return dispatch.Param{
		Name:        "name",
		Type:        dispatch.ParamString,
		Required:    true,
		Description: "Name of the " + kind,
	}
}

func paramLabels() dispatch.Param {
	return dispatch.Param{
		Name:        "labels",
		Type:        dispatch.ParamObject,
		Description: "Labels to apply as a string-to-string object",
	}
}

// manifestYAML renders an object as YAML with managedFields stripped, the
// shape an operator would see from kubectl get -o yaml.
func manifestYAML(obj runtime.Object) string {
	clone := obj.DeepCopyObject()
	if acc, err := meta.Accessor(clone); err == nil {
		acc.SetManagedFields(nil)
	}
	data, err := yaml.Marshal(clone)
	if err != nil {
		return ""
	}
	return string(data)
}

// created, updated, deleted are the uniform write-result shapes.

func created(kind, namespace, name string) map[string]any {
	return writeResult(kind, namespace, name, "Created")
}

func updated(kind, namespace, name string) map[string]any {
	return writeResult(kind, namespace, name, "Updated")
}

func deleted(kind, namespace, name string) map[string]any {
	return writeResult(kind, namespace, name, "Deleted")
}

// labelsPatch builds a strategic merge patch that merges labels into an
// object's metadata.
func labelsPatch(labels map[string]string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"metadata": map[string]any{"labels": labels},
	})
}

// sortedKeys returns the keys of a string map in stable order, used when a
// listing reports key names without values.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeResult(kind, namespace, name, status string) map[string]any {
	out := map[string]any{
		"kind":   kind,
		"name":   name,
		"status": status,
	}
	if namespace != "" {
		out["namespace"] = namespace
	}
	return out
}
