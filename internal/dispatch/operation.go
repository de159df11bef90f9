package dispatch

import (
	"context"
	"fmt"

	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

// ParamType describes the wire type of one operation parameter. The server
// bridge uses it to derive the tool-call schema.
type ParamType int

const (
	ParamString ParamType = iota
	ParamNumber
	ParamBool
	ParamObject
	ParamStringArray
)

// Param describes one operation parameter.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
}

// HandlerFunc performs one operation against a resolved client bundle. The
// returned value must be a plain structured result (maps, slices, structs
// with JSON tags), never the client handle or other internal state.
type HandlerFunc func(ctx context.Context, inv *Invocation) (any, error)

// Operation is the static descriptor for one exposed operation. The set of
// operations is fixed at startup and never mutated at runtime.
type Operation struct {
	// Name is the unique operation name, e.g. "pod_list".
	Name string

	// Kind is the resource kind the operation targets, e.g. "Pod".
	Kind string

	// Class is the explicit mutation classification driving the policy
	// gate. Derived from the operation's semantic intent, not its name.
	Class policy.MutationClass

	// Summary is the human-readable description exposed on the tool.
	Summary string

	// Params describes the operation's arguments beyond the shared
	// context parameter.
	Params []Param

	// Handler performs the operation.
	Handler HandlerFunc
}

// Invocation carries the resolved state a handler needs for one call.
type Invocation struct {
	// Clients is the client bundle for the resolved context.
	Clients *k8s.ClientSet

	// Context is the resolved context descriptor.
	Context *kubecontext.Descriptor

	// Contexts is the full context registry, for operations over the
	// context set itself.
	Contexts *kubecontext.Registry

	// Args holds the raw operation arguments.
	Args Args
}

// Namespace returns the namespace argument, falling back to the resolved
// context's default namespace.
func (inv *Invocation) Namespace() string {
	if ns := inv.Args.String("namespace"); ns != "" {
		return ns
	}
	return inv.Context.DefaultNamespace()
}

// Registry is the closed operation table mapping operation names to
// descriptors. Built once at startup, immutable afterwards.
type Registry struct {
	byName map[string]*Operation
	order  []string
}

// NewRegistry builds the operation table. Duplicate names and operations
// without a handler are rejected: the table must be exhaustive and
// unambiguous before the server starts.
func NewRegistry(operations []Operation) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Operation, len(operations))}
	for i := range operations {
		op := operations[i]
		if op.Name == "" {
			return nil, fmt.Errorf("operation at index %d has no name", i)
		}
		if op.Handler == nil {
			return nil, fmt.Errorf("operation %q has no handler", op.Name)
		}
		if _, exists := r.byName[op.Name]; exists {
			return nil, fmt.Errorf("duplicate operation %q", op.Name)
		}
		r.byName[op.Name] = &op
		r.order = append(r.order, op.Name)
	}
	return r, nil
}

// Lookup resolves an operation name, failing with *UnknownOperationError when
// the name is not registered.
func (r *Registry) Lookup(name string) (*Operation, error) {
	op, ok := r.byName[name]
	if !ok {
		return nil, &UnknownOperationError{Name: name}
	}
	return op, nil
}

// Operations returns all descriptors in registration order.
func (r *Registry) Operations() []*Operation {
	out := make([]*Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	return len(r.byName)
}
