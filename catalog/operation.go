package catalog

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-deliverect/core"
	goerrors "github.com/goliatone/go-errors"
)

const internalSuffix = " (Internal)"

const internalNote = "Intended for Deliverect integrations, not standard automations."

// Request is the query and body an operation derives from its parameters.
type Request struct {
	Query map[string]string
	Body  any
}

// Prepare derives query and body values for one call.
type Prepare func(params Params) (Request, error)

// Operation describes one Deliverect endpoint. Path placeholders use
// {name} and are filled from parameters of the same name.
type Operation struct {
	Resource    string
	Name        string
	DisplayName string
	Description string
	Method      string
	Path        string
	// Projection is sent JSON encoded unless fetchFullPayload is set.
	Projection map[string]any
	Paginated  bool
	Internal   bool
	Prepare    Prepare
}

func (o Operation) Key() string {
	return o.Resource + "/" + o.Name
}

// Label is the display name with the internal marker applied.
func (o Operation) Label() string {
	if o.Internal && !strings.Contains(o.DisplayName, internalSuffix) {
		return o.DisplayName + internalSuffix
	}
	return o.DisplayName
}

func (o Operation) Summary() string {
	if !o.Internal {
		return o.Description
	}
	if o.Description == "" {
		return internalNote
	}
	return o.Description + " " + internalNote
}

// Registry indexes operations by resource and name.
type Registry struct {
	mu         sync.RWMutex
	operations map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{operations: map[string]Operation{}}
}

// DefaultRegistry holds every built-in Deliverect operation.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	for _, group := range [][]Operation{
		accountOperations(),
		userOperations(),
		channelOperations(),
		commerceOperations(),
		posOperations(),
		storeOperations(),
	} {
		for _, op := range group {
			if err := registry.Register(op); err != nil {
				panic(err)
			}
		}
	}
	return registry
}

func (r *Registry) Register(op Operation) error {
	if r == nil {
		return fmt.Errorf("catalog: registry is nil")
	}
	op.Resource = strings.TrimSpace(op.Resource)
	op.Name = strings.TrimSpace(op.Name)
	if op.Resource == "" || op.Name == "" {
		return fmt.Errorf("catalog: operation resource and name are required")
	}
	if strings.TrimSpace(op.Path) == "" {
		return fmt.Errorf("catalog: operation %s path is required", op.Key())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operations[op.Key()]; exists {
		return fmt.Errorf("catalog: operation %s already registered", op.Key())
	}
	r.operations[op.Key()] = op
	return nil
}

func (r *Registry) Get(resource string, name string) (Operation, bool) {
	if r == nil {
		return Operation{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operations[strings.TrimSpace(resource)+"/"+strings.TrimSpace(name)]
	return op, ok
}

// Lookup is Get with a not-found error envelope.
func (r *Registry) Lookup(resource string, name string) (Operation, error) {
	op, ok := r.Get(resource, name)
	if !ok {
		return Operation{}, goerrors.New("catalog: unknown operation "+resource+"/"+name, goerrors.CategoryNotFound).
			WithCode(http.StatusNotFound).
			WithTextCode(core.ErrorOperationNotFound).
			WithMetadata(map[string]any{"resource": resource, "operation": name})
	}
	return op, nil
}

// List returns operations ordered by resource then name.
func (r *Registry) List() []Operation {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Operation, 0, len(r.operations))
	for _, op := range r.operations {
		out = append(out, op)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (o Operation) Descriptor() core.OperationDescriptor {
	return core.OperationDescriptor{
		Resource:    o.Resource,
		Name:        o.Name,
		DisplayName: o.Label(),
		Description: o.Summary(),
		Method:      o.Method,
		Path:        o.Path,
		Paginated:   o.Paginated,
		Internal:    o.Internal,
	}
}

// Descriptors lists the public descriptors in List order.
func (r *Registry) Descriptors() []core.OperationDescriptor {
	ops := r.List()
	out := make([]core.OperationDescriptor, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Descriptor())
	}
	return out
}
