package tools

import "fmt"

// Tool binds a descriptor to its handler.
type Tool struct {
	Descriptor
	Handler HandlerFunc
}

// Registry is the name-keyed tool table. It is filled once at construction
// and only read afterwards, so lookups need no locking.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering the same name twice panics.
func (r *Registry) Register(d Descriptor, h HandlerFunc) {
	if _, dup := r.tools[d.Name]; dup {
		panic(fmt.Sprintf("tools: duplicate tool %q", d.Name))
	}
	if h == nil {
		panic(fmt.Sprintf("tools: nil handler for %q", d.Name))
	}
	r.tools[d.Name] = Tool{Descriptor: d, Handler: h}
	r.order = append(r.order, d.Name)
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	result := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name].Descriptor)
	}
	return result
}

func (r *Registry) Len() int { return len(r.order) }
