package layout

import (
	"context"
	"fmt"
	"sort"

	"github.com/grovetools/layman/config"
	"github.com/grovetools/layman/errors"
)

// Registry maps layout names to factories. Registered layouts are
// built-in; variants are [layout.<name>] tables that preset the options
// of a registered layout and are replaced on every config reload.
type Registry struct {
	factories map[string]Factory
	variants  map[string]string
}

// NewRegistry returns a registry holding only the "none" layout.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		variants:  make(map[string]string),
	}
	r.Register(NoneName, NewNone)
	return r
}

// Register adds a layout. Registering a name again replaces it.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// LoadVariants replaces the variant set with the [layout.*] tables of
// opts. On error the previous variants stay in place.
func (r *Registry) LoadVariants(opts *config.Options) error {
	variants := make(map[string]string)
	for _, name := range opts.Variants() {
		v, _ := opts.Variant(name)
		if _, builtin := r.factories[name]; builtin {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("layout.%s: name is taken by a built-in layout", name)).
				WithDetail("variant", name)
		}
		if _, ok := r.factories[v.Base]; !ok {
			return errors.UnknownLayout(v.Base, "layout."+name, r.builtins())
		}
		variants[name] = v.Base
	}
	r.variants = variants
	return nil
}

// Has reports whether name is a registered layout or variant.
func (r *Registry) Has(name string) bool {
	if _, ok := r.factories[name]; ok {
		return true
	}
	_, ok := r.variants[name]
	return ok
}

// Available returns every usable layout name, sorted.
func (r *Registry) Available() []string {
	names := r.builtins()
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the manager called name for p.WorkspaceName.
func (r *Registry) Create(ctx context.Context, name string, p Params) (Manager, error) {
	base := name
	p.Variant = ""
	if b, ok := r.variants[name]; ok {
		base = b
		p.Variant = name
	}
	f, ok := r.factories[base]
	if !ok {
		return nil, errors.UnknownLayout(name, p.WorkspaceName, r.Available())
	}
	return f(ctx, p)
}

func (r *Registry) builtins() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
