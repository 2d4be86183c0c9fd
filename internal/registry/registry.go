package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/nodeflow/internal/node"
)

// Factory builds a fresh node instance with the given persisted id and
// display name. Called once per node definition when a graph is built.
type Factory func(id, displayName string) node.Node

// Registration is one entry in the catalog: the compiled Go factory plus
// the metadata an editor would show a user browsing available node types.
type Registration struct {
	TypeID      string
	DisplayName string
	Category    string
	Description string
	Factory     Factory

	// ManifestDefaults holds catalog-level inline-default literals for this
	// type's input ports, keyed by port name and populated by LoadManifests
	// from a manifest's "defaults" block. Build applies one only when the
	// graph document itself supplies no inline value for that port.
	ManifestDefaults map[string]json.RawMessage
}

// Module is the interface Go packages implement to register their node
// types with a Registry, mirroring the teacher's registry.Module
// interface and its Module.Register(*registry.Registry) call sites.
type Module interface {
	Register(r *Registry)
}

// Registry is the process-wide type-id -> factory map (C5). It is built
// once at startup by registering every compiled-in Module and, optionally,
// enriched with catalog metadata from HCL manifest files.
type Registry struct {
	types map[string]*Registration
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{types: make(map[string]*Registration)}
}

// RegisterNodeType adds a factory under type_id. Duplicate registration of
// the same type_id is a programmer error and panics immediately, matching
// the teacher's RegisterRunner/RegisterAssetHandler behavior.
func (r *Registry) RegisterNodeType(reg *Registration) {
	if _, exists := r.types[reg.TypeID]; exists {
		panic(fmt.Sprintf("registry: node type %q already registered", reg.TypeID))
	}
	slog.Debug("Registering node type.", "type_id", reg.TypeID)
	r.types[reg.TypeID] = reg
}

// Lookup returns the registration for type_id, if any.
func (r *Registry) Lookup(typeID string) (*Registration, bool) {
	reg, ok := r.types[typeID]
	return reg, ok
}

// TypeIDs returns every registered type_id, for diagnostics.
func (r *Registry) TypeIDs() []string {
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	return ids
}

// AllTypes returns every registration in the catalog, sorted by type_id —
// the browsing surface a graph editor would use to populate a palette,
// grounded on the original engine's NodeRegistry::get_all_types.
func (r *Registry) AllTypes() []*Registration {
	out := make([]*Registration, 0, len(r.types))
	for _, id := range r.TypeIDs() {
		out = append(out, r.types[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// TypesByCategory returns every registration whose Category matches,
// sorted by type_id, grounded on NodeRegistry::get_types_by_category.
func (r *Registry) TypesByCategory(category string) []*Registration {
	var out []*Registration
	for _, reg := range r.AllTypes() {
		if reg.Category == category {
			out = append(out, reg)
		}
	}
	return out
}

// Categories returns every distinct Category present in the catalog,
// sorted and de-duplicated, grounded on NodeRegistry::get_categories.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, reg := range r.types {
		if reg.Category == "" {
			continue
		}
		seen[reg.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RegisterModules registers every given Module against the Registry.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
