// Package port defines the named, typed channel descriptor nodes declare
// for their inputs and outputs.
package port

import "github.com/vk/nodeflow/internal/value"

// Port describes one input or output channel on a node. Required is only
// meaningful when the Port is used as an input; an output Port's Required
// is ignored by the validator.
type Port struct {
	Name        string
	DataType    value.DeclaredType
	Description string
	Required    bool
}

// New builds a Port with the given name and type. Use With* to set the
// optional fields, matching the teacher's small builder-style config
// structs rather than a variadic-options constructor.
func New(name string, t value.DeclaredType) Port {
	return Port{Name: name, DataType: t}
}

func (p Port) WithDescription(d string) Port {
	p.Description = d
	return p
}

func (p Port) WithRequired(required bool) Port {
	p.Required = required
	return p
}

// Find returns the port named name, if present.
func Find(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// UniqueNames reports whether every port in ports has a distinct name.
func UniqueNames(ports []Port) bool {
	seen := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		if _, ok := seen[p.Name]; ok {
			return false
		}
		seen[p.Name] = struct{}{}
	}
	return true
}
