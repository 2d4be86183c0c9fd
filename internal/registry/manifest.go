package registry

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/nodeflow/internal/fsutil"
)

// manifestRootSchema is the top-level shape of a *.hcl catalog file: one or
// more node_type blocks describing the editor-facing metadata for a
// compiled-in Go node type. It never carries wiring or behavior — that
// lives entirely in the Go Factory registered via RegisterNodeType.
type manifestRootSchema struct {
	NodeTypes []hclNodeType `hcl:"node_type,block"`
}

type hclNodeType struct {
	TypeID      string   `hcl:"type_id,label"`
	DisplayName string   `hcl:"display_name,optional"`
	Category    string   `hcl:"category,optional"`
	Description string   `hcl:"description,optional"`
	Defaults    *hclBody `hcl:"defaults,block"`
}

// hclBody defers evaluation of the "defaults" block's attributes: each one
// is a literal HCL expression of arbitrary type (string, number, bool),
// evaluated with no variables in scope, the same restriction the teacher's
// hcl_adapter places on catalog-level literals.
type hclBody struct {
	Body hcl.Body `hcl:",remain"`
}

// LoadManifests walks dir for *.hcl catalog files and merges their
// display_name/category/description metadata, plus any port default
// literals, into already-registered node types. A manifest entry for a
// type_id with no matching Go factory is ignored; a type_id with a factory
// but no manifest entry keeps whatever metadata its Module.Register call
// supplied.
func (r *Registry) LoadManifests(dir string) error {
	paths, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return fmt.Errorf("registry: walking manifest dir %s: %w", dir, err)
	}

	parser := hclparse.NewParser()
	for _, path := range paths {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return fmt.Errorf("registry: parsing manifest %s: %w", path, diags)
		}

		var schema manifestRootSchema
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &schema); diags.HasErrors() {
			return fmt.Errorf("registry: decoding manifest %s: %w", path, diags)
		}

		for _, nt := range schema.NodeTypes {
			reg, ok := r.types[nt.TypeID]
			if !ok {
				continue
			}
			if nt.DisplayName != "" {
				reg.DisplayName = nt.DisplayName
			}
			if nt.Category != "" {
				reg.Category = nt.Category
			}
			if nt.Description != "" {
				reg.Description = nt.Description
			}
			if nt.Defaults != nil {
				defaults, err := evalDefaults(nt.Defaults.Body)
				if err != nil {
					return fmt.Errorf("registry: manifest %s: node_type %q: %w", path, nt.TypeID, err)
				}
				if reg.ManifestDefaults == nil {
					reg.ManifestDefaults = make(map[string]json.RawMessage, len(defaults))
				}
				for port, raw := range defaults {
					reg.ManifestDefaults[port] = raw
				}
			}
		}
	}
	return nil
}

// evalDefaults reads every attribute in a defaults block as a literal
// expression (no variables, no functions) and converts its cty.Value to
// the JSON encoding value.ParseLiteral expects, so Build can feed it
// through C1's existing literal codec instead of a parallel one.
func evalDefaults(body hcl.Body) (map[string]json.RawMessage, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	out := make(map[string]json.RawMessage, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("port %q default: %w", name, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("port %q default: %w", name, err)
		}
		raw, err := json.Marshal(native)
		if err != nil {
			return nil, fmt.Errorf("port %q default: encoding to JSON: %w", name, err)
		}
		out[name] = raw
	}
	return out, nil
}

// ctyToNative converts a cty.Value carrying a literal (string, number,
// bool, or a list/tuple of those) into its native Go representation, the
// same reduction the teacher's hcl_adapter performs before an "any"-typed
// input reaches user code.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	switch {
	case v.Type() == cty.String:
		return v.AsString(), nil
	case v.Type() == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("converting cty.Number: %w", err)
		}
		return f, nil
	case v.Type() == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("converting cty.Bool: %w", err)
		}
		return b, nil
	case v.Type().IsListType() || v.Type().IsTupleType():
		items := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unsupported default-value type %s", v.Type().FriendlyName())
	}
}
