package schemaguard

import (
	"fmt"

	"github.com/goccy/go-json"
)

// DraftSchema is the caller-facing, JSON Schema draft-07-shaped input type.
// Loading a schema from JSON is "the responsibility of the caller" (spec
// §6); DraftSchema is the concrete representation that responsibility
// typically takes, and Compile lowers it into the immutable *SchemaNode
// tree the decoding core actually consumes.
type DraftSchema struct {
	ID         string                  `json:"$id,omitempty"`
	Ref        string                  `json:"$ref,omitempty"`
	Defs       map[string]*DraftSchema `json:"$defs,omitempty"`
	Type       string                  `json:"type,omitempty"`
	Properties map[string]*DraftSchema `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
	Items      *DraftSchema            `json:"items,omitempty"`
}

// draftSchemaAlias exists purely so UnmarshalJSON can decode into a type
// without triggering infinite recursion through DraftSchema's own method.
type draftSchemaAlias DraftSchema

// draftSchemaWire mirrors draftSchemaAlias but additionally accepts the
// draft-07 "definitions" keyword as a synonym for "$defs".
type draftSchemaWire struct {
	draftSchemaAlias
	Definitions map[string]*DraftSchema `json:"definitions,omitempty"`
}

// UnmarshalJSON decodes a draft-07 document, treating "definitions" as a
// backward-compatible alias for "$defs" when "$defs" itself is absent.
func (d *DraftSchema) UnmarshalJSON(data []byte) error {
	var wire draftSchemaWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("schemaguard: decode draft schema: %w", err)
	}
	*d = DraftSchema(wire.draftSchemaAlias)
	if d.Defs == nil && wire.Definitions != nil {
		d.Defs = wire.Definitions
	}
	return nil
}

// Compile lowers d into a *SchemaNode tree using c's cache, per spec §3's
// "already-built schema tree" handoff.
func (d *DraftSchema) Compile(c *DraftCompiler) (*SchemaNode, error) {
	return c.Compile(d)
}

// resolveRefs returns a copy of d with every $ref replaced by the
// referenced node, resolved against root's $defs. Only same-document
// "#/$defs/Name" refs are supported — see DESIGN.md.
func (d *DraftSchema) resolveRefs(root *DraftSchema) (*DraftSchema, error) {
	return resolveDraftRefs(d, root, make(map[*DraftSchema]bool))
}

func resolveDraftRefs(d, root *DraftSchema, visiting map[*DraftSchema]bool) (*DraftSchema, error) {
	if d == nil {
		return nil, nil
	}

	if d.Ref != "" {
		name, ok := defsRefName(d.Ref)
		if !ok {
			return nil, fmt.Errorf("schemaguard: unsupported $ref %q: only #/$defs/Name refs are resolved", d.Ref)
		}
		target, ok := root.Defs[name]
		if !ok {
			return nil, fmt.Errorf("schemaguard: $ref %q: no such entry in $defs", d.Ref)
		}
		if visiting[target] {
			return nil, fmt.Errorf("schemaguard: $ref %q: cyclic reference", d.Ref)
		}
		visiting[target] = true
		resolved, err := resolveDraftRefs(target, root, visiting)
		delete(visiting, target)
		return resolved, err
	}

	out := &DraftSchema{ID: d.ID, Type: d.Type, Required: d.Required}

	if d.Properties != nil {
		out.Properties = make(map[string]*DraftSchema, len(d.Properties))
		for name, child := range d.Properties {
			resolved, err := resolveDraftRefs(child, root, visiting)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			out.Properties[name] = resolved
		}
	}

	if d.Items != nil {
		resolved, err := resolveDraftRefs(d.Items, root, visiting)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = resolved
	}

	return out, nil
}

// toSchemaNode lowers a ref-resolved DraftSchema tree into a *SchemaNode
// tree, validating that every object node declares at least one key
// (ErrEmptyConstraints) along the way.
func (d *DraftSchema) toSchemaNode() (*SchemaNode, error) {
	if d == nil {
		return NewLeaf(KindAny), nil
	}

	switch d.Type {
	case "object":
		if len(d.Properties) == 0 {
			return nil, NewDecodeError(ErrEmptyConstraints, "", 0, "")
		}
		properties := make(map[string]*SchemaNode, len(d.Properties))
		for name, child := range d.Properties {
			node, err := child.toSchemaNode()
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			properties[name] = node
		}
		return NewObject(properties, d.Required...), nil

	case "array":
		element, err := d.Items.toSchemaNode()
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		return NewArray(element), nil

	case "string":
		return NewLeaf(KindString), nil
	case "integer":
		return NewLeaf(KindInteger), nil
	case "number":
		return NewLeaf(KindNumber), nil
	case "boolean":
		return NewLeaf(KindBoolean), nil
	case "null":
		return NewLeaf(KindNull), nil
	case "":
		return NewLeaf(KindAny), nil
	default:
		return nil, fmt.Errorf("schemaguard: unsupported draft schema type %q", d.Type)
	}
}
