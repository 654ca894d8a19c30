package schemaguard

// Prop and the Obj/Arr/Str/... constructors let callers build a *SchemaNode
// tree directly in Go, without a JSON round-trip through DraftSchema.
// Mirrors the teacher's Object()/String()/Prop() constructor API.

// Property pairs a declared object key with its child schema.
type Property struct {
	Name string
	Node *SchemaNode
}

// Prop creates a property definition for use inside Obj.
func Prop(name string, node *SchemaNode) Property {
	return Property{Name: name, Node: node}
}

// Obj builds an object SchemaNode from a list of properties followed
// optionally by a Req(...) call's required names. Required names not
// listed as properties are ignored.
func Obj(items ...any) *SchemaNode {
	properties := make(map[string]*SchemaNode)
	var required []string

	for _, item := range items {
		switch v := item.(type) {
		case Property:
			properties[v.Name] = v.Node
		case requiredNames:
			required = append(required, v...)
		}
	}

	return NewObject(properties, required...)
}

// requiredNames is the marker type Req returns so Obj can distinguish it
// from a Property in its variadic items.
type requiredNames []string

// Req marks the given property names as required when passed to Obj.
func Req(names ...string) requiredNames {
	return requiredNames(names)
}

// Arr builds an array SchemaNode with the given element schema.
func Arr(element *SchemaNode) *SchemaNode {
	return NewArray(element)
}

// Str builds a string leaf SchemaNode.
func Str() *SchemaNode { return NewLeaf(KindString) }

// Int builds an integer leaf SchemaNode.
func Int() *SchemaNode { return NewLeaf(KindInteger) }

// Num builds a number leaf SchemaNode.
func Num() *SchemaNode { return NewLeaf(KindNumber) }

// Bool builds a boolean leaf SchemaNode.
func Bool() *SchemaNode { return NewLeaf(KindBoolean) }

// Null builds a null leaf SchemaNode.
func Null() *SchemaNode { return NewLeaf(KindNull) }

// Any builds a SchemaNode for a site whose shape is intentionally
// unconstrained (key constraints off, structural syntax still enforced).
func Any() *SchemaNode { return NewLeaf(KindAny) }
