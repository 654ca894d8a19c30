package schemaguard

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ValidationResult is the Validator's (C9) output: either Valid, or a
// DecodeError describing the first key-closure violation found.
type ValidationResult struct {
	Valid bool
	Err   *DecodeError
}

// Validate parses generated as JSON and checks that every object's key set
// is a subset of its matching schema node's declared keys, recursing into
// nested objects/arrays per the schema tree. On a JSON syntax error or a
// closure violation, returns a failing result without attempting repair.
func Validate(generated string, schema *SchemaNode) ValidationResult {
	var doc any
	if err := json.Unmarshal([]byte(generated), &doc); err != nil {
		return ValidationResult{Err: NewDecodeError(ErrSchemaViolation, "", 0, fmt.Sprintf("invalid JSON: %v", err))}
	}

	if violation := checkKeyClosure(doc, schema, ""); violation != "" {
		return ValidationResult{Err: NewDecodeError(ErrSchemaViolation, "", 0, violation)}
	}

	return ValidationResult{Valid: true}
}

// checkKeyClosure recursively verifies key(object) ⊆ declared_keys(node)
// at every nesting level. Returns a human-readable violation description,
// or "" when the document conforms. path is a dotted breadcrumb used only
// for the violation message.
func checkKeyClosure(v any, node *SchemaNode, path string) string {
	if node == nil || node.Kind == KindAny {
		return "" // unknown frames: no key constraint to check
	}

	switch val := v.(type) {
	case map[string]any:
		if node.Kind != KindObject {
			return "" // type mismatch beyond key-closure scope; see Non-goals
		}
		for key := range val {
			if !hasProperty(node, key) {
				return fmt.Sprintf("%s: key %q not declared by schema", orRoot(path), key)
			}
		}
		for key, child := range val {
			if childNode, ok := node.Child(key); ok {
				if violation := checkKeyClosure(child, childNode, joinPath(path, key)); violation != "" {
					return violation
				}
			}
		}
		return ""

	case []any:
		if node.Kind != KindArray {
			return ""
		}
		elem := node.Element()
		for i, item := range val {
			if violation := checkKeyClosure(item, elem, fmt.Sprintf("%s[%d]", path, i)); violation != "" {
				return violation
			}
		}
		return ""

	default:
		return ""
	}
}

func hasProperty(node *SchemaNode, key string) bool {
	_, ok := node.Child(key)
	return ok
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func orRoot(path string) string {
	if strings.TrimSpace(path) == "" {
		return "$"
	}
	return path
}
