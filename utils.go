package schemaguard

import "strings"

// defsRefName returns the $defs name a ref points at when ref has the form
// "#/$defs/Name", and false otherwise. This is the only $ref shape this
// package resolves — see DESIGN.md for why full URI/anchor resolution was
// dropped.
func defsRefName(ref string) (string, bool) {
	const prefix = "#/$defs/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// jsonKind classifies a decoded any value (as produced by encoding/json or
// goccy/go-json into interface{}) into a Kind. The Validator does not call
// it; Validate checks key closure only, not value kinds.
func jsonKind(v any) Kind {
	switch val := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case string:
		return KindString
	case float64:
		if val == float64(int64(val)) {
			return KindInteger
		}
		return KindNumber
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	default:
		return KindAny
	}
}
