// Package fieldpath resolves dot-notation field paths (e.g. "user.email")
// against a JSON object via RFC-6901-style JSON Pointer translation, backing
// the require_fields/field_types matchers and the get_field/has_field
// expression functions.
package fieldpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DotToPointer converts a dot-notation path to a "/"-joined JSON Pointer,
// escaping "~" to "~0" and "/" to "~1" per RFC 6901.
func DotToPointer(dot string) string {
	segments := strings.Split(dot, ".")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, "~", "~0")
		seg = strings.ReplaceAll(seg, "/", "~1")
		segments[i] = seg
	}
	return strings.Join(segments, "/")
}

// dotToGJSONPath converts a dot path to gjson's own path syntax. gjson
// already uses "." as its separator and "\" to escape literal dots, so for
// the identifier grammar this project accepts (no literal dots inside a
// segment), the dot path is usable as-is; this helper exists so the
// RFC-6901 escaping semantics stay centralized in DotToPointer for callers
// that need the canonical pointer form (e.g. debug traces).
func dotToGJSONPath(dot string) string {
	return dot
}

// Resolve looks up dot inside the JSON object raw. present is false when the
// path does not exist or resolves to an explicit JSON null.
func Resolve(raw []byte, dot string) (value any, present bool) {
	if len(raw) == 0 {
		return nil, false
	}
	result := gjson.GetBytes(raw, dotToGJSONPath(dot))
	if !result.Exists() {
		return nil, false
	}
	if result.Type == gjson.Null {
		return nil, false
	}
	return result.Value(), true
}

// Kind names the JSON type a resolved value carries, matching the
// {string, number, boolean, array, object} vocabulary field_types accepts.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindAny     Kind = "any"
	KindNull    Kind = "null"
)

// KindOf classifies a resolved Go value (as produced by Resolve) into Kind.
func KindOf(value any) Kind {
	switch value.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case float64, int, int64:
		return KindNumber
	case bool:
		return KindBoolean
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindAny
	}
}

// ValidatePath enforces the grammar ident ("." ident)* : no leading,
// trailing, consecutive, or empty segments.
func ValidatePath(dot string) error {
	if dot == "" {
		return fmt.Errorf("field path must not be empty")
	}
	if strings.HasPrefix(dot, ".") || strings.HasSuffix(dot, ".") {
		return fmt.Errorf("field path %q must not start or end with '.'", dot)
	}
	segments := strings.Split(dot, ".")
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("field path %q has an empty segment", dot)
		}
	}
	return nil
}

// ValidKind reports whether t is one of the declared field_types values.
func ValidKind(t string) bool {
	switch Kind(t) {
	case KindString, KindNumber, KindBoolean, KindArray, KindObject, KindAny:
		return true
	default:
		return false
	}
}
