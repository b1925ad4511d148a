// Package lookup resolves logical fields from upstream JSON payloads whose
// shape varies across entity types and API versions. The same logical field
// (an external post id, a media URL, an account id) can appear under
// different keys and at different nesting levels, so resolution is an
// ordered multi-path search rather than a fixed schema access.
package lookup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds the recursive fallback search.
const DefaultMaxDepth = 5

// Resolve extracts the first truthy value for any of the candidate keys.
// Resolution order:
//  1. candidate keys at the record's top level, in order;
//  2. candidate keys inside each of the named nested sub-objects, in order;
//  3. bounded-depth pre-order search across the whole structure.
//
// It returns nil when no candidate resolves.
func Resolve(record map[string]any, keys []string, nested []string) any {
	if record == nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := record[key]; ok && truthy(v) {
			return v
		}
	}
	for _, name := range nested {
		sub, ok := record[name].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range keys {
			if v, ok := sub[key]; ok && truthy(v) {
				return v
			}
		}
	}
	return deepSearch(record, keys, 0, DefaultMaxDepth)
}

// ResolveString resolves and stringifies; empty string when unresolved.
func ResolveString(record map[string]any, keys []string, nested []string) string {
	v := Resolve(record, keys, nested)
	if v == nil {
		return ""
	}
	return Stringify(v)
}

// deepSearch walks maps then lists, pre-order, returning the first truthy
// value stored under any candidate key. Sibling map keys are visited in
// sorted order so results are deterministic for decoded JSON.
func deepSearch(obj any, keys []string, depth, maxDepth int) any {
	if depth > maxDepth {
		return nil
	}
	switch node := obj.(type) {
	case map[string]any:
		for _, key := range keys {
			if v, ok := node[key]; ok && truthy(v) {
				return v
			}
		}
		childKeys := make([]string, 0, len(node))
		for k := range node {
			childKeys = append(childKeys, k)
		}
		sort.Strings(childKeys)
		for _, k := range childKeys {
			if v := deepSearch(node[k], keys, depth+1, maxDepth); v != nil {
				return v
			}
		}
	case []any:
		for _, item := range node {
			if v := deepSearch(item, keys, depth+1, maxDepth); v != nil {
				return v
			}
		}
	}
	return nil
}

// truthy mirrors the upstream convention that empty strings, zero numbers
// and empty containers mean "field absent".
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}

// Stringify renders a resolved scalar without JSON float artifacts
// (upstream ids arrive both as strings and as numbers).
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Int coerces a resolved value to an integer, stripping thousands and
// decimal separators from string counts. It returns 0 when the value cannot
// be parsed.
func Int(v any) int {
	n, _ := parseInt(v)
	return n
}

// IntFrom probes an ordered list of key aliases on record and returns the
// first alias that parses to an integer; 0 when none do.
func IntFrom(record map[string]any, aliases []string) int {
	for _, key := range aliases {
		if v, ok := record[key]; ok {
			if n, parsed := parseInt(v); parsed {
				return n
			}
		}
	}
	return 0
}

func parseInt(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case string:
		s := strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(val))
		if s == "" {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
