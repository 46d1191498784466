// Package schema summarizes the structural shape of a project's job
// manifests. A schema maps flattened manifest key paths to the set of value
// type names observed at that path, and supports the asymmetric difference
// used by the sync pre-flight compatibility check.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datakite/datakite/pkg/document"
)

// Schema maps a flattened key path ("a.b") to the sorted set of value type
// names observed across job manifests.
type Schema map[string][]string

// Detect builds a schema from a set of manifests.
func Detect(manifests []*document.Document) Schema {
	types := make(map[string]map[string]struct{})
	for _, m := range manifests {
		walk(m, "", types)
	}

	s := make(Schema, len(types))
	for path, set := range types {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		s[path] = names
	}
	return s
}

// walk records the type name of every scalar leaf under its flattened path.
func walk(d *document.Document, prefix string, types map[string]map[string]struct{}) {
	for _, key := range d.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		v, _ := d.Get(key)
		if v.IsNested() {
			walk(v.Nested, path, types)
			continue
		}
		if types[path] == nil {
			types[path] = make(map[string]struct{})
		}
		types[path][typeName(v.Scalar)] = struct{}{}
	}
}

// typeName names a scalar's type for schema comparison.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IsZero reports whether the schema is empty.
func (s Schema) IsZero() bool {
	return len(s) == 0
}

// Equal reports whether two schemas describe the same shape.
func (s Schema) Equal(other Schema) bool {
	return len(s.Difference(other)) == 0 && len(other.Difference(s)) == 0
}

// Difference returns the key paths present in s that are absent from other
// or observed with a different type set, sorted.
func (s Schema) Difference(other Schema) []string {
	var diff []string
	for path, types := range s {
		otherTypes, ok := other[path]
		if !ok || !equalTypes(types, otherTypes) {
			diff = append(diff, path)
		}
	}
	sort.Strings(diff)
	return diff
}

// equalTypes compares two sorted type name sets.
func equalTypes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the schema one path per line, sorted, for diagnostics.
func (s Schema) String() string {
	paths := make([]string, 0, len(s))
	for path := range s {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&sb, "  %s: %s\n", path, strings.Join(s[path], "|"))
	}
	return sb.String()
}
