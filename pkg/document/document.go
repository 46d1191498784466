// Package document implements the ordered, string-keyed nested document that
// backs projects and jobs. A value is either a scalar or a nested document.
// Documents may be transient (in-memory only) or backed by a YAML file, in
// which case every Set writes through to disk.
package document

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/errors"
)

// Kind discriminates the two shapes a document value can take.
type Kind int

const (
	// KindScalar is a bool, number, string or null value.
	KindScalar Kind = iota
	// KindNested is a nested document.
	KindNested
)

// Value is a tagged document value: exactly one of Scalar or Nested is
// meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Scalar any
	Nested *Document
}

// ScalarValue wraps a scalar in a Value, normalizing numeric types to
// int64/float64 so equality is well defined across load/save round trips.
func ScalarValue(v any) Value {
	return Value{Kind: KindScalar, Scalar: normalize(v)}
}

// NestedValue wraps a nested document in a Value.
func NestedValue(d *Document) Value {
	if d == nil {
		d = New()
	}
	return Value{Kind: KindNested, Nested: d}
}

// IsNested reports whether the value is a nested document.
func (v Value) IsNested() bool {
	return v.Kind == KindNested
}

// Equal reports deep structural equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNested {
		return v.Nested.Equal(o.Nested)
	}
	return scalarEqual(v.Scalar, o.Scalar)
}

// scalarEqual compares two scalars without panicking on non-comparable
// dynamic types, which can reach a Value through ScalarValue's any argument.
func scalarEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// String renders the value for log and error messages.
func (v Value) String() string {
	if v.Kind == KindNested {
		return fmt.Sprintf("{%d keys}", v.Nested.Len())
	}
	return fmt.Sprintf("%v", v.Scalar)
}

// normalize converts numeric scalars to int64/float64 and leaves
// bool/string/nil alone.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// Document is an insertion-ordered mapping from string keys to values.
type Document struct {
	keys   []string
	values map[string]Value

	// Backing file, if any. Nested documents carry a pointer to their root
	// so that write-through persistence saves the whole tree.
	fs   afero.Fs
	path string
	root *Document
}

// New creates an empty transient document.
func New() *Document {
	return &Document{values: make(map[string]Value)}
}

// NewFile creates a document backed by the given file, loading its contents
// when the file already exists. A missing file yields an empty document; the
// file is created on the first Set.
func NewFile(fs afero.Fs, path string) (*Document, error) {
	d := New()
	d.fs = fs
	d.path = path

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	if exists {
		if err := d.Load(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// FromMap builds a transient document from a plain map, with keys in sorted
// order for determinism. Nested maps become nested documents.
func FromMap(m map[string]any) *Document {
	d := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch nested := m[k].(type) {
		case map[string]any:
			d.put(k, NestedValue(FromMap(nested)))
		default:
			d.put(k, ScalarValue(m[k]))
		}
	}
	return d
}

// Keys returns the document keys in insertion order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys in the document.
func (d *Document) Len() int {
	return len(d.keys)
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key, appending new keys at the end. File-backed
// documents (and nested documents of file-backed roots) write through to
// disk on every call.
func (d *Document) Set(key string, value Value) error {
	d.put(key, value)
	return d.save()
}

// put stores a value without persisting. A nested document coming from
// outside this document's tree is deep-copied first, so two documents never
// share a subtree and writes to one can never leak into the other.
func (d *Document) put(key string, value Value) {
	if value.Kind == KindNested {
		root := d.rootDoc()
		if value.Nested.rootDoc() != root {
			value = Value{Kind: KindNested, Nested: value.Nested.Copy()}
		}
		value.Nested.adopt(root)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// adopt attaches a nested document (and its descendants) to a root for
// write-through persistence.
func (d *Document) adopt(root *Document) {
	if root == d {
		return
	}
	d.root = root
	for _, v := range d.values {
		if v.Kind == KindNested {
			v.Nested.adopt(root)
		}
	}
}

// rootDoc returns the document that owns the backing file, which may be the
// document itself.
func (d *Document) rootDoc() *Document {
	if d.root != nil {
		return d.root
	}
	return d
}

// Equal reports structural equality: the same key set with deeply equal
// values. Key order does not participate in equality.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.keys) != len(o.keys) {
		return false
	}
	for k, v := range d.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Copy returns a deep transient copy of the document.
func (d *Document) Copy() *Document {
	out := New()
	for _, k := range d.keys {
		v := d.values[k]
		if v.Kind == KindNested {
			v = Value{Kind: KindNested, Nested: v.Nested.Copy()}
			v.Nested.adopt(out)
		}
		out.keys = append(out.keys, k)
		out.values[k] = v
	}
	return out
}

// Path returns the backing file path, or "" for transient documents.
// Nested documents report their root's path.
func (d *Document) Path() string {
	return d.rootDoc().path
}

// Exists reports whether the backing file exists on disk. Transient
// documents never exist on disk.
func (d *Document) Exists() (bool, error) {
	r := d.rootDoc()
	if r.path == "" {
		return false, nil
	}
	exists, err := afero.Exists(r.fs, r.path)
	if err != nil {
		return false, errors.WrapIO("stat", r.path, err)
	}
	return exists, nil
}

// save persists the root document if it is file-backed.
func (d *Document) save() error {
	r := d.rootDoc()
	if r.path == "" {
		return nil
	}
	return r.Save()
}
