package document

import (
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/errors"
)

// Load replaces the document contents with the backing file's contents.
func (d *Document) Load() error {
	if d.path == "" {
		return errors.NewValidationError("document", nil, "transient document has no backing file")
	}

	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return errors.WrapIO("read", d.path, err)
	}

	d.keys = nil
	d.values = make(map[string]Value)
	if len(data) == 0 {
		return nil
	}

	var ms yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(data, &ms, yaml.UseOrderedMap()); err != nil {
		return errors.WrapParse("yaml", d.path, err)
	}
	loaded, err := fromMapSlice(ms, d.path)
	if err != nil {
		return err
	}
	for _, k := range loaded.keys {
		d.put(k, loaded.values[k])
	}
	return nil
}

// Save writes the document to its backing file, creating parent directories
// as needed.
func (d *Document) Save() error {
	if d.path == "" {
		return errors.NewValidationError("document", nil, "transient document has no backing file")
	}

	data, err := yaml.Marshal(d.mapSlice())
	if err != nil {
		return errors.WrapParse("yaml", d.path, err)
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	if err := afero.WriteFile(d.fs, d.path, data, 0o644); err != nil {
		return errors.WrapIO("write", d.path, err)
	}
	return nil
}

// mapSlice renders the document as an ordered YAML mapping.
func (d *Document) mapSlice() yaml.MapSlice {
	ms := make(yaml.MapSlice, 0, len(d.keys))
	for _, k := range d.keys {
		v := d.values[k]
		var item any
		if v.Kind == KindNested {
			item = v.Nested.mapSlice()
		} else {
			item = v.Scalar
		}
		ms = append(ms, yaml.MapItem{Key: k, Value: item})
	}
	return ms
}

// fromMapSlice converts a decoded ordered mapping into a transient document.
// Only string keys and scalar or mapping values are permitted.
func fromMapSlice(ms yaml.MapSlice, file string) (*Document, error) {
	d := New()
	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			return nil, errors.NewParseError("yaml", file,
				"document keys must be strings", nil)
		}
		switch v := item.Value.(type) {
		case yaml.MapSlice:
			nested, err := fromMapSlice(v, file)
			if err != nil {
				return nil, err
			}
			d.put(key, NestedValue(nested))
		case []any:
			return nil, errors.NewParseError("yaml", file,
				"sequence values are not supported in documents", nil)
		default:
			d.put(key, ScalarValue(v))
		}
	}
	return d, nil
}
