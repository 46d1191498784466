package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
)

// Job is one independently identified item of a project: a workspace
// directory plus a manifest (the parameter set that determines the job id)
// and a job document.
type Job struct {
	fs       afero.Fs
	id       string
	dir      string
	manifest *document.Document
	doc      *document.Document
}

// Fs returns the filesystem the job lives on.
func (j *Job) Fs() afero.Fs {
	return j.fs
}

// ID returns the job's content-derived identifier.
func (j *Job) ID() string {
	return j.id
}

// Dir returns the job's workspace directory.
func (j *Job) Dir() string {
	return j.dir
}

// Manifest returns the job's manifest document.
func (j *Job) Manifest() *document.Document {
	return j.manifest
}

// Document returns the job's document, backed by the document file inside
// the workspace. The file is created lazily on the first write.
func (j *Job) Document() (*document.Document, error) {
	if j.doc == nil {
		doc, err := document.NewFile(j.fs, filepath.Join(j.dir, FNDocument))
		if err != nil {
			return nil, err
		}
		j.doc = doc
	}
	return j.doc, nil
}

// Init materializes the job on disk: the workspace directory and the
// manifest file. Initializing an existing job is a no-op.
func (j *Job) Init() error {
	if err := j.fs.MkdirAll(j.dir, 0o755); err != nil {
		return errors.WrapIO("create", j.dir, err)
	}

	fn := filepath.Join(j.dir, FNManifest)
	exists, err := afero.Exists(j.fs, fn)
	if err != nil {
		return errors.WrapIO("stat", fn, err)
	}
	if exists {
		return nil
	}

	onDisk, err := document.NewFile(j.fs, fn)
	if err != nil {
		return err
	}
	for _, key := range j.manifest.Keys() {
		v, _ := j.manifest.Get(key)
		if err := onDisk.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// String returns the job id.
func (j *Job) String() string {
	return j.id
}

// jobID computes the content-derived job identifier: the first 32 hex
// characters of the sha256 digest of the canonical flattened manifest.
func jobID(manifest *document.Document) string {
	var lines []string
	flattenManifest(manifest, "", &lines)
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])[:32]
}

// flattenManifest renders every scalar leaf as a "path=type:value" line.
func flattenManifest(d *document.Document, prefix string, lines *[]string) {
	for _, key := range d.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		v, _ := d.Get(key)
		if v.IsNested() {
			flattenManifest(v.Nested, path, lines)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s=%T:%v", path, v.Scalar, v.Scalar))
	}
}
