// Package project implements the on-disk store for datakite projects: a root
// directory holding a project document and a workspace of job directories,
// each identified by the content hash of its manifest.
//
// Layout inside a project root:
//
//	<root>/datakite_project.yaml                       project document
//	<root>/workspace/<job-id>/datakite_manifest.yaml   job manifest
//	<root>/workspace/<job-id>/datakite_document.yaml   job document
//	<root>/workspace/<job-id>/...                      job workspace files
package project

import (
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/datakite/datakite/internal/fsutil"
	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
	"github.com/datakite/datakite/pkg/logging"
	"github.com/datakite/datakite/pkg/schema"
)

// Reserved filenames inside project roots and job workspaces.
const (
	// FNManifest is the job manifest filename. The manifest is immutable
	// identity data and is never tree-merged.
	FNManifest = "datakite_manifest.yaml"

	// FNDocument is the job document filename.
	FNDocument = "datakite_document.yaml"

	// FNProjectDocument is the project document filename.
	FNProjectDocument = "datakite_project.yaml"

	// WorkspaceDir is the directory holding job workspaces.
	WorkspaceDir = "workspace"
)

// Project owns a root directory, a workspace of jobs and a project document.
type Project struct {
	fs     afero.Fs
	root   string
	logger zerolog.Logger
	doc    *document.Document
}

// Option configures a project.
type Option func(*Project)

// WithFs sets the filesystem the project operates on. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(p *Project) {
		p.fs = fs
	}
}

// WithLogger sets the logger used for store operations.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Project) {
		p.logger = logger
	}
}

// newProject applies options and defaults.
func newProject(root string, opts ...Option) *Project {
	p := &Project{
		fs:     afero.NewOsFs(),
		root:   filepath.Clean(root),
		logger: *logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init creates a project at the given root, creating the root and workspace
// directories as needed. Initializing an existing project is a no-op.
func Init(root string, opts ...Option) (*Project, error) {
	p := newProject(root, opts...)
	if err := p.fs.MkdirAll(p.WorkspacePath(), 0o755); err != nil {
		return nil, errors.WrapIO("create", p.WorkspacePath(), err)
	}
	p.logger.Debug().Str("root", p.root).Msg("Initialized project")
	return p, nil
}

// Open opens an existing project.
func Open(root string, opts ...Option) (*Project, error) {
	p := newProject(root, opts...)
	exists, err := afero.DirExists(p.fs, p.WorkspacePath())
	if err != nil {
		return nil, errors.WrapIO("stat", p.WorkspacePath(), err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("project", p.root)
	}
	return p, nil
}

// Root returns the project root directory.
func (p *Project) Root() string {
	return p.root
}

// Fs returns the filesystem the project operates on.
func (p *Project) Fs() afero.Fs {
	return p.fs
}

// WorkspacePath returns the directory holding the project's job workspaces.
func (p *Project) WorkspacePath() string {
	return filepath.Join(p.root, WorkspaceDir)
}

// Document returns the project document, backed by the project document
// file. The file is created lazily on the first write.
func (p *Project) Document() (*document.Document, error) {
	if p.doc == nil {
		doc, err := document.NewFile(p.fs, filepath.Join(p.root, FNProjectDocument))
		if err != nil {
			return nil, err
		}
		p.doc = doc
	}
	return p.doc, nil
}

// NewJob creates a job handle for the given manifest. The job is not
// materialized on disk until Init is called on it.
func (p *Project) NewJob(manifest *document.Document) *Job {
	id := jobID(manifest)
	return &Job{
		fs:       p.fs,
		id:       id,
		dir:      filepath.Join(p.WorkspacePath(), id),
		manifest: manifest.Copy(),
	}
}

// OpenJob opens the job with the given id, loading its manifest from the
// workspace.
func (p *Project) OpenJob(id string) (*Job, error) {
	dir := filepath.Join(p.WorkspacePath(), id)
	exists, err := afero.DirExists(p.fs, dir)
	if err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("job", id)
	}

	manifest, err := document.NewFile(p.fs, filepath.Join(dir, FNManifest))
	if err != nil {
		return nil, err
	}
	return &Job{fs: p.fs, id: id, dir: dir, manifest: manifest}, nil
}

// Jobs returns all jobs of the project, sorted by id. Non-directory entries
// in the workspace are ignored.
func (p *Project) Jobs() ([]*Job, error) {
	infos, err := afero.ReadDir(p.fs, p.WorkspacePath())
	if err != nil {
		return nil, errors.WrapIO("read", p.WorkspacePath(), err)
	}

	var ids []string
	for _, info := range infos {
		if info.IsDir() {
			ids = append(ids, info.Name())
		}
	}
	sort.Strings(ids)

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		job, err := p.OpenJob(id)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Clone copies a job from another project into this one, workspace tree
// included. It fails with an ExistsError when a job with the same id is
// already present.
func (p *Project) Clone(src *Job) (*Job, error) {
	dir := filepath.Join(p.WorkspacePath(), src.ID())
	exists, err := afero.DirExists(p.fs, dir)
	if err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	if exists {
		return nil, errors.NewExistsError("job", src.ID())
	}

	if err := fsutil.CopyTree(p.fs, src.Dir(), dir); err != nil {
		return nil, err
	}
	p.logger.Debug().Str("job", src.ID()).Str("project", p.root).Msg("Cloned job")
	return p.OpenJob(src.ID())
}

// DetectSchema summarizes the structural shape of all job manifests.
func (p *Project) DetectSchema() (schema.Schema, error) {
	jobs, err := p.Jobs()
	if err != nil {
		return nil, err
	}

	manifests := make([]*document.Document, 0, len(jobs))
	for _, job := range jobs {
		manifests = append(manifests, job.Manifest())
	}
	return schema.Detect(manifests), nil
}

// String returns the project root path.
func (p *Project) String() string {
	return p.root
}
