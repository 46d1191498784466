package sync_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
	"github.com/datakite/datakite/pkg/project"
	"github.com/datakite/datakite/pkg/sync"
)

var errInjected = errors.New("injected failure")

// recordingMutator counts mutating calls on top of a real mutator.
type recordingMutator struct {
	sync.Mutator
	setValues int
	copyFiles int
	copyTrees int
	removes   int
}

func newRecordingMutator(fs afero.Fs) *recordingMutator {
	return &recordingMutator{Mutator: sync.NewMutator(fs, zerolog.Nop())}
}

func (m *recordingMutator) mutations() int {
	return m.setValues + m.copyFiles + m.copyTrees + m.removes
}

func (m *recordingMutator) SetValue(doc *document.Document, key string, value document.Value) error {
	m.setValues++
	return m.Mutator.SetValue(doc, key, value)
}

func (m *recordingMutator) CopyFile(src, dst string) error {
	m.copyFiles++
	return m.Mutator.CopyFile(src, dst)
}

func (m *recordingMutator) CopyTree(src, dst string) error {
	m.copyTrees++
	return m.Mutator.CopyTree(src, dst)
}

func (m *recordingMutator) Remove(path string) error {
	m.removes++
	return m.Mutator.Remove(path)
}

// failingMutator fails the nth SetValue call and passes everything else
// through to a real mutator.
type failingMutator struct {
	sync.Mutator
	failOn int
	calls  int
}

func newFailingMutator(fs afero.Fs, failOn int) *failingMutator {
	return &failingMutator{Mutator: sync.NewMutator(fs, zerolog.Nop()), failOn: failOn}
}

func (m *failingMutator) SetValue(doc *document.Document, key string, value document.Value) error {
	m.calls++
	if m.calls == m.failOn {
		return errInjected
	}
	return m.Mutator.SetValue(doc, key, value)
}

func seedProject(t *testing.T, fs afero.Fs, root string) *project.Project {
	t.Helper()
	p, err := project.Init(root, project.WithFs(fs))
	require.NoError(t, err)
	return p
}

func seedJob(t *testing.T, p *project.Project, manifest map[string]any) *project.Job {
	t.Helper()
	job := p.NewJob(document.FromMap(manifest))
	require.NoError(t, job.Init())
	return job
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func noExcludes(t *testing.T) *sync.Excludes {
	t.Helper()
	e, err := sync.CompileExcludes()
	require.NoError(t, err)
	return e
}
