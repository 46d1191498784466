package sync_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
	"github.com/datakite/datakite/pkg/sync"
)

func TestProjectsCloneThenMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")

	j1 := seedJob(t, src, map[string]any{"n": 1})
	j2 := seedJob(t, src, map[string]any{"n": 2})
	writeFile(t, fs, filepath.Join(j1.Dir(), "out.txt"), "one")
	writeFile(t, fs, filepath.Join(j2.Dir(), "out.txt"), "two")

	result, err := sync.Projects(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Cloned)
	assert.Equal(t, 0, result.Merged)
	assert.True(t, result.HasChanges())

	dstJobs, err := dst.Jobs()
	require.NoError(t, err)
	require.Len(t, dstJobs, 2)
	assert.Equal(t, "one", readFile(t, fs, filepath.Join(dst.WorkspacePath(), j1.ID(), "out.txt")))

	// A second sync finds every job on both sides.
	result, err = sync.Projects(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Cloned)
	assert.Equal(t, 2, result.Merged)
	assert.Zero(t, result.SkippedKeys.Len())
}

func TestProjectsSameProject(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := seedProject(t, fs, "/proj")

	_, err := sync.Projects(p, p)
	assert.ErrorIs(t, err, errors.ErrSameProject)
}

func TestProjectsSchemaConflict(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")
	seedJob(t, src, map[string]any{"alpha": 1})
	seedJob(t, dst, map[string]any{"beta": "x"})

	_, err := sync.Projects(src, dst)
	assert.True(t, errors.IsSchemaConflict(err))

	dstJobs, err := dst.Jobs()
	require.NoError(t, err)
	assert.Len(t, dstJobs, 1, "the check must fail before any job is touched")

	// Disabling the check lets structurally different projects merge.
	result, err := sync.Projects(src, dst, sync.WithSchemaCheck(false))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cloned)
}

func TestProjectsEmptyDestinationSchema(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")
	seedJob(t, src, map[string]any{"alpha": 1})

	// An empty destination has no schema to conflict with.
	result, err := sync.Projects(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cloned)
}

func TestProjectsSelection(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")
	j1 := seedJob(t, src, map[string]any{"n": 1})
	seedJob(t, src, map[string]any{"n": 2})

	result, err := sync.Projects(src, dst, sync.WithSelection(j1.ID()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cloned)

	dstJobs, err := dst.Jobs()
	require.NoError(t, err)
	require.Len(t, dstJobs, 1)
	assert.Equal(t, j1.ID(), dstJobs[0].ID())
}

func TestProjectsDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")
	j1 := seedJob(t, src, map[string]any{"n": 1})
	writeFile(t, fs, filepath.Join(j1.Dir(), "out.txt"), "one")

	result, err := sync.Projects(src, dst, sync.WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Cloned)

	dstJobs, err := dst.Jobs()
	require.NoError(t, err)
	assert.Empty(t, dstJobs, "a dry run must not clone anything")
}

func TestProjectsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")
	j1 := seedJob(t, src, map[string]any{"n": 1})
	writeFile(t, fs, filepath.Join(j1.Dir(), "out.txt"), "one")
	srcDoc, err := j1.Document()
	require.NoError(t, err)
	require.NoError(t, srcDoc.Set("result", document.ScalarValue(42)))

	_, err = sync.Projects(src, dst, sync.WithStrategy(sync.Theirs()), sync.WithDocStrategy(sync.Theirs()))
	require.NoError(t, err)

	// The second pass finds both sides equal and performs no mutation.
	m := newRecordingMutator(fs)
	result, err := sync.Projects(src, dst,
		sync.WithStrategy(sync.Theirs()),
		sync.WithDocStrategy(sync.Theirs()),
		sync.WithMutator(m))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	assert.Zero(t, result.SkippedKeys.Len())
	assert.Zero(t, m.mutations())
}

func TestProjectsMergesProjectDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")

	srcDoc, err := src.Document()
	require.NoError(t, err)
	require.NoError(t, srcDoc.Set("owner", document.ScalarValue("a")))

	result, err := sync.Projects(src, dst)
	require.NoError(t, err)
	assert.Zero(t, result.SkippedKeys.Len())

	dstDoc, err := dst.Document()
	require.NoError(t, err)
	v, ok := dstDoc.Get("owner")
	require.True(t, ok)
	assert.Equal(t, "a", v.Scalar)
}

func TestProjectsReportsSkippedProjectKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")

	srcDoc, err := src.Document()
	require.NoError(t, err)
	require.NoError(t, srcDoc.Set("owner", document.ScalarValue("a")))
	dstDoc, err := dst.Document()
	require.NoError(t, err)
	require.NoError(t, dstDoc.Set("owner", document.ScalarValue("b")))

	result, err := sync.Projects(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, result.SkippedKeys.Sorted())

	v, _ := dstDoc.Get("owner")
	assert.Equal(t, "b", v.Scalar, "an unresolved conflict leaves the destination value alone")
}

func TestJobsMergesWorkspaceAndDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")

	manifest := map[string]any{"n": 1}
	srcJob := seedJob(t, src, manifest)
	dstJob := seedJob(t, dst, manifest)
	require.Equal(t, srcJob.ID(), dstJob.ID())

	writeFile(t, fs, filepath.Join(srcJob.Dir(), "out.txt"), "data")
	srcDoc, err := srcJob.Document()
	require.NoError(t, err)
	require.NoError(t, srcDoc.Set("result", document.ScalarValue(1)))
	dstDoc, err := dstJob.Document()
	require.NoError(t, err)
	require.NoError(t, dstDoc.Set("result", document.ScalarValue(2)))

	// The differing document files do not raise a tree conflict despite the
	// nil strategy, because the reserved filenames are always excluded.
	skipped, err := sync.Jobs(srcJob, dstJob)
	require.NoError(t, err)
	assert.Equal(t, []string{"result"}, skipped.Sorted())

	assert.Equal(t, "data", readFile(t, fs, filepath.Join(dstJob.Dir(), "out.txt")))
	v, _ := dstDoc.Get("result")
	assert.Equal(t, int64(2), v.Scalar)
}

func TestJobsIDMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := seedProject(t, fs, "/src")
	dst := seedProject(t, fs, "/dst")

	srcJob := seedJob(t, src, map[string]any{"n": 1})
	dstJob := seedJob(t, dst, map[string]any{"n": 2})

	_, err := sync.Jobs(srcJob, dstJob)
	assert.True(t, errors.IsValidationError(err))
}

func TestResultSummary(t *testing.T) {
	r := &sync.Result{Cloned: 2, Merged: 1}
	assert.Equal(t, "Cloned 2 and merged 1 job(s)", r.Summary())
	assert.True(t, r.HasChanges())

	r.SkippedKeys = sync.NewSkippedKeys("b", "a")
	r.DryRun = true
	assert.Equal(t, "Cloned 2 and merged 1 job(s), skipped 2 document key(s): a, b (dry run)", r.Summary())

	empty := &sync.Result{}
	assert.False(t, empty.HasChanges())
}
