package sync_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakite/datakite/pkg/document"
	"github.com/datakite/datakite/pkg/errors"
	"github.com/datakite/datakite/pkg/sync"
)

func TestMergeDocumentsShortCircuit(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := newRecordingMutator(fs)

	src := document.FromMap(map[string]any{"a": 1, "n": map[string]any{"b": 2}})
	dst := src.Copy()

	skipped, err := sync.MergeDocuments(src, dst, sync.Theirs(), m)
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())
	assert.Zero(t, m.mutations(), "an equal pair must perform zero mutating calls")
}

func TestMergeDocumentsSymmetry(t *testing.T) {
	newPair := func() (*document.Document, *document.Document) {
		return document.FromMap(map[string]any{"a": 1, "b": 2}),
			document.FromMap(map[string]any{"a": 99})
	}

	t.Run("theirs", func(t *testing.T) {
		src, dst := newPair()
		skipped, err := sync.MergeDocuments(src, dst, sync.Theirs(), newRecordingMutator(afero.NewMemMapFs()))
		require.NoError(t, err)
		assert.Zero(t, skipped.Len())
		assert.True(t, dst.Equal(document.FromMap(map[string]any{"a": 1, "b": 2})))
	})

	t.Run("ours", func(t *testing.T) {
		src, dst := newPair()
		skipped, err := sync.MergeDocuments(src, dst, sync.Ours(), newRecordingMutator(afero.NewMemMapFs()))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, skipped.Sorted())
		assert.True(t, dst.Equal(document.FromMap(map[string]any{"a": 99, "b": 2})))
	})
}

func TestMergeDocumentsNoStrategy(t *testing.T) {
	src := document.FromMap(map[string]any{"a": 1, "fresh": "x"})
	dst := document.FromMap(map[string]any{"a": 2})

	skipped, err := sync.MergeDocuments(src, dst, nil, newRecordingMutator(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, skipped.Sorted())

	// Conflicting keys stay, non-conflicting keys still land.
	v, _ := dst.Get("a")
	assert.Equal(t, int64(2), v.Scalar)
	_, ok := dst.Get("fresh")
	assert.True(t, ok)
}

func TestMergeDocumentsNestedRecursion(t *testing.T) {
	src := document.FromMap(map[string]any{"n": map[string]any{"x": 1, "y": 2}})
	dst := document.FromMap(map[string]any{"n": map[string]any{"x": 5, "keep": true}})

	skipped, err := sync.MergeDocuments(src, dst, sync.Theirs(), newRecordingMutator(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())

	assert.True(t, dst.Equal(document.FromMap(map[string]any{
		"n": map[string]any{"x": 1, "y": 2, "keep": true},
	})), "nested documents must merge recursively, not overwrite wholesale")
}

func TestMergeDocumentsNestedOverScalar(t *testing.T) {
	src := document.FromMap(map[string]any{"n": map[string]any{"x": 1}})
	dst := document.FromMap(map[string]any{"n": "scalar"})

	skipped, err := sync.MergeDocuments(src, dst, sync.Theirs(), newRecordingMutator(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())
	assert.True(t, dst.Equal(src), "a non-document destination value is replaced wholesale")
}

func TestMergeDocumentsNeverRemoves(t *testing.T) {
	src := document.FromMap(map[string]any{"a": 1})
	dst := document.FromMap(map[string]any{"a": 1, "extra": 9})

	skipped, err := sync.MergeDocuments(src, dst, sync.Theirs(), newRecordingMutator(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())
	_, ok := dst.Get("extra")
	assert.True(t, ok)
}

func TestMergeDocumentsDoesNotAliasSource(t *testing.T) {
	fs := afero.NewMemMapFs()

	src, err := document.NewFile(fs, "/src.yaml")
	require.NoError(t, err)
	require.NoError(t, src.Set("n", document.NestedValue(document.FromMap(map[string]any{"x": 1}))))

	dst, err := document.NewFile(fs, "/dst.yaml")
	require.NoError(t, err)

	skipped, err := sync.SyncDocuments(src, dst, sync.Theirs(), newRecordingMutator(fs))
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())

	// Mutating the source after the merge must stay on the source side.
	sv, ok := src.Get("n")
	require.True(t, ok)
	require.NoError(t, sv.Nested.Set("y", document.ScalarValue(2)))

	dv, ok := dst.Get("n")
	require.True(t, ok)
	_, ok = dv.Nested.Get("y")
	assert.False(t, ok, "the destination must not share the source's nested subtree")

	assert.NotContains(t, readFile(t, fs, "/dst.yaml"), "y: 2")
	assert.Contains(t, readFile(t, fs, "/src.yaml"), "y: 2")
}

func TestSyncDocumentsTransient(t *testing.T) {
	src := document.FromMap(map[string]any{"a": 1})
	dst := document.New()

	skipped, err := sync.SyncDocuments(src, dst, nil, newRecordingMutator(afero.NewMemMapFs()))
	require.NoError(t, err)
	assert.Zero(t, skipped.Len())
	assert.True(t, dst.Equal(src))
}

func TestSyncDocumentsRollback(t *testing.T) {
	fs := afero.NewMemMapFs()

	dst, err := document.NewFile(fs, "/dst.yaml")
	require.NoError(t, err)
	require.NoError(t, dst.Set("b", document.ScalarValue(2)))
	require.NoError(t, dst.Set("keep", document.ScalarValue("original")))
	before := readFile(t, fs, "/dst.yaml")

	// Keys merge in sorted order: b conflicts (SetValue 1), c is new
	// (SetValue 2, injected failure), d never happens.
	src := document.FromMap(map[string]any{"b": 20, "c": 3, "d": 4})
	m := newFailingMutator(fs, 2)

	_, err = sync.SyncDocuments(src, dst, sync.Theirs(), m)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, before, readFile(t, fs, "/dst.yaml"),
		"the backing file must be restored to its pre-merge state")
	backupExists, err := afero.Exists(fs, "/dst.yaml"+sync.BackupSuffix)
	require.NoError(t, err)
	assert.False(t, backupExists, "no backup file may remain after the rollback")
}

func TestSyncDocumentsStaleBackup(t *testing.T) {
	fs := afero.NewMemMapFs()

	dst, err := document.NewFile(fs, "/dst.yaml")
	require.NoError(t, err)
	require.NoError(t, dst.Set("a", document.ScalarValue(1)))
	writeFile(t, fs, "/dst.yaml"+sync.BackupSuffix, "stale")
	before := readFile(t, fs, "/dst.yaml")

	src := document.FromMap(map[string]any{"a": 2})
	_, err = sync.SyncDocuments(src, dst, sync.Theirs(), newRecordingMutator(fs))

	var backupErr *errors.BackupExistsError
	require.ErrorAs(t, err, &backupErr)
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, before, readFile(t, fs, "/dst.yaml"))
}
