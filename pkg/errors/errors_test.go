package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datakite/datakite/pkg/errors"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", errors.NewNotFoundError("job", "abc"), errors.IsNotFound},
		{"already exists", errors.NewExistsError("job", "abc"), errors.IsAlreadyExists},
		{"backup exists", errors.NewBackupExistsError("/f~"), errors.IsAlreadyExists},
		{"validation", errors.NewValidationError("field", 1, "bad"), errors.IsValidationError},
		{"merge conflict", errors.NewMergeConflictError("x.txt"), errors.IsMergeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(stderrors.New("unrelated")))
		})
	}
}

func TestMergeConflictError(t *testing.T) {
	err := errors.NewMergeConflictError("x.txt")
	assert.Contains(t, err.Error(), "x.txt")

	var conflict *errors.MergeConflictError
	assert.ErrorAs(t, error(err), &conflict)
	assert.Equal(t, "x.txt", conflict.Entry)
}

func TestWrappingPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")

	err := errors.WrapIO("write", "/tmp/f", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/tmp/f")

	err = errors.WrapParse("yaml", "/tmp/f.yaml", cause)
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, errors.WrapIO("write", "/tmp/f", nil))
	assert.NoError(t, errors.WrapParse("yaml", "", nil))
}

func TestSyncErrorUnwrap(t *testing.T) {
	cause := errors.NewMergeConflictError("x.txt")
	err := errors.NewSyncError("/src", "/dst", "abc", cause)

	assert.True(t, errors.IsMergeConflict(err))
	assert.Contains(t, err.Error(), "abc")
	assert.Contains(t, err.Error(), "/src")
}
