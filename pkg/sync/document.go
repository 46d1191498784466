package sync

import (
	"github.com/datakite/datakite/internal/fsutil"
	"github.com/datakite/datakite/pkg/document"
)

// MergeDocuments recursively reconciles src into dst and returns the keys it
// could not resolve. Keys absent from dst are set unconditionally. For
// conflicting keys the strategy decides; a declined or absent strategy
// records the key as skipped and leaves the destination unchanged. When both
// sides hold nested documents the merge recurses instead of overwriting
// wholesale. Keys present only in dst are never removed.
func MergeDocuments(src, dst *document.Document, strategy Strategy, m Mutator) (SkippedKeys, error) {
	skipped := SkippedKeys{}
	if src.Equal(dst) {
		return skipped, nil
	}

	for _, key := range src.Keys() {
		value, _ := src.Get(key)
		if dstValue, ok := dst.Get(key); ok {
			if dstValue.Equal(value) {
				continue
			}
			if strategy == nil {
				skipped.Add(key)
				continue
			}
			win, err := strategy.ResolveKey(key)
			if err != nil {
				return skipped, err
			}
			if !win {
				skipped.Add(key)
				continue
			}
			if value.IsNested() && dstValue.IsNested() {
				nested, err := MergeDocuments(value.Nested, dstValue.Nested, strategy, m)
				skipped.Update(nested)
				if err != nil {
					return skipped, err
				}
				continue
			}
		}
		if err := m.SetValue(dst, key, value); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// SyncDocuments merges src into dst with all-or-nothing semantics for
// file-backed destinations: the destination file either ends fully merged or
// is restored to its pre-merge state from a scoped backup. Transient
// destinations, and file-backed destinations whose file does not exist yet,
// merge directly with nothing to roll back to.
func SyncDocuments(src, dst *document.Document, strategy Strategy, m Mutator) (SkippedKeys, error) {
	exists, err := dst.Exists()
	if err != nil {
		return nil, err
	}
	if dst.Path() == "" || !exists {
		return MergeDocuments(src, dst, strategy, m)
	}

	var skipped SkippedKeys
	err = m.WithBackup(dst.Path(), func(backup string) error {
		var mergeErr error
		skipped, mergeErr = MergeDocuments(src, dst, strategy, m)
		if mergeErr == nil {
			return nil
		}
		m.Logger().Warn().Err(mergeErr).Str("path", fsutil.Rel(dst.Path())).
			Msg("Document merge failed, restoring backup")
		if restoreErr := m.CopyFile(backup, dst.Path()); restoreErr != nil {
			// A failed restore is more severe than the merge failure.
			return restoreErr
		}
		return mergeErr
	})
	return skipped, err
}
