package sync

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/internal/fsutil"
	"github.com/datakite/datakite/internal/prompt"
	"github.com/datakite/datakite/pkg/errors"
)

// Strategy decides whether the source version wins a conflict. File
// conflicts are resolved from the two candidate paths, document conflicts
// from the conflicting key. A nil Strategy means no conflict may be silently
// resolved: file conflicts fail and document conflicts are skipped.
type Strategy interface {
	// Name returns the strategy name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// ResolveFile reports whether the source file should overwrite the
	// destination file.
	ResolveFile(src, dst string) (bool, error)

	// ResolveKey reports whether the source value should overwrite the
	// destination value for a document key.
	ResolveKey(key string) (bool, error)
}

// theirs always lets the source win.
type theirs struct{}

// Theirs returns the strategy that always resolves conflicts in favor of
// the source.
func Theirs() Strategy { return theirs{} }

func (theirs) Name() string        { return "theirs" }
func (theirs) Description() string { return "Always overwrite on conflict" }

func (theirs) ResolveFile(_, _ string) (bool, error) { return true, nil }
func (theirs) ResolveKey(_ string) (bool, error)     { return true, nil }

// ours never lets the source win.
type ours struct{}

// Ours returns the strategy that always keeps the destination, discarding
// the source change.
func Ours() Strategy { return ours{} }

func (ours) Name() string        { return "ours" }
func (ours) Description() string { return "Never overwrite on conflict" }

func (ours) ResolveFile(_, _ string) (bool, error) { return false, nil }
func (ours) ResolveKey(_ string) (bool, error)     { return false, nil }

// ask queries an interactive prompter, defaulting to no.
type ask struct {
	prompter prompt.Prompter
}

// Ask returns the strategy that asks the given prompter per conflict, with
// a default answer of no. The calling flow blocks until answered.
func Ask(p prompt.Prompter) Strategy { return &ask{prompter: p} }

func (*ask) Name() string        { return "ask" }
func (*ask) Description() string { return "Ask interactively per conflict" }

func (a *ask) ResolveFile(src, dst string) (bool, error) {
	return a.prompter.Confirm(
		fmt.Sprintf("Overwrite file %q with %q?", fsutil.Rel(dst), fsutil.Rel(src)), false)
}

func (a *ask) ResolveKey(key string) (bool, error) {
	return a.prompter.Confirm(
		fmt.Sprintf("Overwrite document key %q?", key), false)
}

// lastModified compares file modification timestamps.
type lastModified struct {
	fs afero.Fs
}

// LastModified returns the strategy that lets the source win when its file
// was modified strictly later than the destination's. It is only defined
// for files, not for document keys.
func LastModified(fs afero.Fs) Strategy { return &lastModified{fs: fs} }

func (*lastModified) Name() string { return "last_modified" }
func (*lastModified) Description() string {
	return "Overwrite when the source file is newer"
}

func (s *lastModified) ResolveFile(src, dst string) (bool, error) {
	srcInfo, err := s.fs.Stat(src)
	if err != nil {
		return false, errors.WrapIO("stat", src, err)
	}
	dstInfo, err := s.fs.Stat(dst)
	if err != nil {
		return false, errors.WrapIO("stat", dst, err)
	}
	return srcInfo.ModTime().After(dstInfo.ModTime()), nil
}

func (s *lastModified) ResolveKey(key string) (bool, error) {
	return false, errors.NewValidationError("strategy", key,
		"last_modified is only defined for files, not document keys")
}

// StrategyNames lists the built-in strategy names in their canonical order.
func StrategyNames() []string {
	return []string{"ask", "ours", "theirs", "last_modified"}
}

// LookupStrategy resolves a built-in strategy by name. The fs is used by
// last_modified and the prompter by ask.
func LookupStrategy(name string, fs afero.Fs, p prompt.Prompter) (Strategy, bool) {
	switch name {
	case "ask":
		return Ask(p), true
	case "ours":
		return Ours(), true
	case "theirs":
		return Theirs(), true
	case "last_modified":
		return LastModified(fs), true
	default:
		return nil, false
	}
}
