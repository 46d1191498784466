package sync

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/errors"
)

// Excludes filters directory entries by name. An entry is excluded when any
// pattern matches its basename anchored at the start, at every recursion
// depth.
type Excludes struct {
	raw      []string
	patterns []*regexp.Regexp
}

// CompileExcludes compiles exclusion patterns. Patterns are regular
// expressions matched against entry basenames, anchored at the start but not
// at the end.
func CompileExcludes(patterns ...string) (*Excludes, error) {
	e := &Excludes{}
	for _, p := range patterns {
		re, err := regexp.Compile(`\A(?:` + p + `)`)
		if err != nil {
			return nil, errors.NewValidationError("exclude", p, err.Error())
		}
		e.raw = append(e.raw, p)
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

// Match reports whether the entry name is excluded.
func (e *Excludes) Match(name string) bool {
	if e == nil {
		return false
	}
	for _, re := range e.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Patterns returns the raw patterns.
func (e *Excludes) Patterns() []string {
	if e == nil {
		return nil
	}
	return e.raw
}

// dirDiff is the structural difference between two directories.
type dirDiff struct {
	srcOnly   []string // entries present only in src
	diffFiles []string // files present in both with differing content
	subdirs   []string // directories present in both
}

// diffDirs computes the structural difference between src and dst. Entries
// that are a file on one side and a directory on the other are left alone.
func diffDirs(fs afero.Fs, src, dst string) (*dirDiff, error) {
	srcInfos, err := afero.ReadDir(fs, src)
	if err != nil {
		return nil, errors.WrapIO("read", src, err)
	}
	dstInfos, err := afero.ReadDir(fs, dst)
	if err != nil {
		return nil, errors.WrapIO("read", dst, err)
	}

	dstByName := make(map[string]os.FileInfo, len(dstInfos))
	for _, info := range dstInfos {
		dstByName[info.Name()] = info
	}

	diff := &dirDiff{}
	for _, srcInfo := range srcInfos {
		name := srcInfo.Name()
		dstInfo, ok := dstByName[name]
		switch {
		case !ok:
			diff.srcOnly = append(diff.srcOnly, name)
		case srcInfo.IsDir() && dstInfo.IsDir():
			diff.subdirs = append(diff.subdirs, name)
		case !srcInfo.IsDir() && !dstInfo.IsDir():
			equal, err := filesEqual(fs, filepath.Join(src, name), filepath.Join(dst, name))
			if err != nil {
				return nil, err
			}
			if !equal {
				diff.diffFiles = append(diff.diffFiles, name)
			}
		}
	}
	sort.Strings(diff.srcOnly)
	sort.Strings(diff.diffFiles)
	sort.Strings(diff.subdirs)
	return diff, nil
}

// filesEqual compares two files by content.
func filesEqual(fs afero.Fs, a, b string) (bool, error) {
	dataA, err := afero.ReadFile(fs, a)
	if err != nil {
		return false, errors.WrapIO("read", a, err)
	}
	dataB, err := afero.ReadFile(fs, b)
	if err != nil {
		return false, errors.WrapIO("read", b, err)
	}
	return bytes.Equal(dataA, dataB), nil
}

// MergeDirs recursively reconciles the directory tree src into dst. Entries
// present only in src are copied unless excluded; exclusion applies at every
// depth, including inside subtrees that exist only in src. Files differing
// on both sides are resolved by the strategy; without a strategy such a
// conflict fails with a MergeConflictError naming the entry. Entries present
// only in dst are never touched. Partially applied copies are not rolled
// back when a later conflict fails the merge.
func MergeDirs(fs afero.Fs, src, dst string, exclude *Excludes, strategy Strategy, m Mutator) error {
	diff, err := diffDirs(fs, src, dst)
	if err != nil {
		return err
	}
	logger := m.Logger()

	for _, name := range diff.srcOnly {
		if exclude.Match(name) {
			logger.Debug().Str("entry", name).Msg("Entry skipped (excluded)")
			continue
		}
		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)
		info, err := fs.Stat(srcPath)
		if err != nil {
			return errors.WrapIO("stat", srcPath, err)
		}
		if info.IsDir() {
			if err := copySrcOnlyDir(fs, srcPath, dstPath, exclude, m); err != nil {
				return err
			}
		} else if err := m.CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}

	for _, name := range diff.diffFiles {
		if exclude.Match(name) {
			logger.Debug().Str("entry", name).Msg("Entry skipped (excluded)")
			continue
		}
		if strategy == nil {
			return errors.NewMergeConflictError(name)
		}
		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)
		win, err := strategy.ResolveFile(srcPath, dstPath)
		if err != nil {
			return err
		}
		if !win {
			logger.Debug().Str("entry", name).Msg("File skipped by strategy")
			continue
		}
		if err := m.CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}

	for _, name := range diff.subdirs {
		if err := MergeDirs(fs, filepath.Join(src, name), filepath.Join(dst, name), exclude, strategy, m); err != nil {
			return err
		}
	}
	return nil
}

// copySrcOnlyDir copies a directory that exists only in src. Subtrees that
// contain no excluded entries are copied wholesale; otherwise the copy walks
// the tree and filters every level, so an exclusion pattern holds at any
// depth.
func copySrcOnlyDir(fs afero.Fs, src, dst string, exclude *Excludes, m Mutator) error {
	filtered, err := treeHasExcluded(fs, src, exclude)
	if err != nil {
		return err
	}
	if !filtered {
		return m.CopyTree(src, dst)
	}

	infos, err := afero.ReadDir(fs, src)
	if err != nil {
		return errors.WrapIO("read", src, err)
	}
	for _, info := range infos {
		name := info.Name()
		if exclude.Match(name) {
			m.Logger().Debug().Str("entry", name).Msg("Entry skipped (excluded)")
			continue
		}
		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)
		if info.IsDir() {
			if err := copySrcOnlyDir(fs, srcPath, dstPath, exclude, m); err != nil {
				return err
			}
		} else if err := m.CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// errExcludedFound stops the exclusion walk at the first match.
var errExcludedFound = errors.New("excluded entry found")

// treeHasExcluded reports whether any entry below root matches the excludes.
func treeHasExcluded(fs afero.Fs, root string, exclude *Excludes) (bool, error) {
	if len(exclude.Patterns()) == 0 {
		return false, nil
	}
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WrapIO("walk", path, err)
		}
		if path != root && exclude.Match(info.Name()) {
			return errExcludedFound
		}
		return nil
	})
	if err == errExcludedFound {
		return true, nil
	}
	return false, err
}
