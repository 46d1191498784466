// Package fsutil provides filesystem copy helpers shared by the project
// store and the sync mutator. All operations go through afero so callers can
// run against an in-memory filesystem in tests.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/datakite/datakite/pkg/errors"
)

// CopyFile copies a single file, overwriting dst if it exists. The source
// file mode is preserved.
func CopyFile(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return errors.WrapIO("stat", src, err)
	}

	in, err := fs.Open(src)
	if err != nil {
		return errors.WrapIO("read", src, err)
	}
	defer func() { _ = in.Close() }()

	if dir := filepath.Dir(dst); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return errors.WrapIO("write", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.WrapIO("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return errors.WrapIO("write", dst, err)
	}
	return nil
}

// CopyTree recursively copies the directory src to dst. dst must not exist.
func CopyTree(fs afero.Fs, src, dst string) error {
	if exists, err := afero.DirExists(fs, dst); err != nil {
		return errors.WrapIO("stat", dst, err)
	} else if exists {
		return errors.WrapIO("create", dst, errors.ErrAlreadyExists)
	}

	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WrapIO("walk", path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.WrapIO("walk", path, err)
		}
		target := dst
		if rel != "." {
			target = filepath.Join(dst, rel)
		}
		if info.IsDir() {
			if err := fs.MkdirAll(target, info.Mode().Perm()); err != nil {
				return errors.WrapIO("create", target, err)
			}
			return nil
		}
		return CopyFile(fs, path, target)
	})
}

// Rel renders path relative to the current working directory when that makes
// the path shorter, for readable log output. It never fails; unrelatable
// paths are returned unchanged.
func Rel(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
