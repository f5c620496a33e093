package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Outcome of a best-effort filesystem operation.
type Outcome int

const (
	Done Outcome = iota
	AlreadyDone
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case AlreadyDone:
		return "already-done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by setup and cleanup operations that callers may choose
// to ignore. Err is set only when Outcome is Failed.
type Result struct {
	Outcome Outcome
	Path    string
	Err     error
}

// OK is true for Done and AlreadyDone.
func (r Result) OK() bool {
	return r.Outcome != Failed
}

// Exists reports whether path exists. Any stat error counts as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) Result {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Result{Outcome: AlreadyDone, Path: path}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Outcome: Failed, Path: path, Err: fmt.Errorf("failed to create directory %s: %w", path, err)}
	}
	return Result{Outcome: Done, Path: path}
}

// Remove deletes a single file. A missing file is AlreadyDone.
func Remove(path string) Result {
	err := os.Remove(path)
	switch {
	case err == nil:
		return Result{Outcome: Done, Path: path}
	case errors.Is(err, fs.ErrNotExist):
		return Result{Outcome: AlreadyDone, Path: path}
	default:
		return Result{Outcome: Failed, Path: path, Err: fmt.Errorf("failed to remove %s: %w", path, err)}
	}
}

// RemoveAll deletes path and everything below it.
func RemoveAll(path string) Result {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Outcome: AlreadyDone, Path: path}
	}

	if err := os.RemoveAll(path); err != nil {
		return Result{Outcome: Failed, Path: path, Err: fmt.Errorf("failed to remove %s: %w", path, err)}
	}
	return Result{Outcome: Done, Path: path}
}

// ListDirectories returns the names of directories directly under dir.
func ListDirectories(dir string) ([]string, error) {
	return list(dir, func(info fs.FileInfo) bool { return info.IsDir() })
}

// ListFiles returns the names of regular files directly under dir.
func ListFiles(dir string) ([]string, error) {
	return list(dir, func(info fs.FileInfo) bool { return info.Mode().IsRegular() })
}

func list(dir string, keep func(fs.FileInfo) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		// Stat follows symlinks, so a link to a directory counts as a directory.
		// Dangling links are skipped.
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if keep(info) {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}
