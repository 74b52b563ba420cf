package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// File is one rendered file of a project, with a slash-separated path relative to the project root.
type File struct {
	Path string
	Data []byte
	Mode fs.FileMode
}

// FileWriter writes a single file. It exists so tests can inject write failures.
type FileWriter interface {
	WriteFile(name string, data []byte, perm fs.FileMode) error
}

// OSWriter writes files with os.WriteFile.
type OSWriter struct{}

// WriteFile implements FileWriter.
func (OSWriter) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Materializer writes a set of files as one project directory, all or nothing.
//
// Files go to a hidden staging directory next to the target, which is renamed into place once
// every file is written and Verify (when set) accepts the staging tree. Any failure removes the
// staging directory, so the target either appears complete or not at all.
type Materializer struct {
	// Writer writes individual files; OSWriter when nil.
	Writer FileWriter
	// Verify inspects the staging directory before it is renamed into place.
	Verify func(stagingRoot string) error
}

// Materialize writes files into outputRoot/dirName and returns the absolute project root.
func (m Materializer) Materialize(outputRoot, dirName string, files []File) (root string, err error) {
	writer := m.Writer
	if writer == nil {
		writer = OSWriter{}
	}

	absRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	target := filepath.Join(absRoot, dirName)
	if _, statErr := os.Lstat(target); statErr == nil {
		return "", &CollisionError{Path: target}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return "", fmt.Errorf("inspect %q: %w", target, statErr)
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output root %q: %w", absRoot, err)
	}

	staging, err := os.MkdirTemp(absRoot, "."+dirName+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()
	if err = os.Chmod(staging, 0o755); err != nil {
		return "", fmt.Errorf("chmod staging directory: %w", err)
	}

	ordered := make([]File, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	for _, f := range ordered {
		full := filepath.Join(staging, filepath.FromSlash(f.Path))
		if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err = writer.WriteFile(full, f.Data, mode); err != nil {
			return "", fmt.Errorf("write %s: %w", f.Path, err)
		}
	}

	if m.Verify != nil {
		if err = m.Verify(staging); err != nil {
			return "", err
		}
	}

	if err = os.Rename(staging, target); err != nil {
		// Another run created the target after the initial check.
		if errors.Is(err, fs.ErrExist) {
			return "", &CollisionError{Path: target}
		}
		return "", fmt.Errorf("move project into place: %w", err)
	}
	return target, nil
}
