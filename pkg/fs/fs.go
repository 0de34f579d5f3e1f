// Package fs holds the filesystem operations behind client storages.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// A FileExistsError is returned when an operation cannot be completed due to a
// file already existing.
type FileExistsError struct {
	path string
}

func newFileExistsError(path string) FileExistsError {
	return FileExistsError{path: path}
}

func (e FileExistsError) Error() string {
	return fmt.Sprintf("operation not allowed, file %q exists", e.path)
}

// MoveDir renames the directory oldpath to newpath. It refuses to replace an
// existing newpath and creates oldpath's replacement if oldpath is missing.
func MoveDir(oldpath, newpath string) error {
	if _, err := os.Stat(newpath); err == nil {
		return newFileExistsError(newpath)
	} else if !os.IsNotExist(err) {
		return err
	}

	if _, err := os.Stat(oldpath); os.IsNotExist(err) {
		return os.MkdirAll(newpath, 0755)
	}

	if err := os.Rename(oldpath, newpath); err != nil {
		return err
	}
	return SyncDir(filepath.Dir(newpath))
}
