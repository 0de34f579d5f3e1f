package inmem

import (
	"context"
	"os"
	"path/filepath"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/pkg/fs"
)

// StorageDirs maintains one directory per client below Root.
type StorageDirs struct {
	Root string
}

// Create makes the storage directory of the named client.
func (d *StorageDirs) Create(name string) error {
	return os.MkdirAll(d.path(name), 0755)
}

// Rename moves a client storage directory to its new name.
func (d *StorageDirs) Rename(oldName, newName string) error {
	return fs.MoveDir(d.path(oldName), d.path(newName))
}

// Remove deletes a client storage directory and everything in it.
func (d *StorageDirs) Remove(name string) error {
	return os.RemoveAll(d.path(name))
}

// Capacity reports the space available on the filesystem holding Root.
func (d *StorageDirs) Capacity(ctx context.Context) (admin.ByteCount, error) {
	n, err := fs.AvailableSpace(d.Root)
	return admin.ByteCount(n), err
}

func (d *StorageDirs) path(name string) string {
	return filepath.Join(d.Root, name)
}
