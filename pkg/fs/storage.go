package fs

import (
	"context"
	"io"
	"net/http"
)

// Storage is a file system interface to host downloaded sources and
// generated blend videos.
type Storage interface {
	// FileSystem must be implemented in order to pass Storage to an HTTP
	// file server.
	http.FileSystem

	// Create will create a new file from reader, making parent
	// directories as needed
	Create(ctx context.Context, name string, reader io.Reader) (int64, error)

	// Delete deletes the file
	Delete(ctx context.Context, name string) error

	// Path returns the absolute local path for name
	Path(name string) string

	// URL returns the public URL for name
	URL(ctx context.Context, name string) (string, error)
}

// Size returns a storage object's size in bytes.
func Size(storage http.FileSystem, name string) (int64, error) {
	file, err := storage.Open(name)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}
