package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrNoLocalPath is returned by backends that cannot expose objects as files.
var ErrNoLocalPath = errors.New("storage: backend has no local path")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload writes data from reader to the given key and returns the byte count.
	Upload(ctx context.Context, key string, reader io.Reader) (int64, error)

	// Download returns a reader for the object at the given key.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at the given key.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Path returns a filesystem path for the object, for tools that need
	// a real file (ffmpeg, recognizers). Returns ErrNoLocalPath when the
	// backend is not file-backed.
	Path(key string) (string, error)

	// List returns metadata for all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
