package filestorage

import (
	"io"
	"time"
)

// FileInfo describes a stored file
type FileInfo struct {
	Filename   string
	Size       int64
	ModifiedAt time.Time
}

// FileStorage defines the operations the file endpoints rely on
type FileStorage interface {
	// Store writes src under filename, replacing any existing file, and
	// returns the stored filename.
	Store(filename string, src io.Reader) (string, error)

	// Resolve returns the absolute path of an existing stored file.
	Resolve(filename string) (string, error)

	// List returns the stored files ordered by name.
	List() ([]FileInfo, error)
}
