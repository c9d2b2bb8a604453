// Package storage is the blob side of the application store: resume PDFs
// keyed by object name.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound reports that no blob exists under the requested name.
var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore abstracts the object store holding resume PDFs.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, data io.Reader) error
	Download(ctx context.Context, objectName string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, objectName string) error
}
