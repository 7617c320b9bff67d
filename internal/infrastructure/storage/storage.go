// Package storage keeps listing photos in object storage and stages them on
// local disk when a browser session needs real files to upload.
package storage

import (
	"context"
	"io"
)

// PhotoStorage abstracts where listing photos live
type PhotoStorage interface {
	// Upload stores a photo and returns a public or presigned URL for it
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// StageLocal materializes a stored photo as a file under dir, for
	// form uploads that need a real path
	StageLocal(ctx context.Context, key, dir string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
