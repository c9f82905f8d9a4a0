package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// localfs echoes the object_key back; gdrive returns the Drive fileId
	// so later reads/deletes address the real object.
	ObjectKey string
	Size      int64
}

// StorageProvider is the durable object store behind persist-mode delivery.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// PublicURL returns the shareable reference for a stored object.
	PublicURL(objectKey string) string
}
