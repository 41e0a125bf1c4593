package ports

import (
	"context"
	"time"
)

type (
	BlobUpload struct {
		Key         string
		Filename    string
		ContentType string
		Data        []byte
	}
	// StoredObject is what the blob store reports back for a finished upload.
	StoredObject struct {
		ObjectID         string
		URL              string
		OriginalFilename string
	}
)

type BlobStore interface {
	Upload(ctx context.Context, in BlobUpload) (*StoredObject, error)
	// Delete is idempotent: removing a missing object is not an error.
	Delete(ctx context.Context, objectID string) error
	PresignedURL(ctx context.Context, objectID string, expiry time.Duration) (string, error)
}
