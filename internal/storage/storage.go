package storage

import (
	"context"
	"time"
)

// DefaultPresignedURLExpiry bounds how long a presigned URL stays valid.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage is the object-storage boundary used for exercise
// demonstration media. Clients upload and download directly against the
// presigned URLs; the API never proxies file bytes.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL allowing a PUT of
	// the object. The client must send the same Content-Type it was signed
	// with.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL allowing a GET of
	// the object.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
