package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectMetadata is what the backend reports about a stored object.
type ObjectMetadata struct {
	Size        int64
	ContentType string
}

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows a PUT of
	// objectKey straight to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
	// StatObject returns ErrObjectNotFound when nothing was uploaded under objectKey.
	StatObject(ctx context.Context, objectKey string) (*ObjectMetadata, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// ExerciseImageKey builds the object key for a custom exercise image:
// exercise-images/<ownerID>/<mappingID>/<uuid><ext>.
func ExerciseImageKey(ownerID, mappingID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("exercise-images/%s/%s/%s%s", ownerID, mappingID, uuid.NewString(), ext)
}

// KeyBelongsTo reports whether key was issued by ExerciseImageKey for this owner and mapping.
func KeyBelongsTo(key, ownerID, mappingID string) bool {
	return strings.HasPrefix(key, fmt.Sprintf("exercise-images/%s/%s/", ownerID, mappingID))
}
