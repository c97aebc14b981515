package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload stores metadata about a custom exercise image uploaded by a clinician
// while tailoring an assignment. The actual file resides in S3.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`     // Clinician who uploaded
	MappingID   primitive.ObjectID `bson:"mappingId" json:"mappingId"` // Exercise mapping the image customizes
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`       // Internal use only
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
