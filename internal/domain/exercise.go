// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType tells the estimator whether work is counted in reps or seconds.
type ExerciseType string

const (
	ExerciseTypeReps ExerciseType = "reps"
	ExerciseTypeTime ExerciseType = "time"
)

// Dosage holds the optional prescription fields shared by library items and
// set mappings. A nil pointer means "not specified at this layer".
type Dosage struct {
	Sets            *int `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            *int `bson:"reps,omitempty" json:"reps,omitempty"`
	Duration        *int `bson:"duration,omitempty" json:"duration,omitempty"`               // seconds per set (time-based)
	RestBetweenSets *int `bson:"restBetweenSets,omitempty" json:"restBetweenSets,omitempty"` // seconds
	RestBetweenReps *int `bson:"restBetweenReps,omitempty" json:"restBetweenReps,omitempty"` // seconds
	ExecutionTime   *int `bson:"executionTime,omitempty" json:"executionTime,omitempty"`     // seconds per rep
	PreparationTime *int `bson:"preparationTime,omitempty" json:"preparationTime,omitempty"` // seconds
}

// ExerciseLibraryItem is a single exercise definition in the library.
// It is reference data: the assignment flow never mutates it.
type ExerciseLibraryItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"` // Clinician who created the item
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        ExerciseType       `bson:"type" json:"type"`
	Side        string             `bson:"side,omitempty" json:"side,omitempty"` // e.g. "left", "right", "both"
	VideoURL    string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`

	Dosage `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsTimeBased reports whether the exercise is prescribed by duration instead of reps.
func (e *ExerciseLibraryItem) IsTimeBased() bool {
	return e != nil && e.Type == ExerciseTypeTime
}

// IntPtr is a small helper for building optional dosage values.
func IntPtr(v int) *int {
	return &v
}
