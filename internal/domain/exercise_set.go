// internal/domain/exercise_set.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseSet is a reusable template of exercises, shared by every patient it
// gets assigned to.
type ExerciseSet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"` // Clinician who authored the set
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Populated when the set is loaded together with its exercises; never stored.
	Mappings []ExerciseMapping `bson:"-" json:"mappings,omitempty"`
}

// ExerciseMapping is one exercise entry within a template set. Its dosage is
// authored once at template level and shared by all patients.
type ExerciseMapping struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SetID      primitive.ObjectID `bson:"setId" json:"setId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order      int                `bson:"order" json:"order"`

	Dosage `bson:",inline"`

	Side  string `bson:"side,omitempty" json:"side,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Library item referenced by ExerciseID, joined in when loading a set.
	Exercise *ExerciseLibraryItem `bson:"-" json:"exercise,omitempty"`
}

// Key returns the identifier used for per-assignment overrides and exclusions.
func (m *ExerciseMapping) Key() string {
	return m.ID.Hex()
}
