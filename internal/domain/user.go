package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// User represents a user in the system (either a Clinician or a Patient).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never exposed via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Clinician-specific ---
	PatientIDs []primitive.ObjectID `bson:"patientIds,omitempty" json:"patientIds,omitempty"`

	// --- Patient-specific ---
	ClinicianID *primitive.ObjectID `bson:"clinicianId,omitempty" json:"clinicianId,omitempty"`
}

func (u *User) IsClinician() bool {
	return u.Role == RoleClinician
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

// ManagedBy reports whether the patient is attached to the given clinician.
func (u *User) ManagedBy(clinicianID primitive.ObjectID) bool {
	return u.ClinicianID != nil && *u.ClinicianID == clinicianID
}
