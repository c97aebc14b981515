package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	StatusActive   AssignmentStatus = "active"
	StatusArchived AssignmentStatus = "archived"
)

// Frequency is the dosing schedule of an assignment. Specific-days mode is
// never stored: it is derived from the weekday flags wherever it is needed.
type Frequency struct {
	TimesPerDay      int  `bson:"timesPerDay" json:"timesPerDay"`
	TimesPerWeek     *int `bson:"timesPerWeek,omitempty" json:"timesPerWeek,omitempty"` // flexible mode only
	BreakBetweenSets int  `bson:"breakBetweenSets" json:"breakBetweenSets"`             // hours
	Monday           bool `bson:"monday" json:"monday"`
	Tuesday          bool `bson:"tuesday" json:"tuesday"`
	Wednesday        bool `bson:"wednesday" json:"wednesday"`
	Thursday         bool `bson:"thursday" json:"thursday"`
	Friday           bool `bson:"friday" json:"friday"`
	Saturday         bool `bson:"saturday" json:"saturday"`
	Sunday           bool `bson:"sunday" json:"sunday"`
}

// Weekdays returns the weekday flags Monday first.
func (f Frequency) Weekdays() [7]bool {
	return [7]bool{f.Monday, f.Tuesday, f.Wednesday, f.Thursday, f.Friday, f.Saturday, f.Sunday}
}

// FrequencyPayload is the frequency as sent with every assignment call.
// Numbers travel as strings.
type FrequencyPayload struct {
	TimesPerDay      string `bson:"timesPerDay" json:"timesPerDay"`
	TimesPerWeek     string `bson:"timesPerWeek" json:"timesPerWeek"`
	BreakBetweenSets string `bson:"breakBetweenSets" json:"breakBetweenSets"`
	Monday           bool   `bson:"monday" json:"monday"`
	Tuesday          bool   `bson:"tuesday" json:"tuesday"`
	Wednesday        bool   `bson:"wednesday" json:"wednesday"`
	Thursday         bool   `bson:"thursday" json:"thursday"`
	Friday           bool   `bson:"friday" json:"friday"`
	Saturday         bool   `bson:"saturday" json:"saturday"`
	Sunday           bool   `bson:"sunday" json:"sunday"`
}

// Assignment connects a template ExerciseSet to a Patient. There is at most
// one assignment per (set, patient); writes are upserts on that pair.
type Assignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SetID       primitive.ObjectID `bson:"setId" json:"setId"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	ClinicianID primitive.ObjectID `bson:"clinicianId" json:"clinicianId"` // Denormalized for ownership checks
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	Frequency   FrequencyPayload   `bson:"frequency" json:"frequency"`
	// Raw JSON override payload keyed by mapping id. Empty means no overrides.
	ExerciseOverrides string           `bson:"exerciseOverrides,omitempty" json:"exerciseOverrides,omitempty"`
	Status            AssignmentStatus `bson:"status" json:"status"`
	AssignedAt        time.Time        `bson:"assignedAt" json:"assignedAt"`
	UpdatedAt         time.Time        `bson:"updatedAt" json:"updatedAt"`
}
