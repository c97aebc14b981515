package repository

import (
	"context"

	"alcyxob/rehab-assign/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrConflict     = RepositoryError("already exists")
	ErrInvalid      = RepositoryError("invalid document")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddPatientToClinician(ctx context.Context, clinicianID, patientID primitive.ObjectID) error
	SetClinicianForPatient(ctx context.Context, patientID, clinicianID primitive.ObjectID) error
	GetPatientsByClinicianID(ctx context.Context, clinicianID primitive.ObjectID) ([]domain.User, error)
}

// ExerciseRepository stores exercise library items.
type ExerciseRepository interface {
	Create(ctx context.Context, item *domain.ExerciseLibraryItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseLibraryItem, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ExerciseLibraryItem, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseLibraryItem, error)
}

// SetRepository stores template exercise sets (without their mappings).
type SetRepository interface {
	Create(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseSet, error)
}

// MappingRepository stores the exercise entries of template sets.
type MappingRepository interface {
	Create(ctx context.Context, mapping *domain.ExerciseMapping) (primitive.ObjectID, error)
	GetBySetID(ctx context.Context, setID primitive.ObjectID) ([]domain.ExerciseMapping, error) // ordered by Order
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	// Upsert writes the assignment keyed by (SetID, PatientID). Calling it
	// again with the same pair replaces dates, frequency and overrides.
	Upsert(ctx context.Context, assignment *domain.Assignment) (*domain.Assignment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetBySetAndPatient(ctx context.Context, setID, patientID primitive.ObjectID) (*domain.Assignment, error)
	GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error)
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
	GetByMappingID(ctx context.Context, ownerID, mappingID primitive.ObjectID) ([]domain.Upload, error)
}
