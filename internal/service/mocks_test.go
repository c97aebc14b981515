package service

import (
	"context"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/storage"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testLog = logger.Nop()

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) AddPatientToClinician(ctx context.Context, clinicianID, patientID primitive.ObjectID) error {
	return m.Called(ctx, clinicianID, patientID).Error(0)
}

func (m *mockUserRepo) SetClinicianForPatient(ctx context.Context, patientID, clinicianID primitive.ObjectID) error {
	return m.Called(ctx, patientID, clinicianID).Error(0)
}

func (m *mockUserRepo) GetPatientsByClinicianID(ctx context.Context, clinicianID primitive.ObjectID) ([]domain.User, error) {
	args := m.Called(ctx, clinicianID)
	u, _ := args.Get(0).([]domain.User)
	return u, args.Error(1)
}

type mockExerciseRepo struct{ mock.Mock }

func (m *mockExerciseRepo) Create(ctx context.Context, item *domain.ExerciseLibraryItem) (primitive.ObjectID, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseLibraryItem, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*domain.ExerciseLibraryItem)
	return e, args.Error(1)
}

func (m *mockExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ExerciseLibraryItem, error) {
	args := m.Called(ctx, ids)
	e, _ := args.Get(0).([]domain.ExerciseLibraryItem)
	return e, args.Error(1)
}

func (m *mockExerciseRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseLibraryItem, error) {
	args := m.Called(ctx, ownerID)
	e, _ := args.Get(0).([]domain.ExerciseLibraryItem)
	return e, args.Error(1)
}

type mockSetRepo struct{ mock.Mock }

func (m *mockSetRepo) Create(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	args := m.Called(ctx, set)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockSetRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseSet, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.ExerciseSet)
	if s != nil {
		cp := *s // callers mutate Mappings
		return &cp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSetRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	args := m.Called(ctx, ownerID)
	s, _ := args.Get(0).([]domain.ExerciseSet)
	return s, args.Error(1)
}

type mockMappingRepo struct{ mock.Mock }

func (m *mockMappingRepo) Create(ctx context.Context, mapping *domain.ExerciseMapping) (primitive.ObjectID, error) {
	args := m.Called(ctx, mapping)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockMappingRepo) GetBySetID(ctx context.Context, setID primitive.ObjectID) ([]domain.ExerciseMapping, error) {
	args := m.Called(ctx, setID)
	ms, _ := args.Get(0).([]domain.ExerciseMapping)
	out := make([]domain.ExerciseMapping, len(ms))
	copy(out, ms)
	return out, args.Error(1)
}

type mockAssignmentRepo struct{ mock.Mock }

func (m *mockAssignmentRepo) Upsert(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	args := m.Called(ctx, a)
	stored, _ := args.Get(0).(*domain.Assignment)
	return stored, args.Error(1)
}

func (m *mockAssignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*domain.Assignment)
	return a, args.Error(1)
}

func (m *mockAssignmentRepo) GetBySetAndPatient(ctx context.Context, setID, patientID primitive.ObjectID) (*domain.Assignment, error) {
	args := m.Called(ctx, setID, patientID)
	a, _ := args.Get(0).(*domain.Assignment)
	return a, args.Error(1)
}

func (m *mockAssignmentRepo) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	args := m.Called(ctx, patientID)
	a, _ := args.Get(0).([]domain.Assignment)
	return a, args.Error(1)
}

type mockUploadRepo struct{ mock.Mock }

func (m *mockUploadRepo) Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockUploadRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.Upload)
	return u, args.Error(1)
}

func (m *mockUploadRepo) GetByMappingID(ctx context.Context, ownerID, mappingID primitive.ObjectID) ([]domain.Upload, error) {
	args := m.Called(ctx, ownerID, mappingID)
	u, _ := args.Get(0).([]domain.Upload)
	return u, args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, contentType, expires)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expires)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) StatObject(ctx context.Context, objectKey string) (*storage.ObjectMetadata, error) {
	args := m.Called(ctx, objectKey)
	meta, _ := args.Get(0).(*storage.ObjectMetadata)
	return meta, args.Error(1)
}

func (m *mockStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return m.Called(ctx, objectKey).Error(0)
}

// fixture is a clinician owning one set of two exercises and two patients.
type fixture struct {
	clinicianID primitive.ObjectID
	set         *domain.ExerciseSet
	mappings    []domain.ExerciseMapping
	items       []domain.ExerciseLibraryItem
	patients    []domain.User
}

func newFixture() *fixture {
	clinicianID := primitive.NewObjectID()
	set := &domain.ExerciseSet{ID: primitive.NewObjectID(), OwnerID: clinicianID, Name: "Knee rehab"}
	items := []domain.ExerciseLibraryItem{
		{ID: primitive.NewObjectID(), OwnerID: clinicianID, Name: "Squat", Type: domain.ExerciseTypeReps},
		{ID: primitive.NewObjectID(), OwnerID: clinicianID, Name: "Plank", Type: domain.ExerciseTypeTime,
			Dosage: domain.Dosage{Duration: domain.IntPtr(30)}},
	}
	mappings := []domain.ExerciseMapping{
		{ID: primitive.NewObjectID(), SetID: set.ID, ExerciseID: items[0].ID, Order: 1,
			Dosage: domain.Dosage{Sets: domain.IntPtr(2), Reps: domain.IntPtr(10), RestBetweenSets: domain.IntPtr(30)}},
		{ID: primitive.NewObjectID(), SetID: set.ID, ExerciseID: items[1].ID, Order: 2,
			Dosage: domain.Dosage{Sets: domain.IntPtr(1), RestBetweenSets: domain.IntPtr(0)}},
	}
	patients := make([]domain.User, 2)
	for i, name := range []string{"Ann", "Bob"} {
		patients[i] = domain.User{
			ID: primitive.NewObjectID(), Name: name, Email: name + "@example.com",
			Role: domain.RolePatient, ClinicianID: &clinicianID, PasswordHash: "hash",
		}
	}
	return &fixture{clinicianID: clinicianID, set: set, mappings: mappings, items: items, patients: patients}
}

// expectSetLoad wires the repository calls behind loading the fixture set.
func (f *fixture) expectSetLoad(sets *mockSetRepo, maps *mockMappingRepo, exercises *mockExerciseRepo) {
	sets.On("GetByID", mock.Anything, f.set.ID).Return(f.set, nil)
	maps.On("GetBySetID", mock.Anything, f.set.ID).Return(f.mappings, nil)
	exercises.On("GetByIDs", mock.Anything, mock.Anything).Return(f.items, nil)
}

func (f *fixture) expectPatients(users *mockUserRepo) {
	for i := range f.patients {
		p := f.patients[i]
		users.On("GetByID", mock.Anything, p.ID).Return(&p, nil)
	}
}
