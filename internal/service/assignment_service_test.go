package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/repository"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentDeps struct {
	assignments *mockAssignmentRepo
	sets        *mockSetRepo
	maps        *mockMappingRepo
	exercises   *mockExerciseRepo
	users       *mockUserRepo
	storage     *mockStorage
}

func newAssignmentDeps() *assignmentDeps {
	return &assignmentDeps{
		assignments: new(mockAssignmentRepo),
		sets:        new(mockSetRepo),
		maps:        new(mockMappingRepo),
		exercises:   new(mockExerciseRepo),
		users:       new(mockUserRepo),
		storage:     new(mockStorage),
	}
}

func (d *assignmentDeps) service() AssignmentService {
	return NewAssignmentService(d.assignments, d.sets, d.maps, d.exercises, d.users, d.storage, testLog)
}

func payloadFor(f *fixture, patientID primitive.ObjectID) wizard.AssignmentPayload {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return wizard.AssignmentPayload{
		SetID:     f.set.ID,
		PatientID: patientID,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Frequency: domain.FrequencyPayload{TimesPerDay: "1", TimesPerWeek: "3", BreakBetweenSets: "0"},
	}
}

func upsertFor(patientID primitive.ObjectID) any {
	return mock.MatchedBy(func(a *domain.Assignment) bool { return a.PatientID == patientID })
}

func TestAssignmentService_Assign(t *testing.T) {
	ctx := context.Background()

	t.Run("Should upsert with the serialized overrides", func(t *testing.T) {
		f := newFixture()
		d := newAssignmentDeps()
		d.sets.On("GetByID", ctx, f.set.ID).Return(f.set, nil)
		f.expectPatients(d.users)

		p := payloadFor(f, f.patients[0].ID)
		p.Overrides = override.Payload{f.mappings[0].Key(): {override.FieldReps: 12}}
		stored := &domain.Assignment{ID: primitive.NewObjectID(), PatientID: f.patients[0].ID}
		d.assignments.On("Upsert", ctx, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.ClinicianID == f.clinicianID &&
				a.ExerciseOverrides == `{"`+f.mappings[0].Key()+`":{"reps":12}}` &&
				a.Frequency.TimesPerWeek == "3"
		})).Return(stored, nil)

		got, err := d.service().Assign(ctx, f.clinicianID, p)
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
		d.assignments.AssertExpectations(t)
	})

	t.Run("Should send an empty override string when nothing is customized", func(t *testing.T) {
		f := newFixture()
		d := newAssignmentDeps()
		d.sets.On("GetByID", ctx, f.set.ID).Return(f.set, nil)
		f.expectPatients(d.users)
		d.assignments.On("Upsert", ctx, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.ExerciseOverrides == ""
		})).Return(&domain.Assignment{}, nil)

		_, err := d.service().Assign(ctx, f.clinicianID, payloadFor(f, f.patients[0].ID))
		require.NoError(t, err)
		d.assignments.AssertExpectations(t)
	})

	t.Run("Should refuse an inverted date range", func(t *testing.T) {
		f := newFixture()
		p := payloadFor(f, f.patients[0].ID)
		p.EndDate = p.StartDate.AddDate(0, 0, -1)

		_, err := newAssignmentDeps().service().Assign(ctx, f.clinicianID, p)
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("Should refuse unmanaged patients", func(t *testing.T) {
		f := newFixture()
		d := newAssignmentDeps()
		d.sets.On("GetByID", ctx, f.set.ID).Return(f.set, nil)
		stranger := domain.User{ID: primitive.NewObjectID(), Role: domain.RolePatient}
		d.users.On("GetByID", ctx, stranger.ID).Return(&stranger, nil)

		_, err := d.service().Assign(ctx, f.clinicianID, payloadFor(f, stranger.ID))
		assert.ErrorIs(t, err, ErrPatientNotManaged)
		d.assignments.AssertNotCalled(t, "Upsert")
	})
}

func TestAssignmentService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should assign every patient in order", func(t *testing.T) {
		f := newFixture()
		d := newAssignmentDeps()
		d.sets.On("GetByID", ctx, f.set.ID).Return(f.set, nil)
		f.expectPatients(d.users)
		for _, p := range f.patients {
			d.assignments.On("Upsert", ctx, upsertFor(p.ID)).Return(&domain.Assignment{PatientID: p.ID}, nil).Once()
		}

		result, err := d.service().Submit(ctx, f.clinicianID, []wizard.AssignmentPayload{
			payloadFor(f, f.patients[0].ID), payloadFor(f, f.patients[1].ID),
		})
		require.NoError(t, err)
		assert.True(t, result.Complete())
		require.Len(t, result.Assigned, 2)
		assert.Equal(t, f.patients[0].ID, result.Assigned[0].PatientID)
		assert.Equal(t, f.patients[1].ID, result.Assigned[1].PatientID)
	})

	t.Run("Should stop at the first failure and skip the rest", func(t *testing.T) {
		f := newFixture()
		third := domain.User{ID: primitive.NewObjectID(), Role: domain.RolePatient, ClinicianID: &f.clinicianID}
		f.patients = append(f.patients, third)

		d := newAssignmentDeps()
		d.sets.On("GetByID", ctx, f.set.ID).Return(f.set, nil)
		f.expectPatients(d.users)
		boom := errors.New("write failed")
		d.assignments.On("Upsert", ctx, upsertFor(f.patients[0].ID)).Return(&domain.Assignment{PatientID: f.patients[0].ID}, nil)
		d.assignments.On("Upsert", ctx, upsertFor(f.patients[1].ID)).Return(nil, boom)

		result, err := d.service().Submit(ctx, f.clinicianID, []wizard.AssignmentPayload{
			payloadFor(f, f.patients[0].ID), payloadFor(f, f.patients[1].ID), payloadFor(f, third.ID),
		})
		require.ErrorIs(t, err, ErrPartialSubmit)
		assert.ErrorIs(t, err, boom)
		require.NotNil(t, result)
		assert.Len(t, result.Assigned, 1)
		require.NotNil(t, result.Failed)
		assert.Equal(t, f.patients[1].ID, result.Failed.PatientID)
		assert.Equal(t, []primitive.ObjectID{third.ID}, result.Skipped)
		d.assignments.AssertNotCalled(t, "Upsert", ctx, upsertFor(third.ID))
	})

	t.Run("Should not start after the context is cancelled", func(t *testing.T) {
		f := newFixture()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		d := newAssignmentDeps()
		result, err := d.service().Submit(cancelled, f.clinicianID, []wizard.AssignmentPayload{payloadFor(f, f.patients[0].ID)})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, result.Assigned)
		d.assignments.AssertNotCalled(t, "Upsert")
	})

	t.Run("Should reject an empty batch", func(t *testing.T) {
		_, err := newAssignmentDeps().service().Submit(ctx, primitive.NewObjectID(), nil)
		assert.ErrorIs(t, err, wizard.ErrNoPatientsSelected)
	})
}

func TestAssignmentService_PatientPlan(t *testing.T) {
	ctx := context.Background()

	setup := func(overrides string) (*fixture, *assignmentDeps, *domain.Assignment) {
		f := newFixture()
		d := newAssignmentDeps()
		a := &domain.Assignment{
			ID:                primitive.NewObjectID(),
			SetID:             f.set.ID,
			PatientID:         f.patients[0].ID,
			StartDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
			Frequency:         domain.FrequencyPayload{TimesPerDay: "1", TimesPerWeek: "3"},
			ExerciseOverrides: overrides,
		}
		d.assignments.On("GetByID", ctx, a.ID).Return(a, nil)
		f.expectSetLoad(d.sets, d.maps, d.exercises)
		return f, d, a
	}

	t.Run("Should hide excluded exercises and apply overrides", func(t *testing.T) {
		f, d, a := setup("")
		a.ExerciseOverrides = `{"` + f.mappings[0].Key() + `":{"hidden":true,"reps":99},` +
			`"` + f.mappings[1].Key() + `":{"customName":"Side plank","sets":3,"customImages":["k1"]}}`
		d.storage.On("GeneratePresignedDownloadURL", ctx, "k1", mock.Anything).Return("https://signed/k1", nil)

		plan, err := d.service().PatientPlan(ctx, f.patients[0].ID, a.ID)
		require.NoError(t, err)
		require.Len(t, plan.Exercises, 1)
		ex := plan.Exercises[0]
		assert.Equal(t, "Side plank", ex.Name)
		assert.Equal(t, 3, ex.Sets)
		assert.Equal(t, domain.ExerciseTypeTime, ex.Type)
		assert.Equal(t, []string{"https://signed/k1"}, ex.CustomImageURLs)
		assert.Equal(t, 90, plan.TotalSeconds)
		assert.Equal(t, "2 min", plan.TotalDisplay)
		assert.Equal(t, 28, plan.Schedule.DurationDays)
		assert.Equal(t, 12, plan.Schedule.TotalSessions)
	})

	t.Run("Should fall back to the template on a corrupt payload", func(t *testing.T) {
		f, d, a := setup(`{"broken`)

		plan, err := d.service().PatientPlan(ctx, f.patients[0].ID, a.ID)
		require.NoError(t, err)
		require.Len(t, plan.Exercises, 2)
		assert.Equal(t, "Squat", plan.Exercises[0].Name)
		assert.Equal(t, 120, plan.TotalSeconds)
	})

	t.Run("Should refuse other patients", func(t *testing.T) {
		_, d, a := setup("")
		_, err := d.service().PatientPlan(ctx, primitive.NewObjectID(), a.ID)
		assert.ErrorIs(t, err, ErrAssignmentAccessDenied)
	})

	t.Run("Should map missing assignments", func(t *testing.T) {
		d := newAssignmentDeps()
		id := primitive.NewObjectID()
		d.assignments.On("GetByID", ctx, id).Return(nil, repository.ErrNotFound)
		_, err := d.service().PatientPlan(ctx, primitive.NewObjectID(), id)
		assert.ErrorIs(t, err, ErrAssignmentNotFound)
	})
}
