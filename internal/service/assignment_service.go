package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/dosage"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/observability"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/repository"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/storage"
	"alcyxob/rehab-assign/internal/wizard"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentAccessDenied = errors.New("access denied to this assignment")
	ErrInvalidDateRange       = errors.New("end date must not be before start date")
	// ErrPartialSubmit means a bulk submit stopped at a failing patient. The
	// patients before it stay assigned; see SubmitResult for the split.
	ErrPartialSubmit = errors.New("bulk assignment stopped at first failure")
)

// SubmitFailure describes the patient a bulk submit stopped at.
type SubmitFailure struct {
	PatientID primitive.ObjectID `json:"patientId"`
	Message   string             `json:"message"`
	Err       error              `json:"-"`
}

// SubmitResult reports a sequential bulk submit. Patients are in selection order.
type SubmitResult struct {
	Assigned []domain.Assignment  `json:"assigned"`
	Failed   *SubmitFailure       `json:"failed,omitempty"`
	Skipped  []primitive.ObjectID `json:"skipped,omitempty"`
}

// Complete reports whether every patient was assigned.
func (r *SubmitResult) Complete() bool {
	return r.Failed == nil && len(r.Skipped) == 0
}

// PatientPlan is an assignment as the patient performs it: hidden exercises
// removed, overrides applied.
type PatientPlan struct {
	Assignment   domain.Assignment  `json:"assignment"`
	SetName      string             `json:"setName"`
	Exercises    []ResolvedExercise `json:"exercises"`
	TotalSeconds int                `json:"totalSeconds"`
	TotalDisplay string             `json:"totalDisplay"`
	Schedule     schedule.Summary   `json:"schedule"`
}

type AssignmentService interface {
	// Assign upserts one patient's assignment. Repeating the call with the same
	// set and patient overwrites dates, frequency and overrides.
	Assign(ctx context.Context, clinicianID primitive.ObjectID, payload wizard.AssignmentPayload) (*domain.Assignment, error)
	// Submit assigns payloads one at a time and stops at the first failure,
	// returning ErrPartialSubmit together with the partial result.
	Submit(ctx context.Context, clinicianID primitive.ObjectID, payloads []wizard.AssignmentPayload) (*SubmitResult, error)
	ListForPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error)
	ListForManagedPatient(ctx context.Context, clinicianID, patientID primitive.ObjectID) ([]domain.Assignment, error)
	PatientPlan(ctx context.Context, patientID, assignmentID primitive.ObjectID) (*PatientPlan, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	setRepo        repository.SetRepository
	mappingRepo    repository.MappingRepository
	exerciseRepo   repository.ExerciseRepository
	userRepo       repository.UserRepository
	fileStorage    storage.FileStorage // optional, presigns custom images in plans
	log            logger.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	setRepo repository.SetRepository,
	mappingRepo repository.MappingRepository,
	exerciseRepo repository.ExerciseRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	log logger.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		setRepo:        setRepo,
		mappingRepo:    mappingRepo,
		exerciseRepo:   exerciseRepo,
		userRepo:       userRepo,
		fileStorage:    fileStorage,
		log:            log.With("service", "assignment"),
	}
}

func (s *assignmentService) Assign(ctx context.Context, clinicianID primitive.ObjectID, payload wizard.AssignmentPayload) (*domain.Assignment, error) {
	if payload.EndDate.Before(payload.StartDate) {
		return nil, ErrInvalidDateRange
	}

	set, err := s.setRepo.GetByID(ctx, payload.SetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	if set.OwnerID != clinicianID {
		return nil, ErrSetAccessDenied
	}
	if _, err := managedPatient(ctx, s.userRepo, clinicianID, payload.PatientID); err != nil {
		return nil, err
	}

	raw, err := payload.Overrides.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode overrides: %w", err)
	}

	stored, err := s.assignmentRepo.Upsert(ctx, &domain.Assignment{
		SetID:             payload.SetID,
		PatientID:         payload.PatientID,
		ClinicianID:       clinicianID,
		StartDate:         payload.StartDate,
		EndDate:           payload.EndDate,
		Frequency:         payload.Frequency,
		ExerciseOverrides: raw,
		Status:            domain.StatusActive,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Set assigned",
		"assignment_id", stored.ID.Hex(),
		"set_id", payload.SetID.Hex(),
		"patient_id", payload.PatientID.Hex(),
		"customized", raw != "",
	)
	return stored, nil
}

func (s *assignmentService) Submit(ctx context.Context, clinicianID primitive.ObjectID, payloads []wizard.AssignmentPayload) (*SubmitResult, error) {
	if len(payloads) == 0 {
		return nil, wizard.ErrNoPatientsSelected
	}

	result := &SubmitResult{Assigned: make([]domain.Assignment, 0, len(payloads))}
	for i, p := range payloads {
		err := ctx.Err()
		if err == nil {
			var a *domain.Assignment
			a, err = s.Assign(ctx, clinicianID, p)
			if err == nil {
				result.Assigned = append(result.Assigned, *a)
				continue
			}
		}

		result.Failed = &SubmitFailure{PatientID: p.PatientID, Message: err.Error(), Err: err}
		for _, rest := range payloads[i+1:] {
			result.Skipped = append(result.Skipped, rest.PatientID)
		}
		observability.RecordSubmit(len(payloads), len(result.Assigned), 1)
		s.log.Warn("Bulk assign stopped",
			"patient_id", p.PatientID.Hex(),
			"assigned", len(result.Assigned),
			"skipped", len(result.Skipped),
			"error", err,
		)
		return result, fmt.Errorf("%w: %w", ErrPartialSubmit, err)
	}

	observability.RecordSubmit(len(payloads), len(result.Assigned), 0)
	return result, nil
}

func (s *assignmentService) ListForPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	return s.assignmentRepo.GetByPatientID(ctx, patientID)
}

func (s *assignmentService) ListForManagedPatient(ctx context.Context, clinicianID, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	if _, err := managedPatient(ctx, s.userRepo, clinicianID, patientID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.GetByPatientID(ctx, patientID)
}

func (s *assignmentService) PatientPlan(ctx context.Context, patientID, assignmentID primitive.ObjectID) (*PatientPlan, error) {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrAssignmentAccessDenied
	}

	set, err := s.setRepo.GetByID(ctx, a.SetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	if err := joinMappings(ctx, s.mappingRepo, s.exerciseRepo, set); err != nil {
		return nil, err
	}

	// Corrupt payloads come back as empty state: the plan shows the template.
	store, excluded := override.Hydrate(a.ExerciseOverrides)
	resolver := override.NewResolver(store)

	exercises := make([]ResolvedExercise, 0, len(set.Mappings))
	for i := range set.Mappings {
		m := &set.Mappings[i]
		if excluded.Contains(m.Key()) {
			continue
		}
		view := resolveExercise(resolver, m, false)
		view.CustomImageURLs = s.presignImages(ctx, view.CustomImages)
		exercises = append(exercises, view)
	}
	total := dosage.PlanTotal(resolver, set.Mappings, excluded)

	return &PatientPlan{
		Assignment:   *a,
		SetName:      set.Name,
		Exercises:    exercises,
		TotalSeconds: total,
		TotalDisplay: dosage.Format(total),
		Schedule: schedule.Summarize(
			schedule.RestoreDateRange(a.StartDate, a.EndDate),
			schedule.FrequencyFromPayload(a.Frequency),
		),
	}, nil
}

func (s *assignmentService) presignImages(ctx context.Context, keys []string) []string {
	if s.fileStorage == nil || len(keys) == 0 {
		return nil
	}
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
		if err != nil {
			s.log.Warn("Skipping custom image", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
