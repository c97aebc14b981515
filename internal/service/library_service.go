package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
)

// LibraryService manages a clinician's exercise library.
type LibraryService interface {
	CreateExercise(ctx context.Context, ownerID primitive.ObjectID, item domain.ExerciseLibraryItem) (*domain.ExerciseLibraryItem, error)
	GetExercise(ctx context.Context, ownerID, exerciseID primitive.ObjectID) (*domain.ExerciseLibraryItem, error)
	ListExercises(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseLibraryItem, error)
}

type libraryService struct {
	exerciseRepo repository.ExerciseRepository
	log          logger.Logger
}

func NewLibraryService(exerciseRepo repository.ExerciseRepository, log logger.Logger) LibraryService {
	return &libraryService{
		exerciseRepo: exerciseRepo,
		log:          log.With("service", "library"),
	}
}

// CreateExercise validates and stores a library item. Type defaults to reps.
func (s *libraryService) CreateExercise(ctx context.Context, ownerID primitive.ObjectID, item domain.ExerciseLibraryItem) (*domain.ExerciseLibraryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if ownerID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	switch item.Type {
	case "":
		item.Type = domain.ExerciseTypeReps
	case domain.ExerciseTypeReps, domain.ExerciseTypeTime:
	default:
		return nil, fmt.Errorf("%w: unknown exercise type %q", ErrValidationFailed, item.Type)
	}
	if err := validateDosage(item.Dosage); err != nil {
		return nil, err
	}

	item.OwnerID = ownerID
	id, err := s.exerciseRepo.Create(ctx, &item)
	if err != nil {
		return nil, err
	}
	item.ID = id
	s.log.Debug("Library item created", "exercise_id", id.Hex(), "owner_id", ownerID.Hex())
	return &item, nil
}

// GetExercise loads one item and checks ownership.
func (s *libraryService) GetExercise(ctx context.Context, ownerID, exerciseID primitive.ObjectID) (*domain.ExerciseLibraryItem, error) {
	item, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, ErrExerciseAccessDenied
	}
	return item, nil
}

func (s *libraryService) ListExercises(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseLibraryItem, error) {
	if ownerID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	return s.exerciseRepo.GetByOwnerID(ctx, ownerID)
}

// validateDosage rejects negative values; nil fields are left to lower layers.
func validateDosage(d domain.Dosage) error {
	fields := map[string]*int{
		"sets":            d.Sets,
		"reps":            d.Reps,
		"duration":        d.Duration,
		"restBetweenSets": d.RestBetweenSets,
		"restBetweenReps": d.RestBetweenReps,
		"executionTime":   d.ExecutionTime,
		"preparationTime": d.PreparationTime,
	}
	for name, v := range fields {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidationFailed, name)
		}
	}
	return nil
}
