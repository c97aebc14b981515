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
	ErrSetNotFound     = errors.New("exercise set not found")
	ErrSetAccessDenied = errors.New("access denied to this exercise set")
)

// SetService manages template exercise sets and their mappings.
type SetService interface {
	CreateSet(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*domain.ExerciseSet, error)
	// AddExercise appends a library item to the set. A zero Order places it last.
	AddExercise(ctx context.Context, ownerID, setID primitive.ObjectID, mapping domain.ExerciseMapping) (*domain.ExerciseMapping, error)
	ListSets(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseSet, error)
	// GetSet loads an owned set with its mappings and their library items.
	GetSet(ctx context.Context, ownerID, setID primitive.ObjectID) (*domain.ExerciseSet, error)
}

type setService struct {
	setRepo      repository.SetRepository
	mappingRepo  repository.MappingRepository
	exerciseRepo repository.ExerciseRepository
	log          logger.Logger
}

func NewSetService(
	setRepo repository.SetRepository,
	mappingRepo repository.MappingRepository,
	exerciseRepo repository.ExerciseRepository,
	log logger.Logger,
) SetService {
	return &setService{
		setRepo:      setRepo,
		mappingRepo:  mappingRepo,
		exerciseRepo: exerciseRepo,
		log:          log.With("service", "set"),
	}
}

func (s *setService) CreateSet(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*domain.ExerciseSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: set name is required", ErrInvalidInput)
	}
	set := &domain.ExerciseSet{OwnerID: ownerID, Name: name, Description: description}
	id, err := s.setRepo.Create(ctx, set)
	if err != nil {
		return nil, err
	}
	set.ID = id
	s.log.Info("Exercise set created", "set_id", id.Hex(), "owner_id", ownerID.Hex())
	return set, nil
}

func (s *setService) AddExercise(ctx context.Context, ownerID, setID primitive.ObjectID, mapping domain.ExerciseMapping) (*domain.ExerciseMapping, error) {
	if _, err := s.ownedSet(ctx, ownerID, setID); err != nil {
		return nil, err
	}

	item, err := s.exerciseRepo.GetByID(ctx, mapping.ExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, ErrExerciseAccessDenied
	}
	if err := validateDosage(mapping.Dosage); err != nil {
		return nil, err
	}

	if mapping.Order <= 0 {
		existing, err := s.mappingRepo.GetBySetID(ctx, setID)
		if err != nil {
			return nil, err
		}
		for _, m := range existing {
			mapping.Order = max(mapping.Order, m.Order)
		}
		mapping.Order++
	}
	mapping.SetID = setID

	id, err := s.mappingRepo.Create(ctx, &mapping)
	if err != nil {
		return nil, err
	}
	mapping.ID = id
	mapping.Exercise = item
	return &mapping, nil
}

func (s *setService) ListSets(ctx context.Context, ownerID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	return s.setRepo.GetByOwnerID(ctx, ownerID)
}

func (s *setService) GetSet(ctx context.Context, ownerID, setID primitive.ObjectID) (*domain.ExerciseSet, error) {
	set, err := s.ownedSet(ctx, ownerID, setID)
	if err != nil {
		return nil, err
	}
	if err := joinMappings(ctx, s.mappingRepo, s.exerciseRepo, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *setService) ownedSet(ctx context.Context, ownerID, setID primitive.ObjectID) (*domain.ExerciseSet, error) {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	if set.OwnerID != ownerID {
		return nil, ErrSetAccessDenied
	}
	return set, nil
}

// joinMappings fills set.Mappings with their library items. Mappings whose
// library item is gone keep a nil Exercise and resolve from template values only.
func joinMappings(ctx context.Context, mappingRepo repository.MappingRepository, exerciseRepo repository.ExerciseRepository, set *domain.ExerciseSet) error {
	mappings, err := mappingRepo.GetBySetID(ctx, set.ID)
	if err != nil {
		return err
	}

	ids := make([]primitive.ObjectID, 0, len(mappings))
	seen := make(map[primitive.ObjectID]bool, len(mappings))
	for _, m := range mappings {
		if !seen[m.ExerciseID] {
			seen[m.ExerciseID] = true
			ids = append(ids, m.ExerciseID)
		}
	}
	items, err := exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]*domain.ExerciseLibraryItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	for i := range mappings {
		mappings[i].Exercise = byID[mappings[i].ExerciseID]
	}
	set.Mappings = mappings
	return nil
}
