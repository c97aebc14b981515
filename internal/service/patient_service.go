package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPatientNotFound        = errors.New("patient user not found")
	ErrPatientNotRole         = errors.New("user found but is not a patient")
	ErrPatientAlreadyAssigned = errors.New("patient is already managed by another clinician")
	ErrPatientNotManaged      = errors.New("patient is not managed by this clinician")
)

type PatientService interface {
	AddPatientByEmail(ctx context.Context, clinicianID primitive.ObjectID, email string) (*domain.User, error)
	ListPatients(ctx context.Context, clinicianID primitive.ObjectID) ([]domain.User, error)
	// GetManagedPatient loads a patient and checks it belongs to the clinician.
	GetManagedPatient(ctx context.Context, clinicianID, patientID primitive.ObjectID) (*domain.User, error)
}

type patientService struct {
	userRepo repository.UserRepository
	log      logger.Logger
}

func NewPatientService(userRepo repository.UserRepository, log logger.Logger) PatientService {
	return &patientService{
		userRepo: userRepo,
		log:      log.With("service", "patient"),
	}
}

// AddPatientByEmail finds a patient by email and attaches them to the clinician.
// Adding a patient the clinician already manages is a no-op.
func (s *patientService) AddPatientByEmail(ctx context.Context, clinicianID primitive.ObjectID, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if clinicianID == primitive.NilObjectID || email == "" {
		return nil, fmt.Errorf("%w: clinician id and patient email are required", ErrInvalidInput)
	}

	patient, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotRole
	}

	if patient.ClinicianID != nil && *patient.ClinicianID != primitive.NilObjectID {
		if *patient.ClinicianID == clinicianID {
			patient.PasswordHash = ""
			return patient, nil
		}
		return nil, ErrPatientAlreadyAssigned
	}

	if err = s.userRepo.AddPatientToClinician(ctx, clinicianID, patient.ID); err != nil {
		return nil, err
	}
	// No transaction: a failure here leaves the clinician side updated only.
	if err = s.userRepo.SetClinicianForPatient(ctx, patient.ID, clinicianID); err != nil {
		s.log.Error("Patient link half-written", "clinician_id", clinicianID.Hex(), "patient_id", patient.ID.Hex(), "error", err)
		return nil, err
	}

	s.log.Info("Patient attached", "clinician_id", clinicianID.Hex(), "patient_id", patient.ID.Hex())
	patient.ClinicianID = &clinicianID
	patient.PasswordHash = ""
	return patient, nil
}

// ListPatients retrieves the patients managed by the clinician.
func (s *patientService) ListPatients(ctx context.Context, clinicianID primitive.ObjectID) ([]domain.User, error) {
	if clinicianID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: clinician id is required", ErrInvalidInput)
	}
	patients, err := s.userRepo.GetPatientsByClinicianID(ctx, clinicianID)
	if err != nil {
		return nil, err
	}
	for i := range patients {
		patients[i].PasswordHash = ""
	}
	return patients, nil
}

func (s *patientService) GetManagedPatient(ctx context.Context, clinicianID, patientID primitive.ObjectID) (*domain.User, error) {
	return managedPatient(ctx, s.userRepo, clinicianID, patientID)
}

func managedPatient(ctx context.Context, userRepo repository.UserRepository, clinicianID, patientID primitive.ObjectID) (*domain.User, error) {
	patient, err := userRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotRole
	}
	if !patient.ManagedBy(clinicianID) {
		return nil, ErrPatientNotManaged
	}
	patient.PasswordHash = ""
	return patient, nil
}
