package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/repository"
	"alcyxob/rehab-assign/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUnsupportedMedia         = errors.New("only jpeg, png, webp and gif images can be uploaded")
	ErrUploadURLError           = errors.New("failed to generate upload URL")
	ErrUploadKeyMismatch        = errors.New("object key was not issued for this exercise")
	ErrUploadMissing            = errors.New("no object was uploaded under this key")
	ErrUploadConfirmationFailed = errors.New("failed to confirm upload")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadURLResponse carries the presigned PUT and the key to confirm afterwards.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// MediaService handles custom exercise images attached while tailoring an
// assignment in the wizard.
type MediaService interface {
	RequestUploadURL(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, fileName, contentType string) (*UploadURLResponse, error)
	// ConfirmUpload records the uploaded object and appends its key to the
	// mapping's customImages override.
	ConfirmUpload(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey, fileName string) (*WizardView, error)
}

type mediaService struct {
	wizards     WizardService
	uploadRepo  repository.UploadRepository
	fileStorage storage.FileStorage
	log         logger.Logger
}

func NewMediaService(wizards WizardService, uploadRepo repository.UploadRepository, fileStorage storage.FileStorage, log logger.Logger) MediaService {
	return &mediaService{
		wizards:     wizards,
		uploadRepo:  uploadRepo,
		fileStorage: fileStorage,
		log:         log.With("service", "media"),
	}
}

func (s *mediaService) RequestUploadURL(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, fileName, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedImageTypes[contentType] {
		return nil, ErrUnsupportedMedia
	}
	if _, err := s.wizards.Mapping(ctx, clinicianID, sessionID, mappingID); err != nil {
		return nil, err
	}

	objectKey := storage.ExerciseImageKey(clinicianID.Hex(), mappingID, fileName)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *mediaService) ConfirmUpload(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey, fileName string) (*WizardView, error) {
	mapping, err := s.wizards.Mapping(ctx, clinicianID, sessionID, mappingID)
	if err != nil {
		return nil, err
	}
	if !storage.KeyBelongsTo(objectKey, clinicianID.Hex(), mappingID) {
		return nil, ErrUploadKeyMismatch
	}

	meta, err := s.fileStorage.StatObject(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrUploadMissing
		}
		return nil, fmt.Errorf("%w: %w", ErrUploadConfirmationFailed, err)
	}

	upload := &domain.Upload{
		OwnerID:     clinicianID,
		MappingID:   mapping.ID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: meta.ContentType,
		Size:        meta.Size,
	}
	if _, err := s.uploadRepo.Create(ctx, upload); err != nil && !errors.Is(err, repository.ErrConflict) {
		// ErrConflict means this key was confirmed before; appending again is harmless.
		s.log.Error("Saving upload metadata failed", "key", objectKey, "error", err)
		return nil, ErrUploadConfirmationFailed
	}

	return s.wizards.AppendCustomImage(ctx, clinicianID, sessionID, mappingID, objectKey)
}
