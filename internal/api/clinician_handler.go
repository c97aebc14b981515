package api

import (
	"fmt"
	"net/http"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClinicianHandler serves the clinician's patients, exercise library and
// template sets.
type ClinicianHandler struct {
	patientService    service.PatientService
	libraryService    service.LibraryService
	setService        service.SetService
	assignmentService service.AssignmentService
	log               logger.Logger
}

func NewClinicianHandler(
	patientService service.PatientService,
	libraryService service.LibraryService,
	setService service.SetService,
	assignmentService service.AssignmentService,
	log logger.Logger,
) *ClinicianHandler {
	return &ClinicianHandler{
		patientService:    patientService,
		libraryService:    libraryService,
		setService:        setService,
		assignmentService: assignmentService,
		log:               log,
	}
}

// --- DTOs ---

type AddPatientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CreateExerciseRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Type        domain.ExerciseType `json:"type" binding:"omitempty,oneof=reps time"`
	Side        string              `json:"side"`
	VideoURL    string              `json:"videoUrl" binding:"omitempty,url"`
	ImageURL    string              `json:"imageUrl" binding:"omitempty,url"`
	Images      []string            `json:"images"`
	domain.Dosage
}

type CreateSetRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AddSetExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Order      int    `json:"order" binding:"min=0"`
	Side       string `json:"side"`
	Notes      string `json:"notes"`
	domain.Dosage
}

// --- Patients ---

// AddPatient godoc
// @Summary Attach an existing patient account by email
// @Tags Clinician
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patient body AddPatientRequest true "Patient email"
// @Success 200 {object} UserResponse
// @Failure 404 {object} gin.H "Patient not found"
// @Failure 409 {object} gin.H "Patient managed by another clinician"
// @Router /clinician/patients [post]
func (h *ClinicianHandler) AddPatient(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req AddPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	patient, err := h.patientService.AddPatientByEmail(c.Request.Context(), clinicianID, req.Email)
	if err != nil {
		respondError(c, h.log, err, "Failed to add patient")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(patient))
}

// ListPatients godoc
// @Summary List managed patients
// @Tags Clinician
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /clinician/patients [get]
func (h *ClinicianHandler) ListPatients(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	patients, err := h.patientService.ListPatients(c.Request.Context(), clinicianID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve patients")
		return
	}
	c.JSON(http.StatusOK, mapUsers(patients))
}

// ListPatientAssignments godoc
// @Summary List the assignments of a managed patient
// @Tags Clinician
// @Produce json
// @Security BearerAuth
// @Param patientId path string true "Patient ID"
// @Success 200 {array} domain.Assignment
// @Failure 403 {object} gin.H "Patient not managed by caller"
// @Router /clinician/patients/{patientId}/assignments [get]
func (h *ClinicianHandler) ListPatientAssignments(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	patientID, ok := pathObjectID(c, "patientId")
	if !ok {
		return
	}
	assignments, err := h.assignmentService.ListForManagedPatient(c.Request.Context(), clinicianID, patientID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve assignments")
		return
	}
	if assignments == nil {
		assignments = []domain.Assignment{}
	}
	c.JSON(http.StatusOK, assignments)
}

// --- Exercise library ---

// CreateExercise godoc
// @Summary Add an exercise to the caller's library
// @Tags Clinician
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise"
// @Success 201 {object} domain.ExerciseLibraryItem
// @Failure 400 {object} gin.H "Invalid input"
// @Router /clinician/exercises [post]
func (h *ClinicianHandler) CreateExercise(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	item := domain.ExerciseLibraryItem{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Side:        req.Side,
		VideoURL:    req.VideoURL,
		ImageURL:    req.ImageURL,
		Images:      req.Images,
		Dosage:      req.Dosage,
	}
	created, err := h.libraryService.CreateExercise(c.Request.Context(), clinicianID, item)
	if err != nil {
		respondError(c, h.log, err, "Failed to create exercise")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListExercises godoc
// @Summary List the caller's exercise library
// @Tags Clinician
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ExerciseLibraryItem
// @Router /clinician/exercises [get]
func (h *ClinicianHandler) ListExercises(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.libraryService.ListExercises(c.Request.Context(), clinicianID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve exercises")
		return
	}
	if items == nil {
		items = []domain.ExerciseLibraryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// --- Template sets ---

// CreateSet godoc
// @Summary Create an empty exercise set
// @Tags Clinician
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param set body CreateSetRequest true "Set"
// @Success 201 {object} domain.ExerciseSet
// @Router /clinician/sets [post]
func (h *ClinicianHandler) CreateSet(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	set, err := h.setService.CreateSet(c.Request.Context(), clinicianID, req.Name, req.Description)
	if err != nil {
		respondError(c, h.log, err, "Failed to create set")
		return
	}
	c.JSON(http.StatusCreated, set)
}

// ListSets godoc
// @Summary List the caller's exercise sets
// @Tags Clinician
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ExerciseSet
// @Router /clinician/sets [get]
func (h *ClinicianHandler) ListSets(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	sets, err := h.setService.ListSets(c.Request.Context(), clinicianID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve sets")
		return
	}
	if sets == nil {
		sets = []domain.ExerciseSet{}
	}
	c.JSON(http.StatusOK, sets)
}

// GetSet godoc
// @Summary Get a set with its exercises
// @Tags Clinician
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Success 200 {object} domain.ExerciseSet
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Not found"
// @Router /clinician/sets/{setId} [get]
func (h *ClinicianHandler) GetSet(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}
	set, err := h.setService.GetSet(c.Request.Context(), clinicianID, setID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve set")
		return
	}
	c.JSON(http.StatusOK, set)
}

// AddSetExercise godoc
// @Summary Append a library exercise to a set
// @Tags Clinician
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Param mapping body AddSetExerciseRequest true "Exercise and template dosage"
// @Success 201 {object} domain.ExerciseMapping
// @Router /clinician/sets/{setId}/exercises [post]
func (h *ClinicianHandler) AddSetExercise(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}
	var req AddSetExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format.")
		return
	}

	mapping := domain.ExerciseMapping{
		ExerciseID: exerciseID,
		Order:      req.Order,
		Side:       req.Side,
		Notes:      req.Notes,
		Dosage:     req.Dosage,
	}
	created, err := h.setService.AddExercise(c.Request.Context(), clinicianID, setID, mapping)
	if err != nil {
		respondError(c, h.log, err, "Failed to add exercise to set")
		return
	}
	c.JSON(http.StatusCreated, created)
}
