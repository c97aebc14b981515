package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/service"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayout is the calendar-day format used for wizard dates on the wire.
const dateLayout = "2006-01-02"

// WizardHandler exposes assignment wizard sessions and their media uploads.
type WizardHandler struct {
	wizardService service.WizardService
	mediaService  service.MediaService
	log           logger.Logger
}

func NewWizardHandler(wizardService service.WizardService, mediaService service.MediaService, log logger.Logger) *WizardHandler {
	return &WizardHandler{wizardService: wizardService, mediaService: mediaService, log: log}
}

// --- DTOs ---

type OpenWizardRequest struct {
	Mode      wizard.Mode `json:"mode" binding:"required,oneof=from-set from-patient"`
	SetID     string      `json:"setId"`
	PatientID string      `json:"patientId"`
}

// SelectSetRequest switches the template; a null setId clears it.
type SelectSetRequest struct {
	SetID *string `json:"setId"`
}

type PatientSelectionRequest struct {
	PatientID string                `json:"patientId" binding:"required"`
	Action    service.PatientAction `json:"action" binding:"omitempty,oneof=add remove toggle"`
}

// OverrideRequest writes one override field. A null or missing value clears it.
type OverrideRequest struct {
	MappingID string         `json:"mappingId" binding:"required"`
	Field     override.Field `json:"field" binding:"required"`
	Value     any            `json:"value"`
}

type MappingRequest struct {
	MappingID string `json:"mappingId" binding:"required"`
}

// DatesRequest carries either or both dates as YYYY-MM-DD.
type DatesRequest struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type PresetRequest struct {
	Preset schedule.Preset `json:"preset" binding:"required"`
}

type GoToRequest struct {
	Step wizard.StepID `json:"step" binding:"required"`
}

type UploadURLRequest struct {
	MappingID   string `json:"mappingId" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	MappingID string `json:"mappingId" binding:"required"`
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName"`
}

// SubmitResponse is returned when a bulk submit stopped part way.
type SubmitResponse struct {
	Error  string                `json:"error"`
	Result *service.SubmitResult `json:"result"`
}

// --- Session lifecycle ---

// Open godoc
// @Summary Open an assignment wizard session
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenWizardRequest true "Entry point and preselection"
// @Success 201 {object} service.WizardView
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Set or patient not owned by caller"
// @Router /clinician/wizards [post]
func (h *WizardHandler) Open(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req OpenWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	open := service.OpenWizardRequest{Mode: req.Mode}
	var err error
	if open.SetID, err = optionalObjectID(req.SetID); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid setId format.")
		return
	}
	if open.PatientID, err = optionalObjectID(req.PatientID); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patientId format.")
		return
	}

	view, err := h.wizardService.Open(c.Request.Context(), clinicianID, open)
	if err != nil {
		respondError(c, h.log, err, "Failed to open wizard")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get godoc
// @Summary Current state of a wizard session
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} service.WizardView
// @Failure 404 {object} gin.H "Session not found or expired"
// @Router /clinician/wizards/{id} [get]
func (h *WizardHandler) Get(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.wizardService.Get(c.Request.Context(), clinicianID, c.Param("id"))
	h.respondView(c, view, err)
}

// Close godoc
// @Summary Discard a wizard session
// @Tags Wizard
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} gin.H "Session not found or expired"
// @Router /clinician/wizards/{id} [delete]
func (h *WizardHandler) Close(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.wizardService.Close(c.Request.Context(), clinicianID, c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to close wizard")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Draft edits ---

// SelectSet godoc
// @Summary Select or clear the template set
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body SelectSetRequest true "Set ID or null"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/set [post]
func (h *WizardHandler) SelectSet(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SelectSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	var setID *primitive.ObjectID
	if req.SetID != nil {
		id, err := primitive.ObjectIDFromHex(*req.SetID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid setId format.")
			return
		}
		setID = &id
	}
	view, err := h.wizardService.SelectSet(c.Request.Context(), clinicianID, c.Param("id"), setID)
	h.respondView(c, view, err)
}

// UpdatePatients godoc
// @Summary Add, remove or toggle a patient in the selection
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body PatientSelectionRequest true "Patient and action (default toggle)"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/patients [post]
func (h *WizardHandler) UpdatePatients(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PatientSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	patientID, err := primitive.ObjectIDFromHex(req.PatientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid patientId format.")
		return
	}
	action := req.Action
	if action == "" {
		action = service.PatientToggle
	}
	view, err := h.wizardService.UpdatePatients(c.Request.Context(), clinicianID, c.Param("id"), patientID, action)
	h.respondView(c, view, err)
}

// UpdateOverride godoc
// @Summary Set or clear one override field of an exercise
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body OverrideRequest true "Mapping, field and value"
// @Success 200 {object} service.WizardView
// @Failure 400 {object} gin.H "Unknown field or invalid value"
// @Failure 404 {object} gin.H "Mapping not in the selected set"
// @Router /clinician/wizards/{id}/overrides [post]
func (h *WizardHandler) UpdateOverride(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.wizardService.UpdateOverride(c.Request.Context(), clinicianID, c.Param("id"), req.MappingID, req.Field, req.Value)
	h.respondView(c, view, err)
}

// ResetOverride godoc
// @Summary Drop every override of an exercise
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body MappingRequest true "Mapping"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/overrides/reset [post]
func (h *WizardHandler) ResetOverride(c *gin.Context) {
	h.mappingAction(c, h.wizardService.ResetOverride)
}

// ToggleExclusion godoc
// @Summary Hide or show an exercise for this assignment
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body MappingRequest true "Mapping"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/exclusions [post]
func (h *WizardHandler) ToggleExclusion(c *gin.Context) {
	h.mappingAction(c, h.wizardService.ToggleExclusion)
}

// SetDates godoc
// @Summary Change the start and/or end date
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body DatesRequest true "Dates as YYYY-MM-DD"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/dates [post]
func (h *WizardHandler) SetDates(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req DatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	start, err := optionalDate(req.StartDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "startDate must be YYYY-MM-DD.")
		return
	}
	end, err := optionalDate(req.EndDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "endDate must be YYYY-MM-DD.")
		return
	}
	view, err := h.wizardService.SetDates(c.Request.Context(), clinicianID, c.Param("id"), start, end)
	h.respondView(c, view, err)
}

// ApplyPreset godoc
// @Summary Apply a duration preset from the start date
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body PresetRequest true "2-weeks, 1-month or 3-months"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/preset [post]
func (h *WizardHandler) ApplyPreset(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.wizardService.ApplyPreset(c.Request.Context(), clinicianID, c.Param("id"), req.Preset)
	h.respondView(c, view, err)
}

// SetFrequency godoc
// @Summary Replace the dosing frequency
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body domain.Frequency true "Frequency"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/frequency [post]
func (h *WizardHandler) SetFrequency(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req domain.Frequency
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.wizardService.SetFrequency(c.Request.Context(), clinicianID, c.Param("id"), req)
	h.respondView(c, view, err)
}

// --- Navigation ---

// Next godoc
// @Summary Advance to the next step when the current one is complete
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/next [post]
func (h *WizardHandler) Next(c *gin.Context) {
	h.sessionAction(c, h.wizardService.Next)
}

// Back godoc
// @Summary Return to the previous step
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	h.sessionAction(c, h.wizardService.Back)
}

// GoTo godoc
// @Summary Jump to a step by id
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body GoToRequest true "Step"
// @Success 200 {object} service.WizardView
// @Router /clinician/wizards/{id}/goto [post]
func (h *WizardHandler) GoTo(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.wizardService.GoTo(c.Request.Context(), clinicianID, c.Param("id"), req.Step)
	h.respondView(c, view, err)
}

// Submit godoc
// @Summary Assign the draft to every selected patient
// @Description Patients are assigned one at a time. On the first failure the
// @Description remaining patients are skipped and 207 is returned with the partial result.
// @Tags Wizard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} service.SubmitResult
// @Success 207 {object} SubmitResponse "Stopped at a failing patient"
// @Failure 409 {object} gin.H "Wizard not ready"
// @Router /clinician/wizards/{id}/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.wizardService.Submit(c.Request.Context(), clinicianID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPartialSubmit) && result != nil {
			c.JSON(http.StatusMultiStatus, SubmitResponse{Error: err.Error(), Result: result})
			return
		}
		respondError(c, h.log, err, "Failed to submit assignments")
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Media ---

// RequestUploadURL godoc
// @Summary Presigned URL for a custom exercise image
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body UploadURLRequest true "Mapping and file"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Router /clinician/wizards/{id}/media/upload-url [post]
func (h *WizardHandler) RequestUploadURL(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	resp, err := h.mediaService.RequestUploadURL(c.Request.Context(), clinicianID, c.Param("id"), req.MappingID, req.FileName, req.ContentType)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Attach an uploaded image to the exercise's overrides
// @Tags Wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body ConfirmUploadRequest true "Mapping and object key"
// @Success 200 {object} service.WizardView
// @Failure 409 {object} gin.H "Nothing uploaded under the key"
// @Router /clinician/wizards/{id}/media/confirm [post]
func (h *WizardHandler) ConfirmUpload(c *gin.Context) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.mediaService.ConfirmUpload(c.Request.Context(), clinicianID, c.Param("id"), req.MappingID, req.ObjectKey, req.FileName)
	h.respondView(c, view, err)
}

// --- helpers ---

type sessionFunc func(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*service.WizardView, error)

type mappingFunc func(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*service.WizardView, error)

func (h *WizardHandler) sessionAction(c *gin.Context, fn sessionFunc) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := fn(c.Request.Context(), clinicianID, c.Param("id"))
	h.respondView(c, view, err)
}

func (h *WizardHandler) mappingAction(c *gin.Context, fn mappingFunc) {
	clinicianID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := fn(c.Request.Context(), clinicianID, c.Param("id"), req.MappingID)
	h.respondView(c, view, err)
}

func (h *WizardHandler) respondView(c *gin.Context, view *service.WizardView, err error) {
	if err != nil {
		respondError(c, h.log, err, "Wizard operation failed")
		return
	}
	c.JSON(http.StatusOK, view)
}

func optionalObjectID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
