package api

import (
	"net/http"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/service"

	"github.com/gin-gonic/gin"
)

// PatientHandler serves a patient's own assignments.
type PatientHandler struct {
	assignmentService service.AssignmentService
	log               logger.Logger
}

func NewPatientHandler(assignmentService service.AssignmentService, log logger.Logger) *PatientHandler {
	return &PatientHandler{assignmentService: assignmentService, log: log}
}

// ListMyAssignments godoc
// @Summary List the caller's assignments
// @Tags Patient
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Assignment
// @Router /patient/assignments [get]
func (h *PatientHandler) ListMyAssignments(c *gin.Context) {
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignments, err := h.assignmentService.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve assignments")
		return
	}
	if assignments == nil {
		c.JSON(http.StatusOK, []domain.Assignment{})
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// GetPlan godoc
// @Summary Exercises of one assignment with overrides applied
// @Tags Patient
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} service.PatientPlan
// @Failure 403 {object} gin.H "Assignment belongs to another patient"
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /patient/assignments/{assignmentId}/plan [get]
func (h *PatientHandler) GetPlan(c *gin.Context) {
	patientID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	plan, err := h.assignmentService.PatientPlan(c.Request.Context(), patientID, assignmentID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}
