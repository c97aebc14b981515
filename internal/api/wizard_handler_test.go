package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/service"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type wizardHarness struct {
	wizards     *MockWizardService
	media       *MockMediaService
	router      *gin.Engine
	clinicianID primitive.ObjectID
	token       string
}

func newWizardHarness(t *testing.T) *wizardHarness {
	h := &wizardHarness{
		wizards:     new(MockWizardService),
		media:       new(MockMediaService),
		clinicianID: primitive.NewObjectID(),
	}
	h.router = newTestRouter(Services{Wizards: h.wizards, Media: h.media})
	h.token = signToken(t, h.clinicianID, domain.RoleClinician)
	return h
}

func (h *wizardHarness) do(t *testing.T, method, path string, body any) (int, string) {
	w := doRequest(t, h.router, method, path, h.token, body)
	return w.Code, w.Body.String()
}

func TestWizardHandler_Open(t *testing.T) {
	t.Run("Should open a from-set session with a preselected set", func(t *testing.T) {
		h := newWizardHarness(t)
		setID := primitive.NewObjectID()
		want := service.OpenWizardRequest{Mode: wizard.ModeFromSet, SetID: &setID}
		h.wizards.On("Open", mock.Anything, h.clinicianID, want).
			Return(&service.WizardView{ID: "s1", Mode: wizard.ModeFromSet}, nil).Once()

		code, body := h.do(t, http.MethodPost, "/api/v1/clinician/wizards", gin.H{"mode": "from-set", "setId": setID.Hex()})

		assert.Equal(t, http.StatusCreated, code)
		assert.Contains(t, body, `"id":"s1"`)
		h.wizards.AssertExpectations(t)
	})

	t.Run("Should reject an unknown mode before calling the service", func(t *testing.T) {
		h := newWizardHarness(t)
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards", gin.H{"mode": "sideways"})
		assert.Equal(t, http.StatusBadRequest, code)
		h.wizards.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject a malformed patient id", func(t *testing.T) {
		h := newWizardHarness(t)
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards", gin.H{"mode": "from-patient", "patientId": "nope"})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestWizardHandler_Session(t *testing.T) {
	t.Run("Should return 404 for an expired session", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("Get", mock.Anything, h.clinicianID, "gone").Return(nil, service.ErrWizardNotFound).Once()

		code, body := h.do(t, http.MethodGet, "/api/v1/clinician/wizards/gone", nil)

		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, body, service.ErrWizardNotFound.Error())
	})

	t.Run("Should close a session with 204", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("Close", mock.Anything, h.clinicianID, "s1").Return(nil).Once()

		code, _ := h.do(t, http.MethodDelete, "/api/v1/clinician/wizards/s1", nil)

		assert.Equal(t, http.StatusNoContent, code)
	})

	t.Run("Should clear the set when setId is null", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("SelectSet", mock.Anything, h.clinicianID, "s1", (*primitive.ObjectID)(nil)).
			Return(&service.WizardView{ID: "s1"}, nil).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/set", gin.H{"setId": nil})

		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})

	t.Run("Should default the patient action to toggle", func(t *testing.T) {
		h := newWizardHarness(t)
		patientID := primitive.NewObjectID()
		h.wizards.On("UpdatePatients", mock.Anything, h.clinicianID, "s1", patientID, service.PatientToggle).
			Return(&service.WizardView{ID: "s1"}, nil).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/patients", gin.H{"patientId": patientID.Hex()})

		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})
}

func TestWizardHandler_Overrides(t *testing.T) {
	t.Run("Should forward the decoded JSON value", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("UpdateOverride", mock.Anything, h.clinicianID, "s1", "m1", override.FieldSets, float64(4)).
			Return(&service.WizardView{ID: "s1"}, nil).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/overrides",
			gin.H{"mappingId": "m1", "field": "sets", "value": 4})

		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})

	t.Run("Should map an unknown field to 400", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("UpdateOverride", mock.Anything, h.clinicianID, "s1", "m1", override.Field("colour"), "red").
			Return(nil, fmt.Errorf("%w: colour", override.ErrUnknownField)).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/overrides",
			gin.H{"mappingId": "m1", "field": "colour", "value": "red"})

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Should map a mapping outside the set to 404", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("ToggleExclusion", mock.Anything, h.clinicianID, "s1", "other").
			Return(nil, wizard.ErrUnknownMapping).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/exclusions", gin.H{"mappingId": "other"})

		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Should require a mapping id for reset", func(t *testing.T) {
		h := newWizardHarness(t)
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/overrides/reset", gin.H{})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestWizardHandler_Schedule(t *testing.T) {
	t.Run("Should parse calendar dates and pass nil for the missing one", func(t *testing.T) {
		h := newWizardHarness(t)
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		h.wizards.On("SetDates", mock.Anything, h.clinicianID, "s1", &start, (*time.Time)(nil)).
			Return(&service.WizardView{ID: "s1"}, nil).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/dates", gin.H{"startDate": "2024-03-01"})

		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})

	t.Run("Should reject a timestamp where a date is expected", func(t *testing.T) {
		h := newWizardHarness(t)
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/dates", gin.H{"endDate": "2024-03-01T10:00:00Z"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Should map an invalid preset to 400", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("ApplyPreset", mock.Anything, h.clinicianID, "s1", schedule.Preset("6-weeks")).
			Return(nil, fmt.Errorf("%w: unknown preset", service.ErrInvalidInput)).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/preset", gin.H{"preset": "6-weeks"})

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Should bind the frequency body", func(t *testing.T) {
		h := newWizardHarness(t)
		want := domain.Frequency{TimesPerDay: 2, Monday: true, Thursday: true}
		h.wizards.On("SetFrequency", mock.Anything, h.clinicianID, "s1", want).
			Return(&service.WizardView{ID: "s1"}, nil).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/frequency",
			gin.H{"timesPerDay": 2, "monday": true, "thursday": true})

		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})
}

func TestWizardHandler_Navigation(t *testing.T) {
	t.Run("Should advance", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("Next", mock.Anything, h.clinicianID, "s1").Return(&service.WizardView{ID: "s1"}, nil).Once()
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/next", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("Should jump to a named step", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("GoTo", mock.Anything, h.clinicianID, "s1", wizard.StepSchedule).
			Return(&service.WizardView{ID: "s1"}, nil).Once()
		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/goto", gin.H{"step": "schedule"})
		assert.Equal(t, http.StatusOK, code)
		h.wizards.AssertExpectations(t)
	})
}

func TestWizardHandler_Submit(t *testing.T) {
	t.Run("Should return the result when every patient is assigned", func(t *testing.T) {
		h := newWizardHarness(t)
		result := &service.SubmitResult{Assigned: []domain.Assignment{{ID: primitive.NewObjectID()}}}
		h.wizards.On("Submit", mock.Anything, h.clinicianID, "s1").Return(result, nil).Once()

		w := doRequest(t, h.router, http.MethodPost, "/api/v1/clinician/wizards/s1/submit", h.token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got service.SubmitResult
		decodeBody(t, w, &got)
		assert.Len(t, got.Assigned, 1)
	})

	t.Run("Should return 207 with the partial result on a mid-batch failure", func(t *testing.T) {
		h := newWizardHarness(t)
		failed, skipped := primitive.NewObjectID(), primitive.NewObjectID()
		result := &service.SubmitResult{
			Assigned: []domain.Assignment{{ID: primitive.NewObjectID()}},
			Failed:   &service.SubmitFailure{PatientID: failed, Message: "db down"},
			Skipped:  []primitive.ObjectID{skipped},
		}
		h.wizards.On("Submit", mock.Anything, h.clinicianID, "s1").
			Return(result, fmt.Errorf("%w: db down", service.ErrPartialSubmit)).Once()

		w := doRequest(t, h.router, http.MethodPost, "/api/v1/clinician/wizards/s1/submit", h.token, nil)

		require.Equal(t, http.StatusMultiStatus, w.Code)
		var got SubmitResponse
		decodeBody(t, w, &got)
		assert.Contains(t, got.Error, "db down")
		require.NotNil(t, got.Result)
		require.NotNil(t, got.Result.Failed)
		assert.Equal(t, failed, got.Result.Failed.PatientID)
		assert.Equal(t, []primitive.ObjectID{skipped}, got.Result.Skipped)
	})

	t.Run("Should return 409 when the wizard cannot submit yet", func(t *testing.T) {
		h := newWizardHarness(t)
		h.wizards.On("Submit", mock.Anything, h.clinicianID, "s1").Return(nil, service.ErrWizardNotReady).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/submit", nil)

		assert.Equal(t, http.StatusConflict, code)
	})
}

func TestWizardHandler_Media(t *testing.T) {
	t.Run("Should hand out a presigned upload URL", func(t *testing.T) {
		h := newWizardHarness(t)
		h.media.On("RequestUploadURL", mock.Anything, h.clinicianID, "s1", "m1", "knee.png", "image/png").
			Return(&service.UploadURLResponse{UploadURL: "https://s3/put", ObjectKey: "exercise-images/k.png"}, nil).Once()

		code, body := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/media/upload-url",
			gin.H{"mappingId": "m1", "fileName": "knee.png", "contentType": "image/png"})

		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "exercise-images/k.png")
	})

	t.Run("Should reject unsupported media with 400", func(t *testing.T) {
		h := newWizardHarness(t)
		h.media.On("RequestUploadURL", mock.Anything, h.clinicianID, "s1", "m1", "notes.pdf", "application/pdf").
			Return(nil, service.ErrUnsupportedMedia).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/media/upload-url",
			gin.H{"mappingId": "m1", "fileName": "notes.pdf", "contentType": "application/pdf"})

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Should map a confirm without an object to 409", func(t *testing.T) {
		h := newWizardHarness(t)
		h.media.On("ConfirmUpload", mock.Anything, h.clinicianID, "s1", "m1", "exercise-images/k.png", "").
			Return(nil, service.ErrUploadMissing).Once()

		code, _ := h.do(t, http.MethodPost, "/api/v1/clinician/wizards/s1/media/confirm",
			gin.H{"mappingId": "m1", "objectKey": "exercise-images/k.png"})

		assert.Equal(t, http.StatusConflict, code)
	})
}
