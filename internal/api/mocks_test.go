package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/service"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

// --- Wizard service mock ---

type MockWizardService struct{ mock.Mock }

func (m *MockWizardService) view(args mock.Arguments) (*service.WizardView, error) {
	if v := args.Get(0); v != nil {
		return v.(*service.WizardView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWizardService) Open(ctx context.Context, clinicianID primitive.ObjectID, req service.OpenWizardRequest) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, req))
}
func (m *MockWizardService) Get(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID))
}
func (m *MockWizardService) Close(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) error {
	return m.Called(ctx, clinicianID, sessionID).Error(0)
}
func (m *MockWizardService) SelectSet(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, setID *primitive.ObjectID) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, setID))
}
func (m *MockWizardService) UpdatePatients(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, patientID primitive.ObjectID, action service.PatientAction) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, patientID, action))
}
func (m *MockWizardService) UpdateOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string, field override.Field, value any) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, mappingID, field, value))
}
func (m *MockWizardService) ResetOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, mappingID))
}
func (m *MockWizardService) ToggleExclusion(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, mappingID))
}
func (m *MockWizardService) AppendCustomImage(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, mappingID, objectKey))
}
func (m *MockWizardService) Mapping(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*domain.ExerciseMapping, error) {
	args := m.Called(ctx, clinicianID, sessionID, mappingID)
	if v := args.Get(0); v != nil {
		return v.(*domain.ExerciseMapping), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockWizardService) SetDates(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, start, end *time.Time) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, start, end))
}
func (m *MockWizardService) ApplyPreset(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, preset schedule.Preset) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, preset))
}
func (m *MockWizardService) SetFrequency(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, f domain.Frequency) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, f))
}
func (m *MockWizardService) Next(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID))
}
func (m *MockWizardService) Back(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID))
}
func (m *MockWizardService) GoTo(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, step wizard.StepID) (*service.WizardView, error) {
	return m.view(m.Called(ctx, clinicianID, sessionID, step))
}
func (m *MockWizardService) Submit(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*service.SubmitResult, error) {
	args := m.Called(ctx, clinicianID, sessionID)
	if v := args.Get(0); v != nil {
		return v.(*service.SubmitResult), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockWizardService) Sweep(now time.Time) int { return m.Called(now).Int(0) }
func (m *MockWizardService) RunJanitor(ctx context.Context, every time.Duration) {
	m.Called(ctx, every)
}

// --- Media service mock ---

type MockMediaService struct{ mock.Mock }

func (m *MockMediaService) RequestUploadURL(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, fileName, contentType string) (*service.UploadURLResponse, error) {
	args := m.Called(ctx, clinicianID, sessionID, mappingID, fileName, contentType)
	if v := args.Get(0); v != nil {
		return v.(*service.UploadURLResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockMediaService) ConfirmUpload(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey, fileName string) (*service.WizardView, error) {
	args := m.Called(ctx, clinicianID, sessionID, mappingID, objectKey, fileName)
	if v := args.Get(0); v != nil {
		return v.(*service.WizardView), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Assignment service mock ---

type MockAssignmentService struct{ mock.Mock }

func (m *MockAssignmentService) Assign(ctx context.Context, clinicianID primitive.ObjectID, payload wizard.AssignmentPayload) (*domain.Assignment, error) {
	args := m.Called(ctx, clinicianID, payload)
	if v := args.Get(0); v != nil {
		return v.(*domain.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAssignmentService) Submit(ctx context.Context, clinicianID primitive.ObjectID, payloads []wizard.AssignmentPayload) (*service.SubmitResult, error) {
	args := m.Called(ctx, clinicianID, payloads)
	if v := args.Get(0); v != nil {
		return v.(*service.SubmitResult), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAssignmentService) ListForPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	args := m.Called(ctx, patientID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAssignmentService) ListForManagedPatient(ctx context.Context, clinicianID, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	args := m.Called(ctx, clinicianID, patientID)
	if v := args.Get(0); v != nil {
		return v.([]domain.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAssignmentService) PatientPlan(ctx context.Context, patientID, assignmentID primitive.ObjectID) (*service.PatientPlan, error) {
	args := m.Called(ctx, patientID, assignmentID)
	if v := args.Get(0); v != nil {
		return v.(*service.PatientPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc Services) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, testSecret, svc, logger.Nop())
	return router
}

func signToken(t *testing.T, userID primitive.ObjectID, role domain.Role) string {
	t.Helper()
	claims := &service.Claims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
