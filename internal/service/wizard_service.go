package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/observability"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/repository"
	"alcyxob/rehab-assign/internal/schedule"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrWizardNotFound = errors.New("wizard session not found or expired")
	ErrWizardNotReady = errors.New("wizard cannot submit yet")
	ErrInvalidMode    = errors.New("wizard mode must be from-set or from-patient")
	ErrUnknownAction  = errors.New("unknown patient action")
)

const defaultSessionTTL = 2 * time.Hour

// PatientAction selects how a patient id changes the selection.
type PatientAction string

const (
	PatientAdd    PatientAction = "add"
	PatientRemove PatientAction = "remove"
	PatientToggle PatientAction = "toggle"
)

// WizardConfig tunes session lifetime and draft defaults.
type WizardConfig struct {
	SessionTTL          time.Duration
	DefaultPreset       schedule.Preset
	DefaultTimesPerWeek int
}

// OpenWizardRequest names the entry point and any preselection.
type OpenWizardRequest struct {
	Mode      wizard.Mode
	SetID     *primitive.ObjectID
	PatientID *primitive.ObjectID
}

// SetRef identifies the selected set in a wizard view.
type SetRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// WizardView is the read model of a session after every operation.
type WizardView struct {
	ID        string             `json:"id"`
	Mode      wizard.Mode        `json:"mode"`
	Indicator wizard.Indicator   `json:"indicator"`
	CanSubmit bool               `json:"canSubmit"`
	Set       *SetRef            `json:"set,omitempty"`
	Patients  []domain.User      `json:"patients"`
	Exercises []ResolvedExercise `json:"exercises"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
	Preset    schedule.Preset    `json:"preset,omitempty"`
	Frequency domain.Frequency   `json:"frequency"`
	Summary   wizard.Summary     `json:"summary"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// WizardService keeps assignment wizard sessions in memory. A session belongs
// to the clinician who opened it and is invisible to everyone else.
type WizardService interface {
	Open(ctx context.Context, clinicianID primitive.ObjectID, req OpenWizardRequest) (*WizardView, error)
	Get(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error)
	Close(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) error

	// SelectSet switches the template; nil clears it. Overrides and
	// exclusions of the previous set are dropped.
	SelectSet(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, setID *primitive.ObjectID) (*WizardView, error)
	UpdatePatients(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, patientID primitive.ObjectID, action PatientAction) (*WizardView, error)
	// UpdateOverride writes one field; a nil value clears it.
	UpdateOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string, field override.Field, value any) (*WizardView, error)
	ResetOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*WizardView, error)
	ToggleExclusion(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*WizardView, error)
	AppendCustomImage(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey string) (*WizardView, error)
	// Mapping returns a mapping of the session's selected set.
	Mapping(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*domain.ExerciseMapping, error)
	SetDates(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, start, end *time.Time) (*WizardView, error)
	ApplyPreset(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, preset schedule.Preset) (*WizardView, error)
	SetFrequency(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, f domain.Frequency) (*WizardView, error)

	Next(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error)
	Back(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error)
	GoTo(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, step wizard.StepID) (*WizardView, error)

	// Submit assigns the draft to every selected patient. The session is
	// discarded on full success and kept for a retry otherwise.
	Submit(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*SubmitResult, error)

	// Sweep drops expired sessions and returns how many were removed.
	Sweep(now time.Time) int
	// RunJanitor sweeps periodically until ctx is done.
	RunJanitor(ctx context.Context, every time.Duration)
}

type wizardSession struct {
	mu          sync.Mutex // serializes operations on one draft
	id          string
	clinicianID primitive.ObjectID
	wizard      *wizard.Wizard

	// guarded by wizardService.mu, not by mu: the janitor reads it without
	// taking session locks
	expiresAt time.Time
}

type wizardService struct {
	mu       sync.Mutex
	sessions map[string]*wizardSession

	cfg            WizardConfig
	setRepo        repository.SetRepository
	mappingRepo    repository.MappingRepository
	exerciseRepo   repository.ExerciseRepository
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	assignments    AssignmentService
	now            func() time.Time
	log            logger.Logger
}

func NewWizardService(
	cfg WizardConfig,
	setRepo repository.SetRepository,
	mappingRepo repository.MappingRepository,
	exerciseRepo repository.ExerciseRepository,
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	assignments AssignmentService,
	log logger.Logger,
) WizardService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if !cfg.DefaultPreset.Valid() {
		cfg.DefaultPreset = schedule.PresetOneMonth
	}
	return &wizardService{
		sessions:       make(map[string]*wizardSession),
		cfg:            cfg,
		setRepo:        setRepo,
		mappingRepo:    mappingRepo,
		exerciseRepo:   exerciseRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		assignments:    assignments,
		now:            time.Now,
		log:            log.With("service", "wizard"),
	}
}

func (s *wizardService) Open(ctx context.Context, clinicianID primitive.ObjectID, req OpenWizardRequest) (*WizardView, error) {
	if !req.Mode.Valid() {
		return nil, ErrInvalidMode
	}

	var set *domain.ExerciseSet
	if req.SetID != nil {
		var err error
		if set, err = s.loadSet(ctx, clinicianID, *req.SetID); err != nil {
			return nil, err
		}
	}
	var patient *domain.User
	if req.PatientID != nil {
		var err error
		if patient, err = managedPatient(ctx, s.userRepo, clinicianID, *req.PatientID); err != nil {
			return nil, err
		}
	}

	opts := wizard.Options{Today: s.now(), Preset: s.cfg.DefaultPreset}
	if s.cfg.DefaultTimesPerWeek > 0 {
		f := schedule.DefaultFrequency()
		f.TimesPerWeek = domain.IntPtr(s.cfg.DefaultTimesPerWeek)
		opts.Frequency = &f
	}

	sess := &wizardSession{
		id:          uuid.NewString(),
		clinicianID: clinicianID,
		wizard:      wizard.New(req.Mode, set, patient, opts),
		expiresAt:   s.now().Add(s.cfg.SessionTTL),
	}
	if err := s.prefill(ctx, sess.wizard.Draft()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	observability.RecordWizardOpened()
	s.log.Debug("Wizard opened", "session_id", sess.id, "mode", req.Mode, "clinician_id", clinicianID.Hex())
	return s.view(sess), nil
}

func (s *wizardService) Get(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(*wizardSession) error { return nil })
}

func (s *wizardService) Close(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.clinicianID != clinicianID {
		return ErrWizardNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *wizardService) SelectSet(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, setID *primitive.ObjectID) (*WizardView, error) {
	var set *domain.ExerciseSet
	if setID != nil {
		var err error
		if set, err = s.loadSet(ctx, clinicianID, *setID); err != nil {
			return nil, err
		}
	}
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		d := sess.wizard.Draft()
		if set == nil {
			d.ClearSet()
			return nil
		}
		if cur := d.SelectedSet(); cur != nil && cur.ID == set.ID {
			return nil
		}
		d.SelectSet(set)
		return s.prefill(ctx, d)
	})
}

func (s *wizardService) UpdatePatients(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, patientID primitive.ObjectID, action PatientAction) (*WizardView, error) {
	var patient *domain.User
	if action == PatientAdd || action == PatientToggle {
		var err error
		if patient, err = managedPatient(ctx, s.userRepo, clinicianID, patientID); err != nil {
			return nil, err
		}
	}
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		d := sess.wizard.Draft()
		before := len(d.SelectedPatients())
		switch action {
		case PatientAdd:
			d.AddPatient(*patient)
		case PatientRemove:
			d.RemovePatient(patientID)
		case PatientToggle:
			d.TogglePatient(*patient)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		// first patient picked after the set: load what is already assigned
		if before == 0 && len(d.SelectedPatients()) == 1 {
			return s.prefill(ctx, d)
		}
		return nil
	})
}

func (s *wizardService) UpdateOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string, field override.Field, value any) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		return sess.wizard.Draft().UpdateOverride(mappingID, field, value)
	})
}

func (s *wizardService) ResetOverride(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		d := sess.wizard.Draft()
		if _, err := d.Mapping(mappingID); err != nil {
			return err
		}
		d.ResetOverride(mappingID)
		return nil
	})
}

func (s *wizardService) ToggleExclusion(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		_, err := sess.wizard.Draft().ToggleExclusion(mappingID)
		return err
	})
}

func (s *wizardService) AppendCustomImage(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID, objectKey string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		return sess.wizard.Draft().AppendCustomImage(mappingID, objectKey)
	})
}

func (s *wizardService) Mapping(ctx context.Context, clinicianID primitive.ObjectID, sessionID, mappingID string) (*domain.ExerciseMapping, error) {
	var found domain.ExerciseMapping
	_, err := s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		m, err := sess.wizard.Draft().Mapping(mappingID)
		if err != nil {
			return err
		}
		found = *m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *wizardService) SetDates(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, start, end *time.Time) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		d := sess.wizard.Draft()
		if start != nil {
			d.SetStartDate(*start)
		}
		if end != nil {
			d.SetEndDate(*end)
		}
		return nil
	})
}

func (s *wizardService) ApplyPreset(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, preset schedule.Preset) (*WizardView, error) {
	if !preset.Valid() {
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidInput, preset)
	}
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		sess.wizard.Draft().ApplyPreset(preset)
		return nil
	})
}

func (s *wizardService) SetFrequency(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, f domain.Frequency) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		sess.wizard.Draft().SetFrequency(f)
		return nil
	})
}

func (s *wizardService) Next(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		sess.wizard.Next()
		return nil
	})
}

func (s *wizardService) Back(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		sess.wizard.Back()
		return nil
	})
}

func (s *wizardService) GoTo(ctx context.Context, clinicianID primitive.ObjectID, sessionID string, step wizard.StepID) (*WizardView, error) {
	return s.with(clinicianID, sessionID, func(sess *wizardSession) error {
		sess.wizard.GoTo(step)
		return nil
	})
}

func (s *wizardService) Submit(ctx context.Context, clinicianID primitive.ObjectID, sessionID string) (*SubmitResult, error) {
	sess, err := s.lookup(clinicianID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.wizard.CanSubmit() {
		return nil, ErrWizardNotReady
	}
	payloads, err := sess.wizard.Draft().Payloads()
	if err != nil {
		return nil, err
	}

	result, err := s.assignments.Submit(ctx, clinicianID, payloads)
	if err != nil {
		s.touch(sess)
		return result, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.log.Info("Wizard submitted", "session_id", sessionID, "patients", len(result.Assigned))
	return result, nil
}

func (s *wizardService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *wizardService) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := s.Sweep(t); n > 0 {
				s.log.Debug("Expired wizard sessions dropped", "count", n)
			}
		}
	}
}

// with runs op on a live session under its lock and returns the fresh view.
// Every access extends the session's lifetime.
func (s *wizardService) with(clinicianID primitive.ObjectID, sessionID string, op func(*wizardSession) error) (*WizardView, error) {
	sess, err := s.lookup(clinicianID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := op(sess); err != nil {
		return nil, err
	}
	s.touch(sess)
	return s.view(sess), nil
}

// touch extends the session's lifetime by one TTL from now.
func (s *wizardService) touch(sess *wizardSession) {
	s.mu.Lock()
	sess.expiresAt = s.now().Add(s.cfg.SessionTTL)
	s.mu.Unlock()
}

func (s *wizardService) expiry(sess *wizardSession) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.expiresAt
}

func (s *wizardService) lookup(clinicianID primitive.ObjectID, sessionID string) (*wizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.clinicianID != clinicianID {
		return nil, ErrWizardNotFound
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, ErrWizardNotFound
	}
	return sess, nil
}

func (s *wizardService) loadSet(ctx context.Context, clinicianID, setID primitive.ObjectID) (*domain.ExerciseSet, error) {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	if set.OwnerID != clinicianID {
		return nil, ErrSetAccessDenied
	}
	if err := joinMappings(ctx, s.mappingRepo, s.exerciseRepo, set); err != nil {
		return nil, err
	}
	return set, nil
}

// prefill loads an existing assignment of the selected set to the single
// selected patient into the draft, so re-assigning edits what is stored.
func (s *wizardService) prefill(ctx context.Context, d *wizard.Draft) error {
	set := d.SelectedSet()
	patients := d.SelectedPatients()
	if set == nil || len(patients) != 1 {
		return nil
	}
	existing, err := s.assignmentRepo.GetBySetAndPatient(ctx, set.ID, patients[0].ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	d.Hydrate(existing.ExerciseOverrides)
	d.SetStartDate(existing.StartDate)
	d.SetEndDate(existing.EndDate)
	d.SetFrequency(schedule.FrequencyFromPayload(existing.Frequency))
	return nil
}

func (s *wizardService) view(sess *wizardSession) *WizardView {
	w := sess.wizard
	d := w.Draft()
	dates := d.Dates()

	v := &WizardView{
		ID:        sess.id,
		Mode:      w.Mode(),
		Indicator: w.Indicator(),
		CanSubmit: w.CanSubmit(),
		Patients:  d.SelectedPatients(),
		Exercises: []ResolvedExercise{},
		StartDate: dates.Start(),
		EndDate:   dates.End(),
		Preset:    dates.ActivePreset(),
		Frequency: d.Frequency(),
		Summary:   d.Summary(),
		ExpiresAt: s.expiry(sess),
	}
	if set := d.SelectedSet(); set != nil {
		v.Set = &SetRef{ID: set.ID, Name: set.Name}
		mappings := d.Mappings()
		for i := range mappings {
			m := &mappings[i]
			v.Exercises = append(v.Exercises, resolveExercise(d.Resolver(), m, d.IsExcluded(m.Key())))
		}
	}
	return v
}
