package wizard

import (
	"errors"
	"sort"
	"time"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/dosage"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoSetSelected      = errors.New("no exercise set selected")
	ErrNoPatientsSelected = errors.New("no patients selected")
	ErrUnknownMapping     = errors.New("exercise mapping does not belong to the selected set")
)

// Options seed a new draft. Zero values pick the defaults.
type Options struct {
	Today     time.Time
	Preset    schedule.Preset
	Frequency *domain.Frequency
}

// Draft is the working state of one wizard instance. It is discarded when
// the wizard closes, whether the assignment was committed or not.
type Draft struct {
	set       *domain.ExerciseSet
	patients  []domain.User
	overrides *override.Store
	excluded  *override.ExclusionSet
	resolver  *override.Resolver
	dates     schedule.DateRange
	frequency domain.Frequency
}

// NewDraft creates a draft with default dates and frequency.
func NewDraft(opts Options) *Draft {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	preset := opts.Preset
	if preset == schedule.PresetNone {
		preset = schedule.PresetOneMonth
	}
	freq := schedule.DefaultFrequency()
	if opts.Frequency != nil {
		freq = schedule.NormalizeFrequency(*opts.Frequency)
	}

	store := override.NewStore()
	return &Draft{
		overrides: store,
		excluded:  override.NewExclusionSet(),
		resolver:  override.NewResolver(store),
		dates:     schedule.NewDateRange(today, preset),
		frequency: freq,
	}
}

// SelectedSet returns the chosen template set or nil.
func (d *Draft) SelectedSet() *domain.ExerciseSet {
	return d.set
}

// SelectSet chooses the template set. Overrides and exclusions refer to the
// previous set's mappings, so they are dropped when the set changes.
func (d *Draft) SelectSet(set *domain.ExerciseSet) {
	if set == nil {
		d.ClearSet()
		return
	}
	if d.set != nil && d.set.ID == set.ID {
		d.set = set
		return
	}
	d.set = set
	d.overrides.Clear()
	d.excluded.Clear()
}

// ClearSet deselects the set and drops its customization.
func (d *Draft) ClearSet() {
	d.set = nil
	d.overrides.Clear()
	d.excluded.Clear()
}

// SelectedPatients returns the chosen patients in selection order.
func (d *Draft) SelectedPatients() []domain.User {
	out := make([]domain.User, len(d.patients))
	copy(out, d.patients)
	return out
}

// AddPatient appends p unless a patient with the same id is already selected.
func (d *Draft) AddPatient(p domain.User) bool {
	if d.patientIndex(p.ID) >= 0 {
		return false
	}
	p.PasswordHash = ""
	d.patients = append(d.patients, p)
	return true
}

// RemovePatient drops the patient with id.
func (d *Draft) RemovePatient(id primitive.ObjectID) bool {
	idx := d.patientIndex(id)
	if idx < 0 {
		return false
	}
	d.patients = append(d.patients[:idx], d.patients[idx+1:]...)
	return true
}

// TogglePatient selects or deselects p and reports whether it is now selected.
func (d *Draft) TogglePatient(p domain.User) bool {
	if d.RemovePatient(p.ID) {
		return false
	}
	return d.AddPatient(p)
}

func (d *Draft) patientIndex(id primitive.ObjectID) int {
	for i := range d.patients {
		if d.patients[i].ID == id {
			return i
		}
	}
	return -1
}

// Resolver returns the effective value resolver bound to this draft's overrides.
func (d *Draft) Resolver() *override.Resolver {
	return d.resolver
}

// Mapping finds a mapping of the selected set by key.
func (d *Draft) Mapping(mappingID string) (*domain.ExerciseMapping, error) {
	if d.set == nil {
		return nil, ErrNoSetSelected
	}
	for i := range d.set.Mappings {
		if d.set.Mappings[i].Key() == mappingID {
			return &d.set.Mappings[i], nil
		}
	}
	return nil, ErrUnknownMapping
}

// UpdateOverride writes or, with a nil value, clears one override field.
func (d *Draft) UpdateOverride(mappingID string, field override.Field, value any) error {
	if _, err := d.Mapping(mappingID); err != nil {
		return err
	}
	return d.overrides.Update(mappingID, field, value)
}

// ResetOverride drops all overrides of one mapping.
func (d *Draft) ResetOverride(mappingID string) {
	d.overrides.Reset(mappingID)
}

// HasOverride reports whether the mapping has any overridden field.
func (d *Draft) HasOverride(mappingID string) bool {
	return d.overrides.Has(mappingID)
}

// AppendCustomImage records an uploaded image on the mapping's overrides.
func (d *Draft) AppendCustomImage(mappingID, key string) error {
	if _, err := d.Mapping(mappingID); err != nil {
		return err
	}
	return d.overrides.AppendCustomImage(mappingID, key)
}

// ToggleExclusion hides or shows a mapping and reports whether it is now hidden.
func (d *Draft) ToggleExclusion(mappingID string) (bool, error) {
	if _, err := d.Mapping(mappingID); err != nil {
		return false, err
	}
	return d.excluded.Toggle(mappingID), nil
}

// IsExcluded reports whether the mapping is hidden.
func (d *Draft) IsExcluded(mappingID string) bool {
	return d.excluded.Contains(mappingID)
}

// Hydrate replaces the customization with a previously persisted payload.
// Malformed payloads leave the draft uncustomized.
func (d *Draft) Hydrate(raw string) {
	store, excluded := override.Hydrate(raw)
	d.overrides.Clear()
	d.excluded.Clear()
	for _, id := range store.IDs() {
		p, _ := store.Patch(id)
		for f, v := range p {
			_ = d.overrides.Update(id, f, v)
		}
	}
	for _, id := range excluded.IDs() {
		d.excluded.Add(id)
	}
}

// Dates returns the date range.
func (d *Draft) Dates() schedule.DateRange {
	return d.dates
}

func (d *Draft) SetStartDate(t time.Time) { d.dates.SetStart(t) }
func (d *Draft) SetEndDate(t time.Time)   { d.dates.SetEnd(t) }

// ApplyPreset recomputes the end date from a preset.
func (d *Draft) ApplyPreset(p schedule.Preset) {
	d.dates.ApplyPreset(p)
}

// Frequency returns the dosing frequency.
func (d *Draft) Frequency() domain.Frequency {
	return d.frequency
}

// SetFrequency replaces the frequency, clamping invalid values.
func (d *Draft) SetFrequency(f domain.Frequency) {
	d.frequency = schedule.NormalizeFrequency(f)
}

// Mappings returns the selected set's mappings in display order.
func (d *Draft) Mappings() []domain.ExerciseMapping {
	if d.set == nil {
		return nil
	}
	out := make([]domain.ExerciseMapping, len(d.set.Mappings))
	copy(out, d.set.Mappings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// VisibleMappings are the mappings not excluded.
func (d *Draft) VisibleMappings() []domain.ExerciseMapping {
	all := d.Mappings()
	out := all[:0]
	for _, m := range all {
		if !d.excluded.Contains(m.Key()) {
			out = append(out, m)
		}
	}
	return out
}

// PersistablePatch is the override payload for this draft, nil when empty.
func (d *Draft) PersistablePatch() override.Payload {
	return override.BuildPayload(d.overrides, d.excluded)
}

// Summary aggregates what the summary step shows.
type Summary struct {
	PlanSeconds      int              `json:"planSeconds"`
	PlanDisplay      string           `json:"planDisplay"`
	VisibleExercises int              `json:"visibleExercises"`
	PatientCount     int              `json:"patientCount"`
	Schedule         schedule.Summary `json:"schedule"`
}

// Summary computes plan time and session projection for the current state.
func (d *Draft) Summary() Summary {
	total := dosage.PlanTotal(d.resolver, d.Mappings(), d.excluded)
	return Summary{
		PlanSeconds:      total,
		PlanDisplay:      dosage.Format(total),
		VisibleExercises: len(d.VisibleMappings()),
		PatientCount:     len(d.patients),
		Schedule:         schedule.Summarize(d.dates, d.frequency),
	}
}

// AssignmentPayload is one per-patient assignment call built from the draft.
type AssignmentPayload struct {
	SetID     primitive.ObjectID      `json:"setId"`
	PatientID primitive.ObjectID      `json:"patientId"`
	StartDate time.Time               `json:"startDate"`
	EndDate   time.Time               `json:"endDate"`
	Frequency domain.FrequencyPayload `json:"frequency"`
	Overrides override.Payload        `json:"overrides,omitempty"`
}

// Payloads builds one assignment payload per selected patient, in selection
// order. The set and patient requirements are checked here regardless of
// which steps the wizard showed.
func (d *Draft) Payloads() ([]AssignmentPayload, error) {
	if d.set == nil {
		return nil, ErrNoSetSelected
	}
	if len(d.patients) == 0 {
		return nil, ErrNoPatientsSelected
	}

	freq := schedule.WirePayload(d.frequency)
	overrides := d.PersistablePatch()
	out := make([]AssignmentPayload, 0, len(d.patients))
	for _, p := range d.patients {
		out = append(out, AssignmentPayload{
			SetID:     d.set.ID,
			PatientID: p.ID,
			StartDate: d.dates.Start(),
			EndDate:   d.dates.End(),
			Frequency: freq,
			Overrides: overrides,
		})
	}
	return out, nil
}
