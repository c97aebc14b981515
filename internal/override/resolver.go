package override

import (
	"alcyxob/rehab-assign/internal/domain"
)

// Resolver answers "what value applies to this mapping" by cascading the
// per-assignment patch over the template mapping, the library item and
// finally the builtin defaults.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	if store == nil {
		store = NewStore()
	}
	return &Resolver{store: store}
}

// Store exposes the underlying patch store.
func (r *Resolver) Store() *Store {
	return r.store
}

// EffectiveValue returns the first defined value for field, or false when no
// layer defines it and there is no builtin default.
func (r *Resolver) EffectiveValue(m *domain.ExerciseMapping, field Field) (any, bool) {
	if m == nil {
		return builtin(field)
	}
	if v, ok := r.store.Get(m.Key(), field); ok {
		return v, true
	}
	if v, ok := templateValue(m, field); ok {
		return v, true
	}
	if v, ok := libraryValue(m.Exercise, field); ok {
		return v, true
	}
	return builtin(field)
}

// EffectiveInt is EffectiveValue for numeric fields.
func (r *Resolver) EffectiveInt(m *domain.ExerciseMapping, field Field) (int, bool) {
	v, ok := r.EffectiveValue(m, field)
	if !ok {
		return 0, false
	}
	n, isInt := v.(int)
	return n, isInt
}

// EffectiveString is EffectiveValue for text fields.
func (r *Resolver) EffectiveString(m *domain.ExerciseMapping, field Field) (string, bool) {
	v, ok := r.EffectiveValue(m, field)
	if !ok {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// EffectiveStrings is EffectiveValue for list fields.
func (r *Resolver) EffectiveStrings(m *domain.ExerciseMapping, field Field) ([]string, bool) {
	v, ok := r.EffectiveValue(m, field)
	if !ok {
		return nil, false
	}
	l, isList := v.([]string)
	return l, isList
}

func builtin(field Field) (any, bool) {
	if v, ok := builtinDefaults[field]; ok {
		return v, true
	}
	return nil, false
}

func dosageValue(d domain.Dosage, field Field) (any, bool) {
	var p *int
	switch field {
	case FieldSets:
		p = d.Sets
	case FieldReps:
		p = d.Reps
	case FieldDuration:
		p = d.Duration
	case FieldRestSets:
		p = d.RestBetweenSets
	case FieldRestReps:
		p = d.RestBetweenReps
	case FieldExecutionTime:
		p = d.ExecutionTime
	case FieldPreparationTime:
		p = d.PreparationTime
	}
	if p == nil {
		return nil, false
	}
	return *p, true
}

func templateValue(m *domain.ExerciseMapping, field Field) (any, bool) {
	switch field {
	case FieldExerciseSide:
		return nonEmpty(m.Side)
	case FieldNotes:
		return nonEmpty(m.Notes)
	}
	return dosageValue(m.Dosage, field)
}

func libraryValue(item *domain.ExerciseLibraryItem, field Field) (any, bool) {
	if item == nil {
		return nil, false
	}
	switch field {
	case FieldCustomName:
		return nonEmpty(item.Name)
	case FieldCustomDescription:
		return nonEmpty(item.Description)
	case FieldExerciseSide:
		return nonEmpty(item.Side)
	case FieldVideoURL:
		return nonEmpty(item.VideoURL)
	case FieldImageURL:
		return nonEmpty(item.ImageURL)
	case FieldImages:
		if len(item.Images) == 0 {
			return nil, false
		}
		return item.Images, true
	}
	return dosageValue(item.Dosage, field)
}

func nonEmpty(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}
