package service

import (
	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/dosage"
	"alcyxob/rehab-assign/internal/override"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolvedExercise is a mapping with every field resolved through the
// override cascade, as the patient or the customize step sees it.
type ResolvedExercise struct {
	MappingID        string              `json:"mappingId"`
	ExerciseID       primitive.ObjectID  `json:"exerciseId"`
	Order            int                 `json:"order"`
	Type             domain.ExerciseType `json:"type"`
	Name             string              `json:"name"`
	Description      string              `json:"description,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	Side             string              `json:"side,omitempty"`
	VideoURL         string              `json:"videoUrl,omitempty"`
	ImageURL         string              `json:"imageUrl,omitempty"`
	Images           []string            `json:"images,omitempty"`
	CustomImages     []string            `json:"customImages,omitempty"`
	CustomImageURLs  []string            `json:"customImageUrls,omitempty"` // presigned, patient plan only
	Sets             int                 `json:"sets"`
	Reps             *int                `json:"reps,omitempty"`
	Duration         *int                `json:"duration,omitempty"`
	RestBetweenSets  *int                `json:"restBetweenSets,omitempty"`
	RestBetweenReps  *int                `json:"restBetweenReps,omitempty"`
	ExecutionTime    *int                `json:"executionTime,omitempty"`
	PreparationTime  *int                `json:"preparationTime,omitempty"`
	EstimatedSeconds int                 `json:"estimatedSeconds"`
	Customized       bool                `json:"customized"`
	Hidden           bool                `json:"hidden"`
}

func resolveExercise(r *override.Resolver, m *domain.ExerciseMapping, hidden bool) ResolvedExercise {
	optional := func(f override.Field) *int {
		if v, ok := r.EffectiveInt(m, f); ok {
			return &v
		}
		return nil
	}
	text := func(f override.Field) string {
		v, _ := r.EffectiveString(m, f)
		return v
	}
	list := func(f override.Field) []string {
		v, _ := r.EffectiveStrings(m, f)
		return v
	}

	view := ResolvedExercise{
		MappingID:        m.Key(),
		ExerciseID:       m.ExerciseID,
		Order:            m.Order,
		Type:             domain.ExerciseTypeReps,
		Name:             text(override.FieldCustomName),
		Description:      text(override.FieldCustomDescription),
		Notes:            text(override.FieldNotes),
		Side:             text(override.FieldExerciseSide),
		VideoURL:         text(override.FieldVideoURL),
		ImageURL:         text(override.FieldImageURL),
		Images:           list(override.FieldImages),
		CustomImages:     list(override.FieldCustomImages),
		Reps:             optional(override.FieldReps),
		Duration:         optional(override.FieldDuration),
		RestBetweenSets:  optional(override.FieldRestSets),
		RestBetweenReps:  optional(override.FieldRestReps),
		ExecutionTime:    optional(override.FieldExecutionTime),
		PreparationTime:  optional(override.FieldPreparationTime),
		EstimatedSeconds: dosage.EstimateMapping(r, m),
		Customized:       r.Store().Has(m.Key()),
		Hidden:           hidden,
	}
	view.Sets, _ = r.EffectiveInt(m, override.FieldSets)
	if m.Exercise.IsTimeBased() {
		view.Type = domain.ExerciseTypeTime
	}
	return view
}
