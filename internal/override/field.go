// Package override implements per-assignment exercise customization: sparse
// patches keyed by exercise mapping id, the exclusion set, and the cascading
// lookup of effective values over template and library data.
package override

import "errors"

var (
	ErrUnknownField = errors.New("unknown override field")
	ErrInvalidValue = errors.New("invalid value for override field")
	ErrEmptyID      = errors.New("mapping id is required")
)

// Field names a single overridable property. Values are the keys used in the
// persisted payload.
type Field string

const (
	FieldSets              Field = "sets"
	FieldReps              Field = "reps"
	FieldDuration          Field = "duration"
	FieldRestSets          Field = "restSets"
	FieldRestReps          Field = "restReps"
	FieldPreparationTime   Field = "preparationTime"
	FieldExecutionTime     Field = "executionTime"
	FieldCustomName        Field = "customName"
	FieldCustomDescription Field = "customDescription"
	FieldNotes             Field = "notes"
	FieldVideoURL          Field = "videoUrl"
	FieldImageURL          Field = "imageUrl"
	FieldImages            Field = "images"
	FieldExerciseSide      Field = "exerciseSide"
	FieldCustomImages      Field = "customImages"

	// FieldHidden only appears in the persisted payload and is driven by the
	// exclusion set, never written through a patch.
	FieldHidden Field = "hidden"
)

type valueKind int

const (
	kindNumber valueKind = iota
	kindText
	kindList
)

var fieldKinds = map[Field]valueKind{
	FieldSets:              kindNumber,
	FieldReps:              kindNumber,
	FieldDuration:          kindNumber,
	FieldRestSets:          kindNumber,
	FieldRestReps:          kindNumber,
	FieldPreparationTime:   kindNumber,
	FieldExecutionTime:     kindNumber,
	FieldCustomName:        kindText,
	FieldCustomDescription: kindText,
	FieldNotes:             kindText,
	FieldVideoURL:          kindText,
	FieldImageURL:          kindText,
	FieldImages:            kindList,
	FieldExerciseSide:      kindText,
	FieldCustomImages:      kindList,
}

// builtinDefaults apply when no layer defines a value.
var builtinDefaults = map[Field]int{
	FieldSets:     3,
	FieldReps:     10,
	FieldRestSets: 60,
}

// Fields lists every patchable field in payload order.
func Fields() []Field {
	return []Field{
		FieldSets, FieldReps, FieldDuration, FieldRestSets, FieldRestReps,
		FieldPreparationTime, FieldExecutionTime, FieldCustomName, FieldCustomDescription,
		FieldNotes, FieldVideoURL, FieldImageURL, FieldImages, FieldExerciseSide, FieldCustomImages,
	}
}

// Valid reports whether f can be written through a patch.
func (f Field) Valid() bool {
	_, ok := fieldKinds[f]
	return ok
}

// normalize coerces a caller supplied value into the canonical Go type of the
// field: int for numbers, string for text, []string for lists. ok is false when
// the value is an explicit "no value" (nil, nil pointer).
func normalize(f Field, value any) (v any, ok bool, err error) {
	kind, known := fieldKinds[f]
	if !known {
		return nil, false, ErrUnknownField
	}
	if value == nil {
		return nil, false, nil
	}

	switch kind {
	case kindNumber:
		switch n := value.(type) {
		case int:
			return n, true, nil
		case int32:
			return int(n), true, nil
		case int64:
			return int(n), true, nil
		case float64:
			if n != float64(int(n)) {
				return nil, false, ErrInvalidValue
			}
			return int(n), true, nil
		case *int:
			if n == nil {
				return nil, false, nil
			}
			return *n, true, nil
		}
	case kindText:
		switch s := value.(type) {
		case string:
			return s, true, nil
		case *string:
			if s == nil {
				return nil, false, nil
			}
			return *s, true, nil
		}
	case kindList:
		switch l := value.(type) {
		case []string:
			out := make([]string, len(l))
			copy(out, l)
			return out, true, nil
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				s, isString := item.(string)
				if !isString {
					return nil, false, ErrInvalidValue
				}
				out = append(out, s)
			}
			return out, true, nil
		}
	}
	return nil, false, ErrInvalidValue
}
