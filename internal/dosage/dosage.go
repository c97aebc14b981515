// Package dosage estimates how long a prescribed exercise, and a whole plan,
// takes to perform.
package dosage

import (
	"fmt"

	"alcyxob/rehab-assign/internal/domain"
	"alcyxob/rehab-assign/internal/override"
)

// DefaultExecutionTime is the per-rep duration in seconds used when no layer
// of a rep-based exercise defines an execution time.
const DefaultExecutionTime = 3

// Params are the effective (post-override) inputs of one exercise. Zero means
// "not specified" and contributes nothing.
type Params struct {
	TimeBased     bool
	Sets          int
	Reps          int
	Duration      int // seconds per set, time-based only
	ExecutionTime int // seconds per rep, rep-based only
	Rest          int // seconds between sets
}

// EstimateSeconds returns work plus rest between sets. Rest after the last
// set is not counted. The result is never negative.
func EstimateSeconds(p Params) int {
	sets := clamp(p.Sets)

	var work int
	if p.TimeBased {
		work = sets * clamp(p.Duration)
	} else {
		work = sets * clamp(p.Reps) * clamp(p.ExecutionTime)
	}

	rest := max(sets-1, 0) * clamp(p.Rest)
	return work + rest
}

// ParamsFor resolves the estimator inputs of a mapping through r.
func ParamsFor(r *override.Resolver, m *domain.ExerciseMapping) Params {
	p := Params{TimeBased: m.Exercise.IsTimeBased()}
	p.Sets, _ = r.EffectiveInt(m, override.FieldSets)
	p.Reps, _ = r.EffectiveInt(m, override.FieldReps)
	p.Duration, _ = r.EffectiveInt(m, override.FieldDuration)
	// unresolved execution time falls back; an explicit 0 is kept
	p.ExecutionTime = DefaultExecutionTime
	if exec, ok := r.EffectiveInt(m, override.FieldExecutionTime); ok {
		p.ExecutionTime = exec
	}
	p.Rest, _ = r.EffectiveInt(m, override.FieldRestSets)
	return p
}

// EstimateMapping estimates a single mapping using its effective values.
func EstimateMapping(r *override.Resolver, m *domain.ExerciseMapping) int {
	return EstimateSeconds(ParamsFor(r, m))
}

// PlanTotal sums the estimate of every mapping not in excluded.
func PlanTotal(r *override.Resolver, mappings []domain.ExerciseMapping, excluded *override.ExclusionSet) int {
	total := 0
	for i := range mappings {
		m := &mappings[i]
		if excluded != nil && excluded.Contains(m.Key()) {
			continue
		}
		total += EstimateMapping(r, m)
	}
	return total
}

// RoundMinutes rounds seconds to the nearest whole minute, half up.
func RoundMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 30) / 60
}

// Format renders seconds for display, e.g. "4 min" or "1 h 5 min".
func Format(seconds int) string {
	minutes := RoundMinutes(seconds)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, m)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
