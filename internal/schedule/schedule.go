// Package schedule turns an assignment's date range and frequency into
// duration, weekly cadence and a projected session count.
package schedule

import (
	"math"
	"strconv"
	"time"

	"alcyxob/rehab-assign/internal/domain"
)

const (
	// DefaultTimesPerWeek applies in flexible mode when no weekly count is set.
	DefaultTimesPerWeek = 3
	// RepairDays is how far past a moved start the end date is pushed when
	// the start overtakes it.
	RepairDays = 30

	day = 24 * time.Hour
)

// DurationDays returns the whole calendar days from start to end, never negative.
func DurationDays(start, end time.Time) int {
	s := civil(start)
	e := civil(end)
	if !e.After(s) {
		return 0
	}
	return int(math.Round(float64(e.Sub(s)) / float64(day)))
}

// IsFlexible reports whether f is a weekly count rather than specific days.
// It is recomputed from the weekday flags on every call.
func IsFlexible(f domain.Frequency) bool {
	return WeekdayCount(f) == 0
}

// WeekdayCount returns how many weekdays are selected.
func WeekdayCount(f domain.Frequency) int {
	n := 0
	for _, on := range f.Weekdays() {
		if on {
			n++
		}
	}
	return n
}

// EffectiveWeeklyFrequency is the number of training days per week.
func EffectiveWeeklyFrequency(f domain.Frequency) int {
	if !IsFlexible(f) {
		return WeekdayCount(f)
	}
	if f.TimesPerWeek != nil {
		return *f.TimesPerWeek
	}
	return DefaultTimesPerWeek
}

// TotalSessions projects the number of sessions over durationDays.
func TotalSessions(durationDays int, f domain.Frequency) int {
	perDay := f.TimesPerDay
	if perDay < 1 {
		perDay = 1
	}
	weeks := float64(durationDays) / 7
	return int(math.Round(weeks * float64(EffectiveWeeklyFrequency(f)) * float64(perDay)))
}

// NormalizeFrequency clamps f into its valid ranges: at least one session a
// day, a weekly count between 1 and 7 and a non-negative break.
func NormalizeFrequency(f domain.Frequency) domain.Frequency {
	if f.TimesPerDay < 1 {
		f.TimesPerDay = 1
	}
	if f.BreakBetweenSets < 0 {
		f.BreakBetweenSets = 0
	}
	if f.TimesPerWeek != nil {
		n := min(max(*f.TimesPerWeek, 1), 7)
		f.TimesPerWeek = &n
	}
	return f
}

// DefaultFrequency is once a day, three times a week, flexible.
func DefaultFrequency() domain.Frequency {
	perWeek := DefaultTimesPerWeek
	return domain.Frequency{TimesPerDay: 1, TimesPerWeek: &perWeek}
}

// WirePayload serializes f for an assignment call. timesPerWeek is always
// derived here so a stale stored count is never sent in specific-days mode.
func WirePayload(f domain.Frequency) domain.FrequencyPayload {
	f = NormalizeFrequency(f)
	return domain.FrequencyPayload{
		TimesPerDay:      strconv.Itoa(f.TimesPerDay),
		TimesPerWeek:     strconv.Itoa(EffectiveWeeklyFrequency(f)),
		BreakBetweenSets: strconv.Itoa(f.BreakBetweenSets),
		Monday:           f.Monday,
		Tuesday:          f.Tuesday,
		Wednesday:        f.Wednesday,
		Thursday:         f.Thursday,
		Friday:           f.Friday,
		Saturday:         f.Saturday,
		Sunday:           f.Sunday,
	}
}

// FrequencyFromPayload parses a stored wire payload back into a Frequency.
// Unparseable numbers fall back to defaults.
func FrequencyFromPayload(p domain.FrequencyPayload) domain.Frequency {
	f := DefaultFrequency()
	if n, err := strconv.Atoi(p.TimesPerDay); err == nil {
		f.TimesPerDay = n
	}
	if n, err := strconv.Atoi(p.TimesPerWeek); err == nil {
		f.TimesPerWeek = &n
	}
	if n, err := strconv.Atoi(p.BreakBetweenSets); err == nil {
		f.BreakBetweenSets = n
	}
	f.Monday, f.Tuesday, f.Wednesday = p.Monday, p.Tuesday, p.Wednesday
	f.Thursday, f.Friday, f.Saturday, f.Sunday = p.Thursday, p.Friday, p.Saturday, p.Sunday
	return NormalizeFrequency(f)
}

// Summary is the schedule part of the wizard summary step.
type Summary struct {
	DurationDays  int  `json:"durationDays"`
	Flexible      bool `json:"flexible"`
	TimesPerWeek  int  `json:"timesPerWeek"`
	TimesPerDay   int  `json:"timesPerDay"`
	TotalSessions int  `json:"totalSessions"`
}

// Summarize computes the schedule summary for a range and frequency.
func Summarize(r DateRange, f domain.Frequency) Summary {
	f = NormalizeFrequency(f)
	days := r.DurationDays()
	return Summary{
		DurationDays:  days,
		Flexible:      IsFlexible(f),
		TimesPerWeek:  EffectiveWeeklyFrequency(f),
		TimesPerDay:   f.TimesPerDay,
		TotalSessions: TotalSessions(days, f),
	}
}

// civil drops the clock part and pins the date to UTC so day arithmetic is
// not affected by DST transitions.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
