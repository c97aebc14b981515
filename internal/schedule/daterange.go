package schedule

import (
	"time"
)

// Preset is a quick duration choice for the date range.
type Preset string

const (
	PresetNone        Preset = ""
	PresetTwoWeeks    Preset = "2-weeks"
	PresetOneMonth    Preset = "1-month"
	PresetThreeMonths Preset = "3-months"
)

// Presets lists the selectable presets in display order.
func Presets() []Preset {
	return []Preset{PresetTwoWeeks, PresetOneMonth, PresetThreeMonths}
}

// Valid reports whether p is a selectable preset.
func (p Preset) Valid() bool {
	switch p {
	case PresetTwoWeeks, PresetOneMonth, PresetThreeMonths:
		return true
	}
	return false
}

// Label is the display name of the preset.
func (p Preset) Label() string {
	switch p {
	case PresetTwoWeeks:
		return "2 Weeks"
	case PresetOneMonth:
		return "1 Month"
	case PresetThreeMonths:
		return "3 Months"
	}
	return ""
}

// Apply returns the end date the preset yields for start.
func (p Preset) Apply(start time.Time) time.Time {
	switch p {
	case PresetTwoWeeks:
		return start.AddDate(0, 0, 14)
	case PresetOneMonth:
		return AddMonths(start, 1)
	case PresetThreeMonths:
		return AddMonths(start, 3)
	}
	return start
}

// AddMonths adds n calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month is the last day of February).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DateRange is the assignment's start and end date plus the preset that
// produced the end date, if any. Any manual edit clears the preset.
type DateRange struct {
	start  time.Time
	end    time.Time
	preset Preset
}

// NewDateRange starts at start with the preset applied. An invalid preset
// falls back to a RepairDays long range without a preset.
func NewDateRange(start time.Time, preset Preset) DateRange {
	r := DateRange{start: dateOnly(start)}
	if preset.Valid() {
		r.ApplyPreset(preset)
		return r
	}
	r.end = r.start.AddDate(0, 0, RepairDays)
	return r
}

// RestoreDateRange rebuilds a range from stored dates, repairing end < start.
func RestoreDateRange(start, end time.Time) DateRange {
	r := DateRange{start: dateOnly(start), end: dateOnly(end)}
	if r.end.Before(r.start) {
		r.end = r.start
	}
	return r
}

func (r DateRange) Start() time.Time     { return r.start }
func (r DateRange) End() time.Time       { return r.end }
func (r DateRange) ActivePreset() Preset { return r.preset }

// DurationDays is the day count between start and end.
func (r DateRange) DurationDays() int {
	return DurationDays(r.start, r.end)
}

// SetStart moves the start date. If it passes the current end, the end is
// pushed to start + RepairDays.
func (r *DateRange) SetStart(start time.Time) {
	r.preset = PresetNone
	r.start = dateOnly(start)
	if r.start.After(r.end) {
		r.end = r.start.AddDate(0, 0, RepairDays)
	}
}

// SetEnd moves the end date, clamped to be no earlier than start.
func (r *DateRange) SetEnd(end time.Time) {
	r.preset = PresetNone
	r.end = dateOnly(end)
	if r.end.Before(r.start) {
		r.end = r.start
	}
}

// ApplyPreset recomputes end from start. Invalid presets are ignored.
func (r *DateRange) ApplyPreset(p Preset) {
	if !p.Valid() {
		return
	}
	r.preset = p
	r.end = p.Apply(r.start)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
