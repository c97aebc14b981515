// Package wizard holds the assignment configuration flow: which steps exist,
// how navigation between them is gated, and the draft they edit.
package wizard

// Mode is the entry point of the wizard.
type Mode string

const (
	// ModeFromSet starts from a template set, picking patients afterwards.
	ModeFromSet Mode = "from-set"
	// ModeFromPatient starts from a patient, picking the set afterwards.
	ModeFromPatient Mode = "from-patient"
)

func (m Mode) Valid() bool {
	return m == ModeFromSet || m == ModeFromPatient
}

// StepID identifies a wizard step.
type StepID string

const (
	StepSelectSet      StepID = "select-set"
	StepSelectPatients StepID = "select-patients"
	StepCustomize      StepID = "customize"
	StepSchedule       StepID = "schedule"
	StepSummary        StepID = "summary"
)

// Step describes one step for the step indicator.
type Step struct {
	ID          StepID `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var stepCatalog = map[StepID]Step{
	StepSelectSet:      {ID: StepSelectSet, Label: "Select set", Description: "Choose the exercise set to assign"},
	StepSelectPatients: {ID: StepSelectPatients, Label: "Select patients", Description: "Choose who receives the set"},
	StepCustomize:      {ID: StepCustomize, Label: "Customize", Description: "Adjust or hide exercises for this assignment"},
	StepSchedule:       {ID: StepSchedule, Label: "Schedule", Description: "Set the date range and frequency"},
	StepSummary:        {ID: StepSummary, Label: "Summary", Description: "Review and assign"},
}

// Steps computes the ordered step list for the given context.
//
// select-set only appears when starting from a patient without a preselected
// set; in from-set mode it never appears, even without a set.
func Steps(mode Mode, hasPreselectedSet, hasPreselectedPatient bool) []Step {
	steps := make([]Step, 0, 5)
	if mode == ModeFromPatient && !hasPreselectedSet {
		steps = append(steps, stepCatalog[StepSelectSet])
	}
	if !hasPreselectedPatient {
		steps = append(steps, stepCatalog[StepSelectPatients])
	}
	return append(steps,
		stepCatalog[StepCustomize],
		stepCatalog[StepSchedule],
		stepCatalog[StepSummary],
	)
}
