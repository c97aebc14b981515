package wizard

import (
	"alcyxob/rehab-assign/internal/domain"
)

// Wizard couples a draft with the step machine computed for its entry point.
type Wizard struct {
	mode    Mode
	draft   *Draft
	machine *Machine
}

// New opens a wizard. Preselected values seed the draft and remove their
// selection steps from the graph.
func New(mode Mode, preselectedSet *domain.ExerciseSet, preselectedPatient *domain.User, opts Options) *Wizard {
	draft := NewDraft(opts)
	if preselectedSet != nil {
		draft.SelectSet(preselectedSet)
	}
	if preselectedPatient != nil {
		draft.AddPatient(*preselectedPatient)
	}
	return &Wizard{
		mode:    mode,
		draft:   draft,
		machine: NewMachine(Steps(mode, preselectedSet != nil, preselectedPatient != nil)),
	}
}

func (w *Wizard) Mode() Mode        { return w.mode }
func (w *Wizard) Draft() *Draft     { return w.draft }
func (w *Wizard) Machine() *Machine { return w.machine }

func (w *Wizard) Next()                { w.machine.GoNext(w.draft) }
func (w *Wizard) Back()                { w.machine.GoBack() }
func (w *Wizard) GoTo(target StepID)   { w.machine.GoToStep(target) }
func (w *Wizard) CanSubmit() bool      { return w.machine.CanSubmit(w.draft) }
func (w *Wizard) Indicator() Indicator { return w.machine.Indicator() }
