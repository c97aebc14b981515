package wizard

// Machine tracks the current step and which steps have been completed.
// Navigation never fails: disallowed transitions are ignored.
type Machine struct {
	steps     []Step
	current   int
	completed map[StepID]bool
}

// NewMachine starts at the first of steps.
func NewMachine(steps []Step) *Machine {
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return &Machine{steps: cp, completed: make(map[StepID]bool)}
}

// Steps returns the step list.
func (m *Machine) Steps() []Step {
	cp := make([]Step, len(m.steps))
	copy(cp, m.steps)
	return cp
}

// Current returns the id of the current step.
func (m *Machine) Current() StepID {
	if len(m.steps) == 0 {
		return ""
	}
	return m.steps[m.current].ID
}

// IsCompleted reports whether id has been completed.
func (m *Machine) IsCompleted(id StepID) bool {
	return m.completed[id]
}

// Completed returns the completed step ids in step order.
func (m *Machine) Completed() []StepID {
	out := make([]StepID, 0, len(m.completed))
	for _, s := range m.steps {
		if m.completed[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

// AtTerminal reports whether the current step is the summary.
func (m *Machine) AtTerminal() bool {
	return m.Current() == StepSummary
}

// CanProceed reports whether step's requirements are met by d. Customize,
// schedule and summary are optional and always satisfiable.
func CanProceed(step StepID, d *Draft) bool {
	switch step {
	case StepSelectSet:
		return d != nil && d.SelectedSet() != nil
	case StepSelectPatients:
		return d != nil && len(d.SelectedPatients()) > 0
	}
	return true
}

// GoNext completes the current step and advances. It does nothing when the
// current step cannot proceed or is the last one.
func (m *Machine) GoNext(d *Draft) {
	if len(m.steps) == 0 || !CanProceed(m.Current(), d) {
		return
	}
	if m.current >= len(m.steps)-1 {
		return
	}
	m.completed[m.Current()] = true
	m.current++
}

// GoBack moves to the previous step without touching completion.
func (m *Machine) GoBack() {
	if m.current > 0 {
		m.current--
	}
}

// GoToStep jumps to target if it is completed or lies before the current
// step. Jumping forward to an uncompleted step is ignored.
func (m *Machine) GoToStep(target StepID) {
	idx := m.indexOf(target)
	if idx < 0 {
		return
	}
	if m.completed[target] || idx < m.current {
		m.current = idx
	}
}

// CanSubmit reports whether the draft may be committed: the machine must be
// on the terminal step and the set and patient requirements must hold,
// whether or not their steps were shown.
func (m *Machine) CanSubmit(d *Draft) bool {
	if !m.AtTerminal() || !CanProceed(StepSummary, d) {
		return false
	}
	return CanProceed(StepSelectSet, d) && CanProceed(StepSelectPatients, d)
}

// Indicator is the view consumed by the step indicator.
type Indicator struct {
	Steps           []Step   `json:"steps"`
	CurrentStep     StepID   `json:"currentStep"`
	CompletedSteps  []StepID `json:"completedSteps"`
	AllowNavigation bool     `json:"allowNavigation"`
}

// Indicator returns the current indicator view.
func (m *Machine) Indicator() Indicator {
	completed := m.Completed()
	return Indicator{
		Steps:           m.Steps(),
		CurrentStep:     m.Current(),
		CompletedSteps:  completed,
		AllowNavigation: len(completed) > 0,
	}
}

func (m *Machine) indexOf(id StepID) int {
	for i, s := range m.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}
