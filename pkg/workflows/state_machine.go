package workflows

// StateMachine holds a transition table. A permissive machine accepts every
// move between known states and only reports the table for display.
type StateMachine struct {
	states             map[string]bool
	allowedTransitions map[string][]string
	strict             bool
}

// NewStateMachine builds a machine over the given table. Every key and every
// target is registered as a known state.
func NewStateMachine(table map[string][]string, strict bool) *StateMachine {
	sm := &StateMachine{
		states:             make(map[string]bool),
		allowedTransitions: table,
		strict:             strict,
	}
	for from, targets := range table {
		sm.states[from] = true
		for _, to := range targets {
			sm.states[to] = true
		}
	}
	return sm
}

// NewProgramStateMachine covers DRAFT, PUBLISHED, CLOSED and ARCHIVED.
func NewProgramStateMachine(strict bool) *StateMachine {
	return NewStateMachine(map[string][]string{
		"DRAFT":     {"PUBLISHED", "ARCHIVED"},
		"PUBLISHED": {"CLOSED", "ARCHIVED"},
		"CLOSED":    {"PUBLISHED", "ARCHIVED"},
		"ARCHIVED":  {},
	}, strict)
}

// NewApplicationStateMachine covers the submission lifecycle. APPROVED and
// REJECTED are terminal.
func NewApplicationStateMachine(strict bool) *StateMachine {
	return NewStateMachine(map[string][]string{
		"DRAFT":        {"SUBMITTED"},
		"SUBMITTED":    {"UNDER_REVIEW", "APPROVED", "REJECTED"},
		"UNDER_REVIEW": {"APPROVED", "REJECTED"},
		"APPROVED":     {},
		"REJECTED":     {},
	}, strict)
}

// IsKnown reports whether status belongs to the machine.
func (sm *StateMachine) IsKnown(status string) bool {
	return sm.states[status]
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	if !sm.IsKnown(from) || !sm.IsKnown(to) {
		return false
	}
	if !sm.strict {
		return true
	}
	for _, allowedTo := range sm.allowedTransitions[from] {
		if allowedTo == to {
			return true
		}
	}
	return false
}
