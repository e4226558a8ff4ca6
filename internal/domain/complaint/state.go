package complaint

// State is the workflow position shown on the dashboard. Replies from the
// backend carry it as a plain label and the reconciler stores whatever
// arrives; the transition table below is enforced only for explicit
// operator transitions.
type State string

const (
	StateNew                State = "New"
	StateAcknowledged       State = "Acknowledged"
	StateUnderInvestigation State = "Under_Investigation"
	StateRCAComplete        State = "RCA_Complete"
	StateCAPAInProgress     State = "CAPA_In_Progress"
	StateSustenance         State = "Sustenance"
	StateResolved           State = "Resolved"
	StateClosed             State = "Closed"
	StateOnHold             State = "On_Hold"
)

// States lists all lifecycle states in workflow order.
func States() []State {
	return []State{
		StateNew,
		StateAcknowledged,
		StateUnderInvestigation,
		StateRCAComplete,
		StateCAPAInProgress,
		StateSustenance,
		StateResolved,
		StateClosed,
		StateOnHold,
	}
}

// ParseState validates a state label.
func ParseState(s string) (State, error) {
	for _, st := range States() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownState
}

var transitions = map[State][]State{
	StateNew:                {StateAcknowledged, StateOnHold},
	StateAcknowledged:       {StateUnderInvestigation, StateOnHold},
	StateUnderInvestigation: {StateRCAComplete, StateOnHold},
	StateRCAComplete:        {StateCAPAInProgress, StateOnHold},
	StateCAPAInProgress:     {StateSustenance, StateOnHold},
	StateSustenance:         {StateResolved, StateOnHold},
	StateResolved:           {StateClosed, StateUnderInvestigation},
	StateClosed:             {},
	StateOnHold:             {StateAcknowledged, StateUnderInvestigation, StateCAPAInProgress},
}

// CanTransition reports whether a direct workflow step from one state to
// another is allowed.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition validates an operator-requested state change.
func ValidateTransition(from, to State) error {
	if _, err := ParseState(string(to)); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
