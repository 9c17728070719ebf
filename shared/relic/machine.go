package relic

// Transition describes one accepted state change.
type Transition struct {
	From, To State
	Carrier  ID // carrier after the change, zero unless To is Carried
	Previous ID // carrier before the change
}

// StateMachine owns the relic's possession state. Every change goes through
// RequestStateChange on the authority or ApplyReplicated on observers.
type StateMachine struct {
	state       State
	previous    State
	carrier     ID
	lastTeam    int
	timeInState float64

	inTransition bool
	allowThrow   bool
	observers    []func(Transition)
}

// NewStateMachine starts Inactive with no possessing team. allowThrow adds
// the Thrown state to the table.
func NewStateMachine(allowThrow bool) *StateMachine {
	return &StateMachine{lastTeam: NoTeam, allowThrow: allowThrow}
}

func (m *StateMachine) State() State                { return m.state }
func (m *StateMachine) Previous() State             { return m.previous }
func (m *StateMachine) Carrier() ID                 { return m.carrier }
func (m *StateMachine) LastTeam() int               { return m.lastTeam }
func (m *StateMachine) TimeInState() float64        { return m.timeInState }
func (m *StateMachine) InTransition() bool          { return m.inTransition }
func (m *StateMachine) ThrowEnabled() bool          { return m.allowThrow }
func (m *StateMachine) Update(dt float64)           { m.timeInState += dt }
func (m *StateMachine) Observe(fn func(Transition)) { m.observers = append(m.observers, fn) }

// CanTransitionTo checks the transition table. carrier is the character
// taking the relic for transitions into Carried and ignored otherwise.
func (m *StateMachine) CanTransitionTo(to State, carrier Carrier) bool {
	if to == Inactive {
		return true
	}
	if to == Thrown && !m.allowThrow {
		return false
	}
	hasCarrier := carrier != nil && carrier.CarrierID() != 0

	switch m.state {
	case Inactive:
		return to == Neutral
	case Neutral:
		return to == Carried && hasCarrier
	case Carried:
		switch to {
		case Dropped:
			return true
		case Scoring, Thrown:
			return m.carrier != 0
		}
	case Dropped:
		switch to {
		case Carried:
			return hasCarrier
		case Neutral:
			return true
		}
	case Thrown:
		switch to {
		case Carried:
			return hasCarrier
		case Dropped:
			return true
		}
	case Scoring:
		return to == Resetting
	case Resetting:
		return to == Neutral
	}
	return false
}

// RequestStateChange validates and applies a transition. A request made
// while another transition's observers are still running is rejected.
func (m *StateMachine) RequestStateChange(to State, carrier Carrier) bool {
	if m.inTransition || !m.CanTransitionTo(to, carrier) {
		return false
	}
	t := Transition{From: m.state, To: to, Previous: m.carrier}
	m.previous = m.state
	m.state = to
	m.carrier = 0
	if to == Carried {
		m.carrier = carrier.CarrierID()
		m.lastTeam = carrier.Team()
		t.Carrier = m.carrier
	}
	m.timeInState = 0
	m.notify(t)
	return true
}

// ApplyReplicated overwrites the state with the authority's. It bypasses the
// table since the authority already validated the change, and notifies
// observers only when state or carrier changed.
func (m *StateMachine) ApplyReplicated(snap Snapshot) {
	carrier := snap.Carrier
	if snap.State != Carried {
		carrier = 0
	}
	changed := snap.State != m.state || carrier != m.carrier
	t := Transition{From: m.state, To: snap.State, Carrier: carrier, Previous: m.carrier}

	m.state = snap.State
	m.previous = snap.Previous
	m.carrier = carrier
	m.lastTeam = snap.LastTeam
	m.timeInState = snap.TimeInState
	if changed {
		m.notify(t)
	}
}

func (m *StateMachine) notify(t Transition) {
	m.inTransition = true
	defer func() { m.inTransition = false }()
	for _, fn := range m.observers {
		fn(t)
	}
}
