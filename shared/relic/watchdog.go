package relic

import (
	"fmt"
	"log"

	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Problem is what the watchdog found wrong with the relic.
type Problem uint8

const (
	ProblemNone Problem = iota
	ProblemStuck
	ProblemNoCarrier
	ProblemOutOfBounds
)

func (p Problem) String() string {
	switch p {
	case ProblemStuck:
		return "stuck"
	case ProblemNoCarrier:
		return "carried without carrier"
	case ProblemOutOfBounds:
		return "out of bounds"
	}
	return "none"
}

// Incident describes one recovery the watchdog performed.
type Incident struct {
	Problem     Problem
	State       State
	TimeInState float64
	Position    [3]float64
	Action      string
}

func (i Incident) String() string {
	return fmt.Sprintf("%s in %s after %.1fs at (%.0f, %.0f, %.0f): %s",
		i.Problem, i.State, i.TimeInState, i.Position[0], i.Position[1], i.Position[2], i.Action)
}

// view is the relic state the watchdog inspects.
type view interface {
	machine() *StateMachine
	position() mgl64.Vec3
	carrierPresent() bool
}

func (r *Relic) machine() *StateMachine { return r.Machine }
func (r *Relic) position() mgl64.Vec3   { return r.Body.Position }
func (r *Relic) carrierPresent() bool {
	_, ok := r.Carrier()
	return ok
}

func (c *ClientRelic) machine() *StateMachine { return c.Machine }
func (c *ClientRelic) position() mgl64.Vec3   { return c.Body.Position }
func (c *ClientRelic) carrierPresent() bool {
	id := c.Machine.Carrier()
	if id == 0 {
		return false
	}
	_, ok := c.roster.Carrier(id)
	return ok
}

// Watchdog forces the relic out of states it should never linger in. It only
// acts on the authority; over a client view it logs what it finds.
type Watchdog struct {
	cfg      *settings.WatchdogConfig
	view     view
	relic    *Relic
	reported Problem

	// OnRecover is called after every recovery.
	OnRecover func(Incident)
}

func NewWatchdog(cfg *settings.WatchdogConfig, r *Relic) *Watchdog {
	return &Watchdog{cfg: cfg, view: r, relic: r}
}

// NewClientWatchdog watches a client's replicated view. Its Check never
// changes the view; each new problem is logged once.
func NewClientWatchdog(cfg *settings.WatchdogConfig, c *ClientRelic) *Watchdog {
	return &Watchdog{cfg: cfg, view: c}
}

// Ceiling is the longest the relic may stay in s, or 0 for no limit.
func (w *Watchdog) Ceiling(s State) float64 {
	switch s {
	case Dropped:
		return w.cfg.MaxTimeInDroppedState
	case Scoring:
		return w.cfg.MaxTimeInScoringState
	case Resetting:
		return w.cfg.MaxTimeInResettingState
	case Thrown:
		return w.cfg.MaxTimeInThrownState
	}
	return 0
}

// Inspect reports the first problem with the relic.
func (w *Watchdog) Inspect() Problem {
	m := w.view.machine()
	if m.State() == Carried && !w.view.carrierPresent() {
		return ProblemNoCarrier
	}
	if m.State() != Inactive && w.view.position()[2] < w.cfg.KillZ {
		return ProblemOutOfBounds
	}
	if c := w.Ceiling(m.State()); c > 0 && m.TimeInState() > c {
		return ProblemStuck
	}
	return ProblemNone
}

// Check inspects the relic and recovers it. It returns the incident and
// whether anything was done.
func (w *Watchdog) Check() (Incident, bool) {
	if !w.cfg.Enabled {
		return Incident{}, false
	}
	problem := w.Inspect()
	last := w.reported
	w.reported = problem
	if problem == ProblemNone {
		return Incident{}, false
	}
	m := w.view.machine()
	inc := Incident{
		Problem:     problem,
		State:       m.State(),
		TimeInState: m.TimeInState(),
		Position:    w.view.position(),
	}
	if w.relic == nil {
		inc.Action = "left to the server"
		if problem != last {
			log.Printf("[watchdog] Warning: relic view %s", inc)
		}
		return inc, false
	}

	switch {
	case problem == ProblemNoCarrier:
		inc.Action = "forced drop"
		w.relic.DropRelic(false)
	case problem == ProblemStuck && m.State() == Resetting:
		inc.Action = "forced neutral"
		m.RequestStateChange(Neutral, nil)
	default:
		inc.Action = "reset"
		w.relic.ResetRelic()
	}
	log.Printf("[watchdog] Warning: relic %s", inc)
	if w.OnRecover != nil {
		w.OnRecover(inc)
	}
	return inc, true
}
