package relic

import (
	"testing"

	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

func TestWatchdogCheck(t *testing.T) {
	tests := []struct {
		name        string
		disabled    bool
		setup       func(f *relicFixture)
		wantProblem Problem
		wantAction  string
		wantState   State
	}{
		{
			name:      "healthy neutral",
			setup:     func(f *relicFixture) { f.relic.Machine.Update(60) },
			wantState: Neutral,
		},
		{
			name: "long carry",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.Machine.Update(60)
			},
			wantState: Carried,
		},
		{
			name: "dropped within ceiling",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.DropRelic(true)
				f.relic.Machine.Update(9)
			},
			wantState: Dropped,
		},
		{
			name: "stuck dropped",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.DropRelic(true)
				f.relic.Machine.Update(10.5)
			},
			wantProblem: ProblemStuck,
			wantAction:  "reset",
			wantState:   Neutral,
		},
		{
			name: "stuck scoring",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.TryScore(2)
				f.relic.Machine.Update(6)
			},
			wantProblem: ProblemStuck,
			wantAction:  "reset",
			wantState:   Resetting,
		},
		{
			name: "stuck resetting",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.TryScore(2)
				f.relic.ResetRelic()
				f.relic.Machine.Update(6)
			},
			wantProblem: ProblemStuck,
			wantAction:  "forced neutral",
			wantState:   Neutral,
		},
		{
			name: "stuck thrown",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				f.relic.ThrowRelic()
				f.relic.Machine.Update(6)
			},
			wantProblem: ProblemStuck,
			wantAction:  "reset",
			wantState:   Neutral,
		},
		{
			name: "carrier gone",
			setup: func(f *relicFixture) {
				f.relic.TryPickup(f.alice)
				delete(f.roster, f.alice.id)
			},
			wantProblem: ProblemNoCarrier,
			wantAction:  "forced drop",
			wantState:   Dropped,
		},
		{
			name:        "fell out of the world",
			setup:       func(f *relicFixture) { f.relic.Body.Position = mgl64.Vec3{0, 0, -6000} },
			wantProblem: ProblemOutOfBounds,
			wantAction:  "reset",
			wantState:   Neutral,
		},
		{
			name: "inactive below the kill plane",
			setup: func(f *relicFixture) {
				f.relic.Deactivate()
				f.relic.Body.Position = mgl64.Vec3{0, 0, -6000}
			},
			wantState: Inactive,
		},
		{
			name:      "disabled",
			disabled:  true,
			setup:     func(f *relicFixture) { f.relic.Body.Position = mgl64.Vec3{0, 0, -6000} },
			wantState: Neutral,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testRelicConfig())
			cfg := settings.DefaultWatchdog()
			cfg.Enabled = !tt.disabled
			w := NewWatchdog(&cfg, f.relic)
			var recovered []Incident
			w.OnRecover = func(inc Incident) { recovered = append(recovered, inc) }

			tt.setup(f)
			inc, acted := w.Check()

			if acted != (tt.wantProblem != ProblemNone) {
				t.Fatalf("acted = %v, incident %v", acted, inc)
			}
			if inc.Problem != tt.wantProblem || inc.Action != tt.wantAction {
				t.Errorf("incident = %v, want %s with %q", inc, tt.wantProblem, tt.wantAction)
			}
			if acted != (len(recovered) == 1) || len(recovered) > 1 {
				t.Errorf("OnRecover called %d times", len(recovered))
			}
			if f.relic.State() != tt.wantState {
				t.Errorf("state = %s, want %s", f.relic.State(), tt.wantState)
			}
			if acted && tt.wantState != Dropped && f.relic.Body.Position != spawnPoint {
				t.Errorf("recovered relic at %v, want spawn", f.relic.Body.Position)
			}
		})
	}
}

func TestWatchdogCeiling(t *testing.T) {
	cfg := settings.DefaultWatchdog()
	w := NewWatchdog(&cfg, nil)
	for s, want := range map[State]float64{
		Dropped:   cfg.MaxTimeInDroppedState,
		Scoring:   cfg.MaxTimeInScoringState,
		Resetting: cfg.MaxTimeInResettingState,
		Thrown:    cfg.MaxTimeInThrownState,
		Carried:   0,
		Neutral:   0,
		Inactive:  0,
	} {
		if got := w.Ceiling(s); got != want {
			t.Errorf("Ceiling(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestClientWatchdogOnlyReports(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Problem
	}{
		{"healthy neutral", Snapshot{State: Neutral, LastTeam: NoTeam, Position: spawnPoint, TimeInState: 60}, ProblemNone},
		{"stuck dropped", Snapshot{State: Dropped, Previous: Carried, LastTeam: 1, Position: spawnPoint, TimeInState: 11}, ProblemStuck},
		{"carrier not replicated", Snapshot{State: Carried, Previous: Neutral, Carrier: 9, LastTeam: 1, Position: spawnPoint}, ProblemNoCarrier},
		{"out of bounds", Snapshot{State: Dropped, Previous: Carried, LastTeam: 1, Position: [3]float64{0, 0, -6000}, TimeInState: 1}, ProblemOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClientFixture(t)
			cfg := settings.DefaultWatchdog()
			w := NewClientWatchdog(&cfg, f.client)
			recovered := 0
			w.OnRecover = func(Incident) { recovered++ }

			f.client.ApplyServerState(tt.snap)
			pos := f.client.Position()
			for i := 0; i < 2; i++ {
				inc, acted := w.Check()
				if acted || recovered != 0 {
					t.Fatalf("client watchdog acted: %v", inc)
				}
				if inc.Problem != tt.want {
					t.Errorf("check %d found %s, want %s", i, inc.Problem, tt.want)
				}
			}
			if f.client.State() != tt.snap.State || f.client.Position() != pos {
				t.Errorf("view changed to %s at %v", f.client.State(), f.client.Position())
			}
			if len(f.sent) != 0 {
				t.Errorf("sent %v", f.sent)
			}
		})
	}
}
