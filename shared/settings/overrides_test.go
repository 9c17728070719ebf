package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetGlobals() {
	Movement = DefaultMovement()
	Relic = DefaultRelic()
	Watchdog = DefaultWatchdog()
	Net = DefaultNet()
}

func TestApplyOverridesMergesOverDefaults(t *testing.T) {
	defer resetGlobals()

	data := []byte(`
movement:
  maxsprintspeed: 820
relic:
  enablethrow: false
watchdog:
  killz: -100
`)
	if err := ApplyOverrides(data); err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}
	if Movement.MaxSprintSpeed != 820 {
		t.Errorf("MaxSprintSpeed = %v, want 820", Movement.MaxSprintSpeed)
	}
	if Movement.MaxWalkSpeed != DefaultMovement().MaxWalkSpeed {
		t.Errorf("MaxWalkSpeed changed to %v", Movement.MaxWalkSpeed)
	}
	if Relic.EnableThrow {
		t.Error("EnableThrow still true")
	}
	if Watchdog.KillZ != -100 {
		t.Errorf("KillZ = %v, want -100", Watchdog.KillZ)
	}
	if Net.TickRate != DefaultNet().TickRate {
		t.Errorf("TickRate changed to %v", Net.TickRate)
	}
}

func TestApplyOverridesRejectsInvalid(t *testing.T) {
	defer resetGlobals()

	tests := []struct {
		name string
		data string
		want string
	}{
		{"auth cooldown longer than client", "movement:\n  authdashcooldown: 2\n", "authdashcooldown"},
		{"zero iterations", "movement:\n  maxsimulationiterations: 0\n", "maxsimulationiterations"},
		{"zero tick rate", "net:\n  tickrate: 0\n", "tickrate"},
		{"malformed", "movement: [", "parse tuning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Movement
			err := ApplyOverrides([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
			if Movement.AuthDashCooldown != before.AuthDashCooldown || Movement.MaxSimulationIterations != before.MaxSimulationIterations {
				t.Error("globals modified on error")
			}
		})
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	defer resetGlobals()

	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("net:\n  tickrate: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadOverrides(path); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if Net.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30", Net.TickRate)
	}
	if err := LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
