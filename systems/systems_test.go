package systems

import (
	"testing"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/shared/messages"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/automoto/breakaway-mp/shared/settings"
)

func pressed(actions ...cfg.ActionID) *components.InputData {
	in := &components.InputData{}
	for _, a := range actions {
		in.Current[a] = true
	}
	return in
}

func TestBuildMoveInput(t *testing.T) {
	accel := settings.Movement.MaxAcceleration
	tests := []struct {
		name      string
		input     *components.InputData
		crouch    bool
		wantAccel [2]float64
		wantFlags movement.Flags
	}{
		{"idle", pressed(), false, [2]float64{0, 0}, 0},
		{"forward", pressed(cfg.ActionMoveForward), false, [2]float64{0, accel}, 0},
		{"opposite keys cancel", pressed(cfg.ActionMoveLeft, cfg.ActionMoveRight), false, [2]float64{0, 0}, 0},
		{"jump and sprint", pressed(cfg.ActionMoveRight, cfg.ActionJump, cfg.ActionSprint), false,
			[2]float64{accel, 0}, movement.FlagJump | movement.FlagSprint},
		{"crouch", pressed(cfg.ActionMoveBack), true, [2]float64{0, -accel}, movement.FlagCrouch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := buildMoveInput(tt.input, tt.crouch)
			want := movement.QuantizeAcceleration([3]float64{tt.wantAccel[0], tt.wantAccel[1], 0})
			if in.Acceleration != want {
				t.Errorf("acceleration = %v, want %v", in.Acceleration, want)
			}
			if in.Flags != tt.wantFlags {
				t.Errorf("flags = %08b, want %08b", in.Flags, tt.wantFlags)
			}
		})
	}
}

func TestDiagonalInputIsNormalized(t *testing.T) {
	in := buildMoveInput(pressed(cfg.ActionMoveForward, cfg.ActionMoveRight), false)
	if l := in.Acceleration.Len(); l > settings.Movement.MaxAcceleration+0.1 {
		t.Errorf("diagonal acceleration %.1f exceeds the maximum", l)
	}
}

func TestCrouchInput(t *testing.T) {
	var c crouchInput
	down, up := pressed(cfg.ActionCrouch), pressed()
	down.Previous = up.Current
	held := pressed(cfg.ActionCrouch)
	held.Previous = held.Current

	if !c.wants(down, false) || c.wants(up, false) {
		t.Error("hold mode does not follow the key")
	}
	if !c.wants(down, true) {
		t.Fatal("toggle did not turn crouch on")
	}
	if !c.wants(held, true) || !c.wants(up, true) {
		t.Error("toggle mode released while the key was held or let go")
	}
	if c.wants(down, true) {
		t.Error("second press did not toggle crouch off")
	}
}

func TestDescribeRelicEvent(t *testing.T) {
	tests := []struct {
		evt  messages.RelicEvent
		want string
	}{
		{messages.RelicEvent{Kind: netconfig.RelicEventPickup, Team: netconfig.TeamRed}, "ann (red) picked up the relic"},
		{messages.RelicEvent{Kind: netconfig.RelicEventDrop}, "ann dropped the relic"},
		{messages.RelicEvent{Kind: netconfig.RelicEventScore, Team: netconfig.TeamBlue}, "ann scored for blue"},
		{messages.RelicEvent{Kind: netconfig.RelicEventReset}, "the relic returned to its spawn"},
		{messages.RelicEvent{Kind: 99}, "relic unknown"},
	}
	for _, tt := range tests {
		if got := describeRelicEvent(tt.evt, "ann"); got != tt.want {
			t.Errorf("describeRelicEvent(%s) = %q, want %q", tt.evt.Kind, got, tt.want)
		}
	}
}

func TestScoreLine(t *testing.T) {
	m := &components.MatchData{State: netconfig.MatchStateWaiting}
	if got := scoreLine(m); got != "waiting for players" {
		t.Errorf("waiting = %q", got)
	}
	m.State = netconfig.MatchStatePlaying
	m.Scores = []int{2, 1}
	if got := scoreLine(m); got != "blue 2  -  red 1" {
		t.Errorf("playing = %q", got)
	}
	if got := describeScore(messages.ScoreEvent{Team: 1, Points: 1, Scores: []int{2, 1}}); got != "red +1  blue 2  red 1" {
		t.Errorf("describeScore = %q", got)
	}
}

func TestClampAxis(t *testing.T) {
	tests := []struct {
		v, visible, size, want float64
	}{
		{500, 400, 4000, 500},
		{50, 400, 4000, 200},
		{3950, 400, 4000, 3800},
		{50, 5000, 4000, 2000},
	}
	for _, tt := range tests {
		if got := clampAxis(tt.v, tt.visible, tt.size); got != tt.want {
			t.Errorf("clampAxis(%v, %v, %v) = %v, want %v", tt.v, tt.visible, tt.size, got, tt.want)
		}
	}
}

func TestDecodeSettings(t *testing.T) {
	s, err := decodeSettings([]byte(`{"toggleCrouch":true,"playerName":""}`))
	if err != nil {
		t.Fatal(err)
	}
	def := cfg.DefaultSettings()
	if !s.ToggleCrouch || s.PlayerName != def.PlayerName || s.ServerAddress != def.ServerAddress {
		t.Errorf("settings = %+v", s)
	}
	if _, err := decodeSettings([]byte("{")); err == nil {
		t.Error("truncated settings parsed")
	}
}
