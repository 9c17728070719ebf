package systems

import (
	"log"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi/ecs"
)

// crouchInput turns the crouch key into a crouch request, held or toggled
// depending on the player's setting.
type crouchInput struct {
	toggled bool
}

func (c *crouchInput) wants(input *components.InputData, toggle bool) bool {
	if !toggle {
		c.toggled = false
		return input.Pressed(cfg.ActionCrouch)
	}
	if input.JustPressed(cfg.ActionCrouch) {
		c.toggled = !c.toggled
	}
	return c.toggled
}

// moveDirection maps WASD and the stick to a world direction. W is +Y, the
// top of the screen.
func moveDirection(input *components.InputData) mgl64.Vec3 {
	var dir mgl64.Vec3
	if input.Pressed(cfg.ActionMoveForward) {
		dir[1]++
	}
	if input.Pressed(cfg.ActionMoveBack) {
		dir[1]--
	}
	if input.Pressed(cfg.ActionMoveRight) {
		dir[0]++
	}
	if input.Pressed(cfg.ActionMoveLeft) {
		dir[0]--
	}
	dir[0] += input.Stick[0]
	dir[1] += input.Stick[1]
	return dir
}

// buildMoveInput converts one frame of input into a simulated move.
func buildMoveInput(input *components.InputData, crouch bool) movement.Input {
	var flags movement.Flags
	if input.Pressed(cfg.ActionJump) {
		flags |= movement.FlagJump
	}
	if crouch {
		flags |= movement.FlagCrouch
	}
	if input.Pressed(cfg.ActionSprint) {
		flags |= movement.FlagSprint
	}
	return movement.NewInput(moveDirection(input), flags, settings.Movement.MaxAcceleration)
}

// NewMoveInputSystem returns an ECS system that turns input into predicted
// moves for the local player and relic requests. Moves are sent by the
// predictor at the net send rate.
func NewMoveInputSystem(pred *network.Prediction) func(*ecs.ECS) {
	crouch := &crouchInput{}

	return func(e *ecs.ECS) {
		input := getOrCreateInput(e)
		handleClientToggles(e, input)

		if !pred.Synced() {
			return
		}

		if input.JustPressed(cfg.ActionDash) {
			pred.Predictor.PressDash()
		}
		if input.JustReleased(cfg.ActionDash) {
			pred.Predictor.ReleaseDash()
		}
		if input.JustPressed(cfg.ActionInteract) {
			if !pred.Interact() {
				log.Printf("[netinput] nothing to interact with (relic %s)", pred.Relic.DisplayState())
			}
		}
		if input.JustPressed(cfg.ActionThrow) {
			pred.Throw()
		}

		in := buildMoveInput(input, crouch.wants(input, cfg.Settings.ToggleCrouch))
		pred.Tick(in, 1/float64(ebiten.TPS()))
	}
}

// handleClientToggles applies keys that only change local settings.
func handleClientToggles(e *ecs.ECS, input *components.InputData) {
	changed := false
	if input.JustPressed(cfg.ActionDebug) {
		cfg.Settings.ShowDebug = !cfg.Settings.ShowDebug
		changed = true
	}
	if input.JustPressed(cfg.ActionToggleCrouchMode) {
		cfg.Settings.ToggleCrouch = !cfg.Settings.ToggleCrouch
		changed = true
		pushFeed(e, crouchModeLabel(cfg.Settings.ToggleCrouch), cfg.White)
	}
	if changed {
		SaveCurrentSettings()
	}

	if camera, ok := components.Camera.First(e.World); ok {
		c := components.Camera.Get(camera)
		if input.JustPressed(cfg.ActionZoomIn) {
			c.Zoom = min(c.Zoom+cfg.Camera.ZoomStep, cfg.Camera.MaxZoom)
		}
		if input.JustPressed(cfg.ActionZoomOut) {
			c.Zoom = max(c.Zoom-cfg.Camera.ZoomStep, cfg.Camera.MinZoom)
		}
	}
}

func crouchModeLabel(toggle bool) string {
	if toggle {
		return "crouch: toggle"
	}
	return "crouch: hold"
}
