package config

import "github.com/hajimehoshi/ebiten/v2"

// ActionID represents a logical game action
type ActionID int

const (
	ActionNone ActionID = iota
	ActionMoveForward
	ActionMoveBack
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionCrouch
	ActionSprint
	ActionDash
	ActionInteract
	ActionThrow
	ActionDebug
	ActionToggleCrouchMode
	ActionZoomIn
	ActionZoomOut
	ActionCount // Must be last - used for array sizing
)

// InputBinding represents a single key or button binding for an action
type InputBinding struct {
	Keys                   []ebiten.Key
	StandardGamepadButtons []ebiten.StandardGamepadButton
}

// InputConfig holds all input mappings
type InputConfig struct {
	Bindings map[ActionID]InputBinding
	// Deadzone for analog stick input (0.0 to 1.0)
	AnalogDeadzone float64
}

// Input is the global input configuration
var Input InputConfig

func init() {
	Input = InputConfig{
		AnalogDeadzone: 0.25,
		Bindings: map[ActionID]InputBinding{
			ActionMoveForward: {
				Keys:                   []ebiten.Key{ebiten.KeyW, ebiten.KeyUp},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonLeftTop},
			},
			ActionMoveBack: {
				Keys:                   []ebiten.Key{ebiten.KeyS, ebiten.KeyDown},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonLeftBottom},
			},
			ActionMoveLeft: {
				Keys:                   []ebiten.Key{ebiten.KeyA, ebiten.KeyLeft},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonLeftLeft},
			},
			ActionMoveRight: {
				Keys:                   []ebiten.Key{ebiten.KeyD, ebiten.KeyRight},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonLeftRight},
			},
			ActionJump: {
				Keys: []ebiten.Key{ebiten.KeySpace},
				// A / Cross button
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonRightBottom},
			},
			ActionCrouch: {
				Keys: []ebiten.Key{ebiten.KeyC, ebiten.KeyControlLeft, ebiten.KeyControlRight},
				// B / Circle button
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonRightRight},
			},
			ActionSprint: {
				Keys:                   []ebiten.Key{ebiten.KeyShiftLeft, ebiten.KeyShiftRight},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonLeftStick},
			},
			ActionDash: {
				Keys:                   []ebiten.Key{ebiten.KeyQ},
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonFrontBottomRight},
			},
			ActionInteract: {
				Keys: []ebiten.Key{ebiten.KeyE},
				// X / Square button
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonRightLeft},
			},
			ActionThrow: {
				Keys: []ebiten.Key{ebiten.KeyF},
				// Y / Triangle button
				StandardGamepadButtons: []ebiten.StandardGamepadButton{ebiten.StandardGamepadButtonRightTop},
			},
			ActionDebug: {
				Keys: []ebiten.Key{ebiten.KeyF3},
			},
			ActionToggleCrouchMode: {
				Keys: []ebiten.Key{ebiten.KeyF4},
			},
			ActionZoomIn: {
				Keys: []ebiten.Key{ebiten.KeyEqual, ebiten.KeyKPAdd},
			},
			ActionZoomOut: {
				Keys: []ebiten.Key{ebiten.KeyMinus, ebiten.KeyKPSubtract},
			},
		},
	}
}
