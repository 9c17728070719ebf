package components

import (
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/yohamta/donburi"
)

// InputData stores the current and previous frame's pressed state for all actions.
// JustPressed/JustReleased are computed on-demand by comparing frames.
type InputData struct {
	Current  [cfg.ActionCount]bool
	Previous [cfg.ActionCount]bool
	Stick    [2]float64 // Left analog stick past the deadzone, x right and y forward
}

func (d *InputData) Pressed(a cfg.ActionID) bool      { return d.Current[a] }
func (d *InputData) JustPressed(a cfg.ActionID) bool  { return d.Current[a] && !d.Previous[a] }
func (d *InputData) JustReleased(a cfg.ActionID) bool { return !d.Current[a] && d.Previous[a] }

var Input = donburi.NewComponentType[InputData]()
