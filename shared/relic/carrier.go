package relic

import (
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/go-gl/mathgl/mgl64"
)

// ID is the network id of a character. Zero is no character.
type ID uint32

// Carrier is a character that can hold the relic.
type Carrier interface {
	CarrierID() ID
	Team() int
	Position() mgl64.Vec3
	HalfHeight() float64
	// Socket is the world position the relic attaches to.
	Socket() mgl64.Vec3
	Velocity() mgl64.Vec3
	Facing() mgl64.Vec3

	AddModifier(movement.Modifier) movement.ModifierHandle
	RemoveModifier(movement.ModifierHandle)
}

// Roster resolves carrier ids. A carrier that left the match no longer
// resolves.
type Roster interface {
	Carrier(id ID) (Carrier, bool)
}

// RosterMap is a Roster over a map, used by the server and tests.
type RosterMap map[ID]Carrier

func (r RosterMap) Carrier(id ID) (Carrier, bool) {
	c, ok := r[id]
	return c, ok && c != nil
}

// Add registers carriers by their ids.
func (r RosterMap) Add(cs ...Carrier) {
	for _, c := range cs {
		r[c.CarrierID()] = c
	}
}

// Character adapts a movement character to Carrier.
type Character struct {
	NetID        ID
	TeamID       int
	Char         *movement.Character
	SocketOffset mgl64.Vec3 // in the character's facing frame: forward, right, up
}

func (c *Character) CarrierID() ID        { return c.NetID }
func (c *Character) Team() int            { return c.TeamID }
func (c *Character) Position() mgl64.Vec3 { return c.Char.State.Position }
func (c *Character) HalfHeight() float64  { return c.Char.Shape().HalfExtents[2] }
func (c *Character) Velocity() mgl64.Vec3 { return c.Char.State.Velocity }
func (c *Character) Facing() mgl64.Vec3   { return c.Char.State.Facing }

func (c *Character) Socket() mgl64.Vec3 {
	s := &c.Char.State
	right := gamemath.RightOf(s.Facing)
	return s.Position.
		Add(s.Facing.Mul(c.SocketOffset[0])).
		Add(right.Mul(c.SocketOffset[1])).
		Add(mgl64.Vec3{0, 0, c.SocketOffset[2]})
}

func (c *Character) AddModifier(m movement.Modifier) movement.ModifierHandle {
	return c.Char.AddModifier(m)
}

func (c *Character) RemoveModifier(h movement.ModifierHandle) { c.Char.RemoveModifier(h) }
