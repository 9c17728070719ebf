package relic

import (
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	bodyIterations   = 4
	restSpeed        = 60.0 // bounces slower than this settle
	sleepSpeed       = 2.0
	groundFriction   = 4.0
	walkableNormalZ  = 0.7
	groundProbeDepth = 2.0
)

// Body is the relic's rigid body: a small box under gravity with linear
// damping that bounces off level geometry.
type Body struct {
	Position   mgl64.Vec3
	Velocity   mgl64.Vec3
	Simulating bool
	Grounded   bool

	shape       collision.Shape
	mass        float64
	damping     float64
	restitution float64
	gravityZ    float64
}

func NewBody(cfg *settings.RelicConfig) Body {
	return Body{
		shape:       collision.Box(cfg.Radius, cfg.Radius),
		mass:        max(cfg.Mass, 0.01),
		damping:     cfg.LinearDamping,
		restitution: cfg.Restitution,
		gravityZ:    cfg.GravityZ,
	}
}

// Shape is the collision shape of the body.
func (b *Body) Shape() collision.Shape { return b.shape }

// SetSimulating turns physics on or off. Turning it off zeroes velocity.
func (b *Body) SetSimulating(on bool) {
	b.Simulating = on
	b.Grounded = false
	if !on {
		b.Velocity = mgl64.Vec3{}
	}
}

// AddImpulse applies an impulse. With velocityChange the mass is ignored.
func (b *Body) AddImpulse(impulse mgl64.Vec3, velocityChange bool) {
	if !velocityChange {
		impulse = impulse.Mul(1 / b.mass)
	}
	b.Velocity = b.Velocity.Add(impulse)
	b.Grounded = false
}

// Teleport moves the body and stops it.
func (b *Body) Teleport(p mgl64.Vec3) {
	b.Position = p
	b.Velocity = mgl64.Vec3{}
	b.Grounded = false
}

// Step integrates one tick against the world. It reports whether the body
// touched a walkable surface while moving down.
func (b *Body) Step(w collision.Query, dt float64) (landed bool) {
	if !b.Simulating || dt <= 0 {
		return false
	}
	if b.Grounded && b.Velocity.LenSqr() == 0 {
		if w.Test(b.shape, b.Position, b.Position.Sub(mgl64.Vec3{0, 0, groundProbeDepth})) {
			return false
		}
		b.Grounded = false
	}

	b.Velocity[2] += b.gravityZ * dt
	if b.damping > 0 {
		b.Velocity = b.Velocity.Mul(1 / (1 + b.damping*dt))
	}

	remaining := dt
	for range bodyIterations {
		if remaining <= 0 {
			break
		}
		end := b.Position.Add(b.Velocity.Mul(remaining))
		hit := w.Sweep(b.shape, b.Position, end)
		if hit.StartPenetrating {
			if off, ok := w.Depenetrate(b.shape, b.Position); ok {
				b.Position = b.Position.Add(off)
			}
			continue
		}
		b.Position = hit.Location
		if !hit.Blocking {
			break
		}
		remaining *= 1 - hit.Time

		vn := b.Velocity.Dot(hit.Normal)
		if vn < 0 {
			floor := hit.Normal[2] >= walkableNormalZ
			if floor {
				landed = true
			}
			if floor && -vn < restSpeed {
				b.Velocity = gamemath.PlaneProject(b.Velocity, hit.Normal)
				b.Grounded = true
			} else {
				b.Velocity = b.Velocity.Sub(hit.Normal.Mul((1 + b.restitution) * vn))
			}
		}
	}

	if b.Grounded {
		h := gamemath.Horizontal(b.Velocity).Mul(max(0, 1-groundFriction*dt))
		b.Velocity = mgl64.Vec3{h[0], h[1], b.Velocity[2]}
		if b.Velocity.Len() < sleepSpeed {
			b.Velocity = mgl64.Vec3{}
		}
	}
	return landed
}
