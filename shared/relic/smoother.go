package relic

import (
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	jitterDistance   = 10.0
	catchUpDistance  = 50.0
	catchUpRange     = 200.0
	jitterSmoothing  = 0.95
	catchUpSmoothing = 0.1
	latencyShare     = 0.5
)

// Smoother moves the displayed relic towards a carrier's socket on clients.
type Smoother struct {
	cfg *settings.RelicConfig

	blend     *gween.Tween
	blendFrom mgl64.Vec3
}

func NewSmoother(cfg *settings.RelicConfig) *Smoother {
	return &Smoother{cfg: cfg}
}

// Factor returns the smoothing time constant for a positional error: larger
// (slower) for small jittery errors, smaller (faster) for large ones.
func (s *Smoother) Factor(distance float64) float64 {
	base := mgl64.Clamp(s.cfg.NetworkSmoothing, 0.1, 0.9)
	switch {
	case distance < jitterDistance:
		return gamemath.LerpFloat(base, jitterSmoothing, 1-distance/jitterDistance)
	case distance > catchUpDistance:
		return gamemath.LerpFloat(base, catchUpSmoothing, min(1, (distance-catchUpDistance)/catchUpRange))
	}
	return base
}

// LatencyOffset is the dead-reckoning offset for a carrier moving at
// velocity, capped at MaxLatencyOffset.
func (s *Smoother) LatencyOffset(velocity mgl64.Vec3) mgl64.Vec3 {
	off := velocity.Mul(s.cfg.EstimatedLatency * latencyShare)
	return gamemath.ClampMaxSize(off, s.cfg.MaxLatencyOffset)
}

// Follow steps current towards a remote carrier's socket. Errors beyond the
// teleport distance snap straight to the target.
func (s *Smoother) Follow(current, socket, carrierVelocity mgl64.Vec3, dt float64) (next mgl64.Vec3, teleported bool) {
	distance := current.Sub(socket).Len()
	target := socket.Add(s.LatencyOffset(carrierVelocity))
	if distance > s.cfg.TeleportDistance {
		return target, true
	}
	alpha := mgl64.Clamp(dt/s.Factor(distance), 0, 1)
	return gamemath.Lerp(current, target, alpha), false
}

// StartAttach begins blending the relic from where it was onto the local
// carrier's socket.
func (s *Smoother) StartAttach(from mgl64.Vec3) {
	s.blendFrom = from
	s.blend = nil
	if s.cfg.AttachBlendTime > 0 {
		s.blend = gween.New(0, 1, float32(s.cfg.AttachBlendTime), ease.OutQuad)
	}
}

// Attach steps the attach blend towards socket. Once the blend finishes the
// relic sits on the socket.
func (s *Smoother) Attach(socket mgl64.Vec3, dt float64) mgl64.Vec3 {
	if s.blend == nil {
		return socket
	}
	t, done := s.blend.Update(float32(dt))
	if done {
		s.blend = nil
		return socket
	}
	return gamemath.Lerp(s.blendFrom, socket, float64(t))
}

// Blending reports whether an attach blend is running.
func (s *Smoother) Blending() bool { return s.blend != nil }
