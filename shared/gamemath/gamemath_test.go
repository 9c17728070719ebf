package gamemath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSafeNormal(t *testing.T) {
	tests := []struct {
		name string
		in   mgl64.Vec3
		want mgl64.Vec3
	}{
		{"zero", mgl64.Vec3{}, mgl64.Vec3{}},
		{"tiny", mgl64.Vec3{1e-6, 0, 0}, mgl64.Vec3{}},
		{"axis", mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 1, 0}},
		{"diagonal", mgl64.Vec3{3, 4, 0}, mgl64.Vec3{0.6, 0.8, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeNormal(tt.in); !got.ApproxEqual(tt.want) {
				t.Errorf("SafeNormal(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaneProjectRemovesNormalComponent(t *testing.T) {
	n := mgl64.Vec3{0, 1, 0}
	v := mgl64.Vec3{3, -7, 2}
	got := PlaneProject(v, n)
	if !got.ApproxEqual(mgl64.Vec3{3, 0, 2}) {
		t.Errorf("PlaneProject = %v", got)
	}
}

func TestRightOf(t *testing.T) {
	if got := RightOf(mgl64.Vec3{1, 0, 0}); !got.ApproxEqual(mgl64.Vec3{0, -1, 0}) {
		t.Errorf("RightOf(+X) = %v", got)
	}
	if got := RightOf(mgl64.Vec3{0, 1, 0}); !got.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("RightOf(+Y) = %v", got)
	}
}

func TestApplyBrakingStopsWithoutReversing(t *testing.T) {
	v := mgl64.Vec3{100, 0, 0}
	got := ApplyBraking(v, 1, 8, 2048, 1.0/33)
	if got != (mgl64.Vec3{}) {
		t.Errorf("expected full stop, got %v", got)
	}

	slow := ApplyBraking(mgl64.Vec3{1000, 0, 0}, 1.0/60, 0, 600, 1.0/33)
	if slow[0] <= 0 || slow[0] >= 1000 {
		t.Errorf("expected partial braking, got %v", slow)
	}
}

func TestIsWalkable(t *testing.T) {
	n := SafeNormal(mgl64.Vec3{-1, 0, 1}) // 45 degree ramp rising toward +X
	if !IsWalkable(n, 0.7) || IsWalkable(n, 0.71) {
		t.Errorf("walkable threshold wrong for normal %v", n)
	}
}

func TestLaunchVelocity(t *testing.T) {
	v := LaunchVelocity(mgl64.Vec3{0, 2, 0}, 1000, 30)
	if math.Abs(v.Len()-1000) > 1e-6 {
		t.Errorf("speed = %v", v.Len())
	}
	if math.Abs(v[2]-500) > 1e-6 {
		t.Errorf("vertical = %v, want 500", v[2])
	}
	if v[0] != 0 || v[1] <= 0 {
		t.Errorf("direction = %v", v)
	}
}
