package gamemath

import "github.com/go-gl/mathgl/mgl64"

// IsWalkable reports whether a surface with the given normal can be stood on.
func IsWalkable(normal mgl64.Vec3, walkableFloorZ float64) bool {
	return normal[2] >= walkableFloorZ
}
