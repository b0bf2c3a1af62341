package client

import (
	"math"

	"arena-server/internal/protocol"
)

// Mat4 is a column-major 4x4 matrix, the view-projection handed down by
// the renderer.
type Mat4 [16]float64

// TransformPoint applies the matrix with perspective divide, yielding
// clip-space coordinates.
func (m Mat4) TransformPoint(p protocol.Vec3) protocol.Vec3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 {
		x /= w
		y /= w
		z /= w
	}
	return protocol.Vec3{X: x, Y: y, Z: z}
}

// Offscreen reports whether a clip-space point falls outside the view
// frustum on any axis.
func Offscreen(clip protocol.Vec3) bool {
	return math.Abs(clip.X) > 1 || math.Abs(clip.Y) > 1 || math.Abs(clip.Z) > 1
}

// IndicatorAngle gives the screen-edge arrow direction toward an
// offscreen target: the target position is moved into the player's
// local frame and flattened onto the ground plane. Zero points right,
// angles grow counter-clockwise.
func IndicatorAngle(playerPos protocol.Vec3, playerOrient protocol.Quat, target protocol.Vec3) float64 {
	rel := protocol.Vec3{
		X: target.X - playerPos.X,
		Y: target.Y - playerPos.Y,
		Z: target.Z - playerPos.Z,
	}
	local := rotate(conjugate(playerOrient), rel)
	return math.Atan2(-local.Z, local.X)
}

func conjugate(q protocol.Quat) protocol.Quat {
	return protocol.Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// rotate applies q to v as q * v * q^-1, assuming q is unit length.
func rotate(q protocol.Quat, v protocol.Vec3) protocol.Vec3 {
	// t = 2 * cross(q.xyz, v)
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)
	// v' = v + w*t + cross(q.xyz, t)
	return protocol.Vec3{
		X: v.X + q.W*tx + (q.Y*tz - q.Z*ty),
		Y: v.Y + q.W*ty + (q.Z*tx - q.X*tz),
		Z: v.Z + q.W*tz + (q.X*ty - q.Y*tx),
	}
}
