package client

import (
	"math"
	"testing"

	"arena-server/internal/protocol"
)

func identityMat() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

func TestOffscreen(t *testing.T) {
	if Offscreen(protocol.Vec3{X: 0.5, Y: -0.5, Z: 0}) {
		t.Error("point inside the frustum is onscreen")
	}
	if !Offscreen(protocol.Vec3{X: 1.2}) {
		t.Error("|x|>1 is offscreen")
	}
	if !Offscreen(protocol.Vec3{Y: -1.5}) {
		t.Error("|y|>1 is offscreen")
	}
	if !Offscreen(protocol.Vec3{Z: 2}) {
		t.Error("|z|>1 is offscreen")
	}
}

func TestTransformPointPerspectiveDivide(t *testing.T) {
	m := identityMat()
	m[3] = 0
	m[15] = 2 // w doubles, halving every coordinate

	p := m.TransformPoint(protocol.Vec3{X: 4, Y: 2, Z: 6})
	if p.X != 2 || p.Y != 1 || p.Z != 3 {
		t.Errorf("expected (2 1 3), got %+v", p)
	}
}

func TestIndicatorAngleCardinalDirections(t *testing.T) {
	origin := protocol.Vec3{}
	facing := protocol.Identity()

	cases := []struct {
		name   string
		target protocol.Vec3
		want   float64
	}{
		{"right", protocol.Vec3{X: 10}, 0},
		{"ahead", protocol.Vec3{Z: -10}, math.Pi / 2},
		{"left", protocol.Vec3{X: -10}, math.Pi},
		{"behind", protocol.Vec3{Z: 10}, -math.Pi / 2},
	}
	for _, tc := range cases {
		got := IndicatorAngle(origin, facing, tc.target)
		if angularDistance(got, tc.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

// angularDistance is the absolute difference between two angles on the
// circle, so +pi and -pi compare equal but +pi/2 and -pi/2 do not.
func angularDistance(a, b float64) float64 {
	return math.Abs(math.Mod(a-b+3*math.Pi, 2*math.Pi) - math.Pi)
}

func TestIndicatorAngleFollowsOrientation(t *testing.T) {
	// Facing rotated 90 degrees about Y; a target straight ahead in
	// world space appears to the side in the local frame
	half := math.Pi / 4
	q := protocol.Quat{Y: math.Sin(half), W: math.Cos(half)}

	straight := IndicatorAngle(protocol.Vec3{}, protocol.Identity(), protocol.Vec3{Z: -10})
	rotated := IndicatorAngle(protocol.Vec3{}, q, protocol.Vec3{Z: -10})

	if math.Abs(straight-rotated) < 1e-6 {
		t.Error("rotating the player should change the indicator angle")
	}
}

func TestRotateRoundTrip(t *testing.T) {
	half := math.Pi / 6
	q := protocol.Quat{Y: math.Sin(half), W: math.Cos(half)}
	v := protocol.Vec3{X: 1, Y: 2, Z: 3}

	back := rotate(conjugate(q), rotate(q, v))
	if math.Abs(back.X-v.X) > 1e-9 || math.Abs(back.Y-v.Y) > 1e-9 || math.Abs(back.Z-v.Z) > 1e-9 {
		t.Errorf("conjugate should invert the rotation, got %+v", back)
	}
}
