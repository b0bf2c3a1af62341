package client

import (
	"math"

	"arena-server/internal/protocol"
)

const (
	speedMultiplier = 1.5 // with the speed effect running

	moveEpsilon = 1e-6
)

// Base movement speed per difficulty, arena units per second.
var difficultySpeed = map[protocol.Difficulty]float64{
	protocol.DifficultyEasy:   26,
	protocol.DifficultyMedium: 27,
	protocol.DifficultyHard:   30,
}

// Input is one frame of control state.
type Input struct {
	Forward float64 // -1..1 along the facing axis
	Strafe  float64 // -1..1 perpendicular
	YawRate float64 // radians per second
}

// Predictor applies inputs to the local transform immediately and
// reports when a frame actually moved, so the caller only emits
// move-intents for frames that changed something. The server echoes
// nothing back to the sender; the local transform is the prediction and
// the server's relay to peers is the reconciliation.
type Predictor struct {
	Position    protocol.Vec3
	Orientation protocol.Quat
	yaw         float64

	mirror *Mirror
}

// NewPredictor starts from the spawn transform the role-assigned
// snapshot reported.
func NewPredictor(m *Mirror, start protocol.Vec3) *Predictor {
	return &Predictor{
		Position:    start,
		Orientation: protocol.Identity(),
		mirror:      m,
	}
}

// Step advances the transform by one frame. It returns the move-intent
// to send and true, or false when the frame produced no movement.
func (p *Predictor) Step(in Input, dt float64) (protocol.MoveIntent, bool) {
	moved := false

	if in.YawRate != 0 {
		p.yaw += in.YawRate * dt
		p.Orientation = yawQuat(p.yaw)
		moved = true
	}

	speed := difficultySpeed[protocol.DifficultyEasy]
	if p.mirror != nil {
		if s, ok := difficultySpeed[p.mirror.CurrentDifficulty()]; ok {
			speed = s
		}
		if p.mirror.HasEffect(protocol.EffectSpeed) {
			speed *= speedMultiplier
		}
	}

	// Forward is local -Z, strafe local +X, rotated by the current yaw
	dx := in.Strafe*math.Cos(p.yaw) - in.Forward*math.Sin(p.yaw)
	dz := -in.Forward*math.Cos(p.yaw) - in.Strafe*math.Sin(p.yaw)
	if math.Abs(dx) > moveEpsilon || math.Abs(dz) > moveEpsilon {
		p.Position.X += dx * speed * dt
		p.Position.Z += dz * speed * dt
		moved = true
	}

	if !moved {
		return protocol.MoveIntent{}, false
	}
	return protocol.MoveIntent{Position: p.Position, Orientation: p.Orientation}, true
}

// yawQuat is a rotation about the vertical axis.
func yawQuat(yaw float64) protocol.Quat {
	half := yaw / 2
	return protocol.Quat{Y: math.Sin(half), W: math.Cos(half)}
}
