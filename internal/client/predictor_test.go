package client

import (
	"math"
	"testing"
	"time"

	"arena-server/internal/protocol"
)

func TestPredictorIdleFrameEmitsNothing(t *testing.T) {
	p := NewPredictor(nil, protocol.Vec3{Y: 2})

	if _, moved := p.Step(Input{}, 1.0/60); moved {
		t.Error("an idle frame must not produce a move-intent")
	}
	if p.Position.Y != 2 {
		t.Error("idle frame must not change the transform")
	}
}

func TestPredictorAppliesImmediately(t *testing.T) {
	p := NewPredictor(nil, protocol.Vec3{Y: 2})

	mv, moved := p.Step(Input{Forward: 1}, 0.1)
	if !moved {
		t.Fatal("a forward frame should produce a move-intent")
	}
	if mv.Position != p.Position {
		t.Error("emitted intent should carry the already-applied transform")
	}
	if p.Position.Z == 0 {
		t.Error("forward input should displace along the facing axis")
	}
}

func TestPredictorForwardMatchesFacing(t *testing.T) {
	for _, yawRate := range []float64{0, 3, -5} {
		p := NewPredictor(nil, protocol.Vec3{})
		p.Step(Input{YawRate: yawRate}, 0.2) // settle on a heading
		before := p.Position

		mv, moved := p.Step(Input{Forward: 1}, 0.1)
		if !moved {
			t.Fatal("forward frame should move")
		}

		// Displacement must point where the emitted orientation faces
		facing := rotate(mv.Orientation, protocol.Vec3{Z: -1})
		dx := p.Position.X - before.X
		dz := p.Position.Z - before.Z
		dot := dx*facing.X + dz*facing.Z
		norm := math.Sqrt(dx*dx + dz*dz)
		if norm == 0 || dot/norm < 0.999 {
			t.Errorf("yawRate %v: displacement (%v %v) not aligned with facing %+v", yawRate, dx, dz, facing)
		}
	}
}

func TestPredictorDifficultySpeed(t *testing.T) {
	easy := NewMirror()
	hard := NewMirror()
	hard.Difficulty = protocol.DifficultyHard

	pe := NewPredictor(easy, protocol.Vec3{})
	ph := NewPredictor(hard, protocol.Vec3{})
	pe.Step(Input{Forward: 1}, 0.1)
	ph.Step(Input{Forward: 1}, 0.1)

	if !(absf(ph.Position.Z) > absf(pe.Position.Z)) {
		t.Error("harder difficulty should move faster per frame")
	}
}

func TestPredictorSpeedEffect(t *testing.T) {
	m := NewMirror()
	slow := NewPredictor(nil, protocol.Vec3{})
	fast := NewPredictor(m, protocol.Vec3{})
	m.Effects[protocol.EffectSpeed] = time.Now().Add(time.Minute)

	slow.Step(Input{Forward: 1}, 0.1)
	fast.Step(Input{Forward: 1}, 0.1)

	if !(absf(fast.Position.Z) > absf(slow.Position.Z)) {
		t.Error("the speed effect should increase per-frame displacement")
	}
}

func TestPredictorYawOnlyStillEmits(t *testing.T) {
	p := NewPredictor(nil, protocol.Vec3{})

	mv, moved := p.Step(Input{YawRate: 1}, 0.1)
	if !moved {
		t.Fatal("turning in place is movement")
	}
	if mv.Orientation == protocol.Identity() {
		t.Error("yaw input should change the orientation")
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
