package game

import (
	"testing"
	"time"

	"arena-server/internal/protocol"
)

func TestRespawnQueueOrdersByTime(t *testing.T) {
	var q respawnQueue
	base := time.Now()

	q.schedule(base.Add(3*time.Second), 1, protocol.EffectAmmo)
	q.schedule(base.Add(1*time.Second), 1, protocol.EffectSpeed)
	q.schedule(base.Add(2*time.Second), 1, protocol.EffectShield)

	fired := q.due(base.Add(5 * time.Second))
	if len(fired) != 3 {
		t.Fatalf("expected 3 due entries, got %d", len(fired))
	}
	want := []protocol.EffectKind{protocol.EffectSpeed, protocol.EffectShield, protocol.EffectAmmo}
	for i, kind := range want {
		if fired[i].kind != kind {
			t.Errorf("entry %d: expected %s, got %s", i, kind, fired[i].kind)
		}
	}
}

func TestRespawnQueueDueIsPartial(t *testing.T) {
	var q respawnQueue
	base := time.Now()

	q.schedule(base.Add(1*time.Second), 1, protocol.EffectSpeed)
	q.schedule(base.Add(10*time.Second), 1, protocol.EffectShield)

	fired := q.due(base.Add(2 * time.Second))
	if len(fired) != 1 || fired[0].kind != protocol.EffectSpeed {
		t.Fatalf("expected only the speed entry, got %v", fired)
	}
	if q.Len() != 1 {
		t.Errorf("future entry should remain queued, len=%d", q.Len())
	}
}

func TestRespawnQueueCarriesGeneration(t *testing.T) {
	var q respawnQueue
	base := time.Now()

	q.schedule(base, 7, protocol.EffectShield)
	fired := q.due(base)
	if len(fired) != 1 || fired[0].gen != 7 {
		t.Fatalf("entry should carry its scheduling generation, got %v", fired)
	}
}

func TestRoundTransitions(t *testing.T) {
	var r Round

	if r.Phase != PhaseLobby {
		t.Fatal("zero round should be lobby")
	}
	if !r.Start() {
		t.Fatal("start from lobby should succeed")
	}
	if r.Start() {
		t.Error("start during an active round must fail")
	}
	if !r.End() {
		t.Fatal("end from active should succeed")
	}
	if r.End() {
		t.Error("double end must fail")
	}
	if !r.Start() {
		t.Error("start from gameover should succeed")
	}
}

func TestRoundGenerationBumpsOnEveryTransition(t *testing.T) {
	var r Round

	r.Start()
	g1 := r.Generation
	r.End()
	g2 := r.Generation
	r.Reset()
	g3 := r.Generation

	if g1 == 0 || g2 <= g1 || g3 <= g2 {
		t.Errorf("generation should grow monotonically: %d %d %d", g1, g2, g3)
	}

	before := r.Generation
	r.Reset() // already lobby
	if r.Generation != before {
		t.Error("reset in lobby must not bump the generation")
	}
}
