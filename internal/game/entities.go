package game

import (
	"math/rand"

	"github.com/google/uuid"

	"arena-server/internal/protocol"
)

const (
	MaxCollectibles = 10 // collection-mode seed count
	MaxPerKind      = 2  // power-up capacity ceiling per kind

	// Spawn heights per entity kind. Collectibles sit on the ground,
	// speed orbs just above it, shield and ammo float at grab height.
	collectibleY = -5.0
	speedY       = -2.0
	raisedY      = 4.0
)

// Collectible exists only while uncollected.
type Collectible struct {
	ID       string
	Position protocol.Vec3
}

// PowerUp exists only while unclaimed; a claim schedules one respawn.
type PowerUp struct {
	ID       string
	Kind     protocol.EffectKind
	Position protocol.Vec3
}

// Bounds are the arena extents; positions are sampled uniformly in
// [-X/2, X/2] x [-Z/2, Z/2].
type Bounds struct {
	X float64
	Z float64
}

// Spawner generates fresh entities at uniform-random positions.
type Spawner struct {
	bounds Bounds
	rng    *rand.Rand
}

// NewSpawner creates a spawner for the given arena bounds.
func NewSpawner(bounds Bounds, seed int64) *Spawner {
	return &Spawner{bounds: bounds, rng: rand.New(rand.NewSource(seed))}
}

// RandomGround returns a random position at the given height.
func (s *Spawner) RandomGround(y float64) protocol.Vec3 {
	return protocol.Vec3{
		X: s.rng.Float64()*s.bounds.X - s.bounds.X/2,
		Y: y,
		Z: s.rng.Float64()*s.bounds.Z - s.bounds.Z/2,
	}
}

// Collectible returns a fresh collectible. Ids are never reused.
func (s *Spawner) Collectible() *Collectible {
	return &Collectible{
		ID:       "collectible_" + uuid.NewString(),
		Position: s.RandomGround(collectibleY),
	}
}

// PowerUp returns a fresh power-up of the given kind.
func (s *Spawner) PowerUp(kind protocol.EffectKind) *PowerUp {
	y := raisedY
	if kind == protocol.EffectSpeed {
		y = speedY
	}
	return &PowerUp{
		ID:       "powerup_" + string(kind) + "_" + uuid.NewString(),
		Kind:     kind,
		Position: s.RandomGround(y),
	}
}

func (c *Collectible) wire() protocol.Entity {
	return protocol.Entity{ID: c.ID, Position: c.Position}
}

func (p *PowerUp) wire() protocol.Entity {
	return protocol.Entity{ID: p.ID, Kind: string(p.Kind), Position: p.Position}
}
