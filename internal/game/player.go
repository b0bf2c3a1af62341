package game

import (
	"time"

	"arena-server/internal/protocol"
)

const (
	PlayerMaxHP = 100

	// Respawn heights differ per role; the evader hovers.
	evaderSpawnY  = 2.0
	pursuerSpawnY = 1.0
)

// Player is the server-owned record for one connection. Position and
// orientation are whatever the client last reported; everything else is
// authoritative here.
type Player struct {
	ID          string
	Role        protocol.Role
	Position    protocol.Vec3
	Orientation protocol.Quat
	Score       int
	HP          int
	Effects     map[protocol.EffectKind]time.Time

	// Identity, if the connection presented a valid token. Zero for guests.
	UserID      int64
	DisplayName string
}

// NewPlayer creates a player at the fixed entry position for its role.
func NewPlayer(id string, role protocol.Role) *Player {
	pos := protocol.Vec3{X: 5, Y: pursuerSpawnY}
	if role == protocol.RoleEvader {
		pos = protocol.Vec3{X: 0, Y: evaderSpawnY}
	}
	return &Player{
		ID:          id,
		Role:        role,
		Position:    pos,
		Orientation: protocol.Identity(),
		HP:          PlayerMaxHP,
		Effects:     make(map[protocol.EffectKind]time.Time),
	}
}

// SpawnHeight returns the respawn Y for the player's role.
func (p *Player) SpawnHeight() float64 {
	if p.Role == protocol.RoleEvader {
		return evaderSpawnY
	}
	return pursuerSpawnY
}

// HasEffect reports whether the effect is active at the given time.
func (p *Player) HasEffect(kind protocol.EffectKind, now time.Time) bool {
	exp, ok := p.Effects[kind]
	return ok && now.Before(exp)
}

// ResetForRound zeroes the per-round state.
func (p *Player) ResetForRound() {
	p.Score = 0
	p.HP = PlayerMaxHP
	p.Effects = make(map[protocol.EffectKind]time.Time)
}

// Info converts to the wire form.
func (p *Player) Info() protocol.PlayerInfo {
	info := protocol.PlayerInfo{
		ID:          p.ID,
		Role:        p.Role,
		Position:    p.Position,
		Orientation: p.Orientation,
		Score:       p.Score,
		HP:          p.HP,
	}
	if len(p.Effects) > 0 {
		info.Effects = make(map[string]int64, len(p.Effects))
		for kind, exp := range p.Effects {
			info.Effects[string(kind)] = exp.UnixMilli()
		}
	}
	return info
}
