package client

import (
	"encoding/json"
	"sync"
	"time"

	"arena-server/internal/protocol"
)

// RemotePlayer is the mirror's view of one peer.
type RemotePlayer struct {
	ID          string
	Role        protocol.Role
	Position    protocol.Vec3
	Orientation protocol.Quat
	Score       int
	HP          int
	Shielded    bool
}

// Projectile is a peer-fired projectile advanced locally by dead
// reckoning; the server relays spawns but never tracks flight.
type Projectile struct {
	ShooterID string
	Position  protocol.Vec3
	Velocity  protocol.Vec3
	SpawnedAt time.Time
}

// Mirror replicates the authoritative room state from the event stream.
// It never mutates state on its own initiative: every change is the
// application of a server event, so the mirror converges to the server
// regardless of delivery timing.
type Mirror struct {
	mu sync.Mutex

	SelfID string
	Role   protocol.Role

	Players      map[string]*RemotePlayer
	Collectibles map[string]protocol.Entity
	PowerUps     map[string]protocol.Entity

	Mode        protocol.Mode
	Difficulty  protocol.Difficulty
	RoundActive bool
	Winner      protocol.Role

	// Own effect expiries, kind -> local deadline.
	Effects map[protocol.EffectKind]time.Time

	Projectiles []*Projectile
}

// NewMirror returns an empty mirror awaiting the role-assigned event.
func NewMirror() *Mirror {
	return &Mirror{
		Players:      make(map[string]*RemotePlayer),
		Collectibles: make(map[string]protocol.Entity),
		PowerUps:     make(map[string]protocol.Entity),
		Effects:      make(map[protocol.EffectKind]time.Time),
	}
}

// Apply consumes one server frame. Unknown event types are ignored so
// older clients survive protocol additions.
func (m *Mirror) Apply(raw []byte) error {
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch env.T {
	case protocol.EvRoleAssigned:
		var ra protocol.RoleAssigned
		if err := json.Unmarshal(env.D, &ra); err != nil {
			return err
		}
		m.SelfID = ra.ID
		m.Role = ra.Role

	case protocol.EvPlayersSnapshot:
		var snap map[string]protocol.PlayerInfo
		if err := json.Unmarshal(env.D, &snap); err != nil {
			return err
		}
		m.Players = make(map[string]*RemotePlayer, len(snap))
		for id, info := range snap {
			m.Players[id] = fromInfo(info)
		}

	case protocol.EvCollectiblesSnapshot:
		var snap map[string]protocol.Entity
		if err := json.Unmarshal(env.D, &snap); err != nil {
			return err
		}
		m.Collectibles = snap
		if m.Collectibles == nil {
			m.Collectibles = make(map[string]protocol.Entity)
		}

	case protocol.EvPowerUpsSnapshot:
		var snap map[string]protocol.Entity
		if err := json.Unmarshal(env.D, &snap); err != nil {
			return err
		}
		m.PowerUps = snap
		if m.PowerUps == nil {
			m.PowerUps = make(map[string]protocol.Entity)
		}

	case protocol.EvPlayerJoined:
		var info protocol.PlayerInfo
		if err := json.Unmarshal(env.D, &info); err != nil {
			return err
		}
		m.Players[info.ID] = fromInfo(info)

	case protocol.EvPlayerLeft:
		var id string
		if err := json.Unmarshal(env.D, &id); err != nil {
			return err
		}
		delete(m.Players, id)

	case protocol.EvPlayerMoved:
		var mv protocol.PlayerMoved
		if err := json.Unmarshal(env.D, &mv); err != nil {
			return err
		}
		if p, ok := m.Players[mv.ID]; ok {
			p.Position = mv.Position
			p.Orientation = mv.Orientation
		}

	case protocol.EvDifficultyChanged:
		var d string
		if err := json.Unmarshal(env.D, &d); err != nil {
			return err
		}
		m.Difficulty = protocol.Difficulty(d)

	case protocol.EvModeChanged:
		// Config only; the server re-sends the current mode to every
		// new connection, so it never implies a round in progress.
		var mode string
		if err := json.Unmarshal(env.D, &mode); err != nil {
			return err
		}
		m.Mode = protocol.Mode(mode)

	case protocol.EvRoundState:
		var phase string
		if err := json.Unmarshal(env.D, &phase); err != nil {
			return err
		}
		m.RoundActive = phase == "active"
		if m.RoundActive {
			m.Winner = ""
			m.Projectiles = nil
		}

	case protocol.EvProjectileSpawned:
		var ps protocol.ProjectileSpawned
		if err := json.Unmarshal(env.D, &ps); err != nil {
			return err
		}
		m.Projectiles = append(m.Projectiles, &Projectile{
			ShooterID: ps.ShooterID,
			Position:  ps.Position,
			Velocity:  ps.Velocity,
			SpawnedAt: time.Now(),
		})

	case protocol.EvScoreChanged:
		var sc protocol.ScoreChanged
		if err := json.Unmarshal(env.D, &sc); err != nil {
			return err
		}
		if p, ok := m.Players[sc.ID]; ok {
			p.Score = sc.Score
		}

	case protocol.EvHealthChanged:
		var hc protocol.HealthChanged
		if err := json.Unmarshal(env.D, &hc); err != nil {
			return err
		}
		if p, ok := m.Players[hc.ID]; ok {
			p.HP = hc.HP
		}

	case protocol.EvEntitySpawned:
		var e protocol.Entity
		if err := json.Unmarshal(env.D, &e); err != nil {
			return err
		}
		if e.Kind == "" {
			m.Collectibles[e.ID] = e
		} else {
			m.PowerUps[e.ID] = e
		}

	case protocol.EvEntityRemoved:
		var id string
		if err := json.Unmarshal(env.D, &id); err != nil {
			return err
		}
		delete(m.Collectibles, id)
		delete(m.PowerUps, id)

	case protocol.EvEffectActivated:
		var ea protocol.EffectActivated
		if err := json.Unmarshal(env.D, &ea); err != nil {
			return err
		}
		m.Effects[ea.Kind] = time.Now().Add(time.Duration(ea.Duration) * time.Millisecond)

	case protocol.EvEffectDeactivated:
		var ed protocol.EffectDeactivated
		if err := json.Unmarshal(env.D, &ed); err != nil {
			return err
		}
		delete(m.Effects, ed.Kind)

	case protocol.EvVisualEffect:
		var ve protocol.VisualEffect
		if err := json.Unmarshal(env.D, &ve); err != nil {
			return err
		}
		if ve.Kind == protocol.EffectShield {
			if p, ok := m.Players[ve.PlayerID]; ok {
				p.Shielded = ve.Active
			}
		}

	case protocol.EvPlayerRespawned:
		var pr protocol.PlayerRespawned
		if err := json.Unmarshal(env.D, &pr); err != nil {
			return err
		}
		if p, ok := m.Players[pr.ID]; ok {
			p.Position = pr.Position
			p.HP = pr.HP
		}

	case protocol.EvRoundOver:
		var ro protocol.RoundOver
		if err := json.Unmarshal(env.D, &ro); err != nil {
			return err
		}
		m.RoundActive = false
		m.Winner = ro.WinnerRole
	}

	return nil
}

// Self returns the mirror's own player record, nil before the first
// snapshot arrives.
func (m *Mirror) Self() *RemotePlayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Players[m.SelfID]
}

// CurrentDifficulty returns the mirrored room difficulty.
func (m *Mirror) CurrentDifficulty() protocol.Difficulty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Difficulty
}

// HasEffect reports whether an own effect is still running.
func (m *Mirror) HasEffect(kind protocol.EffectKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.Effects[kind]
	return ok && time.Now().Before(exp)
}

// AdvanceProjectiles integrates projectile positions by dt and drops
// flights older than maxAge.
func (m *Mirror) AdvanceProjectiles(dt time.Duration, maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := dt.Seconds()
	live := m.Projectiles[:0]
	now := time.Now()
	for _, pr := range m.Projectiles {
		if now.Sub(pr.SpawnedAt) > maxAge {
			continue
		}
		pr.Position.X += pr.Velocity.X * s
		pr.Position.Y += pr.Velocity.Y * s
		pr.Position.Z += pr.Velocity.Z * s
		live = append(live, pr)
	}
	m.Projectiles = live
}

func fromInfo(info protocol.PlayerInfo) *RemotePlayer {
	p := &RemotePlayer{
		ID:          info.ID,
		Role:        info.Role,
		Position:    info.Position,
		Orientation: info.Orientation,
		Score:       info.Score,
		HP:          info.HP,
	}
	if exp, ok := info.Effects[string(protocol.EffectShield)]; ok {
		p.Shielded = time.Now().UnixMilli() < exp
	}
	return p
}
