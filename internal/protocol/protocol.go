package protocol

import "encoding/json"

// Client -> Server event types
const (
	EvMoveIntent    = "move-intent"
	EvSetDifficulty = "set-difficulty"
	EvSetMode       = "set-mode"
	EvSwatIntent    = "swat-intent"
	EvFireIntent    = "fire-intent"
	EvHitClaim      = "hit-claim"
	EvCollectClaim  = "collect-claim"
)

// Server -> Client event types
const (
	EvRoleAssigned         = "role-assigned"
	EvPlayersSnapshot      = "players-snapshot"
	EvCollectiblesSnapshot = "collectibles-snapshot"
	EvPowerUpsSnapshot     = "powerups-snapshot"
	EvPlayerJoined         = "player-joined"
	EvPlayerLeft           = "player-left"
	EvPlayerMoved          = "player-moved"
	EvDifficultyChanged    = "difficulty-changed"
	EvModeChanged          = "mode-changed"
	EvRoundState           = "round-state"
	EvSwatTelegraphed      = "swat-telegraphed"
	EvProjectileSpawned    = "projectile-spawned"
	EvScoreChanged         = "score-changed"
	EvHealthChanged        = "health-changed"
	EvEntitySpawned        = "entity-spawned"
	EvEntityRemoved        = "entity-removed"
	EvEffectActivated      = "effect-activated"
	EvEffectDeactivated    = "effect-deactivated"
	EvVisualEffect         = "visual-effect"
	EvPlayerRespawned      = "player-respawned"
	EvRoundOver            = "round-over"
)

// Role of a connection within the room.
type Role string

const (
	RoleEvader    Role = "evader"
	RolePursuer   Role = "pursuer"
	RoleSpectator Role = "spectator"
)

// Mode selects the active rule set.
type Mode string

const (
	ModeCollection Mode = "collection"
	ModeCombat     Mode = "combat"
)

// Difficulty is room config relayed to clients; the server does not
// interpret it beyond broadcasting.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// EffectKind identifies a timed power-up effect.
type EffectKind string

const (
	EffectSpeed  EffectKind = "speed"
	EffectShield EffectKind = "shield"
	EffectAmmo   EffectKind = "ammo"
)

// Envelope wraps all outgoing events with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming events — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Vec3 is a position or velocity in arena space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a unit quaternion orientation
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the identity orientation.
func Identity() Quat { return Quat{W: 1} }

// PlayerInfo is the wire form of a player record. Effects maps effect
// kind to absolute expiry in unix milliseconds.
type PlayerInfo struct {
	ID          string           `json:"id"`
	Role        Role             `json:"role"`
	Position    Vec3             `json:"position"`
	Orientation Quat             `json:"orientation"`
	Score       int              `json:"score"`
	HP          int              `json:"hp"`
	Effects     map[string]int64 `json:"effects,omitempty"`
}

// Entity is a collectible or power-up. Kind is empty for collectibles.
type Entity struct {
	ID       string `json:"id"`
	Kind     string `json:"kind,omitempty"`
	Position Vec3   `json:"position"`
}

// RoleAssigned is the first unicast after connect
type RoleAssigned struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Score int    `json:"score"`
}

// MoveIntent is the client's self-reported transform
type MoveIntent struct {
	Position    Vec3 `json:"position"`
	Orientation Quat `json:"orientation"`
}

// PlayerMoved relays a transform to peers (sender excluded)
type PlayerMoved struct {
	ID          string `json:"id"`
	Position    Vec3   `json:"position"`
	Orientation Quat   `json:"orientation"`
}

// FireIntent asks peers to spawn a projectile; the server only relays it
type FireIntent struct {
	Position Vec3 `json:"position"`
	Velocity Vec3 `json:"velocity"`
}

// ProjectileSpawned is the fire relay sent to everyone but the shooter
type ProjectileSpawned struct {
	ShooterID string `json:"shooterId"`
	Position  Vec3   `json:"position"`
	Velocity  Vec3   `json:"velocity"`
}

// ScoreChanged is the authoritative score update
type ScoreChanged struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// HealthChanged is the authoritative hp update
type HealthChanged struct {
	ID string `json:"id"`
	HP int    `json:"hp"`
}

// EffectActivated is unicast to the consuming player
type EffectActivated struct {
	Kind     EffectKind `json:"kind"`
	Duration int64      `json:"duration"` // milliseconds
}

// EffectDeactivated is unicast when the sweep removes an effect
type EffectDeactivated struct {
	Kind EffectKind `json:"kind"`
}

// VisualEffect is the room-wide externally visible effect state (shield)
type VisualEffect struct {
	PlayerID string     `json:"playerId"`
	Kind     EffectKind `json:"kind"`
	Active   bool       `json:"active"`
}

// PlayerRespawned relocates a player after claim resolution
type PlayerRespawned struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	HP       int    `json:"hp"`
}

// RoundOver is the terminal broadcast, sent exactly once per round
type RoundOver struct {
	WinnerRole Role `json:"winnerRole"`
}
