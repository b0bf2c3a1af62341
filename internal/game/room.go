package game

import (
	"log"
	"sync"
	"time"

	"arena-server/internal/protocol"
)

const (
	SwatWinScore    = 3  // pursuer swats ending a collection round
	CollectWinScore = 10 // evader collections ending a collection round
	HitDamage       = 20 // combat-mode damage per accepted hit-claim

	EffectDuration = 5 * time.Second
	RespawnDelay   = 10 * time.Second

	sweepInterval        = time.Second
	respawnCheckInterval = 250 * time.Millisecond
)

// Broadcaster delivers events to one connection. Implementations must
// not block; slow clients drop messages instead.
type Broadcaster interface {
	SendJSON(msg interface{})
}

// RoomConfig configures a Room. Zero-value fields fall back to the
// production defaults.
type RoomConfig struct {
	Bounds         Bounds
	EffectDuration time.Duration
	RespawnDelay   time.Duration
	Validator      ClaimValidator
	Scores         ScoreRecorder
	Stats          Stats
	Seed           int64
}

// Room is the single authoritative game state: players keyed by
// connection id, the two entity collections, room config, and the round
// machine. All mutation goes through its methods; every handler
// completes its state change and broadcasts before releasing the lock,
// so clients never observe a partial transition.
type Room struct {
	mu sync.Mutex

	players      map[string]*Player
	clients      map[string]Broadcaster
	collectibles map[string]*Collectible
	powerups     map[string]*PowerUp

	difficulty protocol.Difficulty
	mode       protocol.Mode
	round      Round
	respawns   respawnQueue

	spawner        *Spawner
	validator      ClaimValidator
	scores         ScoreRecorder
	stats          Stats
	effectDuration time.Duration
	respawnDelay   time.Duration

	stop    chan struct{}
	running bool
}

// NewRoom creates an empty room in Lobby.
func NewRoom(cfg RoomConfig) *Room {
	if cfg.Bounds.X == 0 {
		cfg.Bounds = Bounds{X: 400, Z: 400}
	}
	if cfg.EffectDuration == 0 {
		cfg.EffectDuration = EffectDuration
	}
	if cfg.RespawnDelay == 0 {
		cfg.RespawnDelay = RespawnDelay
	}
	if cfg.Validator == nil {
		cfg.Validator = TrustAllClaims{}
	}
	if cfg.Stats == nil {
		cfg.Stats = NopStats{}
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Room{
		players:        make(map[string]*Player),
		clients:        make(map[string]Broadcaster),
		collectibles:   make(map[string]*Collectible),
		powerups:       make(map[string]*PowerUp),
		difficulty:     protocol.DifficultyEasy,
		mode:           protocol.ModeCollection,
		spawner:        NewSpawner(cfg.Bounds, cfg.Seed),
		validator:      cfg.Validator,
		scores:         cfg.Scores,
		stats:          cfg.Stats,
		effectDuration: cfg.EffectDuration,
		respawnDelay:   cfg.RespawnDelay,
		stop:           make(chan struct{}),
	}
}

// Run drives the effect sweep and the respawn scheduler until Stop.
func (r *Room) Run() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	fire := time.NewTicker(respawnCheckInterval)
	defer fire.Stop()

	for {
		select {
		case <-sweep.C:
			r.mu.Lock()
			r.sweepEffects(time.Now())
			r.mu.Unlock()
		case <-fire.C:
			r.mu.Lock()
			r.fireDueRespawns(time.Now())
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

// Stop terminates the background loop.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.running = false
		close(r.stop)
	}
}

// ---- session & role registry ----

// Connect creates a player record and assigns a role by arrival order:
// first connection gets evader and triggers a full room reset, second
// gets pursuer, everyone after that spectates. Roles never collide and
// are immutable for the life of the connection.
func (r *Room) Connect(id string, userID int64, displayName string, b Broadcaster) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := protocol.RoleSpectator
	switch len(r.players) {
	case 0:
		role = protocol.RoleEvader
	case 1:
		// Only promote to pursuer when the seat opposite is the evader;
		// if the evader left earlier the newcomer spectates.
		for _, p := range r.players {
			if p.Role == protocol.RoleEvader {
				role = protocol.RolePursuer
			}
		}
	}

	if role == protocol.RoleEvader {
		r.difficulty = protocol.DifficultyEasy
		r.mode = protocol.ModeCollection
		r.round.Reset()
		r.resetRoom()
	}

	player := NewPlayer(id, role)
	player.UserID = userID
	player.DisplayName = displayName
	r.players[id] = player
	r.clients[id] = b
	r.stats.PlayerCount(len(r.players))

	r.unicast(id, protocol.Envelope{T: protocol.EvRoleAssigned, Data: protocol.RoleAssigned{
		ID:    player.ID,
		Role:  player.Role,
		Score: player.Score,
	}})
	r.unicast(id, protocol.Envelope{T: protocol.EvPlayersSnapshot, Data: r.playersSnapshot()})
	r.unicast(id, protocol.Envelope{T: protocol.EvDifficultyChanged, Data: string(r.difficulty)})
	r.unicast(id, protocol.Envelope{T: protocol.EvModeChanged, Data: string(r.mode)})
	r.unicast(id, protocol.Envelope{T: protocol.EvRoundState, Data: r.round.Phase.String()})
	r.unicast(id, protocol.Envelope{T: protocol.EvCollectiblesSnapshot, Data: r.collectiblesSnapshot()})
	r.unicast(id, protocol.Envelope{T: protocol.EvPowerUpsSnapshot, Data: r.powerupsSnapshot()})

	r.broadcastExcept(id, protocol.Envelope{T: protocol.EvPlayerJoined, Data: player.Info()})
	return player
}

// Disconnect removes the player immediately and unconditionally. When
// the room empties it resets to Lobby with cleared collections; the
// next first connection re-seeds.
func (r *Room) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	delete(r.clients, id)
	r.stats.PlayerCount(len(r.players))

	if len(r.players) == 0 {
		r.round.Reset()
		r.collectibles = make(map[string]*Collectible)
		r.powerups = make(map[string]*PowerUp)
		r.respawns = nil
		r.stats.RespawnQueueDepth(0)
	}

	r.broadcastAll(protocol.Envelope{T: protocol.EvPlayerLeft, Data: id})
}

// PlayerCount returns the number of connected players.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// PlayersSnapshot returns the wire roster, used for the binary snapshot.
func (r *Room) PlayersSnapshot() map[string]protocol.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersSnapshot()
}

// ---- room config & round start ----

// HandleSetDifficulty stores and broadcasts the difficulty. Evader only.
func (r *Room) HandleSetDifficulty(id, difficulty string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok || p.Role != protocol.RoleEvader {
		return
	}
	switch protocol.Difficulty(difficulty) {
	case protocol.DifficultyEasy, protocol.DifficultyMedium, protocol.DifficultyHard:
	default:
		return
	}
	r.difficulty = protocol.Difficulty(difficulty)
	r.broadcastAll(protocol.Envelope{T: protocol.EvDifficultyChanged, Data: difficulty})
}

// HandleSetMode is the only Lobby->Active transition. Evader only; a
// round already in progress ignores it. Starting a round re-seeds the
// mode-appropriate entities and zeroes per-round player state.
func (r *Room) HandleSetMode(id, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok || p.Role != protocol.RoleEvader {
		return
	}
	switch protocol.Mode(mode) {
	case protocol.ModeCollection, protocol.ModeCombat:
	default:
		return
	}
	if !r.round.Start() {
		return
	}
	r.mode = protocol.Mode(mode)
	r.resetRoom()

	r.broadcastAll(protocol.Envelope{T: protocol.EvModeChanged, Data: mode})
	r.broadcastAll(protocol.Envelope{T: protocol.EvRoundState, Data: r.round.Phase.String()})
	r.broadcastAll(protocol.Envelope{T: protocol.EvCollectiblesSnapshot, Data: r.collectiblesSnapshot()})
	r.broadcastAll(protocol.Envelope{T: protocol.EvPowerUpsSnapshot, Data: r.powerupsSnapshot()})
	r.broadcastAll(protocol.Envelope{T: protocol.EvPlayersSnapshot, Data: r.playersSnapshot()})
}

// resetRoom clears both collections, re-seeds them for the current
// mode, and zeroes every player's score, hp and effects. Callers hold
// the lock.
func (r *Room) resetRoom() {
	r.collectibles = make(map[string]*Collectible)
	r.powerups = make(map[string]*PowerUp)
	r.respawns = nil
	r.stats.RespawnQueueDepth(0)

	if r.mode == protocol.ModeCollection {
		for i := 0; i < MaxCollectibles; i++ {
			c := r.spawner.Collectible()
			r.collectibles[c.ID] = c
		}
		for i := 0; i < MaxPerKind; i++ {
			for _, kind := range []protocol.EffectKind{protocol.EffectSpeed, protocol.EffectShield} {
				pu := r.spawner.PowerUp(kind)
				r.powerups[pu.ID] = pu
			}
		}
	} else {
		for i := 0; i < MaxPerKind; i++ {
			pu := r.spawner.PowerUp(protocol.EffectAmmo)
			r.powerups[pu.ID] = pu
		}
	}

	for _, p := range r.players {
		p.ResetForRound()
	}
}

// ---- gameplay events ----

// HandleMove accepts the client's self-reported transform and relays it
// to everyone else. Accepted only while a round is active.
func (r *Room) HandleMove(id string, mv protocol.MoveIntent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok || r.round.Phase != PhaseActive {
		return
	}
	p.Position = mv.Position
	p.Orientation = mv.Orientation
	r.broadcastExcept(id, protocol.Envelope{T: protocol.EvPlayerMoved, Data: protocol.PlayerMoved{
		ID:          id,
		Position:    p.Position,
		Orientation: p.Orientation,
	}})
}

// HandleSwat relays a pursuer melee telegraph to peers for animation.
// The actual swat resolution arrives as a hit-claim.
func (r *Room) HandleSwat(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok || p.Role != protocol.RolePursuer || r.round.Phase != PhaseActive {
		return
	}
	r.broadcastExcept(id, protocol.Envelope{T: protocol.EvSwatTelegraphed, Data: id})
}

// HandleFire relays a projectile spawn verbatim to all peers. The
// server stores no projectile state and validates no trajectory.
func (r *Room) HandleFire(id string, fi protocol.FireIntent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok || r.round.Phase != PhaseActive {
		return
	}
	r.broadcastExcept(id, protocol.Envelope{T: protocol.EvProjectileSpawned, Data: protocol.ProjectileSpawned{
		ShooterID: id,
		Position:  fi.Position,
		Velocity:  fi.Velocity,
	}})
}

// HandleHit resolves a collision claim against a target player. In
// collection mode it is the pursuer's swat against the evader; in
// combat mode it is projectile damage from any player. The claim's
// geometry is trusted (see ClaimValidator).
func (r *Room) HandleHit(id, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round.Phase != PhaseActive {
		return
	}
	claimant, ok := r.players[id]
	if !ok {
		return
	}
	target, ok := r.players[targetID]
	if !ok {
		r.stats.ClaimIgnored("hit")
		return
	}

	switch r.mode {
	case protocol.ModeCollection:
		r.resolveSwat(claimant, target)
	case protocol.ModeCombat:
		r.resolveProjectileHit(claimant, target)
	}
}

func (r *Room) resolveSwat(claimant, target *Player) {
	if claimant.Role != protocol.RolePursuer || target.Role != protocol.RoleEvader {
		r.stats.ClaimIgnored("swat")
		return
	}
	if target.HasEffect(protocol.EffectShield, time.Now()) {
		r.stats.ClaimIgnored("swat")
		return
	}
	if !r.validator.ValidateHit(claimant, target) {
		r.stats.ClaimIgnored("swat")
		return
	}
	r.stats.ClaimAccepted("swat")

	claimant.Score++
	r.broadcastAll(protocol.Envelope{T: protocol.EvScoreChanged, Data: protocol.ScoreChanged{
		ID:    claimant.ID,
		Score: claimant.Score,
	}})

	if claimant.Score >= SwatWinScore {
		r.endRound(claimant.Role)
		return
	}

	target.Position = r.spawner.RandomGround(target.SpawnHeight())
	target.HP = PlayerMaxHP
	r.broadcastAll(protocol.Envelope{T: protocol.EvPlayerRespawned, Data: protocol.PlayerRespawned{
		ID:       target.ID,
		Position: target.Position,
		HP:       target.HP,
	}})
}

func (r *Room) resolveProjectileHit(claimant, target *Player) {
	if target.HasEffect(protocol.EffectShield, time.Now()) {
		r.stats.ClaimIgnored("hit")
		return
	}
	if !r.validator.ValidateHit(claimant, target) {
		r.stats.ClaimIgnored("hit")
		return
	}
	r.stats.ClaimAccepted("hit")

	target.HP -= HitDamage
	if target.HP > 0 {
		r.broadcastAll(protocol.Envelope{T: protocol.EvHealthChanged, Data: protocol.HealthChanged{
			ID: target.ID,
			HP: target.HP,
		}})
		return
	}

	claimant.Score++
	r.broadcastAll(protocol.Envelope{T: protocol.EvScoreChanged, Data: protocol.ScoreChanged{
		ID:    claimant.ID,
		Score: claimant.Score,
	}})
	r.endRound(claimant.Role)

	// Cosmetic respawn; the round is already over.
	target.HP = PlayerMaxHP
	target.Position = r.spawner.RandomGround(target.SpawnHeight())
	r.broadcastAll(protocol.Envelope{T: protocol.EvPlayerRespawned, Data: protocol.PlayerRespawned{
		ID:       target.ID,
		Position: target.Position,
		HP:       target.HP,
	}})
}

// HandleCollect resolves a pickup claim against a collectible or a
// power-up. Collectibles count toward the evader's win; power-ups grant
// a timed effect and schedule a single delayed respawn of their kind.
func (r *Room) HandleCollect(id, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round.Phase != PhaseActive {
		return
	}
	claimant, ok := r.players[id]
	if !ok {
		return
	}

	if c, ok := r.collectibles[entityID]; ok {
		r.resolveCollectible(claimant, c)
		return
	}
	if pu, ok := r.powerups[entityID]; ok {
		r.resolvePowerUp(claimant, pu)
		return
	}
	r.stats.ClaimIgnored("collect")
}

func (r *Room) resolveCollectible(claimant *Player, c *Collectible) {
	if r.mode != protocol.ModeCollection || claimant.Role != protocol.RoleEvader {
		r.stats.ClaimIgnored("collect")
		return
	}
	if !r.validator.ValidateCollect(claimant, c.ID) {
		r.stats.ClaimIgnored("collect")
		return
	}
	r.stats.ClaimAccepted("collect")

	delete(r.collectibles, c.ID)
	claimant.Score++
	r.broadcastAll(protocol.Envelope{T: protocol.EvEntityRemoved, Data: c.ID})
	r.broadcastAll(protocol.Envelope{T: protocol.EvScoreChanged, Data: protocol.ScoreChanged{
		ID:    claimant.ID,
		Score: claimant.Score,
	}})

	if claimant.Score >= CollectWinScore {
		r.endRound(claimant.Role)
	}
}

func (r *Room) resolvePowerUp(claimant *Player, pu *PowerUp) {
	// Shield is the evader's defensive pickup; others may not bank it.
	if pu.Kind == protocol.EffectShield && claimant.Role != protocol.RoleEvader {
		r.stats.ClaimIgnored("pickup")
		return
	}
	if !r.validator.ValidateCollect(claimant, pu.ID) {
		r.stats.ClaimIgnored("pickup")
		return
	}
	r.stats.ClaimAccepted("pickup")

	delete(r.powerups, pu.ID)
	r.broadcastAll(protocol.Envelope{T: protocol.EvEntityRemoved, Data: pu.ID})

	now := time.Now()
	claimant.Effects[pu.Kind] = now.Add(r.effectDuration)
	r.stats.EffectActivated(string(pu.Kind))
	r.unicast(claimant.ID, protocol.Envelope{T: protocol.EvEffectActivated, Data: protocol.EffectActivated{
		Kind:     pu.Kind,
		Duration: r.effectDuration.Milliseconds(),
	}})
	if pu.Kind == protocol.EffectShield {
		r.broadcastAll(protocol.Envelope{T: protocol.EvVisualEffect, Data: protocol.VisualEffect{
			PlayerID: claimant.ID,
			Kind:     protocol.EffectShield,
			Active:   true,
		}})
	}

	r.respawns.schedule(now.Add(r.respawnDelay), r.round.Generation, pu.Kind)
	r.stats.RespawnQueueDepth(r.respawns.Len())
}

// ---- timers ----

// sweepEffects removes every expired effect, notifying the owner and,
// for shield, the whole room. Callers hold the lock.
func (r *Room) sweepEffects(now time.Time) {
	for _, p := range r.players {
		for kind, exp := range p.Effects {
			if now.Before(exp) {
				continue
			}
			delete(p.Effects, kind)
			r.unicast(p.ID, protocol.Envelope{T: protocol.EvEffectDeactivated, Data: protocol.EffectDeactivated{Kind: kind}})
			if kind == protocol.EffectShield {
				r.broadcastAll(protocol.Envelope{T: protocol.EvVisualEffect, Data: protocol.VisualEffect{
					PlayerID: p.ID,
					Kind:     protocol.EffectShield,
					Active:   false,
				}})
			}
		}
	}
}

// fireDueRespawns pops due scheduler entries. An entry from a stale
// round generation is a no-op; a live one re-spawns its kind unless the
// capacity ceiling is already met. Callers hold the lock.
func (r *Room) fireDueRespawns(now time.Time) {
	for _, entry := range r.respawns.due(now) {
		if entry.gen != r.round.Generation || r.round.Phase != PhaseActive {
			continue
		}
		if r.countKind(entry.kind) >= MaxPerKind {
			continue
		}
		pu := r.spawner.PowerUp(entry.kind)
		r.powerups[pu.ID] = pu
		r.broadcastAll(protocol.Envelope{T: protocol.EvEntitySpawned, Data: pu.wire()})
	}
	r.stats.RespawnQueueDepth(r.respawns.Len())
}

func (r *Room) countKind(kind protocol.EffectKind) int {
	n := 0
	for _, pu := range r.powerups {
		if pu.Kind == kind {
			n++
		}
	}
	return n
}

// ---- round end ----

// endRound broadcasts the terminal event exactly once and persists
// scores best-effort off the lock. Callers hold the lock.
func (r *Room) endRound(winner protocol.Role) {
	if !r.round.End() {
		return
	}
	r.stats.RoundCompleted(string(winner))
	r.broadcastAll(protocol.Envelope{T: protocol.EvRoundOver, Data: protocol.RoundOver{WinnerRole: winner}})

	if r.scores == nil {
		return
	}
	type record struct {
		userID      int64
		displayName string
		role        string
		score       int
	}
	var records []record
	for _, p := range r.players {
		if p.UserID != 0 && p.Score > 0 {
			records = append(records, record{p.UserID, p.DisplayName, string(p.Role), p.Score})
		}
	}
	if len(records) == 0 {
		return
	}
	scores := r.scores
	go func() {
		for _, rec := range records {
			if err := scores.RecordScore(rec.userID, rec.displayName, rec.role, rec.score); err != nil {
				log.Printf("record score for %s: %v", rec.displayName, err)
			}
		}
	}()
}

// ---- broadcast plumbing ----

func (r *Room) unicast(id string, env protocol.Envelope) {
	if c, ok := r.clients[id]; ok {
		c.SendJSON(env)
	}
}

func (r *Room) broadcastAll(env protocol.Envelope) {
	for _, c := range r.clients {
		c.SendJSON(env)
	}
}

func (r *Room) broadcastExcept(id string, env protocol.Envelope) {
	for cid, c := range r.clients {
		if cid == id {
			continue
		}
		c.SendJSON(env)
	}
}

func (r *Room) playersSnapshot() map[string]protocol.PlayerInfo {
	snap := make(map[string]protocol.PlayerInfo, len(r.players))
	for id, p := range r.players {
		snap[id] = p.Info()
	}
	return snap
}

func (r *Room) collectiblesSnapshot() map[string]protocol.Entity {
	snap := make(map[string]protocol.Entity, len(r.collectibles))
	for id, c := range r.collectibles {
		snap[id] = c.wire()
	}
	return snap
}

func (r *Room) powerupsSnapshot() map[string]protocol.Entity {
	snap := make(map[string]protocol.Entity, len(r.powerups))
	for id, pu := range r.powerups {
		snap[id] = pu.wire()
	}
	return snap
}
