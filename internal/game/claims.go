package game

// ClaimValidator decides whether to accept a client's collision claim.
// The room performs role and state checks itself; the validator is the
// hook for geometric verification. The default accepts everything, which
// is the documented trust model: clients are the source of truth for
// hit and pickup detection.
type ClaimValidator interface {
	// ValidateHit is consulted for hit-claims after role/state checks.
	ValidateHit(claimant, target *Player) bool
	// ValidateCollect is consulted for collect-claims against a live entity.
	ValidateCollect(claimant *Player, entityID string) bool
}

// TrustAllClaims accepts every claim verbatim.
type TrustAllClaims struct{}

func (TrustAllClaims) ValidateHit(claimant, target *Player) bool       { return true }
func (TrustAllClaims) ValidateCollect(p *Player, entityID string) bool { return true }

// ScoreRecorder persists a participant's score at round end. Failures
// are logged by the caller and never surfaced to clients.
type ScoreRecorder interface {
	RecordScore(userID int64, displayName, role string, score int) error
}

// Stats receives room-level counters. The server wires Prometheus in;
// tests run with the no-op.
type Stats interface {
	PlayerCount(n int)
	ClaimAccepted(kind string)
	ClaimIgnored(kind string)
	RoundCompleted(winnerRole string)
	EffectActivated(kind string)
	RespawnQueueDepth(n int)
}

// NopStats discards everything.
type NopStats struct{}

func (NopStats) PlayerCount(int)        {}
func (NopStats) ClaimAccepted(string)   {}
func (NopStats) ClaimIgnored(string)    {}
func (NopStats) RoundCompleted(string)  {}
func (NopStats) EffectActivated(string) {}
func (NopStats) RespawnQueueDepth(int)  {}
