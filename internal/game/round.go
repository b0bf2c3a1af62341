package game

// Phase is the round lifecycle state.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseGameOver:
		return "gameover"
	default:
		return "lobby"
	}
}

// Round is the explicit Lobby/Active/GameOver machine. Generation is a
// monotonic counter bumped on every transition, so a timer scheduled
// during one round is provably inert once the round changes.
type Round struct {
	Phase      Phase
	Generation uint64
}

// Start moves to Active. Legal from Lobby and GameOver; a round already
// in progress cannot be restarted.
func (r *Round) Start() bool {
	if r.Phase == PhaseActive {
		return false
	}
	r.Phase = PhaseActive
	r.Generation++
	return true
}

// End moves Active to GameOver. Returns false if no round is in
// progress, which guards against a double terminal broadcast.
func (r *Round) End() bool {
	if r.Phase != PhaseActive {
		return false
	}
	r.Phase = PhaseGameOver
	r.Generation++
	return true
}

// Reset returns to Lobby from any phase (room-empty reset).
func (r *Round) Reset() {
	if r.Phase != PhaseLobby {
		r.Generation++
	}
	r.Phase = PhaseLobby
}
