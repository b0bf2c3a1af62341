package server

import (
	"github.com/vmihailenco/msgpack/v5"

	"arena-server/internal/protocol"
)

// binarySnapshot is the msgpack form of the roster, offered to clients
// that opt into binary frames on upgrade.
type binarySnapshot struct {
	T       string                         `msgpack:"t"`
	Players map[string]protocol.PlayerInfo `msgpack:"players"`
}

// BinarySnapshot marshals the current roster with msgpack.
func (h *Hub) BinarySnapshot() ([]byte, error) {
	return msgpack.Marshal(binarySnapshot{
		T:       protocol.EvPlayersSnapshot,
		Players: h.room.PlayersSnapshot(),
	})
}
