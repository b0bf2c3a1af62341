package game

import (
	"container/heap"
	"time"

	"arena-server/internal/protocol"
)

// respawn is a pending power-up respawn. It carries the generation of
// the round that scheduled it; if the round has moved on by fire time
// the entry is discarded without side effects.
type respawn struct {
	at   time.Time
	gen  uint64
	kind protocol.EffectKind
}

// respawnQueue is a min-heap ordered by fire time.
type respawnQueue []respawn

func (q respawnQueue) Len() int            { return len(q) }
func (q respawnQueue) Less(i, j int) bool  { return q[i].at.Before(q[j].at) }
func (q respawnQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *respawnQueue) Push(x interface{}) { *q = append(*q, x.(respawn)) }

func (q *respawnQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// schedule pushes a respawn entry.
func (q *respawnQueue) schedule(at time.Time, gen uint64, kind protocol.EffectKind) {
	heap.Push(q, respawn{at: at, gen: gen, kind: kind})
}

// due pops every entry whose fire time has passed. Stale-generation
// filtering is the caller's job; this only orders by time.
func (q *respawnQueue) due(now time.Time) []respawn {
	var fired []respawn
	for q.Len() > 0 && !(*q)[0].at.After(now) {
		fired = append(fired, heap.Pop(q).(respawn))
	}
	return fired
}
