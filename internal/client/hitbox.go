package client

import "arena-server/internal/protocol"

// AABB is an axis-aligned bounding box in arena space.
type AABB struct {
	Min protocol.Vec3
	Max protocol.Vec3
}

// FromCenterSize builds a box around center with the given extents.
func FromCenterSize(center protocol.Vec3, size protocol.Vec3) AABB {
	return AABB{
		Min: protocol.Vec3{X: center.X - size.X/2, Y: center.Y - size.Y/2, Z: center.Z - size.Z/2},
		Max: protocol.Vec3{X: center.X + size.X/2, Y: center.Y + size.Y/2, Z: center.Z + size.Z/2},
	}
}

// Intersects reports overlap on all three axes. Touching boxes count.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Contains reports whether a point lies inside the box.
func (a AABB) Contains(p protocol.Vec3) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

// Hitbox sizes, matched to the rendered models.
var (
	playerHitboxSize      = protocol.Vec3{X: 2, Y: 2, Z: 2}
	collectibleHitboxSize = protocol.Vec3{X: 1.5, Y: 1.5, Z: 1.5}
	powerUpHitboxSize     = protocol.Vec3{X: 1.5, Y: 1.5, Z: 1.5}
)

// PlayerBox recomputes a player's hitbox from the current transform.
func PlayerBox(pos protocol.Vec3) AABB {
	return FromCenterSize(pos, playerHitboxSize)
}

// ClaimDetector finds claim-worthy overlaps each frame. Detection is
// client-side; the server decides whether each claim counts.
type ClaimDetector struct {
	mirror *Mirror
}

// NewClaimDetector wraps a mirror.
func NewClaimDetector(m *Mirror) *ClaimDetector {
	return &ClaimDetector{mirror: m}
}

// Pickups returns the ids of collectibles and power-ups the local box
// currently overlaps, the payloads for collect-claim events.
func (d *ClaimDetector) Pickups(selfPos protocol.Vec3) []string {
	d.mirror.mu.Lock()
	defer d.mirror.mu.Unlock()

	self := PlayerBox(selfPos)
	var ids []string
	for id, e := range d.mirror.Collectibles {
		if self.Intersects(FromCenterSize(e.Position, collectibleHitboxSize)) {
			ids = append(ids, id)
		}
	}
	for id, e := range d.mirror.PowerUps {
		if self.Intersects(FromCenterSize(e.Position, powerUpHitboxSize)) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SwatTarget returns the evader's id when the local pursuer box reaches
// it, the payload for a hit-claim. Empty when nothing is in range.
func (d *ClaimDetector) SwatTarget(selfPos protocol.Vec3) string {
	d.mirror.mu.Lock()
	defer d.mirror.mu.Unlock()

	self := PlayerBox(selfPos)
	for id, p := range d.mirror.Players {
		if id == d.mirror.SelfID || p.Role != protocol.RoleEvader {
			continue
		}
		if self.Intersects(PlayerBox(p.Position)) {
			return id
		}
	}
	return ""
}

// ProjectileHits returns peers struck by the local player's projectiles
// this frame and removes the spent projectiles from the mirror.
func (d *ClaimDetector) ProjectileHits() []string {
	d.mirror.mu.Lock()
	defer d.mirror.mu.Unlock()

	var hits []string
	live := d.mirror.Projectiles[:0]
	for _, pr := range d.mirror.Projectiles {
		if pr.ShooterID != d.mirror.SelfID {
			live = append(live, pr)
			continue
		}
		struck := ""
		for id, p := range d.mirror.Players {
			if id == pr.ShooterID {
				continue
			}
			if PlayerBox(p.Position).Contains(pr.Position) {
				struck = id
				break
			}
		}
		if struck != "" {
			hits = append(hits, struck)
			continue // projectile consumed
		}
		live = append(live, pr)
	}
	d.mirror.Projectiles = live
	return hits
}
