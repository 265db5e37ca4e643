package mesh

import (
	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
)

// AvoidanceReach is the multiple of a zone radius within which agents are pushed away.
const AvoidanceReach = 1.5

// InZone reports whether p lies strictly inside any zone.
func InZone(p geom.Vec, zones []swarm.JammingZone) bool {
	for _, z := range zones {
		if geom.Distance(p, z.Center) < z.Radius {
			return true
		}
	}
	return false
}

// Avoidance sums the repulsion of every zone whose reach covers p. Each
// contribution points away from the zone center and fades linearly to zero at
// the edge of the reach.
func Avoidance(p geom.Vec, zones []swarm.JammingZone, strength float64) geom.Vec {
	var out geom.Vec
	for _, z := range zones {
		away := p.Sub(z.Center)
		dist := away.Len()
		reach := z.Radius * AvoidanceReach
		if dist >= reach || dist <= 0 {
			continue
		}
		k := strength * (1 - dist/reach) * (z.Intensity / 100)
		out = out.Add(away.Scale(k / dist))
	}
	return out
}
