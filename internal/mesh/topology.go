// Simulated peer-to-peer mesh between agents
package mesh

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/swarm"
)

const (
	// Range is the maximum link distance.
	Range = 200.0
	// JammingReduction is the fraction of signal lost crossing a full-intensity zone.
	JammingReduction = 0.7
	// JammedLatencyFactor multiplies latency on jammed links.
	JammedLatencyFactor = 3.0

	pointTolerance = 0.01
)

// node indexes one live agent in the spatial tree.
type node struct {
	idx int
	pos geom.Vec
}

func (n node) Bounds() rtreego.Rect {
	return rtreego.Point{n.pos.X, n.pos.Y}.ToRect(pointTolerance)
}

// Link computes the mesh link between positions a and b. ok is false when the
// pair is out of range.
func Link(a, b geom.Vec, zones []swarm.JammingZone) (link swarm.NeighborLink, ok bool) {
	dist := geom.Distance(a, b)
	if dist > Range {
		return swarm.NeighborLink{}, false
	}
	strength := 100 * (1 - dist/Range)
	jammed := false
	for _, z := range zones {
		if geom.SegmentIntersectsCircle(a, b, z.Center, z.Radius) {
			strength *= 1 - JammingReduction*(z.Intensity/100)
			jammed = true
		}
	}
	if strength < 0 {
		strength = 0
	}
	latency := 10 + dist/10
	if jammed {
		latency *= JammedLatencyFactor
	}
	return swarm.NeighborLink{
		Distance:       dist,
		SignalStrength: strength,
		Latency:        latency,
		Jammed:         jammed,
	}, true
}

// Build returns the neighbor list of every live agent, keyed by agent id and
// sorted ascending by distance. Each unordered pair is evaluated once and the
// same link values are recorded on both ends. Destroyed agents get no entry.
func Build(agents []swarm.Agent, zones []swarm.JammingZone) map[string][]swarm.NeighborLink {
	out := make(map[string][]swarm.NeighborLink, len(agents))
	spatials := make([]rtreego.Spatial, 0, len(agents))
	for i, a := range agents {
		if !a.Alive() {
			continue
		}
		out[a.ID] = []swarm.NeighborLink{}
		spatials = append(spatials, node{idx: i, pos: a.Position})
	}
	if len(spatials) < 2 {
		return out
	}

	tree := rtreego.NewTree(2, 4, 16, spatials...)
	for _, s := range spatials {
		n := s.(node)
		a := agents[n.idx]
		bb, err := rtreego.NewRect(rtreego.Point{a.Position.X - Range, a.Position.Y - Range}, []float64{2 * Range, 2 * Range})
		if err != nil {
			continue
		}
		for _, hit := range tree.SearchIntersect(bb) {
			m := hit.(node)
			if m.idx <= n.idx {
				continue
			}
			b := agents[m.idx]
			link, ok := Link(a.Position, b.Position, zones)
			if !ok {
				continue
			}
			ab := link
			ab.PeerID = b.ID
			ba := link
			ba.PeerID = a.ID
			out[a.ID] = append(out[a.ID], ab)
			out[b.ID] = append(out[b.ID], ba)
		}
	}

	for id, links := range out {
		sort.SliceStable(links, func(i, j int) bool {
			if links[i].Distance != links[j].Distance {
				return links[i].Distance < links[j].Distance
			}
			return links[i].PeerID < links[j].PeerID
		})
		out[id] = links
	}
	return out
}
