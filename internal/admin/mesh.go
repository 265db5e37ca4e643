package admin

import (
	"fmt"

	"swarmmesh-sim/internal/swarm"
)

// Layer names one toggleable part of the exported mesh view.
type Layer string

const (
	LayerMaster  Layer = "master"
	LayerSlave   Layer = "slave"
	LayerPhone   Layer = "phone"
	LayerJamZone Layer = "jamZone"
)

// Visibility holds the mesh layer filters. It never affects the simulation.
type Visibility struct {
	Master  bool `json:"master"`
	Slave   bool `json:"slave"`
	Phone   bool `json:"phone"`
	JamZone bool `json:"jamZone"`
}

// DefaultVisibility shows every layer.
func DefaultVisibility() Visibility {
	return Visibility{Master: true, Slave: true, Phone: true, JamZone: true}
}

// Toggle flips layer.
func (v *Visibility) Toggle(layer Layer) error {
	switch layer {
	case LayerMaster:
		v.Master = !v.Master
	case LayerSlave:
		v.Slave = !v.Slave
	case LayerPhone:
		v.Phone = !v.Phone
	case LayerJamZone:
		v.JamZone = !v.JamZone
	default:
		return fmt.Errorf("unknown mesh layer %q", layer)
	}
	return nil
}

func (v Visibility) shows(a swarm.Agent) bool {
	switch {
	case a.IsPhone:
		return v.Phone
	case a.Role == swarm.RoleMaster:
		return v.Master
	}
	return v.Slave
}

// Link is one undirected mesh connection in the exported view.
type Link struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Distance       float64 `json:"distance"`
	SignalStrength float64 `json:"signal_strength"`
	Latency        float64 `json:"latency_ms"`
	Jammed         bool    `json:"jammed"`
}

// MeshView is the filtered link graph handed to clients.
type MeshView struct {
	Links []Link              `json:"links"`
	Zones []swarm.JammingZone `json:"zones,omitempty"`
}

// BuildMeshView exports each link once, dropping links that touch a hidden
// agent layer. Jamming zones are included when their layer is visible.
func BuildMeshView(st swarm.State, vis Visibility) MeshView {
	visible := make(map[string]bool, len(st.Agents))
	for _, a := range st.Agents {
		visible[a.ID] = a.Alive() && vis.shows(a)
	}
	view := MeshView{Links: []Link{}}
	seen := make(map[[2]string]bool)
	for _, a := range st.Agents {
		if !visible[a.ID] {
			continue
		}
		for _, n := range a.Neighbors {
			if !visible[n.PeerID] {
				continue
			}
			key := [2]string{a.ID, n.PeerID}
			if n.PeerID < a.ID {
				key = [2]string{n.PeerID, a.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			view.Links = append(view.Links, Link{
				From:           a.ID,
				To:             n.PeerID,
				Distance:       n.Distance,
				SignalStrength: n.SignalStrength,
				Latency:        n.Latency,
				Jammed:         n.Jammed,
			})
		}
	}
	if vis.JamZone {
		view.Zones = append(view.Zones, st.JammingZones...)
	}
	return view
}
