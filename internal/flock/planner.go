// Flocking motion planner with goal seeking and jamming avoidance
package flock

import (
	"math"

	"swarmmesh-sim/internal/geom"
	"swarmmesh-sim/internal/mesh"
	"swarmmesh-sim/internal/swarm"
)

const (
	alignmentScale = 0.1
	cohesionScale  = 0.01
)

// Params tunes the flocking rules.
type Params struct {
	SeparationWeight  float64 `yaml:"separation_weight"`
	AlignmentWeight   float64 `yaml:"alignment_weight"`
	CohesionWeight    float64 `yaml:"cohesion_weight"`
	SeparationRadius  float64 `yaml:"separation_radius"`
	AlignmentRadius   float64 `yaml:"alignment_radius"`
	CohesionRadius    float64 `yaml:"cohesion_radius"`
	MaxSpeed          float64 `yaml:"max_speed"`
	MaxForce          float64 `yaml:"max_force"`
	GoalWeight        float64 `yaml:"goal_weight"`
	GoalThreshold     float64 `yaml:"goal_threshold"`
	AvoidanceStrength float64 `yaml:"avoidance_strength"`
}

// DefaultParams returns the stock flocking profile.
func DefaultParams() Params {
	return Params{
		SeparationWeight:  1.5,
		AlignmentWeight:   1.0,
		CohesionWeight:    1.0,
		SeparationRadius:  50,
		AlignmentRadius:   100,
		CohesionRadius:    150,
		MaxSpeed:          3,
		MaxForce:          0.1,
		GoalWeight:        0.5,
		GoalThreshold:     5,
		AvoidanceStrength: 2.0,
	}
}

// Steer returns the new velocity of self. others is the prior-tick roster;
// self and destroyed agents in it are ignored.
func Steer(self swarm.Agent, others []swarm.Agent, goal geom.Vec, zones []swarm.JammingZone, p Params) geom.Vec {
	var sep, align, coh geom.Vec
	var sepN, alignN, cohN int

	for _, o := range others {
		if o.ID == self.ID || !o.Alive() {
			continue
		}
		away := self.Position.Sub(o.Position)
		dist := away.Len()

		if dist < p.SeparationRadius && dist > 0 {
			sep = sep.Add(away.Scale(1 / dist))
			sepN++
		}
		if dist < p.AlignmentRadius {
			align = align.Add(o.Velocity)
			alignN++
		}
		if dist < p.CohesionRadius {
			coh = coh.Add(o.Position)
			cohN++
		}
	}

	var force geom.Vec
	if sepN > 0 {
		force = force.Add(sep.Scale(p.SeparationWeight / float64(sepN)))
	}
	if alignN > 0 {
		force = force.Add(align.Scale(p.AlignmentWeight * alignmentScale / float64(alignN)))
	}
	if cohN > 0 {
		center := coh.Scale(1 / float64(cohN))
		force = force.Add(center.Sub(self.Position).Scale(p.CohesionWeight * cohesionScale))
	}

	toGoal := goal.Sub(self.Position)
	if toGoal.Len() > p.GoalThreshold {
		force = force.Add(toGoal.Normalize().Scale(p.GoalWeight))
	}

	force = force.Add(mesh.Avoidance(self.Position, zones, p.AvoidanceStrength))

	vel := self.Velocity.Add(force.Scale(p.MaxForce))
	return vel.Limit(p.MaxSpeed)
}

// PhoneParams maps controller input to motion.
type PhoneParams struct {
	Speed   float64 `yaml:"speed"`
	YawRate float64 `yaml:"yaw_rate"`
}

// DefaultPhoneParams returns the stock controller mapping.
func DefaultPhoneParams() PhoneParams {
	return PhoneParams{Speed: 3, YawRate: 5}
}

// PhoneMotion derives velocity and heading for an externally driven agent.
// Without a sample the agent holds position and keeps its heading.
func PhoneMotion(heading float64, sample *swarm.MotionSample, p PhoneParams) (geom.Vec, float64) {
	if sample == nil {
		return geom.Vec{}, heading
	}
	s := sample.Clamp()
	vel := geom.Vec{X: s.Y * p.Speed, Y: -s.X * p.Speed}
	h := math.Mod(heading+s.Yaw*p.YawRate, 360)
	if h < 0 {
		h += 360
	}
	return vel, h
}
