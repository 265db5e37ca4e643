package swarm

import "time"

// DrainRates are battery percentage points consumed per second.
type DrainRates struct {
	Master   float64 `yaml:"master_rate"`
	Slave    float64 `yaml:"slave_rate"`
	Movement float64 `yaml:"movement_rate"` // per unit of speed
	Jamming  float64 `yaml:"jamming_rate"`
}

// DefaultDrainRates returns the stock consumption profile.
func DefaultDrainRates() DrainRates {
	return DrainRates{Master: 0.002, Slave: 0.001, Movement: 0.0005, Jamming: 0.001}
}

// Drain returns the battery left after dt at the given role, speed and
// jamming exposure. The result stays within [0, 100] and never exceeds battery.
func Drain(battery float64, role Role, speed float64, inZone bool, dt time.Duration, r DrainRates) float64 {
	var roleRate float64
	switch role {
	case RoleMaster:
		roleRate = r.Master
	case RoleSlave:
		roleRate = r.Slave
	}
	jamRate := 0.0
	if inZone {
		jamRate = r.Jamming
	}
	drain := (roleRate + r.Movement*speed + jamRate) * dt.Seconds()
	if drain < 0 {
		drain = 0
	}
	next := battery - drain
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}
	return next
}

// HealthFor derives the discrete health state from a battery level.
func HealthFor(battery float64) Health {
	switch {
	case battery <= 0:
		return HealthDestroyed
	case battery < 15:
		return HealthCritical
	case battery < 30:
		return HealthWarning
	default:
		return HealthHealthy
	}
}
