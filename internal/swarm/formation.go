package swarm

import (
	"math"

	"swarmmesh-sim/internal/geom"
)

// DefaultSpacing is the distance between neighboring formation slots.
const DefaultSpacing = 80.0

// GenerateFormation returns count slot positions for the given layout,
// centered on center.
func GenerateFormation(center geom.Vec, count int, kind FormationKind, spacing float64) []geom.Vec {
	if count <= 0 {
		return []geom.Vec{}
	}
	positions := make([]geom.Vec, 0, count)

	switch kind {
	case FormationLine:
		for i := 0; i < count; i++ {
			positions = append(positions, geom.Vec{
				X: center.X + (float64(i)-float64(count-1)/2)*spacing,
				Y: center.Y,
			})
		}
	case FormationGrid:
		cols := int(math.Ceil(math.Sqrt(float64(count))))
		rows := int(math.Ceil(float64(count) / float64(cols)))
		for r := 0; r < rows && len(positions) < count; r++ {
			for c := 0; c < cols && len(positions) < count; c++ {
				positions = append(positions, geom.Vec{
					X: center.X + (float64(c)-float64(cols-1)/2)*spacing,
					Y: center.Y + (float64(r)-float64(rows-1)/2)*spacing,
				})
			}
		}
	case FormationCircle:
		radius := spacing * float64(count) / (2 * math.Pi)
		for i := 0; i < count; i++ {
			angle := 2*math.Pi*float64(i)/float64(count) - math.Pi/2
			positions = append(positions, geom.Vec{
				X: center.X + radius*math.Cos(angle),
				Y: center.Y + radius*math.Sin(angle),
			})
		}
	}
	return positions
}
