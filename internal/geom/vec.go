// Planar vector helpers shared by the swarm engine
package geom

import "math"

// Vec is a point or direction in the simulation plane.
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v*k.
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are zero.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector of v. The zero vector normalizes to zero.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Limit clamps the length of v to max while keeping its direction.
func (v Vec) Limit(max float64) Vec {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// HeadingDeg returns atan2(y, x) in degrees.
func (v Vec) HeadingDeg() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// SegmentIntersectsCircle reports whether the segment p1→p2 crosses the boundary
// of the circle (center, radius). The segment is parametrized as p1 + t(p2-p1)
// and the test passes when a root of the quadratic lies in [0,1]. A segment
// lying entirely inside the circle does not cross the boundary.
func SegmentIntersectsCircle(p1, p2, center Vec, radius float64) bool {
	d := p2.Sub(p1)
	f := p1.Sub(center)

	a := d.X*d.X + d.Y*d.Y
	if a == 0 {
		return false
	}
	b := 2 * (f.X*d.X + f.Y*d.Y)
	c := f.X*f.X + f.Y*f.Y - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1)
}

// Rect is an axis-aligned operating area with an inner margin.
type Rect struct {
	Width  float64
	Height float64
	Margin float64
}

// Clamp keeps p at least Margin away from every edge.
func (r Rect) Clamp(p Vec) Vec {
	return Vec{
		X: clamp(p.X, r.Margin, r.Width-r.Margin),
		Y: clamp(p.Y, r.Margin, r.Height-r.Margin),
	}
}

// Center returns the middle of the area.
func (r Rect) Center() Vec { return Vec{X: r.Width / 2, Y: r.Height / 2} }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
