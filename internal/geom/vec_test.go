package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, Vec{}, Vec{}.Normalize())
	n := Vec{X: 3, Y: 4}.Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.InDelta(t, 0.8, n.Y, 1e-12)
}

func TestLimit(t *testing.T) {
	v := Vec{X: 6, Y: 8}.Limit(5)
	assert.InDelta(t, 5, v.Len(), 1e-12)
	assert.InDelta(t, 3, v.X, 1e-12)
	assert.Equal(t, Vec{X: 1, Y: 1}, Vec{X: 1, Y: 1}.Limit(5))
}

func TestHeadingDeg(t *testing.T) {
	assert.InDelta(t, 90, Vec{Y: 1}.HeadingDeg(), 1e-9)
	assert.InDelta(t, 180, Vec{X: -1}.HeadingDeg(), 1e-9)
}

func TestSegmentIntersectsCircle(t *testing.T) {
	center := Vec{X: 100, Y: 100}
	cases := []struct {
		name   string
		p1, p2 Vec
		want   bool
	}{
		{"through", Vec{X: 0, Y: 100}, Vec{X: 200, Y: 100}, true},
		{"miss", Vec{X: 0, Y: 0}, Vec{X: 200, Y: 0}, false},
		{"ends short", Vec{X: 0, Y: 100}, Vec{X: 40, Y: 100}, false},
		{"enters", Vec{X: 0, Y: 100}, Vec{X: 100, Y: 100}, true},
		{"inside", Vec{X: 95, Y: 100}, Vec{X: 105, Y: 100}, false},
		{"degenerate", Vec{X: 0, Y: 0}, Vec{X: 0, Y: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SegmentIntersectsCircle(tc.p1, tc.p2, center, 50))
		})
	}
}

func TestRectClamp(t *testing.T) {
	r := Rect{Width: 800, Height: 600, Margin: 20}
	assert.Equal(t, Vec{X: 20, Y: 580}, r.Clamp(Vec{X: -5, Y: 900}))
	assert.Equal(t, Vec{X: 400, Y: 300}, r.Center())
	assert.True(t, math.Abs(Distance(Vec{}, Vec{X: 3, Y: 4})-5) < 1e-12)
}
