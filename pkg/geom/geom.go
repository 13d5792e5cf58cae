package geom

import (
	"github.com/chewxy/math32"
)

// Package geom holds the 2D primitives used by the perception pipeline.
// All coordinates are normalized to [0,1] relative to the camera frame,
// which is the coordinate space that the upstream detector emits.

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y))
}

type Rect struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func (r Rect) Area() float32 {
	return r.Width * r.Height
}

func (r Rect) X2() float32 {
	return r.X + r.Width
}

func (r Rect) Y2() float32 {
	return r.Y + r.Height
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X+r.Width, b.X+b.Width)
	y2 := min(r.Y+r.Height, b.Y+b.Height)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

func (r Rect) Union(b Rect) Rect {
	x1 := min(r.X, b.X)
	y1 := min(r.Y, b.Y)
	x2 := max(r.X+r.Width, b.X+b.Width)
	y2 := max(r.Y+r.Height, b.Y+b.Height)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// Intersection over Union
func (r Rect) IOU(b Rect) float32 {
	intersection := r.Intersection(b)
	return intersection.Area() / (r.Area() + b.Area() - intersection.Area())
}

func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Polygon is an ordered list of vertices. The polygon is implicitly closed
// (last vertex connects back to the first).
type Polygon []Point

// A polygon needs at least 3 vertices for containment to be defined.
func (poly Polygon) IsValid() bool {
	return len(poly) >= 3
}

// Contains reports whether p is inside the polygon, using ray casting with a
// half-open edge rule ([y1,y2) per edge), so a vertex lying exactly on the
// test ray is counted by exactly one of its two edges.
func (poly Polygon) Contains(p Point) bool {
	if !poly.IsValid() {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		a := poly[i]
		b := poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
