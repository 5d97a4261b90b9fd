package model

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackGeometry is the closed path of a reference lap.
// The closing edge from the last to the first point is implicit.
type TrackGeometry struct {
	Points []Point `json:"points"`
}

// Length returns the perimeter including the closing edge.
func (g *TrackGeometry) Length() float64 {
	if len(g.Points) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(g.Points); i++ {
		sum += dist(g.Points[i-1], g.Points[i])
	}
	return sum + dist(g.Points[len(g.Points)-1], g.Points[0])
}

func (g *TrackGeometry) Bounds() (minP, maxP Point) {
	if len(g.Points) == 0 {
		return Point{}, Point{}
	}
	minP, maxP = g.Points[0], g.Points[0]
	for _, p := range g.Points[1:] {
		minP.X = math.Min(minP.X, p.X)
		minP.Y = math.Min(minP.Y, p.Y)
		maxP.X = math.Max(maxP.X, p.X)
		maxP.Y = math.Max(maxP.Y, p.Y)
	}
	return minP, maxP
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
