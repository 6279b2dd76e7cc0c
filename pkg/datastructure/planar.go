package datastructure

import "math"

// PlanarPoint. floor-plan local coordinate (svg user units)
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPlanarPoint(x, y float64) PlanarPoint {
	return PlanarPoint{X: x, Y: y}
}

func (p PlanarPoint) GetX() float64 {
	return p.X
}

func (p PlanarPoint) GetY() float64 {
	return p.Y
}

func (p PlanarPoint) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
