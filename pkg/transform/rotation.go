package transform

import (
	"math"

	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/util"
)

// RotatePoint. rotates point about pivot by angleDeg (clockwise on the map for positive angles),
// applying the rotation matrix to the (lng, lat) offset from the pivot.
func RotatePoint(point, pivot geo.Coordinate, angleDeg float64) geo.Coordinate {
	angleRad := util.DegreeToRadians(angleDeg)
	cos := math.Cos(angleRad)
	sin := math.Sin(angleRad)

	dx := point.Lon - pivot.Lon
	dy := point.Lat - pivot.Lat

	return geo.NewCoordinate(
		pivot.Lat+(dy*cos-dx*sin),
		pivot.Lon+(dx*cos+dy*sin),
	)
}

// CounterRotate. undoes a map rotation of bearingDeg for points traced in a rotated map view.
func CounterRotate(points []geo.Coordinate, pivot geo.Coordinate, bearingDeg float64) []geo.Coordinate {
	out := make([]geo.Coordinate, len(points))
	for i, p := range points {
		out[i] = RotatePoint(p, pivot, -bearingDeg)
	}
	return out
}

// Bounds. axis-aligned geographic bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func NewBounds(south, west, north, east float64) Bounds {
	return Bounds{South: south, West: west, North: north, East: east}
}

func (b Bounds) Center() geo.Coordinate {
	return geo.NewCoordinate((b.South+b.North)/2, (b.West+b.East)/2)
}

// CornersFromBounds. corners of b (nw, ne, se, sw) rotated by the map bearing about the box center.
func CornersFromBounds(b Bounds, bearingDeg float64) Quad {
	center := b.Center()
	corners := Quad{
		geo.NewCoordinate(b.North, b.West),
		geo.NewCoordinate(b.North, b.East),
		geo.NewCoordinate(b.South, b.East),
		geo.NewCoordinate(b.South, b.West),
	}
	for i := range corners {
		corners[i] = RotatePoint(corners[i], center, bearingDeg)
	}
	return corners
}
