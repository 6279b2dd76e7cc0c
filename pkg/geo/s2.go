package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToSegment. closest point to snap on the great-circle segment (pointA, pointB)
func ProjectPointToSegment(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {

	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	if pointAS2.ApproxEqual(pointBS2) {
		return pointA
	}
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// PointSegmentDistance. perpendicular distance (meters) from snap to segment (pointA, pointB) and the projected point
func PointSegmentDistance(pointA Coordinate, pointB Coordinate,
	snap Coordinate) (float64, Coordinate) {
	projectionPoint := ProjectPointToSegment(pointA, pointB, snap)

	return DistanceMeters(snap, projectionPoint), projectionPoint
}
