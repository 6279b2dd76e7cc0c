package guidance

import (
	"math"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/util"
)

// https://www.movable-type.co.uk/scripts/latlong.html
// initial bearing (bearing from a to b with meridian line crossing a), in radians
func computeInitialBearing(a, b geo.Coordinate) float64 {
	return util.DegreeToRadians(geo.Bearing(a, b))
}

// computeDeltaBearing. outgoing initial bearing minus incoming initial bearing, in radians within [-pi, pi].
func computeDeltaBearing(prevInitialBearing, initialBearing float64) float64 {
	prevInitialBearing, initialBearing = alignInitialBearing(prevInitialBearing, initialBearing)
	return initialBearing - prevInitialBearing
}

/*
alignInitialBearing. keeps the difference of two bearings within [-180°, 180°].

	          \
	           \ initialBearing (350°)
	            \
	            /
	           /  prevInitialBearing (20°)
	          /

350° - 20° = 330° reads as a right turn but is a left one: prevInitialBearing + 360°.
10° - 340° = -330° reads as a left turn but is a right one: initialBearing + 360°.
*/
func alignInitialBearing(prevInitialBearing, initialBearing float64) (float64, float64) {
	dif := util.RadiansToDegree(initialBearing) - util.RadiansToDegree(prevInitialBearing)
	if dif > 180 {
		prevInitialBearing += 2 * math.Pi
	} else if dif < -180 {
		initialBearing += 2 * math.Pi
	}
	return prevInitialBearing, initialBearing
}

// getTurnDirection. turn sign at b when walking a -> b -> c.
func getTurnDirection(a, b, c geo.Coordinate) int {
	delta := computeDeltaBearing(computeInitialBearing(a, b), computeInitialBearing(b, c))
	deltaDegree := util.RadiansToDegree(math.Abs(delta))

	switch {
	case deltaDegree < 12:
		return datastructure.CONTINUE
	case deltaDegree < 40:
		if delta < 0 {
			return datastructure.TURN_SLIGHT_LEFT
		}
		return datastructure.TURN_SLIGHT_RIGHT
	case deltaDegree < 105:
		if delta < 0 {
			return datastructure.TURN_LEFT
		}
		return datastructure.TURN_RIGHT
	case deltaDegree < 170:
		if delta < 0 {
			return datastructure.TURN_SHARP_LEFT
		}
		return datastructure.TURN_SHARP_RIGHT
	default:
		return datastructure.U_TURN
	}
}
