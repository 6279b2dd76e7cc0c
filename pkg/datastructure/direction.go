package datastructure

import (
	"fmt"
	"strings"

	"github.com/lintang-b-s/indoornav/pkg/geo"
)

const (
	TURN_SHARP_LEFT   = -3
	TURN_LEFT         = -2
	TURN_SLIGHT_LEFT  = -1
	CONTINUE          = 0
	TURN_SLIGHT_RIGHT = 1
	TURN_RIGHT        = 2
	TURN_SHARP_RIGHT  = 3
	FINISH            = 4
	U_TURN            = 8
	START             = 101
)

// Instruction. one walking maneuver at a path node.
type Instruction struct {
	nodeID             string
	point              geo.Coordinate
	turnSign           int
	landmark           string
	heading            float64
	cumulativeDistance float64
}

func NewInstruction(sign int, nodeID, landmark string, p geo.Coordinate, heading, cumulativeDist float64) *Instruction {
	return &Instruction{
		turnSign:           sign,
		nodeID:             nodeID,
		landmark:           landmark,
		point:              p,
		heading:            heading,
		cumulativeDistance: cumulativeDist,
	}
}

func (ins *Instruction) GetNodeID() string {
	return ins.nodeID
}

func (ins *Instruction) GetPoint() geo.Coordinate {
	return ins.point
}

func (ins *Instruction) GetTurnSign() int {
	return ins.turnSign
}

func (ins *Instruction) GetLandmark() string {
	return ins.landmark
}

func (ins *Instruction) GetHeading() float64 {
	return ins.heading
}

func (ins *Instruction) GetCumulativeDistance() float64 {
	return ins.cumulativeDistance
}

func bearingToCompass(bearing float64) string {
	if bearing < 22.5 {
		return "north"
	} else if bearing < 67.5 {
		return "north east"
	} else if bearing < 112.5 {
		return "east"
	} else if bearing < 157.5 {
		return "south east"
	} else if bearing < 202.5 {
		return "south"
	} else if bearing < 247.5 {
		return "south west"
	} else if bearing < 292.5 {
		return "west"
	} else if bearing < 337.5 {
		return "north west"
	}
	return "north"
}

// GetDescription. human readable text of the maneuver.
func (ins *Instruction) GetDescription() string {
	landmark := strings.TrimSpace(ins.landmark)

	switch ins.turnSign {
	case START:
		heading := ins.heading
		if heading < 0 {
			heading += 360
		}
		if landmark == "" {
			return fmt.Sprintf("Head %s", bearingToCompass(heading))
		}
		return fmt.Sprintf("Head %s from %s", bearingToCompass(heading), landmark)
	case FINISH:
		if landmark == "" {
			return "You have arrived at your destination"
		}
		return fmt.Sprintf("You have arrived at %s", landmark)
	case CONTINUE:
		if landmark == "" {
			return "Continue straight"
		}
		return fmt.Sprintf("Continue straight past %s", landmark)
	}

	dir, _ := GetDirectionDescription(ins.turnSign)
	if dir == "" {
		return fmt.Sprintf("unknown %d", ins.turnSign)
	}
	if landmark == "" {
		return dir
	}
	return fmt.Sprintf("%s at %s", dir, landmark)
}

// GetDirectionDescription. (text, symbolic name) of a turn sign.
func GetDirectionDescription(sign int) (string, string) {
	switch sign {
	case U_TURN:
		return "Make a U-turn", "U_TURN"
	case TURN_SHARP_LEFT:
		return "Turn sharp left", "TURN_SHARP_LEFT"
	case TURN_LEFT:
		return "Turn left", "TURN_LEFT"
	case TURN_SLIGHT_LEFT:
		return "Turn slight left", "TURN_SLIGHT_LEFT"
	case CONTINUE:
		return "Continue straight", "CONTINUE"
	case TURN_SLIGHT_RIGHT:
		return "Turn slight right", "TURN_SLIGHT_RIGHT"
	case TURN_RIGHT:
		return "Turn right", "TURN_RIGHT"
	case TURN_SHARP_RIGHT:
		return "Turn sharp right", "TURN_SHARP_RIGHT"
	case START:
		return "Depart", "START"
	case FINISH:
		return "Arrive", "FINISH"
	default:
		return "", ""
	}
}
