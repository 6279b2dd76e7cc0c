package guidance

import (
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/util"
)

// Direction. one step of the walking directions.
type Direction struct {
	NodeID             string         `json:"nodeId"`
	Instruction        string         `json:"instruction"`
	TurnType           string         `json:"turnType"`
	Landmark           string         `json:"landmark,omitempty"`
	Heading            float64        `json:"heading"`
	Distance           float64        `json:"distance"`
	CumulativeDistance float64        `json:"cumulativeDistance"`
	Point              geo.Coordinate `json:"point"`
}

type pathNode struct {
	id    string
	coord geo.Coordinate
	tags  datastructure.Tags
}

// DirectionBuilder. turns a positioned node sequence into walking instructions. instructions are emitted at the
// start, at every interior node tagged as a turn or an intersection, and at the end.
type DirectionBuilder struct {
	instructions       []*datastructure.Instruction
	cumulativeDistance float64
}

func NewDirectionBuilder() *DirectionBuilder {
	return &DirectionBuilder{
		instructions: make([]*datastructure.Instruction, 0),
	}
}

func landmarkOf(tags datastructure.Tags) string {
	target, _ := tags.FirstTarget()
	return target
}

func (db *DirectionBuilder) GetWalkingDirections(path []pathNode) []Direction {
	if len(path) == 0 {
		return nil
	}

	db.buildStartInstruction(path)
	for i := 1; i+1 < len(path); i++ {
		db.cumulativeDistance += geo.DistanceMeters(path[i-1].coord, path[i].coord)
		db.buildInstruction(path[i-1], path[i], path[i+1])
	}
	if len(path) > 1 {
		db.cumulativeDistance += geo.DistanceMeters(path[len(path)-2].coord, path[len(path)-1].coord)
	}
	db.buildFinalInstruction(path[len(path)-1])

	directions := make([]Direction, len(db.instructions))
	for i, ins := range db.instructions {
		var currStepDistance float64
		if i > 0 {
			currStepDistance = ins.GetCumulativeDistance() - db.instructions[i-1].GetCumulativeDistance()
		}
		_, turnType := datastructure.GetDirectionDescription(ins.GetTurnSign())
		directions[i] = Direction{
			NodeID:             ins.GetNodeID(),
			Instruction:        ins.GetDescription(),
			TurnType:           turnType,
			Landmark:           ins.GetLandmark(),
			Heading:            util.RoundFloat(ins.GetHeading(), 1),
			Distance:           currStepDistance,
			CumulativeDistance: ins.GetCumulativeDistance(),
			Point:              ins.GetPoint(),
		}
	}
	return directions
}

func (db *DirectionBuilder) buildStartInstruction(path []pathNode) {
	if len(path) < 2 {
		return
	}
	start := path[0]
	heading := geo.Bearing(start.coord, path[1].coord)
	db.instructions = append(db.instructions, datastructure.NewInstruction(datastructure.START, start.id,
		landmarkOf(start.tags), start.coord, heading, 0))
}

// buildInstruction. only turn and intersection nodes produce an instruction.
func (db *DirectionBuilder) buildInstruction(prev, curr, next pathNode) {
	if !curr.tags.HasRoutingComplexity() {
		return
	}
	sign := getTurnDirection(prev.coord, curr.coord, next.coord)
	heading := geo.Bearing(curr.coord, next.coord)
	db.instructions = append(db.instructions, datastructure.NewInstruction(sign, curr.id,
		landmarkOf(curr.tags), curr.coord, heading, db.cumulativeDistance))
}

func (db *DirectionBuilder) buildFinalInstruction(last pathNode) {
	heading := 0.0
	if n := len(db.instructions); n > 0 {
		heading = db.instructions[n-1].GetHeading()
	}
	db.instructions = append(db.instructions, datastructure.NewInstruction(datastructure.FINISH, last.id,
		landmarkOf(last.tags), last.coord, heading, db.cumulativeDistance))
}
