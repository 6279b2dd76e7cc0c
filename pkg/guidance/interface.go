package guidance

import (
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
)

// CoordinateTable. geographic position of a node, implemented by datastructure.Graph and datastructure.CoordinateTable.
type CoordinateTable interface {
	Coordinate(nodeID string) (geo.Coordinate, bool)
}

type TagTable interface {
	Tags(nodeID string) datastructure.Tags
}

var (
	_ CoordinateTable = (*datastructure.Graph)(nil)
	_ TagTable        = (*datastructure.Graph)(nil)
	_ CoordinateTable = datastructure.CoordinateTable(nil)
	_ TagTable        = datastructure.TagTable(nil)
)
