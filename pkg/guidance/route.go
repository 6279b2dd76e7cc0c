package guidance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

var ErrEmptyRoute = errors.New("route has no positioned nodes")

// RouteRecord. portable route geometry and statistics. holds no references into the graph.
type RouteRecord struct {
	ID             string          `json:"id"` // unique per returned record, including cache hits
	Start          string          `json:"start"`
	End            string          `json:"end"`
	Coordinates    [][2]float64    `json:"coordinates"` // [lng, lat]
	DistanceMeters float64         `json:"distanceMeters"`
	DistanceUnit   string          `json:"distanceUnit"`
	NodeIDs        []string        `json:"nodeIds"`
	NodeCount      int             `json:"nodeCount"`
	Rooms          []string        `json:"rooms"`
	RoomCount      int             `json:"roomCount"`
	TurnCount      int             `json:"turnCount"`
	Building       string          `json:"building"`
	Floor          string          `json:"floor"`
	Polyline       string          `json:"polyline"`
	Directions     []Direction     `json:"directions"`
	StartMarker    *geo.Coordinate `json:"startMarker,omitempty"`
	EndMarker      *geo.Coordinate `json:"endMarker,omitempty"`
}

// Reissue. shallow copy under a fresh id. slices stay shared with r and must not be modified.
func (r *RouteRecord) Reissue() *RouteRecord {
	cp := *r
	cp.ID = uuid.NewString()
	return &cp
}

// RouteOptions. caller supplied labels and identifiers. empty labels default to the first tag target of the
// first/last node, else its id.
type RouteOptions struct {
	Building    string
	Floor       string
	StartLabel  string
	EndLabel    string
	StartMarker *geo.Coordinate
	EndMarker   *geo.Coordinate
}

type Generator struct {
	log *zap.Logger
}

func NewGenerator(log *zap.Logger) *Generator {
	return &Generator{log: log}
}

/*
Generate. builds the route record of an ordered node sequence.

nodes without a geographic position are dropped with a warning; ErrEmptyRoute when none remain.
distance is the sum of consecutive haversine distances. rooms are the first tag target of each node,
deduplicated in first-seen order. turn count is the number of nodes tagged as a turn or an intersection.
*/
func (g *Generator) Generate(nodeIDs []string, coords CoordinateTable, tags TagTable, opts RouteOptions) (*RouteRecord, error) {
	path := make([]pathNode, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		c, ok := coords.Coordinate(id)
		if !ok {
			g.log.Warn("dropping route node without position", zap.String("node", id),
				zap.String("building", opts.Building), zap.String("floor", opts.Floor))
			continue
		}
		path = append(path, pathNode{id: id, coord: c, tags: tags.Tags(id)})
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%d nodes given: %w", len(nodeIDs), ErrEmptyRoute)
	}

	record := &RouteRecord{
		ID:           uuid.NewString(),
		DistanceUnit: pkg.DISTANCE_UNIT,
		Building:     opts.Building,
		Floor:        opts.Floor,
		Coordinates:  make([][2]float64, 0, len(path)),
		NodeIDs:      make([]string, 0, len(path)),
		Rooms:        make([]string, 0),
		StartMarker:  opts.StartMarker,
		EndMarker:    opts.EndMarker,
	}

	points := make([]geo.Coordinate, 0, len(path))
	seenRooms := make(map[string]struct{})
	for _, n := range path {
		points = append(points, n.coord)
		record.Coordinates = append(record.Coordinates, n.coord.LonLat())
		record.NodeIDs = append(record.NodeIDs, n.id)

		if room, ok := n.tags.FirstTarget(); ok {
			if _, seen := seenRooms[room]; !seen {
				seenRooms[room] = struct{}{}
				record.Rooms = append(record.Rooms, room)
			}
		}
		if n.tags.HasRoutingComplexity() {
			record.TurnCount++
		}
	}

	record.DistanceMeters = geo.PathLengthMeters(points)
	record.NodeCount = len(record.NodeIDs)
	record.RoomCount = len(record.Rooms)
	record.Polyline = geo.PolylineFromCoords(points)
	record.Directions = NewDirectionBuilder().GetWalkingDirections(path)

	record.Start = opts.StartLabel
	if record.Start == "" {
		record.Start = label(path[0])
	}
	record.End = opts.EndLabel
	if record.End == "" {
		record.End = label(path[len(path)-1])
	}
	return record, nil
}

func label(n pathNode) string {
	if target, ok := n.tags.FirstTarget(); ok {
		return target
	}
	return n.id
}

func (r *RouteRecord) properties() geojson.Properties {
	return geojson.Properties{
		"start":          r.Start,
		"end":            r.End,
		"distanceMeters": r.DistanceMeters,
		"distanceUnit":   r.DistanceUnit,
		"nodeIds":        r.NodeIDs,
		"nodeCount":      r.NodeCount,
		"rooms":          r.Rooms,
		"roomCount":      r.RoomCount,
		"turnCount":      r.TurnCount,
		"building":       r.Building,
		"floor":          r.Floor,
	}
}

// Feature. route as a geojson LineString feature (a Point for a single-node route) carrying the statistics.
func (r *RouteRecord) Feature() *geojson.Feature {
	var geom orb.Geometry
	if len(r.Coordinates) == 1 {
		geom = orb.Point(r.Coordinates[0])
	} else {
		ls := make(orb.LineString, len(r.Coordinates))
		for i, c := range r.Coordinates {
			ls[i] = orb.Point(c)
		}
		geom = ls
	}

	f := geojson.NewFeature(geom)
	f.ID = r.ID
	f.Properties = r.properties()
	return f
}

// FeatureCollection. route feature followed by the start and end markers when present.
func (r *RouteRecord) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(r.Feature())

	for _, m := range []struct {
		role  string
		label string
		c     *geo.Coordinate
	}{{"start", r.Start, r.StartMarker}, {"end", r.End, r.EndMarker}} {
		if m.c == nil {
			continue
		}
		marker := geojson.NewFeature(orb.Point(m.c.LonLat()))
		marker.Properties = geojson.Properties{"role": m.role, "label": m.label}
		fc.Append(marker)
	}
	return fc
}
