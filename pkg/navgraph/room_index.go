package navgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/overrides"
	"github.com/lintang-b-s/indoornav/pkg/spatialindex"
	"github.com/lintang-b-s/indoornav/pkg/topology"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"go.uber.org/zap"
)

var ErrUnknownLocation = errors.New("location cannot be resolved to a graph node")

// ResolveMethod. which rule mapped a location id to its node.
type ResolveMethod uint8

const (
	ResolvedNode ResolveMethod = iota
	ResolvedRoomToNode
	ResolvedLocationToNode
	ResolvedTag
	ResolvedNearestCorridor
)

func (m ResolveMethod) String() string {
	switch m {
	case ResolvedNode:
		return "node"
	case ResolvedRoomToNode:
		return "roomToNode"
	case ResolvedLocationToNode:
		return "locationToNode"
	case ResolvedTag:
		return "tag"
	case ResolvedNearestCorridor:
		return "nearestCorridor"
	default:
		return "unknown"
	}
}

type Resolution struct {
	LocationID string
	NodeID     string
	Method     ResolveMethod
}

// Room. one known location of a floor.
type Room struct {
	ID          string         `json:"id"`
	NodeID      string         `json:"nodeId,omitempty"`
	Description string         `json:"description,omitempty"`
	Position    geo.Coordinate `json:"position"`
	HasPosition bool           `json:"hasPosition"`
}

type RoomIndex struct {
	graph *datastructure.Graph
	tr    *transform.Transformer
	log   *zap.Logger

	roomToNode     map[string]string
	locationToNode map[string]string
	descriptions   map[string]string
	aliases        map[string]string
	tagAnchors     map[string]string

	locations LocationSource
	overrides overrides.Store
	corridors *spatialindex.Rtree
}

/*
NewRoomIndex. indexes the locations of one built floor.

locations and store may be nil. the corridor r-tree is built once here from the graph edges.
*/
func NewRoomIndex(g *datastructure.Graph, desc *topology.Description, locations LocationSource,
	store overrides.Store, tr *transform.Transformer, log *zap.Logger) *RoomIndex {
	if store == nil {
		store = overrides.MapStore{}
	}
	ri := &RoomIndex{
		graph:          g,
		tr:             tr,
		log:            log,
		roomToNode:     desc.RoomToNode,
		locationToNode: desc.LocationToNode,
		descriptions:   desc.RoomDescriptions,
		aliases:        desc.Aliases,
		tagAnchors:     make(map[string]string),
		locations:      locations,
		overrides:      store,
		corridors:      spatialindex.NewRtree(),
	}

	// vertices are sorted by id, so the first node targeting a location wins.
	for _, v := range g.GetVertices() {
		for _, tag := range v.GetTags() {
			if !tag.HasTarget() {
				continue
			}
			if _, ok := ri.tagAnchors[tag.TargetID]; !ok {
				ri.tagAnchors[tag.TargetID] = v.GetKey()
			}
		}
	}

	ri.corridors.Build(g, pkg.CORRIDOR_BOX_PADDING, log)
	return ri
}

func (ri *RoomIndex) GetGraph() *datastructure.Graph {
	return ri.graph
}

func (ri *RoomIndex) GetOverrides() overrides.Store {
	return ri.overrides
}

// canonical. location id after alias lookup. known ids are never treated as aliases.
func (ri *RoomIndex) canonical(locationID string) string {
	id := strings.TrimSpace(locationID)
	if ri.known(id) {
		return id
	}
	if target, ok := ri.aliases[strings.ToLower(id)]; ok {
		return target
	}
	return id
}

func (ri *RoomIndex) known(id string) bool {
	if ri.graph.HasNode(id) {
		return true
	}
	if _, ok := ri.roomToNode[id]; ok {
		return true
	}
	if _, ok := ri.locationToNode[id]; ok {
		return true
	}
	_, ok := ri.tagAnchors[id]
	return ok
}

/*
Resolve. maps a location id to a graph node.

in order: the id is a node itself, the explicit roomToNode index, the locationToNode index, the first
node (by id) whose represents-tags target the location, and finally the corridor node nearest to the
location's position (override, else plan centroid). aliases are applied first.
*/
func (ri *RoomIndex) Resolve(locationID string) (Resolution, error) {
	id := ri.canonical(locationID)
	res := Resolution{LocationID: id}

	if ri.graph.HasNode(id) {
		res.NodeID, res.Method = id, ResolvedNode
		return res, nil
	}
	if node, ok := ri.roomToNode[id]; ok && ri.graph.HasNode(node) {
		res.NodeID, res.Method = node, ResolvedRoomToNode
		return res, nil
	}
	if node, ok := ri.locationToNode[id]; ok && ri.graph.HasNode(node) {
		res.NodeID, res.Method = node, ResolvedLocationToNode
		return res, nil
	}
	if node, ok := ri.tagAnchors[id]; ok {
		res.NodeID, res.Method = node, ResolvedTag
		return res, nil
	}

	p, ok := ri.planarPosition(id)
	if ok {
		nearest, found := ri.corridors.NearestNode(ri.tr.Forward(p))
		if found {
			res.NodeID, res.Method = ri.graph.GetKey(nearest.Node), ResolvedNearestCorridor
			ri.log.Debug("location resolved to nearest corridor node", zap.String("location", id),
				zap.String("node", res.NodeID), zap.Float64("distance", nearest.Distance))
			return res, nil
		}
	}

	return res, fmt.Errorf("%q: %w", locationID, ErrUnknownLocation)
}

// planarPosition. manual override first, else the plan centroid.
func (ri *RoomIndex) planarPosition(id string) (datastructure.PlanarPoint, bool) {
	if p, ok := ri.overrides.Lookup(id); ok {
		return p, true
	}
	if ri.locations == nil {
		return datastructure.PlanarPoint{}, false
	}
	return ri.locations.Centroid(id)
}

// Position. marker coordinate of a location: override > plan centroid > anchor node position.
func (ri *RoomIndex) Position(locationID string) (geo.Coordinate, error) {
	id := ri.canonical(locationID)
	if p, ok := ri.planarPosition(id); ok {
		return ri.tr.Forward(p), nil
	}

	res, err := ri.Resolve(id)
	if err != nil {
		return geo.Coordinate{}, err
	}
	c, _ := ri.graph.Coordinate(res.NodeID)
	return c, nil
}

func (ri *RoomIndex) Description(locationID string) string {
	return ri.descriptions[ri.canonical(locationID)]
}

// Rooms. every location the index knows by name, sorted by id. node ids are excluded unless described.
func (ri *RoomIndex) Rooms() []Room {
	ids := make(map[string]struct{})
	for _, m := range []map[string]string{ri.roomToNode, ri.locationToNode, ri.tagAnchors, ri.descriptions} {
		for id := range m {
			ids[id] = struct{}{}
		}
	}

	rooms := make([]Room, 0, len(ids))
	for id := range ids {
		room := Room{ID: id, Description: ri.descriptions[id]}
		if res, err := ri.Resolve(id); err == nil {
			room.NodeID = res.NodeID
		}
		if c, err := ri.Position(id); err == nil {
			room.Position, room.HasPosition = c, true
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}

// Label. display label of a node: the first tag target, else the node id.
func (ri *RoomIndex) Label(nodeID string) string {
	if target, ok := ri.graph.Tags(nodeID).FirstTarget(); ok {
		return target
	}
	return nodeID
}
