package datastructure

import (
	"math"
	"sort"

	"github.com/lintang-b-s/indoornav/pkg/geo"
)

type Index uint32

const INVALID_VERTEX_ID Index = math.MaxUint32

// Vertex. navigation node of one floor: identifier, plan position, geographic position and tags.
type Vertex struct {
	id     Index
	key    string
	planar PlanarPoint
	lat    float64
	lon    float64
	tags   Tags
}

func NewVertex(key string, planar PlanarPoint, coord geo.Coordinate, tags Tags) *Vertex {
	var copied Tags
	if len(tags) > 0 {
		copied = make(Tags, len(tags))
		copy(copied, tags)
	}
	return &Vertex{
		key:    key,
		planar: planar,
		lat:    coord.Lat,
		lon:    coord.Lon,
		tags:   copied,
	}
}

func (v *Vertex) GetID() Index {
	return v.id
}

func (v *Vertex) GetKey() string {
	return v.key
}

func (v *Vertex) GetLat() float64 {
	return v.lat
}

func (v *Vertex) GetLon() float64 {
	return v.lon
}

func (v *Vertex) GetCoordinate() geo.Coordinate {
	return geo.NewCoordinate(v.lat, v.lon)
}

func (v *Vertex) GetPlanar() PlanarPoint {
	return v.planar
}

func (v *Vertex) GetTags() Tags {
	return v.tags
}

type OutEdge struct {
	head   Index
	weight float64
}

func NewOutEdge(head Index, weight float64) OutEdge {
	return OutEdge{head: head, weight: weight}
}

func (e *OutEdge) GetHead() Index {
	return e.head
}

func (e *OutEdge) GetWeight() float64 {
	return e.weight
}

// Edge. keyed view of an out edge.
type Edge struct {
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

/*
Graph. immutable weighted adjacency of one floor.

vertices are stored sorted by key, so vertex ids are stable for the same node set. out edges are stored
in compressed sparse row form: out edges of u are outEdges[firstOut[u]:firstOut[u+1]], in the order the
floor definition declared them.
*/
type Graph struct {
	building    string
	floor       string
	vertices    []*Vertex
	firstOut    []Index
	outEdges    []OutEdge
	keyToIndex  map[string]Index
	boundingBox *BoundingBox
	sccs        []Index
	numSCCs     int
}

// NewGraph. adj maps a vertex key to its out edges as (head key, weight). edges to unknown heads are skipped.
func NewGraph(building, floor string, vertices []*Vertex, adj map[string][]Edge) *Graph {
	sorted := make([]*Vertex, len(vertices))
	copy(sorted, vertices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key < sorted[j].key
	})

	keyToIndex := make(map[string]Index, len(sorted))
	for i, v := range sorted {
		v.id = Index(i)
		keyToIndex[v.key] = Index(i)
	}

	firstOut := make([]Index, len(sorted)+1)
	outEdges := make([]OutEdge, 0)
	for i, v := range sorted {
		firstOut[i] = Index(len(outEdges))
		for _, e := range adj[v.key] {
			head, ok := keyToIndex[e.To]
			if !ok {
				continue
			}
			outEdges = append(outEdges, NewOutEdge(head, e.Weight))
		}
	}
	firstOut[len(sorted)] = Index(len(outEdges))

	g := &Graph{
		building:   building,
		floor:      floor,
		vertices:   sorted,
		firstOut:   firstOut,
		outEdges:   outEdges,
		keyToIndex: keyToIndex,
	}
	g.boundingBox = g.computeBoundingBox()
	g.RunKosaraju()
	return g
}

func (g *Graph) computeBoundingBox() *BoundingBox {
	if len(g.vertices) == 0 {
		return NewBoundingBox(0, 0, 0, 0)
	}
	minLat, minLon := g.vertices[0].lat, g.vertices[0].lon
	maxLat, maxLon := minLat, minLon
	for _, v := range g.vertices[1:] {
		minLat = min(minLat, v.lat)
		minLon = min(minLon, v.lon)
		maxLat = max(maxLat, v.lat)
		maxLon = max(maxLon, v.lon)
	}
	return NewBoundingBox(minLat, minLon, maxLat, maxLon)
}

func (g *Graph) GetBuilding() string {
	return g.building
}

func (g *Graph) GetFloor() string {
	return g.floor
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumberOfEdges() int {
	return len(g.outEdges)
}

func (g *Graph) GetBoundingBox() *BoundingBox {
	return g.boundingBox
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return g.vertices[u]
}

func (g *Graph) GetVertices() []*Vertex {
	return g.vertices
}

func (g *Graph) GetIndex(key string) (Index, bool) {
	u, ok := g.keyToIndex[key]
	return u, ok
}

func (g *Graph) GetKey(u Index) string {
	return g.vertices[u].key
}

func (g *Graph) HasNode(key string) bool {
	_, ok := g.keyToIndex[key]
	return ok
}

func (g *Graph) GetOutDegree(u Index) Index {
	return g.firstOut[u+1] - g.firstOut[u]
}

// ForOutEdgesOf. calls handle for every out edge of u in declaration order.
func (g *Graph) ForOutEdgesOf(u Index, handle func(e *OutEdge)) {
	for i := g.firstOut[u]; i < g.firstOut[u+1]; i++ {
		handle(&g.outEdges[i])
	}
}

// NodeIDs. all node keys in ascending order.
func (g *Graph) NodeIDs() []string {
	keys := make([]string, len(g.vertices))
	for i, v := range g.vertices {
		keys[i] = v.key
	}
	return keys
}

func (g *Graph) Edges(key string) []Edge {
	u, ok := g.keyToIndex[key]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, g.GetOutDegree(u))
	g.ForOutEdgesOf(u, func(e *OutEdge) {
		edges = append(edges, Edge{To: g.vertices[e.head].key, Weight: e.weight})
	})
	return edges
}

// HasEdge. true when a directed edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	u, ok := g.keyToIndex[from]
	if !ok {
		return false
	}
	v, ok := g.keyToIndex[to]
	if !ok {
		return false
	}
	for i := g.firstOut[u]; i < g.firstOut[u+1]; i++ {
		if g.outEdges[i].head == v {
			return true
		}
	}
	return false
}

func (g *Graph) Coordinate(key string) (geo.Coordinate, bool) {
	u, ok := g.keyToIndex[key]
	if !ok {
		return geo.Coordinate{}, false
	}
	return g.vertices[u].GetCoordinate(), true
}

func (g *Graph) Planar(key string) (PlanarPoint, bool) {
	u, ok := g.keyToIndex[key]
	if !ok {
		return PlanarPoint{}, false
	}
	return g.vertices[u].planar, true
}

func (g *Graph) Tags(key string) Tags {
	u, ok := g.keyToIndex[key]
	if !ok {
		return nil
	}
	return g.vertices[u].tags
}

// CoordinateTable. node key -> geographic position, for callers holding positions outside a Graph.
type CoordinateTable map[string]geo.Coordinate

func (t CoordinateTable) Coordinate(key string) (geo.Coordinate, bool) {
	c, ok := t[key]
	return c, ok
}

// TagTable. node key -> tags.
type TagTable map[string]Tags

func (t TagTable) Tags(key string) Tags {
	return t[key]
}
