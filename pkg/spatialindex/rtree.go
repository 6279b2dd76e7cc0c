package spatialindex

import (
	"math"

	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

type Rtree struct {
	tr    *rtree.RTreeG[Segment]
	graph *datastructure.Graph
}

// Segment. corridor edge between two graph nodes, stored once per unordered pair.
type Segment struct {
	from datastructure.Index
	to   datastructure.Index
}

func (s Segment) GetFrom() datastructure.Index {
	return s.from
}

func (s Segment) GetTo() datastructure.Index {
	return s.to
}

func newSegment(from, to datastructure.Index) Segment {
	if to < from {
		from, to = to, from
	}
	return Segment{from: from, to: to}
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[Segment]
	return &Rtree{
		tr: &tr,
	}
}

// Build. indexes every edge of graph, each leaf padded by boundingBoxRadius (in km). isolated nodes are
// indexed as zero-length segments so they stay reachable by the fallback.
func (rt *Rtree) Build(graph *datastructure.Graph, boundingBoxRadius float64, log *zap.Logger) {
	rt.graph = graph
	seen := make(map[Segment]struct{}, graph.NumberOfEdges())

	for _, v := range graph.GetVertices() {
		tail := v.GetID()
		if graph.GetOutDegree(tail) == 0 {
			rt.insert(newSegment(tail, tail), boundingBoxRadius)
			continue
		}
		graph.ForOutEdgesOf(tail, func(e *datastructure.OutEdge) {
			seg := newSegment(tail, e.GetHead())
			if _, ok := seen[seg]; ok {
				return
			}
			seen[seg] = struct{}{}
			rt.insert(seg, boundingBoxRadius)
		})
	}

	log.Debug("corridor r-tree built", zap.String("building", graph.GetBuilding()),
		zap.String("floor", graph.GetFloor()), zap.Int("segments", rt.tr.Len()))
}

func (rt *Rtree) insert(seg Segment, boundingBoxRadius float64) {
	from := rt.graph.GetVertex(seg.from)
	to := rt.graph.GetVertex(seg.to)

	lowerFromLat, lowerFromLon := geo.GetDestinationPoint(from.GetLat(), from.GetLon(), 225, boundingBoxRadius)
	upperFromLat, upperFromLon := geo.GetDestinationPoint(from.GetLat(), from.GetLon(), 45, boundingBoxRadius)

	lowerToLat, lowerToLon := geo.GetDestinationPoint(to.GetLat(), to.GetLon(), 225, boundingBoxRadius)
	upperToLat, upperToLon := geo.GetDestinationPoint(to.GetLat(), to.GetLon(), 45, boundingBoxRadius)

	minLat := math.Min(lowerFromLat, lowerToLat)
	minLon := math.Min(lowerFromLon, lowerToLon)
	maxLat := math.Max(upperFromLat, upperToLat)
	maxLon := math.Max(upperFromLon, upperToLon)

	rt.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, seg)
}

func (rt *Rtree) Len() int {
	return rt.tr.Len()
}

// SearchWithinRadius. segments whose padded boxes intersect the box of radius (in km) around (qLat, qLon).
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []Segment {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]Segment, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data Segment) bool {
			results = append(results, data)
			return true
		})
	return results
}

// NearestResult. closest corridor point to a query and the segment endpoint nearer to it.
type NearestResult struct {
	Node      datastructure.Index
	Projected geo.Coordinate
	Distance  float64 // meters from the query to the projection
}

/*
NearestNode. projects q onto candidate segments and returns the segment endpoint nearer to the best
projection. the search radius starts at CORRIDOR_SEARCH_RADIUS and doubles until a candidate is found
or CORRIDOR_MAX_SEARCH_RADIUS is exceeded, after which every segment is scanned.
ties are broken by lower node index.
*/
func (rt *Rtree) NearestNode(q geo.Coordinate) (NearestResult, bool) {
	if rt.graph == nil || rt.tr.Len() == 0 {
		return NearestResult{}, false
	}

	var candidates []Segment
	for radius := pkg.CORRIDOR_SEARCH_RADIUS; radius <= pkg.CORRIDOR_MAX_SEARCH_RADIUS; radius *= 2 {
		candidates = rt.SearchWithinRadius(q.Lat, q.Lon, radius)
		if len(candidates) > 0 {
			break
		}
	}
	if len(candidates) == 0 {
		rt.tr.Scan(func(min, max [2]float64, data Segment) bool {
			candidates = append(candidates, data)
			return true
		})
	}

	best := NearestResult{Distance: math.Inf(1)}
	found := false
	for _, seg := range candidates {
		from := rt.graph.GetVertex(seg.from).GetCoordinate()
		to := rt.graph.GetVertex(seg.to).GetCoordinate()

		dist, projected := geo.PointSegmentDistance(from, to, q)

		node := seg.from
		if geo.DistanceMeters(projected, to) < geo.DistanceMeters(projected, from) {
			node = seg.to
		}

		if dist < best.Distance || (dist == best.Distance && node < best.Node) {
			best = NearestResult{Node: node, Projected: projected, Distance: dist}
			found = true
		}
	}
	return best, found
}
