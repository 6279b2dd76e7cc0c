package routing

import (
	"github.com/lintang-b-s/indoornav/pkg"
	da "github.com/lintang-b-s/indoornav/pkg/datastructure"
	"go.uber.org/zap"
)

// Dijkstra. search workspace bound to one graph. not safe for concurrent use; the RoutingEngine pools them.
type Dijkstra struct {
	graph  *da.Graph
	logger *zap.Logger

	info []*VertexInfo
	pq   *da.MinHeap[da.Index]

	numSettledNodes int
}

func NewDijkstra(graph *da.Graph, logger *zap.Logger) *Dijkstra {
	d := &Dijkstra{
		graph:  graph,
		logger: logger,
		info:   make([]*VertexInfo, graph.NumberOfVertices()),
		pq:     da.NewFourAryHeap[da.Index](),
	}
	initInfWeightVertexInfo(d.info)
	d.pq.Preallocate(graph.NumberOfVertices())
	return d
}

func (us *Dijkstra) GetNumSettledNodes() int {
	return us.numSettledNodes
}

func (us *Dijkstra) reset() {
	for _, vi := range us.info {
		vi.reset()
	}
	us.pq.Clear()
	us.numSettledNodes = 0
}

/*
ShortestPath. point-to-point dijkstra from s to t with early exit once t is settled.
returns the distance, the vertex sequence from s to t inclusive and whether t was reached.

the frontier is a 4-ary heap ordered by (distance, insertion sequence) and out-edges are relaxed in
declared order, so among equal-length paths the result is deterministic. O((N+E) log N).
*/
func (us *Dijkstra) ShortestPath(s, t da.Index) (float64, []da.Index, bool) {
	us.run(s, t)

	if us.info[t].GetDist() >= pkg.INF_WEIGHT {
		return pkg.INF_WEIGHT, nil, false
	}

	path := make([]da.Index, 0, 8)
	for v := t; v != da.INVALID_VERTEX_ID; v = us.info[v].GetParent() {
		path = append(path, v)
	}
	// walk ends at s, whose parent is invalid
	return us.info[t].GetDist(), reverseIndices(path), true
}

// Distances. single-source shortest path distances from s to every vertex, INF_WEIGHT when unreachable.
func (us *Dijkstra) Distances(s da.Index) []float64 {
	us.run(s, da.INVALID_VERTEX_ID)

	dists := make([]float64, len(us.info))
	for v, vi := range us.info {
		dists[v] = vi.GetDist()
	}
	return dists
}

func (us *Dijkstra) run(s, t da.Index) {
	us.reset()

	sNode := da.NewPriorityQueueNode(0, s)
	us.info[s].UpdateDist(0)
	us.info[s].heapNode = sNode
	us.pq.Insert(sNode)

	for !us.pq.IsEmpty() {
		if us.graphSearchUni(t) {
			break
		}
	}
}

// graphSearchUni. settles the frontier minimum and relaxes its out-edges. true once target is settled.
func (us *Dijkstra) graphSearchUni(target da.Index) bool {
	node, err := us.pq.ExtractMin()
	if err != nil {
		return true
	}
	uId := node.GetItem()
	uInfo := us.info[uId]
	uInfo.Scan()
	uInfo.heapNode = nil
	us.numSettledNodes++

	if uId == target {
		return true
	}

	us.graph.ForOutEdgesOf(uId, func(outArc *da.OutEdge) {
		vId := outArc.GetHead()
		vInfo := us.info[vId]
		if vInfo.IsScanned() {
			return
		}

		newDist := uInfo.GetDist() + outArc.GetWeight()
		if newDist >= pkg.INF_WEIGHT || newDist >= vInfo.GetDist() {
			// not better
			return
		}

		vInfo.UpdateDist(newDist)
		vInfo.UpdateParent(uId)

		if vhNode := vInfo.GetHeapNode(); vhNode != nil {
			// already in the priority queue, decrease its key. a settled vertex is never improved with
			// non-negative weights, so a failure here means the heap and vertex info disagree.
			if err := us.pq.DecreaseKey(vhNode, newDist); err != nil {
				us.logger.Debug("decrease key failed", zap.Uint32("vertex", uint32(vId)),
					zap.Float64("dist", newDist), zap.Error(err))
			}
			return
		}

		vhNode := da.NewPriorityQueueNode(newDist, vId)
		vInfo.heapNode = vhNode
		us.pq.Insert(vhNode)
	})

	return false
}

func reverseIndices(path []da.Index) []da.Index {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
