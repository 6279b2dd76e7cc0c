package routing

import (
	"github.com/lintang-b-s/indoornav/pkg"
	da "github.com/lintang-b-s/indoornav/pkg/datastructure"
)

// VertexInfo. tentative distance label of a vertex during one search.
type VertexInfo struct {
	dist     float64
	parent   da.Index
	scanned  bool // settled: dist is the shortest path distance from the source
	heapNode *da.PriorityQueueNode[da.Index]
}

func NewVertexInfo(dist float64, parent da.Index, hnode *da.PriorityQueueNode[da.Index]) *VertexInfo {
	return &VertexInfo{
		dist:     dist,
		parent:   parent,
		heapNode: hnode,
	}
}

func (vi *VertexInfo) GetDist() float64 {
	return vi.dist
}

func (vi *VertexInfo) UpdateDist(dist float64) {
	vi.dist = dist
}

func (vi *VertexInfo) GetParent() da.Index {
	return vi.parent
}

func (vi *VertexInfo) UpdateParent(par da.Index) {
	vi.parent = par
}

func (vi *VertexInfo) Scan() {
	vi.scanned = true
}

func (vi *VertexInfo) IsScanned() bool {
	return vi.scanned
}

func (vi *VertexInfo) GetHeapNode() *da.PriorityQueueNode[da.Index] {
	return vi.heapNode
}

func (vi *VertexInfo) reset() {
	vi.dist = pkg.INF_WEIGHT
	vi.parent = da.INVALID_VERTEX_ID
	vi.scanned = false
	vi.heapNode = nil
}

func initInfWeightVertexInfo(vs []*VertexInfo) {
	for i := range vs {
		vs[i] = NewVertexInfo(pkg.INF_WEIGHT, da.INVALID_VERTEX_ID, nil)
	}
}
