package routing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lintang-b-s/indoornav/pkg"
	da "github.com/lintang-b-s/indoornav/pkg/datastructure"
	"go.uber.org/zap"
)

var (
	ErrNodeNotFound = errors.New("node not found in graph")
	ErrNoPathFound  = errors.New("no path between nodes")
)

// Path. node ids from start to end inclusive and the summed edge weight in meters.
type Path struct {
	NodeIDs  []string `json:"nodeIds"`
	Distance float64  `json:"distance"`
}

// RoutingEngine. shortest path queries over one immutable floor graph. safe for concurrent use.
type RoutingEngine struct {
	graph  *da.Graph
	logger *zap.Logger
	pool   sync.Pool
}

func NewRoutingEngine(graph *da.Graph, logger *zap.Logger) *RoutingEngine {
	e := &RoutingEngine{
		graph:  graph,
		logger: logger,
	}
	e.BuildBufferPool()
	return e
}

func (re *RoutingEngine) GetGraph() *da.Graph {
	return re.graph
}

// BuildBufferPool. search workspaces are sized to the graph once and reused across queries.
func (re *RoutingEngine) BuildBufferPool() {
	re.pool = sync.Pool{
		New: func() any {
			return NewDijkstra(re.graph, re.logger)
		},
	}
}

func (re *RoutingEngine) index(key string) (da.Index, error) {
	u, ok := re.graph.GetIndex(key)
	if !ok {
		return 0, fmt.Errorf("%q: %w", key, ErrNodeNotFound)
	}
	return u, nil
}

/*
ShortestPath. shortest path between two node ids.

fails with ErrNodeNotFound, without searching, when either id is absent from the graph and with
ErrNoPathFound when end is unreachable from start. start == end yields [start] with distance 0.
*/
func (re *RoutingEngine) ShortestPath(start, end string) (Path, error) {
	s, err := re.index(start)
	if err != nil {
		return Path{}, err
	}
	t, err := re.index(end)
	if err != nil {
		return Path{}, err
	}

	search := re.pool.Get().(*Dijkstra)
	defer re.pool.Put(search)

	dist, indices, found := search.ShortestPath(s, t)
	if !found {
		return Path{}, fmt.Errorf("%s -> %s: %w", start, end, ErrNoPathFound)
	}

	nodeIDs := make([]string, len(indices))
	for i, v := range indices {
		nodeIDs[i] = re.graph.GetKey(v)
	}

	re.logger.Debug("shortest path found", zap.String("start", start), zap.String("end", end),
		zap.Float64("distance", dist), zap.Int("settled", search.GetNumSettledNodes()))
	return Path{NodeIDs: nodeIDs, Distance: dist}, nil
}

// Distances. shortest path distance from start to every reachable node id.
func (re *RoutingEngine) Distances(start string) (map[string]float64, error) {
	s, err := re.index(start)
	if err != nil {
		return nil, err
	}

	search := re.pool.Get().(*Dijkstra)
	defer re.pool.Put(search)

	dists := search.Distances(s)
	out := make(map[string]float64, len(dists))
	for v, d := range dists {
		if d >= pkg.INF_WEIGHT {
			continue
		}
		out[re.graph.GetKey(da.Index(v))] = d
	}
	return out, nil
}
