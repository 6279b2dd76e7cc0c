package routing

// Router. shortest path and one-to-all distance queries keyed by node id.
type Router interface {
	ShortestPath(start, end string) (Path, error)
	Distances(start string) (map[string]float64, error)
}

var _ Router = (*RoutingEngine)(nil)
