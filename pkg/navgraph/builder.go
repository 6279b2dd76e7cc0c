// Package navgraph turns a floor's topology description into a routable graph and resolves
// human-meaningful location ids to graph nodes.
package navgraph

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/topology"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"go.uber.org/zap"
)

var (
	ErrUnresolvableNode   = errors.New("no topology node could be resolved to a rendered position")
	ErrAsymmetricTopology = errors.New("topology declares a one-way connection")
)

// PositionResolver. rendered planar position of a topology node.
type PositionResolver interface {
	Resolve(id string) (datastructure.PlanarPoint, bool)
}

// LocationSource. geometric center of a room or other named location on the rendered plan.
type LocationSource interface {
	Centroid(id string) (datastructure.PlanarPoint, bool)
}

type ReciprocityPolicy uint8

const (
	// ReciprocityRepair adds the missing reverse edge.
	ReciprocityRepair ReciprocityPolicy = iota
	// ReciprocityReject fails the build on the first one-way connection.
	ReciprocityReject
	// ReciprocityDirected keeps connections exactly as declared.
	ReciprocityDirected
)

func (p ReciprocityPolicy) String() string {
	switch p {
	case ReciprocityRepair:
		return "repair"
	case ReciprocityReject:
		return "reject"
	case ReciprocityDirected:
		return "directed"
	default:
		return "unknown"
	}
}

// ParseReciprocityPolicy. "" defaults to repair.
func ParseReciprocityPolicy(s string) (ReciprocityPolicy, error) {
	switch s {
	case "", "repair":
		return ReciprocityRepair, nil
	case "reject":
		return ReciprocityReject, nil
	case "directed":
		return ReciprocityDirected, nil
	}
	return ReciprocityRepair, fmt.Errorf("unknown reciprocity policy %q", s)
}

type EdgeRef struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BuildReport. what the builder discarded or changed while building a floor graph.
type BuildReport struct {
	Unresolved    []string   `json:"unresolved"`
	DroppedEdges  []EdgeRef  `json:"droppedEdges"`
	RepairedEdges []EdgeRef  `json:"repairedEdges"`
	Components    [][]string `json:"components"`
}

type GraphBuilder struct {
	log    *zap.Logger
	policy ReciprocityPolicy
}

func NewGraphBuilder(log *zap.Logger, policy ReciprocityPolicy) *GraphBuilder {
	return &GraphBuilder{log: log, policy: policy}
}

func (b *GraphBuilder) GetPolicy() ReciprocityPolicy {
	return b.policy
}

/*
Build. builds the navigation graph of one floor.

1. every declared node is resolved to a planar position; nodes without one are dropped (logged, reported).
2. every retained node gets one edge per declared connection, weighted by the haversine distance in
meters between the forward-transformed positions of both endpoints. connections to dropped nodes are
discarded, as are self-loops and repeated connections.
3. one-way connections are handled according to the builder's ReciprocityPolicy.

fails with ErrUnresolvableNode only when no node at all resolves.
*/
func (b *GraphBuilder) Build(desc *topology.Description, resolver PositionResolver,
	tr *transform.Transformer) (*datastructure.Graph, *BuildReport, error) {
	report := &BuildReport{}

	ids := desc.NodeIDs()
	vertices := make([]*datastructure.Vertex, 0, len(ids))
	coords := make(map[string]geo.Coordinate, len(ids))

	for _, id := range ids {
		p, ok := resolver.Resolve(id)
		if !ok || !p.IsFinite() {
			b.log.Warn("dropping topology node without rendered position",
				zap.String("building", desc.Building), zap.String("floor", desc.Floor), zap.String("node", id))
			report.Unresolved = append(report.Unresolved, id)
			continue
		}
		c := tr.Forward(p)
		coords[id] = c
		vertices = append(vertices, datastructure.NewVertex(id, p, c, desc.Nodes[id].Represents))
	}

	if len(vertices) == 0 {
		return nil, report, fmt.Errorf("building %s floor %s: %w", desc.Building, desc.Floor, ErrUnresolvableNode)
	}

	adj := make(map[string][]datastructure.Edge, len(vertices))
	declared := make(map[EdgeRef]struct{})

	for _, v := range vertices {
		from := v.GetKey()
		for _, to := range desc.Nodes[from].Connections {
			if to == from {
				b.log.Debug("discarding self-loop", zap.String("node", from))
				continue
			}
			if _, ok := coords[to]; !ok {
				b.log.Warn("dropping connection to unresolved node", zap.String("from", from), zap.String("to", to))
				report.DroppedEdges = append(report.DroppedEdges, EdgeRef{From: from, To: to})
				continue
			}
			ref := EdgeRef{From: from, To: to}
			if _, ok := declared[ref]; ok {
				continue
			}
			declared[ref] = struct{}{}
			adj[from] = append(adj[from], datastructure.Edge{To: to, Weight: geo.DistanceMeters(coords[from], coords[to])})
		}
	}

	if err := b.applyReciprocity(vertices, adj, declared, report); err != nil {
		return nil, report, fmt.Errorf("building %s floor %s: %w", desc.Building, desc.Floor, err)
	}

	g := datastructure.NewGraph(desc.Building, desc.Floor, vertices, adj)
	report.Components = g.Components()
	if len(report.Components) > 1 {
		b.log.Info("floor graph has disconnected components", zap.String("building", desc.Building),
			zap.String("floor", desc.Floor), zap.Int("components", len(report.Components)))
	}

	b.log.Debug("floor graph built", zap.String("building", desc.Building), zap.String("floor", desc.Floor),
		zap.Int("vertices", g.NumberOfVertices()), zap.Int("edges", g.NumberOfEdges()))
	return g, report, nil
}

// applyReciprocity. vertices and each adjacency row are visited in order so repairs are deterministic.
func (b *GraphBuilder) applyReciprocity(vertices []*datastructure.Vertex, adj map[string][]datastructure.Edge,
	declared map[EdgeRef]struct{}, report *BuildReport) error {
	if b.policy == ReciprocityDirected {
		return nil
	}

	var repairs []EdgeRef
	weights := make(map[EdgeRef]float64)
	for _, v := range vertices {
		from := v.GetKey()
		for _, e := range adj[from] {
			reverse := EdgeRef{From: e.To, To: from}
			if _, ok := declared[reverse]; ok {
				continue
			}
			if b.policy == ReciprocityReject {
				return fmt.Errorf("%s -> %s has no reverse connection: %w", from, e.To, ErrAsymmetricTopology)
			}
			repairs = append(repairs, reverse)
			weights[reverse] = e.Weight
		}
	}

	for _, r := range repairs {
		b.log.Warn("adding missing reverse connection", zap.String("from", r.From), zap.String("to", r.To))
		adj[r.From] = append(adj[r.From], datastructure.Edge{To: r.To, Weight: weights[r]})
		report.RepairedEdges = append(report.RepairedEdges, r)
	}
	return nil
}
