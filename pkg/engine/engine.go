package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/concurrent"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine/routing"
	"github.com/lintang-b-s/indoornav/pkg/floorplan"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/overrides"
	"github.com/lintang-b-s/indoornav/pkg/topology"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownFloor   = errors.New("floor is not configured")
	ErrFloorNotLoaded = errors.New("floor is not loaded")
)

type FloorKey struct {
	Building string `json:"building"`
	Floor    string `json:"floor"`
}

func NewFloorKey(building, floor string) FloorKey {
	return FloorKey{Building: building, Floor: floor}
}

func (k FloorKey) String() string {
	return k.Building + "/" + k.Floor
}

type routeCacheKey struct {
	start string
	end   string
}

// Snapshot. everything needed to answer queries on one floor. never mutated after publication.
type Snapshot struct {
	key         FloorKey
	graph       *datastructure.Graph
	router      routing.Router
	rooms       *navgraph.RoomIndex
	transformer *transform.Transformer
	report      *navgraph.BuildReport
	routeCache  *lru.Cache[routeCacheKey, *guidance.RouteRecord]
	loadedAt    time.Time
}

func (s *Snapshot) GetKey() FloorKey {
	return s.key
}

func (s *Snapshot) GetGraph() *datastructure.Graph {
	return s.graph
}

func (s *Snapshot) GetRouter() routing.Router {
	return s.router
}

func (s *Snapshot) GetRoomIndex() *navgraph.RoomIndex {
	return s.rooms
}

func (s *Snapshot) GetTransformer() *transform.Transformer {
	return s.transformer
}

func (s *Snapshot) GetReport() *navgraph.BuildReport {
	return s.report
}

func (s *Snapshot) GetLoadedAt() time.Time {
	return s.loadedAt
}

type Options struct {
	Policy    navgraph.ReciprocityPolicy
	CacheSize int
	Workers   int
}

// Engine. owns one atomically replaced Snapshot per configured floor. safe for concurrent use.
type Engine struct {
	logger    *zap.Logger
	builder   *navgraph.GraphBuilder
	generator *guidance.Generator
	options   Options

	floors    map[FloorKey]util.FloorConfig
	snapshots map[FloorKey]*atomic.Pointer[Snapshot]
}

// NewEngine. floors are fixed at construction; none is loaded until LoadFloor or LoadAll.
func NewEngine(floors []util.FloorConfig, logger *zap.Logger, opts Options) (*Engine, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = pkg.DEFAULT_ROUTE_CACHE_SIZE
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	e := &Engine{
		logger:    logger,
		builder:   navgraph.NewGraphBuilder(logger, opts.Policy),
		generator: guidance.NewGenerator(logger),
		options:   opts,
		floors:    make(map[FloorKey]util.FloorConfig, len(floors)),
		snapshots: make(map[FloorKey]*atomic.Pointer[Snapshot], len(floors)),
	}
	for _, f := range floors {
		key := NewFloorKey(f.Building, f.Floor)
		if _, ok := e.floors[key]; ok {
			return nil, fmt.Errorf("floor %s configured twice", key)
		}
		e.floors[key] = f
		e.snapshots[key] = &atomic.Pointer[Snapshot]{}
	}
	return e, nil
}

// Floors. configured floors sorted by building then floor.
func (e *Engine) Floors() []FloorKey {
	keys := make([]FloorKey, 0, len(e.floors))
	for k := range e.floors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Building != keys[j].Building {
			return keys[i].Building < keys[j].Building
		}
		return keys[i].Floor < keys[j].Floor
	})
	return keys
}

func (e *Engine) IsLoaded(key FloorKey) bool {
	p, ok := e.snapshots[key]
	return ok && p.Load() != nil
}

// Snapshot. currently published snapshot of a floor.
func (e *Engine) Snapshot(key FloorKey) (*Snapshot, error) {
	p, ok := e.snapshots[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrUnknownFloor)
	}
	snap := p.Load()
	if snap == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrFloorNotLoaded)
	}
	return snap, nil
}

// LoadAll. loads every configured floor concurrently. the first failure is returned.
func (e *Engine) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range e.Floors() {
		g.Go(func() error {
			return e.LoadFloor(ctx, key)
		})
	}
	return g.Wait()
}

type floorInputs struct {
	desc    *topology.Description
	plan    *floorplan.Plan
	store   overrides.Store
	corners []geo.Coordinate
}

/*
LoadFloor. fetches the topology, floor plan, overrides and footprint of a floor concurrently, builds
the graph and room index, and publishes the result as the floor's new snapshot. queries already holding
the previous snapshot keep using it. on failure the previous snapshot stays published.
*/
func (e *Engine) LoadFloor(ctx context.Context, key FloorKey) error {
	cfg, ok := e.floors[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrUnknownFloor)
	}
	start := time.Now()

	in, err := e.fetch(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load floor %s: %w", key, err)
	}

	tr, err := transform.NewTransformer(in.plan.ViewBox(), in.corners)
	if err != nil {
		return fmt.Errorf("load floor %s: %w", key, err)
	}

	// the topology file names the floor it describes; the configured key is authoritative.
	in.desc.Building, in.desc.Floor = key.Building, key.Floor

	graph, report, err := e.builder.Build(in.desc, in.plan, tr)
	if err != nil {
		return fmt.Errorf("load floor %s: %w", key, err)
	}

	cache, err := lru.New[routeCacheKey, *guidance.RouteRecord](e.options.CacheSize)
	if err != nil {
		return fmt.Errorf("load floor %s: %w", key, err)
	}

	snap := &Snapshot{
		key:         key,
		graph:       graph,
		router:      routing.NewRoutingEngine(graph, e.logger),
		rooms:       navgraph.NewRoomIndex(graph, in.desc, in.plan, in.store, tr, e.logger),
		transformer: tr,
		report:      report,
		routeCache:  cache,
		loadedAt:    time.Now(),
	}
	e.snapshots[key].Store(snap)

	e.logger.Info("floor loaded", zap.String("floor", key.String()),
		zap.Int("vertices", graph.NumberOfVertices()), zap.Int("edges", graph.NumberOfEdges()),
		zap.Int("unresolved", len(report.Unresolved)), zap.Int("components", graph.NumberOfComponents()),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (e *Engine) fetch(ctx context.Context, cfg util.FloorConfig) (*floorInputs, error) {
	in := &floorInputs{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		desc, err := topology.Load(cfg.Topology)
		in.desc = desc
		return err
	})
	g.Go(func() error {
		plan, err := floorplan.LoadPlan(cfg.Plan, floorplan.WithTransforms(cfg.ApplyTransforms))
		in.plan = plan
		return err
	})
	g.Go(func() error {
		if cfg.Overrides == "" {
			in.store = overrides.MapStore{}
			return nil
		}
		store, err := overrides.LoadFileStore(cfg.Overrides, e.logger)
		in.store = store
		return err
	})
	g.Go(func() error {
		corners, err := floorCorners(ctx, cfg)
		in.corners = corners
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// floorCorners. explicit corners win over the footprint.
func floorCorners(ctx context.Context, cfg util.FloorConfig) ([]geo.Coordinate, error) {
	if len(cfg.Corners) > 0 {
		corners := make([]geo.Coordinate, 0, len(cfg.Corners))
		for _, c := range cfg.Corners {
			corners = append(corners, geo.NewCoordinate(c[0], c[1]))
		}
		return corners, nil
	}
	if cfg.Footprint == "" {
		return nil, fmt.Errorf("%w: floor %s/%s has neither corners nor a footprint",
			transform.ErrInvalidTransformInput, cfg.Building, cfg.Floor)
	}
	bounds, err := floorplan.LoadFootprint(ctx, cfg.Footprint, cfg.FootprintName)
	if err != nil {
		return nil, err
	}
	return transform.CornersFromBounds(bounds, cfg.Bearing).Corners(), nil
}

// Route. shortest walking route between two locations of a floor. records are cached per snapshot; a cache
// hit is reissued under a fresh id and shares its slices with the cached record, so treat it as read-only.
func (e *Engine) Route(ctx context.Context, key FloorKey, start, end string) (*guidance.RouteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := e.Snapshot(key)
	if err != nil {
		return nil, err
	}

	ck := routeCacheKey{start: start, end: end}
	if rec, ok := snap.routeCache.Get(ck); ok {
		return rec.Reissue(), nil
	}

	rec, err := e.route(snap, start, end)
	if err != nil {
		return nil, err
	}
	snap.routeCache.Add(ck, rec)
	return rec, nil
}

func (e *Engine) route(snap *Snapshot, start, end string) (*guidance.RouteRecord, error) {
	from, err := snap.rooms.Resolve(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w: %w", routing.ErrNodeNotFound, err)
	}
	to, err := snap.rooms.Resolve(end)
	if err != nil {
		return nil, fmt.Errorf("end: %w: %w", routing.ErrNodeNotFound, err)
	}

	path, err := snap.router.ShortestPath(from.NodeID, to.NodeID)
	if err != nil {
		return nil, err
	}

	opts := guidance.RouteOptions{
		Building:   snap.key.Building,
		Floor:      snap.key.Floor,
		StartLabel: from.LocationID,
		EndLabel:   to.LocationID,
	}
	if c, err := snap.rooms.Position(from.LocationID); err == nil {
		opts.StartMarker = &c
	}
	if c, err := snap.rooms.Position(to.LocationID); err == nil {
		opts.EndMarker = &c
	}

	return e.generator.Generate(path.NodeIDs, snap.graph, snap.graph, opts)
}

type RoutePair struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type RouteResult struct {
	Route *guidance.RouteRecord
	Err   error
}

// RouteBatch. routes every pair on the worker pool against a single snapshot. results are in pair order.
func (e *Engine) RouteBatch(ctx context.Context, key FloorKey, pairs []RoutePair) ([]RouteResult, error) {
	snap, err := e.Snapshot(key)
	if err != nil {
		return nil, err
	}

	results, err := concurrent.Map(ctx, e.options.Workers, pairs, func(ctx context.Context, p RoutePair) RouteResult {
		ck := routeCacheKey{start: p.Start, end: p.End}
		if rec, ok := snap.routeCache.Get(ck); ok {
			return RouteResult{Route: rec.Reissue()}
		}
		rec, err := e.route(snap, p.Start, p.End)
		if err == nil {
			snap.routeCache.Add(ck, rec)
		}
		return RouteResult{Route: rec, Err: err}
	})
	return results, err
}

// DistanceMatrix. walking distances in meters between every pair of locations, row = from. a nil cell
// means no path.
type DistanceMatrix struct {
	Locations []string     `json:"locations"`
	Distances [][]*float64 `json:"distances"`
}

type distanceRow struct {
	dists map[string]float64
	err   error
}

/*
DistanceMatrix. resolves every location to its node and runs one single-source search per distinct
node on the worker pool, all against one snapshot. an unresolvable location fails the whole matrix.
*/
func (e *Engine) DistanceMatrix(ctx context.Context, key FloorKey, locations []string) (*DistanceMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := e.Snapshot(key)
	if err != nil {
		return nil, err
	}

	nodes := make([]string, len(locations))
	sources := make([]string, 0, len(locations))
	seen := make(map[string]struct{}, len(locations))
	for i, loc := range locations {
		res, err := snap.rooms.Resolve(loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", loc, routing.ErrNodeNotFound, err)
		}
		nodes[i] = res.NodeID
		if _, ok := seen[res.NodeID]; !ok {
			seen[res.NodeID] = struct{}{}
			sources = append(sources, res.NodeID)
		}
	}

	rows, err := concurrent.Map(ctx, e.options.Workers, sources, func(_ context.Context, node string) distanceRow {
		dists, err := snap.router.Distances(node)
		return distanceRow{dists: dists, err: err}
	})
	if err != nil {
		return nil, err
	}
	bySource := make(map[string]map[string]float64, len(sources))
	for i, row := range rows {
		if row.err != nil {
			return nil, row.err
		}
		bySource[sources[i]] = row.dists
	}

	m := &DistanceMatrix{
		Locations: locations,
		Distances: make([][]*float64, len(locations)),
	}
	for i := range locations {
		m.Distances[i] = make([]*float64, len(locations))
		for j := range locations {
			if d, ok := bySource[nodes[i]][nodes[j]]; ok {
				m.Distances[i][j] = &d
			}
		}
	}
	return m, nil
}

func (e *Engine) Rooms(key FloorKey) ([]navgraph.Room, error) {
	snap, err := e.Snapshot(key)
	if err != nil {
		return nil, err
	}
	return snap.rooms.Rooms(), nil
}

// RoomCenters. manual override coordinates the floor was loaded with.
func (e *Engine) RoomCenters(key FloorKey) (map[string]datastructure.PlanarPoint, error) {
	snap, err := e.Snapshot(key)
	if err != nil {
		return nil, err
	}
	return snap.rooms.GetOverrides().Snapshot(), nil
}

func (e *Engine) ToPlanar(key FloorKey, c geo.Coordinate) (datastructure.PlanarPoint, error) {
	snap, err := e.Snapshot(key)
	if err != nil {
		return datastructure.PlanarPoint{}, err
	}
	return snap.transformer.Inverse(c)
}

func (e *Engine) ToGeographic(key FloorKey, p datastructure.PlanarPoint) (geo.Coordinate, error) {
	snap, err := e.Snapshot(key)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return snap.transformer.Forward(p), nil
}
