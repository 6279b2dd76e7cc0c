package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/engine/routing"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"go.uber.org/zap"
)

type RoutingService struct {
	log    *zap.Logger
	engine NavigationEngine
}

func NewRoutingService(log *zap.Logger, engine NavigationEngine) *RoutingService {
	return &RoutingService{
		log:    log,
		engine: engine,
	}
}

type FloorStatus struct {
	Building string
	Floor    string
	Loaded   bool
	LoadedAt time.Time
	Vertices int
	Edges    int
	Bounds   *datastructure.BoundingBox
	Report   *navgraph.BuildReport
}

func newFloorStatus(key engine.FloorKey, snap *engine.Snapshot) FloorStatus {
	st := FloorStatus{Building: key.Building, Floor: key.Floor}
	if snap == nil {
		return st
	}
	st.Loaded = true
	st.LoadedAt = snap.GetLoadedAt()
	st.Vertices = snap.GetGraph().NumberOfVertices()
	st.Edges = snap.GetGraph().NumberOfEdges()
	st.Bounds = snap.GetGraph().GetBoundingBox()
	st.Report = snap.GetReport()
	return st
}

func (rs *RoutingService) Floors() []FloorStatus {
	keys := rs.engine.Floors()
	floors := make([]FloorStatus, 0, len(keys))
	for _, key := range keys {
		snap, _ := rs.engine.Snapshot(key)
		floors = append(floors, newFloorStatus(key, snap))
	}
	return floors
}

func (rs *RoutingService) Route(ctx context.Context, building, floor, start, end string) (*guidance.RouteRecord, error) {
	key := engine.NewFloorKey(building, floor)
	rec, err := rs.engine.Route(ctx, key, start, end)
	if err != nil {
		return nil, rs.wrap(err, "route %s -> %s on floor %s", start, end, key)
	}
	return rec, nil
}

// RouteBatch. per-pair failures are wrapped in place; only a floor level failure fails the whole batch.
func (rs *RoutingService) RouteBatch(ctx context.Context, building, floor string, pairs []engine.RoutePair) ([]engine.RouteResult, error) {
	key := engine.NewFloorKey(building, floor)
	results, err := rs.engine.RouteBatch(ctx, key, pairs)
	if err != nil {
		return nil, rs.wrap(err, "batch of %d routes on floor %s", len(pairs), key)
	}
	for i := range results {
		if results[i].Err != nil {
			results[i].Err = rs.wrap(results[i].Err, "route %s -> %s", pairs[i].Start, pairs[i].End)
		}
	}
	return results, nil
}

func (rs *RoutingService) DistanceMatrix(ctx context.Context, building, floor string, locations []string) (*engine.DistanceMatrix, error) {
	key := engine.NewFloorKey(building, floor)
	m, err := rs.engine.DistanceMatrix(ctx, key, locations)
	if err != nil {
		return nil, rs.wrap(err, "distance matrix of %d locations on floor %s", len(locations), key)
	}
	return m, nil
}

func (rs *RoutingService) Rooms(building, floor string) ([]navgraph.Room, error) {
	key := engine.NewFloorKey(building, floor)
	rooms, err := rs.engine.Rooms(key)
	if err != nil {
		return nil, rs.wrap(err, "rooms of floor %s", key)
	}
	return rooms, nil
}

func (rs *RoutingService) RoomCenters(building, floor string) (map[string]datastructure.PlanarPoint, error) {
	key := engine.NewFloorKey(building, floor)
	centers, err := rs.engine.RoomCenters(key)
	if err != nil {
		return nil, rs.wrap(err, "room centers of floor %s", key)
	}
	return centers, nil
}

// Reload. rebuilds the floor from its files. a failed reload leaves the previous snapshot serving.
func (rs *RoutingService) Reload(ctx context.Context, building, floor string) (FloorStatus, error) {
	key := engine.NewFloorKey(building, floor)
	if err := rs.engine.LoadFloor(ctx, key); err != nil {
		code := errorCode(err)
		if code != util.ErrNotFound {
			// bad files on disk are a server side problem, not the caller's
			code = util.ErrInternalServerError
		}
		return FloorStatus{}, rs.wrapCode(err, code, "reload floor %s", key)
	}
	snap, err := rs.engine.Snapshot(key)
	if err != nil {
		return FloorStatus{}, rs.wrap(err, "reload floor %s", key)
	}
	return newFloorStatus(key, snap), nil
}

func (rs *RoutingService) ToPlanar(building, floor string, lat, lon float64) (datastructure.PlanarPoint, error) {
	key := engine.NewFloorKey(building, floor)
	p, err := rs.engine.ToPlanar(key, geo.NewCoordinate(lat, lon))
	if err != nil {
		return datastructure.PlanarPoint{}, rs.wrap(err, "inverse transform of %f,%f on floor %s", lat, lon, key)
	}
	return p, nil
}

func (rs *RoutingService) ToGeographic(building, floor string, x, y float64) (geo.Coordinate, error) {
	key := engine.NewFloorKey(building, floor)
	c, err := rs.engine.ToGeographic(key, datastructure.NewPlanarPoint(x, y))
	if err != nil {
		return geo.Coordinate{}, rs.wrap(err, "forward transform of %f,%f on floor %s", x, y, key)
	}
	return c, nil
}

// wrap. attaches the error code the http layer maps to a status.
func (rs *RoutingService) wrap(err error, format string, a ...interface{}) error {
	return rs.wrapCode(err, errorCode(err), format, a...)
}

func (rs *RoutingService) wrapCode(err, code error, format string, a ...interface{}) error {
	if code == util.ErrInternalServerError {
		rs.log.Error(fmt.Sprintf(format, a...), zap.Error(err))
	}
	return util.WrapErrorf(err, code, format, a...)
}

func errorCode(err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownFloor),
		errors.Is(err, engine.ErrFloorNotLoaded),
		errors.Is(err, routing.ErrNodeNotFound):
		return util.ErrNotFound
	case errors.Is(err, routing.ErrNoPathFound),
		errors.Is(err, transform.ErrInvalidTransformInput):
		return util.ErrBadParamInput
	default:
		return util.ErrInternalServerError
	}
}
