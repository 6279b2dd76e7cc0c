package usecases

import (
	"context"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
)

type NavigationEngine interface {
	Floors() []engine.FloorKey
	Snapshot(key engine.FloorKey) (*engine.Snapshot, error)
	LoadFloor(ctx context.Context, key engine.FloorKey) error
	Route(ctx context.Context, key engine.FloorKey, start, end string) (*guidance.RouteRecord, error)
	RouteBatch(ctx context.Context, key engine.FloorKey, pairs []engine.RoutePair) ([]engine.RouteResult, error)
	DistanceMatrix(ctx context.Context, key engine.FloorKey, locations []string) (*engine.DistanceMatrix, error)
	Rooms(key engine.FloorKey) ([]navgraph.Room, error)
	RoomCenters(key engine.FloorKey) (map[string]datastructure.PlanarPoint, error)
	ToPlanar(key engine.FloorKey, c geo.Coordinate) (datastructure.PlanarPoint, error)
	ToGeographic(key engine.FloorKey, p datastructure.PlanarPoint) (geo.Coordinate, error)
}
