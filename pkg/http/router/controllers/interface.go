package controllers

import (
	"context"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/http/usecases"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
)

type RoutingService interface {
	Floors() []usecases.FloorStatus
	Route(ctx context.Context, building, floor, start, end string) (*guidance.RouteRecord, error)
	RouteBatch(ctx context.Context, building, floor string, pairs []engine.RoutePair) ([]engine.RouteResult, error)
	DistanceMatrix(ctx context.Context, building, floor string, locations []string) (*engine.DistanceMatrix, error)
	Rooms(building, floor string) ([]navgraph.Room, error)
	RoomCenters(building, floor string) (map[string]datastructure.PlanarPoint, error)
	Reload(ctx context.Context, building, floor string) (usecases.FloorStatus, error)
	ToPlanar(building, floor string, lat, lon float64) (datastructure.PlanarPoint, error)
	ToGeographic(building, floor string, x, y float64) (geo.Coordinate, error)
}
