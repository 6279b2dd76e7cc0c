package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/engine/routing"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/topology"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingEngine. every call fails with err.
type failingEngine struct {
	err error
}

func (f failingEngine) Floors() []engine.FloorKey {
	return []engine.FloorKey{engine.NewFloorKey("M", "1")}
}

func (f failingEngine) Snapshot(key engine.FloorKey) (*engine.Snapshot, error) {
	return nil, f.err
}

func (f failingEngine) LoadFloor(ctx context.Context, key engine.FloorKey) error {
	return f.err
}

func (f failingEngine) Route(ctx context.Context, key engine.FloorKey, start, end string) (*guidance.RouteRecord, error) {
	return nil, f.err
}

func (f failingEngine) RouteBatch(ctx context.Context, key engine.FloorKey, pairs []engine.RoutePair) ([]engine.RouteResult, error) {
	results := make([]engine.RouteResult, len(pairs))
	for i := range results {
		results[i].Err = f.err
	}
	return results, nil
}

func (f failingEngine) DistanceMatrix(ctx context.Context, key engine.FloorKey, locations []string) (*engine.DistanceMatrix, error) {
	return nil, f.err
}

func (f failingEngine) Rooms(key engine.FloorKey) ([]navgraph.Room, error) {
	return nil, f.err
}

func (f failingEngine) RoomCenters(key engine.FloorKey) (map[string]datastructure.PlanarPoint, error) {
	return nil, f.err
}

func (f failingEngine) ToPlanar(key engine.FloorKey, c geo.Coordinate) (datastructure.PlanarPoint, error) {
	return datastructure.PlanarPoint{}, f.err
}

func (f failingEngine) ToGeographic(key engine.FloorKey, p datastructure.PlanarPoint) (geo.Coordinate, error) {
	return geo.Coordinate{}, f.err
}

func codeOf(t *testing.T, err error) error {
	t.Helper()
	var ierr *util.Error
	require.True(t, errors.As(err, &ierr), "error carries a code")
	return ierr.Code()
}

func TestRouteErrorCodes(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"unknown floor", fmt.Errorf("M/9: %w", engine.ErrUnknownFloor), util.ErrNotFound},
		{"not loaded", engine.ErrFloorNotLoaded, util.ErrNotFound},
		{"unknown node", fmt.Errorf("start: %w: %w", routing.ErrNodeNotFound, navgraph.ErrUnknownLocation), util.ErrNotFound},
		{"no path", routing.ErrNoPathFound, util.ErrBadParamInput},
		{"bad transform input", transform.ErrInvalidTransformInput, util.ErrBadParamInput},
		{"empty route", guidance.ErrEmptyRoute, util.ErrInternalServerError},
		{"deadline", context.DeadlineExceeded, util.ErrInternalServerError},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRoutingService(zap.NewNop(), failingEngine{err: tt.err})
			_, err := rs.Route(context.Background(), "M", "1", "A", "B")
			require.Error(t, err)
			assert.Equal(t, tt.want, codeOf(t, err))
			assert.True(t, errors.Is(err, tt.err), "original error stays reachable")
		})
	}
}

func TestReloadErrorCodes(t *testing.T) {
	rs := NewRoutingService(zap.NewNop(), failingEngine{err: engine.ErrUnknownFloor})
	_, err := rs.Reload(context.Background(), "X", "1")
	assert.Equal(t, util.ErrNotFound, codeOf(t, err))

	rs = NewRoutingService(zap.NewNop(), failingEngine{err: fmt.Errorf("decode: %w", topology.ErrInvalidTopology)})
	_, err = rs.Reload(context.Background(), "M", "1")
	assert.Equal(t, util.ErrInternalServerError, codeOf(t, err))

	rs = NewRoutingService(zap.NewNop(), failingEngine{err: transform.ErrInvalidTransformInput})
	_, err = rs.Reload(context.Background(), "M", "1")
	assert.Equal(t, util.ErrInternalServerError, codeOf(t, err), "bad floor files are a server problem")
}

func TestBatchWrapsEachPair(t *testing.T) {
	rs := NewRoutingService(zap.NewNop(), failingEngine{err: routing.ErrNoPathFound})
	results, err := rs.RouteBatch(context.Background(), "M", "1", []engine.RoutePair{{Start: "A", End: "B"}, {Start: "C", End: "D"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, util.ErrBadParamInput, codeOf(t, res.Err))
	}

	floors := rs.Floors()
	require.Len(t, floors, 1)
	assert.False(t, floors[0].Loaded)
}
