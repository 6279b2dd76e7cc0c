package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine/routing"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const floorSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1000 1000">
  <rect id="Room_A" x="100" y="150" width="100" height="100"/>
  <rect id="Room_B" x="450" y="520" width="100" height="80"/>
  <circle id="N1" cx="100" cy="100" r="4"/>
  <circle id="N2" cx="500" cy="100" r="4"/>
  <circle id="N3" cx="500" cy="500" r="4"/>
  <circle id="N4" cx="900" cy="500" r="4"/>
</svg>`

const floorTopology = `{
  "building": "M",
  "floor": "1",
  "nodes": {
    "N1": {"connections": ["N2"], "represents": {"kind": "room", "targetId": "Room_A"}},
    "N2": {"connections": ["N1", "N3"], "represents": {"kind": "intersection"}},
    "N3": {"connections": ["N2", "N4"]},
    "N4": {"connections": ["N3"], "represents": {"kind": "room", "targetId": "Room_B"}},
    "N9": {"connections": ["N1"]}
  },
  "roomDescriptions": {"Room_A": "Seminar room"}
}`

const splitTopology = `{
  "nodes": {
    "N1": {"connections": ["N2"], "represents": {"kind": "room", "targetId": "Room_A"}},
    "N2": {"connections": ["N1", "N3"], "represents": {"kind": "intersection"}},
    "N3": {"connections": ["N2"]},
    "N4": {"connections": [], "represents": {"kind": "room", "targetId": "Room_B"}}
  }
}`

const footprintGeoJSON = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"name": "M"},
    "geometry": {"type": "Polygon", "coordinates": [[[-81.001, 43.0], [-81.0, 43.0], [-81.0, 43.001], [-81.001, 43.001], [-81.001, 43.0]]]}
  }]
}`

var (
	floorM1 = NewFloorKey("M", "1")
	corners = [][2]float64{{43.001, -81.001}, {43.001, -81.0}, {43.0, -81.0}, {43.0, -81.001}}
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func floorConfig(t *testing.T) util.FloorConfig {
	t.Helper()
	dir := t.TempDir()
	return util.FloorConfig{
		Building:  "M",
		Floor:     "1",
		Plan:      writeFile(t, dir, "m1.svg", floorSVG),
		Topology:  writeFile(t, dir, "m1.json", floorTopology),
		Overrides: writeFile(t, dir, "room_centers.json", `{"_comment": "x", "Room_B": {"x": 880, "y": 520}}`),
		Corners:   corners,
	}
}

func loadedEngine(t *testing.T) (*Engine, util.FloorConfig) {
	t.Helper()
	cfg := floorConfig(t)
	e, err := NewEngine([]util.FloorConfig{cfg}, zap.NewNop(), Options{})
	require.NoError(t, err)
	require.NoError(t, e.LoadAll(context.Background()))
	return e, cfg
}

func TestEngineNotLoaded(t *testing.T) {
	e, err := NewEngine([]util.FloorConfig{floorConfig(t)}, zap.NewNop(), Options{})
	require.NoError(t, err)

	_, err = e.Route(context.Background(), floorM1, "Room_A", "Room_B")
	assert.True(t, errors.Is(err, ErrFloorNotLoaded))
	assert.False(t, e.IsLoaded(floorM1))

	_, err = e.Route(context.Background(), NewFloorKey("M", "9"), "Room_A", "Room_B")
	assert.True(t, errors.Is(err, ErrUnknownFloor))
	assert.True(t, errors.Is(e.LoadFloor(context.Background(), NewFloorKey("X", "1")), ErrUnknownFloor))

	_, err = NewEngine([]util.FloorConfig{floorConfig(t), floorConfig(t)}, zap.NewNop(), Options{})
	assert.Error(t, err)
}

func TestEngineRoute(t *testing.T) {
	e, _ := loadedEngine(t)
	ctx := context.Background()

	snap, err := e.Snapshot(floorM1)
	require.NoError(t, err)
	assert.Equal(t, []string{"N9"}, snap.GetReport().Unresolved)

	rec, err := e.Route(ctx, floorM1, "Room_A", "Room_B")
	require.NoError(t, err)
	assert.Equal(t, []string{"N1", "N2", "N3", "N4"}, rec.NodeIDs)
	assert.Equal(t, "Room_A", rec.Start)
	assert.Equal(t, "Room_B", rec.End)
	assert.Equal(t, 1, rec.TurnCount)
	assert.Equal(t, []string{"Room_A", "Room_B"}, rec.Rooms)
	assert.Equal(t, "M", rec.Building)

	tr := snap.GetTransformer()
	require.NotNil(t, rec.StartMarker)
	require.NotNil(t, rec.EndMarker)
	assert.Equal(t, tr.Forward(datastructure.NewPlanarPoint(150, 200)), *rec.StartMarker)
	assert.Equal(t, tr.Forward(datastructure.NewPlanarPoint(880, 520)), *rec.EndMarker)

	again, err := e.Route(ctx, floorM1, "Room_A", "Room_B")
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, again.ID, "every returned record has its own id")
	assert.Equal(t, rec.NodeIDs, again.NodeIDs)
	assert.Equal(t, rec.DistanceMeters, again.DistanceMeters)
	cached, ok := snap.routeCache.Get(routeCacheKey{start: "Room_A", end: "Room_B"})
	require.True(t, ok)
	assert.Same(t, &cached.NodeIDs[0], &again.NodeIDs[0], "cache hits share the cached slices")

	_, err = e.Route(ctx, floorM1, "Room_A", "Nowhere")
	assert.True(t, errors.Is(err, routing.ErrNodeNotFound))
	assert.True(t, errors.Is(err, navgraph.ErrUnknownLocation))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Route(cancelled, floorM1, "Room_A", "Room_B")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineReloadReplacesSnapshot(t *testing.T) {
	e, cfg := loadedEngine(t)
	ctx := context.Background()

	old, err := e.Snapshot(floorM1)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(cfg.Topology, []byte(splitTopology), 0o644))
	require.NoError(t, e.LoadFloor(ctx, floorM1))

	current, err := e.Snapshot(floorM1)
	require.NoError(t, err)
	assert.NotSame(t, old, current)

	_, err = e.Route(ctx, floorM1, "Room_A", "Room_B")
	assert.True(t, errors.Is(err, routing.ErrNoPathFound))

	// in-flight holders of the old snapshot are unaffected
	p, err := old.GetRouter().ShortestPath("N1", "N4")
	require.NoError(t, err)
	assert.Len(t, p.NodeIDs, 4)

	require.NoError(t, os.WriteFile(cfg.Topology, []byte(`{"nodes": "broken"}`), 0o644))
	assert.Error(t, e.LoadFloor(ctx, floorM1))
	still, err := e.Snapshot(floorM1)
	require.NoError(t, err)
	assert.Same(t, current, still, "a failed reload keeps the published snapshot")
}

func TestEngineRouteBatch(t *testing.T) {
	e, _ := loadedEngine(t)

	results, err := e.RouteBatch(context.Background(), floorM1, []RoutePair{
		{Start: "Room_A", End: "Room_B"},
		{Start: "N1", End: "N1"},
		{Start: "Room_A", End: "Nope"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, 4, results[0].Route.NodeCount)
	require.NoError(t, results[1].Err)
	assert.Equal(t, []string{"N1"}, results[1].Route.NodeIDs)
	assert.True(t, errors.Is(results[2].Err, routing.ErrNodeNotFound))
}

func TestEngineDistanceMatrix(t *testing.T) {
	e, cfg := loadedEngine(t)
	ctx := context.Background()

	rec, err := e.Route(ctx, floorM1, "Room_A", "Room_B")
	require.NoError(t, err)

	m, err := e.DistanceMatrix(ctx, floorM1, []string{"Room_A", "Room_B", "N1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Room_A", "Room_B", "N1"}, m.Locations)
	require.Len(t, m.Distances, 3)

	require.NotNil(t, m.Distances[0][1])
	assert.InDelta(t, rec.DistanceMeters, *m.Distances[0][1], 1e-6)
	require.NotNil(t, m.Distances[1][0])
	assert.InDelta(t, *m.Distances[0][1], *m.Distances[1][0], 1e-9)
	// Room_A and N1 resolve to the same node
	assert.Equal(t, 0.0, *m.Distances[0][2])
	assert.Equal(t, 0.0, *m.Distances[2][0])

	_, err = e.DistanceMatrix(ctx, floorM1, []string{"Room_A", "Nowhere"})
	assert.True(t, errors.Is(err, routing.ErrNodeNotFound))
	_, err = e.DistanceMatrix(ctx, NewFloorKey("M", "9"), []string{"Room_A"})
	assert.True(t, errors.Is(err, ErrUnknownFloor))

	require.NoError(t, os.WriteFile(cfg.Topology, []byte(splitTopology), 0o644))
	require.NoError(t, e.LoadFloor(ctx, floorM1))
	m, err = e.DistanceMatrix(ctx, floorM1, []string{"Room_A", "Room_B"})
	require.NoError(t, err)
	assert.Nil(t, m.Distances[0][1], "no path leaves the cell empty")
	assert.Equal(t, 0.0, *m.Distances[1][1])
}

func TestEngineConversionsAndRooms(t *testing.T) {
	e, _ := loadedEngine(t)

	p := datastructure.NewPlanarPoint(250, 640)
	c, err := e.ToGeographic(floorM1, p)
	require.NoError(t, err)
	back, err := e.ToPlanar(floorM1, c)
	require.NoError(t, err)
	assert.InDelta(t, p.X, back.X, 1)
	assert.InDelta(t, p.Y, back.Y, 1)

	rooms, err := e.Rooms(floorM1)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Room_A", rooms[0].ID)
	assert.Equal(t, "Seminar room", rooms[0].Description)
	assert.Equal(t, "N4", rooms[1].NodeID)

	centers, err := e.RoomCenters(floorM1)
	require.NoError(t, err)
	assert.Equal(t, map[string]datastructure.PlanarPoint{"Room_B": datastructure.NewPlanarPoint(880, 520)}, centers)

	_, err = e.ToPlanar(NewFloorKey("M", "9"), geo.NewCoordinate(0, 0))
	assert.True(t, errors.Is(err, ErrUnknownFloor))
}

func TestEngineFootprintCorners(t *testing.T) {
	cfg := floorConfig(t)
	cfg.Corners = nil
	cfg.Footprint = writeFile(t, t.TempDir(), "campus.geojson", footprintGeoJSON)
	cfg.FootprintName = "M"

	e, err := NewEngine([]util.FloorConfig{cfg}, zap.NewNop(), Options{})
	require.NoError(t, err)
	require.NoError(t, e.LoadFloor(context.Background(), floorM1))

	snap, err := e.Snapshot(floorM1)
	require.NoError(t, err)
	q := snap.GetTransformer().GetQuad()
	assert.InDelta(t, 43.001, q[transform.TopLeft].Lat, 1e-9)
	assert.InDelta(t, -81.001, q[transform.TopLeft].Lon, 1e-9)

	cfg.Footprint = ""
	e, err = NewEngine([]util.FloorConfig{cfg}, zap.NewNop(), Options{})
	require.NoError(t, err)
	err = e.LoadFloor(context.Background(), floorM1)
	assert.True(t, errors.Is(err, transform.ErrInvalidTransformInput))
}
