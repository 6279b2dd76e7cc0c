package navgraph

import (
	"errors"
	"testing"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/overrides"
	"github.com/lintang-b-s/indoornav/pkg/topology"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticPositions map[string]datastructure.PlanarPoint

func (s staticPositions) Resolve(id string) (datastructure.PlanarPoint, bool) {
	p, ok := s[id]
	return p, ok
}

func (s staticPositions) Centroid(id string) (datastructure.PlanarPoint, bool) {
	return s.Resolve(id)
}

func testTransformer(t *testing.T) *transform.Transformer {
	t.Helper()
	tr, err := transform.NewTransformer(transform.NewViewBox(0, 0, 1000, 1000), []geo.Coordinate{
		geo.NewCoordinate(43.0010, -81.0010),
		geo.NewCoordinate(43.0010, -81.0000),
		geo.NewCoordinate(43.0000, -81.0000),
		geo.NewCoordinate(43.0000, -81.0010),
	})
	require.NoError(t, err)
	return tr
}

func floorPositions() staticPositions {
	return staticPositions{
		"A": datastructure.NewPlanarPoint(0, 0),
		"B": datastructure.NewPlanarPoint(100, 0),
		"C": datastructure.NewPlanarPoint(100, 100),
		"D": datastructure.NewPlanarPoint(200, 100),
	}
}

func room(target string) datastructure.Tags {
	return datastructure.Tags{datastructure.NewRepresentsTag(datastructure.TAG_ROOM, target)}
}

func floorDescription() *topology.Description {
	return &topology.Description{
		Building: "M",
		Floor:    "1",
		Nodes: map[string]topology.NodeSpec{
			"A": {Connections: []string{"B", "C", "E", "A", "B"}, Represents: room("R3")},
			"B": {Connections: []string{"A", "C"}},
			"C": {Connections: []string{"A", "B"}, Represents: room("R3")},
			"D": {Connections: []string{"C"}, Represents: room("R2")},
			"E": {Connections: []string{"A"}},
		},
		RoomToNode:       map[string]string{"Room_1": "B"},
		LocationToNode:   map[string]string{"Cafe": "C"},
		RoomDescriptions: map[string]string{"Room_1": "Lecture hall"},
		Aliases:          map[string]string{"coffee": "Cafe"},
	}
}

func TestBuildRepair(t *testing.T) {
	tr := testTransformer(t)
	pos := floorPositions()
	b := NewGraphBuilder(zap.NewNop(), ReciprocityRepair)

	g, report, err := b.Build(floorDescription(), pos, tr)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, g.NodeIDs())
	assert.Equal(t, []string{"E"}, report.Unresolved)
	assert.Equal(t, []EdgeRef{{From: "A", To: "E"}}, report.DroppedEdges)
	assert.Equal(t, []EdgeRef{{From: "C", To: "D"}}, report.RepairedEdges)
	assert.Len(t, report.Components, 1)

	edgesA := g.Edges("A")
	require.Len(t, edgesA, 2)
	assert.Equal(t, "B", edgesA[0].To)
	assert.Equal(t, "C", edgesA[1].To)

	wantAB := geo.DistanceMeters(tr.Forward(pos["A"]), tr.Forward(pos["B"]))
	assert.InDelta(t, wantAB, edgesA[0].Weight, 1e-9)

	edgesC := g.Edges("C")
	require.Len(t, edgesC, 3)
	assert.Equal(t, "D", edgesC[2].To, "repaired edges follow declared ones")
	assert.InDelta(t, g.Edges("D")[0].Weight, edgesC[2].Weight, 1e-9)

	for _, id := range g.NodeIDs() {
		for _, e := range g.Edges(id) {
			assert.True(t, g.HasEdge(e.To, id), "%s -> %s has no reverse", id, e.To)
			assert.True(t, g.HasNode(e.To), "dangling edge %s -> %s", id, e.To)
		}
	}

	c, ok := g.Coordinate("B")
	require.True(t, ok)
	assert.Equal(t, tr.Forward(pos["B"]), c)
	assert.Equal(t, room("R2"), g.Tags("D"))
}

func TestBuildReject(t *testing.T) {
	b := NewGraphBuilder(zap.NewNop(), ReciprocityReject)
	_, _, err := b.Build(floorDescription(), floorPositions(), testTransformer(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAsymmetricTopology))
}

func TestBuildDirected(t *testing.T) {
	b := NewGraphBuilder(zap.NewNop(), ReciprocityDirected)
	g, report, err := b.Build(floorDescription(), floorPositions(), testTransformer(t))
	require.NoError(t, err)

	assert.False(t, g.HasEdge("C", "D"))
	assert.True(t, g.HasEdge("D", "C"))
	assert.Empty(t, report.RepairedEdges)
	assert.Equal(t, [][]string{{"A", "B", "C"}, {"D"}}, report.Components)
}

func TestBuildNothingResolves(t *testing.T) {
	b := NewGraphBuilder(zap.NewNop(), ReciprocityRepair)
	_, report, err := b.Build(floorDescription(), staticPositions{}, testTransformer(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvableNode))
	assert.Len(t, report.Unresolved, 5)
}

func TestParseReciprocityPolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    ReciprocityPolicy
		wantErr bool
	}{
		{"", ReciprocityRepair, false},
		{"repair", ReciprocityRepair, false},
		{"reject", ReciprocityReject, false},
		{"directed", ReciprocityDirected, false},
		{"sometimes", ReciprocityRepair, true},
	}
	for _, tt := range testCases {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReciprocityPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func buildRoomIndex(t *testing.T) (*RoomIndex, *transform.Transformer) {
	t.Helper()
	tr := testTransformer(t)
	desc := floorDescription()
	g, _, err := NewGraphBuilder(zap.NewNop(), ReciprocityRepair).Build(desc, floorPositions(), tr)
	require.NoError(t, err)

	plan := staticPositions{"Room_9": datastructure.NewPlanarPoint(190, 110)}
	store := overrides.MapStore{"Room_10": datastructure.NewPlanarPoint(5, 5)}
	return NewRoomIndex(g, desc, plan, store, tr, zap.NewNop()), tr
}

func TestRoomIndexResolve(t *testing.T) {
	ri, _ := buildRoomIndex(t)

	testCases := []struct {
		location   string
		wantNode   string
		wantMethod ResolveMethod
	}{
		{"A", "A", ResolvedNode},
		{"Room_1", "B", ResolvedRoomToNode},
		{"Cafe", "C", ResolvedLocationToNode},
		{"Coffee", "C", ResolvedLocationToNode},
		{"R2", "D", ResolvedTag},
		{"R3", "A", ResolvedTag},
		{"Room_9", "D", ResolvedNearestCorridor},
		{"Room_10", "A", ResolvedNearestCorridor},
	}
	for _, tt := range testCases {
		t.Run(tt.location, func(t *testing.T) {
			res, err := ri.Resolve(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNode, res.NodeID)
			assert.Equal(t, tt.wantMethod, res.Method)
		})
	}

	_, err := ri.Resolve("Nope")
	assert.True(t, errors.Is(err, ErrUnknownLocation))
}

func TestRoomIndexPosition(t *testing.T) {
	ri, tr := buildRoomIndex(t)

	c, err := ri.Position("Room_10")
	require.NoError(t, err)
	assert.Equal(t, tr.Forward(datastructure.NewPlanarPoint(5, 5)), c)

	c, err = ri.Position("Room_1")
	require.NoError(t, err)
	assert.Equal(t, tr.Forward(datastructure.NewPlanarPoint(100, 0)), c)

	_, err = ri.Position("Nope")
	assert.Error(t, err)
}

func TestRoomIndexRooms(t *testing.T) {
	ri, _ := buildRoomIndex(t)

	rooms := ri.Rooms()
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"Cafe", "R2", "R3", "Room_1"}, ids)
	assert.Equal(t, "Lecture hall", rooms[3].Description)
	assert.Equal(t, "B", rooms[3].NodeID)
	assert.True(t, rooms[3].HasPosition)

	assert.Equal(t, "R3", ri.Label("A"))
	assert.Equal(t, "B", ri.Label("B"))
	assert.Equal(t, "Lecture hall", ri.Description("Room_1"))
}
