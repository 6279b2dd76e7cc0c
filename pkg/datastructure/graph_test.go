package datastructure

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *Graph {
	vertices := []*Vertex{
		NewVertex("C", NewPlanarPoint(30, 0), geo.NewCoordinate(43.0003, -81.0), Tags{{Kind: TAG_ROOM, TargetID: "R3"}}),
		NewVertex("A", NewPlanarPoint(0, 0), geo.NewCoordinate(43.0, -81.0), nil),
		NewVertex("B", NewPlanarPoint(10, 0), geo.NewCoordinate(43.0001, -81.0), Tags{{Kind: TAG_INTERSECTION}}),
		NewVertex("X", NewPlanarPoint(500, 500), geo.NewCoordinate(43.01, -81.01), nil),
		NewVertex("Y", NewPlanarPoint(510, 500), geo.NewCoordinate(43.0101, -81.01), nil),
	}
	adj := map[string][]Edge{
		"A": {{To: "B", Weight: 10}, {To: "C", Weight: 20}},
		"B": {{To: "A", Weight: 10}, {To: "C", Weight: 5}},
		"C": {{To: "B", Weight: 5}, {To: "A", Weight: 20}, {To: "missing", Weight: 1}},
		"X": {{To: "Y", Weight: 3}},
		"Y": {{To: "X", Weight: 3}},
	}
	return NewGraph("MC", "1", vertices, adj)
}

func TestGraphAccessors(t *testing.T) {
	g := sampleGraph()

	assert.Equal(t, 5, g.NumberOfVertices())
	assert.Equal(t, 8, g.NumberOfEdges())
	assert.Equal(t, []string{"A", "B", "C", "X", "Y"}, g.NodeIDs())
	assert.Equal(t, "MC", g.GetBuilding())
	assert.Equal(t, "1", g.GetFloor())

	assert.Equal(t, []Edge{{To: "B", Weight: 5}, {To: "A", Weight: 20}}, g.Edges("C"))
	assert.Nil(t, g.Edges("nope"))
	assert.True(t, g.HasEdge("A", "B"))
	assert.False(t, g.HasEdge("A", "X"))

	c, ok := g.Coordinate("B")
	require.True(t, ok)
	assert.Equal(t, geo.NewCoordinate(43.0001, -81.0), c)
	_, ok = g.Coordinate("nope")
	assert.False(t, ok)

	assert.Equal(t, Tags{{Kind: TAG_ROOM, TargetID: "R3"}}, g.Tags("C"))

	u, ok := g.GetIndex("C")
	require.True(t, ok)
	assert.Equal(t, "C", g.GetKey(u))
	assert.Equal(t, Index(2), g.GetOutDegree(u))

	bb := g.GetBoundingBox()
	assert.Equal(t, 43.0, bb.GetMinLat())
	assert.Equal(t, 43.0101, bb.GetMaxLat())
	assert.InDelta(t, 43.00505, bb.Center().Lat, 1e-9)
}

func TestGraphComponents(t *testing.T) {
	g := sampleGraph()

	assert.Equal(t, 2, g.NumberOfComponents())
	groups := g.Components()
	assert.ElementsMatch(t, [][]string{{"A", "B", "C"}, {"X", "Y"}}, groups)
}

func TestDirectedComponents(t *testing.T) {
	vertices := []*Vertex{
		NewVertex("A", NewPlanarPoint(0, 0), geo.NewCoordinate(0, 0), nil),
		NewVertex("B", NewPlanarPoint(1, 0), geo.NewCoordinate(0, 1), nil),
	}
	g := NewGraph("b", "f", vertices, map[string][]Edge{"A": {{To: "B", Weight: 1}}})

	// a one way edge does not make a strongly connected pair
	assert.Equal(t, 2, g.NumberOfComponents())
}

func TestGraphSnapshotRoundTrip(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	require.NoError(t, g.Encode(&buf))

	got, err := DecodeGraph(&buf)
	require.NoError(t, err)

	assert.Equal(t, g.NodeIDs(), got.NodeIDs())
	assert.Equal(t, g.GetBuilding(), got.GetBuilding())
	assert.Equal(t, g.GetFloor(), got.GetFloor())
	assert.Equal(t, g.NumberOfEdges(), got.NumberOfEdges())
	for _, id := range g.NodeIDs() {
		assert.Equal(t, g.Edges(id), got.Edges(id), id)
		assert.Equal(t, g.Tags(id), got.Tags(id), id)
		wantC, _ := g.Coordinate(id)
		gotC, _ := got.Coordinate(id)
		assert.Equal(t, wantC, gotC, id)
		wantP, _ := g.Planar(id)
		gotP, _ := got.Planar(id)
		assert.Equal(t, wantP, gotP, id)
	}
}

func TestGraphSnapshotFile(t *testing.T) {
	g := sampleGraph()
	path := filepath.Join(t.TempDir(), "MC_1.graph")

	require.NoError(t, g.WriteGraph(path))
	got, err := ReadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumberOfComponents())
}

func TestDecodeGraphRejectsGarbage(t *testing.T) {
	_, err := DecodeGraph(bytes.NewBufferString("definitely not bzip2"))
	assert.Error(t, err)
}

func TestDecodeGraphRejectsNegativeCounts(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{"negative vertices", `"MC"` + "\t" + `"1"` + "\t-1\t0"},
		{"negative edges", `"MC"` + "\t" + `"1"` + "\t0\t-3"},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			bz, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{})
			require.NoError(t, err)
			_, err = bz.Write([]byte(snapshotMagic + "\n" + tt.header + "\n"))
			require.NoError(t, err)
			require.NoError(t, bz.Close())

			_, err = DecodeGraph(&buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "negative count")
		})
	}
}
