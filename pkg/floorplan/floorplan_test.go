package floorplan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const m1SVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1000 800" width="100%">
  <g id="Rooms">
    <rect id="Room_1003" x="100" y="200" width="80" height="40"/>
    <polygon id="Room_1004" points="300,300 400,300 400,360 300,360"/>
    <path id="Room_1006" d="M 500 100 L 600 100 L 600 180 L 500 180 Z"/>
    <path id="Hall" d="m10,10 h100 v50 h-100 z"/>
    <g id="Bathroom" transform="translate(700 600)">
      <rect id="Bathroom-Men" x="0" y="0" width="20" height="20"/>
      <rect x="40" y="0" width="20" height="20"/>
    </g>
  </g>
  <g id="Nodes" transform="translate(5, 5)">
    <circle id="M1_1" cx="120" cy="250" r="3"/>
    <circle id="M1_2" cx="320" cy="290" r="3"/>
    <ellipse id="M1_3" cx="10" cy="20" rx="4" ry="2"/>
    <text id="Label_1" x="50" y="60">1003</text>
  </g>
</svg>`

func parseM1(t *testing.T) *Plan {
	t.Helper()
	plan, err := ParsePlan(strings.NewReader(m1SVG))
	require.NoError(t, err)
	return plan
}

func TestParsePlanViewBox(t *testing.T) {
	plan := parseM1(t)
	assert.Equal(t, transform.NewViewBox(0, 0, 1000, 800), plan.ViewBox())
	assert.True(t, plan.Has("Room_1003"))
	assert.False(t, plan.Has("Room_9999"))
	assert.Equal(t, "Rooms", plan.ElementIDs()[0])
}

func TestParsePlanFallsBackToSize(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(`<svg width="640px" height="480"></svg>`))
	require.NoError(t, err)
	assert.Equal(t, transform.NewViewBox(0, 0, 640, 480), plan.ViewBox())
}

func TestParsePlanRejects(t *testing.T) {
	testCases := []struct {
		name string
		svg  string
	}{
		{"no root element", `just some text`},
		{"not svg", `<html></html>`},
		{"bad viewBox", `<svg viewBox="0 0 10"></svg>`},
		{"zero size viewBox", `<svg viewBox="0 0 0 10"></svg>`},
		{"relative size", `<svg width="100%" height="100%"></svg>`},
		{"bad transform", `<svg viewBox="0 0 1 1"><g transform="translate(1"/></svg>`},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(strings.NewReader(tt.svg))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPlan))
		})
	}
}

func TestNodePosition(t *testing.T) {
	plan := parseM1(t)
	transformed, err := ParsePlan(strings.NewReader(m1SVG), WithTransforms(true))
	require.NoError(t, err)

	testCases := []struct {
		id          string
		want        datastructure.PlanarPoint
		transformed datastructure.PlanarPoint
	}{
		{"M1_1", datastructure.NewPlanarPoint(120, 250), datastructure.NewPlanarPoint(125, 255)},
		{"M1_2", datastructure.NewPlanarPoint(320, 290), datastructure.NewPlanarPoint(325, 295)},
		{"M1_3", datastructure.NewPlanarPoint(10, 20), datastructure.NewPlanarPoint(15, 25)},
		{"Label_1", datastructure.NewPlanarPoint(50, 60), datastructure.NewPlanarPoint(55, 65)},
		{"Room_1003", datastructure.NewPlanarPoint(140, 220), datastructure.NewPlanarPoint(140, 220)},
	}
	for _, tt := range testCases {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := plan.NodePosition(tt.id)
			require.True(t, ok)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)

			got, ok = transformed.NodePosition(tt.id)
			require.True(t, ok)
			assert.InDelta(t, tt.transformed.X, got.X, 1e-9)
			assert.InDelta(t, tt.transformed.Y, got.Y, 1e-9)
		})
	}

	_, ok := plan.NodePosition("nope")
	assert.False(t, ok)
}

func TestNodePositionIgnoresRotatedLayer(t *testing.T) {
	const rotated = `<svg viewBox="0 0 1000 800">
  <circle id="n1" cx="100" cy="100" r="3" transform="rotate(-21.3 500 400)"/>
  <rect id="r1" x="80" y="80" width="40" height="40" transform="rotate(-21.3 500 400)"/>
</svg>`
	plan, err := ParsePlan(strings.NewReader(rotated))
	require.NoError(t, err)

	for _, id := range []string{"n1", "r1"} {
		got, ok := plan.NodePosition(id)
		require.True(t, ok)
		assert.InDelta(t, 100, got.X, 1e-9, id)
		assert.InDelta(t, 100, got.Y, 1e-9, id)
	}

	transformed, err := ParsePlan(strings.NewReader(rotated), WithTransforms(true))
	require.NoError(t, err)
	got, ok := transformed.NodePosition("n1")
	require.True(t, ok)
	assert.NotEqual(t, datastructure.NewPlanarPoint(100, 100), got)
}

func TestCentroid(t *testing.T) {
	plan := parseM1(t)
	transformed, err := ParsePlan(strings.NewReader(m1SVG), WithTransforms(true))
	require.NoError(t, err)

	testCases := []struct {
		id          string
		want        datastructure.PlanarPoint
		transformed datastructure.PlanarPoint
	}{
		{"Room_1003", datastructure.NewPlanarPoint(140, 220), datastructure.NewPlanarPoint(140, 220)},
		{"Room_1004", datastructure.NewPlanarPoint(350, 330), datastructure.NewPlanarPoint(350, 330)},
		{"Room_1006", datastructure.NewPlanarPoint(550, 140), datastructure.NewPlanarPoint(550, 140)},
		{"Hall", datastructure.NewPlanarPoint(60, 35), datastructure.NewPlanarPoint(60, 35)},
		{"Bathroom-Men", datastructure.NewPlanarPoint(10, 10), datastructure.NewPlanarPoint(710, 610)},
		{"Bathroom", datastructure.NewPlanarPoint(30, 10), datastructure.NewPlanarPoint(730, 610)},
	}
	for _, tt := range testCases {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := plan.Centroid(tt.id)
			require.True(t, ok)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)

			got, ok = transformed.Centroid(tt.id)
			require.True(t, ok)
			assert.InDelta(t, tt.transformed.X, got.X, 1e-9)
			assert.InDelta(t, tt.transformed.Y, got.Y, 1e-9)
		})
	}
}

func TestPathBoundsCurvesAndImplicitCommands(t *testing.T) {
	b, err := pathBounds("M0,0 10,0 10-10 C 20 -20, 30 -20, 40 0 q5,5 10,0 A 5 5 0 0 1 60 0", identity)
	require.NoError(t, err)
	assert.Equal(t, bbox{minX: 0, minY: -20, maxX: 60, maxY: 5, ok: true}, b)

	_, err = pathBounds("10 10", identity)
	assert.Error(t, err)
}

func TestParseTransform(t *testing.T) {
	m, err := parseTransform("translate(10,20) scale(2)")
	require.NoError(t, err)
	x, y := m.apply(1, 1)
	assert.InDelta(t, 12.0, x, 1e-9)
	assert.InDelta(t, 22.0, y, 1e-9)

	m, err = parseTransform("rotate(90 10 10)")
	require.NoError(t, err)
	x, y = m.apply(20, 10)
	assert.InDelta(t, 10.0, x, 1e-9)
	assert.InDelta(t, 20.0, y, 1e-9)

	m, err = parseTransform("matrix(1 0 0 1 3 4)")
	require.NoError(t, err)
	x, y = m.apply(0, 0)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

const footprintGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Building M"},
     "geometry": {"type": "Polygon", "coordinates": [[[-81.1999, 43.0138], [-81.1985, 43.0138], [-81.1985, 43.0146], [-81.1999, 43.0146], [-81.1999, 43.0138]]]}},
    {"type": "Feature", "properties": {"building": "H"},
     "geometry": {"type": "Polygon", "coordinates": [[[-81.2, 43.0], [-81.1, 43.0], [-81.1, 43.1], [-81.2, 43.0]]]}}
  ]
}`

func TestGeoJSONFootprint(t *testing.T) {
	b, err := GeoJSONFootprint([]byte(footprintGeoJSON), "building m")
	require.NoError(t, err)
	assert.Equal(t, transform.NewBounds(43.0138, -81.1999, 43.0146, -81.1985), b)

	b, err = GeoJSONFootprint([]byte(footprintGeoJSON), "H")
	require.NoError(t, err)
	assert.Equal(t, 43.1, b.North)

	_, err = GeoJSONFootprint([]byte(footprintGeoJSON), "")
	assert.ErrorIs(t, err, ErrFootprintNotFound)
	_, err = GeoJSONFootprint([]byte(footprintGeoJSON), "Z")
	assert.ErrorIs(t, err, ErrFootprintNotFound)
}

const footprintOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="43.0138" lon="-81.1999"/>
  <node id="2" lat="43.0138" lon="-81.1985"/>
  <node id="3" lat="43.0146" lon="-81.1985"/>
  <node id="4" lat="43.0146" lon="-81.1999"/>
  <node id="5" lat="50" lon="50"/>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="1"/>
    <tag k="building" v="university"/>
    <tag k="name" v="Building M"/>
  </way>
  <way id="11">
    <nd ref="5"/><nd ref="1"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

func TestLoadFootprintFiles(t *testing.T) {
	dir := t.TempDir()
	osmPath := filepath.Join(dir, "campus.osm")
	require.NoError(t, os.WriteFile(osmPath, []byte(footprintOSM), 0o644))
	geoPath := filepath.Join(dir, "campus.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(footprintGeoJSON), 0o644))

	want := transform.NewBounds(43.0138, -81.1999, 43.0146, -81.1985)

	b, err := LoadFootprint(context.Background(), osmPath, "Building M")
	require.NoError(t, err)
	assert.InDelta(t, want.South, b.South, 1e-9)
	assert.InDelta(t, want.West, b.West, 1e-9)
	assert.InDelta(t, want.North, b.North, 1e-9)
	assert.InDelta(t, want.East, b.East, 1e-9)

	b, err = LoadFootprint(context.Background(), geoPath, "Building M")
	require.NoError(t, err)
	assert.Equal(t, want, b)

	_, err = LoadFootprint(context.Background(), osmPath, "Building Q")
	assert.ErrorIs(t, err, ErrFootprintNotFound)

	_, err = LoadFootprint(context.Background(), filepath.Join(dir, "campus.shp"), "")
	assert.Error(t, err)
}
