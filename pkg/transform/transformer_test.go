package transform

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coordEps = 1e-9

func buildingMQuad() Quad {
	return CornersFromBounds(NewBounds(43.01380, -81.19990, 43.01460, -81.19850), 21.3)
}

func skewedQuad() Quad {
	return Quad{
		geo.NewCoordinate(43.01500, -81.20000),
		geo.NewCoordinate(43.01520, -81.19800),
		geo.NewCoordinate(43.01350, -81.19780),
		geo.NewCoordinate(43.01330, -81.19990),
	}
}

func TestForwardCorners(t *testing.T) {
	q := buildingMQuad()
	tr, err := NewTransformer(NewViewBox(10, 20, 1000, 800), q.Corners())
	require.NoError(t, err)

	testCases := []struct {
		name string
		p    datastructure.PlanarPoint
		want geo.Coordinate
	}{
		{"top-left", datastructure.NewPlanarPoint(10, 20), q[TopLeft]},
		{"top-right", datastructure.NewPlanarPoint(1010, 20), q[TopRight]},
		{"bottom-right", datastructure.NewPlanarPoint(1010, 820), q[BottomRight]},
		{"bottom-left", datastructure.NewPlanarPoint(10, 820), q[BottomLeft]},
		{"center", datastructure.NewPlanarPoint(510, 420), geo.NewCoordinate(
			(q[0].Lat+q[1].Lat+q[2].Lat+q[3].Lat)/4,
			(q[0].Lon+q[1].Lon+q[2].Lon+q[3].Lon)/4,
		)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Forward(tt.p)
			assert.InDelta(t, tt.want.Lat, got.Lat, coordEps)
			assert.InDelta(t, tt.want.Lon, got.Lon, coordEps)
		})
	}
}

func TestForwardExtrapolates(t *testing.T) {
	q := skewedQuad()
	tr, err := NewTransformer(NewViewBox(0, 0, 100, 100), q.Corners())
	require.NoError(t, err)

	// normX = 2 on the top edge is TL + 2*(TR-TL)
	got := tr.Forward(datastructure.NewPlanarPoint(200, 0))
	assert.InDelta(t, q[TopLeft].Lat+2*(q[TopRight].Lat-q[TopLeft].Lat), got.Lat, coordEps)
	assert.InDelta(t, q[TopLeft].Lon+2*(q[TopRight].Lon-q[TopLeft].Lon), got.Lon, coordEps)
}

func TestInverseRoundTrip(t *testing.T) {
	quads := map[string]Quad{
		"rotated": buildingMQuad(),
		"skewed":  skewedQuad(),
	}
	vb := NewViewBox(0, 0, 1200, 900)

	for name, q := range quads {
		tr, err := NewTransformer(vb, q.Corners())
		require.NoError(t, err)

		for _, fx := range []float64{0.03, 0.21, 0.5, 0.77, 0.96} {
			for _, fy := range []float64{0.05, 0.33, 0.5, 0.68, 0.94} {
				p := datastructure.NewPlanarPoint(fx*vb.Width, fy*vb.Height)
				t.Run(fmt.Sprintf("%s/%.2f-%.2f", name, fx, fy), func(t *testing.T) {
					back, err := tr.Inverse(tr.Forward(p))
					require.NoError(t, err)
					assert.InDelta(t, p.X, back.X, 1.0)
					assert.InDelta(t, p.Y, back.Y, 1.0)
				})
			}
		}
	}
}

func TestInverseClampsOutsideRows(t *testing.T) {
	q := buildingMQuad()
	vb := NewViewBox(0, 0, 1000, 1000)
	tr, err := NewTransformer(vb, q.Corners())
	require.NoError(t, err)

	// far beyond the bottom edge: normY is clamped to 1
	back, err := tr.Inverse(tr.ForwardNormalized(0.5, 3))
	require.NoError(t, err)
	assert.LessOrEqual(t, back.Y, vb.Height)
	assert.GreaterOrEqual(t, back.Y, 0.0)
}

func TestInvalidTransformInput(t *testing.T) {
	q := buildingMQuad()

	testCases := []struct {
		name    string
		vb      ViewBox
		corners []geo.Coordinate
	}{
		{"three corners", NewViewBox(0, 0, 10, 10), q.Corners()[:3]},
		{"five corners", NewViewBox(0, 0, 10, 10), append(q.Corners(), q[0])},
		{"no corners", NewViewBox(0, 0, 10, 10), nil},
		{"zero width", NewViewBox(0, 0, 0, 10), q.Corners()},
		{"negative height", NewViewBox(0, 0, 10, -1), q.Corners()},
		{"collapsed corners", NewViewBox(0, 0, 1000, 800), []geo.Coordinate{q[0], q[0], q[0], q[0]}},
		{"collinear corners", NewViewBox(0, 0, 1000, 800), []geo.Coordinate{q[TopLeft], q[TopRight], q[TopRight], q[TopLeft]}},
		{"nan corner", NewViewBox(0, 0, 1000, 800), []geo.Coordinate{q[0], q[1], q[2], geo.NewCoordinate(math.NaN(), 0)}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransformer(tt.vb, tt.corners)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransformInput))
		})
	}

	var nilTr *Transformer
	_, err := nilTr.Inverse(q[0])
	assert.ErrorIs(t, err, ErrInvalidTransformInput)

	// a quad that never went through NewQuad must not yield the viewBox center
	flat := &Transformer{viewBox: NewViewBox(0, 0, 1000, 800), quad: Quad{q[0], q[0], q[0], q[0]}}
	p, err := flat.Inverse(q[0])
	assert.ErrorIs(t, err, ErrInvalidTransformInput)
	assert.Equal(t, datastructure.PlanarPoint{}, p)
}

func TestQuadArea(t *testing.T) {
	q := buildingMQuad()
	assert.Greater(t, math.Abs(q.Area()), 1e-7)

	_, err := NewQuad(q.Corners())
	require.NoError(t, err)

	unit := Quad{
		geo.NewCoordinate(1, 0), geo.NewCoordinate(1, 1),
		geo.NewCoordinate(0, 1), geo.NewCoordinate(0, 0),
	}
	assert.InDelta(t, 1.0, math.Abs(unit.Area()), coordEps)
}

func TestRotatePoint(t *testing.T) {
	pivot := geo.NewCoordinate(43.0, -81.0)
	north := geo.NewCoordinate(43.001, -81.0)

	got := RotatePoint(north, pivot, 90)
	assert.InDelta(t, 43.0, got.Lat, coordEps)
	assert.InDelta(t, -80.999, got.Lon, coordEps)

	same := RotatePoint(north, pivot, 0)
	assert.InDelta(t, north.Lat, same.Lat, coordEps)
	assert.InDelta(t, north.Lon, same.Lon, coordEps)

	traced := []geo.Coordinate{RotatePoint(north, pivot, 21.3)}
	restored := CounterRotate(traced, pivot, 21.3)
	assert.InDelta(t, north.Lat, restored[0].Lat, coordEps)
	assert.InDelta(t, north.Lon, restored[0].Lon, coordEps)
}

func TestCornersFromBoundsKeepsCenter(t *testing.T) {
	b := NewBounds(43.01380, -81.19990, 43.01460, -81.19850)
	q := CornersFromBounds(b, 21.3)

	center := b.Center()
	avgLat := (q[0].Lat + q[1].Lat + q[2].Lat + q[3].Lat) / 4
	avgLon := (q[0].Lon + q[1].Lon + q[2].Lon + q[3].Lon) / 4
	assert.InDelta(t, center.Lat, avgLat, coordEps)
	assert.InDelta(t, center.Lon, avgLon, coordEps)

	unrotated := CornersFromBounds(b, 0)
	assert.InDelta(t, b.North, unrotated[TopLeft].Lat, coordEps)
	assert.InDelta(t, b.West, unrotated[TopLeft].Lon, coordEps)
	assert.InDelta(t, b.South, unrotated[BottomRight].Lat, coordEps)
	assert.InDelta(t, b.East, unrotated[BottomRight].Lon, coordEps)
}
