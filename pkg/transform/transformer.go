// Package transform maps floor-plan planar coordinates onto geography and back.
//
// A floor plan is placed on the map as a quadrilateral of four georeferenced
// corners (top-left, top-right, bottom-right, bottom-left). Planar points are
// normalized against the plan's viewBox and bilinearly interpolated across
// that quadrilateral.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/lintang-b-s/indoornav/pkg"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/util"
)

var ErrInvalidTransformInput = errors.New("invalid transform input")

const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quad. corner quadrilateral ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]geo.Coordinate

// NewQuad. fails unless corners holds exactly 4 points spanning a non-zero area.
func NewQuad(corners []geo.Coordinate) (Quad, error) {
	var q Quad
	if len(corners) != 4 {
		return q, fmt.Errorf("%w: expected 4 corners, got %d", ErrInvalidTransformInput, len(corners))
	}
	copy(q[:], corners)
	for _, c := range q {
		if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
			return Quad{}, fmt.Errorf("%w: corner is not finite", ErrInvalidTransformInput)
		}
	}
	if math.Abs(q.Area()) <= pkg.INVERSE_DEGENERATE_EPSILON {
		return Quad{}, fmt.Errorf("%w: corners are collapsed or collinear", ErrInvalidTransformInput)
	}
	return q, nil
}

// Area. signed shoelace area in square degrees (lon as x, lat as y).
func (q Quad) Area() float64 {
	var a float64
	for i := range q {
		j := (i + 1) % len(q)
		a += q[i].Lon*q[j].Lat - q[j].Lon*q[i].Lat
	}
	return a / 2
}

func (q Quad) Corners() []geo.Coordinate {
	return []geo.Coordinate{q[TopLeft], q[TopRight], q[BottomRight], q[BottomLeft]}
}

// ViewBox. planar bounding box of the floor plan (origin + size).
type ViewBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewViewBox(x, y, width, height float64) ViewBox {
	return ViewBox{X: x, Y: y, Width: width, Height: height}
}

func (vb ViewBox) valid() bool {
	return vb.Width > 0 && vb.Height > 0 &&
		!math.IsInf(vb.Width, 0) && !math.IsInf(vb.Height, 0) &&
		!math.IsNaN(vb.X) && !math.IsNaN(vb.Y)
}

// Transformer. immutable planar <-> geographic mapping of one floor.
type Transformer struct {
	viewBox ViewBox
	quad    Quad
}

func NewTransformer(viewBox ViewBox, corners []geo.Coordinate) (*Transformer, error) {
	quad, err := NewQuad(corners)
	if err != nil {
		return nil, err
	}
	if !viewBox.valid() {
		return nil, fmt.Errorf("%w: viewBox must have positive width and height, got %vx%v",
			ErrInvalidTransformInput, viewBox.Width, viewBox.Height)
	}
	return &Transformer{viewBox: viewBox, quad: quad}, nil
}

func (t *Transformer) GetViewBox() ViewBox {
	return t.viewBox
}

func (t *Transformer) GetQuad() Quad {
	return t.quad
}

// edges. top & bottom edge interpolants at normX.
func (t *Transformer) edges(normX float64) (top, bottom geo.Coordinate) {
	tl, tr, br, bl := t.quad[TopLeft], t.quad[TopRight], t.quad[BottomRight], t.quad[BottomLeft]

	top = geo.NewCoordinate(
		tl.Lat+normX*(tr.Lat-tl.Lat),
		tl.Lon+normX*(tr.Lon-tl.Lon),
	)
	bottom = geo.NewCoordinate(
		bl.Lat+normX*(br.Lat-bl.Lat),
		bl.Lon+normX*(br.Lon-bl.Lon),
	)
	return top, bottom
}

func lerp(a, b geo.Coordinate, f float64) geo.Coordinate {
	return geo.NewCoordinate(a.Lat+f*(b.Lat-a.Lat), a.Lon+f*(b.Lon-a.Lon))
}

// ForwardNormalized. bilinear interpolation at normalized plan fractions. values outside [0,1] extrapolate.
func (t *Transformer) ForwardNormalized(normX, normY float64) geo.Coordinate {
	top, bottom := t.edges(normX)
	return lerp(top, bottom, normY)
}

// Forward. planar -> geographic.
func (t *Transformer) Forward(p datastructure.PlanarPoint) geo.Coordinate {
	normX := (p.X - t.viewBox.X) / t.viewBox.Width
	normY := (p.Y - t.viewBox.Y) / t.viewBox.Height
	return t.ForwardNormalized(normX, normY)
}

type inverseCandidate struct {
	normX, normY float64
	err          float64
}

// solveNormY. normY implied by target at normX, solved along the axis with the larger top-bottom range.
func (t *Transformer) solveNormY(normX float64, target geo.Coordinate) (inverseCandidate, bool) {
	top, bottom := t.edges(normX)
	dLat := bottom.Lat - top.Lat
	dLon := bottom.Lon - top.Lon
	if math.Abs(dLat) <= pkg.INVERSE_DEGENERATE_EPSILON && math.Abs(dLon) <= pkg.INVERSE_DEGENERATE_EPSILON {
		return inverseCandidate{}, false
	}

	var normY float64
	if math.Abs(dLat) > math.Abs(dLon) {
		normY = (target.Lat - top.Lat) / dLat
	} else {
		normY = (target.Lon - top.Lon) / dLon
	}
	normY = util.Clamp(normY, 0, 1)

	res := lerp(top, bottom, normY)
	errLat := res.Lat - target.Lat
	errLon := res.Lon - target.Lon
	return inverseCandidate{normX: normX, normY: normY, err: errLat*errLat + errLon*errLon}, true
}

// searchNormX. scans normX over [lo, hi] with step and keeps the best candidate.
func (t *Transformer) searchNormX(lo, hi, step float64, target geo.Coordinate, best inverseCandidate) inverseCandidate {
	n := int(math.Round((hi - lo) / step))
	for i := 0; i <= n; i++ {
		normX := lo + float64(i)*step
		cand, ok := t.solveNormY(normX, target)
		if !ok {
			continue
		}
		if cand.err < best.err {
			best = cand
		}
	}
	return best
}

/*
Inverse. geographic -> planar.

no closed form is assumed for a skewed/rotated quad, so this searches normX on a coarse grid
over [0,1], solves normY for each candidate and keeps the pair with minimum squared error. the
incumbent cell is then refined with successively finer grids. normY is clamped to [0,1], so points
outside the quad map to the nearest point on its boundary rows.
*/
func (t *Transformer) Inverse(c geo.Coordinate) (datastructure.PlanarPoint, error) {
	if t == nil {
		return datastructure.PlanarPoint{}, ErrInvalidTransformInput
	}
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return datastructure.PlanarPoint{}, fmt.Errorf("%w: coordinate is NaN", ErrInvalidTransformInput)
	}

	best := inverseCandidate{normX: 0.5, normY: 0.5, err: math.Inf(1)}
	step := pkg.INVERSE_GRID_STEP
	best = t.searchNormX(0, 1, step, c, best)

	for round := 0; round < pkg.INVERSE_REFINEMENT_ROUNDS && !math.IsInf(best.err, 1); round++ {
		lo := math.Max(0, best.normX-step)
		hi := math.Min(1, best.normX+step)
		step /= 10
		best = t.searchNormX(lo, hi, step, c, best)
	}
	if math.IsInf(best.err, 1) {
		return datastructure.PlanarPoint{}, fmt.Errorf("%w: quad top and bottom edges coincide", ErrInvalidTransformInput)
	}

	x := t.viewBox.X + best.normX*t.viewBox.Width
	y := t.viewBox.Y + best.normY*t.viewBox.Height
	return datastructure.NewPlanarPoint(
		util.RoundFloat(x, pkg.PLANAR_PRECISION),
		util.RoundFloat(y, pkg.PLANAR_PRECISION),
	), nil
}
