// Package floorplan reads rendered floor-plan geometry: SVG plans and building footprints.
package floorplan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/transform"
)

var ErrInvalidPlan = errors.New("invalid floor plan")

type element struct {
	el  *etree.Element
	ctm matrix // transform from the element's user space to the root viewport space
}

/*
Plan. parsed svg floor plan, indexed by element id.

by default positions are read in each element's own user space: a circle resolves to its raw
(cx, cy) and a bounding box ignores the element's own and its ancestors' transform attributes,
the way getBBox does. plans whose corner quad already compensates for a rotated node layer rely
on this. WithTransforms resolves into the root viewport instead.
*/
type Plan struct {
	viewBox         transform.ViewBox
	byID            map[string]element
	ids             []string
	applyTransforms bool
}

type PlanOption func(*Plan)

// WithTransforms. accumulate ancestor and element transform attributes into resolved positions.
func WithTransforms(apply bool) PlanOption {
	return func(p *Plan) {
		p.applyTransforms = apply
	}
}

func LoadPlan(path string, opts ...PlanOption) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	plan, err := ParsePlan(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

func ParsePlan(r io.Reader, opts ...PlanOption) (*Plan, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, fmt.Errorf("%w: root element is not <svg>", ErrInvalidPlan)
	}

	vb, err := readViewBox(root)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		viewBox: vb,
		byID:    make(map[string]element),
		ids:     make([]string, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.index(root, identity); err != nil {
		return nil, err
	}
	return p, nil
}

func readViewBox(root *etree.Element) (transform.ViewBox, error) {
	if raw := root.SelectAttrValue("viewBox", ""); raw != "" {
		nums, err := parseNumbers(raw)
		if err != nil || len(nums) != 4 {
			return transform.ViewBox{}, fmt.Errorf("%w: malformed viewBox %q", ErrInvalidPlan, raw)
		}
		if nums[2] <= 0 || nums[3] <= 0 {
			return transform.ViewBox{}, fmt.Errorf("%w: viewBox must have positive size, got %q", ErrInvalidPlan, raw)
		}
		return transform.NewViewBox(nums[0], nums[1], nums[2], nums[3]), nil
	}

	w, errW := parseLength(root.SelectAttrValue("width", ""))
	h, errH := parseLength(root.SelectAttrValue("height", ""))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return transform.ViewBox{}, fmt.Errorf("%w: no viewBox and no absolute width/height", ErrInvalidPlan)
	}
	return transform.NewViewBox(0, 0, w, h), nil
}

// index. records every element carrying an id together with its accumulated transform.
func (p *Plan) index(el *etree.Element, parent matrix) error {
	ctm := parent
	if raw := el.SelectAttrValue("transform", ""); raw != "" {
		t, err := parseTransform(raw)
		if err != nil {
			return fmt.Errorf("%w: element %q: %v", ErrInvalidPlan, el.SelectAttrValue("id", el.Tag), err)
		}
		ctm = parent.mul(t)
	}

	if id := el.SelectAttrValue("id", ""); id != "" {
		if _, dup := p.byID[id]; !dup {
			p.ids = append(p.ids, id)
			p.byID[id] = element{el: el, ctm: ctm}
		}
	}

	for _, child := range el.ChildElements() {
		if err := p.index(child, ctm); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) ViewBox() transform.ViewBox {
	return p.viewBox
}

// ElementIDs. ids in document order.
func (p *Plan) ElementIDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// space. matrix mapping the element's coordinates to resolved plan coordinates.
func (p *Plan) space(e element) matrix {
	if p.applyTransforms {
		return e.ctm
	}
	return identity
}

func (p *Plan) Has(id string) bool {
	_, ok := p.byID[id]
	return ok
}

/*
NodePosition. planar position of a graph node drawn in the plan.

circles and ellipses resolve to their (cx, cy), text and use elements to their (x, y), anything else to
the center of its bounding box.
*/
func (p *Plan) NodePosition(id string) (datastructure.PlanarPoint, bool) {
	e, ok := p.byID[id]
	if !ok {
		return datastructure.PlanarPoint{}, false
	}

	switch e.el.Tag {
	case "circle", "ellipse":
		cx, errX := attrLength(e.el, "cx", 0)
		cy, errY := attrLength(e.el, "cy", 0)
		if errX == nil && errY == nil {
			x, y := p.space(e).apply(cx, cy)
			return datastructure.NewPlanarPoint(x, y), true
		}
	case "text", "use":
		x, errX := attrLength(e.el, "x", 0)
		y, errY := attrLength(e.el, "y", 0)
		if errX == nil && errY == nil {
			tx, ty := p.space(e).apply(x, y)
			return datastructure.NewPlanarPoint(tx, ty), true
		}
	}
	return p.Centroid(id)
}

// Centroid. center of the element's bounding box. groups use the union of their children, each under its own transform.
func (p *Plan) Centroid(id string) (datastructure.PlanarPoint, bool) {
	e, ok := p.byID[id]
	if !ok {
		return datastructure.PlanarPoint{}, false
	}
	b := bounds(e.el, p.space(e))
	if !b.ok {
		return datastructure.PlanarPoint{}, false
	}
	x, y := b.center()
	return datastructure.NewPlanarPoint(x, y), true
}

// Resolve. NodePosition under the resolver name used by the graph builder.
func (p *Plan) Resolve(id string) (datastructure.PlanarPoint, bool) {
	return p.NodePosition(id)
}

func attrLength(el *etree.Element, name string, def float64) (float64, error) {
	raw := el.SelectAttrValue(name, "")
	if raw == "" {
		return def, nil
	}
	return parseLength(raw)
}

func bounds(el *etree.Element, ctm matrix) bbox {
	var b bbox
	num := func(name string) float64 {
		v, err := attrLength(el, name, 0)
		if err != nil {
			return 0
		}
		return v
	}

	switch el.Tag {
	case "rect", "image", "use":
		b.extendRect(ctm, num("x"), num("y"), num("width"), num("height"))
	case "circle":
		r := num("r")
		b.extendRect(ctm, num("cx")-r, num("cy")-r, 2*r, 2*r)
	case "ellipse":
		rx, ry := num("rx"), num("ry")
		b.extendRect(ctm, num("cx")-rx, num("cy")-ry, 2*rx, 2*ry)
	case "line":
		b.extend(ctm.apply(num("x1"), num("y1")))
		b.extend(ctm.apply(num("x2"), num("y2")))
	case "polygon", "polyline":
		if pb, err := pointsBounds(el.SelectAttrValue("points", ""), ctm); err == nil {
			b = pb
		}
	case "path":
		if pb, err := pathBounds(el.SelectAttrValue("d", ""), ctm); err == nil {
			b = pb
		}
	case "text":
		b.extend(ctm.apply(num("x"), num("y")))
	}

	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, "title") || strings.EqualFold(child.Tag, "desc") {
			continue
		}
		childCTM := ctm
		if raw := child.SelectAttrValue("transform", ""); raw != "" {
			if t, err := parseTransform(raw); err == nil {
				childCTM = ctm.mul(t)
			}
		}
		b.union(bounds(child, childCTM))
	}
	return b
}
