package floorplan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lintang-b-s/indoornav/pkg/util"
)

// matrix. svg affine transform [a b c d e f]: x' = a*x + c*y + e, y' = b*x + d*y + f.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// mul. m * n (n applied first).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// parseTransform. supports matrix, translate, scale and rotate lists, e.g. "translate(10 20) scale(2)".
func parseTransform(s string) (matrix, error) {
	m := identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return identity, fmt.Errorf("malformed transform %q", s)
		}
		name := strings.TrimSpace(strings.Trim(rest[:open], ", \t\n"))
		args, err := parseNumbers(rest[open+1 : closing])
		if err != nil {
			return identity, err
		}

		var t matrix
		switch name {
		case "matrix":
			if len(args) != 6 {
				return identity, fmt.Errorf("matrix needs 6 arguments, got %d", len(args))
			}
			copy(t[:], args)
		case "translate":
			if len(args) == 0 {
				return identity, fmt.Errorf("translate needs arguments")
			}
			ty := 0.0
			if len(args) > 1 {
				ty = args[1]
			}
			t = matrix{1, 0, 0, 1, args[0], ty}
		case "scale":
			if len(args) == 0 {
				return identity, fmt.Errorf("scale needs arguments")
			}
			sy := args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			t = matrix{args[0], 0, 0, sy, 0, 0}
		case "rotate":
			if len(args) != 1 && len(args) != 3 {
				return identity, fmt.Errorf("rotate needs 1 or 3 arguments, got %d", len(args))
			}
			rad := util.DegreeToRadians(args[0])
			cos, sin := math.Cos(rad), math.Sin(rad)
			t = matrix{cos, sin, -sin, cos, 0, 0}
			if len(args) == 3 {
				cx, cy := args[1], args[2]
				t = matrix{1, 0, 0, 1, cx, cy}.mul(t).mul(matrix{1, 0, 0, 1, -cx, -cy})
			}
		default:
			// skewX/skewY are ignored
			t = identity
		}
		m = m.mul(t)
		rest = strings.TrimSpace(rest[closing+1:])
	}
	return m, nil
}

type bbox struct {
	minX, minY float64
	maxX, maxY float64
	ok         bool
}

func (b *bbox) extend(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	if !b.ok {
		*b = bbox{minX: x, minY: y, maxX: x, maxY: y, ok: true}
		return
	}
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
}

func (b *bbox) union(o bbox) {
	if !o.ok {
		return
	}
	b.extend(o.minX, o.minY)
	b.extend(o.maxX, o.maxY)
}

func (b bbox) center() (float64, float64) {
	return (b.minX + b.maxX) / 2, (b.minY + b.maxY) / 2
}

// extendRect. adds the four corners of an axis-aligned rect after m.
func (b *bbox) extendRect(m matrix, x, y, w, h float64) {
	b.extend(m.apply(x, y))
	b.extend(m.apply(x+w, y))
	b.extend(m.apply(x+w, y+h))
	b.extend(m.apply(x, y+h))
}

// parseLength. svg length with optional px/pt unit suffix. percentages are rejected.
func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("relative length %q", s)
	}
	for _, unit := range []string{"px", "pt"} {
		s = strings.TrimSuffix(s, unit)
	}
	return strconv.ParseFloat(s, 64)
}

// parseNumbers. comma/whitespace separated numbers, also splitting "10-5" and ".5.5" style runs.
func parseNumbers(s string) ([]float64, error) {
	sc := newPathScanner(s)
	nums := make([]float64, 0, 8)
	for {
		sc.skipSeparators()
		if sc.done() {
			return nums, nil
		}
		n, err := sc.number()
		if err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
}

type pathScanner struct {
	s   string
	pos int
}

func newPathScanner(s string) *pathScanner {
	return &pathScanner{s: s}
}

func (sc *pathScanner) done() bool {
	return sc.pos >= len(sc.s)
}

func (sc *pathScanner) skipSeparators() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', ',', '\t', '\n', '\r':
			sc.pos++
		default:
			return
		}
	}
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

// peekCommand. true when the next token is a path command letter.
func (sc *pathScanner) peekCommand() (byte, bool) {
	sc.skipSeparators()
	if sc.done() {
		return 0, false
	}
	c := sc.s[sc.pos]
	return c, isCommand(c)
}

func (sc *pathScanner) hasNumber() bool {
	sc.skipSeparators()
	if sc.done() {
		return false
	}
	c := sc.s[sc.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (sc *pathScanner) number() (float64, error) {
	sc.skipSeparators()
	start := sc.pos
	if sc.pos < len(sc.s) && (sc.s[sc.pos] == '-' || sc.s[sc.pos] == '+') {
		sc.pos++
	}
	seenDot := false
	seenDigit := false
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if c >= '0' && c <= '9' {
			seenDigit = true
			sc.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			sc.pos++
			continue
		}
		if (c == 'e' || c == 'E') && seenDigit {
			sc.pos++
			if sc.pos < len(sc.s) && (sc.s[sc.pos] == '-' || sc.s[sc.pos] == '+') {
				sc.pos++
			}
			continue
		}
		break
	}
	if !seenDigit {
		return 0, fmt.Errorf("expected number at offset %d in %q", start, sc.s)
	}
	return strconv.ParseFloat(sc.s[start:sc.pos], 64)
}

func (sc *pathScanner) numbers(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var pathArgCount = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'C': 6, 'S': 4, 'Q': 4,
	'A': 7,
	'Z': 0,
}

/*
pathBounds. bounding box of an svg path "d" attribute under m.

curve control points are included, so the box of a curve is the box of its control hull.
arcs contribute their endpoints only.
*/
func pathBounds(d string, m matrix) (bbox, error) {
	var b bbox
	sc := newPathScanner(d)
	var curX, curY, startX, startY float64
	var cmd byte

	for {
		c, isCmd := sc.peekCommand()
		if sc.done() {
			return b, nil
		}
		if isCmd {
			cmd = c
			sc.pos++
		} else if cmd == 0 {
			return b, fmt.Errorf("path data must start with a command, got %q", c)
		}

		upper := cmd &^ 0x20
		relative := cmd != upper

		if upper == 'Z' {
			curX, curY = startX, startY
			continue
		}

		count := pathArgCount[upper]
		for first := true; first || sc.hasNumber(); first = false {
			args, err := sc.numbers(count)
			if err != nil {
				return b, err
			}

			switch upper {
			case 'H':
				if relative {
					curX += args[0]
				} else {
					curX = args[0]
				}
			case 'V':
				if relative {
					curY += args[0]
				} else {
					curY = args[0]
				}
			case 'A':
				x, y := args[5], args[6]
				if relative {
					x += curX
					y += curY
				}
				curX, curY = x, y
			default:
				for i := 0; i+1 < len(args); i += 2 {
					x, y := args[i], args[i+1]
					if relative {
						x += curX
						y += curY
					}
					if i+2 < len(args) {
						b.extend(m.apply(x, y))
						continue
					}
					curX, curY = x, y
				}
			}

			b.extend(m.apply(curX, curY))
			if upper == 'M' {
				if first {
					startX, startY = curX, curY
				}
				// implicit lineto after the first moveto pair
				if relative {
					cmd = 'l'
				} else {
					cmd = 'L'
				}
				upper = 'L'
			}
		}
	}
}

// pointsBounds. bounding box of a polygon/polyline "points" attribute under m.
func pointsBounds(points string, m matrix) (bbox, error) {
	var b bbox
	nums, err := parseNumbers(points)
	if err != nil {
		return b, err
	}
	if len(nums)%2 != 0 {
		return b, fmt.Errorf("odd number of coordinates in points %q", points)
	}
	for i := 0; i < len(nums); i += 2 {
		b.extend(m.apply(nums[i], nums[i+1]))
	}
	return b, nil
}
