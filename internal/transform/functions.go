package transform

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`-?\d*\.?\d+`)
	pixelRe  = regexp.MustCompile(`(-?\d*\.?\d+)px`)
	angleRe  = regexp.MustCompile(`(-?\d*\.?\d+)(deg|rad)`)
)

// Translation is a translate offset in pixels. Left and Top mirror X and Y.
type Translation struct {
	X, Y      float64
	Left, Top float64
	Unit      string
}

// Rotation is a rotation angle. Val mirrors Value.
type Rotation struct {
	Value float64
	Val   float64
	Unit  string
}

// Point is a transform origin in pixels. Left and Top mirror X and Y.
type Point struct {
	X, Y      float64
	Left, Top float64
	Unit      string
}

func (e *Element) translateName() string {
	if e.use3D {
		return "translate3d"
	}
	return "translate"
}

func (e *Element) rotateName() string {
	if e.use3D {
		return "rotate3d"
	}
	return "rotate"
}

// Translate moves the element x and y pixels.
func (e *Element) Translate(x, y float64) *Element {
	args := "(" + formatNumber(x) + "px, " + formatNumber(y) + "px"
	if e.use3D {
		args += ", 0px"
	}
	e.set(e.translateName(), args+")")
	return e
}

// Translation returns the offset set by Translate, zero when unset.
func (e *Element) Translation() Translation {
	t := Translation{Unit: "px"}
	args, ok := e.Lookup(e.translateName())
	if !ok {
		return t
	}
	nums := numberRe.FindAllString(args, -1)
	if len(nums) < 2 {
		return t
	}
	t.X = parseNumber(nums[0], 0)
	t.Y = parseNumber(nums[1], 0)
	t.Left, t.Top = t.X, t.Y
	return t
}

// Rotate rotates the element deg degrees.
func (e *Element) Rotate(deg float64) *Element {
	args := "(" + formatNumber(deg) + "deg)"
	if e.use3D {
		args = "(0,0,0," + formatNumber(deg) + "deg)"
	}
	e.set(e.rotateName(), args)
	return e
}

// Rotation returns the angle set by Rotate. An unset rotation is 0deg.
func (e *Element) Rotation() Rotation {
	r := Rotation{Unit: "deg"}
	args, ok := e.Lookup(e.rotateName())
	if !ok {
		return r
	}
	m := angleRe.FindStringSubmatch(args)
	if m == nil {
		return r
	}
	r.Value = parseNumber(m[1], 0)
	r.Val = r.Value
	r.Unit = m[2]
	return r
}

// Scale scales the element by factor.
func (e *Element) Scale(factor float64) *Element {
	e.set("scale", "("+formatNumber(factor)+")")
	return e
}

// ScaleValue returns the factor set by Scale, 1 when unset.
func (e *Element) ScaleValue() float64 {
	args, ok := e.Lookup("scale")
	if !ok {
		return 1
	}
	return parseNumber(strings.TrimSuffix(strings.TrimPrefix(args, "("), ")"), 1)
}

// Origin sets the transform origin to x and y pixels.
func (e *Element) Origin(x, y float64) *Element {
	e.style[PropertyOrigin] = formatNumber(x) + "px " + formatNumber(y) + "px"
	return e
}

// OriginValue returns the transform origin. It reports false when no
// origin in pixels is set.
func (e *Element) OriginValue() (*Point, bool) {
	m := pixelRe.FindAllStringSubmatch(e.style[PropertyOrigin], 2)
	if len(m) < 2 {
		return nil, false
	}
	p := &Point{
		X:    parseNumber(m[0][1], 0),
		Y:    parseNumber(m[1][1], 0),
		Unit: "px",
	}
	p.Left, p.Top = p.X, p.Y
	return p, true
}

func parseNumber(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}
