// Package transform composes CSS transform values for page elements.
//
// Every Element keeps an ordered cache of the transform functions applied
// to it. The element's transform property is always the concatenation of
// name+args+" " for each cached function, in the order the functions were
// first applied. Setting a function again replaces its arguments in place.
//
// Values set through this package can be read back with the matching
// getter. Transforms that came from anywhere else (a stylesheet, a raw
// style write) are not parsed.
//
//	el := transform.NewElement()
//	el.Translate(100, 100).Rotate(45)
//	el.Style(transform.PropertyTransform) // "translate(100px, 100px) rotate(45deg) "
//	el.Translation()                      // {X: 100, Y: 100, Left: 100, Top: 100, Unit: "px"}
package transform

import (
	"strconv"
	"strings"

	"gopher-upload/internal/errors"
)

// Style properties written by this package.
const (
	PropertyTransform = "transform"
	PropertyOrigin    = "transform-origin"
)

// None is the value of the transform property when nothing is applied.
const None = "none"

// validFunctions is the set of CSS transform functions Apply accepts.
var validFunctions = map[string]bool{
	"rotate":      true,
	"rotate3d":    true,
	"rotateX":     true,
	"rotateY":     true,
	"skew":        true,
	"skewX":       true,
	"skewY":       true,
	"scale":       true,
	"scaleX":      true,
	"scaleY":      true,
	"scaleZ":      true,
	"translate":   true,
	"translate3d": true,
	"translateX":  true,
	"translateY":  true,
}

// IsValidFunction reports whether name is a transform function Apply accepts.
func IsValidFunction(name string) bool {
	return validFunctions[name]
}

// Element models the styling state of a single element.
// It is not safe for concurrent use.
type Element struct {
	use3D bool
	style map[string]string

	// transform cache, in insertion order
	names []string
	args  map[string]string
}

// Option configures an Element.
type Option func(*Element)

// With3D makes the translate and rotate setters emit their 3D functions
// (translate3d, rotate3d), which browsers composite on the GPU.
func With3D() Option {
	return func(e *Element) { e.use3D = true }
}

// NewElement returns an element with no transforms applied.
func NewElement(opts ...Option) *Element {
	e := &Element{style: make(map[string]string)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Style returns the raw value of a style property, or "" when unset.
func (e *Element) Style(property string) string {
	return e.style[property]
}

// SetStyle writes a raw style property. Writing the transform property
// directly does not touch the transform cache.
func (e *Element) SetStyle(property, value string) {
	e.style[property] = value
}

// Transform is the combined getter/setter:
//   - "" returns the composed transform, or None when the cache is empty;
//   - a bare function name returns that function's cached arguments;
//   - "name(args)" applies the function and returns the composed transform.
func (e *Element) Transform(fn string) (string, error) {
	if fn == "" {
		return e.Value(), nil
	}
	if !strings.Contains(fn, "(") {
		args, _ := e.Lookup(fn)
		return args, nil
	}
	if err := e.Apply(fn); err != nil {
		return "", err
	}
	return e.Value(), nil
}

// Apply parses fn as "name(args)" and stores it in the transform cache.
// It fails with ErrCodeInvalidTransform for unknown function names.
func (e *Element) Apply(fn string) error {
	name, args, err := splitFunction(fn)
	if err != nil {
		return err
	}
	e.set(name, args)
	return nil
}

// Value returns the composed transform, or None when the cache is empty.
func (e *Element) Value() string {
	if len(e.names) == 0 {
		return None
	}
	return e.compose()
}

// Lookup returns the cached argument string, parentheses included, of
// the named function.
func (e *Element) Lookup(name string) (string, bool) {
	if e.args == nil {
		return "", false
	}
	args, ok := e.args[name]
	return args, ok
}

// Functions returns the cached function names in application order.
func (e *Element) Functions() []string {
	return append([]string(nil), e.names...)
}

// ClearTransforms sets the transform property to None and drops the cache.
func (e *Element) ClearTransforms() *Element {
	e.style[PropertyTransform] = None
	e.names = nil
	e.args = nil
	return e
}

func (e *Element) set(name, args string) {
	if e.args == nil {
		e.args = make(map[string]string)
	}
	if _, ok := e.args[name]; !ok {
		e.names = append(e.names, name)
	}
	e.args[name] = args
	e.style[PropertyTransform] = e.compose()
}

func (e *Element) compose() string {
	var b strings.Builder
	for _, name := range e.names {
		b.WriteString(name)
		b.WriteString(e.args[name])
		b.WriteByte(' ')
	}
	return b.String()
}

func splitFunction(fn string) (name, args string, err error) {
	i := strings.Index(fn, "(")
	if i < 0 {
		return "", "", errors.New(errors.ErrCodeInvalidTransform, "cannot handle this transform: %s", fn)
	}
	name = strings.TrimSpace(fn[:i])
	if !validFunctions[name] {
		return "", "", errors.New(errors.ErrCodeInvalidTransform, "cannot handle this transform: %s", fn)
	}
	return name, fn[i:], nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
