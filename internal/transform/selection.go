package transform

import "strings"

// Selection applies setters to every element it holds and reads getters
// from the first one.
type Selection []*Element

// Select groups elements into a Selection.
func Select(elems ...*Element) Selection {
	return Selection(elems)
}

func (s Selection) first() *Element {
	if len(s) == 0 {
		return NewElement()
	}
	return s[0]
}

// Translate translates every element.
func (s Selection) Translate(x, y float64) Selection {
	for _, e := range s {
		e.Translate(x, y)
	}
	return s
}

// Rotate rotates every element.
func (s Selection) Rotate(deg float64) Selection {
	for _, e := range s {
		e.Rotate(deg)
	}
	return s
}

// Scale scales every element.
func (s Selection) Scale(factor float64) Selection {
	for _, e := range s {
		e.Scale(factor)
	}
	return s
}

// Origin sets the transform origin of every element.
func (s Selection) Origin(x, y float64) Selection {
	for _, e := range s {
		e.Origin(x, y)
	}
	return s
}

// ClearTransforms clears every element.
func (s Selection) ClearTransforms() Selection {
	for _, e := range s {
		e.ClearTransforms()
	}
	return s
}

// Transform behaves like Element.Transform. Setting validates fn once and
// applies it to every element; the returned value is read from the first.
func (s Selection) Transform(fn string) (string, error) {
	if fn == "" || !strings.Contains(fn, "(") {
		return s.first().Transform(fn)
	}
	name, args, err := splitFunction(fn)
	if err != nil {
		return "", err
	}
	for _, e := range s {
		e.set(name, args)
	}
	return s.first().Value(), nil
}

// Translation reads the first element's translation.
func (s Selection) Translation() Translation { return s.first().Translation() }

// Rotation reads the first element's rotation.
func (s Selection) Rotation() Rotation { return s.first().Rotation() }

// ScaleValue reads the first element's scale.
func (s Selection) ScaleValue() float64 { return s.first().ScaleValue() }

// OriginValue reads the first element's origin.
func (s Selection) OriginValue() (*Point, bool) { return s.first().OriginValue() }
