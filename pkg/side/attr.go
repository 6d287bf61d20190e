// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

// Attr is one (key, typed value) pair attached to a type or event.
// Attribute lists keep declaration order on the wire but consumers
// must not rely on it.
type Attr struct {
	Key   string
	Value AttrValue
}

// AttrValue restricts the value to basic scalar kinds: bool,
// integers, floats and strings. The Label selects which of the
// payload fields is meaningful.
type AttrValue struct {
	Label  Label
	Scalar ScalarValue
	Str    string
}

func AttrBool(key string, v bool) Attr {
	s := ScalarValue{}
	if v {
		s.Lo = 1
	}
	return Attr{Key: key, Value: AttrValue{Label: LabelBool, Scalar: s}}
}

func AttrU64(key string, v uint64) Attr {
	return Attr{Key: key, Value: AttrValue{Label: LabelU64, Scalar: ScalarOf(v)}}
}

func AttrS64(key string, v int64) Attr {
	return Attr{Key: key, Value: AttrValue{Label: LabelS64, Scalar: ScalarOfSigned(v)}}
}

func AttrF64(key string, v float64) Attr {
	return Attr{Key: key, Value: AttrValue{Label: LabelF64, Scalar: ScalarOfFloat(v)}}
}

func AttrString(key, v string) Attr {
	return Attr{Key: key, Value: AttrValue{Label: LabelString8, Str: v}}
}

// ValidAttrLabel reports whether l may appear as an attribute value
// kind.
func ValidAttrLabel(l Label) bool {
	switch {
	case l == LabelBool, l.IsInteger(), l.IsFloat(), l.IsString():
		return true
	}
	return false
}
