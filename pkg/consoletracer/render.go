// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package consoletracer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/efficios/go-side/pkg/abi"
)

// unavailable marks a value the call site could not capture.
const unavailable = "<unavailable>"

// The hooks assemble each emission into a small value tree, rendered
// once at after-event time. Leaves are plain Go values plus the
// wrapper types below; compounds are the node structs.

// objNode is a field container that keeps declaration order, which
// encoding/json maps would not.
type objNode struct {
	names []string
	vals  []any
}

func (o *objNode) put(name string, v any) {
	o.names = append(o.names, name)
	o.vals = append(o.vals, v)
}

func (o *objNode) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type arrNode struct {
	elems []any
}

func (a *arrNode) MarshalJSON() ([]byte, error) {
	if a.elems == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.elems)
}

type enumNode struct {
	Value  any      `json:"value"`
	Labels []string `json:"labels"`
}

type variantNode struct {
	Selector any `json:"selector"`
	Value    any `json:"value"`
}

// incompleteVal renders the unavailable marker in both modes.
type incompleteVal struct{}

func (incompleteVal) MarshalJSON() ([]byte, error) {
	return json.Marshal(unavailable)
}

// nullVal is the null type's value, distinct from an absent optional.
type nullVal struct{}

func (nullVal) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// hexVal renders as 0x-prefixed hex: pointers and caller addresses.
type hexVal uint64

func (h hexVal) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", uint64(h)))
}

type byteVal uint8

// bigInt is the decimal rendering of an integer outside int64 range,
// kept as a string so JSON consumers do not lose precision.
type bigInt string

func (b bigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(b))
}

// intVal normalizes a 128-bit value for rendering: int64 when it
// fits, decimal string when it does not.
func intVal(v abi.Int128) any {
	if v.Hi == 0 && v.Lo <= math.MaxInt64 {
		return int64(v.Lo)
	}
	if v.Hi == -1 && v.Lo > math.MaxInt64 {
		return int64(v.Lo)
	}
	return bigInt(v.String())
}

func renderHuman(b *strings.Builder, v any) {
	switch n := v.(type) {
	case nil:
		b.WriteString("none")
	case *objNode:
		if len(n.names) == 0 {
			b.WriteString("{ }")
			return
		}
		b.WriteString("{ ")
		for i, name := range n.names {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(name)
			b.WriteByte('=')
			renderHuman(b, n.vals[i])
		}
		b.WriteString(" }")
	case *arrNode:
		if len(n.elems) == 0 {
			b.WriteString("[ ]")
			return
		}
		b.WriteString("[ ")
		for i, e := range n.elems {
			if i > 0 {
				b.WriteByte(' ')
			}
			renderHuman(b, e)
		}
		b.WriteString(" ]")
	case *enumNode:
		renderHuman(b, n.Value)
		if len(n.Labels) > 0 {
			b.WriteByte('(')
			b.WriteString(strings.Join(n.Labels, "|"))
			b.WriteByte(')')
		}
	case *variantNode:
		// The selector stays internal; only the chosen value prints.
		if n.Value == nil {
			b.WriteString(unavailable)
			return
		}
		renderHuman(b, n.Value)
	case incompleteVal:
		b.WriteString(unavailable)
	case nullVal:
		b.WriteString("null")
	case hexVal:
		fmt.Fprintf(b, "0x%x", uint64(n))
	case byteVal:
		fmt.Fprintf(b, "0x%02x", uint8(n))
	case bigInt:
		b.WriteString(string(n))
	case int64:
		b.WriteString(strconv.FormatInt(n, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(n))
	case string:
		fmt.Fprintf(b, "%q", n)
	default:
		fmt.Fprintf(b, "%v", n)
	}
}
