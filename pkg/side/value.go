// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/strutils"
)

// ScalarValue is the 128-bit payload of a scalar argument, stored as
// the native load of the value bytes. For values built through the
// argument constructors the pattern is host-canonical; for values
// captured in a foreign byte order the declared order on the type
// description tells the consumer how to normalize it.
type ScalarValue struct {
	Lo uint64
	Hi uint64
}

// ScalarOf builds a host-canonical pattern from an unsigned value.
func ScalarOf(v uint64) ScalarValue {
	return ScalarValue{Lo: v}
}

// ScalarOfSigned builds a host-canonical pattern from a signed
// value, sign-extended to 128 bits.
func ScalarOfSigned(v int64) ScalarValue {
	s := ScalarValue{Lo: uint64(v)}
	if v < 0 {
		s.Hi = ^uint64(0)
	}
	return s
}

// ScalarOfFloat builds the bit pattern of a binary64 float.
func ScalarOfFloat(v float64) ScalarValue {
	return ScalarValue{Lo: math.Float64bits(v)}
}

// Uint64 truncates the pattern to 64 bits.
func (v ScalarValue) Uint64() uint64 {
	return v.Lo
}

// Int128 reinterprets the pattern as a signed 128-bit integer.
func (v ScalarValue) Int128() abi.Int128 {
	return abi.Int128FromParts(v.Hi, v.Lo)
}

// IsZero reports an all-zero pattern.
func (v ScalarValue) IsZero() bool {
	return v.Lo == 0 && v.Hi == 0
}

// Resolve converts a raw pattern into its logical value: byte-swap
// to host order when the declared order differs, shift out the bit
// offset, truncate to the used bit count and sign- or zero-extend.
// A lenBits of zero means all size*8 bits are used.
func (v ScalarValue) Resolve(size uint16, order abi.ByteOrder, shiftBits, lenBits uint16, signed bool) ScalarValue {
	if order != abi.HostOrder {
		v = v.swap(size)
	}
	if shiftBits > 0 {
		v = v.shr(uint(shiftBits))
	}
	b := uint(lenBits)
	if b == 0 {
		b = uint(size) * 8
	}
	v = v.mask(b)
	if signed {
		v = v.signExtend(b)
	}
	return v
}

func (v ScalarValue) swap(size uint16) ScalarValue {
	switch size {
	case 2:
		return ScalarValue{Lo: uint64(bits.ReverseBytes16(uint16(v.Lo)))}
	case 4:
		return ScalarValue{Lo: uint64(bits.ReverseBytes32(uint32(v.Lo)))}
	case 8:
		return ScalarValue{Lo: bits.ReverseBytes64(v.Lo)}
	case 16:
		return ScalarValue{Lo: bits.ReverseBytes64(v.Hi), Hi: bits.ReverseBytes64(v.Lo)}
	}
	return v
}

func (v ScalarValue) shr(k uint) ScalarValue {
	switch {
	case k == 0:
		return v
	case k >= 128:
		return ScalarValue{}
	case k >= 64:
		return ScalarValue{Lo: v.Hi >> (k - 64)}
	default:
		return ScalarValue{Lo: v.Lo>>k | v.Hi<<(64-k), Hi: v.Hi >> k}
	}
}

func (v ScalarValue) mask(b uint) ScalarValue {
	switch {
	case b >= 128:
		return v
	case b == 64:
		return ScalarValue{Lo: v.Lo}
	case b > 64:
		return ScalarValue{Lo: v.Lo, Hi: v.Hi & (1<<(b-64) - 1)}
	default:
		return ScalarValue{Lo: v.Lo & (1<<b - 1)}
	}
}

func (v ScalarValue) signExtend(b uint) ScalarValue {
	switch {
	case b == 0 || b >= 128:
		return v
	case b > 64:
		if v.Hi&(1<<(b-65)) != 0 {
			v.Hi |= ^uint64(0) << (b - 64)
		}
	case b == 64:
		if v.Lo&(1<<63) != 0 {
			v.Hi = ^uint64(0)
		}
	default:
		if v.Lo&(1<<(b-1)) != 0 {
			v.Lo |= ^uint64(0) << b
			v.Hi = ^uint64(0)
		}
	}
	return v
}

// PatternOf builds the pattern a native load of the value bytes
// produces: the bytes are decoded in host byte order and zero-extended
// to 128 bits. Supported lengths are 1, 2, 4, 8 and 16 bytes.
func PatternOf(b []byte) ScalarValue {
	switch len(b) {
	case 1:
		return ScalarValue{Lo: uint64(b[0])}
	case 2:
		return ScalarValue{Lo: uint64(binary.NativeEndian.Uint16(b))}
	case 4:
		return ScalarValue{Lo: uint64(binary.NativeEndian.Uint32(b))}
	case 8:
		return ScalarValue{Lo: binary.NativeEndian.Uint64(b)}
	case 16:
		if abi.HostOrder == abi.LittleEndian {
			return ScalarValue{
				Lo: binary.NativeEndian.Uint64(b[:8]),
				Hi: binary.NativeEndian.Uint64(b[8:]),
			}
		}
		return ScalarValue{
			Hi: binary.NativeEndian.Uint64(b[:8]),
			Lo: binary.NativeEndian.Uint64(b[8:]),
		}
	}
	return ScalarValue{}
}

// PatternBytes is the inverse of PatternOf: it stores the low size
// bytes of the pattern into b as a native store would.
func (v ScalarValue) PatternBytes(b []byte, size uint16) {
	switch size {
	case 1:
		b[0] = byte(v.Lo)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(v.Lo))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(v.Lo))
	case 8:
		binary.NativeEndian.PutUint64(b, v.Lo)
	case 16:
		if abi.HostOrder == abi.LittleEndian {
			binary.NativeEndian.PutUint64(b[:8], v.Lo)
			binary.NativeEndian.PutUint64(b[8:], v.Hi)
		} else {
			binary.NativeEndian.PutUint64(b[:8], v.Hi)
			binary.NativeEndian.PutUint64(b[8:], v.Lo)
		}
	}
}

// Float64 interprets a host-canonical pattern as a float of the
// given byte size, widened losslessly where the target permits.
func (v ScalarValue) Float64(size uint16) float64 {
	switch size {
	case 2:
		return abi.Float16ToFloat64(uint16(v.Lo))
	case 4:
		return float64(math.Float32frombits(uint32(v.Lo)))
	case 8:
		return math.Float64frombits(v.Lo)
	case 16:
		return abi.Float128ToFloat64(v.Hi, v.Lo)
	}
	return math.NaN()
}

// StringValue is the payload of a string argument: raw code units
// plus their size and byte order. Bytes holds len/UnitSize code
// units with no terminator.
type StringValue struct {
	Bytes    []byte
	UnitSize uint8
	Order    abi.ByteOrder
}

// StringValueOf encodes a Go string into code units of the given
// size in host byte order.
func StringValueOf(s string, unit uint8) StringValue {
	return StringValue{
		Bytes:    strutils.EncodeUnits(s, unit, abi.HostOrder),
		UnitSize: unit,
		Order:    abi.HostOrder,
	}
}

// String decodes the code units back into a Go string, replacing
// invalid sequences.
func (s StringValue) String() string {
	return strutils.DecodeUnits(s.Bytes, s.UnitSize, s.Order)
}

// Units returns the number of code units.
func (s StringValue) Units() int {
	if s.UnitSize == 0 {
		return len(s.Bytes)
	}
	return len(s.Bytes) / int(s.UnitSize)
}
