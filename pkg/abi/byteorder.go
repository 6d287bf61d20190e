// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package abi holds the primitive building blocks of the SIDE wire
// ABI: byte-order tags, the 16-byte wide pointer container, 128-bit
// integer helpers and the contractual record sizes. Everything above
// this package (type descriptions, arguments, the encoders) is
// expressed in terms of these primitives.
package abi

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder is the wire tag describing the byte order of a scalar
// value or string. The values are part of the ABI and must not be
// renumbered.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = 0
	BigEndian    ByteOrder = 1
)

// HostOrder is the byte order of this process. Selection happens once
// at startup; every Go platform currently supported is little-endian
// except s390x, so probing via encoding/binary keeps the constant
// honest without build tags.
var HostOrder = func() ByteOrder {
	probe := [2]byte{}
	binary.NativeEndian.PutUint16(probe[:], 0x0102)
	if probe[0] == 0x02 {
		return LittleEndian
	}
	return BigEndian
}()

// Valid reports whether b is one of the two defined wire values.
// Anything else in a decoded description is a fatal schema error.
func (b ByteOrder) Valid() bool {
	return b == LittleEndian || b == BigEndian
}

// Binary returns the encoding/binary implementation matching b.
func (b ByteOrder) Binary() binary.ByteOrder {
	if b == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (b ByteOrder) String() string {
	switch b {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	}
	return fmt.Sprintf("ByteOrder(%d)", uint8(b))
}
