// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package strutils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/efficios/go-side/pkg/abi"
)

// UTF8FromCBytes transforms C strings gathered from raw memory into
// valid utf-8 strings.
//
// Strings captured at instrumentation sites are C strings: a
// null-terminated sequence of bytes that may or may not be valid
// utf-8. Tracer output (console lines, JSON) always has to be utf-8
// encoded, so invalid runes are replaced with '�'. This loses
// information; consumers that need the exact bytes should register a
// byte-level callback instead.
func UTF8FromCBytes(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// DecodeUnits converts raw string code units of size 1, 2 or 4 bytes
// in the given byte order into a Go string. Invalid sequences are
// replaced, never dropped.
func DecodeUnits(b []byte, unit uint8, order abi.ByteOrder) string {
	switch unit {
	case 2:
		bo := order.Binary()
		u := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u = append(u, bo.Uint16(b[i:]))
		}
		return string(utf16.Decode(u))
	case 4:
		bo := order.Binary()
		r := make([]rune, 0, len(b)/4)
		for i := 0; i+3 < len(b); i += 4 {
			c := rune(bo.Uint32(b[i:]))
			if !utf8.ValidRune(c) {
				c = utf8.RuneError
			}
			r = append(r, c)
		}
		return string(r)
	default:
		return UTF8FromCBytes(b)
	}
}

// EncodeUnits converts a Go string into code units of size 1, 2 or 4
// bytes in the given byte order.
func EncodeUnits(s string, unit uint8, order abi.ByteOrder) []byte {
	switch unit {
	case 2:
		u := utf16.Encode([]rune(s))
		bo := order.Binary()
		b := make([]byte, 2*len(u))
		for i, c := range u {
			bo.PutUint16(b[2*i:], c)
		}
		return b
	case 4:
		r := []rune(s)
		bo := order.Binary()
		b := make([]byte, 4*len(r))
		for i, c := range r {
			bo.PutUint32(b[4*i:], uint32(c))
		}
		return b
	default:
		return []byte(s)
	}
}

// TermIndex returns the byte index of the first all-zero code unit
// in b, or -1 if none is present in the complete units of b.
func TermIndex(b []byte, unit uint8) int {
	if unit == 0 {
		unit = 1
	}
	n := int(unit)
	for i := 0; i+n <= len(b); i += n {
		zero := true
		for j := 0; j < n; j++ {
			if b[i+j] != 0 {
				zero = false
				break
			}
		}
		if zero {
			return i
		}
	}
	return -1
}

func ParseSize(str string) (int, error) {
	suffix := str[len(str)-1:]

	if !strings.Contains("KMG", suffix) {
		return strconv.Atoi(str)
	}

	val, err := strconv.Atoi(str[0 : len(str)-1])
	if err != nil {
		return 0, err
	}

	switch suffix {
	case "K":
		return val * 1024, nil
	case "M":
		return val * 1024 * 1024, nil
	case "G":
		return val * 1024 * 1024 * 1024, nil
	}

	// never reached
	return 0, nil
}

func SizeWithSuffix(size int) string {
	suffix := [4]string{"", "K", "M", "G"}

	i := 0
	for size > 1024 && i < 3 {
		size = size / 1024
		i++
	}

	return fmt.Sprintf("%d%s", size, suffix[i])
}
