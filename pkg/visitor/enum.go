// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
)

// matchEnum collects the labels of every mapping whose inclusive
// [Begin, End] range contains v, in declaration order. Overlaps are
// legal; an unmatched value returns nil and is not an error.
func matchEnum(e *side.EnumType, v abi.Int128) []string {
	var labels []string
	for i := range e.Mappings {
		m := &e.Mappings[i]
		if v.InRange(m.Begin, m.End) {
			labels = append(labels, m.Label)
		}
	}
	return labels
}

// matchBitmap collects the labels of every mapping with at least one
// set bit in positions Begin..End of the resolved value pattern.
// Positions outside 0..127 never match.
func matchBitmap(e *side.EnumType, v side.ScalarValue) []string {
	var labels []string
	for i := range e.Mappings {
		m := &e.Mappings[i]
		if bitSetInRange(v, m.Begin, m.End) {
			labels = append(labels, m.Label)
		}
	}
	return labels
}

func bitSetInRange(v side.ScalarValue, begin, end int64) bool {
	if end < begin || end < 0 || begin > 127 {
		return false
	}
	if begin < 0 {
		begin = 0
	}
	if end > 127 {
		end = 127
	}
	for b := begin; b <= end; b++ {
		var w uint64
		if b < 64 {
			w = v.Lo >> uint(b)
		} else {
			w = v.Hi >> uint(b-64)
		}
		if w&1 != 0 {
			return true
		}
	}
	return false
}
