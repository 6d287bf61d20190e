// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package encoder

import (
	"errors"
	"fmt"
)

// ErrShortBuffer reports a window request extending past the end of
// an in-memory blob.
var ErrShortBuffer = errors.New("blob too short")

// BlobReader serves windows from an in-memory blob. Pointers inside
// a blob hold offsets from its origin, so the root record sits at
// address zero.
type BlobReader struct {
	blob []byte
}

func NewBlobReader(blob []byte) *BlobReader {
	return &BlobReader{blob: blob}
}

func (r *BlobReader) Window(addr uint64, n int) ([]byte, error) {
	end := addr + uint64(n)
	if end < addr || end > uint64(len(r.blob)) {
		return nil, fmt.Errorf("%w: %d bytes at offset 0x%x of %d", ErrShortBuffer, n, addr, len(r.blob))
	}
	return r.blob[addr:end], nil
}
