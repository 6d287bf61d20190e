// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package encoder

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/efficios/go-side/pkg/side"
)

type windowKey struct {
	addr uint64
	n    int
}

// CachingReader memoizes the windows of a slower reader, typically
// one crossing a process boundary. Descriptions are immutable once
// registered, so repeated walks hit the same windows over and over.
// Cached windows are private copies; callers must treat them as
// read-only, as with any MemReader.
type CachingReader struct {
	mem   side.MemReader
	cache *lru.Cache[windowKey, []byte]
}

// NewCachingReader wraps mem with an LRU of the given window count.
func NewCachingReader(mem side.MemReader, windows int) (*CachingReader, error) {
	c, err := lru.New[windowKey, []byte](windows)
	if err != nil {
		return nil, err
	}
	return &CachingReader{mem: mem, cache: c}, nil
}

func (r *CachingReader) Window(addr uint64, n int) ([]byte, error) {
	key := windowKey{addr: addr, n: n}
	if b, ok := r.cache.Get(key); ok {
		return b, nil
	}
	b, err := r.mem.Window(addr, n)
	if err != nil {
		return nil, err
	}
	// Copy before caching: live readers may return views into
	// transient buffers.
	cp := make([]byte, len(b))
	copy(cp, b)
	r.cache.Add(key, cp)
	return cp, nil
}

// Purge drops every cached window, for use after the traced address
// space is known to have changed.
func (r *CachingReader) Purge() {
	r.cache.Purge()
}
