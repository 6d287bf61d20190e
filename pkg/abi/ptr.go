// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

import (
	"fmt"
	"unsafe"
)

// PtrSize is the wire size of the wide pointer container.
const PtrSize = 16

// HostPtrWidth is the native pointer width of this process in bytes.
const HostPtrWidth = int(unsafe.Sizeof(uintptr(0)))

// Ptr is the wide pointer of the SIDE ABI: a 16-byte container
// carrying a native pointer in a lane selected by the host byte order
// and pointer width, with every other lane zero. Reading the
// container as a 128-bit integer in the writer's byte order always
// yields the pointer value zero-extended to 128 bits, which is what
// lets 32-, 64- and 128-bit peers share one blob layout.
//
// Inside blobs produced by the encoder the carried value is an offset
// from the blob origin rather than a raw address; the reader side
// makes the distinction, not the container.
type Ptr [PtrSize]byte

// SetAddr stores addr using the host byte order and pointer width.
func (p *Ptr) SetAddr(addr uint64) {
	p.Put(HostOrder, HostPtrWidth, addr)
}

// Addr loads the value previously stored with the host parameters.
func (p *Ptr) Addr() uint64 {
	return p.Get(HostOrder, HostPtrWidth)
}

// Put stores addr into the lane selected by (order, width). width is
// the writer's pointer width in bytes: 4, 8 or 16. Lanes other than
// the selected one are cleared, so Put is also the canonical way to
// zero-initialize a container.
func (p *Ptr) Put(order ByteOrder, width int, addr uint64) {
	*p = Ptr{}
	lane := 0
	if order == BigEndian {
		lane = PtrSize/width - 1
	}
	switch width {
	case 4:
		order.Binary().PutUint32(p[lane*4:], uint32(addr))
	case 8:
		order.Binary().PutUint64(p[lane*8:], addr)
	case 16:
		// 128-bit peers: the value occupies the whole container.
		// Only the low 64 bits are expressible from Go.
		if order == BigEndian {
			order.Binary().PutUint64(p[8:], addr)
		} else {
			order.Binary().PutUint64(p[0:], addr)
		}
	default:
		panic(fmt.Sprintf("abi: unsupported pointer width %d", width))
	}
}

// Get extracts the value stored for the given writer parameters.
func (p *Ptr) Get(order ByteOrder, width int) uint64 {
	lane := 0
	if order == BigEndian {
		lane = PtrSize/width - 1
	}
	switch width {
	case 4:
		return uint64(order.Binary().Uint32(p[lane*4:]))
	case 8:
		return order.Binary().Uint64(p[lane*8:])
	case 16:
		if order == BigEndian {
			return order.Binary().Uint64(p[8:])
		}
		return order.Binary().Uint64(p[0:])
	default:
		panic(fmt.Sprintf("abi: unsupported pointer width %d", width))
	}
}

// IsNull reports whether every lane is zero.
func (p *Ptr) IsNull() bool {
	return *p == Ptr{}
}

// UnsafeWindow maps addr, a raw address in this process, to a byte
// slice of length n backed by that memory. It is the in-process
// identity pointer resolution: the caller owns the guarantee that the
// region stays alive and addressable for the lifetime of the slice.
// Cross-address-space readers implement a MemReader instead.
func UnsafeWindow(addr uint64, n int) []byte {
	if addr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

// AddrOf returns the raw address of the first byte of b, suitable for
// handing to a gather argument together with UnsafeWindow-style
// resolution. The slice must be kept alive by the caller for as long
// as the address circulates.
func AddrOf(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}
