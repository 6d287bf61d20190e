// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"github.com/efficios/go-side/pkg/abi"
)

// VLAVisitorContext is handed to an application-supplied VLA visitor
// so it can stream elements into the walk. Each written element is
// routed through the normal argument visitor for the declared
// element type. WriteElem returns the first error reported by a
// tracer; the visitor should stop and propagate it.
type VLAVisitorContext interface {
	WriteElem(a Arg) error
}

// VLAVisitor produces the elements of a visitor-backed
// variable-length array. Returning a non-nil error aborts the event.
type VLAVisitor func(ctx VLAVisitorContext, appCtx any) error

// DynamicStructVisitorContext is handed to an application-supplied
// dynamic struct visitor so it can stream named fields into the
// walk. Field values must be dynamic arguments.
type DynamicStructVisitorContext interface {
	WriteField(name string, a Arg) error
}

// DynamicStructVisitor produces the fields of a visitor-backed
// dynamic struct. Returning a non-nil error aborts the event.
type DynamicStructVisitor func(ctx DynamicStructVisitorContext, appCtx any) error

// MemReader resolves a raw address into a readable window of n
// bytes. Gather walks use it for every value they pull out of
// memory, which lets the same description drive reads from another
// process or from a captured core image.
type MemReader interface {
	Window(addr uint64, n int) ([]byte, error)
}

type hostMemory struct{}

func (hostMemory) Window(addr uint64, n int) ([]byte, error) {
	if addr == 0 {
		return nil, ErrNullGatherBase
	}
	return abi.UnsafeWindow(addr, n), nil
}

// HostMemory reads gather values from this process's own address
// space. It is the default memory reader of a walk.
var HostMemory MemReader = hostMemory{}
