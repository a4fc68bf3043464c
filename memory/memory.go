// Package memory runs layouts directly against wazero linear memory.
package memory

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/buffer-layout/errors"
	"github.com/wippyai/buffer-layout/layout"
)

// View adapts a wazero api.Memory so layouts can decode from and encode into
// guest memory without copying.
type View struct {
	Mem api.Memory
}

// Wrap returns a View over mem, or nil if mem is nil.
func Wrap(mem api.Memory) *View {
	if mem == nil {
		return nil
	}
	return &View{Mem: mem}
}

// Bytes returns the whole of linear memory. The slice aliases guest memory
// and is invalidated when the memory grows.
func (v *View) Bytes() []byte {
	b, _ := v.Mem.Read(0, v.Mem.Size())
	return b
}

// Window returns length bytes at addr, aliasing guest memory.
func (v *View) Window(addr, length uint32) ([]byte, error) {
	b, ok := v.Mem.Read(addr, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, int(addr), int(length), int(v.Mem.Size()))
	}
	return b, nil
}

// Decode decodes l at addr. Layouts whose span runs to the end of the buffer
// see all of memory; use DecodeWindow to bound them.
func (v *View) Decode(l layout.Layout, addr uint32) (any, error) {
	return layout.Decode(l, v.Bytes(), int(addr))
}

// DecodeWindow decodes l from the length bytes starting at addr.
func (v *View) DecodeWindow(l layout.Layout, addr, length uint32) (any, error) {
	b, err := v.Window(addr, length)
	if err != nil {
		return nil, err
	}
	return layout.Decode(l, b, 0)
}

// Encode writes src at addr and returns the number of bytes written.
func (v *View) Encode(l layout.Layout, src any, addr uint32) (int, error) {
	return layout.Encode(l, src, v.Bytes(), int(addr))
}

func (v *View) GetSpan(l layout.Layout, addr uint32) (int, error) {
	return layout.GetSpan(l, v.Bytes(), int(addr))
}
