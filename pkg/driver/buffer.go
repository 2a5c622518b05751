// Package driver defines the packet-buffer contract a kernel-bypass NIC
// driver would satisfy, plus an in-memory implementation used for tests
// and for a software bring-up mode. Nothing in this package is on any
// given packet's critical serialisation path except the buffer itself;
// dataplane workers only ever see the Buffer interface.
package driver

import "github.com/srv6pot/potnode/pkg/errs"

// MaxHeadroom bounds how much space AddExtensions may prepend. It is
// sized above the 136-byte SRH+HMAC TLV+PoT TLV chain so a single
// add_extensions call never has to reallocate.
const MaxHeadroom = 192

// Buffer is a contiguous Ethernet frame with headroom reserved ahead of
// the data for prepending extension headers. A Buffer is owned by
// exactly one worker at a time; Release must be called exactly once on
// every code path that does not hand the buffer to a successful transmit
// (which transfers ownership to the port).
type Buffer interface {
	// Bytes returns the frame's current bytes, headroom excluded.
	Bytes() []byte

	// ExtendHeadroom grows the frame by n bytes at its front, shifting
	// Bytes() to start n bytes earlier. It fails if n exceeds the
	// remaining headroom.
	ExtendHeadroom(n int) error

	// ShrinkHeadroom is ExtendHeadroom's inverse: it drops n bytes from
	// the front of the frame.
	ShrinkHeadroom(n int) error

	// Release returns the buffer to its owning pool. Using a Buffer
	// after Release is undefined.
	Release()
}

// Pool allocates and reclaims Buffers. A NIC driver backs this with
// pinned DMA-capable memory; the in-memory Pool in this package backs it
// with plain heap allocations for tests and bring-up.
type Pool interface {
	// Alloc returns a zeroed Buffer with MaxHeadroom bytes of headroom
	// ahead of an empty body.
	Alloc() (Buffer, error)

	// AllocFrom returns a Buffer whose body is a copy of data, with
	// MaxHeadroom bytes of headroom ahead of it.
	AllocFrom(data []byte) (Buffer, error)
}

// NewPool returns the in-memory Pool implementation.
func NewPool() Pool { return &memPool{} }

type memPool struct{}

func (*memPool) Alloc() (Buffer, error) {
	return &memBuffer{
		backing: make([]byte, MaxHeadroom),
		start:   MaxHeadroom,
		end:     MaxHeadroom,
	}, nil
}

func (*memPool) AllocFrom(data []byte) (Buffer, error) {
	backing := make([]byte, MaxHeadroom+len(data))
	copy(backing[MaxHeadroom:], data)
	return &memBuffer{
		backing: backing,
		start:   MaxHeadroom,
		end:     MaxHeadroom + len(data),
	}, nil
}

// memBuffer is the in-memory Buffer used by tests and the bring-up path.
type memBuffer struct {
	backing []byte
	start   int
	end     int
}

func (b *memBuffer) Bytes() []byte { return b.backing[b.start:b.end] }

func (b *memBuffer) ExtendHeadroom(n int) error {
	if n > b.start {
		return errs.New(errs.MalformedPacket, "buffer: extend_headroom(%d) exceeds available headroom %d", n, b.start)
	}
	b.start -= n
	return nil
}

func (b *memBuffer) ShrinkHeadroom(n int) error {
	if n > b.end-b.start {
		return errs.New(errs.MalformedPacket, "buffer: shrink_headroom(%d) exceeds frame length %d", n, b.end-b.start)
	}
	b.start += n
	return nil
}

func (b *memBuffer) Release() {
	b.backing = nil
	b.start, b.end = 0, 0
}
