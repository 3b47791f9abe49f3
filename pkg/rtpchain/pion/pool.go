package pion

import (
	"sync"

	"github.com/pion/rtp"
)

// mtu sizes pooled buffers; larger packets get a one-off allocation.
const mtu = 1500

// headerPool reuses the rtp.Header a modified outgoing packet is encoded
// with, since the caller's header must not be written.
var headerPool = sync.Pool{
	New: func() any {
		return &rtp.Header{}
	},
}

func getHeader(from *rtp.Header) *rtp.Header {
	h := headerPool.Get().(*rtp.Header)
	*h = *from
	return h
}

func putHeader(h *rtp.Header) {
	*h = rtp.Header{}
	headerPool.Put(h)
}

// bufPool holds scratch buffers for re-encoding incoming packets whose
// payload still aliases the reader's buffer.
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, mtu)
		return &b
	},
}

func getBuffer(size int) *[]byte {
	if size > mtu {
		b := make([]byte, size)
		return &b
	}
	b := bufPool.Get().(*[]byte)
	*b = (*b)[:size]
	return b
}

func putBuffer(b *[]byte) {
	if cap(*b) != mtu {
		return
	}
	*b = (*b)[:mtu]
	bufPool.Put(b)
}
