// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool hands out fixed-capacity byte buffers. The session layer
// uses it for transport read staging so steady-state decoding does not
// allocate per chunk.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool creates a pool of buffers with the given capacity.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		return make([]byte, size)
	}
	return bp
}

// Get returns a buffer of exactly the pool's size.
func (b *BytePool) Get() []byte {
	return b.p.Get().([]byte)
}

// Put returns a buffer to the pool. Buffers of the wrong capacity are
// dropped so a resliced or foreign buffer cannot poison the pool.
func (b *BytePool) Put(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	b.p.Put(buf[:b.size]) //nolint:staticcheck // SA6002: slice header churn is fine here
}

// Size returns the capacity of buffers managed by this pool.
func (b *BytePool) Size() int {
	return b.size
}
