// File: pool/bytepool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool_test

import (
	"sync"
	"testing"

	"github.com/momentics/wsproc/pool"
)

func TestBytePool_FixedSize(t *testing.T) {
	bp := pool.NewBytePool(4096)
	if bp.Size() != 4096 {
		t.Fatalf("Size = %d", bp.Size())
	}
	buf := bp.Get()
	if len(buf) != 4096 || cap(buf) != 4096 {
		t.Fatalf("buffer len %d cap %d, want 4096/4096", len(buf), cap(buf))
	}
	bp.Put(buf)
}

func TestBytePool_RejectsForeignBuffers(t *testing.T) {
	bp := pool.NewBytePool(64)
	bp.Put(make([]byte, 16)) // wrong capacity, must be dropped
	buf := bp.Get()
	if len(buf) != 64 {
		t.Fatalf("foreign buffer leaked into the pool: len %d", len(buf))
	}
}

func TestBytePool_ReslicedBufferRestored(t *testing.T) {
	bp := pool.NewBytePool(64)
	buf := bp.Get()
	bp.Put(buf[:10])
	again := bp.Get()
	if len(again) != 64 {
		t.Fatalf("resliced buffer came back short: len %d", len(again))
	}
}

func TestBytePool_Concurrent(t *testing.T) {
	bp := pool.NewBytePool(256)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				buf := bp.Get()
				buf[0] = byte(i)
				bp.Put(buf)
			}
		}()
	}
	wg.Wait()
}
