// Package pool provides reusable buffer management using sync.Pool for
// the report writers.
package pool

import (
	"sync"
)

// DefaultBufferSize is the default size for byte buffers.
const DefaultBufferSize = 64 * 1024 // 64KB

// ByteBuffer wraps a byte slice for pooled reuse.
type ByteBuffer struct {
	Data []byte
}

// Reset clears the buffer for reuse.
func (b *ByteBuffer) Reset() {
	b.Data = b.Data[:0]
}

// Grow ensures the buffer has at least n bytes of capacity.
func (b *ByteBuffer) Grow(n int) {
	if cap(b.Data) < n {
		b.Data = make([]byte, 0, n)
	}
}

// Write appends data to the buffer.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.Data = append(b.Data, p...)
	return len(p), nil
}

// WriteString appends a string to the buffer.
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.Data = append(b.Data, s...)
	return len(s), nil
}

// Len returns the current length of data in the buffer.
func (b *ByteBuffer) Len() int {
	return len(b.Data)
}

// Bytes returns the underlying byte slice.
func (b *ByteBuffer) Bytes() []byte {
	return b.Data
}

// BufferPool manages reusable byte buffers.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with the specified buffer size.
func NewBufferPool(bufferSize int) *BufferPool {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	bp := &BufferPool{size: bufferSize}
	bp.pool.New = func() any {
		return &ByteBuffer{
			Data: make([]byte, 0, bufferSize),
		}
	}
	return bp
}

// Get retrieves a buffer from the pool.
func (p *BufferPool) Get() *ByteBuffer {
	return p.pool.Get().(*ByteBuffer)
}

// Put returns a buffer to the pool.
func (p *BufferPool) Put(buf *ByteBuffer) {
	buf.Reset()
	p.pool.Put(buf)
}
