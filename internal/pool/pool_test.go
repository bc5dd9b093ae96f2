package pool

import (
	"fmt"
	"testing"
)

func TestByteBuffer_Write(t *testing.T) {
	var b ByteBuffer
	if _, err := b.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.WriteString("def"); err != nil {
		t.Fatal(err)
	}
	fmt.Fprintf(&b, "-%d", 7)

	if got := string(b.Bytes()); got != "abcdef-7" {
		t.Errorf("expected abcdef-7, got %q", got)
	}
	if b.Len() != 8 {
		t.Errorf("expected length 8, got %d", b.Len())
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("expected empty buffer after reset, got %d", b.Len())
	}
}

func TestByteBuffer_Grow(t *testing.T) {
	var b ByteBuffer
	b.Grow(128)
	if cap(b.Data) < 128 {
		t.Errorf("expected capacity >= 128, got %d", cap(b.Data))
	}
}

func TestBufferPool_Reuse(t *testing.T) {
	p := NewBufferPool(16)

	buf := p.Get()
	buf.WriteString("payload")
	p.Put(buf)

	again := p.Get()
	if again.Len() != 0 {
		t.Errorf("pooled buffer must come back empty, got %d bytes", again.Len())
	}
}

func TestNewBufferPool_DefaultSize(t *testing.T) {
	p := NewBufferPool(0)
	buf := p.Get()
	if cap(buf.Data) != DefaultBufferSize {
		t.Errorf("expected default capacity %d, got %d", DefaultBufferSize, cap(buf.Data))
	}
}
