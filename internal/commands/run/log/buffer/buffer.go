// Package buffer holds an append-only capture buffer for stage logs.
package buffer

import (
	"io"
	"sync"
)

var (
	_ io.ReaderAt = (*Buffer)(nil)
	_ io.Writer   = (*Buffer)(nil)
)

// Buffer accumulates everything a stage wrote to its log. It is safe for a
// writing stage and a reading publisher to use concurrently.
type Buffer struct {
	mu     sync.Mutex
	buffer []byte
}

func NewBuffer() *Buffer {
	return &Buffer{
		mu:     sync.Mutex{},
		buffer: make([]byte, 0),
	}
}

func (b *Buffer) Length() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.buffer)
}

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}

	if off >= int64(len(b.buffer)) {
		return 0, io.EOF
	}

	n := copy(p, b.buffer[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer = append(b.buffer, p...)

	return len(p), nil
}

// Bytes returns a copy of the captured log.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make([]byte, len(b.buffer))
	copy(snapshot, b.buffer)

	return snapshot
}
