package boundary

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Allocation identifies how an output buffer was allocated and therefore
// how it must be released.
type Allocation uint32

const (
	// AllocNone marks an unset buffer
	AllocNone Allocation = iota
	// AllocBoxed buffers live on the C heap and are released with free(3)
	AllocBoxed
	// AllocVector buffers are the Go result slice itself, pinned until released
	AllocVector
)

func (a Allocation) String() string {
	switch a {
	case AllocBoxed:
		return "boxed"
	case AllocVector:
		return "vector"
	default:
		return "none"
	}
}

// Buffer describes an output image whose storage is owned by the caller
// until it is handed back to a release function.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Data     unsafe.Pointer
	Len      int
	Tag      Allocation
}

// Bytes returns a slice over the buffer memory. It is valid until the buffer is released.
func (b Buffer) Bytes() []byte {
	if b.Data == nil || b.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.Data), b.Len)
}

type bufferEntry struct {
	tag    Allocation
	length int
	pix    []byte // AllocVector only
	pinner runtime.Pinner
}

// bufferTable tracks every outstanding output buffer by its data pointer
type bufferTable struct {
	mu      sync.Mutex
	entries map[uintptr]*bufferEntry
}

func newBufferTable() *bufferTable {
	return &bufferTable{entries: make(map[uintptr]*bufferEntry)}
}

func describe(img core.Image, data unsafe.Pointer, tag Allocation) Buffer {
	return Buffer{
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Data:     data,
		Len:      len(img.Pix),
		Tag:      tag,
	}
}

// boxed copies img into C heap memory
func (t *bufferTable) boxed(img core.Image) (Buffer, error) {
	n := len(img.Pix)
	if n == 0 {
		return Buffer{}, core.ErrEmptyImage
	}
	data := C.malloc(C.size_t(n))
	if data == nil {
		return Buffer{}, fmt.Errorf("allocate %d bytes: %w", n, ErrOutOfMemory)
	}
	copy(unsafe.Slice((*byte)(data), n), img.Pix)

	t.mu.Lock()
	t.entries[uintptr(data)] = &bufferEntry{tag: AllocBoxed, length: n}
	t.mu.Unlock()

	return describe(img, data, AllocBoxed), nil
}

// vector hands out img.Pix itself, pinned so foreign code may hold the pointer
func (t *bufferTable) vector(img core.Image) (Buffer, error) {
	n := len(img.Pix)
	if n == 0 {
		return Buffer{}, core.ErrEmptyImage
	}
	entry := &bufferEntry{tag: AllocVector, length: n, pix: img.Pix}
	entry.pinner.Pin(&img.Pix[0])
	data := unsafe.Pointer(&img.Pix[0])

	t.mu.Lock()
	t.entries[uintptr(data)] = entry
	t.mu.Unlock()

	return describe(img, data, AllocVector), nil
}

// release frees buf if it was allocated with want. AllocNone accepts
// either strategy and dispatches on the recorded tag. A rejected release
// leaves the buffer outstanding.
func (t *bufferTable) release(buf Buffer, want Allocation) (Allocation, error) {
	if buf.Data == nil {
		return AllocNone, ErrNullInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := uintptr(buf.Data)
	entry, ok := t.entries[key]
	if !ok {
		return AllocNone, ErrUnknownBuffer
	}
	if want != AllocNone && entry.tag != want {
		return entry.tag, fmt.Errorf("%s buffer passed to %s release: %w", entry.tag, want, ErrAllocationMismatch)
	}
	if buf.Len != entry.length {
		return entry.tag, fmt.Errorf("descriptor covers %d bytes, allocation has %d: %w",
			buf.Len, entry.length, core.ErrBufferSize)
	}

	delete(t.entries, key)
	switch entry.tag {
	case AllocBoxed:
		C.free(buf.Data)
	case AllocVector:
		entry.pinner.Unpin()
		entry.pix = nil
	}
	return entry.tag, nil
}

func (t *bufferTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
