package boundary

import (
	"errors"

	"github.com/lingtianyulong/img-proc/internal/core"
)

var (
	// ErrNullInput is returned for a nil descriptor or a nil pixel pointer
	ErrNullInput = errors.New("null input")
	// ErrInvalidHandle is returned for the zero handle and for handles that were closed
	ErrInvalidHandle = errors.New("invalid or closed handle")
	// ErrHandleBusy is returned when a handle already has an operation in flight
	ErrHandleBusy = errors.New("handle has an operation in flight")
	// ErrAllocationMismatch is returned when a buffer is released through the wrong strategy
	ErrAllocationMismatch = errors.New("buffer released with the wrong allocation strategy")
	// ErrUnknownBuffer is returned for pointers that are not outstanding output buffers
	ErrUnknownBuffer = errors.New("buffer is not an outstanding output")
	// ErrOutOfMemory is returned when the C allocator fails
	ErrOutOfMemory = errors.New("out of memory")
)

// Status is the result code returned by every C entry point
type Status int32

const (
	StatusOK Status = iota
	StatusNullInput
	StatusEmptyImage
	StatusUnsupportedFormat
	StatusInvalidHandle
	StatusAllocationMismatch
	StatusBufferSize
	StatusTooLarge
	StatusBusy
	StatusInternal
)

var statusNames = map[Status]string{
	StatusOK:                 "ok",
	StatusNullInput:          "null input",
	StatusEmptyImage:         "image is empty",
	StatusUnsupportedFormat:  "unsupported format",
	StatusInvalidHandle:      "invalid or closed handle",
	StatusAllocationMismatch: "allocation strategy mismatch",
	StatusBufferSize:         "buffer size mismatch",
	StatusTooLarge:           "image too large",
	StatusBusy:               "handle busy",
	StatusInternal:           "internal error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown status"
}

// StatusOf maps an error to its status code. nil maps to StatusOK.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNullInput):
		return StatusNullInput
	case errors.Is(err, core.ErrEmptyImage):
		return StatusEmptyImage
	case errors.Is(err, core.ErrUnsupportedFormat):
		return StatusUnsupportedFormat
	case errors.Is(err, ErrInvalidHandle):
		return StatusInvalidHandle
	case errors.Is(err, ErrAllocationMismatch), errors.Is(err, ErrUnknownBuffer):
		return StatusAllocationMismatch
	case errors.Is(err, core.ErrBufferSize):
		return StatusBufferSize
	case errors.Is(err, core.ErrImageTooLarge):
		return StatusTooLarge
	case errors.Is(err, ErrHandleBusy):
		return StatusBusy
	default:
		return StatusInternal
	}
}
