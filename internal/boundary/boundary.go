// Ownership and lifetime protocol between foreign callers and processing contexts
package boundary

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/algorithms"
	"github.com/lingtianyulong/img-proc/internal/config"
	"github.com/lingtianyulong/img-proc/internal/core"
	"github.com/lingtianyulong/img-proc/internal/processing"
)

// Descriptor describes caller-owned pixel memory handed to Open
type Descriptor struct {
	Width    uint32
	Height   uint32
	Channels uint32
	Data     unsafe.Pointer
}

// Boundary owns every context and output buffer handed to foreign callers.
//
// Contexts are reached only through handles; a handle that was closed is
// rejected with ErrInvalidHandle. Output buffers are tracked until they
// are released, and a release through the wrong strategy is rejected
// with ErrAllocationMismatch instead of corrupting the heap.
type Boundary struct {
	cfg     config.Config
	logger  logrus.FieldLogger
	runner  *algorithms.Runner
	handles registry
	buffers *bufferTable
	metrics *Metrics

	// inflight is held shared by every operation and exclusively by Shutdown
	inflight sync.RWMutex
}

// Metrics counts boundary transitions
type Metrics struct {
	mu            sync.RWMutex
	opened        int64
	closed        int64
	allocated     int64
	released      int64
	rejected      int64
	openFailures  int64
	runFailures   int64
	bytesInFlight int64
}

// Stats is a snapshot of the boundary state
type Stats struct {
	LiveHandles        int
	OutstandingBuffers int
	Opened             int64
	Closed             int64
	Allocated          int64
	Released           int64
	RejectedReleases   int64
	OpenFailures       int64
	RunFailures        int64
	BytesInFlight      int64
}

// New creates a boundary with its own worker pool
func New(cfg config.Config, logger logrus.FieldLogger) *Boundary {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = core.DefaultMaxDimension
	}
	runner := algorithms.NewRunner(cfg.Workers)
	logger.WithFields(logrus.Fields{
		"workers":       runner.Workers(),
		"max_dimension": cfg.MaxDimension,
	}).Debug("Processing boundary ready")

	return &Boundary{
		cfg:     cfg,
		logger:  logger,
		runner:  runner,
		buffers: newBufferTable(),
		metrics: &Metrics{},
	}
}

// Open validates d, copies its pixels and returns a handle owning the copy.
// The boundary never keeps a pointer into caller memory.
func (b *Boundary) Open(d *Descriptor) (Handle, error) {
	h, err := b.open(d)
	if err != nil {
		b.metrics.mu.Lock()
		b.metrics.openFailures++
		b.metrics.mu.Unlock()
		b.logger.WithError(err).Warn("Failed to open processing handle")
		return 0, err
	}
	return h, nil
}

func (b *Boundary) open(d *Descriptor) (Handle, error) {
	if d == nil {
		return 0, fmt.Errorf("descriptor: %w", ErrNullInput)
	}
	if err := core.ValidateImage(int(d.Width), int(d.Height), int(d.Channels), b.cfg.MaxDimension); err != nil {
		return 0, err
	}
	n, ok := core.BufferLen(uint64(d.Width), uint64(d.Height), uint64(d.Channels))
	if !ok {
		return 0, fmt.Errorf("%dx%dx%d overflows: %w", d.Width, d.Height, d.Channels, core.ErrImageTooLarge)
	}
	if n > 0 && d.Data == nil {
		return 0, fmt.Errorf("pixel buffer: %w", ErrNullInput)
	}

	pix := make([]byte, n)
	if n > 0 {
		copy(pix, unsafe.Slice((*byte)(d.Data), n))
	}
	img, err := core.NewImage(int(d.Width), int(d.Height), int(d.Channels), pix)
	if err != nil {
		return 0, err
	}

	ctx := processing.NewContext(img,
		processing.WithRunner(b.runner),
		processing.WithLogger(b.logger))
	h := b.handles.insert(ctx)

	b.metrics.mu.Lock()
	b.metrics.opened++
	b.metrics.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"handle":   uint64(h),
		"width":    d.Width,
		"height":   d.Height,
		"channels": d.Channels,
	}).Debug("Opened processing handle")
	return h, nil
}

// Image returns the context's image as a borrowed view.
// The view is valid until h is closed and must not be written to.
func (b *Boundary) Image(h Handle) (core.Image, error) {
	ctx, done, err := b.handles.acquire(h)
	if err != nil {
		return core.Image{}, err
	}
	defer done()
	return ctx.Image(), nil
}

// RunGrayscale converts the owned image to grayscale into a boxed buffer
func (b *Boundary) RunGrayscale(h Handle) (Buffer, error) {
	return b.run(h, "grayscale", AllocBoxed, func(ctx *processing.Context) (core.Image, error) {
		return ctx.ToGray()
	})
}

// RunThreshold binarizes the grayscale rendition of the owned image into a vector buffer
func (b *Boundary) RunThreshold(h Handle, t uint8) (Buffer, error) {
	return b.run(h, "threshold", AllocVector, func(ctx *processing.Context) (core.Image, error) {
		return ctx.ThresholdSelf(t)
	})
}

// RunHSV converts the owned image to packed HSV into a boxed buffer
func (b *Boundary) RunHSV(h Handle) (Buffer, error) {
	return b.run(h, "hsv", AllocBoxed, func(ctx *processing.Context) (core.Image, error) {
		return ctx.ToHSV()
	})
}

func (b *Boundary) run(h Handle, op string, tag Allocation, fn func(*processing.Context) (core.Image, error)) (Buffer, error) {
	b.inflight.RLock()
	buf, err := b.runLocked(h, tag, fn)
	b.inflight.RUnlock()
	if err != nil {
		b.metrics.mu.Lock()
		b.metrics.runFailures++
		b.metrics.mu.Unlock()
		b.logger.WithError(err).WithFields(logrus.Fields{
			"handle":    uint64(h),
			"operation": op,
		}).Warn("Operation failed")
		return Buffer{}, fmt.Errorf("%s: %w", op, err)
	}

	b.metrics.mu.Lock()
	b.metrics.allocated++
	b.metrics.bytesInFlight += int64(buf.Len)
	b.metrics.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"handle":     uint64(h),
		"operation":  op,
		"allocation": buf.Tag.String(),
		"bytes":      buf.Len,
	}).Debug("Output buffer handed to caller")
	return buf, nil
}

func (b *Boundary) runLocked(h Handle, tag Allocation, fn func(*processing.Context) (core.Image, error)) (Buffer, error) {
	ctx, done, err := b.handles.acquire(h)
	if err != nil {
		return Buffer{}, err
	}
	defer done()

	img, err := fn(ctx)
	if err != nil {
		return Buffer{}, err
	}

	switch tag {
	case AllocBoxed:
		return b.buffers.boxed(img)
	case AllocVector:
		return b.buffers.vector(img)
	default:
		return Buffer{}, fmt.Errorf("unknown allocation %d", tag)
	}
}

// Close destroys the context behind h. Closing twice returns ErrInvalidHandle.
func (b *Boundary) Close(h Handle) error {
	if _, err := b.handles.remove(h); err != nil {
		b.logger.WithError(err).WithField("handle", uint64(h)).Warn("Failed to close processing handle")
		return err
	}

	b.metrics.mu.Lock()
	b.metrics.closed++
	b.metrics.mu.Unlock()

	b.logger.WithField("handle", uint64(h)).Debug("Closed processing handle")
	return nil
}

// ReleaseBoxed frees a buffer produced by RunGrayscale or RunHSV
func (b *Boundary) ReleaseBoxed(buf Buffer) error {
	return b.release(buf, AllocBoxed)
}

// ReleaseVector frees a buffer produced by RunThreshold
func (b *Boundary) ReleaseVector(buf Buffer) error {
	return b.release(buf, AllocVector)
}

// Release frees any output buffer using the strategy it was allocated with
func (b *Boundary) Release(buf Buffer) error {
	return b.release(buf, AllocNone)
}

func (b *Boundary) release(buf Buffer, want Allocation) error {
	tag, err := b.buffers.release(buf, want)
	if err != nil {
		b.metrics.mu.Lock()
		b.metrics.rejected++
		b.metrics.mu.Unlock()
		b.logger.WithError(err).WithFields(logrus.Fields{
			"requested":  want.String(),
			"allocation": tag.String(),
		}).Warn("Rejected buffer release")
		return err
	}

	b.metrics.mu.Lock()
	b.metrics.released++
	b.metrics.bytesInFlight -= int64(buf.Len)
	b.metrics.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"allocation": tag.String(),
		"bytes":      buf.Len,
	}).Debug("Released output buffer")
	return nil
}

// Stats returns a snapshot of live handles, outstanding buffers and counters
func (b *Boundary) Stats() Stats {
	b.metrics.mu.RLock()
	defer b.metrics.mu.RUnlock()
	return Stats{
		LiveHandles:        b.handles.count(),
		OutstandingBuffers: b.buffers.count(),
		Opened:             b.metrics.opened,
		Closed:             b.metrics.closed,
		Allocated:          b.metrics.allocated,
		Released:           b.metrics.released,
		RejectedReleases:   b.metrics.rejected,
		OpenFailures:       b.metrics.openFailures,
		RunFailures:        b.metrics.runFailures,
		BytesInFlight:      b.metrics.bytesInFlight,
	}
}

// Shutdown waits for in-flight operations and stops the worker pool.
// Handles and buffers stay valid; later operations run sequentially.
func (b *Boundary) Shutdown() {
	b.inflight.Lock()
	defer b.inflight.Unlock()
	b.runner.Close()
}
