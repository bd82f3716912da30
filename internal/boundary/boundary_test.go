package boundary

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingtianyulong/img-proc/internal/config"
	"github.com/lingtianyulong/img-proc/internal/core"
)

func newTestBoundary(t *testing.T) (*Boundary, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := config.Default()
	cfg.Workers = 4
	b := New(cfg, logger)
	t.Cleanup(b.Shutdown)
	return b, hook
}

func descriptor(w, h, c uint32, pix []byte) *Descriptor {
	d := &Descriptor{Width: w, Height: h, Channels: c}
	if len(pix) > 0 {
		d.Data = unsafe.Pointer(&pix[0])
	}
	return d
}

func rgbPixels() []byte {
	return []byte{
		255, 0, 0, 0, 255, 0, 0, 0, 255,
		10, 20, 30, 128, 128, 128, 255, 255, 255,
	}
}

func openRGB(t *testing.T, b *Boundary) Handle {
	t.Helper()
	h, err := b.Open(descriptor(3, 2, 3, rgbPixels()))
	require.NoError(t, err)
	require.NotZero(t, h)
	return h
}

func assertNoLeaks(t *testing.T, b *Boundary) {
	t.Helper()
	stats := b.Stats()
	assert.Zero(t, stats.LiveHandles, "live handles")
	assert.Zero(t, stats.OutstandingBuffers, "outstanding buffers")
	assert.Zero(t, stats.BytesInFlight, "bytes in flight")
}

func TestOpenRejectsInvalidInput(t *testing.T) {
	b, _ := newTestBoundary(t)

	_, err := b.Open(nil)
	require.ErrorIs(t, err, ErrNullInput)

	_, err = b.Open(&Descriptor{Width: 2, Height: 2, Channels: 3})
	require.ErrorIs(t, err, ErrNullInput)

	for _, channels := range []uint32{0, 2, 5, 255} {
		h, err := b.Open(descriptor(1, 1, channels, make([]byte, 8)))
		require.ErrorIs(t, err, core.ErrUnsupportedFormat)
		assert.Zero(t, h)
	}

	_, err = b.Open(descriptor(core.DefaultMaxDimension+1, 1, 1, make([]byte, 1)))
	require.ErrorIs(t, err, core.ErrImageTooLarge)

	stats := b.Stats()
	assert.Zero(t, stats.LiveHandles)
	assert.Zero(t, stats.Opened)
	assert.Equal(t, int64(7), stats.OpenFailures)
}

func TestOpenCopiesCallerMemory(t *testing.T) {
	b, _ := newTestBoundary(t)
	pix := rgbPixels()

	h, err := b.Open(descriptor(3, 2, 3, pix))
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close(h)) }()

	view, err := b.Image(h)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Width)
	assert.Equal(t, 2, view.Height)
	assert.Equal(t, 3, view.Channels)
	assert.Equal(t, rgbPixels(), view.Pix)

	// caller memory may change or go away after Open
	for i := range pix {
		pix[i] = 0
	}
	view, err = b.Image(h)
	require.NoError(t, err)
	assert.Equal(t, rgbPixels(), view.Pix)
}

func TestRunGrayscaleUsesBoxedAllocation(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)

	buf, err := b.RunGrayscale(h)
	require.NoError(t, err)
	assert.Equal(t, AllocBoxed, buf.Tag)
	assert.Equal(t, 3, buf.Width)
	assert.Equal(t, 2, buf.Height)
	assert.Equal(t, 1, buf.Channels)
	assert.Equal(t, 6, buf.Len)
	assert.Equal(t, []byte{54, 182, 18, 18, 128, 255}, buf.Bytes())
	assert.Equal(t, 1, b.Stats().OutstandingBuffers)

	require.NoError(t, b.ReleaseBoxed(buf))
	require.NoError(t, b.Close(h))
	assertNoLeaks(t, b)
}

func TestRunThresholdUsesVectorAllocation(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)

	buf, err := b.RunThreshold(h, 128)
	require.NoError(t, err)
	assert.Equal(t, AllocVector, buf.Tag)
	assert.Equal(t, 1, buf.Channels)
	assert.Equal(t, []byte{0, 255, 0, 0, 0, 255}, buf.Bytes())

	require.NoError(t, b.ReleaseVector(buf))
	require.NoError(t, b.Close(h))
	assertNoLeaks(t, b)
}

func TestRunHSV(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)
	defer func() { require.NoError(t, b.Close(h)) }()

	buf, err := b.RunHSV(h)
	require.NoError(t, err)
	assert.Equal(t, AllocBoxed, buf.Tag)
	assert.Equal(t, 3, buf.Channels)
	assert.Equal(t, []byte{0, 255, 255}, buf.Bytes()[0:3])
	require.NoError(t, b.Release(buf))
}

func TestCrossedReleaseIsRejected(t *testing.T) {
	b, hook := newTestBoundary(t)
	h := openRGB(t, b)

	gray, err := b.RunGrayscale(h)
	require.NoError(t, err)
	binary, err := b.RunThreshold(h, 100)
	require.NoError(t, err)

	err = b.ReleaseVector(gray)
	require.ErrorIs(t, err, ErrAllocationMismatch)
	assert.Equal(t, StatusAllocationMismatch, StatusOf(err))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	err = b.ReleaseBoxed(binary)
	require.ErrorIs(t, err, ErrAllocationMismatch)

	// both buffers are still intact and releasable through the right path
	assert.Equal(t, 2, b.Stats().OutstandingBuffers)
	assert.Equal(t, []byte{54, 182, 18, 18, 128, 255}, gray.Bytes())
	require.NoError(t, b.ReleaseBoxed(gray))
	require.NoError(t, b.ReleaseVector(binary))

	assert.Equal(t, int64(2), b.Stats().RejectedReleases)
	require.NoError(t, b.Close(h))
	assertNoLeaks(t, b)
}

func TestUnifiedReleaseAcceptsBothStrategies(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)

	gray, err := b.RunGrayscale(h)
	require.NoError(t, err)
	binary, err := b.RunThreshold(h, 100)
	require.NoError(t, err)

	require.NoError(t, b.Release(gray))
	require.NoError(t, b.Release(binary))

	require.NoError(t, b.Close(h))
	assertNoLeaks(t, b)
}

func TestDoubleReleaseIsRejected(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)
	defer func() { require.NoError(t, b.Close(h)) }()

	buf, err := b.RunGrayscale(h)
	require.NoError(t, err)
	require.NoError(t, b.ReleaseBoxed(buf))

	err = b.ReleaseBoxed(buf)
	require.ErrorIs(t, err, ErrUnknownBuffer)

	require.ErrorIs(t, b.Release(Buffer{}), ErrNullInput)
}

func TestReleaseWithWrongLength(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)
	defer func() { require.NoError(t, b.Close(h)) }()

	buf, err := b.RunThreshold(h, 10)
	require.NoError(t, err)

	bad := buf
	bad.Len++
	require.ErrorIs(t, b.ReleaseVector(bad), core.ErrBufferSize)
	assert.Equal(t, 1, b.Stats().OutstandingBuffers)

	require.NoError(t, b.ReleaseVector(buf))
}

func TestUseAfterCloseIsChecked(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)
	require.NoError(t, b.Close(h))

	_, err := b.RunGrayscale(h)
	require.ErrorIs(t, err, ErrInvalidHandle)
	_, err = b.RunThreshold(h, 1)
	require.ErrorIs(t, err, ErrInvalidHandle)
	_, err = b.RunHSV(h)
	require.ErrorIs(t, err, ErrInvalidHandle)
	_, err = b.Image(h)
	require.ErrorIs(t, err, ErrInvalidHandle)

	err = b.Close(h)
	require.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, StatusInvalidHandle, StatusOf(err))

	require.ErrorIs(t, b.Close(0), ErrInvalidHandle)
	_, err = b.RunGrayscale(0)
	require.ErrorIs(t, err, ErrInvalidHandle)

	assertNoLeaks(t, b)
}

func TestStaleHandleDoesNotReachReusedSlot(t *testing.T) {
	b, _ := newTestBoundary(t)
	stale := openRGB(t, b)
	require.NoError(t, b.Close(stale))

	gray := []byte{1, 2, 3, 4}
	fresh, err := b.Open(descriptor(2, 2, 1, gray))
	require.NoError(t, err)
	assert.NotEqual(t, stale, fresh)

	_, err = b.Image(stale)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.ErrorIs(t, b.Close(stale), ErrInvalidHandle)

	view, err := b.Image(fresh)
	require.NoError(t, err)
	assert.Equal(t, gray, view.Pix)
	require.NoError(t, b.Close(fresh))
}

func TestEmptyImageReportsAtRunTime(t *testing.T) {
	b, _ := newTestBoundary(t)

	h, err := b.Open(descriptor(0, 4, 3, nil))
	require.NoError(t, err)

	_, err = b.RunGrayscale(h)
	require.ErrorIs(t, err, core.ErrEmptyImage)
	assert.Equal(t, StatusEmptyImage, StatusOf(err))
	_, err = b.RunThreshold(h, 10)
	require.ErrorIs(t, err, core.ErrEmptyImage)
	_, err = b.RunHSV(h)
	require.ErrorIs(t, err, core.ErrEmptyImage)

	stats := b.Stats()
	assert.Equal(t, int64(3), stats.RunFailures)
	assert.Zero(t, stats.OutstandingBuffers)

	require.NoError(t, b.Close(h))
	assertNoLeaks(t, b)
}

func TestHSVOfGrayscaleIsUnsupported(t *testing.T) {
	b, _ := newTestBoundary(t)
	h, err := b.Open(descriptor(2, 1, 1, []byte{3, 4}))
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close(h)) }()

	_, err = b.RunHSV(h)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.Equal(t, StatusUnsupportedFormat, StatusOf(err))
}

func TestBusyHandle(t *testing.T) {
	b, _ := newTestBoundary(t)
	h := openRGB(t, b)

	_, done, err := b.handles.acquire(h)
	require.NoError(t, err)

	_, err = b.RunGrayscale(h)
	require.ErrorIs(t, err, ErrHandleBusy)
	require.ErrorIs(t, b.Close(h), ErrHandleBusy)

	done()
	require.NoError(t, b.Close(h))
}

func TestDistinctHandlesConcurrently(t *testing.T) {
	b, _ := newTestBoundary(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := b.Open(descriptor(3, 2, 3, rgbPixels()))
			if err != nil {
				errs <- err
				return
			}
			for j := 0; j < 10; j++ {
				buf, err := b.RunThreshold(h, 128)
				if err != nil {
					errs <- err
					return
				}
				if err := b.Release(buf); err != nil {
					errs <- err
					return
				}
			}
			errs <- b.Close(h)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assertNoLeaks(t, b)
	assert.Equal(t, int64(16), b.Stats().Opened)
	assert.Equal(t, int64(160), b.Stats().Allocated)
}

func TestShutdownWhileOperationsRun(t *testing.T) {
	b, _ := newTestBoundary(t)

	pix := make([]byte, 256*256*3)
	for i := range pix {
		pix[i] = byte(i)
	}
	h, err := b.Open(descriptor(256, 256, 3, pix))
	require.NoError(t, err)
	want, err := b.RunThreshold(h, 100)
	require.NoError(t, err)
	expected := append([]byte(nil), want.Bytes()...)
	require.NoError(t, b.Release(want))
	require.NoError(t, b.Close(h))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := b.Open(descriptor(256, 256, 3, pix))
			if err != nil {
				errs <- err
				return
			}
			<-start
			for j := 0; j < 20; j++ {
				buf, err := b.RunThreshold(h, 100)
				if err != nil {
					errs <- err
					return
				}
				if !assert.Equal(t, expected, buf.Bytes()) {
					errs <- b.Release(buf)
					return
				}
				if err := b.Release(buf); err != nil {
					errs <- err
					return
				}
			}
			errs <- b.Close(h)
		}()
	}
	close(start)
	b.Shutdown()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assertNoLeaks(t, b)
}

func TestNewReportsWorkerCount(t *testing.T) {
	_, hook := newTestBoundary(t)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Processing boundary ready" {
			found = true
			assert.Equal(t, 4, entry.Data["workers"])
		}
	}
	assert.True(t, found)
}
