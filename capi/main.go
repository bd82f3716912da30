// C ABI for the image processing core.
//
// Build the shared library with:
//
//	go build -buildmode=c-shared -o libimgproc.so ./capi
//
// and include imgproc.h together with the generated libimgproc.h.
package main

/*
#include <stdlib.h>
#include "imgproc.h"
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/boundary"
	"github.com/lingtianyulong/img-proc/internal/config"
	"github.com/lingtianyulong/img-proc/internal/core"
	"github.com/lingtianyulong/img-proc/internal/logging"
)

var (
	lib         *boundary.Boundary
	logger      *logrus.Logger
	statusTexts = make(map[boundary.Status]*C.char)
)

func init() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgproc: ignoring invalid environment: %v\n", err)
		cfg = config.Default()
	}
	// Host programs own stdout
	logger = logging.New(cfg, os.Stderr)
	lib = boundary.New(cfg, logger)

	for s := boundary.StatusOK; s <= boundary.StatusInternal; s++ {
		statusTexts[s] = C.CString(s.String())
	}
	statusTexts[-1] = C.CString("unknown status")

	logger.WithFields(logrus.Fields{
		"workers":       cfg.Workers,
		"max_dimension": cfg.MaxDimension,
	}).Debug("imgproc library loaded")
}

func main() {}

// guard turns a panic escaping into C into IMGPROC_INTERNAL
func guard(op string, status *C.ImgprocStatus) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"operation": op,
			"panic":     fmt.Sprint(r),
		}).Error("Recovered panic at C boundary")
		*status = C.ImgprocStatus(boundary.StatusInternal)
	}
}

func toStatus(err error) C.ImgprocStatus {
	return C.ImgprocStatus(boundary.StatusOf(err))
}

//export imgproc_open
func imgproc_open(img *C.ImgprocImage, out *C.ImgprocHandle) (status C.ImgprocStatus) {
	defer guard("open", &status)

	if img == nil || out == nil {
		return C.ImgprocStatus(boundary.StatusNullInput)
	}
	h, err := lib.Open(&boundary.Descriptor{
		Width:    uint32(img.width),
		Height:   uint32(img.height),
		Channels: uint32(img.channels),
		Data:     unsafe.Pointer(img.buffer),
	})
	if err != nil {
		return toStatus(err)
	}
	*out = C.ImgprocHandle(h)
	return C.ImgprocStatus(boundary.StatusOK)
}

//export imgproc_run_grayscale
func imgproc_run_grayscale(handle C.ImgprocHandle, out *C.ImgprocImage) (status C.ImgprocStatus) {
	defer guard("run_grayscale", &status)

	if out == nil {
		return C.ImgprocStatus(boundary.StatusNullInput)
	}
	buf, err := lib.RunGrayscale(boundary.Handle(handle))
	return writeOutput(out, buf, err)
}

//export imgproc_run_threshold
func imgproc_run_threshold(handle C.ImgprocHandle, out *C.ImgprocImage, threshold C.uint8_t) (status C.ImgprocStatus) {
	defer guard("run_threshold", &status)

	if out == nil {
		return C.ImgprocStatus(boundary.StatusNullInput)
	}
	buf, err := lib.RunThreshold(boundary.Handle(handle), uint8(threshold))
	return writeOutput(out, buf, err)
}

//export imgproc_run_hsv
func imgproc_run_hsv(handle C.ImgprocHandle, out *C.ImgprocImage) (status C.ImgprocStatus) {
	defer guard("run_hsv", &status)

	if out == nil {
		return C.ImgprocStatus(boundary.StatusNullInput)
	}
	buf, err := lib.RunHSV(boundary.Handle(handle))
	return writeOutput(out, buf, err)
}

// writeOutput fills out on success and leaves it untouched on failure
func writeOutput(out *C.ImgprocImage, buf boundary.Buffer, err error) C.ImgprocStatus {
	if err != nil {
		return toStatus(err)
	}
	out.width = C.uint32_t(buf.Width)
	out.height = C.uint32_t(buf.Height)
	out.channels = C.uint32_t(buf.Channels)
	out.buffer = (*C.uint8_t)(buf.Data)
	out.allocation = C.uint32_t(buf.Tag)
	return C.ImgprocStatus(boundary.StatusOK)
}

//export imgproc_close
func imgproc_close(handle C.ImgprocHandle) (status C.ImgprocStatus) {
	defer guard("close", &status)
	return toStatus(lib.Close(boundary.Handle(handle)))
}

//export imgproc_release_boxed
func imgproc_release_boxed(img *C.ImgprocImage) (status C.ImgprocStatus) {
	defer guard("release_boxed", &status)
	return releaseWith(img, lib.ReleaseBoxed)
}

//export imgproc_release_vector
func imgproc_release_vector(img *C.ImgprocImage) (status C.ImgprocStatus) {
	defer guard("release_vector", &status)
	return releaseWith(img, lib.ReleaseVector)
}

//export imgproc_release
func imgproc_release(img *C.ImgprocImage) (status C.ImgprocStatus) {
	defer guard("release", &status)
	return releaseWith(img, lib.Release)
}

// releaseWith frees img and clears its pointer so a repeated release reports IMGPROC_NULL_INPUT
func releaseWith(img *C.ImgprocImage, release func(boundary.Buffer) error) C.ImgprocStatus {
	if img == nil || img.buffer == nil {
		return C.ImgprocStatus(boundary.StatusNullInput)
	}
	n, ok := core.BufferLen(uint64(img.width), uint64(img.height), uint64(img.channels))
	if !ok {
		return C.ImgprocStatus(boundary.StatusBufferSize)
	}
	err := release(boundary.Buffer{
		Width:    int(img.width),
		Height:   int(img.height),
		Channels: int(img.channels),
		Data:     unsafe.Pointer(img.buffer),
		Len:      n,
		Tag:      boundary.Allocation(img.allocation),
	})
	if err != nil {
		return toStatus(err)
	}
	img.buffer = nil
	img.allocation = C.uint32_t(boundary.AllocNone)
	return C.ImgprocStatus(boundary.StatusOK)
}

//export imgproc_status_string
func imgproc_status_string(status C.ImgprocStatus) *C.char {
	if text, ok := statusTexts[boundary.Status(status)]; ok {
		return text
	}
	return statusTexts[-1]
}
