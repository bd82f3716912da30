package main

/*
#include <stdlib.h>
#include "imgproc.h"
*/
import "C"

import (
	"unsafe"

	"github.com/lingtianyulong/img-proc/internal/boundary"
)

// Constructors and accessors for C values, for Go callers embedding the
// library and for tests, which cannot use cgo directly.

// newCImage allocates a descriptor on the C heap over a C copy of pix
func newCImage(width, height, channels uint32, pix []byte) *C.ImgprocImage {
	img := (*C.ImgprocImage)(C.calloc(1, C.size_t(unsafe.Sizeof(C.ImgprocImage{}))))
	img.width = C.uint32_t(width)
	img.height = C.uint32_t(height)
	img.channels = C.uint32_t(channels)
	if len(pix) > 0 {
		img.buffer = (*C.uint8_t)(C.CBytes(pix))
	}
	return img
}

// freeCImage frees a descriptor from newCImage together with its pixel copy
func freeCImage(img *C.ImgprocImage) {
	if img == nil {
		return
	}
	if img.buffer != nil {
		C.free(unsafe.Pointer(img.buffer))
	}
	C.free(unsafe.Pointer(img))
}

// newCOutput allocates a zeroed descriptor for imgproc_run_* to fill
func newCOutput() *C.ImgprocImage {
	return (*C.ImgprocImage)(C.calloc(1, C.size_t(unsafe.Sizeof(C.ImgprocImage{}))))
}

// freeCOutput frees a descriptor from newCOutput; its buffer must be released first
func freeCOutput(img *C.ImgprocImage) {
	C.free(unsafe.Pointer(img))
}

func newCHandle() *C.ImgprocHandle {
	return (*C.ImgprocHandle)(C.calloc(1, C.size_t(unsafe.Sizeof(C.ImgprocHandle(0)))))
}

func freeCHandle(h *C.ImgprocHandle) {
	C.free(unsafe.Pointer(h))
}

// cImageShape returns width, height and channels of img
func cImageShape(img *C.ImgprocImage) (uint32, uint32, uint32) {
	return uint32(img.width), uint32(img.height), uint32(img.channels)
}

func setCImageShape(img *C.ImgprocImage, width, height, channels uint32) {
	img.width = C.uint32_t(width)
	img.height = C.uint32_t(height)
	img.channels = C.uint32_t(channels)
}

func cImageData(img *C.ImgprocImage) unsafe.Pointer {
	return unsafe.Pointer(img.buffer)
}

func cImageAllocation(img *C.ImgprocImage) boundary.Allocation {
	return boundary.Allocation(img.allocation)
}

// cImageBytes copies the pixels of img into Go memory
func cImageBytes(img *C.ImgprocImage) []byte {
	if img.buffer == nil {
		return nil
	}
	n := int(img.width) * int(img.height) * int(img.channels)
	return C.GoBytes(unsafe.Pointer(img.buffer), C.int(n))
}

func goStatus(s C.ImgprocStatus) boundary.Status {
	return boundary.Status(s)
}

func goString(s *C.char) string {
	return C.GoString(s)
}

// guarded runs fn under the same panic guard as the exported functions
func guarded(op string, fn func()) (status C.ImgprocStatus) {
	defer guard(op, &status)
	fn()
	return C.ImgprocStatus(boundary.StatusOK)
}
