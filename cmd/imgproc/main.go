// imgproc decodes an image, runs the selected operations through the
// processing boundary and saves one output image per operation.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/algorithms"
	"github.com/lingtianyulong/img-proc/internal/boundary"
	"github.com/lingtianyulong/img-proc/internal/config"
	"github.com/lingtianyulong/img-proc/internal/core"
	"github.com/lingtianyulong/img-proc/internal/imageio"
	"github.com/lingtianyulong/img-proc/internal/logging"
	"github.com/lingtianyulong/img-proc/internal/metrics"
)

const AppVersion = "1.0.0"

type options struct {
	input     string
	outDir    string
	threshold float64
	ops       string
	codec     string
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(2)
	}

	var opts options
	fs := flag.NewFlagSet("imgproc", flag.ExitOnError)
	fs.StringVar(&opts.input, "input", "", "Image file to process")
	fs.StringVar(&opts.outDir, "out", ".", "Directory for the output images")
	fs.Float64Var(&opts.threshold, "threshold", defaultThreshold(), "Binarization level (0-255)")
	fs.StringVar(&opts.ops, "ops", "grayscale,threshold", "Comma separated operations: "+strings.Join(algorithms.Names(), ", "))
	fs.StringVar(&opts.codec, "codec", "imaging", "Image codec: imaging or gocv")
	cfg.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(cfg, os.Stdout)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
	}).Info("Starting imgproc")

	if err := run(cfg, opts, logger); err != nil {
		logger.WithError(err).Error("Processing failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, opts options, logger *logrus.Logger) (err error) {
	if opts.input == "" {
		return errors.New("-input is required")
	}
	level, err := thresholdLevel(opts.threshold)
	if err != nil {
		return err
	}
	ops, err := resolveOperations(opts.ops, level)
	if err != nil {
		return err
	}

	codec, err := imageio.CodecByName(opts.codec)
	if err != nil {
		return err
	}
	loader := imageio.NewImageLoader(logger, codec)

	src, err := loader.LoadImage(opts.input)
	if err != nil {
		return err
	}

	b := boundary.New(cfg, logger)
	defer b.Shutdown()

	h, err := b.Open(descriptorOf(src))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := b.Close(h); cerr != nil && err == nil {
			err = cerr
		}
		stats := b.Stats()
		logger.WithFields(logrus.Fields{
			"live_handles":        stats.LiveHandles,
			"outstanding_buffers": stats.OutstandingBuffers,
			"bytes_in_flight":     stats.BytesInFlight,
		}).Debug("Boundary state at exit")
	}()

	base := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
	evaluator := metrics.NewEvaluator()

	reference, err := algorithms.Apply("grayscale", src, nil)
	if err != nil {
		return err
	}

	for _, op := range ops {
		buf, err := op.run(b, h)
		if err != nil {
			return err
		}
		out := imageOf(buf)
		if op.name == "threshold" {
			logger.WithFields(metricFields(evaluator.CalculateAll(reference, out))).Info("Binarization metrics")
		}
		err = loader.SaveImage(out, filepath.Join(opts.outDir, base+op.suffix+".png"))
		if rerr := op.release(b, buf); rerr != nil && err == nil {
			err = rerr
		}
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"operation":   op.algorithm.GetName(),
			"description": op.algorithm.GetDescription(),
		}).Debug("Operation complete")
	}

	logger.WithField("output_dir", opts.outDir).Info("Processing complete")
	return nil
}

func descriptorOf(img core.Image) *boundary.Descriptor {
	d := &boundary.Descriptor{
		Width:    uint32(img.Width),
		Height:   uint32(img.Height),
		Channels: uint32(img.Channels),
	}
	if len(img.Pix) > 0 {
		d.Data = unsafe.Pointer(&img.Pix[0])
	}
	return d
}

// imageOf views an output buffer as an image; valid until the buffer is released
func imageOf(buf boundary.Buffer) core.Image {
	return core.Image{
		Width:    buf.Width,
		Height:   buf.Height,
		Channels: buf.Channels,
		Pix:      buf.Bytes(),
	}
}
