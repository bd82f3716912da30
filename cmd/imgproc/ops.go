package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/algorithms"
	"github.com/lingtianyulong/img-proc/internal/boundary"
)

// operation binds a registered algorithm to its boundary entry point
type operation struct {
	name      string
	suffix    string
	algorithm algorithms.Algorithm
	run       func(b *boundary.Boundary, h boundary.Handle) (boundary.Buffer, error)
	release   func(b *boundary.Boundary, buf boundary.Buffer) error
}

// resolveOperations turns a comma separated list of algorithm names into
// runnable operations, in the order given.
func resolveOperations(list string, level uint8) ([]operation, error) {
	var ops []operation
	seen := make(map[string]bool)

	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !algorithms.IsValidAlgorithm(name) {
			return nil, fmt.Errorf("unknown operation %q (available: %s)", name, strings.Join(algorithms.Names(), ", "))
		}
		if seen[name] {
			return nil, fmt.Errorf("operation %q listed twice", name)
		}
		seen[name] = true

		alg, _ := algorithms.Get(name)
		op := operation{name: name, algorithm: alg}
		switch name {
		case "grayscale":
			op.suffix = "_gray"
			op.run = func(b *boundary.Boundary, h boundary.Handle) (boundary.Buffer, error) {
				return b.RunGrayscale(h)
			}
			op.release = (*boundary.Boundary).ReleaseBoxed
		case "threshold":
			op.suffix = "_binary"
			op.run = func(b *boundary.Boundary, h boundary.Handle) (boundary.Buffer, error) {
				return b.RunThreshold(h, level)
			}
			op.release = (*boundary.Boundary).ReleaseVector
		case "hsv":
			op.suffix = "_hsv"
			op.run = func(b *boundary.Boundary, h boundary.Handle) (boundary.Buffer, error) {
				return b.RunHSV(h)
			}
			op.release = (*boundary.Boundary).Release
		default:
			return nil, fmt.Errorf("operation %q has no boundary entry point", name)
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations selected (available: %s)", strings.Join(algorithms.Names(), ", "))
	}
	return ops, nil
}

// defaultThreshold reads the threshold default from the registered algorithm
func defaultThreshold() float64 {
	if alg, ok := algorithms.Get("threshold"); ok {
		for _, info := range alg.GetParameterInfo() {
			if v, ok := info.Default.(float64); ok && info.Name == "threshold" {
				return v
			}
		}
	}
	return 128
}

// thresholdLevel validates value with the registered threshold algorithm
func thresholdLevel(value float64) (uint8, error) {
	alg, ok := algorithms.Get("threshold")
	if !ok {
		return 0, fmt.Errorf("threshold algorithm is not registered")
	}
	params := alg.GetDefaultParams()
	params["threshold"] = value
	if err := alg.Validate(params); err != nil {
		return 0, err
	}
	return uint8(value), nil
}

// metricFields drops values JSON cannot represent, such as the infinite
// PSNR of identical images.
func metricFields(values map[string]float64) logrus.Fields {
	fields := make(logrus.Fields, len(values))
	for k, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		fields[k] = v
	}
	return fields
}
