// Output statistics for processed images
package metrics

import (
	"fmt"
	"sort"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Metric compares a processed image against a reference
type Metric interface {
	// Calculate computes the metric value
	Calculate(reference, processed core.Image) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("mse", NewMSE())
	e.Register("psnr", NewPSNR())
	e.Register("foreground_ratio", NewForegroundRatio())
	return e
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, reference, processed core.Image) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(reference, processed)
}

// CalculateAll calculates every registered metric, skipping the ones that fail
func (e *Evaluator) CalculateAll(reference, processed core.Image) map[string]float64 {
	results := make(map[string]float64)
	for _, name := range e.Names() {
		if value, err := e.Calculate(name, reference, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// Names returns the registered metric names in sorted order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
