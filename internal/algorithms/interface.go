// Named algorithm registry used by callers that select operations at runtime
package algorithms

import (
	"fmt"
	"sort"

	"github.com/lingtianyulong/img-proc/internal/core"
)

// Algorithm defines the interface for image processing algorithms
type Algorithm interface {
	Apply(input core.Image, params map[string]interface{}) (core.Image, error)
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a parameter of an algorithm
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float", "bool", "string", "enum"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
	Options     []string    `json:"options,omitempty"`
}

var algorithms = make(map[string]Algorithm)

func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

func Apply(name string, input core.Image, params map[string]interface{}) (core.Image, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return core.Image{}, fmt.Errorf("algorithm not found: %s", name)
	}
	if err := algorithm.Validate(params); err != nil {
		return core.Image{}, fmt.Errorf("invalid parameters for %s: %w", name, err)
	}

	return algorithm.Apply(input, params)
}

func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

// Names returns the registered algorithm names in sorted order
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("grayscale", NewGrayscaleAlgorithm())
	Register("threshold", NewThresholdAlgorithm(nil))
	Register("hsv", NewHSVAlgorithm(nil))
}

// GrayscaleAlgorithm wraps Grayscale
type GrayscaleAlgorithm struct{}

func NewGrayscaleAlgorithm() *GrayscaleAlgorithm {
	return &GrayscaleAlgorithm{}
}

func (g *GrayscaleAlgorithm) Apply(input core.Image, params map[string]interface{}) (core.Image, error) {
	return Grayscale(input)
}

func (g *GrayscaleAlgorithm) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (g *GrayscaleAlgorithm) GetName() string {
	return "Grayscale"
}

func (g *GrayscaleAlgorithm) GetDescription() string {
	return "Luma conversion of RGB/RGBA images, alpha ignored"
}

func (g *GrayscaleAlgorithm) Validate(params map[string]interface{}) error {
	return nil
}

func (g *GrayscaleAlgorithm) GetParameterInfo() []ParameterInfo {
	return nil
}

// ThresholdAlgorithm converts its input to grayscale when needed, then binarizes it
type ThresholdAlgorithm struct {
	runner *Runner
}

// NewThresholdAlgorithm binds the algorithm to a runner; nil uses Default()
func NewThresholdAlgorithm(runner *Runner) *ThresholdAlgorithm {
	return &ThresholdAlgorithm{runner: runner}
}

func (a *ThresholdAlgorithm) Apply(input core.Image, params map[string]interface{}) (core.Image, error) {
	gray := input
	if input.Channels != core.ChannelsLuma {
		var err error
		if gray, err = Grayscale(input); err != nil {
			return core.Image{}, err
		}
	}

	t := uint8(128)
	if val, ok := params["threshold"]; ok {
		if v, ok := val.(float64); ok {
			t = uint8(v)
		}
	}

	runner := a.runner
	if runner == nil {
		runner = Default()
	}
	return runner.Threshold(gray, t)
}

func (a *ThresholdAlgorithm) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"threshold": 128.0,
	}
}

func (a *ThresholdAlgorithm) GetName() string {
	return "Binary Threshold"
}

func (a *ThresholdAlgorithm) GetDescription() string {
	return "Fixed-level binarization, pixels strictly above the level become 255"
}

func (a *ThresholdAlgorithm) Validate(params map[string]interface{}) error {
	if val, ok := params["threshold"]; ok {
		v, ok := val.(float64)
		if !ok {
			return fmt.Errorf("threshold must be a number")
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("threshold must be between 0 and 255")
		}
	}
	return nil
}

func (a *ThresholdAlgorithm) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "threshold",
			Type:        "int",
			Min:         0.0,
			Max:         255.0,
			Default:     128.0,
			Description: "Pixels above this level map to 255",
		},
	}
}

// HSVAlgorithm wraps Runner.ToHSV
type HSVAlgorithm struct {
	runner *Runner
}

// NewHSVAlgorithm binds the algorithm to a runner; nil uses Default()
func NewHSVAlgorithm(runner *Runner) *HSVAlgorithm {
	return &HSVAlgorithm{runner: runner}
}

func (a *HSVAlgorithm) Apply(input core.Image, params map[string]interface{}) (core.Image, error) {
	runner := a.runner
	if runner == nil {
		runner = Default()
	}
	return runner.ToHSV(input)
}

func (a *HSVAlgorithm) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (a *HSVAlgorithm) GetName() string {
	return "HSV"
}

func (a *HSVAlgorithm) GetDescription() string {
	return "RGB to HSV with hue, saturation and value packed into bytes"
}

func (a *HSVAlgorithm) Validate(params map[string]interface{}) error {
	return nil
}

func (a *HSVAlgorithm) GetParameterInfo() []ParameterInfo {
	return nil
}
