package main

import (
	"encoding/json"
	"math"
	"testing"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingtianyulong/img-proc/internal/boundary"
	"github.com/lingtianyulong/img-proc/internal/config"
)

func TestResolveOperations(t *testing.T) {
	ops, err := resolveOperations(" Grayscale, threshold ,hsv", 100)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "grayscale", ops[0].name)
	assert.Equal(t, "_gray", ops[0].suffix)
	assert.Equal(t, "threshold", ops[1].name)
	assert.Equal(t, "Binary Threshold", ops[1].algorithm.GetName())
	assert.Equal(t, "hsv", ops[2].name)
}

func TestResolveOperationsRejectsBadLists(t *testing.T) {
	tests := []struct {
		name string
		list string
	}{
		{"unknown", "grayscale,sharpen"},
		{"duplicate", "threshold,threshold"},
		{"empty", " , "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveOperations(tt.list, 128)
			require.Error(t, err)
		})
	}
}

func TestThresholdLevel(t *testing.T) {
	assert.Equal(t, 128.0, defaultThreshold())

	level, err := thresholdLevel(200)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), level)

	_, err = thresholdLevel(256)
	require.Error(t, err)
	_, err = thresholdLevel(-1)
	require.Error(t, err)
}

func TestMetricFieldsDropNonFiniteValues(t *testing.T) {
	fields := metricFields(map[string]float64{
		"mse":              0,
		"psnr":             math.Inf(1),
		"foreground_ratio": 0.25,
		"broken":           math.NaN(),
	})
	assert.Equal(t, logrus.Fields{"mse": 0.0, "foreground_ratio": 0.25}, fields)

	_, err := json.Marshal(fields)
	require.NoError(t, err)
}

func TestOperationsRunThroughBoundary(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Workers = 2
	b := boundary.New(cfg, logger)
	defer b.Shutdown()

	pix := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}
	h, err := b.Open(&boundary.Descriptor{Width: 2, Height: 2, Channels: 3, Data: unsafe.Pointer(&pix[0])})
	require.NoError(t, err)

	ops, err := resolveOperations("grayscale,threshold,hsv", 100)
	require.NoError(t, err)

	want := map[string][]byte{
		"grayscale": {54, 182, 18, 255},
		"threshold": {0, 255, 0, 255},
	}
	for _, op := range ops {
		buf, err := op.run(b, h)
		require.NoError(t, err, op.name)
		if expected, ok := want[op.name]; ok {
			assert.Equal(t, expected, imageOf(buf).Pix, op.name)
		}
		require.NoError(t, op.release(b, buf), op.name)
	}

	require.NoError(t, b.Close(h))
	stats := b.Stats()
	assert.Zero(t, stats.OutstandingBuffers)
	assert.Equal(t, int64(3), stats.Released)
}
