package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingtianyulong/img-proc/internal/core"
)

func gray(t *testing.T, pix ...byte) core.Image {
	t.Helper()
	img, err := core.NewImage(len(pix), 1, 1, pix)
	require.NoError(t, err)
	return img
}

func TestMSEAndPSNR(t *testing.T) {
	e := NewEvaluator()
	a := gray(t, 0, 10, 20, 30)
	b := gray(t, 0, 12, 18, 30)

	mse, err := e.Calculate("mse", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mse, 1e-9)

	psnr, err := e.Calculate("psnr", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(255/math.Sqrt(2)), psnr, 1e-9)

	psnr, err = e.Calculate("psnr", a, a)
	require.NoError(t, err)
	assert.True(t, math.IsInf(psnr, 1))
}

func TestForegroundRatio(t *testing.T) {
	e := NewEvaluator()
	ratio, err := e.Calculate("foreground_ratio", gray(t, 1, 2, 3, 4), gray(t, 0, 255, 255, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratio, 1e-9)
}

func TestMismatchedImages(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Calculate("mse", gray(t, 1, 2), gray(t, 1, 2, 3))
	require.Error(t, err)

	_, err = e.Calculate("nope", gray(t, 1), gray(t, 1))
	require.Error(t, err)

	results := e.CalculateAll(gray(t, 1, 2), gray(t, 1, 2, 3))
	assert.Empty(t, results)
}

func TestCalculateAll(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, []string{"foreground_ratio", "mse", "psnr"}, e.Names())

	results := e.CalculateAll(gray(t, 10, 200), gray(t, 0, 255))
	assert.Len(t, results, 3)
	assert.InDelta(t, 0.5, results["foreground_ratio"], 1e-9)
}
