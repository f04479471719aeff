package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsample_NoDownsampling(t *testing.T) {
	samples := []Sample{{Temperature: 1}, {Temperature: 2}, {Temperature: 3}}

	result := Downsample(nil, samples, 10)
	assert.Equal(t, samples, result)

	dst := make([]Sample, 0, 10)
	result = Downsample(dst, samples, 10)
	assert.Equal(t, samples, result)
	assert.Equal(t, cap(dst), cap(result), "dst is reused")
}

func TestDownsample_WithDownsampling(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}

	dst := make([]float64, 0, 20)
	result := Downsample(dst, values, 10)
	require.Len(t, result, 10)
	assert.Equal(t, cap(dst), cap(result))
	assert.Equal(t, 0.0, result[0], "first point kept")
	assert.Equal(t, 90.0, result[9])
	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i], result[i-1])
	}
}

func TestDownsample_SmallDestination(t *testing.T) {
	values := make([]float64, 50)
	dst := make([]float64, 0, 2)

	result := Downsample(dst, values, 10)
	assert.Len(t, result, 10)
	assert.GreaterOrEqual(t, cap(result), 10)
}

func TestDownsample_Edges(t *testing.T) {
	assert.Empty(t, Downsample[float64](nil, nil, 10))
	assert.Empty(t, Downsample(nil, []float64{1, 2, 3}, 0))

	exact := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, exact, Downsample(nil, exact, 5))
}
