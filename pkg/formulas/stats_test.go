package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedMean(t *testing.T) {
	assert.Equal(t, 0.0, WeightedMean(nil, nil))
	assert.Equal(t, 0.0, WeightedMean([]float64{1, 2}, []float64{1}))
	assert.Equal(t, 0.0, WeightedMean([]float64{1, 2}, []float64{0, 0}))
	assert.InDelta(t, 2.5, WeightedMean([]float64{1, 3}, []float64{1, 3}), 1e-9)
}

func TestPercentages(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, Percentages([]float64{0, 0}))
	assert.Equal(t, []float64{75, 25}, Percentages([]float64{75, 25}))
}
