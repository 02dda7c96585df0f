package formulas

import "gonum.org/v1/gonum/stat"

// WeightedMean calculates the weighted mean of values; weights must be the
// same length as data. Zero-weight inputs return 0.
func WeightedMean(data, weights []float64) float64 {
	if len(data) == 0 || len(data) != len(weights) {
		return 0
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	return stat.Mean(data, weights)
}

// Percentages converts absolute values to percentages of their sum.
// A zero sum yields all zeros.
func Percentages(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / total * 100
	}
	return out
}
