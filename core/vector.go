package core

import "math"

// NormalizeVector scales a vector to unit length so that dot products over
// stored vectors order by cosine similarity. A zero vector cannot be
// normalized and comes back as a fresh zero vector. The input is never
// modified.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}
