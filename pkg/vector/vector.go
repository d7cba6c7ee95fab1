package vector

import (
	"encoding/json"
	"fmt"
	"math"
)

// Dim is the dimensionality of embedding vectors produced by the inference
// service.
const Dim = 1536

// Encode serializes a vector into the opaque blob stored on a story.
func Encode(v []float32) (string, error) {
	if len(v) == 0 {
		return "", fmt.Errorf("cannot encode empty vector")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored embedding blob back into a vector.
func Decode(blob string) ([]float32, error) {
	if blob == "" {
		return nil, fmt.Errorf("cannot decode empty embedding blob")
	}
	var v []float32
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		return nil, fmt.Errorf("malformed embedding blob: %w", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("embedding blob decoded to empty vector")
	}
	return v, nil
}

// L2 returns the Euclidean distance between two vectors. Vectors of
// different lengths are treated as maximally distant.
func L2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
