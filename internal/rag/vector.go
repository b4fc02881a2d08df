package rag

import (
	"fmt"
	"math"
)

// normalize scales v in place to unit L2 length so that inner-product
// search is equivalent to cosine similarity. A zero vector cannot be
// normalised and is rejected.
func normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return fmt.Errorf("rag: cannot normalise zero-length embedding")
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return nil
}

// dot returns the inner product of a and b. Both operands are expected to
// have the same dimension; extra trailing components are ignored.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
