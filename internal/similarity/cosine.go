// Package similarity scores embedding vectors against each other.
package similarity

import (
	"fmt"
	"math"

	"github.com/futig/docchat/internal/entity"
)

// Cosine returns the cosine similarity of a and b.
// Vectors must have the same length and a non-zero magnitude.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vectors must have the same dimensions (%d != %d)", entity.ErrValidation, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: one of the vectors is zero and cannot be normalized", entity.ErrValidation)
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// rounding can push parallel vectors slightly past the bounds
	return math.Max(-1, math.Min(1, sim)), nil
}
