package descriptor

import "math"

// Cosine computes the cosine similarity of two descriptors clamped into
// [0, 1]. Histogram descriptors are non-negative so negative cosines are a
// numerical artifact; they floor to 0. Mismatched lengths and zero-norm
// vectors also score 0: a hard non-match, never an error.
func Cosine(a, b Descriptor) float64 {
	score, _ := cosine(a, b)
	return score
}

// cosine reports the clamped similarity and whether the inputs were
// comparable at all (same non-zero length, both with non-zero norm).
func cosine(a, b Descriptor) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return max(0, min(1, similarity)), true
}

// Compare scores two descriptors and reports whether they match under the
// given recognition threshold. The threshold works as a similarity floor:
// larger values demand a closer match.
func Compare(a, b Descriptor, threshold float64) (bool, float64) {
	score, ok := cosine(a, b)
	if !ok {
		return false, 0
	}
	return score >= threshold, score
}

// Mean computes the element-wise mean of same-length descriptors. Used by
// enrollment to aggregate several photos of one person into a single stored
// descriptor. Returns nil for an empty input.
func Mean(descriptors []Descriptor) Descriptor {
	if len(descriptors) == 0 {
		return nil
	}

	mean := make(Descriptor, len(descriptors[0]))
	for _, d := range descriptors {
		for i, v := range d {
			mean[i] += v
		}
	}

	n := float32(len(descriptors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
