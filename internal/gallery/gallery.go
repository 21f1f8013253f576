// Package gallery matches query descriptors against the set of enrolled
// employees.
package gallery

import (
	"github.com/patrikzak/attendo/internal/descriptor"
)

// Entry is one enrolled identity. The descriptor stays in its opaque
// serialized form until matching; a corrupt blob costs the entry a chance
// to match, never the whole scan.
type Entry struct {
	EmployeeID string
	Name       string
	Department string
	Descriptor []byte // serialized descriptor, decoded during matching
	ImageRef   string // representative face image filename
}

// Match is a gallery hit.
type Match struct {
	Entry      Entry
	Similarity float64
}

// BestMatch scans the whole gallery for the entry most similar to the query
// under the threshold. No early exit and no index: at expected enrollment
// counts a linear scan is fast enough and trivially correct. Ties go to the
// entry supplied first, so callers must pass entries in a stable order.
// Returns false when the gallery is empty or nothing clears the threshold.
func BestMatch(query descriptor.Descriptor, entries []Entry, threshold float64) (Match, bool) {
	var best Match
	found := false

	for _, entry := range entries {
		known, err := descriptor.Decode(entry.Descriptor)
		if err != nil {
			continue
		}

		isMatch, score := descriptor.Compare(known, query, threshold)
		if !isMatch {
			continue
		}

		if !found || score > best.Similarity {
			best = Match{Entry: entry, Similarity: score}
			found = true
		}
	}

	return best, found
}
