package gallery

import (
	"github.com/coder/hnsw"

	"github.com/patrikzak/attendo/internal/descriptor"
)

// hnswMaxNeighbors matches the library's recommended M for small indexes.
const hnswMaxNeighbors = 16

// DedupeIndex is an approximate-nearest-neighbour index over the gallery,
// used only at enrollment time to warn when a new descriptor is nearly
// identical to another identity's. Recognition never consults it: the
// matching contract (exact full scan, first-wins tie-break) stays with
// BestMatch.
type DedupeIndex struct {
	graph   *hnsw.Graph[string]
	entries map[string]Entry
}

// NewDedupeIndex builds the index from the current gallery. Entries with
// corrupt descriptors are skipped, mirroring the matcher.
func NewDedupeIndex(entries []Entry) *DedupeIndex {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	idx := &DedupeIndex{
		graph:   g,
		entries: make(map[string]Entry, len(entries)),
	}

	for _, entry := range entries {
		vec, err := descriptor.Decode(entry.Descriptor)
		if err != nil || len(vec) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(entry.EmployeeID, []float32(vec)))
		idx.entries[entry.EmployeeID] = entry
	}

	return idx
}

// NearDuplicate reports the closest other identity whose stored descriptor
// scores at or above the similarity floor against the candidate. Returns
// false when the gallery holds no such identity.
func (idx *DedupeIndex) NearDuplicate(candidate descriptor.Descriptor, employeeID string, floor float64) (Entry, float64, bool) {
	if len(idx.entries) == 0 {
		return Entry{}, 0, false
	}

	// Two neighbours so the employee's own previous enrollment does not
	// mask a colliding identity.
	neighbors := idx.graph.Search([]float32(candidate), 2)
	for _, n := range neighbors {
		if n.Key == employeeID {
			continue
		}
		score := descriptor.Cosine(candidate, descriptor.Descriptor(n.Value))
		if score >= floor {
			return idx.entries[n.Key], score, true
		}
	}

	return Entry{}, 0, false
}
