// Package model contains domain models passed between layers.
package model

// EventBatch holds the event-level scalar features of one input file.
// Every slice in Features has exactly NEvents values.
type EventBatch struct {
	NEvents  int
	Features map[string][]float32
	Order    []string // feature names in the order they were requested
}

// NewEventBatch allocates an empty batch for n events.
func NewEventBatch(n int, names []string) *EventBatch {
	b := &EventBatch{
		NEvents:  n,
		Features: make(map[string][]float32, len(names)),
		Order:    append([]string(nil), names...),
	}
	for _, name := range names {
		b.Features[name] = make([]float32, n)
	}
	return b
}

// RaggedFeatureSet holds, for one particle species, the per-event particle
// lists of every requested feature. Features[name][e] is the list of values
// of that feature for the particles of event e, in source order.
//
// All features of a species describe the same particles, so for a given
// event every feature list has the same length.
type RaggedFeatureSet struct {
	Species  string
	NEvents  int
	Features map[string][][]float32
	Order    []string
}

// NewRaggedFeatureSet allocates an empty ragged set for n events.
func NewRaggedFeatureSet(species string, n int, names []string) *RaggedFeatureSet {
	r := &RaggedFeatureSet{
		Species:  species,
		NEvents:  n,
		Features: make(map[string][][]float32, len(names)),
		Order:    append([]string(nil), names...),
	}
	for _, name := range names {
		r.Features[name] = make([][]float32, n)
	}
	return r
}

// Multiplicity returns the particle count of event e as seen by the first
// feature of the set, or 0 when the set has no features.
func (r *RaggedFeatureSet) Multiplicity(e int) int {
	if len(r.Order) == 0 {
		return 0
	}
	lists := r.Features[r.Order[0]]
	if e < 0 || e >= len(lists) {
		return 0
	}
	return len(lists[e])
}
