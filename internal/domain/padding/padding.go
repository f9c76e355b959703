// Package padding turns ragged per-event particle lists into fixed-width
// (events x capacity) float32 arrays.
//
// Slot j of an event row holds the j-th particle of that event in source
// order. Events with fewer particles than slots are zero-padded on the right;
// events with more keep only the first capacity particles. Because zero is
// also a legal feature value, consumers tell padding from real particles by
// the event's particle count.
package padding

import (
	"context"
	"fmt"

	"github.com/okian/root2hdf5/internal/domain/model"
)

// Converter pads and truncates the ragged features of one species.
// A Converter holds no per-call state and is safe for concurrent use.
type Converter struct {
	policy         Policy
	checkAlignment bool
}

// NewConverter creates a Converter. The defaults match the reference
// behaviour plus boundary validation: silent truncation, alignment checked.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		policy:         PolicySilent,
		checkAlignment: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Policy returns the configured truncation policy.
func (c *Converter) Policy() Policy { return c.policy }

// Convert maps every feature of ragged to an (NEvents x capacity) array.
// Truncation statistics are always filled in; under PolicyStrict the first
// event that does not fit aborts the conversion with ErrCapacityExceeded.
func (c *Converter) Convert(ctx context.Context, ragged *model.RaggedFeatureSet, capacity int) (*model.FixedParticleArray, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.validate(ragged); err != nil {
		return nil, err
	}

	stats, err := c.truncation(ragged, capacity)
	if err != nil {
		return nil, err
	}

	out := &model.FixedParticleArray{
		Species:    ragged.Species,
		Capacity:   capacity,
		NEvents:    ragged.NEvents,
		Features:   make(map[string]*model.FixedArray, len(ragged.Order)),
		Order:      append([]string(nil), ragged.Order...),
		Truncation: stats,
	}
	for _, name := range ragged.Order {
		out.Features[name] = padRows(ragged.Features[name], ragged.NEvents, capacity)
	}
	return out, nil
}

// Pad converts a single feature's per-event lists into a len(lists) x capacity
// array. It performs no validation beyond bounding the copy by capacity.
func Pad(lists [][]float32, capacity int) *model.FixedArray {
	if capacity < 0 {
		capacity = 0
	}
	return padRows(lists, len(lists), capacity)
}

func padRows(lists [][]float32, nEvents, capacity int) *model.FixedArray {
	arr := model.NewFixedArray(nEvents, capacity)
	for e := 0; e < nEvents && e < len(lists); e++ {
		// copy is bounded by the shorter of the two, which is exactly min(len(L), capacity)
		copy(arr.Row(e), lists[e])
	}
	return arr
}

// validate checks the reader -> core contract: every feature is present, has
// one list per event, and all features agree on each event's list length.
func (c *Converter) validate(ragged *model.RaggedFeatureSet) error {
	if ragged == nil {
		return fmt.Errorf("%w: nil ragged set", ErrAlignment)
	}
	for _, name := range ragged.Order {
		lists, ok := ragged.Features[name]
		if !ok {
			return fmt.Errorf("%w: species %s feature %s", ErrMissingFeature, ragged.Species, name)
		}
		if len(lists) != ragged.NEvents {
			return fmt.Errorf("%w: species %s feature %s has %d events, want %d",
				ErrAlignment, ragged.Species, name, len(lists), ragged.NEvents)
		}
	}
	if !c.checkAlignment || len(ragged.Order) < 2 {
		return nil
	}

	ref := ragged.Order[0]
	refLists := ragged.Features[ref]
	for _, name := range ragged.Order[1:] {
		lists := ragged.Features[name]
		for e := range lists {
			if len(lists[e]) != len(refLists[e]) {
				return fmt.Errorf("%w: species %s event %d: %s has %d particles, %s has %d",
					ErrAlignment, ragged.Species, e, name, len(lists[e]), ref, len(refLists[e]))
			}
		}
	}
	return nil
}

// truncation counts events whose particle list exceeds capacity. Multiplicity
// is taken from the first feature; validate guarantees the others agree.
func (c *Converter) truncation(ragged *model.RaggedFeatureSet, capacity int) (model.TruncationStats, error) {
	var stats model.TruncationStats
	for e := 0; e < ragged.NEvents; e++ {
		n := ragged.Multiplicity(e)
		if n <= capacity {
			continue
		}
		if c.policy == PolicyStrict {
			return stats, fmt.Errorf("%w: species %s event %d has %d particles, capacity %d",
				ErrCapacityExceeded, ragged.Species, e, n, capacity)
		}
		stats.Events++
		stats.Particles += n - capacity
	}
	return stats, nil
}
