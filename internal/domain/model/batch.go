package model

import "time"

// SpeciesSpec names a particle species, the features read for it and its slot capacity.
type SpeciesSpec struct {
	Name     string
	Features []string
	Capacity int
}

// ConvertedFile is everything written for one input file.
type ConvertedFile struct {
	Events  *EventBatch
	Species []*FixedParticleArray
}

// FileJob is one unit of batch work.
type FileJob struct {
	Index      int    // position in the path list
	InputPath  string // identifier as read from the path list
	DatasetID  string // derived output id
	OutputPath string
}

// FileResult reports the outcome of one FileJob. Err is nil on success.
type FileResult struct {
	Job        FileJob
	Events     int
	Truncation map[string]TruncationStats // keyed by species
	Duration   time.Duration
	Err        error
}

// OK reports whether the job succeeded.
func (r FileResult) OK() bool { return r.Err == nil }

// BatchReport collects the results of a batch in path-list order.
type BatchReport struct {
	Results  []FileResult
	Aborted  bool // true when fail-fast stopped the batch early
	Duration time.Duration
}

// Succeeded returns the number of successful jobs.
func (b *BatchReport) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed jobs.
func (b *BatchReport) Failed() int {
	return len(b.Results) - b.Succeeded()
}
