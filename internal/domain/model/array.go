package model

// FixedArray is a dense row-major float32 matrix.
type FixedArray struct {
	Rows int
	Cols int
	Data []float32
}

// NewFixedArray allocates a zeroed rows x cols array.
func NewFixedArray(rows, cols int) *FixedArray {
	return &FixedArray{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns element (i, j).
func (a *FixedArray) At(i, j int) float32 { return a.Data[i*a.Cols+j] }

// Set stores v at (i, j).
func (a *FixedArray) Set(i, j int, v float32) { a.Data[i*a.Cols+j] = v }

// Row returns row i as a slice sharing the array's storage.
func (a *FixedArray) Row(i int) []float32 {
	return a.Data[i*a.Cols : (i+1)*a.Cols]
}

// Shape returns (Rows, Cols).
func (a *FixedArray) Shape() (int, int) { return a.Rows, a.Cols }

// TruncationStats counts what was dropped when particle lists exceeded capacity.
type TruncationStats struct {
	Events    int // events with more particles than slots
	Particles int // particles dropped across those events
}

// Add accumulates o into s.
func (s *TruncationStats) Add(o TruncationStats) {
	s.Events += o.Events
	s.Particles += o.Particles
}

// FixedParticleArray is the padded/truncated form of a RaggedFeatureSet:
// every feature maps to an (NEvents x Capacity) array and slot j of every
// feature refers to the same particle.
type FixedParticleArray struct {
	Species    string
	Capacity   int
	NEvents    int
	Features   map[string]*FixedArray
	Order      []string
	Truncation TruncationStats
}
