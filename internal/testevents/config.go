package testevents

import "time"

// Config holds configuration for synthetic input generation.
type Config struct {
	Dir      string // output directory for ROOT files
	ListFile string // path list to write; empty skips it
	Files    int    // number of files
	Events   int    // events per file
	Workers  int    // files written concurrently
	Seed     uint64 // base seed; file i uses Seed+i

	TreeName string
	Prefix   string // file name prefix, e.g. "user.ewoodwar."

	// Mean multiplicities; per-event counts are Poisson distributed.
	MeanElectrons float64
	MeanPhotons   float64

	EventVariables   []string
	ElectronFeatures []string
	PhotonFeatures   []string

	Verbose bool
}

// Stats holds generation statistics.
type Stats struct {
	Paths     []string // written files, in index order
	Events    int
	Electrons int
	Photons   int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
