package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/internal/testevents"
	"github.com/okian/root2hdf5/pkg/logger"
)

// Default configuration constants.
const (
	defaultFiles     = 4
	defaultEvents    = 1000
	defaultElectrons = 2.5
	defaultPhotons   = 3.0
	defaultTimeout   = 30 * time.Minute
)

func main() {
	var (
		dir       = flag.String("dir", "testdata/ntuples", "Output directory for ROOT files")
		list      = flag.String("list", "testdata/file_data.txt", "Path list to write")
		files     = flag.Int("files", defaultFiles, "Number of files")
		events    = flag.Int("events", defaultEvents, "Events per file")
		electrons = flag.Float64("electrons", defaultElectrons, "Mean electrons per event")
		photons   = flag.Float64("photons", defaultPhotons, "Mean photons per event")
		seed      = flag.Uint64("seed", 1, "Base random seed")
		workers   = flag.Int("workers", runtime.NumCPU(), "Files written concurrently")
		logFile   = flag.String("log", "", "Log file (default: gen_events_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Feature layout follows the converter defaults so the output converts as-is.
	def := config.New()
	cfg := &testevents.Config{
		Dir:              *dir,
		ListFile:         *list,
		Files:            *files,
		Events:           *events,
		Workers:          *workers,
		Seed:             *seed,
		TreeName:         def.TreeName,
		Prefix:           def.NamePrefix,
		MeanElectrons:    *electrons,
		MeanPhotons:      *photons,
		EventVariables:   def.EventVariables,
		ElectronFeatures: def.ElectronFeatures,
		PhotonFeatures:   def.PhotonFeatures,
		Verbose:          *verbose,
	}

	if _, err := testevents.Run(ctx, cfg); err != nil {
		logger.Get().Fatal(ctx, "generation failed", logger.Error(err))
	}
}
