package testevents

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/root2hdf5/pkg/logger"
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "gen_events_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the generator.
func ShowHelp() {
	os.Stdout.WriteString(`Synthetic ntuple generator
==========================

Writes ROOT files shaped like the converter's input (event scalars plus
variable-length electron and photon branches) and a matching path list.

Usage:
  go run ./cmd/gen-events [options]

Options:
  -dir string
        Output directory for ROOT files (default "testdata/ntuples")
  -list string
        Path list to write (default "testdata/file_data.txt")
  -files int
        Number of files (default 4)
  -events int
        Events per file (default 1000)
  -electrons float
        Mean electrons per event (default 2.5)
  -photons float
        Mean photons per event (default 3)
  -seed uint
        Base random seed (default 1)
  -workers int
        Files written concurrently (default CPU cores)
  -log string
        Log file (default: gen_events_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Four files of 1000 events, then convert them
  go run ./cmd/gen-events
  ROOT2HDF5_FILE_LIST=testdata/file_data.txt go run ./cmd
`)
}
