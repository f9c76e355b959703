// Package service converts ROOT input files into fixed-layout HDF5 files.
//
// ConvertFile handles one file; Run drives a whole path list through the
// job queue and worker pool and reports one result per input.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/root2hdf5/internal/adapters/h5store"
	"github.com/okian/root2hdf5/internal/adapters/rootio"
	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/internal/domain/padding"
	"github.com/okian/root2hdf5/pkg/logger"
	"github.com/okian/root2hdf5/pkg/metrics"
)

// Verifier checks a written file against what was meant to be written.
type Verifier func(path string, want *model.ConvertedFile) error

// Service converts input files according to a Config.
type Service struct {
	// Configuration
	treeName        string
	eventVars       []string
	species         []model.SpeciesSpec
	namePrefix      string
	outputDir       string
	workerCount     int
	policy          padding.Policy
	failFast        bool
	createOutputDir bool

	// Collaborators
	reader    Reader
	writer    Writer
	converter Converter
	verifier  Verifier

	// Progress, read by the status server
	total     atomic.Int64
	done      atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	running   atomic.Int64

	logger logger.Logger
}

// New constructs a Service from cfg. The default collaborators are the groot
// reader, the padding converter and the HDF5 writer.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	s := &Service{
		treeName:        cfg.TreeName,
		eventVars:       append([]string(nil), cfg.EventVariables...),
		species:         cfg.Species(),
		namePrefix:      cfg.NamePrefix,
		outputDir:       cfg.OutputDir,
		workerCount:     cfg.WorkerCount,
		policy:          policy,
		failFast:        cfg.FailFast,
		createOutputDir: cfg.CreateOutputDir,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("converter")
	}
	if s.reader == nil {
		s.reader = NewRootReader(rootio.NewReader(rootio.WithLogger(s.logger.Named("rootio"))))
	}
	if s.converter == nil {
		s.converter = padding.NewConverter(
			padding.WithPolicy(policy),
			padding.WithAlignmentCheck(cfg.ValidateAlignment),
		)
	}
	if s.writer == nil {
		s.writer = h5store.NewWriter(
			h5store.WithAtomic(cfg.AtomicWrite),
			h5store.WithLogger(s.logger.Named("h5store")),
		)
	}
	if s.verifier == nil && cfg.VerifyOutput {
		s.verifier = h5store.Verify
	}

	return s, nil
}

// ConvertFile converts one input file into one HDF5 file at outputPath.
// The input is always closed. Any failure is returned as a *FileError.
func (s *Service) ConvertFile(ctx context.Context, inputPath, outputPath string) (*model.FileResult, error) {
	start := time.Now()

	src, err := s.reader.Open(ctx, inputPath, s.treeName)
	if err != nil {
		return nil, &FileError{Input: inputPath, Stage: StageOpen, Err: err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.logger.Warn(ctx, "closing input failed", logger.String("input", inputPath), logger.Error(cerr))
		}
	}()

	events, err := src.Events(ctx, s.eventVars)
	if err != nil {
		return nil, &FileError{Input: inputPath, Stage: StageRead, Err: err}
	}

	file := &model.ConvertedFile{Events: events, Species: make([]*model.FixedParticleArray, 0, len(s.species))}
	trunc := make(map[string]model.TruncationStats, len(s.species))
	for _, sp := range s.species {
		ragged, err := src.Particles(ctx, sp.Name, sp.Features)
		if err != nil {
			return nil, &FileError{Input: inputPath, Stage: StageRead, Err: err}
		}
		fixed, err := s.converter.Convert(ctx, ragged, sp.Capacity)
		if err != nil {
			return nil, &FileError{Input: inputPath, Stage: StageConvert, Err: fmt.Errorf("%s: %w", sp.Name, err)}
		}
		file.Species = append(file.Species, fixed)
		trunc[sp.Name] = fixed.Truncation
		s.reportTruncation(ctx, inputPath, sp, fixed.Truncation)
	}

	if err := s.writer.Write(ctx, outputPath, file); err != nil {
		return nil, &FileError{Input: inputPath, Stage: StageWrite, Err: err}
	}
	if s.verifier != nil {
		if err := s.verifier(outputPath, file); err != nil {
			return nil, &FileError{Input: inputPath, Stage: StageVerify, Err: err}
		}
	}

	return &model.FileResult{
		Events:     events.NEvents,
		Truncation: trunc,
		Duration:   time.Since(start),
	}, nil
}

func (s *Service) reportTruncation(ctx context.Context, input string, sp model.SpeciesSpec, t model.TruncationStats) {
	if s.policy != padding.PolicyCount || t.Particles == 0 {
		return
	}
	metrics.RecordTruncation(sp.Name, t.Events, t.Particles)
	s.logger.Warn(ctx, "particles dropped beyond capacity",
		logger.String("input", input),
		logger.String("species", sp.Name),
		logger.Int("capacity", sp.Capacity),
		logger.Int("events", t.Events),
		logger.Int("particles", t.Particles),
	)
}

// Process runs one job and never fails: the outcome is in the returned result.
// It satisfies worker.Processor.
func (s *Service) Process(ctx context.Context, job model.FileJob) model.FileResult { //nolint:gocritic // hugeParam: FileJob is passed by value for channel semantics
	s.running.Add(1)
	defer s.running.Add(-1)

	res := model.FileResult{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = &FileError{Input: job.InputPath, Stage: StageSkipped, Err: ErrSkipped}
		s.finish(ctx, res)
		return res
	}

	out, err := s.ConvertFile(ctx, job.InputPath, job.OutputPath)
	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled):
		res.Err = &FileError{Input: job.InputPath, Stage: StageSkipped, Err: fmt.Errorf("%w: %w", ErrSkipped, err)}
	case err != nil:
		res.Err = err
	default:
		res.Events = out.Events
		res.Truncation = out.Truncation
		res.Duration = out.Duration
	}
	s.finish(ctx, res)
	return res
}

// finish records metrics, logs and progress for a completed result.
func (s *Service) finish(ctx context.Context, res model.FileResult) { //nolint:gocritic // hugeParam: FileResult is copied once per file
	s.done.Add(1)
	if res.OK() {
		s.succeeded.Add(1)
		metrics.RecordFileConverted(res.Events, res.Duration)
		s.logger.Info(ctx, "converted file",
			logger.String("input", res.Job.InputPath),
			logger.String("output", res.Job.OutputPath),
			logger.Int("events", res.Events),
			logger.Duration("took", res.Duration),
		)
		return
	}

	s.failed.Add(1)
	stage := StageOf(res.Err)
	if stage == StageSkipped {
		s.logger.Debug(ctx, "skipped file", logger.String("input", res.Job.InputPath))
		return
	}
	metrics.RecordFileFailed(stage)
	s.logger.Error(ctx, "file conversion failed",
		logger.String("input", res.Job.InputPath),
		logger.String("stage", stage),
		logger.Error(res.Err),
	)
}
