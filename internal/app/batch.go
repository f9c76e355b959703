package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/okian/root2hdf5/internal/adapters/mq/queue"
	"github.com/okian/root2hdf5/internal/adapters/mq/worker"
	"github.com/okian/root2hdf5/internal/domain/dedupe"
	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/internal/domain/naming"
	"github.com/okian/root2hdf5/pkg/logger"
	"github.com/okian/root2hdf5/pkg/metrics"
)

// Run converts every input in paths and returns one result per input, in
// path-list order. A failing file never stops the batch unless fail-fast is
// configured, in which case the remaining files are reported as skipped and
// the report is marked aborted. Cancelling ctx aborts the batch the same way.
// An empty path list is an empty, successful batch. The returned error is
// reserved for problems that prevent the batch from starting at all.
func (s *Service) Run(ctx context.Context, paths []string) (*model.BatchReport, error) {
	start := time.Now()
	if len(paths) == 0 {
		s.resetProgress(0)
		s.logger.Warn(ctx, "path list is empty; nothing to convert")
		return &model.BatchReport{Duration: time.Since(start)}, nil
	}

	if s.createOutputDir {
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", s.outputDir, err)
		}
	}

	s.resetProgress(len(paths))
	report := &model.BatchReport{Results: make([]model.FileResult, 0, len(paths))}

	jobs, rejected := s.plan(ctx, paths)
	for _, res := range rejected {
		s.finish(ctx, res)
	}
	report.Results = append(report.Results, rejected...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(rejected) > 0 && s.failFast {
		report.Aborted = true
		cancel()
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(jobs) + 1))
	for _, j := range jobs {
		if err := q.Enqueue(runCtx, j); err != nil {
			break
		}
	}
	_ = q.Close()

	pool := worker.NewPool(s.workerCount, q, s,
		worker.WithResultBuffer(len(jobs)+1),
		worker.WithPoolLogger(s.logger.Named("pool")),
	)
	pool.Start(runCtx)

	seen := make(map[int]bool, len(jobs))
	for res := range pool.Results() {
		seen[res.Job.Index] = true
		report.Results = append(report.Results, res)
		if !res.OK() && s.failFast && !report.Aborted {
			report.Aborted = true
			s.logger.Warn(ctx, "fail-fast: aborting batch",
				logger.String("input", res.Job.InputPath),
				logger.Error(res.Err),
			)
			cancel()
			// Results are buffered for every job, so workers finish without a reader.
			if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn(ctx, "worker pool did not stop cleanly", logger.Error(err))
			}
		}
	}
	pool.Wait()
	if ctx.Err() != nil {
		report.Aborted = true
	}

	// Jobs never handed to a worker after cancellation.
	for _, j := range jobs {
		if seen[j.Index] {
			continue
		}
		res := model.FileResult{Job: j, Err: &FileError{Input: j.InputPath, Stage: StageSkipped, Err: ErrSkipped}}
		s.finish(ctx, res)
		report.Results = append(report.Results, res)
	}

	sort.Slice(report.Results, func(a, b int) bool {
		return report.Results[a].Job.Index < report.Results[b].Job.Index
	})
	report.Duration = time.Since(start)
	metrics.UpdateQueueSize(0)

	s.logger.Info(ctx, "batch finished",
		logger.Int("files", len(report.Results)),
		logger.Int("succeeded", report.Succeeded()),
		logger.Int("failed", report.Failed()),
		logger.Bool("aborted", report.Aborted),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}

// plan derives output paths for every input. Inputs whose id cannot be
// derived, or whose id was already claimed earlier in the list, are
// returned as failed results instead of jobs.
func (s *Service) plan(ctx context.Context, paths []string) ([]model.FileJob, []model.FileResult) {
	claims := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(len(paths)))

	jobs := make([]model.FileJob, 0, len(paths))
	var rejected []model.FileResult
	for i, p := range paths {
		job := model.FileJob{Index: i, InputPath: p}

		id, err := naming.DatasetID(p, s.namePrefix)
		if err != nil {
			rejected = append(rejected, model.FileResult{Job: job, Err: &FileError{Input: p, Stage: StageName, Err: err}})
			continue
		}
		job.DatasetID = id
		job.OutputPath = naming.OutputPath(s.outputDir, id)

		if prev, dup := claims.SeenAndRecord(ctx, id, p); dup {
			metrics.RecordFileDuplicate()
			rejected = append(rejected, model.FileResult{Job: job, Err: &FileError{
				Input: p,
				Stage: StageName,
				Err:   fmt.Errorf("%w: %s is also produced by %s", ErrDuplicateOutput, job.OutputPath, prev),
			}})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rejected
}
