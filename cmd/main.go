// Command root2hdf5 converts the ROOT files named in a path list into
// fixed-shape HDF5 files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/root2hdf5/internal/adapters/filelist"
	"github.com/okian/root2hdf5/internal/adapters/http/api"
	service "github.com/okian/root2hdf5/internal/app"
	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/pkg/logger"
	"github.com/okian/root2hdf5/pkg/metrics"
)

// Exit codes.
const (
	exitOK      = 0
	exitConfig  = 1
	exitAborted = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, so it can be driven by tests.
// Logs and usage go to stderr.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("root2hdf5", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file (default $"+config.EnvConfigPath+")")
		listPath   = fs.String("list", "", "Path list overriding file_list")
		outDir     = fs.String("out", "", "Output directory overriding output_dir")
		workers    = fs.Int("workers", 0, "Worker count overriding worker_count")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config: "+err.Error())
		return exitConfig
	}
	if *listPath != "" {
		cfg.FileList = *listPath
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *workers != 0 {
		cfg.WorkerCount = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "invalid config: "+err.Error())
		return exitConfig
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging: "+err.Error())
		return exitConfig
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintln(stderr, "failed to flush logs: "+err.Error())
		}
	}()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	paths, err := filelist.Read(ctx, cfg.FileList)
	if err != nil {
		log.Error(ctx, "failed to read path list", logger.String("file_list", cfg.FileList), logger.Error(err))
		return exitConfig
	}

	svc, err := service.New(cfg, service.WithLogger(log.Named("converter")))
	if err != nil {
		log.Error(ctx, "failed to create converter", logger.Error(err))
		return exitConfig
	}

	if cfg.MetricsAddr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := api.NewServer(svc).ListenAndServe(srvCtx, cfg.MetricsAddr); err != nil {
				log.Error(ctx, "status server stopped", logger.Error(err))
			}
		}()
	}

	report, err := svc.Run(ctx, paths)
	if err != nil {
		log.Error(ctx, "batch did not start", logger.Error(err))
		return exitConfig
	}

	for _, res := range report.Results {
		if !res.OK() && service.StageOf(res.Err) != service.StageSkipped {
			log.Warn(ctx, "failed input",
				logger.String("input", res.Job.InputPath),
				logger.String("stage", service.StageOf(res.Err)),
				logger.Error(res.Err),
			)
		}
	}
	log.Info(ctx, "summary",
		logger.Int("files", len(report.Results)),
		logger.Int("succeeded", report.Succeeded()),
		logger.Int("failed", report.Failed()),
		logger.String("output_dir", cfg.OutputDir),
	)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn(ctx, "failed to write metrics textfile", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		}
	}

	if report.Aborted {
		return exitAborted
	}
	return exitOK
}
