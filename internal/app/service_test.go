package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	service "github.com/okian/root2hdf5/internal/app"
	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errBoom = errors.New("boom")

// fakeSource serves the same two events for every species.
type fakeSource struct {
	reader    *fakeReader
	eventsErr error
}

func (f *fakeSource) NumEvents() int { return 2 }

func (f *fakeSource) Events(_ context.Context, names []string) (*model.EventBatch, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	b := model.NewEventBatch(2, names)
	for _, n := range names {
		b.Features[n][0], b.Features[n][1] = 1, 2
	}
	return b, nil
}

func (f *fakeSource) Particles(_ context.Context, species string, names []string) (*model.RaggedFeatureSet, error) {
	r := model.NewRaggedFeatureSet(species, 2, names)
	for _, n := range names {
		r.Features[n][0] = []float32{10, 20}
		r.Features[n][1] = []float32{1, 2, 3, 4, 5, 6}
	}
	return r, nil
}

func (f *fakeSource) Close() error {
	f.reader.mu.Lock()
	defer f.reader.mu.Unlock()
	f.reader.closed++
	return nil
}

// fakeReader opens a fakeSource for any path not listed in missing.
type fakeReader struct {
	mu        sync.Mutex
	closed    int
	missing   map[string]bool
	eventsErr error
}

func (r *fakeReader) Open(_ context.Context, path, _ string) (service.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[path] {
		return nil, fmt.Errorf("open %s: %w", path, errBoom)
	}
	return &fakeSource{reader: r, eventsErr: r.eventsErr}, nil
}

// fakeWriter records every written file by destination.
type fakeWriter struct {
	mu    sync.Mutex
	files map[string]*model.ConvertedFile
	err   error
}

func (w *fakeWriter) Write(_ context.Context, dest string, file *model.ConvertedFile) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.files == nil {
		w.files = make(map[string]*model.ConvertedFile)
	}
	w.files[dest] = file
	return nil
}

func testConfig(dir string) *config.Config {
	cfg := config.New()
	cfg.OutputDir = dir
	cfg.EventVariables = []string{"PV_x", "electron_n"}
	cfg.ElectronFeatures = []string{"electron_pt", "electron_eta"}
	cfg.PhotonFeatures = []string{"photon_pt"}
	cfg.MaxParticles = 4
	return cfg
}

func bufferLogger(buf *bytes.Buffer) logger.Logger {
	l, err := logger.New(logger.WithWriter(buf), logger.WithFormat(logger.FormatJSON))
	So(err, ShouldBeNil)
	return l
}

func TestNew(t *testing.T) {
	Convey("Given configurations", t, func() {
		var buf bytes.Buffer
		log := bufferLogger(&buf)

		Convey("When the config is nil", func() {
			_, err := service.New(nil, service.WithLogger(log))

			Convey("Then ErrInvalidConfig is returned", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the config is invalid", func() {
			cfg := testConfig(t.TempDir())
			cfg.MaxParticles = 0
			_, err := service.New(cfg, service.WithLogger(log))

			Convey("Then the validation error is returned", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the config is valid", func() {
			s, err := service.New(testConfig(t.TempDir()), service.WithLogger(log))

			Convey("Then a service with zero progress is built", func() {
				So(err, ShouldBeNil)
				So(s.Stats(), ShouldResemble, service.Stats{})
			})
		})
	})
}

func TestConvertFile(t *testing.T) {
	Convey("Given a service over fake collaborators", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		reader := &fakeReader{}
		writer := &fakeWriter{}
		cfg := testConfig(t.TempDir())
		out := filepath.Join(cfg.OutputDir, "data_x.h5")

		newService := func(opts ...service.Option) *service.Service {
			opts = append([]service.Option{
				service.WithLogger(bufferLogger(&buf)),
				service.WithReader(reader),
				service.WithWriter(writer),
			}, opts...)
			s, err := service.New(cfg, opts...)
			So(err, ShouldBeNil)
			return s
		}

		Convey("When the input converts cleanly", func() {
			res, err := newService().ConvertFile(ctx, "in.root", out)

			Convey("Then one file with padded species is written", func() {
				So(err, ShouldBeNil)
				So(res.Events, ShouldEqual, 2)
				file := writer.files[out]
				So(file, ShouldNotBeNil)
				So(file.Events.Order, ShouldResemble, []string{"PV_x", "electron_n"})
				So(file.Species, ShouldHaveLength, 2)
				So(file.Species[0].Species, ShouldEqual, config.SpeciesElectrons)
				So(file.Species[0].Features["electron_pt"].Row(0), ShouldResemble, []float32{10, 20, 0, 0})
				So(file.Species[1].Species, ShouldEqual, config.SpeciesPhotons)
			})

			Convey("Then truncation is reported per species", func() {
				So(res.Truncation[config.SpeciesElectrons], ShouldResemble, model.TruncationStats{Events: 1, Particles: 2})
			})

			Convey("Then the input is closed", func() {
				So(reader.closed, ShouldEqual, 1)
			})
		})

		Convey("When the input cannot be opened", func() {
			reader.missing = map[string]bool{"gone.root": true}
			_, err := newService().ConvertFile(ctx, "gone.root", out)

			Convey("Then the error carries the open stage and the cause", func() {
				So(service.StageOf(err), ShouldEqual, service.StageOpen)
				So(errors.Is(err, errBoom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "gone.root")
				So(writer.files, ShouldBeEmpty)
			})
		})

		Convey("When reading event variables fails", func() {
			reader.eventsErr = errBoom
			_, err := newService().ConvertFile(ctx, "in.root", out)

			Convey("Then the read stage is reported and the input still closed", func() {
				So(service.StageOf(err), ShouldEqual, service.StageRead)
				So(reader.closed, ShouldEqual, 1)
			})
		})

		Convey("When the policy is strict and an event overflows", func() {
			cfg.TruncationPolicy = "strict"
			_, err := newService().ConvertFile(ctx, "in.root", out)

			Convey("Then the convert stage is reported with the species", func() {
				So(service.StageOf(err), ShouldEqual, service.StageConvert)
				So(err.Error(), ShouldContainSubstring, config.SpeciesElectrons)
			})
		})

		Convey("When the policy is count", func() {
			cfg.TruncationPolicy = "count"
			_, err := newService().ConvertFile(ctx, "in.root", out)

			Convey("Then the dropped particles are logged", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "particles dropped beyond capacity")
			})
		})

		Convey("When writing fails", func() {
			writer.err = errBoom
			_, err := newService().ConvertFile(ctx, "in.root", out)

			Convey("Then the write stage is reported", func() {
				So(service.StageOf(err), ShouldEqual, service.StageWrite)
				So(errors.Is(err, errBoom), ShouldBeTrue)
			})
		})

		Convey("When verification rejects the output", func() {
			s := newService(service.WithVerifier(func(string, *model.ConvertedFile) error { return errBoom }))
			_, err := s.ConvertFile(ctx, "in.root", out)

			Convey("Then the verify stage is reported", func() {
				So(service.StageOf(err), ShouldEqual, service.StageVerify)
			})
		})
	})
}

func TestProcess(t *testing.T) {
	Convey("Given a service over fake collaborators", t, func() {
		var buf bytes.Buffer
		cfg := testConfig(t.TempDir())
		s, err := service.New(cfg,
			service.WithLogger(bufferLogger(&buf)),
			service.WithReader(&fakeReader{}),
			service.WithWriter(&fakeWriter{}),
		)
		So(err, ShouldBeNil)
		job := model.FileJob{Index: 3, InputPath: "in.root", OutputPath: filepath.Join(cfg.OutputDir, "data_in.h5")}

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res := s.Process(ctx, job)

			Convey("Then the job is skipped without converting", func() {
				So(res.Job, ShouldResemble, job)
				So(errors.Is(res.Err, service.ErrSkipped), ShouldBeTrue)
				So(service.StageOf(res.Err), ShouldEqual, service.StageSkipped)
			})
		})

		Convey("When the job succeeds", func() {
			res := s.Process(context.Background(), job)

			Convey("Then the result carries the event count and is logged", func() {
				So(res.OK(), ShouldBeTrue)
				So(res.Events, ShouldEqual, 2)
				So(buf.String(), ShouldContainSubstring, "converted file")
				So(s.Stats().Running, ShouldEqual, 0)
			})
		})
	})
}

func TestFileError(t *testing.T) {
	Convey("Given a FileError", t, func() {
		err := fmt.Errorf("wrapped: %w", &service.FileError{Input: "a.root", Stage: service.StageWrite, Err: errBoom})

		Convey("Then it formats, unwraps and exposes its stage", func() {
			So(err.Error(), ShouldEqual, "wrapped: a.root: write: boom")
			So(errors.Is(err, errBoom), ShouldBeTrue)
			So(service.StageOf(err), ShouldEqual, service.StageWrite)
			So(service.StageOf(errBoom), ShouldEqual, "")
		})
	})
}
