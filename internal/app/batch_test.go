package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/root2hdf5/internal/adapters/h5store"
	service "github.com/okian/root2hdf5/internal/app"
	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/internal/domain/naming"
	"github.com/okian/root2hdf5/internal/testevents"
	"github.com/okian/root2hdf5/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a service over fake collaborators", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		reader := &fakeReader{missing: map[string]bool{"/in/user.ewoodwar.bad.root": true}}
		writer := &fakeWriter{}
		cfg := testConfig(filepath.Join(t.TempDir(), "nested", "out"))
		cfg.WorkerCount = 3

		newService := func() *service.Service {
			s, err := service.New(cfg,
				service.WithLogger(bufferLogger(&buf)),
				service.WithReader(reader),
				service.WithWriter(writer),
			)
			So(err, ShouldBeNil)
			return s
		}

		Convey("When the path list is empty", func() {
			s := newService()
			report, err := s.Run(ctx, nil)

			Convey("Then the batch completes with nothing to do", func() {
				So(err, ShouldBeNil)
				So(report.Results, ShouldBeEmpty)
				So(report.Aborted, ShouldBeFalse)
				So(report.Failed(), ShouldEqual, 0)
				So(writer.files, ShouldBeEmpty)
				So(s.Stats(), ShouldResemble, service.Stats{})
				So(buf.String(), ShouldContainSubstring, "path list is empty")
			})
		})

		Convey("When one file in the middle fails", func() {
			paths := []string{
				"/in/user.ewoodwar.a.root",
				"/in/user.ewoodwar.bad.root",
				"root://eos.example//store/user.ewoodwar.c.root",
			}
			s := newService()
			report, err := s.Run(ctx, paths)

			Convey("Then every input has a result in list order", func() {
				So(err, ShouldBeNil)
				So(report.Aborted, ShouldBeFalse)
				So(report.Results, ShouldHaveLength, 3)
				for i, res := range report.Results {
					So(res.Job.Index, ShouldEqual, i)
					So(res.Job.InputPath, ShouldEqual, paths[i])
				}
				So(report.Succeeded(), ShouldEqual, 2)
				So(service.StageOf(report.Results[1].Err), ShouldEqual, service.StageOpen)
			})

			Convey("Then outputs are named after the derived ids", func() {
				So(report.Results[0].Job.OutputPath, ShouldEqual, filepath.Join(cfg.OutputDir, "data_a.h5"))
				So(writer.files, ShouldContainKey, filepath.Join(cfg.OutputDir, "data_c.h5"))
				So(writer.files, ShouldHaveLength, 2)
			})

			Convey("Then the output directory is created", func() {
				info, err := os.Stat(cfg.OutputDir)
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			})

			Convey("Then the failure is logged with its input", func() {
				So(buf.String(), ShouldContainSubstring, "file conversion failed")
				So(buf.String(), ShouldContainSubstring, "/in/user.ewoodwar.bad.root")
				So(buf.String(), ShouldContainSubstring, "batch finished")
			})

			Convey("Then progress reflects the whole batch", func() {
				So(s.Stats(), ShouldResemble, service.Stats{Total: 3, Done: 3, Succeeded: 2, Failed: 1})
			})
		})

		Convey("When two inputs derive the same output id", func() {
			report, err := newService().Run(ctx, []string{"/a/user.ewoodwar.x.root", "/b/x.root"})

			Convey("Then the later input is rejected and the first converts", func() {
				So(err, ShouldBeNil)
				So(report.Results[0].OK(), ShouldBeTrue)
				So(errors.Is(report.Results[1].Err, service.ErrDuplicateOutput), ShouldBeTrue)
				So(report.Results[1].Err.Error(), ShouldContainSubstring, "/a/user.ewoodwar.x.root")
				So(writer.files, ShouldHaveLength, 1)
			})
		})

		Convey("When an input has no name before its suffix", func() {
			report, err := newService().Run(ctx, []string{"/in/.root", "/in/user.ewoodwar.ok.root"})

			Convey("Then it fails at the name stage and the rest still run", func() {
				So(err, ShouldBeNil)
				So(errors.Is(report.Results[0].Err, naming.ErrInvalidIdentifier), ShouldBeTrue)
				So(service.StageOf(report.Results[0].Err), ShouldEqual, service.StageName)
				So(report.Results[1].OK(), ShouldBeTrue)
			})
		})

		Convey("When fail-fast is set and an input is rejected up front", func() {
			cfg.FailFast = true
			report, err := newService().Run(ctx, []string{"/in/.root", "/in/user.ewoodwar.a.root", "/in/user.ewoodwar.b.root"})

			Convey("Then the batch aborts and the rest are skipped", func() {
				So(err, ShouldBeNil)
				So(report.Aborted, ShouldBeTrue)
				So(report.Results, ShouldHaveLength, 3)
				So(report.Succeeded(), ShouldEqual, 0)
				So(errors.Is(report.Results[1].Err, service.ErrSkipped), ShouldBeTrue)
				So(errors.Is(report.Results[2].Err, service.ErrSkipped), ShouldBeTrue)
				So(writer.files, ShouldBeEmpty)
			})
		})

		Convey("When fail-fast is set and a conversion fails", func() {
			cfg.FailFast = true
			cfg.WorkerCount = 1
			s := newService()
			report, err := s.Run(ctx, []string{
				"/in/user.ewoodwar.bad.root",
				"/in/user.ewoodwar.a.root",
				"/in/user.ewoodwar.b.root",
				"/in/user.ewoodwar.c.root",
			})

			Convey("Then the batch is aborted with every input reported", func() {
				So(err, ShouldBeNil)
				So(report.Aborted, ShouldBeTrue)
				So(report.Results, ShouldHaveLength, 4)
				So(service.StageOf(report.Results[0].Err), ShouldEqual, service.StageOpen)
				for _, res := range report.Results[1:] {
					if !res.OK() {
						So(service.StageOf(res.Err), ShouldEqual, service.StageSkipped)
					}
				}
			})

			Convey("Then the worker pool is stopped before Run returns", func() {
				So(s.Stats().Running, ShouldEqual, 0)
				So(s.Stats().Done, ShouldEqual, 4)
				So(buf.String(), ShouldContainSubstring, "fail-fast: aborting batch")
				So(buf.String(), ShouldNotContainSubstring, "worker pool did not stop cleanly")
			})
		})

		Convey("When the parent context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			report, err := newService().Run(cctx, []string{"/in/user.ewoodwar.a.root"})

			Convey("Then the batch is aborted and nothing is written", func() {
				So(err, ShouldBeNil)
				So(report.Aborted, ShouldBeTrue)
				So(errors.Is(report.Results[0].Err, service.ErrSkipped), ShouldBeTrue)
				So(writer.files, ShouldBeEmpty)
			})
		})
	})
}

func TestRunEndToEnd(t *testing.T) {
	Convey("Given generated ROOT inputs and one missing input", t, func() {
		ctx := context.Background()
		So(logger.Init(logger.WithWriter(io.Discard)), ShouldBeNil)
		dir := t.TempDir()

		cfg := config.New()
		cfg.OutputDir = filepath.Join(dir, "h5")
		cfg.EventVariables = []string{"PV_x", "electron_n"}
		cfg.ElectronFeatures = []string{"electron_pt", "electron_eta", "electron_nPIX"}
		cfg.PhotonFeatures = []string{"photon_pt"}
		cfg.MaxParticles = 3
		cfg.WorkerCount = 2
		cfg.VerifyOutput = true

		gen, err := testevents.Run(ctx, &testevents.Config{
			Dir:              filepath.Join(dir, "root"),
			Files:            2,
			Events:           20,
			Workers:          2,
			Seed:             7,
			TreeName:         cfg.TreeName,
			Prefix:           naming.DefaultPrefix,
			MeanElectrons:    2.5,
			MeanPhotons:      1,
			EventVariables:   cfg.EventVariables,
			ElectronFeatures: cfg.ElectronFeatures,
			PhotonFeatures:   cfg.PhotonFeatures,
		})
		So(err, ShouldBeNil)
		missing := filepath.Join(dir, "root", naming.DefaultPrefix+"missing.root")
		paths := []string{gen.Paths[0], missing, gen.Paths[1]}

		var buf bytes.Buffer
		s, err := service.New(cfg, service.WithLogger(bufferLogger(&buf)))
		So(err, ShouldBeNil)

		Convey("When the batch runs", func() {
			report, err := s.Run(ctx, paths)
			So(err, ShouldBeNil)

			Convey("Then the missing input fails alone and the batch completes", func() {
				So(report.Aborted, ShouldBeFalse)
				So(report.Succeeded(), ShouldEqual, 2)
				So(service.StageOf(report.Results[1].Err), ShouldEqual, service.StageOpen)
				So(buf.String(), ShouldContainSubstring, missing)
				So(buf.String(), ShouldContainSubstring, `"stage":"open"`)
			})

			Convey("Then each output holds fixed-shape datasets", func() {
				for _, i := range []int{0, 2} {
					res := report.Results[i]
					So(res.Events, ShouldEqual, 20)

					layout, err := h5store.Inspect(res.Job.OutputPath)
					So(err, ShouldBeNil)
					So(layout.Groups, ShouldResemble, []string{"/events", "/events/electrons", "/events/photons"})
					So(layout.Datasets["/events/PV_x"].Dims, ShouldResemble, []uint{20})
					So(layout.Datasets["/events/electrons/electron_pt"].Dims, ShouldResemble, []uint{20, 3})
					So(layout.Datasets["/events/electrons/electron_nPIX"].Dims, ShouldResemble, []uint{20, 3})
					So(layout.Datasets["/events/photons/photon_pt"].Dims, ShouldResemble, []uint{20, 3})
				}
			})

			Convey("Then the electron count matches the non-padded slots", func() {
				layout, err := h5store.Inspect(report.Results[0].Job.OutputPath)
				So(err, ShouldBeNil)
				counts := layout.Datasets["/events/electron_n"].Data
				pt := layout.Datasets["/events/electrons/electron_pt"].Data
				for e, n := range counts {
					filled := 0
					for j := 0; j < 3; j++ {
						if pt[e*3+j] != 0 {
							filled++
						}
					}
					So(filled, ShouldEqual, min(int(n), 3))
				}
			})

			Convey("Then no temporary files are left behind", func() {
				entries, err := os.ReadDir(cfg.OutputDir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
			})
		})
	})
}
