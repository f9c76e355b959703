package testevents

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/root2hdf5/internal/adapters/rootio"
	"github.com/okian/root2hdf5/internal/config"
	"github.com/okian/root2hdf5/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func testConfig(dir string) *Config {
	def := config.New()
	return &Config{
		Dir:              dir,
		ListFile:         filepath.Join(dir, "file_data.txt"),
		Files:            3,
		Events:           20,
		Workers:          2,
		Seed:             7,
		TreeName:         def.TreeName,
		Prefix:           def.NamePrefix,
		MeanElectrons:    2,
		MeanPhotons:      6,
		EventVariables:   def.EventVariables,
		ElectronFeatures: def.ElectronFeatures,
		PhotonFeatures:   def.PhotonFeatures,
	}
}

func TestRun(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		_ = logger.Init(logger.WithWriter(&strings.Builder{}))
		ctx := context.Background()
		dir := t.TempDir()
		cfg := testConfig(dir)

		Convey("When generating files", func() {
			stats, err := Run(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then files are named with the prefix and listed in order", func() {
				So(stats.Paths, ShouldHaveLength, 3)
				for _, p := range stats.Paths {
					So(filepath.Base(p), ShouldStartWith, "user.ewoodwar.")
					So(p, ShouldEndWith, ".root")
				}
				raw, err := os.ReadFile(cfg.ListFile)
				So(err, ShouldBeNil)
				So(strings.Fields(string(raw)), ShouldResemble, stats.Paths)
				So(stats.Events, ShouldEqual, 60)
			})

			Convey("Then the reader sees consistent multiplicities", func() {
				tree, err := rootio.NewReader().Open(ctx, stats.Paths[0], cfg.TreeName)
				So(err, ShouldBeNil)
				defer tree.Close()

				So(tree.NumEvents(), ShouldEqual, 20)
				events, err := tree.Events(ctx, cfg.EventVariables)
				So(err, ShouldBeNil)
				photons, err := tree.Particles(ctx, "photons", cfg.PhotonFeatures)
				So(err, ShouldBeNil)
				electrons, err := tree.Particles(ctx, "electrons", cfg.ElectronFeatures)
				So(err, ShouldBeNil)

				for e := 0; e < 20; e++ {
					So(float32(photons.Multiplicity(e)), ShouldEqual, events.Features["photon_n"][e])
					So(float32(electrons.Multiplicity(e)), ShouldEqual, events.Features["electron_n_baseline"][e])
					for _, name := range cfg.PhotonFeatures {
						So(photons.Features[name][e], ShouldHaveLength, photons.Multiplicity(e))
					}
				}
			})
		})

		Convey("When the file count is zero", func() {
			cfg.Files = 0
			_, err := Run(ctx, cfg)

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestMultiplicity(t *testing.T) {
	Convey("Given a seeded source", t, func() {
		draw := multiplicity(rand.NewPCG(1, 2), 3)

		Convey("Then the sample mean is near the requested mean", func() {
			sum := 0
			for i := 0; i < 5000; i++ {
				n := draw()
				So(n, ShouldBeGreaterThanOrEqualTo, 0)
				sum += n
			}
			mean := float64(sum) / 5000
			So(mean, ShouldBeBetween, 2.8, 3.2)
		})

		Convey("Then a non-positive mean yields no particles", func() {
			So(multiplicity(rand.NewPCG(1, 2), 0)(), ShouldEqual, 0)
			So(multiplicity(rand.NewPCG(1, 2), -1)(), ShouldEqual, 0)
		})

		Convey("Then equal seeds give equal sequences", func() {
			a := multiplicity(rand.NewPCG(9, 4), 2.5)
			b := multiplicity(rand.NewPCG(9, 4), 2.5)
			for i := 0; i < 100; i++ {
				So(a(), ShouldEqual, b())
			}
		})
	})

	Convey("Given feature names", t, func() {
		Convey("Then integer counters are recognised", func() {
			So(isCounter("electron_", "electron_nPIX"), ShouldBeTrue)
			So(isCounter("electron_", "electron_numberDoF"), ShouldBeTrue)
			So(isCounter("electron_", "electron_pt"), ShouldBeFalse)
			So(isCounter("photon_", "photon_maxEcell_E"), ShouldBeFalse)
		})
	})
}
