package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/root2hdf5/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEventBatch(t *testing.T) {
	convey.Convey("Given a new EventBatch", t, func() {
		b := model.NewEventBatch(3, []string{"PV_x", "PV_y"})

		convey.Convey("Then every feature has one zeroed value per event", func() {
			convey.So(b.NEvents, convey.ShouldEqual, 3)
			convey.So(b.Order, convey.ShouldResemble, []string{"PV_x", "PV_y"})
			convey.So(b.Features["PV_x"], convey.ShouldResemble, []float32{0, 0, 0})
			convey.So(b.Features["PV_y"], convey.ShouldHaveLength, 3)
		})
	})
}

func TestRaggedFeatureSet(t *testing.T) {
	convey.Convey("Given a RaggedFeatureSet", t, func() {
		r := model.NewRaggedFeatureSet("electrons", 2, []string{"electron_pt", "electron_eta"})
		r.Features["electron_pt"][0] = []float32{10.5, 20}
		r.Features["electron_eta"][0] = []float32{0.1, -0.2}

		convey.Convey("Then Multiplicity follows the first feature", func() {
			convey.So(r.Multiplicity(0), convey.ShouldEqual, 2)
			convey.So(r.Multiplicity(1), convey.ShouldEqual, 0)
			convey.So(r.Multiplicity(7), convey.ShouldEqual, 0)
		})

		convey.Convey("Then a set without features has no particles", func() {
			empty := model.NewRaggedFeatureSet("photons", 4, nil)
			convey.So(empty.Multiplicity(0), convey.ShouldEqual, 0)
		})
	})
}

func TestFixedArray(t *testing.T) {
	convey.Convey("Given a 2x4 FixedArray", t, func() {
		a := model.NewFixedArray(2, 4)

		convey.Convey("Then it starts zeroed with the requested shape", func() {
			rows, cols := a.Shape()
			convey.So(rows, convey.ShouldEqual, 2)
			convey.So(cols, convey.ShouldEqual, 4)
			convey.So(a.Data, convey.ShouldHaveLength, 8)
		})

		convey.Convey("When setting an element", func() {
			a.Set(1, 2, 7.5)

			convey.Convey("Then At and Row observe it in row-major order", func() {
				convey.So(a.At(1, 2), convey.ShouldEqual, float32(7.5))
				convey.So(a.Data[6], convey.ShouldEqual, float32(7.5))
				convey.So(a.Row(1), convey.ShouldResemble, []float32{0, 0, 7.5, 0})
				convey.So(a.Row(0), convey.ShouldResemble, []float32{0, 0, 0, 0})
			})
		})
	})
}

func TestBatchReport(t *testing.T) {
	convey.Convey("Given a batch report with mixed results", t, func() {
		report := model.BatchReport{Results: []model.FileResult{
			{Job: model.FileJob{Index: 0}},
			{Job: model.FileJob{Index: 1}, Err: errors.New("boom")},
			{Job: model.FileJob{Index: 2}},
		}}

		convey.Convey("Then it counts successes and failures", func() {
			convey.So(report.Succeeded(), convey.ShouldEqual, 2)
			convey.So(report.Failed(), convey.ShouldEqual, 1)
			convey.So(report.Results[1].OK(), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given truncation stats", t, func() {
		s := model.TruncationStats{Events: 1, Particles: 2}
		s.Add(model.TruncationStats{Events: 2, Particles: 5})

		convey.Convey("Then Add accumulates both counters", func() {
			convey.So(s, convey.ShouldResemble, model.TruncationStats{Events: 3, Particles: 7})
		})
	})
}
