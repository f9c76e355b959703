package rootio

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValueConversion(t *testing.T) {
	Convey("Given branch values of different types", t, func() {
		Convey("Then scalars convert to float32", func() {
			i16, u64, b, f64 := int16(-3), uint64(7), true, 2.5
			for in, want := range map[any]float32{&i16: -3, &u64: 7, &b: 1, &f64: 2.5} {
				got, err := scalar(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("Then lists convert element-wise into a fresh slice", func() {
			src := []float32{1, 2}
			got, err := list(&src)
			So(err, ShouldBeNil)
			src[0] = 9
			So(got, ShouldResemble, []float32{1, 2})

			flags := []bool{true, false}
			got, err = list(&flags)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []float32{1, 0})

			arr := [3]int32{4, 5, 6}
			got, err = list(&arr)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []float32{4, 5, 6})
		})

		Convey("Then non-numeric values are rejected", func() {
			s := "x"
			_, err := scalar(&s)
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)

			names := []string{"a"}
			_, err = list(&names)
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)

			v := float32(1)
			_, err = list(&v)
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)
		})
	})
}
