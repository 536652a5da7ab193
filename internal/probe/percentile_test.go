package probe

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPercentile(t *testing.T) {
	Convey("Given ten sorted samples", t, func() {
		samples := make([]time.Duration, 10)
		for i := range samples {
			samples[i] = time.Duration(i+1) * time.Millisecond
		}

		Convey("Then nearest-rank percentiles are returned", func() {
			So(percentile(samples, 50), ShouldEqual, 5*time.Millisecond)
			So(percentile(samples, 90), ShouldEqual, 9*time.Millisecond)
			So(percentile(samples, 99), ShouldEqual, 10*time.Millisecond)
		})

		Convey("Then an empty sample set yields zero", func() {
			So(percentile(nil, 50), ShouldEqual, time.Duration(0))
		})
	})
}
