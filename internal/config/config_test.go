package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/askdesk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.StorePath, convey.ShouldEqual, "askdesk.db")
			convey.So(cfg.SeedOnEmpty, convey.ShouldBeTrue)
			convey.So(cfg.ScoringWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.LogQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.LogWorkers, convey.ShouldEqual, 2)
			convey.So(cfg.LogWriteTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.RecentLimit, convey.ShouldEqual, 10)
			convey.So(cfg.TopEntriesLimit, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the driver is unknown", func() {
			cfg.StoreDriver = "postgres"
			err := cfg.Validate()

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "postgres")
			})
		})

		convey.Convey("When the memory driver has no path", func() {
			cfg.StoreDriver = config.DriverMemory
			cfg.StorePath = ""

			convey.Convey("Then it is still valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sqlite driver has no path", func() {
			cfg.StorePath = " "

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a limit is zero", func() {
			cfg.LogWorkers = 0

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
