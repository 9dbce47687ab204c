package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/oscrouter/internal/config"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.OSCPort, convey.ShouldEqual, 57121)
			convey.So(cfg.DefaultDestPort, convey.ShouldEqual, 58008)
			convey.So(cfg.EventLogSize, convey.ShouldEqual, 100)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.RestartDelay(), convey.ShouldEqual, time.Second)
			convey.So(cfg.CorrelatedStations, convey.ShouldResemble, []string{"mastermind"})
			convey.So(len(cfg.Routes), convey.ShouldEqual, 12)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the seeded routes parse", func() {
			eps, err := cfg.Endpoints()
			convey.So(err, convey.ShouldBeNil)
			convey.So(eps["mastermind"], convey.ShouldResemble, model.Endpoint{Host: "192.168.1.211", Port: 58008})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		convey.Convey("When a route is malformed", func() {
			cfg.Routes["plinko"] = "192.168.1.222:notaport"
			err := cfg.Validate()

			convey.Convey("Then validation names the route", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrInvalidEndpoint), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "plinko")
			})
		})

		convey.Convey("When a route omits the port", func() {
			cfg.Routes = map[string]string{"banana": "192.168.1.142"}
			cfg.DefaultDestPort = 59000
			eps, err := cfg.Endpoints()

			convey.Convey("Then the default destination port is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(eps["banana"].Port, convey.ShouldEqual, 59000)
			})
		})

		convey.Convey("When a route key is mixed case", func() {
			cfg.Routes = map[string]string{" Plinko": "10.0.0.5"}
			eps, err := cfg.Endpoints()

			convey.Convey("Then it is keyed by the normalized station", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(eps, convey.ShouldContainKey, "plinko")
				convey.So(eps["plinko"], convey.ShouldResemble, model.Endpoint{Host: "10.0.0.5", Port: model.DefaultStationPort})
			})
		})

		convey.Convey("When two keys name the same station", func() {
			cfg.Routes = map[string]string{"plinko": "10.0.0.5", "PLINKO": "10.0.0.6"}

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When numeric fields are out of range", func() {
			cfg.WorkerCount = 0
			cfg.OSCPort = 70000

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "chatty"

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
