package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/oscrouter/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.OSCPort, convey.ShouldEqual, 57121)
				convey.So(cfg.Autostart, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("OSCROUTER_ADDR", ":8080")
			_ = os.Setenv("OSCROUTER_OSC_PORT", "57200")
			_ = os.Setenv("OSCROUTER_WORKER_COUNT", "2")
			_ = os.Setenv("OSCROUTER_AUTOSTART", "false")
			_ = os.Setenv("OSCROUTER_ROUTES__PLINKO", "10.0.0.5")
			_ = os.Setenv("OSCROUTER_CORRELATED_STATIONS", "mastermind,quiz")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OSCPort, convey.ShouldEqual, 57200)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.Autostart, convey.ShouldBeFalse)
				convey.So(cfg.Routes["plinko"], convey.ShouldEqual, "10.0.0.5")
				convey.So(cfg.Routes["banana"], convey.ShouldEqual, "192.168.1.142:58008")
				convey.So(cfg.CorrelatedStations, convey.ShouldResemble, []string{"mastermind", "quiz"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
# venue overrides
addr: ":9090"
osc_port: 57122
event_log_size: 250
routes:
  plinko: "10.0.0.5:58008"
  newhole: "10.0.0.77"
`)
			_ = os.Setenv("OSCROUTER_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.OSCPort, convey.ShouldEqual, 57122)
				convey.So(cfg.EventLogSize, convey.ShouldEqual, 250)
				convey.So(cfg.Routes["plinko"], convey.ShouldEqual, "10.0.0.5:58008")
				convey.So(cfg.Routes["newhole"], convey.ShouldEqual, "10.0.0.77")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			})

			convey.Convey("Then environment variables override file values", func() {
				_ = os.Setenv("OSCROUTER_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.OSCPort, convey.ShouldEqual, 57122)
			})
		})

		convey.Convey("When the YAML file names a station in mixed case", func() {
			tmpFile := createTempConfigFile(t, `
routes:
  Plinko: "10.0.0.7"
  SkiJump: "10.0.0.8:58010"
`)
			_ = os.Setenv("OSCROUTER_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it replaces the default route for that station", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Routes["plinko"], convey.ShouldEqual, "10.0.0.7")
				convey.So(cfg.Routes["skijump"], convey.ShouldEqual, "10.0.0.8:58010")
				convey.So(cfg.Routes, convey.ShouldNotContainKey, "Plinko")

				eps, err := cfg.Endpoints()
				convey.So(err, convey.ShouldBeNil)
				convey.So(eps["plinko"].Host, convey.ShouldEqual, "10.0.0.7")
			})

			convey.Convey("Then an env var for the same station wins", func() {
				_ = os.Setenv("OSCROUTER_ROUTES__PLINKO", "10.0.0.9")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Routes["plinko"], convey.ShouldEqual, "10.0.0.9")
			})
		})

		convey.Convey("When a .env file is present", func() {
			dotenv := filepath.Join(t.TempDir(), "router.env")
			convey.So(os.WriteFile(dotenv, []byte("OSCROUTER_OSC_PORT=57300\nOSCROUTER_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("OSCROUTER_ENV_FILE", dotenv)
			_ = os.Setenv("OSCROUTER_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills gaps without overriding the real environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OSCPort, convey.ShouldEqual, 57300)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When the named .env file is missing", func() {
			_ = os.Setenv("OSCROUTER_ENV_FILE", "/non/existent/.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("OSCROUTER_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("OSCROUTER_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("OSCROUTER_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("OSCROUTER_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a configured route is malformed", func() {
			_ = os.Setenv("OSCROUTER_ROUTES__PLINKO", "bad host!")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "OSCROUTER_") {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oscrouter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
