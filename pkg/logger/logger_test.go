package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "datagram forwarded",
				String("station", "plinko"),
				Int("bytes", 20),
				Bool("paired", false),
				Duration("took", time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries every field and a source location", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "datagram forwarded")
				So(out, ShouldContainSubstring, "station=plinko")
				So(out, ShouldContainSubstring, "bytes=20")
				So(out, ShouldContainSubstring, "paired=false")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging through a named logger", func() {
			Named("router").With(String("port", "57121")).Warn(ctx, "already running")

			Convey("Then the component and bound fields are included", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=router")
				So(out, ShouldContainSubstring, "port=57121")
				So(out, ShouldContainSubstring, "level=WARN")
			})
		})

		Convey("When the level is raised above debug", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "hidden too")

			Convey("Then lower records are dropped", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		Convey("When an unknown level is requested", func() {
			err := SetLevelString("verbose")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDiscard(t *testing.T) {
	Convey("Given a discard logger", t, func() {
		l := Discard()

		Convey("Then logging does not panic", func() {
			So(func() { l.Error(context.Background(), "nothing") }, ShouldNotPanic)
			So(l.Named("x"), ShouldNotBeNil)
		})
	})
}
