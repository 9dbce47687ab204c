package eventlog

import (
	"strconv"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/oscrouter/internal/domain/model"
)

func event(i int) model.Event {
	return model.Event{ID: strconv.Itoa(i), Timestamp: time.Now(), Outcome: model.OutcomeForwarded}
}

func TestLog(t *testing.T) {
	Convey("Given an event log with the default capacity", t, func() {
		l := New()

		Convey("When it is empty", func() {
			Convey("Then the snapshot is empty", func() {
				So(l.Len(), ShouldEqual, 0)
				So(l.Snapshot(), ShouldBeEmpty)
				So(l.Capacity(), ShouldEqual, 100)
			})
		})

		Convey("When 150 events are appended", func() {
			for i := 0; i < 150; i++ {
				l.Append(event(i))
			}
			snap := l.Snapshot()

			Convey("Then only the newest 100 remain, newest first", func() {
				So(len(snap), ShouldEqual, 100)
				So(snap[0].ID, ShouldEqual, "149")
				So(snap[99].ID, ShouldEqual, "50")
				for i := 0; i < 100; i++ {
					So(snap[i].ID, ShouldEqual, strconv.Itoa(149-i))
				}
			})

			Convey("Then Recent trims to the limit", func() {
				recent := l.Recent(3)
				So(len(recent), ShouldEqual, 3)
				So(recent[2].ID, ShouldEqual, "147")
				So(len(l.Recent(0)), ShouldEqual, 100)
			})

			Convey("Then clearing empties the log", func() {
				l.Clear()
				So(l.Len(), ShouldEqual, 0)
				So(l.Snapshot(), ShouldBeEmpty)

				l.Append(event(7))
				So(l.Snapshot()[0].ID, ShouldEqual, "7")
			})
		})

		Convey("When a snapshot is modified", func() {
			l.Append(event(1))
			snap := l.Snapshot()
			snap[0].ID = "changed"

			Convey("Then the log keeps its own copy", func() {
				So(l.Snapshot()[0].ID, ShouldEqual, "1")
			})
		})
	})

	Convey("Given a small log", t, func() {
		l := New(WithCapacity(3))
		for i := 0; i < 4; i++ {
			l.Append(event(i))
		}

		Convey("Then the oldest entry was evicted", func() {
			snap := l.Snapshot()
			So(len(snap), ShouldEqual, 3)
			So(snap[0].ID, ShouldEqual, "3")
			So(snap[2].ID, ShouldEqual, "1")
		})
	})
}

func TestLog_Subscribe(t *testing.T) {
	Convey("Given two subscribers", t, func() {
		l := New(WithSubscriberBuffer(2))
		a, cancelA := l.Subscribe()
		b, cancelB := l.Subscribe()
		defer cancelB()

		Convey("When an event is appended and the log cleared", func() {
			l.Append(event(1))
			l.Clear()

			Convey("Then both receive both notices in order", func() {
				for _, ch := range []<-chan Notice{a, b} {
					n := <-ch
					So(n.Kind, ShouldEqual, NoticeEvent)
					So(n.Event.ID, ShouldEqual, "1")
					n = <-ch
					So(n.Kind, ShouldEqual, NoticeCleared)
					So(n.Event, ShouldBeNil)
				}
			})
		})

		Convey("When a subscriber falls behind", func() {
			for i := 0; i < 5; i++ {
				l.Append(event(i))
			}

			Convey("Then extra notices are dropped instead of blocking", func() {
				So(l.Len(), ShouldEqual, 5)
				So(l.Dropped(), ShouldEqual, int64(6))
			})
		})

		Convey("When a subscriber cancels", func() {
			cancelA()
			cancelA()
			l.Append(event(2))

			Convey("Then its channel is closed and it is no longer counted", func() {
				_, ok := <-a
				So(ok, ShouldBeFalse)
				So(l.Subscribers(), ShouldEqual, 1)
			})
		})
	})
}

func TestLog_ConcurrentAppendAndRead(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				l.Append(event(base*1000 + j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				snap := l.Snapshot()
				if len(snap) > 100 {
					t.Errorf("snapshot exceeded capacity: %d", len(snap))
					return
				}
			}
		}()
	}
	wg.Wait()

	if l.Len() != 100 {
		t.Fatalf("expected 100 retained, got %d", l.Len())
	}
}
