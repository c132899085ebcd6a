package runguard_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	runguard "github.com/pitchside/tally/internal/domain/runguard"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGuard(t *testing.T) {
	Convey("Given an empty run guard", t, func() {
		guard := runguard.NewInMemoryGuard()
		ctx := context.Background()

		Convey("When acquiring a free slot", func() {
			ok := guard.Acquire(ctx, "morning", "2026-02-25")

			Convey("Then the claim should succeed", func() {
				So(ok, ShouldBeTrue)
				So(guard.InFlight(), ShouldEqual, 1)
			})

			Convey("And a duplicate trigger should be rejected", func() {
				So(guard.Acquire(ctx, "morning", "2026-02-25"), ShouldBeFalse)
				So(guard.InFlight(), ShouldEqual, 1)
			})

			Convey("And releasing should free it for the next trigger", func() {
				guard.Release(ctx, "morning", "2026-02-25")
				So(guard.InFlight(), ShouldEqual, 0)
				So(guard.Acquire(ctx, "morning", "2026-02-25"), ShouldBeTrue)
			})
		})

		Convey("When acquiring across modes and dates", func() {
			So(guard.Acquire(ctx, "morning", "2026-02-25"), ShouldBeTrue)

			Convey("Then the evening run for the same date should be independent", func() {
				So(guard.Acquire(ctx, "evening", "2026-02-25"), ShouldBeTrue)
				So(guard.InFlight(), ShouldEqual, 2)
			})

			Convey("And the same mode on another date should be independent", func() {
				So(guard.Acquire(ctx, "morning", "2026-02-26"), ShouldBeTrue)
				So(guard.InFlight(), ShouldEqual, 2)
			})
		})

		Convey("When releasing a slot that was never held", func() {
			guard.Release(ctx, "evening", "2026-02-25")

			Convey("Then nothing should change", func() {
				So(guard.InFlight(), ShouldEqual, 0)
			})
		})
	})
}

func TestGuardConcurrency(t *testing.T) {
	Convey("Given concurrent triggers for the same run", t, func() {
		guard := runguard.NewInMemoryGuard()
		ctx := context.Background()

		const triggers = 50
		var wins atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < triggers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if guard.Acquire(ctx, "evening", "2026-02-25") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one trigger should win the slot", func() {
			So(wins.Load(), ShouldEqual, 1)
			So(guard.InFlight(), ShouldEqual, 1)
		})
	})

	Convey("Given concurrent acquire and release cycles", t, func() {
		guard := runguard.NewInMemoryGuard()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					if guard.Acquire(ctx, "morning", "2026-02-25") {
						guard.Release(ctx, "morning", "2026-02-25")
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then the guard should end up empty", func() {
			So(guard.InFlight(), ShouldEqual, 0)
		})
	})
}
