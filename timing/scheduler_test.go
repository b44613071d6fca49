package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl  *gomock.Controller
		scheduler *Scheduler
		devA      *MockSchedulable
		devB      *MockSchedulable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		scheduler = NewScheduler()

		devA = NewMockSchedulable(mockCtrl)
		devA.EXPECT().Name().Return("DeviceA").AnyTimes()
		devB = NewMockSchedulable(mockCtrl)
		devB.EXPECT().Name().Return("DeviceB").AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start at time zero with nothing pending", func() {
		Expect(scheduler.Now()).To(Equal(Zero))
		Expect(scheduler.NextTime()).To(Equal(Infinity))
	})

	It("should fire sync points in increasing time order", func() {
		fire50 := devA.EXPECT().ExecuteUntil(VirtualTime(50), 0)
		fire100 := devB.EXPECT().ExecuteUntil(VirtualTime(100), 0).
			After(fire50)
		devA.EXPECT().ExecuteUntil(VirtualTime(150), 1).After(fire100)

		scheduler.SetSyncPoint(devA, 150, 1)
		scheduler.SetSyncPoint(devB, 100, 0)
		scheduler.SetSyncPoint(devA, 50, 0)

		scheduler.ScheduleUpTo(200)

		Expect(scheduler.Now()).To(Equal(VirtualTime(200)))
		Expect(scheduler.NextTime()).To(Equal(Infinity))
	})

	It("should break same-time ties by registration order", func() {
		fireA := devA.EXPECT().ExecuteUntil(VirtualTime(70), 0)
		devB.EXPECT().ExecuteUntil(VirtualTime(70), 0).After(fireA)

		scheduler.SetSyncPoint(devA, 70, 0)
		scheduler.SetSyncPoint(devB, 70, 0)

		scheduler.ScheduleUpTo(70)
	})

	It("should replace, not accumulate, sync points for the same tag", func() {
		devA.EXPECT().ExecuteUntil(VirtualTime(80), 5)

		scheduler.SetSyncPoint(devA, 40, 5)
		scheduler.SetSyncPoint(devA, 80, 5)

		Expect(scheduler.NextTime()).To(Equal(VirtualTime(80)))

		scheduler.ScheduleUpTo(200)
	})

	It("should not fire a removed sync point", func() {
		scheduler.SetSyncPoint(devA, 40, 0)
		scheduler.RemoveSyncPoint(devA, 0)

		Expect(scheduler.PendingSyncPoint(devA, 0)).To(BeFalse())

		scheduler.ScheduleUpTo(200)
	})

	It("should treat removing an absent tag as a no-op", func() {
		scheduler.RemoveSyncPoint(devA, 3)
		scheduler.RemoveSyncPoints(devB)

		Expect(scheduler.PendingSyncPoint(devA, 3)).To(BeFalse())
	})

	It("should remove all sync points of one owner", func() {
		devB.EXPECT().ExecuteUntil(VirtualTime(60), 0)

		scheduler.SetSyncPoint(devA, 40, 0)
		scheduler.SetSyncPoint(devA, 50, 1)
		scheduler.SetSyncPoint(devB, 60, 0)

		scheduler.RemoveSyncPoints(devA)

		Expect(scheduler.PendingSyncPoint(devA, 0)).To(BeFalse())
		Expect(scheduler.PendingSyncPoint(devA, 1)).To(BeFalse())
		Expect(scheduler.PendingSyncPoint(devB, 0)).To(BeTrue())

		scheduler.ScheduleUpTo(200)
	})

	It("should fire reentrantly registered sync points in the same drain",
		func() {
			fireA := devA.EXPECT().ExecuteUntil(VirtualTime(50), 0).
				Do(func(t VirtualTime, tag int) {
					scheduler.SetSyncPoint(devB, 120, 0)
				})
			devB.EXPECT().ExecuteUntil(VirtualTime(120), 0).After(fireA)

			scheduler.SetSyncPoint(devA, 50, 0)

			scheduler.ScheduleUpTo(200)

			Expect(scheduler.NextTime()).To(Equal(Infinity))
		})

	It("should let a callback re-register its own tag", func() {
		first := devA.EXPECT().ExecuteUntil(VirtualTime(50), 0).
			Do(func(t VirtualTime, tag int) {
				scheduler.SetSyncPoint(devA, t.Add(50), 0)
			})
		devA.EXPECT().ExecuteUntil(VirtualTime(100), 0).After(first)

		scheduler.SetSyncPoint(devA, 50, 0)

		scheduler.ScheduleUpTo(100)
	})

	It("should fire a sync point registered at the cursor", func() {
		devA.EXPECT().ExecuteUntil(VirtualTime(30), 0).
			Do(func(t VirtualTime, tag int) {
				scheduler.SetSyncPoint(devB, t, 0)
			})
		devB.EXPECT().ExecuteUntil(VirtualTime(30), 0)

		scheduler.SetSyncPoint(devA, 30, 0)

		scheduler.ScheduleUpTo(100)
	})

	It("should advance the cursor to each fired time", func() {
		devA.EXPECT().ExecuteUntil(VirtualTime(50), 0).
			Do(func(t VirtualTime, tag int) {
				Expect(scheduler.Now()).To(Equal(VirtualTime(50)))
			})

		scheduler.SetSyncPoint(devA, 50, 0)

		scheduler.ScheduleUpTo(200)
	})

	It("should advance the cursor even when nothing fires", func() {
		scheduler.ScheduleUpTo(12345)

		Expect(scheduler.Now()).To(Equal(VirtualTime(12345)))
	})

	It("should not fire sync points beyond the drain target", func() {
		scheduler.SetSyncPoint(devA, 300, 0)

		scheduler.ScheduleUpTo(200)

		Expect(scheduler.Now()).To(Equal(VirtualTime(200)))
		Expect(scheduler.NextTime()).To(Equal(VirtualTime(300)))
		Expect(scheduler.PendingSyncPoint(devA, 0)).To(BeTrue())

		devA.EXPECT().ExecuteUntil(VirtualTime(300), 0)
		scheduler.ScheduleUpTo(300)
	})

	It("should panic when scheduling before the cursor", func() {
		scheduler.ScheduleUpTo(100)

		Expect(func() {
			scheduler.SetSyncPoint(devA, 50, 0)
		}).To(Panic())
	})

	It("should panic when scheduling at infinity", func() {
		Expect(func() {
			scheduler.SetSyncPoint(devA, Infinity, 0)
		}).To(Panic())
	})

	It("should panic when draining backwards", func() {
		scheduler.ScheduleUpTo(100)

		Expect(func() {
			scheduler.ScheduleUpTo(50)
		}).To(Panic())
	})

	It("should notify owners on teardown", func() {
		devA.EXPECT().SchedulerDeleted().Do(func() {
			scheduler.RemoveSyncPoints(devA)
		})
		devB.EXPECT().SchedulerDeleted().Do(func() {
			scheduler.RemoveSyncPoints(devB)
		})

		scheduler.SetSyncPoint(devA, 50, 0)
		scheduler.SetSyncPoint(devA, 60, 1)
		scheduler.SetSyncPoint(devB, 70, 0)

		scheduler.Delete()
	})

	It("should panic when an owner stays registered after teardown", func() {
		devA.EXPECT().SchedulerDeleted()

		scheduler.SetSyncPoint(devA, 50, 0)

		Expect(func() {
			scheduler.Delete()
		}).To(Panic())
	})
})
