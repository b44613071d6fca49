package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bookmark", func() {
	var bookmark Bookmark

	BeforeEach(func() {
		bookmark = Bookmark{}
	})

	It("should return the ticks to integrate", func() {
		Expect(bookmark.AdvanceTo(40, 100)).To(Equal(Duration(40)))
		Expect(bookmark.Time()).To(Equal(VirtualTime(40)))
		Expect(bookmark.AdvanceTo(100, 100)).To(Equal(Duration(60)))
	})

	It("should integrate nothing when advancing to itself", func() {
		bookmark.AdvanceTo(40, 100)

		Expect(bookmark.AdvanceTo(40, 100)).To(Equal(Duration(0)))
		Expect(bookmark.Time()).To(Equal(VirtualTime(40)))
	})

	It("should panic when syncing ahead of the cursor", func() {
		Expect(func() {
			bookmark.AdvanceTo(101, 100)
		}).To(Panic())
	})

	It("should panic when syncing behind the bookmark", func() {
		bookmark.AdvanceTo(40, 100)

		Expect(func() {
			bookmark.AdvanceTo(30, 100)
		}).To(Panic())
	})

	It("should reset without integration", func() {
		bookmark.AdvanceTo(40, 100)
		bookmark.Reset(90)

		Expect(bookmark.Time()).To(Equal(VirtualTime(90)))
	})
})
