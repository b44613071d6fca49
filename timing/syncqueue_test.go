package timing

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("syncQueue", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *syncQueue
		owner    *MockSchedulable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = &syncQueue{}
		owner = NewMockSchedulable(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in time order", func() {
		numPoints := 100
		for i := 0; i < numPoints; i++ {
			queue.Insert(syncPoint{
				time:  VirtualTime(rand.Uint64() % 1000),
				owner: owner,
				tag:   i,
				seq:   uint64(i),
			})
		}

		prev := Zero
		for i := 0; i < numPoints; i++ {
			p := queue.PopFront()
			Expect(p.time >= prev).To(BeTrue())
			prev = p.time
		}
	})

	It("should keep registration order at equal times", func() {
		queue.Insert(syncPoint{time: 50, owner: owner, tag: 2, seq: 7})
		queue.Insert(syncPoint{time: 50, owner: owner, tag: 1, seq: 8})
		queue.Insert(syncPoint{time: 50, owner: owner, tag: 3, seq: 9})

		Expect(queue.PopFront().tag).To(Equal(2))
		Expect(queue.PopFront().tag).To(Equal(1))
		Expect(queue.PopFront().tag).To(Equal(3))
	})

	It("should remove by owner and tag", func() {
		other := NewMockSchedulable(mockCtrl)

		queue.Insert(syncPoint{time: 10, owner: owner, tag: 0, seq: 0})
		queue.Insert(syncPoint{time: 20, owner: other, tag: 0, seq: 1})

		Expect(queue.Remove(owner, 0)).To(BeTrue())
		Expect(queue.Remove(owner, 0)).To(BeFalse())
		Expect(queue.Contains(other, 0)).To(BeTrue())
		Expect(queue.Len()).To(Equal(1))
	})

	It("should remove everything one owner holds", func() {
		other := NewMockSchedulable(mockCtrl)

		queue.Insert(syncPoint{time: 10, owner: owner, tag: 0, seq: 0})
		queue.Insert(syncPoint{time: 20, owner: owner, tag: 1, seq: 1})
		queue.Insert(syncPoint{time: 30, owner: other, tag: 0, seq: 2})

		queue.RemoveAll(owner)

		Expect(queue.Len()).To(Equal(1))
		Expect(queue.Front().owner).To(BeIdenticalTo(other))
	})

	It("should list distinct owners in queue order", func() {
		other := NewMockSchedulable(mockCtrl)

		queue.Insert(syncPoint{time: 10, owner: owner, tag: 0, seq: 0})
		queue.Insert(syncPoint{time: 20, owner: other, tag: 0, seq: 1})
		queue.Insert(syncPoint{time: 30, owner: owner, tag: 1, seq: 2})

		owners := queue.Owners()

		Expect(owners).To(HaveLen(2))
		Expect(owners[0]).To(BeIdenticalTo(owner))
		Expect(owners[1]).To(BeIdenticalTo(other))
	})
})
