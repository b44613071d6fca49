package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	invoked int
	lastCtx HookCtx
}

func (h *countingHook) Func(ctx HookCtx) {
	h.invoked++
	h.lastCtx = ctx
}

var _ = Describe("HookableBase", func() {
	var hookable *HookableBase

	BeforeEach(func() {
		hookable = &HookableBase{}
	})

	It("should register hooks", func() {
		hook1 := &countingHook{}
		hook2 := &countingHook{}

		hookable.AcceptHook(hook1)
		hookable.AcceptHook(hook2)

		Expect(hookable.NumHooks()).To(Equal(2))
		Expect(hookable.Hooks()).To(Equal([]Hook{hook1, hook2}))
	})

	It("should reject a hook registered twice", func() {
		hook := &countingHook{}
		hookable.AcceptHook(hook)

		Expect(func() {
			hookable.AcceptHook(hook)
		}).To(Panic())
	})

	It("should invoke every hook in registration order", func() {
		hook1 := &countingHook{}
		hook2 := &countingHook{}
		hookable.AcceptHook(hook1)
		hookable.AcceptHook(hook2)

		pos := &HookPos{Name: "SomewhereInteresting"}
		hookable.InvokeHook(HookCtx{Pos: pos, Item: 42})

		Expect(hook1.invoked).To(Equal(1))
		Expect(hook2.invoked).To(Equal(1))
		Expect(hook1.lastCtx.Pos).To(BeIdenticalTo(pos))
		Expect(hook1.lastCtx.Item).To(Equal(42))
	})
})
