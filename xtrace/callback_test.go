package xtrace

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtrace/objrt"
)

var _ = Describe("Hooks", func() {
	var (
		world  *widgetWorld
		out    *bytes.Buffer
		tracer *Tracer
		w      *objrt.Object
	)

	BeforeEach(func() {
		world = newWidgetWorld()
		out = new(bytes.Buffer)
		tracer = world.newTracer(out)
		w = world.widget.New()
	})

	It("should call the before hook ahead of the method", func() {
		var got []any
		err := tracer.Before(world.widget, "resize",
			func(self *objrt.Object, cmd objrt.Selector, args ...any) any {
				Expect(self).To(BeIdenticalTo(w))
				Expect(cmd).To(Equal(objrt.Selector("resize")))
				Expect(world.executed("resize")).To(BeZero())
				got = args
				return "ignored"
			})
		Expect(err).NotTo(HaveOccurred())

		Expect(objrt.Send(w, "resize", 2, 3)).To(BeNil())

		Expect(got).To(Equal([]any{2, 3}))
		Expect(world.executed("resize")).To(Equal(1))
		Expect(w.Get("area")).To(Equal(6))
	})

	It("should not log calls of untraced classes", func() {
		Expect(tracer.Before(world.widget, "area",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return nil
			})).To(Succeed())

		objrt.Send(w, "area")

		Expect(out.Len()).To(BeZero())
		info, _ := tracer.InfoFor(world.widget, "area")
		Expect(info.Installed()).To(BeTrue())
		Expect(info.Stats().CallCount).To(BeZero())
	})

	It("should use the replacement result", func() {
		Expect(tracer.Replace(world.widget, "area",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return 99
			})).To(Succeed())

		Expect(objrt.Send(w, "area")).To(Equal(99))
		Expect(world.executed("area")).To(BeZero())
	})

	It("should pass the result to the after hook", func() {
		var got []any
		Expect(tracer.After(world.widget, "area",
			func(_ *objrt.Object, _ objrt.Selector, args ...any) any {
				got = args
				return nil
			})).To(Succeed())
		w.Set("area", 42)

		Expect(objrt.Send(w, "area")).To(Equal(42))
		Expect(got).To(Equal([]any{42}))
	})

	It("should not let the after hook change the caller's arguments", func() {
		args := make([]any, 2, 8)
		args[0], args[1] = 4, 5

		var got []any
		Expect(tracer.After(world.widget, "resize",
			func(_ *objrt.Object, _ objrt.Selector, a ...any) any {
				got = a
				return nil
			})).To(Succeed())

		objrt.Send(w, "resize", args...)

		Expect(got).To(Equal([]any{4, 5, nil}))
		Expect(args[:cap(args)][2]).To(BeNil())
	})

	It("should run hooks and log when the class is traced", func() {
		calls := 0
		tracer.TraceClass(world.widget)
		Expect(tracer.Before(world.widget, "area",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				calls++
				return nil
			})).To(Succeed())

		objrt.Send(w, "area")

		Expect(calls).To(Equal(1))
		Expect(lines(out)).To(HaveLen(2))
	})

	It("should call the original when a hook sends the same message", func() {
		Expect(tracer.Before(world.widget, "resize",
			func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
				objrt.Send(self, "resize", 1, 1)
				return nil
			})).To(Succeed())

		objrt.Send(w, "resize", 2, 3)

		Expect(world.executed("resize")).To(Equal(2))
		Expect(w.Get("area")).To(Equal(6))

		info, _ := tracer.InfoFor(world.widget, "resize")
		Expect(info.CallingBack()).To(BeFalse())
	})

	It("should run hooks for other receivers while one is inside them", func() {
		inHook := make(chan struct{})
		proceed := make(chan struct{})
		Expect(tracer.Before(world.widget, "area",
			func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
				if self == w {
					close(inHook)
					<-proceed
				}
				return nil
			})).To(Succeed())
		Expect(tracer.Replace(world.widget, "area",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return 42
			})).To(Succeed())

		parked := make(chan any)
		go func() {
			defer GinkgoRecover()
			parked <- objrt.Send(w, "area")
		}()
		<-inHook

		info, _ := tracer.InfoFor(world.widget, "area")
		Expect(info.CallingBack()).To(BeTrue())
		Expect(objrt.Send(world.widget.New(), "area")).To(Equal(42))

		close(proceed)
		Expect(<-parked).To(Equal(42))
		Expect(info.CallingBack()).To(BeFalse())
		Expect(world.executed("area")).To(BeZero())
	})

	It("should reject classes of other runtimes", func() {
		elsewhere := newWidgetWorld()

		Expect(func() {
			_ = tracer.Before(elsewhere.widget, "area",
				func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
					return nil
				})
		}).To(Panic())
	})

	It("should reject unknown selectors", func() {
		err := tracer.Before(world.widget, "fly",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return nil
			})
		Expect(err).To(MatchError(ContainSubstring("does not respond")))
	})

	It("should reject methods with unreadable encodings", func() {
		err := tracer.Replace(world.widget, "broken",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return nil
			})
		Expect(err).To(HaveOccurred())
		Expect(world.widget.Method("broken").Implementation()).NotTo(BeNil())
	})

	It("should restore the original once the last hook is removed", func() {
		m := world.widget.Method("area")
		original := m.Implementation()
		hook := func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
			return 1
		}

		Expect(tracer.Replace(world.widget, "area", hook)).To(Succeed())
		Expect(tracer.After(world.widget, "area", hook)).To(Succeed())

		info, _ := tracer.InfoFor(world.widget, "area")
		Expect(info.Interest()).To(Equal(1))
		Expect(info.Replacement()).NotTo(BeNil())

		Expect(tracer.Replace(world.widget, "area", nil)).To(Succeed())
		Expect(m.Implementation()).To(BeIdenticalTo(info.Stub()))

		Expect(tracer.After(world.widget, "area", nil)).To(Succeed())
		Expect(m.Implementation()).To(BeIdenticalTo(original))
		Expect(info.Interest()).To(BeZero())
	})

	It("should keep tracing after hooks are removed", func() {
		tracer.TraceClass(world.widget)
		hook := func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
			return nil
		}

		Expect(tracer.Before(world.widget, "area", hook)).To(Succeed())
		Expect(tracer.Before(world.widget, "area", nil)).To(Succeed())

		info, _ := tracer.InfoFor(world.widget, "area")
		Expect(info.Installed()).To(BeTrue())
		Expect(info.Before()).To(BeNil())
	})

	It("should hook inherited methods on their defining class", func() {
		Expect(tracer.After(world.widget, "layout",
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return nil
			})).To(Succeed())

		info, ok := tracer.InfoFor(world.button, "layout")
		Expect(ok).To(BeTrue())
		Expect(info.Class()).To(BeIdenticalTo(world.view))
		Expect(info.After()).NotTo(BeNil())
	})
})
