package xtrace

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtrace/objrt"
)

var _ = Describe("JSONDelegate", func() {
	var (
		world  *widgetWorld
		out    *bytes.Buffer
		tracer *Tracer
		d      *JSONDelegate
	)

	BeforeEach(func() {
		world = newWidgetWorld()
		out = new(bytes.Buffer)
		tracer = world.newTracer(new(bytes.Buffer))
		d = NewJSONDelegate(out)
		tracer.SetDelegate(d)
	})

	It("should write an empty array without calls", func() {
		d.Finish()

		var records []CallRecord
		Expect(json.Unmarshal(out.Bytes(), &records)).To(Succeed())
		Expect(records).To(BeEmpty())
	})

	It("should write completed calls", func() {
		tracer.TraceClass(world.widget)
		w := world.widget.New()

		objrt.Send(w, "resize", 3, 4)
		Expect(objrt.Send(w, "area")).To(Equal(12))
		Expect(func() { objrt.Send(w, "fail") }).To(Panic())
		d.Finish()
		d.Finish()

		var records []CallRecord
		Expect(json.Unmarshal(out.Bytes(), &records)).To(Succeed())
		Expect(records).To(HaveLen(3))

		Expect(records[0].ID).To(Equal("1"))
		Expect(records[0].Selector).To(Equal("resize"))
		Expect(records[0].Args).To(Equal([]string{"3", "4"}))
		Expect(records[0].Return).To(BeNil())
		Expect(records[0].Receiver).To(Equal(uint64(w.ID())))

		Expect(records[1].Return).NotTo(BeNil())
		Expect(*records[1].Return).To(Equal("12"))

		Expect(records[2].Selector).To(Equal("fail"))
		Expect(records[2].Panicked).To(BeTrue())
	})

	It("should drop calls exiting after finish", func() {
		d.MethodEntered(CallEvent{ID: "a", Class: "Widget", Selector: "area"})
		d.Finish()
		d.MethodExited(CallEvent{ID: "a", Class: "Widget", Selector: "area"})

		Expect(out.String()).To(Equal("[\n\n]\n"))
	})
})
