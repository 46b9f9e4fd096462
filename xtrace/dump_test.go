package xtrace

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtrace/objrt"
)

var _ = Describe("DumpClass", func() {
	var (
		world  *widgetWorld
		tracer *Tracer
	)

	BeforeEach(func() {
		world = newWidgetWorld()
		tracer = world.newTracer(new(bytes.Buffer))
	})

	It("should list the chain, properties and methods", func() {
		dump := tracer.Dump(world.view)

		Expect(dump).To(HavePrefix("View : Responder\n"))
		Expect(dump).To(ContainSubstring("  properties:\n    title @\n"))
		Expect(dump).To(MatchRegexp(`(?m)^    layout\s+v@:\s+-$`))
		Expect(dump).NotTo(ContainSubstring("state:"))
	})

	It("should show interception state", func() {
		tracer.TraceClass(world.widget)
		objrt.Send(world.widget.New(), "area")

		dump := tracer.Dump(world.widget)
		Expect(dump).To(HavePrefix("Widget : View : Responder\n  state: traced\n"))
		Expect(dump).To(MatchRegexp(`(?m)^    area\s+i@:\s+intercepted calls=1 `))
		Expect(dump).To(MatchRegexp(`(?m)^    broken\s+v@:%\s+-$`))

		tracer.DontTrace(world.widget)

		dump = tracer.Dump(world.widget)
		Expect(dump).NotTo(ContainSubstring("state:"))
		Expect(dump).To(MatchRegexp(`(?m)^    area\s+i@:\s+restored calls=1 `))

		tracer.NotraceClass(world.widget)

		dump = tracer.Dump(world.widget)
		Expect(dump).To(ContainSubstring("  state: excluded\n"))
	})
})
