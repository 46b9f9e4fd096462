package monitoring

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/xtrace"
)

func noop(_ *objrt.Object, _ objrt.Selector, _ ...any) any { return nil }

var _ = Describe("Monitor", func() {
	var (
		rt      *objrt.Runtime
		view    *objrt.Class
		widget  *objrt.Class
		tracer  *xtrace.Tracer
		m       *Monitor
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	post := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec
	}

	BeforeEach(func() {
		rt = objrt.NewRuntime()
		view = rt.DefineClass("View", nil)
		view.AddProperty("title", "@")
		view.AddMethod("layout", objrt.Types("v"), noop)
		widget = rt.DefineClass("Widget", view)
		widget.AddMethod("resize", objrt.Types("v", "i", "i"), noop,
			"width", "height")
		widget.AddMethod("area", objrt.Types("i"),
			func(_ *objrt.Object, _ objrt.Selector, _ ...any) any {
				return 6
			})

		tracer = xtrace.MakeBuilder().
			WithRuntime(rt).
			WithOutput(new(bytes.Buffer)).
			Build()

		m = NewMonitor()
		m.RegisterTracer(tracer)
		m.RegisterRuntime(rt)
		handler = m.Handler()
	})

	It("should replace reserved port numbers", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(BeZero())
		Expect(NewMonitor().WithPortNumber(32776).portNumber).
			To(Equal(32776))
	})

	It("should refuse to start without a tracer", func() {
		Expect(func() { NewMonitor().StartServer() }).To(Panic())
	})

	It("should list classes", func() {
		rec := get("/api/classes")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["View","Widget"]`))
	})

	It("should describe a class", func() {
		tracer.TraceClass(widget)

		rec := get("/api/class/Widget")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("resize"))
	})

	It("should return 404 for unknown classes", func() {
		Expect(get("/api/class/Gadget").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/dump/Gadget").Code).To(Equal(http.StatusNotFound))
		Expect(post("/api/trace/Gadget").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/" + url.PathEscape("{"))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should dump a class", func() {
		rec := get("/api/dump/View")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("View\n"))
		Expect(rec.Body.String()).To(ContainSubstring("title @"))
	})

	It("should trace and stop tracing classes", func() {
		Expect(post("/api/trace/Widget").Code).To(Equal(http.StatusOK))

		state, ok := tracer.ClassState(widget)
		Expect(ok).To(BeTrue())
		Expect(state.Excluded).To(BeFalse())

		Expect(post("/api/donttrace/Widget").Code).To(Equal(http.StatusOK))

		_, ok = tracer.ClassState(widget)
		Expect(ok).To(BeFalse())
	})

	It("should make classes avoided", func() {
		Expect(post("/api/notrace/Widget").Code).To(Equal(http.StatusOK))

		state, ok := tracer.ClassState(widget)
		Expect(ok).To(BeTrue())
		Expect(state.Excluded).To(BeTrue())

		Expect(post("/api/notrace/Gadget").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should report an intercepted method", func() {
		tracer.TraceClass(widget)
		objrt.Send(widget.New(), "resize", 2, 3)

		rec := get("/api/info/Widget/resize")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp infoRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Class).To(Equal("Widget"))
		Expect(rsp.TypeEncoding).To(Equal("v@:ii"))
		Expect(rsp.Args).To(Equal([]argRsp{
			{Name: "width", Type: "i", Offset: 16},
			{Name: "height", Type: "i", Offset: 20},
		}))
		Expect(rsp.Installed).To(BeTrue())
		Expect(rsp.Calls).To(Equal(uint64(1)))

		Expect(get("/api/info/Widget/fly").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should list records by calls", func() {
		tracer.TraceClass(widget)
		w := widget.New()
		objrt.Send(w, "area")
		objrt.Send(w, "area")
		objrt.Send(w, "layout")

		rec := get("/api/stats?sort=calls&limit=2")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp []infoRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].Selector).To(Equal("area"))
		Expect(rsp[0].Calls).To(Equal(uint64(2)))
		Expect(rsp[1].Selector).To(Equal("layout"))
	})

	It("should reject bad stats parameters", func() {
		Expect(get("/api/stats?sort=size").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/stats?limit=x").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/stats?offset=-1").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should clamp the stats window", func() {
		tracer.TraceClass(widget)

		infos := tracer.Infos()
		Expect(sortAndSelectInfos(infos, "elapsed", 0, 0)).
			To(HaveLen(len(infos)))
		Expect(sortAndSelectInfos(infos, "average", 5, 100)).To(BeEmpty())
		Expect(sortAndSelectInfos(infos, "calls", 1, 1)).To(HaveLen(1))
		Expect(sortAndSelectInfos(infos, "calls", math.MaxInt, 1)).
			To(HaveLen(len(infos) - 1))
	})

	It("should serve a window with a huge limit", func() {
		tracer.TraceClass(widget)

		rec := get("/api/stats?limit=9223372036854775807&offset=1")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp []infoRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(len(tracer.Infos()) - 1))
	})

	It("should report resource usage", func() {
		rec := get("/api/resource")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the web page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})
})
