// Package monitoring serves the state of a Tracer over HTTP, so that classes
// can be inspected and traced from a browser while the program runs.
package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sarchlab/xtrace/monitoring/web"
	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/xtrace"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a traced program into a server that allows external
// inspection and control of the tracer.
type Monitor struct {
	tracer     *xtrace.Tracer
	runtime    *objrt.Runtime
	portNumber int
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterTracer registers the tracer to be monitored.
func (m *Monitor) RegisterTracer(t *xtrace.Tracer) {
	m.tracer = t
}

// RegisterRuntime registers the runtime whose classes are listed.
func (m *Monitor) RegisterRuntime(rt *objrt.Runtime) {
	m.runtime = rt
}

// Handler returns the router serving the API and the web pages.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/classes", m.listClasses)
	r.HandleFunc("/api/class/{name}", m.listClassDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/dump/{name}", m.dumpClass)
	r.HandleFunc("/api/info/{class}/{selector}", m.methodInfo)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/trace/{name}", m.traceClass).Methods(http.MethodPost)
	r.HandleFunc("/api/donttrace/{name}", m.dontTraceClass).
		Methods(http.MethodPost)
	r.HandleFunc("/api/notrace/{name}", m.notraceClass).
		Methods(http.MethodPost)
	r.HandleFunc("/api/resource", m.listResources)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server with a custom port if
// wanted. It returns the URL the server listens on.
func (m *Monitor) StartServer() string {
	m.mustBeRegistered()

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring tracer with %s\n", url)

	handler := m.Handler()
	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) mustBeRegistered() {
	if m.tracer == nil {
		panic("tracer is not registered")
	}

	if m.runtime == nil {
		panic("runtime is not registered")
	}
}

func (m *Monitor) listClasses(w http.ResponseWriter, _ *http.Request) {
	classes := m.runtime.Classes()

	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name()
	}

	writeJSON(w, names)
}

type methodReport struct {
	Selector    string
	Types       string
	Intercepted bool
}

type classReport struct {
	Name       string
	Superclass string
	State      string
	Properties map[string]string
	Methods    []methodReport
}

func (m *Monitor) reportClass(c *objrt.Class) *classReport {
	rep := &classReport{
		Name:       c.Name(),
		State:      "untraced",
		Properties: make(map[string]string),
	}

	if super := c.Superclass(); super != nil {
		rep.Superclass = super.Name()
	}

	if s, ok := m.tracer.ClassState(c); ok {
		rep.State = "traced"
		if s.Excluded {
			rep.State = "excluded"
		}
	}

	for _, p := range c.Properties() {
		rep.Properties[p], _ = c.PropertyType(p)
	}

	for _, method := range c.Methods() {
		mr := methodReport{
			Selector: string(method.Selector()),
			Types:    method.Types(),
		}

		if info, ok := m.tracer.InfoFor(c, method.Selector()); ok {
			mr.Intercepted = info.Installed()
		}

		rep.Methods = append(rep.Methods, mr)
	}

	return rep
}

func (m *Monitor) listClassDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c := m.findClassOr404(w, name)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.reportClass(c))
	serializer.SetMaxDepth(3)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	ClassName string `json:"class_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	c := m.findClassOr404(w, req.ClassName)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.reportClass(c))
	serializer.SetMaxDepth(2)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) dumpClass(w http.ResponseWriter, r *http.Request) {
	c := m.findClassOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	err := m.tracer.DumpClass(w, c)
	dieOnErr(err)
}

type argRsp struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset"`
}

type infoRsp struct {
	Class        string   `json:"class"`
	Selector     string   `json:"selector"`
	TypeEncoding string   `json:"type_encoding"`
	ReturnType   string   `json:"return_type"`
	Args         []argRsp `json:"args"`
	Installed    bool     `json:"installed"`
	Interest     int      `json:"interest"`
	Depth        int      `json:"depth"`
	Calls        uint64   `json:"calls"`
	Elapsed      int64    `json:"elapsed"`
	Hooked       bool     `json:"hooked"`
}

func makeInfoRsp(info *xtrace.MethodInterceptInfo) infoRsp {
	s := info.Stats()

	rsp := infoRsp{
		Class:        info.Class().Name(),
		Selector:     info.Name(),
		TypeEncoding: info.TypeEncoding(),
		ReturnType:   info.ReturnType(),
		Args:         []argRsp{},
		Installed:    info.Installed(),
		Interest:     info.Interest(),
		Depth:        info.Depth(),
		Calls:        s.CallCount,
		Elapsed:      int64(s.Elapsed),
		Hooked: info.Before() != nil ||
			info.Replacement() != nil ||
			info.After() != nil,
	}

	for _, a := range info.Args() {
		rsp.Args = append(rsp.Args, argRsp{
			Name:   a.Name,
			Type:   a.Type,
			Offset: a.Offset,
		})
	}

	return rsp
}

func (m *Monitor) methodInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	c := m.findClassOr404(w, vars["class"])
	if c == nil {
		return
	}

	info, ok := m.tracer.InfoFor(c, objrt.Selector(vars["selector"]))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Method not intercepted"))
		dieOnErr(err)

		return
	}

	writeJSON(w, makeInfoRsp(info))
}

func (m *Monitor) listStats(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := statsParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	infos := sortAndSelectInfos(m.tracer.Infos(), sortMethod, limit, offset)

	rsp := make([]infoRsp, len(infos))
	for i, info := range infos {
		rsp[i] = makeInfoRsp(info)
	}

	writeJSON(w, rsp)
}

func statsParseParams(
	r *http.Request,
) (sortMethod string, limit, offset int, err error) {
	sortMethod = r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "calls"
	}
	if sortMethod != "calls" && sortMethod != "elapsed" &&
		sortMethod != "average" {
		errStr := fmt.Sprintf(
			"Invalid sort method: %s. "+
				"Allowed values are `calls`, `elapsed` and `average`",
			sortMethod)
		return "", 0, 0, errors.New(errStr)
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "0"
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}
	offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return sortMethod, limit, 0, err
	}

	if limit < 0 || offset < 0 {
		return sortMethod, limit, offset,
			errors.New("limit and offset must not be negative")
	}

	return sortMethod, limit, offset, nil
}

// sortAndSelectInfos orders records by the given key, busiest first, and
// returns the window [offset, offset+limit). A zero limit means no limit.
func sortAndSelectInfos(
	infos []*xtrace.MethodInterceptInfo,
	sortMethod string,
	limit, offset int,
) []*xtrace.MethodInterceptInfo {
	key := func(info *xtrace.MethodInterceptInfo) float64 {
		s := info.Stats()

		switch sortMethod {
		case "calls":
			return float64(s.CallCount)
		case "elapsed":
			return float64(s.Elapsed)
		case "average":
			return float64(s.Average())
		default:
			panic("Invalid sort method " + sortMethod)
		}
	}

	sorted := make([]*xtrace.MethodInterceptInfo, len(infos))
	copy(sorted, infos)

	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})

	if offset > len(sorted) {
		offset = len(sorted)
	}
	end := len(sorted)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	return sorted[offset:end]
}

func (m *Monitor) traceClass(w http.ResponseWriter, r *http.Request) {
	c := m.findClassOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	m.tracer.TraceClass(c)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) dontTraceClass(w http.ResponseWriter, r *http.Request) {
	c := m.findClassOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	m.tracer.DontTrace(c)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) notraceClass(w http.ResponseWriter, r *http.Request) {
	c := m.findClassOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	m.tracer.NotraceClass(c)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) findClassOr404(
	w http.ResponseWriter,
	name string,
) *objrt.Class {
	c := m.runtime.Class(name)
	if c == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Class not found"))
		dieOnErr(err)
	}

	return c
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
