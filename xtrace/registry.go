// Package xtrace intercepts messages sent to classes and objects of an objrt
// runtime and logs them.
//
// Tracing a class swaps a generic stub into the dispatch table in place of
// each eligible method. The stub logs the call, forwards it to the original
// implementation (or to registered hooks) and logs the return:
//
//	xtrace.TraceClass(widgetClass)
//	objrt.Send(widget, "resize:height:", 10, 20)
//	// Widget.resize:height:(10,20)
//	// Widget.resize:height: (3µs)
//
// Tracing an instance selects that object only, and a decision made for an
// instance always overrides the decision of its class.
package xtrace

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/xtrace/filter"
	"github.com/sarchlab/xtrace/idgen"
	"github.com/sarchlab/xtrace/inspect"
	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/stats"
)

// ClassTraceState is the trace decision recorded for a class.
type ClassTraceState struct {
	Class *objrt.Class

	// Levels is the number of superclasses instrumented along with the
	// class; negative means all of them.
	Levels int

	// Excluded marks a class avoided with NotraceClass. Its instances are
	// never logged by stubs installed for other classes.
	Excluded bool

	installs []*MethodInterceptInfo
}

// InstanceTraceState is the trace decision recorded for one object. It holds
// the object's ID only, never the object.
type InstanceTraceState struct {
	ID    objrt.ObjectID
	Trace bool

	installs []*MethodInterceptInfo
}

// A Tracer owns the trace states and the interception records. Its
// administrative methods serialize on one lock; the call path reads atomic
// snapshots only.
type Tracer struct {
	runtime *objrt.Runtime
	stats   *stats.Tracker
	ids     idgen.Generator
	logger  *log.Logger
	output  *LogDelegate

	mu     sync.Mutex
	filter *filter.Engine
	infos  map[*objrt.Method]*MethodInterceptInfo

	config       atomic.Pointer[Config]
	delegate     atomic.Pointer[delegateBox]
	classStates  atomic.Pointer[map[*objrt.Class]*ClassTraceState]
	instances    sync.Map
	numInstances atomic.Int64
}

func classMustNotBeNil(c *objrt.Class) {
	if c == nil {
		panic("class must not be nil")
	}
}

func objectMustNotBeNil(obj *objrt.Object) {
	if obj == nil {
		panic("object must not be nil")
	}
}

// classMustBelongToRuntime rejects classes of other runtimes. Object IDs are
// only unique within one runtime, so decisions for foreign objects would
// apply to unrelated local ones.
func (t *Tracer) classMustBelongToRuntime(c *objrt.Class) {
	if c.Runtime() != t.runtime {
		panic("class " + c.Name() + " belongs to another runtime")
	}
}

// TraceClass traces a class and all of its superclasses.
func (t *Tracer) TraceClass(c *objrt.Class) {
	t.TraceClassLevels(c, -1)
}

// TraceClassLevels traces a class and the given number of superclasses. A
// negative number of levels goes up to the root class. Tracing a class again
// adds interest to the records without swapping any entry twice.
func (t *Tracer) TraceClassLevels(c *objrt.Class, levels int) {
	if !compiledIn {
		return
	}

	classMustNotBeNil(c)
	t.classMustBelongToRuntime(c)

	t.mu.Lock()
	defer t.mu.Unlock()

	installs := t.instrument(c, levels, true)

	state := &ClassTraceState{
		Class:    c,
		Levels:   levels,
		installs: installs,
	}
	if old := t.classState(c); old != nil && !old.Excluded {
		state.installs = append(append([]*MethodInterceptInfo(nil),
			old.installs...), installs...)
	}

	t.storeClassState(c, state)
}

// DontTrace stops tracing a class and forgets its trace state. Records kept
// installed only for it restore their original implementations, and the
// class behaves as if it had never been traced.
func (t *Tracer) DontTrace(c *objrt.Class) {
	if !compiledIn {
		return
	}

	classMustNotBeNil(c)
	t.classMustBelongToRuntime(c)

	t.mu.Lock()
	defer t.mu.Unlock()

	if old := t.classState(c); old != nil {
		t.releaseAll(old.installs, true)
		t.deleteClassState(c)
	}
}

// NotraceClass makes a class avoided. Its own trace requests are released
// and its instances, including those of its subclasses, are not logged by
// stubs installed for other classes. TraceClass or DontTrace lift it.
func (t *Tracer) NotraceClass(c *objrt.Class) {
	if !compiledIn {
		return
	}

	classMustNotBeNil(c)
	t.classMustBelongToRuntime(c)

	t.mu.Lock()
	defer t.mu.Unlock()

	if old := t.classState(c); old != nil {
		t.releaseAll(old.installs, true)
	}

	t.storeClassState(c, &ClassTraceState{Class: c, Excluded: true})
}

// ClassState returns the trace decision recorded for a class.
func (t *Tracer) ClassState(c *objrt.Class) (ClassTraceState, bool) {
	s, ok := (*t.classStates.Load())[c]
	if !ok {
		return ClassTraceState{}, false
	}

	return *s, true
}

// TracePattern traces every class of the runtime whose name matches pattern
// and does not match excluding. Superclasses are not traced along. It
// returns false if either pattern is invalid.
func (t *Tracer) TracePattern(pattern, excluding string) bool {
	if !compiledIn {
		return true
	}

	match, err := filter.MatchClassName(pattern, excluding)
	if err != nil {
		return false
	}

	for _, c := range t.runtime.Classes() {
		if match(c.Name()) {
			t.TraceClassLevels(c, 0)
		}
	}

	return true
}

// TraceInstance traces every message sent to obj, whatever the decision for
// its class. The object is not kept alive by the tracer.
func (t *Tracer) TraceInstance(obj *objrt.Object) {
	t.setInstanceDecision(obj, true)
}

// NotraceInstance stops logging messages sent to obj, whatever the decision
// for its class.
func (t *Tracer) NotraceInstance(obj *objrt.Object) {
	t.setInstanceDecision(obj, false)
}

// InstanceState returns the trace decision recorded for an object.
func (t *Tracer) InstanceState(obj *objrt.Object) (InstanceTraceState, bool) {
	if obj == nil || obj.Class().Runtime() != t.runtime {
		return InstanceTraceState{}, false
	}

	v, ok := t.instances.Load(obj.ID())
	if !ok {
		return InstanceTraceState{}, false
	}

	return *v.(*InstanceTraceState), true
}

func (t *Tracer) setInstanceDecision(obj *objrt.Object, trace bool) {
	if !compiledIn {
		return
	}

	objectMustNotBeNil(obj)
	t.classMustBelongToRuntime(obj.Class())

	t.mu.Lock()
	defer t.mu.Unlock()

	state := &InstanceTraceState{ID: obj.ID(), Trace: trace}
	if trace {
		state.installs = t.instrument(obj.Class(), -1, false)
	}

	old, loaded := t.instances.Swap(obj.ID(), state)
	if loaded {
		t.releaseAll(old.(*InstanceTraceState).installs, false)
		return
	}

	t.numInstances.Add(1)
	runtime.AddCleanup(obj, t.forgetInstance, obj.ID())
}

// forgetInstance runs once the object is collected.
func (t *Tracer) forgetInstance(id objrt.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, loaded := t.instances.LoadAndDelete(id)
	if !loaded {
		return
	}

	t.numInstances.Add(-1)
	t.releaseAll(old.(*InstanceTraceState).installs, false)
}

// instrument acquires a record for every eligible method of c and of up to
// levels superclasses. Must be called with t.mu held.
func (t *Tracer) instrument(
	c *objrt.Class,
	levels int,
	classLevel bool,
) []*MethodInterceptInfo {
	var acquired []*MethodInterceptInfo

	level := 0
	for k := c; k != nil; k = k.Superclass() {
		if levels >= 0 && level > levels {
			break
		}
		level++

		for _, m := range k.Methods() {
			name := string(m.Selector())
			if !t.filter.ShouldInclude(
				name, m.Types(), k.IsPropertyAccessor(m.Selector())) {
				t.debugf("skipping %s: filtered", m)
				continue
			}

			info, err := t.infoForMethod(m)
			if err != nil {
				t.debugf("skipping %s: %v", m, err)
				continue
			}

			t.acquire(info)
			if classLevel {
				info.classInterest.Add(1)
			}

			acquired = append(acquired, info)
		}
	}

	return acquired
}

func (t *Tracer) releaseAll(infos []*MethodInterceptInfo, classLevel bool) {
	for _, info := range infos {
		if classLevel {
			info.classInterest.Add(-1)
		}

		t.release(info)
	}
}

// infoForMethod returns the record of a method, creating it on first use.
// Must be called with t.mu held.
func (t *Tracer) infoForMethod(m *objrt.Method) (*MethodInterceptInfo, error) {
	if info, ok := t.infos[m]; ok {
		return info, nil
	}

	sig, args, err := inspect.Describe(m)
	if err != nil {
		return nil, err
	}

	info := &MethodInterceptInfo{
		method:       m,
		name:         string(m.Selector()),
		returnType:   sig.Return,
		typeEncoding: m.Types(),
		args:         args,
	}
	info.stub = t.newStub(info)
	info.original.Store(m.Implementation())

	t.infos[m] = info

	return info, nil
}

// acquire adds interest to a record and installs its stub when it is the
// first. Must be called with t.mu held.
func (t *Tracer) acquire(info *MethodInterceptInfo) {
	if info.interest.Add(1) > 1 {
		return
	}

	m := info.method
	for {
		current := m.Implementation()
		if current == info.stub {
			break
		}

		info.original.Store(current)
		if m.CompareAndSwapImplementation(current, info.stub) {
			break
		}
	}

	info.installed.Store(true)
}

// release drops interest from a record and puts the original implementation
// back when none is left. Must be called with t.mu held.
func (t *Tracer) release(info *MethodInterceptInfo) {
	if info.interest.Add(-1) > 0 {
		return
	}

	if !info.method.CompareAndSwapImplementation(
		info.stub, info.original.Load()) {
		t.debugf("%s was replaced while traced; leaving it", info.method)
	}

	info.installed.Store(false)
}

func (t *Tracer) classState(c *objrt.Class) *ClassTraceState {
	return (*t.classStates.Load())[c]
}

// storeClassState publishes a new copy of the class state table. Must be
// called with t.mu held.
func (t *Tracer) storeClassState(c *objrt.Class, state *ClassTraceState) {
	old := *t.classStates.Load()

	next := make(map[*objrt.Class]*ClassTraceState, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[c] = state

	t.classStates.Store(&next)
}

// deleteClassState publishes a copy of the class state table without c. Must
// be called with t.mu held.
func (t *Tracer) deleteClassState(c *objrt.Class) {
	old := *t.classStates.Load()

	next := make(map[*objrt.Class]*ClassTraceState, len(old))
	for k, v := range old {
		if k != c {
			next[k] = v
		}
	}

	t.classStates.Store(&next)
}

// InfoFor returns the interception record of the method a message to
// instances of c resolves to.
func (t *Tracer) InfoFor(
	c *objrt.Class,
	sel objrt.Selector,
) (*MethodInterceptInfo, bool) {
	classMustNotBeNil(c)

	m := c.LookupMethod(sel)
	if m == nil {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.infos[m]

	return info, ok
}

// Infos returns every interception record, ordered by class and selector.
func (t *Tracer) Infos() []*MethodInterceptInfo {
	t.mu.Lock()
	list := make([]*MethodInterceptInfo, 0, len(t.infos))
	for _, info := range t.infos {
		list = append(list, info)
	}
	t.mu.Unlock()

	sortInfos(list)

	return list
}

// SetDelegate routes trace events to d instead of the default log output. A
// nil delegate restores the default output.
func (t *Tracer) SetDelegate(d Delegate) {
	if !compiledIn {
		return
	}

	if d == nil {
		t.delegate.Store(nil)
		return
	}

	t.delegate.Store(&delegateBox{d: d})
}

func (t *Tracer) debugf(format string, args ...any) {
	if t.config.Load().Verbose {
		t.logger.Printf(format, args...)
	}
}
