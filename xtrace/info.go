package xtrace

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/sarchlab/xtrace/inspect"
	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/stats"
)

// MethodInterceptInfo is the interception record of one dispatch table
// entry. A record is created the first time its method is instrumented and
// lives as long as the Tracer, so calls that entered the stub before an
// uninstall can still reach the original implementation through it.
type MethodInterceptInfo struct {
	depth  atomic.Int32
	method *objrt.Method

	lastReceiver atomic.Pointer[weak.Pointer[objrt.Object]]

	before, replace, after atomic.Pointer[objrt.Implementation]
	original               atomic.Pointer[objrt.Implementation]
	stub                   *objrt.Implementation

	name         string
	returnType   string
	typeEncoding string
	args         []inspect.ArgDesc

	stats stats.Stats

	// callingBack holds the IDs of receivers whose hooks are running.
	callingBack    sync.Map
	numCallingBack atomic.Int32

	installed     atomic.Bool
	interest      atomic.Int32
	classInterest atomic.Int32

	// guarded by Tracer.mu
	hooked bool
}

// Method returns the dispatch table entry the record belongs to.
func (i *MethodInterceptInfo) Method() *objrt.Method {
	return i.method
}

// Class returns the class whose dispatch table holds the method.
func (i *MethodInterceptInfo) Class() *objrt.Class {
	return i.method.Class()
}

// Name returns the selector name.
func (i *MethodInterceptInfo) Name() string {
	return i.name
}

// ReturnType returns the encoded return type.
func (i *MethodInterceptInfo) ReturnType() string {
	return i.returnType
}

// TypeEncoding returns the method's full type encoding.
func (i *MethodInterceptInfo) TypeEncoding() string {
	return i.typeEncoding
}

// Args returns the argument descriptors, at most inspect.MaxArgs of them.
func (i *MethodInterceptInfo) Args() []inspect.ArgDesc {
	out := make([]inspect.ArgDesc, len(i.args))
	copy(out, i.args)

	return out
}

// Depth returns the number of calls currently nested inside the stub.
func (i *MethodInterceptInfo) Depth() int {
	return int(i.depth.Load())
}

// Original returns the implementation the stub forwards to.
func (i *MethodInterceptInfo) Original() *objrt.Implementation {
	return i.original.Load()
}

// Stub returns the interception implementation of the record.
func (i *MethodInterceptInfo) Stub() *objrt.Implementation {
	return i.stub
}

// Before returns the before hook, or nil.
func (i *MethodInterceptInfo) Before() *objrt.Implementation {
	return i.before.Load()
}

// Replacement returns the replace hook, or nil.
func (i *MethodInterceptInfo) Replacement() *objrt.Implementation {
	return i.replace.Load()
}

// After returns the after hook, or nil.
func (i *MethodInterceptInfo) After() *objrt.Implementation {
	return i.after.Load()
}

// LastReceiver returns the receiver of the most recent logged call, or nil
// when there was none or the object has been collected since.
func (i *MethodInterceptInfo) LastReceiver() *objrt.Object {
	p := i.lastReceiver.Load()
	if p == nil {
		return nil
	}

	return p.Value()
}

// Stats returns a copy of the record's counters.
func (i *MethodInterceptInfo) Stats() stats.Snapshot {
	return i.stats.Snapshot()
}

// Logged reports whether some call has its entry logged and its exit not
// logged yet.
func (i *MethodInterceptInfo) Logged() bool {
	return i.depth.Load() > 0
}

// CallingBack reports whether hooks of the record are running for any
// receiver.
func (i *MethodInterceptInfo) CallingBack() bool {
	return i.numCallingBack.Load() > 0
}

// Installed reports whether the stub is in the dispatch table.
func (i *MethodInterceptInfo) Installed() bool {
	return i.installed.Load()
}

// Interest returns how many trace requests keep the stub installed.
func (i *MethodInterceptInfo) Interest() int {
	return int(i.interest.Load())
}

func (i *MethodInterceptInfo) hasHooks() bool {
	return i.before.Load() != nil ||
		i.replace.Load() != nil ||
		i.after.Load() != nil
}

func (i *MethodInterceptInfo) hookSlot(
	kind hookKind,
) *atomic.Pointer[objrt.Implementation] {
	switch kind {
	case hookBefore:
		return &i.before
	case hookReplace:
		return &i.replace
	case hookAfter:
		return &i.after
	default:
		panic("unknown hook kind")
	}
}
