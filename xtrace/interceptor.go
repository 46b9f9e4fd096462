package xtrace

import (
	"weak"

	"github.com/sarchlab/xtrace/inspect"
	"github.com/sarchlab/xtrace/objrt"
)

func (t *Tracer) newStub(info *MethodInterceptInfo) *objrt.Implementation {
	return objrt.NewImplementation(
		func(self *objrt.Object, cmd objrt.Selector, args ...any) any {
			return t.intercept(info, self, cmd, args)
		})
}

// intercept is the body of every stub. Calls the trace state does not select
// pass through the hooks to the original without logging or counting.
func (t *Tracer) intercept(
	info *MethodInterceptInfo,
	self *objrt.Object,
	cmd objrt.Selector,
	args []any,
) (result any) {
	if !t.shouldLog(info, self) {
		return t.invoke(info, self, cmd, args)
	}

	receiver := weak.Make(self)
	info.lastReceiver.Store(&receiver)

	depth := info.depth.Add(1)
	defer info.depth.Add(-1)

	cfg := t.config.Load()
	entered := t.stats.OnEnter(&info.stats)

	event := CallEvent{
		ID:       t.ids.Generate(),
		Class:    self.Class().Name(),
		Selector: cmd,
		Receiver: self.ID(),
		Depth:    int(depth),
		Info:     info,
	}

	if cfg.ShowArguments {
		event.Args = inspect.FormatArgs(info.args, args, cfg.DescribeValues)
	}

	delegate := t.currentDelegate()
	delegate.MethodEntered(event)

	completed := false
	defer func() {
		event.Elapsed = t.stats.OnExit(&info.stats, entered)
		event.Panicked = !completed

		if completed && !cfg.HideReturns {
			event.Return, event.HasReturn = inspect.FormatReturn(
				info.returnType, result, cfg.DescribeValues)
		}

		delegate.MethodExited(event)
	}()

	result = t.invoke(info, self, cmd, args)
	completed = true

	return result
}

// shouldLog decides whether a call is traced. A decision recorded for the
// receiver itself wins. Otherwise the nearest class in the receiver's
// hierarchy with a trace state decides, and receivers with no such class are
// traced when some class-level request installed the stub.
func (t *Tracer) shouldLog(info *MethodInterceptInfo, self *objrt.Object) bool {
	if self == nil {
		return false
	}

	if t.numInstances.Load() > 0 && self.Class().Runtime() == t.runtime {
		if v, ok := t.instances.Load(self.ID()); ok {
			return v.(*InstanceTraceState).Trace
		}
	}

	states := *t.classStates.Load()
	for k := self.Class(); k != nil; k = k.Superclass() {
		if s, ok := states[k]; ok {
			return !s.Excluded
		}
	}

	return info.classInterest.Load() > 0
}

func (t *Tracer) currentDelegate() Delegate {
	if box := t.delegate.Load(); box != nil {
		return box.d
	}

	return t.output
}
