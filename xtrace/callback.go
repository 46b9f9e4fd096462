package xtrace

import (
	"fmt"

	"github.com/sarchlab/xtrace/filter"
	"github.com/sarchlab/xtrace/objrt"
)

type hookKind int

const (
	hookBefore hookKind = iota
	hookReplace
	hookAfter
)

// Before registers a hook called ahead of the method on every call. Its
// return value is ignored. A nil hook removes the registration.
func (t *Tracer) Before(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return t.setHook(c, sel, hookBefore, hook)
}

// Replace registers a hook called instead of the original implementation.
// Its return value becomes the result of the call.
func (t *Tracer) Replace(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return t.setHook(c, sel, hookReplace, hook)
}

// After registers a hook called once the method returned. The hook receives
// the call's arguments followed by the result as an extra final argument.
func (t *Tracer) After(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return t.setHook(c, sel, hookAfter, hook)
}

func (t *Tracer) setHook(
	c *objrt.Class,
	sel objrt.Selector,
	kind hookKind,
	hook objrt.Imp,
) error {
	if !compiledIn {
		return nil
	}

	classMustNotBeNil(c)
	t.classMustBelongToRuntime(c)

	m := c.LookupMethod(sel)
	if m == nil {
		return fmt.Errorf("%s does not respond to %q", c.Name(), sel)
	}

	if filter.IsPermanentlyExcluded(string(sel)) {
		return fmt.Errorf("%s cannot be intercepted", m)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := t.infoForMethod(m)
	if err != nil {
		return fmt.Errorf("intercepting %s: %w", m, err)
	}

	var impl *objrt.Implementation
	if hook != nil {
		impl = objrt.NewImplementation(hook)
	}
	info.hookSlot(kind).Store(impl)

	switch hooked := info.hasHooks(); {
	case hooked && !info.hooked:
		info.hooked = true
		t.acquire(info)
	case !hooked && info.hooked:
		info.hooked = false
		t.release(info)
	}

	return nil
}

// invoke routes a call through the hooks of the record and the original
// implementation. While hooks of a record run for a receiver, calls reaching
// the same record with the same receiver go straight to the original so that
// a hook sending its own message does not recurse. Other receivers still get
// their hooks.
func (t *Tracer) invoke(
	info *MethodInterceptInfo,
	self *objrt.Object,
	cmd objrt.Selector,
	args []any,
) any {
	if !info.hasHooks() {
		return info.original.Load().Call(self, cmd, args...)
	}

	key := receiverKey(self)
	if _, busy := info.callingBack.LoadOrStore(key, struct{}{}); busy {
		return info.original.Load().Call(self, cmd, args...)
	}
	info.numCallingBack.Add(1)
	defer func() {
		info.numCallingBack.Add(-1)
		info.callingBack.Delete(key)
	}()

	if before := info.before.Load(); before != nil {
		before.Call(self, cmd, args...)
	}

	var result any
	if replace := info.replace.Load(); replace != nil {
		result = replace.Call(self, cmd, args...)
	} else {
		result = info.original.Load().Call(self, cmd, args...)
	}

	if after := info.after.Load(); after != nil {
		withResult := append(args[:len(args):len(args)], result)
		after.Call(self, cmd, withResult...)
	}

	return result
}

// receiverKey identifies the receiver of a call. Object IDs start at 1, so a
// nil receiver gets 0.
func receiverKey(self *objrt.Object) objrt.ObjectID {
	if self == nil {
		return 0
	}

	return self.ID()
}
