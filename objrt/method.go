package objrt

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Imp is the calling convention shared by every method implementation. The
// arguments are untyped; their types are described by the method's type
// encoding.
type Imp func(self *Object, cmd Selector, args ...any) any

// Implementation wraps an Imp so that it has an identity. Dispatch table
// entries are swapped and compared by Implementation pointer.
type Implementation struct {
	fn Imp
}

// NewImplementation wraps fn.
func NewImplementation(fn Imp) *Implementation {
	if fn == nil {
		panic("implementation must not be nil")
	}

	return &Implementation{fn: fn}
}

// Call invokes the implementation.
func (i *Implementation) Call(self *Object, cmd Selector, args ...any) any {
	return i.fn(self, cmd, args...)
}

// Func returns the wrapped function.
func (i *Implementation) Func() Imp {
	return i.fn
}

// A Method is one dispatch table entry.
type Method struct {
	sel      Selector
	types    string
	class    *Class
	argNames []string

	imp atomic.Pointer[Implementation]
}

// Selector returns the selector the method answers to.
func (m *Method) Selector() Selector {
	return m.sel
}

// Types returns the method's type encoding.
func (m *Method) Types() string {
	return m.types
}

// Class returns the class whose table holds the method.
func (m *Method) Class() *Class {
	return m.class
}

// ArgName returns the name of the i-th explicit argument (self and the
// selector not counted).
func (m *Method) ArgName(i int) string {
	if i < len(m.argNames) && m.argNames[i] != "" {
		return m.argNames[i]
	}

	parts := strings.Split(string(m.sel), ":")
	if len(parts) > 1 && i < len(parts)-1 && parts[i] != "" {
		return parts[i]
	}

	return fmt.Sprintf("arg%d", i+1)
}

// Implementation returns the implementation currently installed.
func (m *Method) Implementation() *Implementation {
	return m.imp.Load()
}

// SetImplementation installs a new implementation and returns the previous
// one.
func (m *Method) SetImplementation(imp *Implementation) *Implementation {
	if imp == nil {
		panic("implementation must not be nil")
	}

	return m.imp.Swap(imp)
}

// CompareAndSwapImplementation installs next only if old is still the
// installed implementation.
func (m *Method) CompareAndSwapImplementation(old, next *Implementation) bool {
	if next == nil {
		panic("implementation must not be nil")
	}

	return m.imp.CompareAndSwap(old, next)
}

// String returns "Class.selector".
func (m *Method) String() string {
	return m.class.name + "." + string(m.sel)
}
