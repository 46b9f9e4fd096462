// Package objrt provides a small object runtime with dynamic method dispatch.
//
// Every class owns a dispatch table mapping selectors to methods. A message
// sent with Send is resolved at call time by walking the receiver's class and
// its superclasses, and the implementation stored in the method entry is
// called. Implementations can be swapped atomically while calls are in
// flight, which is what call interception builds on.
package objrt

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Runtime is a registry of classes. Objects created by a runtime receive
// identifiers that are unique within that runtime and never reused.
type Runtime struct {
	mu      sync.RWMutex
	classes map[string]*Class

	nextObjectID atomic.Uint64
}

// Default is the process-wide runtime.
var Default = NewRuntime()

// NewRuntime creates an empty Runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		classes: make(map[string]*Class),
	}
}

// DefineClass registers a new class. The superclass may be nil for a root
// class. Defining two classes with the same name panics.
func (r *Runtime) DefineClass(name string, super *Class) *Class {
	if name == "" {
		panic("class name must not be empty")
	}

	if super != nil && super.rt != r {
		panic("superclass " + super.name + " belongs to another runtime")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[name]; ok {
		panic("class " + name + " is already defined")
	}

	c := newClass(r, name, super)
	r.classes[name] = c

	return c
}

// Class returns the class registered under name, or nil.
func (r *Runtime) Class(name string) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.classes[name]
}

// Classes returns all registered classes sorted by name.
func (r *Runtime) Classes() []*Class {
	r.mu.RLock()
	list := make([]*Class, 0, len(r.classes))
	for _, c := range r.classes {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].name < list[j].name
	})

	return list
}

// NewObject creates an instance of the given class.
func (r *Runtime) NewObject(c *Class) *Object {
	if c == nil {
		panic("class must not be nil")
	}

	if c.rt != r {
		panic("class " + c.name + " belongs to another runtime")
	}

	return &Object{
		id:    ObjectID(r.nextObjectID.Add(1)),
		class: c,
	}
}
