package objrt

import (
	"fmt"
	"sync"
)

// ObjectID identifies an object within its runtime. IDs are never reused, so
// an ID can stand in for an object without keeping it alive.
type ObjectID uint64

// An Object is an instance of a class.
type Object struct {
	id    ObjectID
	class *Class

	mu    sync.Mutex
	ivars map[string]any
}

// ID returns the object's identity token.
func (o *Object) ID() ObjectID {
	return o.id
}

// Class returns the object's class.
func (o *Object) Class() *Class {
	return o.class
}

// Get returns an instance variable.
func (o *Object) Get(name string) any {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.ivars[name]
}

// Set assigns an instance variable.
func (o *Object) Set(name string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ivars == nil {
		o.ivars = make(map[string]any)
	}
	o.ivars[name] = value
}

// String returns the identity form of the object, "<Class 0xID>".
func (o *Object) String() string {
	if o == nil {
		return "nil"
	}

	return fmt.Sprintf("<%s %#x>", o.class.name, uint64(o.id))
}

// UnrecognizedSelectorError is the panic value of a message the receiver's
// class hierarchy cannot resolve.
type UnrecognizedSelectorError struct {
	Class    string
	Selector Selector
}

func (e *UnrecognizedSelectorError) Error() string {
	return fmt.Sprintf("unrecognized selector %q sent to instance of %s",
		e.Selector, e.Class)
}

// Send dispatches a message to obj. A message to a nil object returns nil.
// Panics raised by the implementation propagate to the caller.
func Send(obj *Object, sel Selector, args ...any) any {
	if obj == nil {
		return nil
	}

	m := obj.class.LookupMethod(sel)
	if m == nil {
		panic(&UnrecognizedSelectorError{Class: obj.class.name, Selector: sel})
	}

	return m.Implementation().Call(obj, sel, args...)
}

// SendSuper dispatches a message starting the lookup at the superclass of
// from, the class whose implementation is making the call.
func SendSuper(obj *Object, from *Class, sel Selector, args ...any) any {
	if obj == nil {
		return nil
	}

	var m *Method
	if from.super != nil {
		m = from.super.LookupMethod(sel)
	}

	if m == nil {
		panic(&UnrecognizedSelectorError{Class: from.name, Selector: sel})
	}

	return m.Implementation().Call(obj, sel, args...)
}

// RespondsTo reports whether a message can be resolved for obj.
func RespondsTo(obj *Object, sel Selector) bool {
	return obj != nil && obj.class.LookupMethod(sel) != nil
}

// DescriptionSelector is the message Describe sends to objects.
const DescriptionSelector Selector = "description"

// Describe returns the descriptive text of a value. Objects answering the
// description message describe themselves; others fall back to their
// identity form.
func Describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case *Object:
		if v == nil {
			return "nil"
		}

		if RespondsTo(v, DescriptionSelector) {
			return fmt.Sprint(Send(v, DescriptionSelector))
		}

		return v.String()
	case *Class:
		return v.Name()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
