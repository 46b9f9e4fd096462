package objrt

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"
)

// Selector names a message.
type Selector string

// A Class owns a dispatch table. Lookups on the table never take a lock;
// writers copy the table and publish the copy.
type Class struct {
	rt    *Runtime
	name  string
	super *Class

	mu         sync.Mutex
	methods    atomic.Pointer[map[Selector]*Method]
	properties atomic.Pointer[map[string]string]
}

func newClass(rt *Runtime, name string, super *Class) *Class {
	c := &Class{rt: rt, name: name, super: super}

	methods := make(map[Selector]*Method)
	c.methods.Store(&methods)

	props := make(map[string]string)
	c.properties.Store(&props)

	return c
}

// Name returns the name of the class.
func (c *Class) Name() string {
	return c.name
}

// String returns the name of the class.
func (c *Class) String() string {
	return c.name
}

// Superclass returns the parent class, or nil for a root class.
func (c *Class) Superclass() *Class {
	return c.super
}

// Runtime returns the runtime that defines the class.
func (c *Class) Runtime() *Runtime {
	return c.rt
}

// New creates an instance of the class.
func (c *Class) New() *Object {
	return c.rt.NewObject(c)
}

// Ancestors returns the superclass chain, nearest first.
func (c *Class) Ancestors() []*Class {
	var list []*Class
	for s := c.super; s != nil; s = s.super {
		list = append(list, s)
	}

	return list
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.super {
		if k == other {
			return true
		}
	}

	return false
}

// AddMethod defines a method in the class's own dispatch table. The types
// string is an encoding as understood by ParseSignature. Argument names are
// optional; when omitted they are derived from the selector.
func (c *Class) AddMethod(
	sel Selector,
	types string,
	imp Imp,
	argNames ...string,
) *Method {
	if sel == "" {
		panic("selector must not be empty")
	}

	m := &Method{
		sel:      sel,
		types:    types,
		class:    c,
		argNames: argNames,
	}
	m.imp.Store(NewImplementation(imp))

	c.mu.Lock()
	defer c.mu.Unlock()

	old := *c.methods.Load()
	if _, ok := old[sel]; ok {
		panic("method " + string(sel) + " is already defined in " + c.name)
	}

	next := make(map[Selector]*Method, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[sel] = m
	c.methods.Store(&next)

	return m
}

// AddProperty declares a property stored in the object's instance variables
// and defines its getter and setter. The getter is named after the property
// and the setter is "set" followed by the capitalized name.
func (c *Class) AddProperty(name, typ string) {
	if name == "" {
		panic("property name must not be empty")
	}

	c.mu.Lock()
	old := *c.properties.Load()
	next := make(map[string]string, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = typ
	c.properties.Store(&next)
	c.mu.Unlock()

	c.AddMethod(Selector(name), Types(typ),
		func(self *Object, _ Selector, _ ...any) any {
			return self.Get(name)
		})
	c.AddMethod(SetterName(name), Types("v", typ),
		func(self *Object, _ Selector, args ...any) any {
			self.Set(name, args[0])
			return nil
		}, name)
}

// Properties returns the names of the properties declared by the class
// itself, sorted.
func (c *Class) Properties() []string {
	props := *c.properties.Load()
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// PropertyType returns the encoded type of a property declared by the class
// or one of its ancestors.
func (c *Class) PropertyType(name string) (string, bool) {
	for k := c; k != nil; k = k.super {
		if t, ok := (*k.properties.Load())[name]; ok {
			return t, true
		}
	}

	return "", false
}

// IsPropertyAccessor reports whether the selector is the getter or the setter
// of a property declared by the class or one of its ancestors.
func (c *Class) IsPropertyAccessor(sel Selector) bool {
	name := strings.TrimSuffix(string(sel), ":")
	if _, ok := c.PropertyType(name); ok {
		return true
	}

	if !strings.HasPrefix(name, "set") || len(name) <= 3 {
		return false
	}

	r, size := utf8.DecodeRuneInString(name[3:])
	if !unicode.IsUpper(r) {
		return false
	}

	getter := string(unicode.ToLower(r)) + name[3+size:]
	_, ok := c.PropertyType(getter)

	return ok
}

// Method returns the method defined in the class's own table, or nil.
func (c *Class) Method(sel Selector) *Method {
	return (*c.methods.Load())[sel]
}

// LookupMethod resolves a selector the way a message send does: the class's
// own table first, then each superclass in turn.
func (c *Class) LookupMethod(sel Selector) *Method {
	for k := c; k != nil; k = k.super {
		if m := (*k.methods.Load())[sel]; m != nil {
			return m
		}
	}

	return nil
}

// Methods returns the methods defined in the class's own table, sorted by
// selector.
func (c *Class) Methods() []*Method {
	table := *c.methods.Load()
	list := make([]*Method, 0, len(table))
	for _, m := range table {
		list = append(list, m)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].sel < list[j].sel
	})

	return list
}

// SetterName returns the setter selector of a property.
func SetterName(property string) Selector {
	r, size := utf8.DecodeRuneInString(property)

	return Selector("set" + string(unicode.ToUpper(r)) + property[size:])
}
