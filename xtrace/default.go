package xtrace

import (
	"io"

	"github.com/sarchlab/xtrace/objrt"
)

// Default is the process-wide Tracer. It traces classes of objrt.Default and
// logs to standard error.
var Default = MakeBuilder().Build()

// TraceClass traces a class and all of its superclasses with Default.
func TraceClass(c *objrt.Class) { Default.TraceClass(c) }

// TraceClassLevels traces a class and levels superclasses with Default.
func TraceClassLevels(c *objrt.Class, levels int) {
	Default.TraceClassLevels(c, levels)
}

// TracePattern traces classes by name with Default.
func TracePattern(pattern, excluding string) bool {
	return Default.TracePattern(pattern, excluding)
}

// TraceInstance traces one object with Default.
func TraceInstance(obj *objrt.Object) { Default.TraceInstance(obj) }

// NotraceInstance stops tracing one object with Default.
func NotraceInstance(obj *objrt.Object) { Default.NotraceInstance(obj) }

// DontTrace stops tracing a class with Default.
func DontTrace(c *objrt.Class) { Default.DontTrace(c) }

// NotraceClass makes a class avoided by Default.
func NotraceClass(c *objrt.Class) { Default.NotraceClass(c) }

// HideReturns toggles return value logging of Default.
func HideReturns(hide bool) { Default.HideReturns(hide) }

// ShowArguments toggles argument logging of Default.
func ShowArguments(show bool) { Default.ShowArguments(show) }

// DescribeValues toggles describing objects in Default's output.
func DescribeValues(describe bool) { Default.DescribeValues(describe) }

// IncludeProperties toggles tracing of property accessors by Default.
func IncludeProperties(include bool) { Default.IncludeProperties(include) }

// IncludeMethods sets Default's include pattern.
func IncludeMethods(pattern string) bool {
	return Default.IncludeMethods(pattern)
}

// ExcludeMethods sets Default's exclude pattern.
func ExcludeMethods(pattern string) bool {
	return Default.ExcludeMethods(pattern)
}

// ExcludeTypes sets Default's type exclusion pattern.
func ExcludeTypes(pattern string) bool {
	return Default.ExcludeTypes(pattern)
}

// Before registers a before hook with Default.
func Before(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return Default.Before(c, sel, hook)
}

// Replace registers a replacement hook with Default.
func Replace(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return Default.Replace(c, sel, hook)
}

// After registers an after hook with Default.
func After(c *objrt.Class, sel objrt.Selector, hook objrt.Imp) error {
	return Default.After(c, sel, hook)
}

// InfoFor returns Default's interception record of a method.
func InfoFor(c *objrt.Class, sel objrt.Selector) (*MethodInterceptInfo, bool) {
	return Default.InfoFor(c, sel)
}

// DumpClass describes a class as seen by Default.
func DumpClass(w io.Writer, c *objrt.Class) error {
	return Default.DumpClass(w, c)
}

// SetDelegate sets Default's delegate.
func SetDelegate(d Delegate) { Default.SetDelegate(d) }
