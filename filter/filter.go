// Package filter decides which methods are eligible for interception.
package filter

import (
	"regexp"
	"sync"
)

// PermanentExclusions matches methods that are never safe to wrap with a
// generic implementation: allocation and deallocation hooks, archive
// initializers, timing primitives the tracer itself depends on, variadic
// multi-object constructors and runtime-private methods.
const PermanentExclusions = `^(alloc|allocWithZone:?|dealloc|finalize|` +
	`initWithCoder:?|timeIntervalSinceReferenceDate|retain|release|` +
	`autorelease|retainCount)$|^\.|WithObjects(AndKeys)?:?$`

var permanent = regexp.MustCompile(PermanentExclusions)

// An Engine evaluates method names and type encodings against the configured
// patterns.
type Engine struct {
	mu                sync.RWMutex
	include           *regexp.Regexp
	exclude           *regexp.Regexp
	excludeTypes      *regexp.Regexp
	includeProperties bool
}

// New creates an Engine with no custom patterns. Property accessors are
// excluded.
func New() *Engine {
	return &Engine{}
}

// SetInclude restricts interception to method names matching pattern. An
// empty pattern removes the restriction. An invalid pattern is rejected and
// leaves the current one in place.
func (e *Engine) SetInclude(pattern string) bool {
	return e.set(&e.include, pattern)
}

// SetExclude vetoes method names matching pattern.
func (e *Engine) SetExclude(pattern string) bool {
	return e.set(&e.exclude, pattern)
}

// SetExcludeTypes vetoes methods whose type encoding matches pattern.
func (e *Engine) SetExcludeTypes(pattern string) bool {
	return e.set(&e.excludeTypes, pattern)
}

// SetIncludeProperties toggles interception of property getters and setters.
func (e *Engine) SetIncludeProperties(include bool) {
	e.mu.Lock()
	e.includeProperties = include
	e.mu.Unlock()
}

// IncludeProperties reports whether property accessors are eligible.
func (e *Engine) IncludeProperties() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.includeProperties
}

// Patterns returns the include, exclude and type-exclude patterns in that
// order. Unset patterns are empty.
func (e *Engine) Patterns() (include, exclude, excludeTypes string) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return source(e.include), source(e.exclude), source(e.excludeTypes)
}

func (e *Engine) set(slot **regexp.Regexp, pattern string) bool {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return false
		}
	}

	e.mu.Lock()
	*slot = re
	e.mu.Unlock()

	return true
}

// ShouldInclude reports whether a method may be intercepted.
func (e *Engine) ShouldInclude(
	methodName string,
	typeSignature string,
	isPropertyAccessor bool,
) bool {
	if IsPermanentlyExcluded(methodName) {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.include != nil && !e.include.MatchString(methodName) {
		return false
	}

	if e.exclude != nil && e.exclude.MatchString(methodName) {
		return false
	}

	if e.excludeTypes != nil && e.excludeTypes.MatchString(typeSignature) {
		return false
	}

	if isPropertyAccessor && !e.includeProperties {
		return false
	}

	return true
}

// IsPermanentlyExcluded reports whether a method name matches the built-in
// exclusion list.
func IsPermanentlyExcluded(methodName string) bool {
	return permanent.MatchString(methodName)
}

// MatchClassName reports whether a class name matches pattern and does not
// match excluding. An empty excluding pattern excludes nothing. The error is
// non-nil when either pattern is invalid.
func MatchClassName(pattern, excluding string) (func(string) bool, error) {
	include, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var exclude *regexp.Regexp
	if excluding != "" {
		exclude, err = regexp.Compile(excluding)
		if err != nil {
			return nil, err
		}
	}

	return func(name string) bool {
		if !include.MatchString(name) {
			return false
		}

		return exclude == nil || !exclude.MatchString(name)
	}, nil
}

func source(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}

	return re.String()
}
