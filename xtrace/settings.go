package xtrace

import (
	"fmt"

	"github.com/sarchlab/xtrace/filter"
)

// Config returns a copy of the active configuration.
func (t *Tracer) Config() Config {
	return *t.config.Load()
}

// Configure replaces the whole configuration. Nothing changes if a pattern
// is invalid. Patterns only affect methods instrumented afterwards.
func (t *Tracer) Configure(cfg Config) error {
	if !compiledIn {
		return nil
	}

	f := filter.New()
	if !f.SetInclude(cfg.Include) {
		return fmt.Errorf("invalid include pattern %q", cfg.Include)
	}

	if !f.SetExclude(cfg.Exclude) {
		return fmt.Errorf("invalid exclude pattern %q", cfg.Exclude)
	}

	if !f.SetExcludeTypes(cfg.ExcludeTypes) {
		return fmt.Errorf("invalid type exclusion pattern %q", cfg.ExcludeTypes)
	}

	f.SetIncludeProperties(cfg.IncludeProperties)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.filter = f
	t.config.Store(&cfg)

	return nil
}

// HideReturns stops or resumes logging of return values.
func (t *Tracer) HideReturns(hide bool) {
	t.updateConfig(func(c *Config) { c.HideReturns = hide })
}

// ShowArguments toggles logging of call arguments.
func (t *Tracer) ShowArguments(show bool) {
	t.updateConfig(func(c *Config) { c.ShowArguments = show })
}

// DescribeValues toggles formatting objects through their description.
func (t *Tracer) DescribeValues(describe bool) {
	t.updateConfig(func(c *Config) { c.DescribeValues = describe })
}

// Verbose toggles diagnostic logging.
func (t *Tracer) Verbose(verbose bool) {
	t.updateConfig(func(c *Config) { c.Verbose = verbose })
}

// IncludeProperties makes property accessors eligible for interception.
func (t *Tracer) IncludeProperties(include bool) {
	t.updateConfig(func(c *Config) {
		c.IncludeProperties = include
		t.filter.SetIncludeProperties(include)
	})
}

// IncludeMethods restricts interception to methods whose name matches
// pattern. It returns false, changing nothing, if the pattern is invalid.
func (t *Tracer) IncludeMethods(pattern string) bool {
	return t.updatePattern(pattern, (*filter.Engine).SetInclude,
		func(c *Config) { c.Include = pattern })
}

// ExcludeMethods keeps methods whose name matches pattern from being
// intercepted.
func (t *Tracer) ExcludeMethods(pattern string) bool {
	return t.updatePattern(pattern, (*filter.Engine).SetExclude,
		func(c *Config) { c.Exclude = pattern })
}

// ExcludeTypes keeps methods whose type encoding matches pattern from being
// intercepted.
func (t *Tracer) ExcludeTypes(pattern string) bool {
	return t.updatePattern(pattern, (*filter.Engine).SetExcludeTypes,
		func(c *Config) { c.ExcludeTypes = pattern })
}

func (t *Tracer) updatePattern(
	pattern string,
	set func(*filter.Engine, string) bool,
	update func(*Config),
) bool {
	if !compiledIn {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !set(t.filter, pattern) {
		return false
	}

	t.storeConfig(update)

	return true
}

func (t *Tracer) updateConfig(update func(*Config)) {
	if !compiledIn {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.storeConfig(update)
}

// storeConfig publishes an updated copy of the configuration. Must be called
// with t.mu held.
func (t *Tracer) storeConfig(update func(*Config)) {
	next := *t.config.Load()
	update(&next)
	t.config.Store(&next)
}
