package xtrace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-wide tracing configuration. A Tracer publishes an
// immutable copy of it; calls in flight keep the copy they started with.
type Config struct {
	// ShowArguments logs formatted call arguments.
	ShowArguments bool

	// HideReturns suppresses formatting of return values.
	HideReturns bool

	// DescribeValues formats objects through their description method
	// instead of their identity.
	DescribeValues bool

	// IncludeProperties makes property getters and setters eligible for
	// interception.
	IncludeProperties bool

	// Include, Exclude and ExcludeTypes are regular expressions applied to
	// method names and type encodings when methods are instrumented.
	Include      string
	Exclude      string
	ExcludeTypes string

	// Verbose logs diagnostics such as skipped methods.
	Verbose bool
}

// DefaultConfig returns the configuration of a new Tracer.
func DefaultConfig() Config {
	return Config{
		ShowArguments: true,
	}
}

// Environment variables read by ConfigFromEnv.
const (
	EnvShowArguments     = "XTRACE_SHOW_ARGS"
	EnvHideReturns       = "XTRACE_HIDE_RETURNS"
	EnvDescribeValues    = "XTRACE_DESCRIBE"
	EnvIncludeProperties = "XTRACE_INCLUDE_PROPERTIES"
	EnvInclude           = "XTRACE_INCLUDE"
	EnvExclude           = "XTRACE_EXCLUDE"
	EnvExcludeTypes      = "XTRACE_EXCLUDE_TYPES"
	EnvVerbose           = "XTRACE_VERBOSE"
)

// ConfigFromEnv starts from DefaultConfig and overrides it with XTRACE_*
// environment variables. The given dotenv files, or ".env" when none are
// given, are loaded first; a missing file is not an error and variables
// already set in the environment win.
func ConfigFromEnv(files ...string) (Config, error) {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading dotenv: %w", err)
	}

	cfg := DefaultConfig()

	bools := []struct {
		name string
		dst  *bool
	}{
		{EnvShowArguments, &cfg.ShowArguments},
		{EnvHideReturns, &cfg.HideReturns},
		{EnvDescribeValues, &cfg.DescribeValues},
		{EnvIncludeProperties, &cfg.IncludeProperties},
		{EnvVerbose, &cfg.Verbose},
	}
	for _, b := range bools {
		v, ok := os.LookupEnv(b.name)
		if !ok || v == "" {
			continue
		}

		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", b.name, err)
		}
		*b.dst = parsed
	}

	cfg.Include = os.Getenv(EnvInclude)
	cfg.Exclude = os.Getenv(EnvExclude)
	cfg.ExcludeTypes = os.Getenv(EnvExcludeTypes)

	return cfg, nil
}
