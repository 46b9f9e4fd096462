package xtrace

import (
	"io"
	"log"
	"os"

	"github.com/sarchlab/xtrace/filter"
	"github.com/sarchlab/xtrace/idgen"
	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/stats"
)

// Builder can be used to build a Tracer.
type Builder struct {
	runtime *objrt.Runtime
	clock   stats.Clock
	ids     idgen.Generator
	output  io.Writer
	logger  *log.Logger
	config  Config
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		runtime: objrt.Default,
		output:  os.Stderr,
		config:  DefaultConfig(),
	}
}

// WithRuntime sets the runtime whose classes TracePattern scans.
func (b Builder) WithRuntime(rt *objrt.Runtime) Builder {
	b.runtime = rt
	return b
}

// WithClock sets the clock used to time calls.
func (b Builder) WithClock(clock stats.Clock) Builder {
	b.clock = clock
	return b
}

// WithIDGenerator sets the generator of call IDs.
func (b Builder) WithIDGenerator(ids idgen.Generator) Builder {
	b.ids = ids
	return b
}

// WithOutput sets where the default log output goes.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.output = w
	return b
}

// WithLogger sets the logger for diagnostics.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithConfig sets the initial configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.config = cfg
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.runtime == nil {
		panic("runtime must not be nil")
	}

	if b.output == nil {
		panic("output must not be nil")
	}
}

// Build builds the Tracer. It panics if the initial configuration holds an
// invalid pattern.
func (b Builder) Build() *Tracer {
	b.parametersMustBeValid()

	t := &Tracer{
		runtime: b.runtime,
		filter:  filter.New(),
		stats:   stats.NewTracker(b.clock),
		ids:     b.ids,
		logger:  b.logger,
		output:  NewLogDelegate(b.output),
		infos:   make(map[*objrt.Method]*MethodInterceptInfo),
	}

	if t.ids == nil {
		t.ids = idgen.NewParallel()
	}

	if t.logger == nil {
		t.logger = log.New(os.Stderr, "xtrace: ", log.LstdFlags)
	}

	states := make(map[*objrt.Class]*ClassTraceState)
	t.classStates.Store(&states)

	cfg := DefaultConfig()
	t.config.Store(&cfg)

	if err := t.Configure(b.config); err != nil {
		panic(err)
	}

	return t
}
