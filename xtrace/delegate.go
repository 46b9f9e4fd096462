package xtrace

import (
	"io"
	"log"
	"strings"
	"time"

	"github.com/sarchlab/xtrace/objrt"
)

// CallEvent describes one traced call. The same event value is passed to
// MethodEntered and, completed with the exit fields, to MethodExited.
type CallEvent struct {
	ID       string
	Class    string
	Selector objrt.Selector
	Receiver objrt.ObjectID
	Depth    int

	// Args holds the formatted arguments when arguments are shown.
	Args []string

	// Exit fields.
	Elapsed   time.Duration
	Return    string
	HasReturn bool
	Panicked  bool

	// Info is the interception record the call went through.
	Info *MethodInterceptInfo
}

// A Delegate renders traced calls. When a delegate is set it receives every
// event instead of the default log output.
type Delegate interface {
	MethodEntered(event CallEvent)
	MethodExited(event CallEvent)
}

// LogDelegate writes one line per entry and exit, indented by nesting depth.
type LogDelegate struct {
	*log.Logger
}

// NewLogDelegate creates a LogDelegate writing to w without prefix or flags.
func NewLogDelegate(w io.Writer) *LogDelegate {
	return &LogDelegate{Logger: log.New(w, "", 0)}
}

// MethodEntered logs "Class.selector(arg,arg)".
func (d *LogDelegate) MethodEntered(e CallEvent) {
	var b strings.Builder
	writeIndent(&b, e.Depth)
	b.WriteString(e.Class)
	b.WriteByte('.')
	b.WriteString(string(e.Selector))

	if e.Args != nil {
		b.WriteByte('(')
		b.WriteString(strings.Join(e.Args, ","))
		b.WriteByte(')')
	}

	d.Print(b.String())
}

// MethodExited logs "Class.selector -> value (elapsed)".
func (d *LogDelegate) MethodExited(e CallEvent) {
	var b strings.Builder
	writeIndent(&b, e.Depth)
	b.WriteString(e.Class)
	b.WriteByte('.')
	b.WriteString(string(e.Selector))

	switch {
	case e.Panicked:
		b.WriteString(" panicked")
	case e.HasReturn:
		b.WriteString(" -> ")
		b.WriteString(e.Return)
	}

	b.WriteString(" (")
	b.WriteString(e.Elapsed.String())
	b.WriteByte(')')

	d.Print(b.String())
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 1; i < depth; i++ {
		b.WriteString("  ")
	}
}

type delegateBox struct {
	d Delegate
}
