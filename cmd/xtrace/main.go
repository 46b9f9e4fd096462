// Command xtrace demonstrates call tracing on a sample class hierarchy.
package main

import (
	"github.com/sarchlab/xtrace/xtrace"
	"github.com/tebeka/atexit"
)

func main() {
	if err := Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// discardDelegate drops every event; statistics are still collected.
type discardDelegate struct{}

func (discardDelegate) MethodEntered(xtrace.CallEvent) {}

func (discardDelegate) MethodExited(xtrace.CallEvent) {}
