// Package idgen generates identifiers for traced calls.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator whose first emitted ID is "1". The
// sequence is deterministic, which keeps test output stable.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

// NewParallel returns a generator of globally unique IDs that does not
// serialize concurrent callers. IDs are not deterministic.
func NewParallel() Generator {
	return parallelGenerator{}
}

type sequentialGenerator struct {
	next atomic.Uint64
}

func (g *sequentialGenerator) Generate() string {
	return strconv.FormatUint(g.next.Add(1), 10)
}

type parallelGenerator struct{}

func (parallelGenerator) Generate() string {
	return xid.New().String()
}
