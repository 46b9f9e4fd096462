//go:build xtrace_release

package xtrace

const compiledIn = false
