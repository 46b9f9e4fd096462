package xtrace

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/xtrace/objrt"
)

// DumpClass writes a description of a class: its superclass chain, declared
// properties and own methods with their encodings and interception state.
func (t *Tracer) DumpClass(w io.Writer, c *objrt.Class) error {
	classMustNotBeNil(c)

	chain := []string{c.Name()}
	for _, a := range c.Ancestors() {
		chain = append(chain, a.Name())
	}

	if _, err := fmt.Fprintln(w, strings.Join(chain, " : ")); err != nil {
		return err
	}

	if state, ok := t.ClassState(c); ok {
		status := "traced"
		if state.Excluded {
			status = "excluded"
		}
		fmt.Fprintf(w, "  state: %s\n", status)
	}

	if props := c.Properties(); len(props) > 0 {
		fmt.Fprintln(w, "  properties:")
		for _, p := range props {
			typ, _ := c.PropertyType(p)
			fmt.Fprintf(w, "    %s %s\n", p, typ)
		}
	}

	fmt.Fprintln(w, "  methods:")

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range c.Methods() {
		fmt.Fprintf(tw, "    %s\t%s\t%s\n",
			m.Selector(), m.Types(), t.methodStatus(m))
	}

	return tw.Flush()
}

// Dump returns DumpClass output as a string.
func (t *Tracer) Dump(c *objrt.Class) string {
	var b strings.Builder
	if err := t.DumpClass(&b, c); err != nil {
		return err.Error()
	}

	return b.String()
}

func (t *Tracer) methodStatus(m *objrt.Method) string {
	t.mu.Lock()
	info, ok := t.infos[m]
	t.mu.Unlock()

	if !ok {
		return "-"
	}

	s := info.Stats()
	state := "restored"
	if info.Installed() {
		state = "intercepted"
	}

	return fmt.Sprintf("%s calls=%d elapsed=%s", state, s.CallCount, s.Elapsed)
}

func sortInfos(list []*MethodInterceptInfo) {
	sort.Slice(list, func(i, j int) bool {
		ci, cj := list[i].Class().Name(), list[j].Class().Name()
		if ci != cj {
			return ci < cj
		}

		return list[i].name < list[j].name
	})
}
