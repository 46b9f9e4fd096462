package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/xtrace/objrt"
	"github.com/sarchlab/xtrace/xtrace"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a traced sample workload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		world := newDemoWorld()

		t, err := newTracer(cmd, world)
		if err != nil {
			return err
		}

		if err := traceTargets(cmd, t); err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("json"); path != "" {
			if err := writeJSONTrace(path, t); err != nil {
				return err
			}
		}

		if hooks, _ := cmd.Flags().GetBool("hooks"); hooks {
			if err := installDemoHooks(cmd.OutOrStdout(), t, world); err != nil {
				return err
			}
		}

		if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
			out := cmd.OutOrStdout()
			atexit.Register(func() { printStats(out, t) })
		}

		if instance, _ := cmd.Flags().GetBool("instance"); instance {
			obj := world.widget.New()
			t.TraceInstance(obj)
			objrt.Send(obj, "resizeWidth:height:", 3, 4)
			objrt.Send(obj, "area")
		}

		rounds, _ := cmd.Flags().GetInt("rounds")
		for i := 0; i < rounds; i++ {
			world.run(i)
		}

		return nil
	},
}

func init() {
	addTraceFlags(demoCmd, defaultTracePattern)
	demoCmd.Flags().IntP("rounds", "n", 1, "number of workload rounds")
	demoCmd.Flags().Bool("instance", false, "also trace one extra widget instance")
	demoCmd.Flags().Bool("hooks", false, "install sample before and after hooks")
	demoCmd.Flags().Bool("stats", false, "print call statistics at exit")
	demoCmd.Flags().String("json", "", "write traced calls to this JSON file instead of the log")
	rootCmd.AddCommand(demoCmd)
}

func installDemoHooks(out io.Writer, t *xtrace.Tracer, world *demoWorld) error {
	err := t.Before(world.button, "press",
		func(self *objrt.Object, _ objrt.Selector, _ ...any) any {
			fmt.Fprintf(out, "[hook] %s is about to be pressed\n", self)
			return nil
		})
	if err != nil {
		return err
	}

	return t.After(world.widget, "scale:",
		func(self *objrt.Object, _ objrt.Selector, args ...any) any {
			fmt.Fprintf(out, "[hook] %s scaled by %v to %v\n",
				self, args[0], args[len(args)-1])
			return nil
		})
}

// writeJSONTrace routes trace events into a JSON file that is completed when
// the program exits.
func writeJSONTrace(path string, t *xtrace.Tracer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	d := xtrace.NewJSONDelegate(f)
	t.SetDelegate(d)

	atexit.Register(func() {
		d.Finish()
		if err := f.Close(); err != nil {
			panic(err)
		}
	})

	return nil
}

func printStats(w io.Writer, t *xtrace.Tracer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tCALLS\tELAPSED\tAVERAGE")

	for _, info := range t.Infos() {
		s := info.Stats()
		if s.CallCount == 0 {
			continue
		}

		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			info.Method(), s.CallCount, s.Elapsed, s.Average())
	}

	tw.Flush()
}
