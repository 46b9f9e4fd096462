package main

import (
	"github.com/sarchlab/xtrace/objrt"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [class...]",
	Short: "Print the structure and interception state of sample classes",
	RunE: func(cmd *cobra.Command, args []string) error {
		world := newDemoWorld()

		t, err := newTracer(cmd, world)
		if err != nil {
			return err
		}

		if err := traceTargets(cmd, t); err != nil {
			return err
		}

		classes := world.rt.Classes()
		if len(args) > 0 {
			classes = make([]*objrt.Class, 0, len(args))
			for _, name := range args {
				c, err := world.class(name)
				if err != nil {
					return err
				}
				classes = append(classes, c)
			}
		}

		for _, c := range classes {
			if err := t.DumpClass(cmd.OutOrStdout(), c); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	addTraceFlags(dumpCmd, "")
	rootCmd.AddCommand(dumpCmd)
}
