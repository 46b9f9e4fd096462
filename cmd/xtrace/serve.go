package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/browser"
	"github.com/sarchlab/xtrace/monitoring"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sample workload continuously behind a monitoring server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		world := newDemoWorld()

		t, err := newTracer(cmd, world)
		if err != nil {
			return err
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			t.SetDelegate(discardDelegate{})
		}

		if err := traceTargets(cmd, t); err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		m := monitoring.NewMonitor().WithPortNumber(port)
		m.RegisterTracer(t)
		m.RegisterRuntime(world.rt)
		url := m.StartServer()

		if open, _ := cmd.Flags().GetBool("open"); open {
			browser.Stdout = io.Discard
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		interval, _ := cmd.Flags().GetDuration("interval")
		runContinuously(ctx, world, interval)

		return nil
	},
}

func init() {
	addTraceFlags(serveCmd, defaultTracePattern)
	serveCmd.Flags().IntP("port", "p", 0, "port of the monitoring server, random when 0")
	serveCmd.Flags().Bool("open", false, "open the monitoring page in a browser")
	serveCmd.Flags().Bool("quiet", false, "do not log traced calls")
	serveCmd.Flags().Duration("interval", time.Second, "pause between workload rounds")
	rootCmd.AddCommand(serveCmd)
}

func runContinuously(ctx context.Context, world *demoWorld, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for round := 0; ; round++ {
		world.run(round)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
