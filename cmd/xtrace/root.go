package main

import (
	"fmt"

	"github.com/sarchlab/xtrace/xtrace"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xtrace",
	Short: "xtrace traces messages sent to the classes of a sample object runtime.",
	Long: `xtrace traces messages sent to the classes of a sample object runtime. ` +
		`The demo command runs a traced workload, dump prints class structures ` +
		`and serve exposes the tracer through a monitoring web server.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("env-file", nil, "dotenv files read before XTRACE_* variables")
	flags.Bool("show-args", true, "log call arguments")
	flags.Bool("hide-returns", false, "do not log return values")
	flags.Bool("describe", false, "format objects through their description method")
	flags.Bool("properties", false, "trace property getters and setters")
	flags.String("include", "", "only trace methods matching this pattern")
	flags.String("exclude", "", "do not trace methods matching this pattern")
	flags.String("exclude-types", "", "do not trace methods whose type encoding matches this pattern")
	flags.BoolP("verbose", "v", false, "log skipped methods")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (xtrace.Config, error) {
	flags := cmd.Flags()

	files, _ := flags.GetStringSlice("env-file")
	cfg, err := xtrace.ConfigFromEnv(files...)
	if err != nil {
		return xtrace.Config{}, err
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"show-args", &cfg.ShowArguments},
		{"hide-returns", &cfg.HideReturns},
		{"describe", &cfg.DescribeValues},
		{"properties", &cfg.IncludeProperties},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if flags.Changed(b.name) {
			*b.dst, _ = flags.GetBool(b.name)
		}
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"include", &cfg.Include},
		{"exclude", &cfg.Exclude},
		{"exclude-types", &cfg.ExcludeTypes},
	}
	for _, s := range strs {
		if flags.Changed(s.name) {
			*s.dst, _ = flags.GetString(s.name)
		}
	}

	return cfg, nil
}

// newTracer builds a tracer for the world from the command's configuration.
func newTracer(cmd *cobra.Command, w *demoWorld) (*xtrace.Tracer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	t := xtrace.MakeBuilder().
		WithRuntime(w.rt).
		WithOutput(cmd.OutOrStdout()).
		Build()

	if err := t.Configure(cfg); err != nil {
		return nil, fmt.Errorf("configuring tracer: %w", err)
	}

	return t, nil
}

// traceTargets applies the --trace pattern and the --instance flag.
func traceTargets(cmd *cobra.Command, t *xtrace.Tracer) error {
	pattern, _ := cmd.Flags().GetString("trace")
	exclude, _ := cmd.Flags().GetString("trace-exclude")

	if pattern == "" {
		return nil
	}

	if !t.TracePattern(pattern, exclude) {
		return fmt.Errorf("invalid class pattern %q or %q", pattern, exclude)
	}

	return nil
}

const defaultTracePattern = "^(View|Widget|Button)$"

func addTraceFlags(cmd *cobra.Command, pattern string) {
	cmd.Flags().String("trace", pattern,
		"trace classes whose name matches this pattern")
	cmd.Flags().String("trace-exclude", "",
		"do not trace classes whose name matches this pattern")
}
