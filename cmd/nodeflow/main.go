// Command nodeflow is the headless runner for a persisted node graph
// (spec.md §6's CLI surface). With no flags it reports that the
// interactive editor is outside the core's scope; --no-gui drives one run
// of --graph-json to completion or until signalled.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vk/nodeflow/internal/app"
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/internal/scheduler"
	"github.com/vk/nodeflow/internal/stopsignal"
	"github.com/vk/nodeflow/nodes/counter"
	"github.com/vk/nodeflow/nodes/redissource"
	"github.com/vk/nodeflow/nodes/textutil"
)

// ExitError carries a process exit code alongside its message, the same
// shape the teacher's CLI package uses to separate "clean failure with a
// specific code" from an unexpected error.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds and executes the root command against args, capturing output
// on outW so tests can assert on it without touching the real process
// streams, mirroring the teacher's run(outW, args) testable-entrypoint shape.
//
// Module registration panics on a duplicate type_id (registry.RegisterNodeType),
// which app.NewApp can reach through RegisterModules. That is a startup
// programming error, not a per-run failure, so we recover it here the way
// the teacher's cmd/cli/main.go recovers around app.NewApp, and report it as
// a clean ExitError instead of a raw stack trace.
func run(outW *os.File, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExitError{Code: 1, Message: fmt.Sprintf("application startup panicked: %v", r)}
		}
	}()

	cmd := newRootCommand(outW)
	cmd.SetArgs(args)
	cmd.SetOut(outW)
	cmd.SetErr(outW)
	return cmd.Execute()
}

func modules() []registry.Module {
	return []registry.Module{textutil.Module{}, counter.Module{}, redissource.Module{}}
}

func newRootCommand(outW *os.File) *cobra.Command {
	var (
		noGUI         bool
		graphPath     string
		saveGraphPath string
		manifestsPath string
		logFormat     string
		logLevel      string
		metricsPort   int
		printResults  bool
	)

	cmd := &cobra.Command{
		Use:   "nodeflow",
		Short: "A node-graph execution engine.",
		Long: `nodeflow loads a persisted node graph, validates it as a DAG, and
executes it, mixing one-shot Simple nodes with long-lived EventProducers
that drive repeated downstream execution.

With no flags it reports that the interactive editor is outside the
core's scope. --no-gui runs a single graph headlessly to completion or
until signalled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noGUI {
				fmt.Fprintln(outW, "editor mode is outside the core's scope; pass --no-gui --graph-json <path> to run headlessly")
				return nil
			}
			if graphPath == "" {
				return &ExitError{Code: 2, Message: "--graph-json is required in --no-gui mode"}
			}

			cfg, err := app.NewConfig(app.Config{
				GraphPath:     graphPath,
				SaveGraphPath: saveGraphPath,
				ManifestsPath: manifestsPath,
				LogFormat:     logFormat,
				LogLevel:      logLevel,
				MetricsPort:   metricsPort,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			a, err := app.NewApp(outW, cfg, modules()...)
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}

			stop := stopsignal.New()
			ctx := installSignalHandler(a.Context(), stop)

			report, runErr := a.Run(ctx, stop)
			if runErr != nil {
				return &ExitError{Code: 1, Message: runErr.Error()}
			}
			fmt.Fprintf(outW, "run complete: %d node(s) executed, %d producer(s) driven\n",
				report.NodesExecuted, report.ProducersDriven)
			if printResults {
				printNodeResults(outW, report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noGUI, "no-gui", false, "run headlessly instead of starting the editor")
	cmd.Flags().StringVar(&graphPath, "graph-json", "", "path to the input graph JSON file (required with --no-gui)")
	cmd.Flags().StringVar(&saveGraphPath, "save-graph-json", "", "path to write the validated graph back to on exit")
	cmd.Flags().StringVar(&manifestsPath, "manifests", "", "directory of HCL node catalog manifests")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log output format: 'text' or 'json'")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: 'debug', 'info', 'warn', or 'error'")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "port for the /health and /metrics HTTP server; 0 disables it")
	cmd.Flags().BoolVar(&printResults, "print-results", false, "print each node's resolved inputs and outputs after a simple-only run (unavailable once the graph has an EventProducer)")

	cmd.AddCommand(newTypesCommand(outW))

	return cmd
}

// newTypesCommand lists the compiled-in node catalog, grounded on the
// original engine's registry browsing (get_all_types/get_types_by_category/
// get_categories): it registers the same built-in modules the root command
// runs with, plus any manifests given via its own --manifests flag, then
// prints the catalog grouped by category.
func newTypesCommand(outW *os.File) *cobra.Command {
	var manifestsPath string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the registered node types, grouped by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New()
			reg.RegisterModules(modules()...)
			if manifestsPath != "" {
				if err := reg.LoadManifests(manifestsPath); err != nil {
					return &ExitError{Code: 1, Message: err.Error()}
				}
			}

			categories := reg.Categories()
			if len(categories) == 0 {
				fmt.Fprintln(outW, "(no categorized node types)")
			}
			for _, category := range categories {
				fmt.Fprintf(outW, "%s:\n", category)
				for _, t := range reg.TypesByCategory(category) {
					fmt.Fprintf(outW, "  %-24s %s\n", t.TypeID, t.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestsPath, "manifests", "", "directory of HCL node catalog manifests")
	return cmd
}

// printNodeResults writes each node's captured input+output values, sorted
// by node id, mirroring the original engine's execute_and_capture_results
// output. report.NodeResults is nil for a hybrid run (spec.md's
// EventProducer path never captures per-tick results, matching the
// original's own limitation).
func printNodeResults(outW *os.File, report *scheduler.RunReport) {
	if len(report.NodeResults) == 0 {
		fmt.Fprintln(outW, "no captured results (graph has an EventProducer, or produced no nodes)")
		return
	}
	ids := make([]string, 0, len(report.NodeResults))
	for id := range report.NodeResults {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		values := report.NodeResults[id]
		ports := make([]string, 0, len(values))
		for name := range values {
			ports = append(ports, name)
		}
		sort.Strings(ports)

		fmt.Fprintf(outW, "%s:\n", id)
		for _, name := range ports {
			fmt.Fprintf(outW, "  %-16s %s\n", name, values[name].DebugString())
		}
	}
}

// installSignalHandler wires SIGINT (spec.md §6): the first signal sets the
// cooperative stop flag so the scheduler winds down at its next on_update
// boundary; a second signal terminates the process immediately.
func installSignalHandler(ctx context.Context, stop *stopsignal.Signal) context.Context {
	return withOSSignal(ctx, stop)
}
