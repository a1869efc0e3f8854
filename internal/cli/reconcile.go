package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/buildshim/internal/app"
	"github.com/vk/buildshim/internal/capability"
	"github.com/vk/buildshim/internal/hcl_adapter"
	"github.com/vk/buildshim/internal/walker"
)

type reconcileOptions struct {
	graph         string
	extension     string
	pluginVersion string
	orgPrefix     string
	report        string
	metricsFile   string
}

func newReconcileCommand(global *globalOptions, stdout, stderr io.Writer, plan bool) *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile [GRAPH_PATH]",
		Short: "Fill in missing subproject configuration and write it back",
		Long: `Walks every subproject of the build graph, resolves the values each one is
missing and writes them back into the .hcl files they were declared in.

GRAPH_PATH is a single .hcl file or a directory containing .hcl files.`,
		Args: positionalArgs(cobra.MaximumNArgs(1)),
	}
	if plan {
		cmd.Use = "plan [GRAPH_PATH]"
		cmd.Short = "Show the values reconcile would write, without writing"
		cmd.Long = `Probes and resolves every subproject of the build graph and prints the
intended patches as YAML. No file is modified.

GRAPH_PATH is a single .hcl file or a directory containing .hcl files.`
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		path := opts.graph
		if path == "" && len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return usageError(errors.New("no build graph given: pass GRAPH_PATH or --graph"))
		}

		reportPath := opts.report
		if plan && reportPath == "" {
			reportPath = app.ReportStdout
		}
		cfg, err := app.NewConfig(app.Config{
			GraphPath:     path,
			ExtensionName: opts.extension,
			PluginVersion: opts.pluginVersion,
			OrgPrefix:     opts.orgPrefix,
			DryRun:        plan,
			ReportPath:    reportPath,
			MetricsPath:   opts.metricsFile,
			LogLevel:      global.logLevel,
			LogFormat:     global.logFormat,
		})
		if err != nil {
			return usageError(err)
		}

		a := app.NewApp(stdout, stderr, cfg, hcl_adapter.NewLoader(), hcl_adapter.NewWriter())
		res, err := a.Run(cmd.Context())
		if err != nil {
			return runtimeError(err)
		}
		if !plan && reportPath != app.ReportStdout {
			printSummary(stdout, res)
		}
		return nil
	}

	f := cmd.Flags()
	f.StringVarP(&opts.graph, "graph", "g", "", "Path to the build graph file or directory.")
	f.StringVar(&opts.extension, "extension", walker.DefaultExtension, "Name of the configuration handle platform subprojects register.")
	f.StringVar(&opts.pluginVersion, "plugin-version", "", "Override the plugin version declared by the toolchain block.")
	f.StringVar(&opts.orgPrefix, "org-prefix", "", "Override the organization prefix used for synthesized identifiers.")
	f.StringVar(&opts.report, "report", "", "Write a YAML report to this path ('-' for stdout).")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write outcome counters in Prometheus text format to this path.")
	return cmd
}

func printSummary(w io.Writer, res *app.Result) {
	rep := res.Report
	fmt.Fprintf(w, "%d subprojects: %d applied, %d unchanged, %d failed; %d files written\n",
		len(rep.Results),
		rep.Count(capability.Applied),
		rep.Count(capability.Unchanged),
		rep.Count(capability.Failed),
		res.FilesWritten,
	)
}
