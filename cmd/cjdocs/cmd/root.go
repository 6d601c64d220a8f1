// Package cmd provides the CLI commands for cjdocs.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cjdocs-bridge/internal/logging"
	"github.com/Aman-CERP/cjdocs-bridge/internal/profiling"
	"github.com/Aman-CERP/cjdocs-bridge/pkg/version"
)

// Profiling flags, grounded on the teacher's root.go.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the cjdocs CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cjdocs",
		Short: "Cangjie documentation and language-bridge MCP service",
		Long: `cjdocs indexes the Cangjie documentation tree for hybrid search
(BM25 + semantic) and bridges AI coding assistants to cangjie-lsp over
the Model Context Protocol.

Run 'cjdocs index' to build the documentation index, then 'cjdocs serve'
to start the MCP server.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("cjdocs version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.cjdocs/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return err
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return err
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return err
		}
	}

	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return err
		}
	}
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
