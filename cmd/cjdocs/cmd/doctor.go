package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/lspbridge"
	"github.com/Aman-CERP/cjdocs-bridge/internal/preflight"
	"github.com/Aman-CERP/cjdocs-bridge/internal/ui"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Run system diagnostics to ensure cjdocs can operate correctly.

Checks:
  - Disk space and memory availability
  - Write permissions and file descriptor limits
  - Embedder model status (downloaded/missing)
  - Documentation index readiness
  - cangjie-lsp bridge configuration

Use --verbose for detailed diagnostic information.
Use --json for machine-readable output.
Use --no-tui to force plain text output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput, noTUI)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable interactive status view")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		jsonOutput, _ = cmd.Flags().GetBool("json")
		return nil
	}

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput, noTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(ctx, root)

	indexStatus := indexDiagnostic(cfg)
	bridgeStatus := bridgeDiagnostic(cfg)

	if jsonOutput {
		return outputDoctorJSON(cmd, checker, results, indexStatus, bridgeStatus)
	}

	if !noTUI && ui.IsTTY(cmd.OutOrStdout()) {
		return runDoctorTUI(checker, results, indexStatus, bridgeStatus)
	}

	checker.PrintResults(results)
	cmd.Printf("\nIndex: %s\nLanguage bridge: %s\n", indexStatus, bridgeStatus)

	if checker.HasCriticalFailures(results) {
		return &doctorError{message: "system check failed"}
	}
	return nil
}

// indexDiagnostic reports on-disk index readiness without triggering a
// docs fetch or build (doctor must never perform work as a side effect).
func indexDiagnostic(cfg *config.Config) string {
	indexesDir := filepath.Join(cfg.LSP.DataDir, "indexes")
	entries, err := os.ReadDir(indexesDir)
	if err != nil || len(entries) == 0 {
		return "not built (run 'cjdocs index')"
	}
	return "present (" + indexesDir + ")"
}

// bridgeDiagnostic validates the cangjie-lsp bridge configuration without
// starting the subprocess.
func bridgeDiagnostic(cfg *config.Config) string {
	settings := lspbridge.NewSettings(cfg)
	if problems := settings.Validate(); len(problems) > 0 {
		return "not configured: " + problems[0]
	}
	return "configured (" + settings.WorkspacePath + ")"
}

type doctorError struct{ message string }

func (e *doctorError) Error() string { return e.message }

type doctorJSONOutput struct {
	Status   string                    `json:"status"`
	Checks   []doctorJSONCheckResult   `json:"checks"`
	Index    string                    `json:"index"`
	Bridge   string                    `json:"bridge"`
	Warnings []string                  `json:"warnings,omitempty"`
	Errors   []string                  `json:"errors,omitempty"`
}

type doctorJSONCheckResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Required bool   `json:"required"`
	Details  string `json:"details,omitempty"`
}

func outputDoctorJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult, index, bridge string) error {
	output := doctorJSONOutput{
		Status: checker.SummaryStatus(results),
		Checks: make([]doctorJSONCheckResult, len(results)),
		Index:  index,
		Bridge: bridge,
	}

	for i, r := range results {
		output.Checks[i] = doctorJSONCheckResult{
			Name:     r.Name,
			Status:   statusToString(r.Status),
			Message:  r.Message,
			Required: r.Required,
			Details:  r.Details,
		}
		if r.IsCritical() {
			output.Errors = append(output.Errors, r.Name+": "+r.Message)
		} else if r.Status == preflight.StatusWarn {
			output.Warnings = append(output.Warnings, r.Name+": "+r.Message)
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func statusToString(s preflight.CheckStatus) string {
	switch s {
	case preflight.StatusPass:
		return "pass"
	case preflight.StatusWarn:
		return "warn"
	case preflight.StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}
