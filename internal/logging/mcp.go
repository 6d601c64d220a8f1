package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP server mode.
// This is critical for MCP protocol compliance:
//   - Logs ONLY to file (never stdout/stderr)
//   - Uses JSON format for structured logs
//   - Always enables debug level for complete diagnostics
//
// The MCP stdio transport requires stdout to be used EXCLUSIVELY for
// JSON-RPC frames. Any writes to stdout/stderr before or during MCP
// operation corrupt the protocol stream and surface as client-side
// "failed to connect" errors.
func SetupMCPMode() (func(), error) {
	cfg := Config{
		Level:         "debug",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	slog.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level),
		slog.Bool("stderr_disabled", true))

	return cleanup, nil
}

// SetupMCPModeWithLevel initializes MCP-safe logging with a specific level.
func SetupMCPModeWithLevel(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}
