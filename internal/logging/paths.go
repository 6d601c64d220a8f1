package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.cjdocs/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".cjdocs", "logs")
	}
	return filepath.Join(home, ".cjdocs", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// BridgeLogPath returns the language-server bridge subprocess log path.
func BridgeLogPath() string {
	return filepath.Join(DefaultLogDir(), "bridge.log")
}

// LogSource represents the source of logs to view.
type LogSource string

const (
	// LogSourceServer is the main server logs (default).
	LogSourceServer LogSource = "server"
	// LogSourceBridge is the language-server bridge subprocess logs.
	LogSourceBridge LogSource = "bridge"
	// LogSourceAll combines all log sources.
	LogSourceAll LogSource = "all"
)

// FindLogFile attempts to find the log file for viewing.
// Priority:
//  1. Explicit path (if provided)
//  2. ~/.cjdocs/logs/server.log (global)
//
// Returns an error if no log file is found.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	globalPath := DefaultLogPath()
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found. Server may not have run with --debug yet.\nExpected at: %s", globalPath)
}

// FindLogFileBySource finds log files based on the source type.
// Returns a list of log file paths that exist.
func FindLogFileBySource(source LogSource, explicit string) ([]string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return []string{explicit}, nil
		}
		return nil, fmt.Errorf("log file not found: %s", explicit)
	}

	var paths []string
	var checked []string

	switch source {
	case LogSourceServer:
		p := DefaultLogPath()
		checked = append(checked, p)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}

	case LogSourceBridge:
		p := BridgeLogPath()
		checked = append(checked, p)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}

	case LogSourceAll:
		serverPath := DefaultLogPath()
		bridgePath := BridgeLogPath()
		checked = append(checked, serverPath, bridgePath)

		if _, err := os.Stat(serverPath); err == nil {
			paths = append(paths, serverPath)
		}
		if _, err := os.Stat(bridgePath); err == nil {
			paths = append(paths, bridgePath)
		}

	default:
		return nil, fmt.Errorf("unknown log source: %s (use: server, bridge, all)", source)
	}

	if len(paths) == 0 {
		hint := getLogHint(source)
		return nil, fmt.Errorf("no log files found for source '%s'.\nChecked: %v\n\n%s", source, checked, hint)
	}

	return paths, nil
}

// ParseLogSource parses a string into a LogSource.
func ParseLogSource(s string) LogSource {
	switch s {
	case "bridge":
		return LogSourceBridge
	case "all":
		return LogSourceAll
	default:
		return LogSourceServer
	}
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	dir := DefaultLogDir()
	return os.MkdirAll(dir, 0o755)
}

func getLogHint(source LogSource) string {
	switch source {
	case LogSourceServer:
		return "To generate server logs:\n  cjdocs --debug serve"
	case LogSourceBridge:
		return "To generate bridge logs:\n  cjdocs --debug serve (starts the language-server bridge subprocess)"
	case LogSourceAll:
		return "To generate logs:\n  cjdocs --debug serve"
	default:
		return ""
	}
}
