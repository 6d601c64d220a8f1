// Package logging provides opt-in file-based logging with rotation for the
// documentation and language-bridge service. Logs are written to
// ~/.cjdocs/logs/. The --debug flag sets up debug-level logging to the file
// and to stderr for every command.
//
// The serve command always logs to the file at info level with stderr turned
// off: stdout is reserved exclusively for JSON-RPC frames in MCP stdio mode.
// SetupMCPMode offers the same file-only setup at debug level.
package logging
