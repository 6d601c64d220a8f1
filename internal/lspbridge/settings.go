package lspbridge

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
)

// Settings is the subset of config.LSPConfig the bridge needs to spawn and
// drive the language server, mirroring the original's LSPSettings.
type Settings struct {
	SDKPath           string
	WorkspacePath     string
	LogEnabled        bool
	LogPath           string
	InitTimeoutMs     int
	RequestTimeoutMs  int
	DisableAutoImport bool
	ServerPathOverride string
}

// NewSettings builds Settings from the resolved configuration.
func NewSettings(cfg *config.Config) Settings {
	return Settings{
		SDKPath:            cfg.LSP.SDKRoot,
		WorkspacePath:      cfg.LSP.WorkspacePath,
		LogEnabled:         cfg.LSP.LogEnabled,
		LogPath:            cfg.LSP.LogPath,
		InitTimeoutMs:      cfg.LSP.InitTimeoutMs,
		RequestTimeoutMs:   cfg.LSP.RequestTimeoutMs,
		DisableAutoImport:  cfg.LSP.DisableAutoImport,
		ServerPathOverride: cfg.LSP.LSPServerPath,
	}
}

// LSPServerPath returns the language-server executable path: the configured
// override, or <sdk_path>/tools/bin/LSPServer[.exe].
func (s Settings) LSPServerPath() string {
	if s.ServerPathOverride != "" {
		return s.ServerPathOverride
	}
	exe := "LSPServer"
	if runtime.GOOS == "windows" {
		exe = "LSPServer.exe"
	}
	return filepath.Join(s.SDKPath, "tools", "bin", exe)
}

// EnvSetupScript returns the platform-specific envsetup script under the SDK
// root: envsetup.sh on POSIX, envsetup.ps1 on Windows.
func (s Settings) EnvSetupScript() string {
	name := "envsetup.sh"
	if runtime.GOOS == "windows" {
		name = "envsetup.ps1"
	}
	return filepath.Join(s.SDKPath, name)
}

// GetLSPArgs builds the language-server's argv, matching
// LSPSettings::get_lsp_args: "src" positional, optional
// --disableAutoImport, and logging flags.
func (s Settings) GetLSPArgs() []string {
	args := []string{"src"}
	if s.DisableAutoImport {
		args = append(args, "--disableAutoImport")
	}
	if s.LogEnabled && s.LogPath != "" {
		args = append(args, "-V", "--enable-log=true", fmt.Sprintf("--log-path=%s", s.LogPath))
	} else {
		args = append(args, "--enable-log=false")
	}
	return args
}

// Validate checks that the SDK, language-server binary, and workspace all
// exist before a spawn is attempted, matching LSPSettings::validate.
func (s Settings) Validate() []string {
	var errs []string
	if !pathExists(s.SDKPath) {
		errs = append(errs, fmt.Sprintf("SDK path does not exist: %s", s.SDKPath))
	}
	if server := s.LSPServerPath(); !pathExists(server) {
		errs = append(errs, fmt.Sprintf("LSP server not found: %s", server))
	}
	if !pathExists(s.WorkspacePath) {
		errs = append(errs, fmt.Sprintf("workspace path does not exist: %s", s.WorkspacePath))
	}
	return errs
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// InitOptions mirrors LSPInitOptions, the camelCase initializationOptions
// payload passed to the server's initialize request.
type InitOptions struct {
	MultiModuleOption              map[string]any `json:"multiModuleOption,omitempty"`
	ConditionCompileOption         map[string]any `json:"conditionCompileOption,omitempty"`
	SingleConditionCompileOption   map[string]any `json:"singleConditionCompileOption,omitempty"`
	ConditionCompilePaths          []string       `json:"conditionCompilePaths,omitempty"`
	TargetLib                      string         `json:"targetLib,omitempty"`
	ModulesHomeOption              string         `json:"modulesHomeOption,omitempty"`
	StdLibPathOption                string        `json:"stdLibPathOption,omitempty"`
	TelemetryOption                bool           `json:"telemetryOption"`
	ExtensionPath                   string        `json:"extensionPath,omitempty"`
	ClangdFileStatus                bool          `json:"clangdFileStatus"`
	FallbackFlags                   []string      `json:"fallbackFlags,omitempty"`
}
