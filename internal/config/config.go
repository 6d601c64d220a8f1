// Package config loads layered YAML + environment-variable configuration
// for the documentation-and-language-bridge service: user config
// (~/.config/<app>/config.yaml), project config (.cjdocs.yaml in the
// workspace root), and environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	LSP        LSPConfig        `yaml:"lsp" json:"lsp"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// PathsConfig configures which documentation paths to include/exclude when
// enumerating categories.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures hybrid-retrieval parameters.
type SearchConfig struct {
	// RRFConstant is the Reciprocal Rank Fusion smoothing parameter (k).
	// Default 60, matching Azure AI Search / OpenSearch convention.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	ChunkMaxSize int `yaml:"chunk_max_size" json:"chunk_max_size"`
	MaxResults   int `yaml:"max_results" json:"max_results"`

	// VectorAccelerator opts into mirroring the vector store into an
	// in-memory HNSW graph for sub-millisecond repeat queries; the sqlite
	// store remains the system of record regardless.
	VectorAccelerator bool `yaml:"vector_accelerator" json:"vector_accelerator"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "ollama", "static", or "" (no embedder: BM25-only)
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	RerankProvider string `yaml:"rerank_provider" json:"rerank_provider"` // "noop", "http", or ""
	RerankURL      string `yaml:"rerank_url" json:"rerank_url"`
}

// LSPConfig configures the language-server bridge and the documentation
// tree it is paired with.
type LSPConfig struct {
	SourceDirName   string `yaml:"source_dir_name" json:"source_dir_name"`     // e.g. "cangjie"
	SourceExtension string `yaml:"source_extension" json:"source_extension"`   // e.g. ".cj"
	SDKRoot         string `yaml:"sdk_root" json:"sdk_root"`                   // language-server SDK root
	DocsLang        string `yaml:"docs_lang" json:"docs_lang"`                 // "zh" or "en"; selects the docs tree subtree
	DocsVersion     string `yaml:"docs_version" json:"docs_version"`           // tag/branch/commit/"latest"
	DocsRepoURL     string `yaml:"docs_repo_url" json:"docs_repo_url"`         // git remote for the docs tree
	PrebuiltMode    string `yaml:"prebuilt_mode" json:"prebuilt_mode"`         // "off", "version", or "auto"
	PrebuiltVersion string `yaml:"prebuilt_version" json:"prebuilt_version"`   // used when PrebuiltMode == "version"
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	RemotePeerURL   string `yaml:"remote_peer_url" json:"remote_peer_url"` // optional: use a remote DocumentSource/index instead of local

	// Language-bridge (language-server subprocess) settings.
	WorkspacePath       string `yaml:"workspace_path" json:"workspace_path"`             // project root passed to the bridge's initialize request
	LSPServerPath       string `yaml:"lsp_server_path" json:"lsp_server_path"`           // override: path to the language-server executable
	EnvSetupScript      string `yaml:"env_setup_script" json:"env_setup_script"`         // POSIX: sourced before exec'ing the server
	LogEnabled          bool   `yaml:"log_enabled" json:"log_enabled"`                   // mirror bridge stderr to the log file
	LogPath             string `yaml:"log_path" json:"log_path"`                         // bridge log file path
	InitTimeoutMs       int    `yaml:"init_timeout_ms" json:"init_timeout_ms"`           // timeout for the initialize handshake
	RequestTimeoutMs    int    `yaml:"request_timeout_ms" json:"request_timeout_ms"`     // timeout for individual LSP requests
	DisableAutoImport   bool   `yaml:"disable_auto_import" json:"disable_auto_import"`   // passed through initializationOptions
}

// ServerConfig configures the stdio MCP server and the HTTP surface.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" json:"http_addr"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude: []string{"**/.git/**"},
		},
		Search: SearchConfig{
			RRFConstant:  60,
			ChunkMaxSize: 2000,
			MaxResults:   20,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "",
			Model:      "nomic-embed-text",
			Dimensions: 0,
			BatchSize:  32,
			OllamaHost: "http://localhost:11434",

			RerankProvider: "noop",
		},
		LSP: LSPConfig{
			SourceDirName:    "cangjie",
			SourceExtension:  ".cj",
			DocsLang:         "zh",
			DocsVersion:      "latest",
			PrebuiltMode:     "off",
			DataDir:          defaultDataDir(),
			InitTimeoutMs:    30000,
			RequestTimeoutMs: 10000,
		},
		Server: ServerConfig{
			HTTPAddr: ":8765",
			LogLevel: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".cjdocs")
	}
	return filepath.Join(home, ".cjdocs")
}

// GetUserConfigPath returns the user/global configuration path, honoring
// XDG_CONFIG_HOME when set.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cjdocs", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cjdocs", "config.yaml")
	}
	return filepath.Join(home, ".config", "cjdocs", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string { return filepath.Dir(GetUserConfigPath()) }

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool { return fileExists(GetUserConfigPath()) }

// LoadUserConfig loads the user/global configuration file, if present.
// Returns (nil, nil) when absent — that is not an error.
func LoadUserConfig() (*Config, error) { return loadUserConfig() }

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves configuration in order of increasing precedence:
//  1. hardcoded defaults
//  2. user/global config (~/.config/cjdocs/config.yaml)
//  3. project config (.cjdocs.yaml in dir)
//  4. environment variables (CJDOCS_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".cjdocs.yaml", ".cjdocs.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.ChunkMaxSize != 0 {
		c.Search.ChunkMaxSize = other.Search.ChunkMaxSize
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.VectorAccelerator {
		c.Search.VectorAccelerator = true
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.RerankProvider != "" {
		c.Embeddings.RerankProvider = other.Embeddings.RerankProvider
	}
	if other.Embeddings.RerankURL != "" {
		c.Embeddings.RerankURL = other.Embeddings.RerankURL
	}

	if other.LSP.SourceDirName != "" {
		c.LSP.SourceDirName = other.LSP.SourceDirName
	}
	if other.LSP.SourceExtension != "" {
		c.LSP.SourceExtension = other.LSP.SourceExtension
	}
	if other.LSP.SDKRoot != "" {
		c.LSP.SDKRoot = other.LSP.SDKRoot
	}
	if other.LSP.DocsLang != "" {
		c.LSP.DocsLang = other.LSP.DocsLang
	}
	if other.LSP.DocsVersion != "" {
		c.LSP.DocsVersion = other.LSP.DocsVersion
	}
	if other.LSP.DocsRepoURL != "" {
		c.LSP.DocsRepoURL = other.LSP.DocsRepoURL
	}
	if other.LSP.PrebuiltMode != "" {
		c.LSP.PrebuiltMode = other.LSP.PrebuiltMode
	}
	if other.LSP.PrebuiltVersion != "" {
		c.LSP.PrebuiltVersion = other.LSP.PrebuiltVersion
	}
	if other.LSP.DataDir != "" {
		c.LSP.DataDir = other.LSP.DataDir
	}
	if other.LSP.RemotePeerURL != "" {
		c.LSP.RemotePeerURL = other.LSP.RemotePeerURL
	}
	if other.LSP.WorkspacePath != "" {
		c.LSP.WorkspacePath = other.LSP.WorkspacePath
	}
	if other.LSP.LSPServerPath != "" {
		c.LSP.LSPServerPath = other.LSP.LSPServerPath
	}
	if other.LSP.EnvSetupScript != "" {
		c.LSP.EnvSetupScript = other.LSP.EnvSetupScript
	}
	if other.LSP.LogEnabled {
		c.LSP.LogEnabled = true
	}
	if other.LSP.LogPath != "" {
		c.LSP.LogPath = other.LSP.LogPath
	}
	if other.LSP.InitTimeoutMs != 0 {
		c.LSP.InitTimeoutMs = other.LSP.InitTimeoutMs
	}
	if other.LSP.RequestTimeoutMs != 0 {
		c.LSP.RequestTimeoutMs = other.LSP.RequestTimeoutMs
	}
	if other.LSP.DisableAutoImport {
		c.LSP.DisableAutoImport = true
	}

	if other.Server.HTTPAddr != "" {
		c.Server.HTTPAddr = other.Server.HTTPAddr
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies CJDOCS_* environment variables, the highest
// precedence tier.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CJDOCS_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("CJDOCS_CHUNK_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.ChunkMaxSize = n
		}
	}
	if v := os.Getenv("CJDOCS_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CJDOCS_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CJDOCS_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("CJDOCS_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CJDOCS_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("CJDOCS_DOCS_VERSION"); v != "" {
		c.LSP.DocsVersion = v
	}
	if v := os.Getenv("CJDOCS_DATA_DIR"); v != "" {
		c.LSP.DataDir = v
	}
	if v := os.Getenv("CJDOCS_PREBUILT_MODE"); v != "" {
		c.LSP.PrebuiltMode = v
	}
	if v := os.Getenv("CJDOCS_SDK_ROOT"); v != "" {
		c.LSP.SDKRoot = v
	}
	if v := os.Getenv("CJDOCS_DOCS_LANG"); v != "" {
		c.LSP.DocsLang = v
	}
	if v := os.Getenv("CJDOCS_REMOTE_PEER_URL"); v != "" {
		c.LSP.RemotePeerURL = v
	}
	if v := os.Getenv("CJDOCS_WORKSPACE_PATH"); v != "" {
		c.LSP.WorkspacePath = v
	}
	if v := os.Getenv("CJDOCS_LSP_SERVER_PATH"); v != "" {
		c.LSP.LSPServerPath = v
	}
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.ChunkMaxSize <= 0 {
		return fmt.Errorf("search.chunk_max_size must be positive, got %d", c.Search.ChunkMaxSize)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}

	if c.Embeddings.Provider != "" {
		valid := map[string]bool{"ollama": true, "static": true}
		if !valid[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'ollama', 'static', or empty (no embedder), got %q", c.Embeddings.Provider)
		}
	}

	validLangs := map[string]bool{"zh": true, "en": true}
	if !validLangs[strings.ToLower(c.LSP.DocsLang)] {
		return fmt.Errorf("lsp.docs_lang must be 'zh' or 'en', got %q", c.LSP.DocsLang)
	}

	validPrebuilt := map[string]bool{"off": true, "version": true, "auto": true}
	if !validPrebuilt[strings.ToLower(c.LSP.PrebuiltMode)] {
		return fmt.Errorf("lsp.prebuilt_mode must be 'off', 'version', or 'auto', got %q", c.LSP.PrebuiltMode)
	}
	if strings.EqualFold(c.LSP.PrebuiltMode, "version") && c.LSP.PrebuiltVersion == "" {
		return fmt.Errorf("lsp.prebuilt_version is required when lsp.prebuilt_mode is 'version'")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %q", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindProjectRoot walks up from startDir looking for .git or .cjdocs.yaml(.yml).
func FindProjectRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	dir := abs
	for {
		if dirExists(filepath.Join(dir, ".git")) ||
			fileExists(filepath.Join(dir, ".cjdocs.yaml")) ||
			fileExists(filepath.Join(dir, ".cjdocs.yml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
