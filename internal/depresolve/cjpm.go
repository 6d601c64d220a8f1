// Package depresolve walks a Cangjie workspace's cjpm.toml manifests to
// build a module dependency graph: path, git, and registry dependencies
// resolved to file:// URIs, with cycle detection across both package-mode
// and workspace-mode layouts. Grounded on
// original_source/cangjie-mcp/src/lsp/{dependency,utils}.rs.
package depresolve

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	cjpmDefaultDir       = ".cjpm"
	cjpmGitSubdir        = "git"
	cjpmRepositorySubdir = "repository"
	cjpmTomlFile         = "cjpm.toml"
	cjpmLockFile         = "cjpm.lock"
)

// Dependency is a resolved module dependency: the file:// URI of the
// directory holding its own cjpm.toml.
type Dependency struct {
	Path string `json:"path"`
}

// PackageRequires holds a module's bin-dependencies, split between named
// package mappings and bare search paths.
type PackageRequires struct {
	PackageOption map[string]string `json:"package_option,omitempty"`
	PathOption    []string          `json:"path_option,omitempty"`
}

// ModuleOption is one resolved module in the dependency graph, keyed by
// its file:// URI in the resolver's output map.
type ModuleOption struct {
	Name            string                `json:"name"`
	Requires        map[string]Dependency `json:"requires"`
	PackageRequires *PackageRequires      `json:"package_requires,omitempty"`
	JavaRequires    []string              `json:"java_requires,omitempty"`
}

func newModuleOption() ModuleOption {
	return ModuleOption{Requires: make(map[string]Dependency)}
}

// cjpmDepValue is a dependency entry deferred as a raw TOML primitive,
// since it is either a bare version string ("1.0.3") or an inline table
// ({ path = "..." } / { git = "..." }) and must be classified after
// decoding by trying both shapes.
type cjpmDepValue = toml.Primitive

type cjpmDepConfig struct {
	Path    string `toml:"path"`
	Git     string `toml:"git"`
	Tag     string `toml:"tag"`
	Branch  string `toml:"branch"`
	Version string `toml:"version"`
}

// asVersion/asConfig classify a raw TOML dependency value. A plain string
// decodes cleanly into a Go string; anything else (an inline table) is
// decoded into cjpmDepConfig instead.
func asVersion(md toml.MetaData, raw cjpmDepValue) (string, bool) {
	var s string
	if err := md.PrimitiveDecode(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asConfig(md toml.MetaData, raw cjpmDepValue) (cjpmDepConfig, bool) {
	var c cjpmDepConfig
	if err := md.PrimitiveDecode(raw, &c); err != nil {
		return cjpmDepConfig{}, false
	}
	return c, true
}

type cjpmPackage struct {
	Name      string `toml:"name"`
	TargetDir string `toml:"target-dir"`
}

type cjpmWorkspace struct {
	Members []string `toml:"members"`
}

type cjpmBinDependencies struct {
	PathOption    []string          `toml:"path-option"`
	PackageOption map[string]string `toml:"package-option"`
}

type cjpmTargetConfig struct {
	Dependencies    map[string]cjpmDepValue `toml:"dependencies"`
	DevDependencies map[string]cjpmDepValue `toml:"dev-dependencies"`
	BinDependencies *cjpmBinDependencies    `toml:"bin-dependencies"`
}

type cjpmCModule struct {
	Path string `toml:"path"`
}

type cjpmFfi struct {
	C map[string]cjpmCModule `toml:"c"`
}

type cjpmToml struct {
	Package         *cjpmPackage                `toml:"package"`
	Workspace       *cjpmWorkspace              `toml:"workspace"`
	Dependencies    map[string]cjpmDepValue     `toml:"dependencies"`
	DevDependencies map[string]cjpmDepValue     `toml:"dev-dependencies"`
	Target          map[string]cjpmTargetConfig `toml:"target"`
	Ffi             *cjpmFfi                    `toml:"ffi"`
}

type cjpmLockRequire struct {
	CommitID string `toml:"commitId"`
}

type cjpmLock struct {
	Requires map[string]cjpmLockRequire `toml:"requires"`
}

// loadCjpmToml parses a cjpm.toml manifest. The returned MetaData is
// needed alongside the struct to later classify each dependency's raw
// toml.Primitive value as either a version string or an inline table.
func loadCjpmToml(path string) (cjpmToml, toml.MetaData, bool) {
	if _, err := os.Stat(path); err != nil {
		return cjpmToml{}, toml.MetaData{}, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cjpmToml{}, toml.MetaData{}, false
	}
	var c cjpmToml
	md, err := toml.Decode(string(content), &c)
	if err != nil {
		return cjpmToml{}, toml.MetaData{}, false
	}
	return c, md, true
}

func loadCjpmLock(path string) (*cjpmLock, bool) {
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var l cjpmLock
	if _, err := toml.Decode(string(content), &l); err != nil {
		return nil, false
	}
	return &l, true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func getCjpmConfigPath(subdir string) string {
	if configured, ok := os.LookupEnv("CJPM_CONFIG"); ok {
		return filepath.Join(configured, subdir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, cjpmDefaultDir, subdir)
}
