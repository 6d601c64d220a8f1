package depresolve

import (
	"log/slog"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Aman-CERP/cjdocs-bridge/internal/uriutil"
)

// Resolver walks a workspace's cjpm.toml manifests and builds the module
// dependency graph, following path/git/version dependencies and tracking
// visited module URIs to break cycles. Grounded on dependency.rs's
// DependencyResolver.
type Resolver struct {
	workspacePath string
	log           *slog.Logger

	modules     map[string]ModuleOption
	existed     map[string]struct{}
	rootLock    *cjpmLock
	rootLockSet bool
	requirePath string
}

// NewResolver builds a resolver rooted at workspacePath.
func NewResolver(workspacePath string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{workspacePath: workspacePath, log: log}
}

// Resolve walks the workspace and returns every module reachable from it,
// keyed by file:// URI. Safe to call repeatedly; each call starts fresh.
func (r *Resolver) Resolve() map[string]ModuleOption {
	r.modules = make(map[string]ModuleOption)
	r.existed = make(map[string]struct{})
	r.rootLock = nil
	r.rootLockSet = false
	r.requirePath = ""

	r.getMultiModuleOption()
	return r.modules
}

// RequirePath returns the FFI C-module search path assembled during the
// last Resolve call, joined by the platform path-list separator.
func (r *Resolver) RequirePath() string {
	return r.requirePath
}

func (r *Resolver) getMultiModuleOption() {
	tomlPath := filepath.Join(r.workspacePath, cjpmTomlFile)
	cjpm, md, ok := loadCjpmToml(tomlPath)
	if !ok {
		r.processPackageMode()
		return
	}

	if cjpm.Workspace != nil && cjpm.Package != nil {
		r.log.Warn("both workspace and package fields found in cjpm.toml", "path", tomlPath)
		return
	}

	if cjpm.Workspace != nil && len(cjpm.Workspace.Members) > 0 {
		r.processWorkspaceMode(cjpm, md)
		return
	}

	r.processPackageMode()
}

func (r *Resolver) processWorkspaceMode(cjpm cjpmToml, md toml.MetaData) {
	base := r.workspacePath

	rootRequires := r.getRequires(cjpm.Dependencies, md, base)
	rootPkgRequires := PackageRequires{}
	if len(cjpm.Target) > 0 {
		rootPkgRequires = r.getTargetsPackageRequires(cjpm.Target, base)
	}

	members := r.getMembers(cjpm.Workspace, base)
	for _, memberPath := range members {
		r.findAllToml(memberPath, "")
	}

	for _, memberPath := range members {
		memberURI := uriutil.PathToURI(memberPath)
		mod, ok := r.modules[memberURI]
		if !ok {
			continue
		}
		for k, v := range rootRequires {
			if _, exists := mod.Requires[k]; !exists {
				mod.Requires[k] = v
			}
		}
		if mod.PackageRequires == nil {
			mod.PackageRequires = &PackageRequires{PackageOption: make(map[string]string)}
		}
		for k, v := range rootPkgRequires.PackageOption {
			if _, exists := mod.PackageRequires.PackageOption[k]; !exists {
				mod.PackageRequires.PackageOption[k] = v
			}
		}
		mod.PackageRequires.PathOption = uriutil.MergeUniqueStrings(mod.PackageRequires.PathOption, rootPkgRequires.PathOption)
		r.modules[memberURI] = mod
	}
}

func (r *Resolver) processPackageMode() {
	r.findAllToml(r.workspacePath, "")
}

func (r *Resolver) getMembers(ws *cjpmWorkspace, basePath string) []string {
	var valid []string
	for _, member := range ws.Members {
		resolved := uriutil.GetRealPath(member)
		path := uriutil.NormalizePath(resolved, basePath)
		if pathExists(path) {
			valid = append(valid, path)
		} else {
			r.log.Warn("workspace member not found", "member", member)
		}
	}
	return valid
}

// findAllToml loads module_path's cjpm.toml (if any) and recursively
// follows its path dependencies, guarding against cycles via r.existed.
func (r *Resolver) findAllToml(modulePath, expectedName string) {
	moduleURI := uriutil.PathToURI(modulePath)

	if _, seen := r.existed[moduleURI]; seen {
		return
	}
	r.existed[moduleURI] = struct{}{}

	tomlPath := filepath.Join(modulePath, cjpmTomlFile)
	module := newModuleOption()

	if !pathExists(tomlPath) {
		r.modules[moduleURI] = module
		return
	}

	cjpm, md, ok := loadCjpmToml(tomlPath)
	if !ok {
		r.log.Warn("invalid cjpm.toml", "module", moduleURI)
		r.modules[moduleURI] = module
		return
	}

	if cjpm.Workspace != nil {
		r.log.Warn("workspace field not allowed in a sub-module", "path", tomlPath)
		r.modules[moduleURI] = module
		return
	}

	switch {
	case cjpm.Package != nil && cjpm.Package.Name != "":
		if expectedName != "" && cjpm.Package.Name != expectedName {
			r.log.Warn("module name mismatch", "expected", expectedName, "got", cjpm.Package.Name)
		}
		module.Name = cjpm.Package.Name
	default:
		module.Name = filepath.Base(modulePath)
	}

	r.findDependencies(cjpm, md, &module, modulePath)

	r.modules[moduleURI] = module
}

func (r *Resolver) findDependencies(cjpm cjpmToml, md toml.MetaData, module *ModuleOption, modulePath string) {
	if len(cjpm.Target) > 0 {
		pkgReqs := r.getTargetsPackageRequires(cjpm.Target, modulePath)
		if module.PackageRequires == nil {
			module.PackageRequires = &PackageRequires{PackageOption: make(map[string]string)}
		}
		for k, v := range pkgReqs.PackageOption {
			module.PackageRequires.PackageOption[k] = v
		}
		module.PackageRequires.PathOption = uriutil.MergeUniqueStrings(module.PackageRequires.PathOption, pkgReqs.PathOption)
	}

	if cjpm.Ffi != nil {
		for _, cModule := range cjpm.Ffi.C {
			if cModule.Path == "" {
				continue
			}
			resolved := uriutil.NormalizePath(cModule.Path, modulePath)
			r.appendRequirePath(resolved)
		}
	}

	for k, v := range r.getRequires(cjpm.Dependencies, md, modulePath) {
		module.Requires[k] = v
	}
	for k, v := range r.getRequires(cjpm.DevDependencies, md, modulePath) {
		module.Requires[k] = v
	}
	for _, targetConfig := range cjpm.Target {
		for k, v := range r.getRequires(targetConfig.Dependencies, md, modulePath) {
			module.Requires[k] = v
		}
		for k, v := range r.getRequires(targetConfig.DevDependencies, md, modulePath) {
			module.Requires[k] = v
		}
	}
}

func (r *Resolver) appendRequirePath(resolved string) {
	if containsSubpath(r.requirePath, resolved) {
		return
	}
	if r.requirePath != "" {
		r.requirePath += string(filepath.ListSeparator)
	}
	r.requirePath += resolved
}

func (r *Resolver) getRequires(deps map[string]cjpmDepValue, md toml.MetaData, modulePath string) map[string]Dependency {
	result := make(map[string]Dependency, len(deps))

	for name, raw := range deps {
		if config, ok := asConfig(md, raw); ok && (config.Path != "" || config.Git != "") {
			if config.Path != "" {
				resolved := uriutil.NormalizePath(config.Path, modulePath)
				uri := uriutil.PathToURI(resolved)
				result[name] = Dependency{Path: uri}
				r.findAllToml(resolved, name)
			} else if config.Git != "" {
				if dep, ok := r.resolveGitDep(name); ok {
					result[name] = dep
				}
			}
			continue
		}
		if version, ok := asVersion(md, raw); ok {
			if dep, ok := r.resolveVersionDep(name, version); ok {
				result[name] = dep
			}
		}
	}

	return result
}

func (r *Resolver) resolveGitDep(name string) (Dependency, bool) {
	if !r.rootLockSet {
		lockPath := filepath.Join(r.workspacePath, cjpmLockFile)
		r.rootLock, _ = loadCjpmLock(lockPath)
		r.rootLockSet = true
	}

	if r.rootLock == nil {
		return Dependency{}, false
	}
	req, ok := r.rootLock.Requires[name]
	if !ok || req.CommitID == "" {
		return Dependency{}, false
	}

	gitPath := filepath.Join(getCjpmConfigPath(cjpmGitSubdir), name, req.CommitID)
	if !pathExists(gitPath) {
		return Dependency{}, false
	}
	uri := uriutil.PathToURI(gitPath)
	r.findAllToml(gitPath, name)
	return Dependency{Path: uri}, true
}

func (r *Resolver) resolveVersionDep(name, version string) (Dependency, bool) {
	repoPath := filepath.Join(getCjpmConfigPath(cjpmRepositorySubdir), name, version)
	if !pathExists(repoPath) {
		return Dependency{}, false
	}
	uri := uriutil.PathToURI(repoPath)
	r.findAllToml(repoPath, name)
	return Dependency{Path: uri}, true
}

func (r *Resolver) getTargetsPackageRequires(targets map[string]cjpmTargetConfig, modulePath string) PackageRequires {
	result := PackageRequires{PackageOption: make(map[string]string)}

	for _, targetConfig := range targets {
		if targetConfig.BinDependencies == nil {
			continue
		}
		for name, pathStr := range targetConfig.BinDependencies.PackageOption {
			resolved := uriutil.NormalizePath(pathStr, modulePath)
			result.PackageOption[name] = uriutil.PathToURI(resolved)
		}
		for _, pathStr := range targetConfig.BinDependencies.PathOption {
			resolved := uriutil.NormalizePath(pathStr, modulePath)
			uri := uriutil.PathToURI(resolved)
			if !containsString(result.PathOption, uri) {
				result.PathOption = append(result.PathOption, uri)
			}
		}
	}

	return result
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

func containsSubpath(requirePath, resolved string) bool {
	if requirePath == "" {
		return false
	}
	for _, part := range filepath.SplitList(requirePath) {
		if part == resolved {
			return true
		}
	}
	return false
}
