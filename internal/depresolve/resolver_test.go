package depresolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cjdocs-bridge/internal/uriutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolver_NoCjpmToml(t *testing.T) {
	ws := t.TempDir()
	modules := NewResolver(ws, nil).Resolve()

	assert.Len(t, modules, 1)
	mod, ok := modules[uriutil.PathToURI(ws)]
	require.True(t, ok)
	assert.Empty(t, mod.Requires)
}

func TestResolver_SimplePackage(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), "[package]\nname = \"myapp\"\n")

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(ws)]
	assert.Equal(t, "myapp", mod.Name)
	assert.Empty(t, mod.Requires)
}

func TestResolver_PathDependency(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "parent"

[dependencies.childlib]
path = "childlib"
`)
	childDir := filepath.Join(ws, "childlib")
	writeFile(t, filepath.Join(childDir, cjpmTomlFile), "[package]\nname = \"childlib\"\n")

	modules := NewResolver(ws, nil).Resolve()
	assert.Len(t, modules, 2)

	parent := modules[uriutil.PathToURI(ws)]
	assert.Equal(t, "parent", parent.Name)
	dep, ok := parent.Requires["childlib"]
	require.True(t, ok)
	assert.Equal(t, uriutil.PathToURI(childDir), dep.Path)

	child := modules[uriutil.PathToURI(childDir)]
	assert.Equal(t, "childlib", child.Name)
}

func TestResolver_CycleDetection(t *testing.T) {
	ws := t.TempDir()
	pkgA := filepath.Join(ws, "pkg_a")
	pkgB := filepath.Join(ws, "pkg_b")

	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "root"

[dependencies.pkg_a]
path = "pkg_a"
`)
	writeFile(t, filepath.Join(pkgA, cjpmTomlFile), `
[package]
name = "pkg_a"

[dependencies.pkg_b]
path = "../pkg_b"
`)
	writeFile(t, filepath.Join(pkgB, cjpmTomlFile), `
[package]
name = "pkg_b"

[dependencies.pkg_a]
path = "../pkg_a"
`)

	modules := NewResolver(ws, nil).Resolve()
	assert.Len(t, modules, 3)
	assert.Contains(t, modules, uriutil.PathToURI(ws))
	assert.Contains(t, modules, uriutil.PathToURI(pkgA))
	assert.Contains(t, modules, uriutil.PathToURI(pkgB))
}

func TestResolver_WorkspaceMode(t *testing.T) {
	ws := t.TempDir()
	pkgA := filepath.Join(ws, "pkg_a")

	writeFile(t, filepath.Join(ws, cjpmTomlFile), "[workspace]\nmembers = [\"pkg_a\"]\n")
	writeFile(t, filepath.Join(pkgA, cjpmTomlFile), "[package]\nname = \"pkg_a\"\n")

	modules := NewResolver(ws, nil).Resolve()
	mod, ok := modules[uriutil.PathToURI(pkgA)]
	require.True(t, ok)
	assert.Equal(t, "pkg_a", mod.Name)
}

func TestResolver_WorkspaceRootDepsMergeIntoMembers(t *testing.T) {
	ws := t.TempDir()
	pkgA := filepath.Join(ws, "pkg_a")
	lib := filepath.Join(ws, "sharedlib")

	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[workspace]
members = ["pkg_a"]

[dependencies.sharedlib]
path = "sharedlib"
`)
	writeFile(t, filepath.Join(pkgA, cjpmTomlFile), "[package]\nname = \"pkg_a\"\n")
	writeFile(t, filepath.Join(lib, cjpmTomlFile), "[package]\nname = \"sharedlib\"\n")

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(pkgA)]
	assert.Contains(t, mod.Requires, "sharedlib")
}

func TestResolver_DevDependenciesMergeIntoRequires(t *testing.T) {
	ws := t.TempDir()
	dev := filepath.Join(ws, "testlib")

	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "myapp"

[dev-dependencies.testlib]
path = "testlib"
`)
	writeFile(t, filepath.Join(dev, cjpmTomlFile), "[package]\nname = \"testlib\"\n")

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(ws)]
	dep, ok := mod.Requires["testlib"]
	require.True(t, ok)
	assert.Equal(t, uriutil.PathToURI(dev), dep.Path)
}

func TestResolver_FfiCDependencyAddsRequirePath(t *testing.T) {
	ws := t.TempDir()
	native := filepath.Join(ws, "native", "mylib")
	require.NoError(t, os.MkdirAll(native, 0o755))

	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "myapp"

[ffi.c.mylib]
path = "native/mylib"
`)

	r := NewResolver(ws, nil)
	r.Resolve()
	assert.Contains(t, r.RequirePath(), native)
}

func TestResolver_NoFfiDeps_RequirePathEmpty(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), "[package]\nname = \"myapp\"\n")

	r := NewResolver(ws, nil)
	r.Resolve()
	assert.Empty(t, r.RequirePath())
}

func TestResolver_BothWorkspaceAndPackage_EmptyResult(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "myapp"

[workspace]
members = ["sub"]
`)

	modules := NewResolver(ws, nil).Resolve()
	assert.Empty(t, modules)
}

func TestResolver_VersionDependencyWithoutRepo_NotResolved(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "myapp"

[dependencies]
somelib = "1.0.0"
`)

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(ws)]
	assert.NotContains(t, mod.Requires, "somelib")
}

func TestResolver_GitDependencyWithoutLock_NotResolved(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), `
[package]
name = "myapp"

[dependencies.gitlib]
git = "https://example.com/gitlib.git"
`)

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(ws)]
	assert.NotContains(t, mod.Requires, "gitlib")
}

func TestResolver_EmptyPackageName_FallsBackToDirName(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), "[package]\nname = \"\"\n")

	modules := NewResolver(ws, nil).Resolve()
	mod := modules[uriutil.PathToURI(ws)]
	assert.Equal(t, filepath.Base(ws), mod.Name)
}

func TestResolver_ResolveIsIdempotentAcrossCalls(t *testing.T) {
	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, cjpmTomlFile), "[package]\nname = \"myapp\"\n")

	r := NewResolver(ws, nil)
	first := r.Resolve()
	second := r.Resolve()
	assert.Equal(t, len(first), len(second))
}
