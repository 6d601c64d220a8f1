package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
)

// Note: newTestServer, stubIndex, stubDocs, newTestDocs are defined in server_test.go.

func newCjFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cj")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Since no SDK root is configured in these tests, getLSPClient always fails
// validation, so every LSP handler resolves to its errOutput path rather
// than reaching a live cangjie-lsp. This still exercises the file-validation
// and "LSP not available" message plumbing that resolveLSPPosition and
// getLSPClient are responsible for.

func TestLspDefinitionHandler_MissingFile_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)

	_, out, err := srv.mcpLspDefinitionHandler(context.Background(), nil, LspSymbolInput{
		FilePath: "/nonexistent/path/main.cj",
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "File not found")
}

func TestLspDefinitionHandler_WrongExtension_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0644))

	_, out, err := srv.mcpLspDefinitionHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, ".cj")
}

func TestLspDefinitionHandler_ValidFile_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspDefinitionHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestLspReferencesHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspReferencesHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestLspHoverHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspHoverHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.NotEmpty(t, out.Message)
}

func TestLspSymbolsHandler_MissingFile_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)

	_, out, err := srv.mcpLspSymbolsHandler(context.Background(), nil, LspFileInput{
		FilePath: "/nonexistent/main.cj",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "File not found")
}

func TestLspSymbolsHandler_ValidFile_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspSymbolsHandler(context.Background(), nil, LspFileInput{FilePath: path})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestLspDiagnosticsHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspDiagnosticsHandler(context.Background(), nil, LspFileInput{FilePath: path})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestLspWorkspaceSymbolHandler_EmptyQuery_ReturnsInvalidParams(t *testing.T) {
	srv := newTestServer(t)

	_, _, err := srv.mcpLspWorkspaceSymbolHandler(context.Background(), nil, LspWorkspaceSymbolInput{Query: ""})

	require.Error(t, err)
	var mcpErr *MCPError
	if assert.ErrorAs(t, err, &mcpErr) {
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	}
}

func TestLspWorkspaceSymbolHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)

	_, out, err := srv.mcpLspWorkspaceSymbolHandler(context.Background(), nil, LspWorkspaceSymbolInput{Query: "main"})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestLspIncomingCallsHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspIncomingCallsHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.NotEmpty(t, out.Message)
}

func TestLspOutgoingCallsHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspOutgoingCallsHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "main",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.NotEmpty(t, out.Message)
}

func TestLspTypeSupertypesHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "class Foo {}\n")

	_, out, err := srv.mcpLspTypeSupertypesHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "Foo",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.NotEmpty(t, out.Message)
}

func TestLspTypeSubtypesHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "class Foo {}\n")

	_, out, err := srv.mcpLspTypeSubtypesHandler(context.Background(), nil, LspSymbolInput{
		FilePath: path,
		Symbol:   "Foo",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.NotEmpty(t, out.Message)
}

func TestLspRenameHandler_EmptyNewName_ReturnsInvalidParams(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, _, err := srv.mcpLspRenameHandler(context.Background(), nil, LspRenameInput{
		FilePath: path,
		Symbol:   "main",
		NewName:  "",
	})

	require.Error(t, err)
	var mcpErr *MCPError
	if assert.ErrorAs(t, err, &mcpErr) {
		assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	}
}

func TestLspRenameHandler_NoLSPAvailable_ReturnsMessage(t *testing.T) {
	srv := newTestServer(t)
	path := newCjFile(t, "func main(): Unit {}\n")

	_, out, err := srv.mcpLspRenameHandler(context.Background(), nil, LspRenameInput{
		FilePath: path,
		Symbol:   "main",
		NewName:  "run",
	})

	require.NoError(t, err)
	assert.Nil(t, out.Result)
	assert.Contains(t, out.Message, "LSP is not available")
}

func TestGetLSPClient_ReuseAcrossCalls_BothFailIdentically(t *testing.T) {
	// Given: a server with no SDK configured, so every LSP call fails
	// validation the same deterministic way.
	cfg := config.NewConfig()
	srv, err := NewServer(&stubIndex{}, newTestDocs(), cfg, t.TempDir())
	require.NoError(t, err)

	_, msg1 := srv.getLSPClient(context.Background())
	_, msg2 := srv.getLSPClient(context.Background())

	assert.Equal(t, msg1, msg2)
	assert.Contains(t, msg1, "LSP is not available")
}
