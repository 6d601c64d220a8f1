package lspbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
	"github.com/Aman-CERP/cjdocs-bridge/internal/uriutil"
)

const defaultRequestTimeout = 30 * time.Second

// Client is the language-server-bridge connection: one subprocess, its
// framed stdio transport, and the JSON-RPC request/response bookkeeping
// jsonrpsee provided in the original. Grounded on
// original_source/cangjie-mcp/src/lsp/client.rs's CangjieClient.
type Client struct {
	cmd       *exec.Cmd
	transport *transport

	pendingMu sync.Mutex
	pending   map[int64]chan rpcMessage
	nextID    atomic.Int64

	openFiles sync.Map // uri string -> struct{}

	initialized atomic.Bool
	requestTimeout time.Duration

	breaker *cjerrors.CircuitBreaker
}

// Start spawns the language-server subprocess via the platform shell
// wrapper, wires up the transport goroutines, and performs the
// initialize/initialized handshake, matching CangjieClient::start.
func Start(ctx context.Context, settings Settings, initOpts InitOptions, requirePath string) (*Client, error) {
	cmd, err := buildShellCommand(settings, requirePath)
	if err != nil {
		return nil, cjerrors.Transport("build lsp shell command", err)
	}
	cmd.Dir = settings.WorkspacePath

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, cjerrors.Transport("open lsp stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, cjerrors.Transport("open lsp stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, cjerrors.Transport("open lsp stderr pipe", err)
	}

	slog.Info("lsp_starting", slog.String("sdk", settings.SDKPath))
	if err := cmd.Start(); err != nil {
		return nil, cjerrors.Transport("start lsp server process", err)
	}

	c := &Client{
		cmd:            cmd,
		pending:        make(map[int64]chan rpcMessage),
		requestTimeout: timeoutOrDefault(settings.RequestTimeoutMs),
		breaker:        cjerrors.NewCircuitBreaker("lsp-bridge"),
	}
	c.transport = newTransport(stdin, c.handleResponse, nil)

	go c.transport.stdinTask()
	go c.transport.stdoutReaderTask(stdout)
	go stderrTask(stderr)
	go c.processMonitor()

	initCtx := ctx
	var cancel context.CancelFunc
	if ms := settings.InitTimeoutMs; ms > 0 {
		initCtx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}
	if err := c.initialize(initCtx, settings, initOpts); err != nil {
		c.transport.close()
		return nil, err
	}
	return c, nil
}

func timeoutOrDefault(ms int) time.Duration {
	if ms <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) processMonitor() {
	err := c.cmd.Wait()
	c.transport.running.Store(false)
	if err != nil {
		slog.Error("lsp_process_exited", slog.String("error", err.Error()))
	} else {
		slog.Info("lsp_process_exited_normally")
	}
}

// handleResponse delivers a decoded response frame to the goroutine waiting
// on its request id.
func (c *Client) handleResponse(msg rpcMessage) {
	var id int64
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		return
	}
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- msg
	}
}

// request sends a JSON-RPC request and blocks for its response or ctx/timeout.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal lsp request %s: %w", method, err)
	}

	ch := make(chan rpcMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if err := c.transport.send(string(raw)); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		c.breaker.RecordFailure()
		return nil, cjerrors.Transport(fmt.Sprintf("lsp request %s", method), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, cjerrors.Transport(fmt.Sprintf("lsp request %s", method), resp.Error)
		}
		c.breaker.RecordSuccess()
		return resp.Result, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		c.breaker.RecordFailure()
		return nil, cjerrors.New(cjerrors.ErrCodeRequestTimeout, fmt.Sprintf("lsp request %s timed out", method), ctx.Err())
	}
}

func (c *Client) notify(method string, params any) error {
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal lsp notification %s: %w", method, err)
	}
	if err := c.transport.send(string(raw)); err != nil {
		return cjerrors.Transport(fmt.Sprintf("lsp notification %s", method), err)
	}
	return nil
}

func (c *Client) initialize(ctx context.Context, settings Settings, initOpts InitOptions) error {
	rootURI := uriutil.PathToURI(settings.WorkspacePath)
	workspaceName := filepath.Base(settings.WorkspacePath)
	if workspaceName == "" || workspaceName == "." {
		workspaceName = "workspace"
	}

	params := map[string]any{
		"processId": os.Getpid(),
		"clientInfo": map[string]any{
			"name":    "cjdocs-bridge",
			"version": "1",
		},
		"rootUri":  rootURI,
		"rootPath": settings.WorkspacePath,
		"workspaceFolders": []map[string]any{
			{"uri": rootURI, "name": workspaceName},
		},
		"initializationOptions": initOpts,
		"capabilities":           buildClientCapabilities(),
		"trace":                  "off",
	}

	slog.Debug("lsp_initialize")
	if _, err := c.request(ctx, "initialize", params); err != nil {
		return fmt.Errorf("lsp initialization failed: %w", err)
	}

	slog.Debug("lsp_initialized")
	if err := c.notify("initialized", map[string]any{}); err != nil {
		return fmt.Errorf("lsp initialized notification failed: %w", err)
	}

	c.initialized.Store(true)
	slog.Info("lsp_client_initialized")
	return nil
}

// IsInitialized reports whether the initialize handshake completed.
func (c *Client) IsInitialized() bool { return c.initialized.Load() }

// IsRunning reports whether the subprocess and transport are still alive.
func (c *Client) IsRunning() bool { return c.transport.running.Load() }

// IsAlive reports whether the bridge is both initialized and running.
func (c *Client) IsAlive() bool { return c.IsInitialized() && c.IsRunning() }

// documentRequest sends method/params and, concurrently, a lightweight
// textDocument/documentLink request for the same uri: the Cangjie language
// server only flushes its queued diagnostics/response pipeline for a file
// when it sees a *second* request for that file arrive right behind the
// first, the way an editor naturally requests documentLink after
// documentSymbol. Grounded on client.rs's document_request.
func (c *Client) documentRequest(ctx context.Context, method string, params any, uri string) (json.RawMessage, error) {
	resultCh := make(chan struct {
		result json.RawMessage
		err    error
	}, 1)
	go func() {
		result, err := c.request(ctx, method, params)
		resultCh <- struct {
			result json.RawMessage
			err    error
		}{result, err}
	}()

	go func() {
		_, _ = c.request(ctx, "textDocument/documentLink", map[string]any{
			"textDocument": map[string]any{"uri": uri},
		})
	}()

	out := <-resultCh
	if out.err != nil {
		return nil, fmt.Errorf("lsp request %s failed: %w", method, out.err)
	}
	return out.result, nil
}

func (c *Client) ensureOpen(ctx context.Context, filePath string) (string, error) {
	uri := uriutil.PathToURI(filePath)
	if _, ok := c.openFiles.Load(uri); ok {
		return uri, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", filePath, err)
	}

	params := didOpenTextDocumentParams{
		TextDocument: didOpenTextDocumentItem{
			URI:        uri,
			LanguageID: "Cangjie",
			Version:    1,
			Text:       string(content),
		},
	}
	slog.Debug("lsp_did_open", slog.String("uri", uri))
	if err := c.notify("textDocument/didOpen", params); err != nil {
		return "", err
	}
	c.openFiles.Store(uri, struct{}{})
	return uri, nil
}

// -- LSP operations -----------------------------------------------------

func (c *Client) Definition(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return c.documentRequest(ctx, "textDocument/definition", tdPosition(uri, line, character), uri)
}

func (c *Client) References(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	params := referenceParams{
		textDocumentPositionParams: tdPosition(uri, line, character),
		Context:                    referenceContext{IncludeDeclaration: true},
	}
	return c.documentRequest(ctx, "textDocument/references", params, uri)
}

func (c *Client) Hover(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return c.documentRequest(ctx, "textDocument/hover", tdPosition(uri, line, character), uri)
}

func (c *Client) Completion(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return c.documentRequest(ctx, "textDocument/completion", tdPosition(uri, line, character), uri)
}

func (c *Client) DocumentSymbol(ctx context.Context, filePath string) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	params := documentSymbolParams{TextDocument: textDocumentIdentifier{URI: uri}}
	return c.documentRequest(ctx, "textDocument/documentSymbol", params, uri)
}

func (c *Client) WorkspaceSymbol(ctx context.Context, query string) (json.RawMessage, error) {
	return c.request(ctx, "workspace/symbol", workspaceSymbolParams{Query: query})
}

// prepareHierarchyItem runs a prepareCallHierarchy/prepareTypeHierarchy
// request and returns the first item, or nil if the server returned none.
func (c *Client) prepareHierarchyItem(ctx context.Context, method, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	raw, err := c.documentRequest(ctx, method, tdPosition(uri, line, character), uri)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (c *Client) IncomingCalls(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	item, err := c.prepareHierarchyItem(ctx, "textDocument/prepareCallHierarchy", filePath, line, character)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return json.RawMessage("[]"), nil
	}
	return c.request(ctx, "callHierarchy/incomingCalls", callHierarchyIncomingCallsParams{Item: item})
}

func (c *Client) OutgoingCalls(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	item, err := c.prepareHierarchyItem(ctx, "textDocument/prepareCallHierarchy", filePath, line, character)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return json.RawMessage("[]"), nil
	}
	return c.request(ctx, "callHierarchy/outgoingCalls", callHierarchyOutgoingCallsParams{Item: item})
}

func (c *Client) TypeSupertypes(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	item, err := c.prepareHierarchyItem(ctx, "textDocument/prepareTypeHierarchy", filePath, line, character)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return json.RawMessage("[]"), nil
	}
	return c.request(ctx, "typeHierarchy/supertypes", typeHierarchySupertypesParams{Item: item})
}

func (c *Client) TypeSubtypes(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	item, err := c.prepareHierarchyItem(ctx, "textDocument/prepareTypeHierarchy", filePath, line, character)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return json.RawMessage("[]"), nil
	}
	return c.request(ctx, "typeHierarchy/subtypes", typeHierarchySubtypesParams{Item: item})
}

func (c *Client) Rename(ctx context.Context, filePath string, line, character int, newName string) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	params := renameParams{
		textDocumentPositionParams: tdPosition(uri, line, character),
		NewName:                    newName,
	}
	return c.documentRequest(ctx, "textDocument/rename", params, uri)
}

func (c *Client) SignatureHelp(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := c.ensureOpen(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return c.documentRequest(ctx, "textDocument/signatureHelp", tdPosition(uri, line, character), uri)
}

// GetDiagnostics returns the most recently published diagnostics for
// filePath, opening it first and giving the server a moment to publish if
// it hasn't analyzed the file yet — matching the original's fixed 1s grace
// sleep after ensure_open.
func (c *Client) GetDiagnostics(ctx context.Context, filePath string) ([]json.RawMessage, error) {
	if _, err := c.ensureOpen(ctx, filePath); err != nil {
		return nil, err
	}
	select {
	case <-time.After(1 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.transport.diagnosticsFor(filePath), nil
}

// Shutdown sends the shutdown request followed by the exit notification and
// marks the transport no longer running, matching CangjieClient::shutdown.
// Failures on either call are logged, not propagated: shutdown is best-effort
// cleanup of a subprocess that may already be gone.
func (c *Client) Shutdown(ctx context.Context) error {
	slog.Debug("lsp_shutdown")
	if _, err := c.request(ctx, "shutdown", nil); err != nil {
		slog.Warn("lsp_shutdown_request_failed", slog.String("error", err.Error()))
	}

	c.transport.running.Store(false)

	slog.Debug("lsp_exit")
	if err := c.notify("exit", nil); err != nil {
		slog.Warn("lsp_exit_notification_failed", slog.String("error", err.Error()))
	}
	c.transport.close()
	return nil
}
