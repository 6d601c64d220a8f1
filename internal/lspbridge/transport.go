// Package lspbridge spawns and speaks to the Cangjie language-server
// subprocess over its Content-Length-framed JSON-RPC stdio protocol.
// Grounded on original_source/cangjie-mcp/src/lsp/{transport.rs,client.rs}:
// jsonrpsee (no Go equivalent in the example pack) is replaced with a
// hand-rolled pending-request-by-id dispatcher, but the framing, the
// drain-before-flush stdin batching, and the server-request auto-reply
// table are kept exactly.
package lspbridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Aman-CERP/cjdocs-bridge/internal/uriutil"
)

const contentLengthHeader = "Content-Length: "

// rpcMessage is the minimal envelope needed to route an incoming frame:
// a response (has "id", no "method"), a server request (has both), or a
// notification (has "method", no "id").
type rpcMessage struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("lsp error %d: %s", e.Code, e.Message)
}

// transport owns the subprocess's three pipes and the background goroutines
// that frame/deframe them. It hands complete response frames to the owning
// Client via onResponse, and notifications/diagnostics via onNotification.
type transport struct {
	stdin io.WriteCloser

	outbound chan string
	running  atomic.Bool

	onResponse     func(rpcMessage)
	onNotification func(method string, params json.RawMessage)

	diagMu      sync.Mutex
	diagnostics map[string][]json.RawMessage

	doneCh chan struct{}
}

func newTransport(stdin io.WriteCloser, onResponse func(rpcMessage), onNotification func(string, json.RawMessage)) *transport {
	t := &transport{
		stdin:          stdin,
		outbound:       make(chan string, 64),
		onResponse:     onResponse,
		onNotification: onNotification,
		diagnostics:    make(map[string][]json.RawMessage),
		doneCh:         make(chan struct{}),
	}
	t.running.Store(true)
	return t
}

// send enqueues a fully-serialized JSON-RPC message for the stdin writer.
func (t *transport) send(msg string) error {
	if !t.running.Load() {
		return fmt.Errorf("lsp outbound channel closed")
	}
	select {
	case t.outbound <- msg:
		return nil
	default:
	}
	// Channel momentarily full: block rather than drop, the writer drains
	// continuously.
	t.outbound <- msg
	return nil
}

func frame(msg string) string {
	return fmt.Sprintf("%s%d\r\n\r\n%s", contentLengthHeader, len(msg), msg)
}

// stdinTask batches every currently-pending outbound message into one
// write so the language server reads them together from one pipe-buffer
// fill — the Cangjie server only advances its diagnostics-ready state when
// it can peek the next message while processing the current one; writing
// one-at-a-time with a flush in between starves that peek.
func (t *transport) stdinTask() {
	defer close(t.doneCh)
	for msg := range t.outbound {
		var sb strings.Builder
		sb.WriteString(frame(msg))
	drain:
		for {
			select {
			case next := <-t.outbound:
				sb.WriteString(frame(next))
			default:
				break drain
			}
		}
		if _, err := io.WriteString(t.stdin, sb.String()); err != nil {
			if t.running.Load() {
				slog.Error("lsp_stdin_write_failed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (t *transport) close() {
	t.running.Store(false)
	close(t.outbound)
}

// stdoutReaderTask reads Content-Length framed messages from r until EOF or
// a read error, dispatching each to onResponse/onNotification/server-request
// auto-reply as appropriate.
func (t *transport) stdoutReaderTask(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		length, err := readContentLength(br)
		if err != nil {
			if t.running.Load() {
				slog.Error("lsp_stdout_closed_unexpectedly", slog.String("error", err.Error()))
			} else {
				slog.Debug("lsp_stdout_closed_during_shutdown")
			}
			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			if t.running.Load() {
				slog.Error("lsp_body_read_error", slog.String("error", err.Error()))
			}
			return
		}

		var msg rpcMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			slog.Error("lsp_invalid_json", slog.String("error", err.Error()))
			continue
		}
		t.dispatch(msg)
	}
}

func readContentLength(br *bufio.Reader) (int, error) {
	var length int
	haveLength := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if !haveLength {
				return 0, fmt.Errorf("lsp frame missing Content-Length header")
			}
			return length, nil
		}
		if rest, ok := strings.CutPrefix(line, contentLengthHeader); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return 0, fmt.Errorf("invalid Content-Length %q: %w", rest, err)
			}
			length = n
			haveLength = true
		}
	}
}

// dispatch routes one decoded frame: a message with both id and method is a
// server-initiated request (auto-replied), id-only is a response to one of
// our requests, method-only is a notification.
func (t *transport) dispatch(msg rpcMessage) {
	if len(msg.ID) > 0 && msg.Method != "" {
		t.handleServerRequest(msg)
		return
	}
	if len(msg.ID) > 0 {
		t.onResponse(msg)
		return
	}
	if msg.Method != "" {
		t.handleNotification(msg)
	}
}

// handleServerRequest implements the auto-reply table: workDoneProgress/create
// and registerCapability get a null result; workspace/configuration gets one
// empty object per requested item (or one, if the item count can't be read).
func (t *transport) handleServerRequest(msg rpcMessage) {
	var result any
	switch msg.Method {
	case "window/workDoneProgress/create", "client/registerCapability":
		result = nil
	case "workspace/configuration":
		result = configurationResult(msg.Params)
	default:
		slog.Debug("lsp_unhandled_server_request", slog.String("method", msg.Method))
		result = nil
	}

	resp, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(msg.ID),
		"result":  result,
	})
	if err != nil {
		return
	}
	_ = t.send(string(resp))
}

func configurationResult(params json.RawMessage) []map[string]any {
	var p struct {
		Items []json.RawMessage `json:"items"`
	}
	count := 1
	if len(params) > 0 && json.Unmarshal(params, &p) == nil && len(p.Items) > 0 {
		count = len(p.Items)
	}
	out := make([]map[string]any, count)
	for i := range out {
		out[i] = map[string]any{}
	}
	return out
}

func (t *transport) handleNotification(msg rpcMessage) {
	if msg.Method != "textDocument/publishDiagnostics" {
		return
	}
	var params struct {
		URI         string            `json:"uri"`
		Diagnostics []json.RawMessage `json:"diagnostics"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return
	}
	path := uriutil.URIToPath(params.URI)
	t.diagMu.Lock()
	t.diagnostics[path] = params.Diagnostics
	t.diagMu.Unlock()
	if t.onNotification != nil {
		t.onNotification(msg.Method, msg.Params)
	}
}

func (t *transport) diagnosticsFor(path string) []json.RawMessage {
	t.diagMu.Lock()
	defer t.diagMu.Unlock()
	return t.diagnostics[path]
}

// stderrTask mirrors the language-server's stderr to the log at warn level,
// one trimmed, non-empty line at a time.
func stderrTask(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			slog.Warn("lsp_stderr", slog.String("line", line))
		}
	}
}
