package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/cjdocs-bridge/internal/async"
	"github.com/Aman-CERP/cjdocs-bridge/internal/config"
	"github.com/Aman-CERP/cjdocs-bridge/internal/depresolve"
	"github.com/Aman-CERP/cjdocs-bridge/internal/docsource"
	"github.com/Aman-CERP/cjdocs-bridge/internal/lspbridge"
	"github.com/Aman-CERP/cjdocs-bridge/internal/lsptools"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
	"github.com/Aman-CERP/cjdocs-bridge/internal/searchpost"
	"github.com/Aman-CERP/cjdocs-bridge/internal/telemetry"
	"github.com/Aman-CERP/cjdocs-bridge/internal/topicresolve"
	"github.com/Aman-CERP/cjdocs-bridge/pkg/version"
)

// SearchIndex is the subset of internal/index.LocalIndex that the MCP server
// depends on, narrowed so tests can substitute a stub.
type SearchIndex interface {
	Query(ctx context.Context, query string, topK int, category string, doRerank bool) ([]model.SearchResult, error)
}

// Server is the MCP server for the Cangjie documentation-and-language-bridge
// service. It bridges AI clients (Claude Code, Cursor) with the hybrid doc
// index and the cangjie-lsp language server. Grounded on
// original_source/cangjie-mcp/src/server/{mod,tools}.rs.
type Server struct {
	mcp    *mcp.Server
	index  SearchIndex
	docs   docsource.Source
	config *config.Config
	logger *slog.Logger

	rootPath string

	lspMu     sync.Mutex
	lspClient *lspbridge.Client

	indexProgress *async.IndexProgress
	metrics       *telemetry.QueryMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// ResourceInfo contains information about a resource.
type ResourceInfo struct {
	URI      string
	Name     string
	MIMEType string
}

// ResourceContent contains the content of a resource.
type ResourceContent struct {
	URI      string
	Content  string
	MIMEType string
}

// toolRegistry names every tool this server exposes, matching
// server/tools.rs's #[tool(...)] descriptions verbatim.
var toolRegistry = []ToolInfo{
	{Name: "cangjie_search_docs", Description: "Search Cangjie documentation by keyword or phrase. Returns ranked excerpts with file, category, and topic metadata; supports category/package filtering, pagination, and code-example extraction."},
	{Name: "cangjie_get_topic", Description: "Fetch the full content of a documentation topic by name. Falls back across categories and suggests similarly-named topics when the exact name isn't found."},
	{Name: "cangjie_list_topics", Description: "List all documentation topics, optionally filtered to one category. Use this to discover what topics exist before calling cangjie_get_topic."},
	{Name: "cangjie_lsp_definition", Description: "Find the definition location(s) of a Cangjie symbol, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_references", Description: "Find all references to a Cangjie symbol across the workspace, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_hover", Description: "Get type and documentation information for a Cangjie symbol, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_symbols", Description: "List all symbols (functions, classes, variables) declared in a Cangjie source file, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_diagnostics", Description: "Get compiler diagnostics (errors, warnings) for a Cangjie source file, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_workspace_symbol", Description: "Search for symbols by name across the entire workspace, using the cangjie-lsp language server."},
	{Name: "cangjie_lsp_incoming_calls", Description: "Find all call sites that call a given Cangjie function, using the cangjie-lsp language server's call hierarchy."},
	{Name: "cangjie_lsp_outgoing_calls", Description: "Find all functions called by a given Cangjie function, using the cangjie-lsp language server's call hierarchy."},
	{Name: "cangjie_lsp_type_supertypes", Description: "Find the supertypes (parent classes, implemented interfaces) of a Cangjie type, using the cangjie-lsp language server's type hierarchy."},
	{Name: "cangjie_lsp_type_subtypes", Description: "Find the subtypes (subclasses, implementing types) of a Cangjie type, using the cangjie-lsp language server's type hierarchy."},
	{Name: "cangjie_lsp_rename", Description: "Compute the workspace edit required to rename a Cangjie symbol, using the cangjie-lsp language server."},
}

// NewServer creates a new MCP server. docs may be nil only in tests that
// don't exercise the docs tools; index likewise for the LSP-only tools.
// rootPath is used for project detection and as the LSP workspace root
// fallback when cfg.LSP.WorkspacePath is unset.
func NewServer(index SearchIndex, docs docsource.Source, cfg *config.Config, rootPath string) (*Server, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if cfg.LSP.WorkspacePath == "" {
		cfg.LSP.WorkspacePath = rootPath
	}

	s := &Server{
		index:    index,
		docs:     docs,
		config:   cfg,
		rootPath: rootPath,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "cjdocs-bridge",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// SetIndexProgress sets the index progress tracker for background indexing.
func (s *Server) SetIndexProgress(progress *async.IndexProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexProgress = progress
}

// SetMetrics sets the query metrics collector for telemetry. When set, a
// query_metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
	if m != nil {
		s.registerQueryMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) { return "cjdocs-bridge", version.Version }

// Capabilities returns whether tools and resources are enabled.
func (s *Server) Capabilities() (hasTools, hasResources bool) { return true, true }

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolRegistry))
	copy(out, toolRegistry)
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	add := func(info ToolInfo) { s.logger.Debug("registered tool", slog.String("name", info.Name)) }

	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[0].Name, Description: toolRegistry[0].Description}, s.mcpSearchDocsHandler)
	add(toolRegistry[0])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[1].Name, Description: toolRegistry[1].Description}, s.mcpGetTopicHandler)
	add(toolRegistry[1])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[2].Name, Description: toolRegistry[2].Description}, s.mcpListTopicsHandler)
	add(toolRegistry[2])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[3].Name, Description: toolRegistry[3].Description}, s.mcpLspDefinitionHandler)
	add(toolRegistry[3])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[4].Name, Description: toolRegistry[4].Description}, s.mcpLspReferencesHandler)
	add(toolRegistry[4])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[5].Name, Description: toolRegistry[5].Description}, s.mcpLspHoverHandler)
	add(toolRegistry[5])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[6].Name, Description: toolRegistry[6].Description}, s.mcpLspSymbolsHandler)
	add(toolRegistry[6])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[7].Name, Description: toolRegistry[7].Description}, s.mcpLspDiagnosticsHandler)
	add(toolRegistry[7])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[8].Name, Description: toolRegistry[8].Description}, s.mcpLspWorkspaceSymbolHandler)
	add(toolRegistry[8])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[9].Name, Description: toolRegistry[9].Description}, s.mcpLspIncomingCallsHandler)
	add(toolRegistry[9])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[10].Name, Description: toolRegistry[10].Description}, s.mcpLspOutgoingCallsHandler)
	add(toolRegistry[10])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[11].Name, Description: toolRegistry[11].Description}, s.mcpLspTypeSupertypesHandler)
	add(toolRegistry[11])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[12].Name, Description: toolRegistry[12].Description}, s.mcpLspTypeSubtypesHandler)
	add(toolRegistry[12])
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolRegistry[13].Name, Description: toolRegistry[13].Description}, s.mcpLspRenameHandler)
	add(toolRegistry[13])

	s.logger.Info("MCP tools registered", slog.Int("count", len(toolRegistry)))
}

// mcpSearchDocsHandler is the MCP SDK handler for cangjie_search_docs.
// Grounded on server/tools.rs's search_docs.
func (s *Server) mcpSearchDocsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocsInput) (
	*mcp.CallToolResult, SearchDocsOutput, error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchDocsOutput{}, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	if s.index == nil {
		return nil, SearchDocsOutput{}, NewInvalidParamsError("documentation index is not available")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = searchpost.DefaultTopK
	}
	q := searchpost.Query{
		Text:        input.Query,
		Category:    input.Category,
		Package:     input.Package,
		TopK:        searchpost.ClampTopK(topK),
		Offset:      input.Offset,
		ExtractCode: input.ExtractCode,
	}

	raw, err := s.index.Query(ctx, q.Text, searchpost.FetchCount(q), q.Category, true)
	if err != nil {
		return nil, SearchDocsOutput{}, MapError(err)
	}

	return nil, searchpost.Assemble(raw, q), nil
}

// mcpGetTopicHandler is the MCP SDK handler for cangjie_get_topic. Grounded
// on server/tools.rs's get_topic.
func (s *Server) mcpGetTopicHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetTopicInput) (
	*mcp.CallToolResult, GetTopicOutput, error,
) {
	if strings.TrimSpace(input.Topic) == "" {
		return nil, GetTopicOutput{}, NewInvalidParamsError("topic parameter is required and must be a non-empty string")
	}
	if s.docs == nil {
		return nil, GetTopicOutput{}, NewInvalidParamsError("documentation source is not available")
	}

	doc, found, err := s.docs.Document(ctx, input.Topic, input.Category)
	if err != nil {
		return nil, GetTopicOutput{}, MapError(err)
	}

	if !found && input.Category != "" {
		doc, found, err = s.docs.Document(ctx, input.Topic, "")
		if err != nil {
			return nil, GetTopicOutput{}, MapError(err)
		}
	}

	if found {
		return nil, GetTopicOutput{
			Content:  doc.Text,
			FilePath: doc.Metadata.FilePath,
			Category: doc.Metadata.Category,
			Topic:    doc.Metadata.Topic,
			Title:    doc.Metadata.Title,
		}, nil
	}

	topicCategoryMap, allTopics, buildErr := s.buildTopicIndex(ctx)
	if buildErr != nil {
		return nil, GetTopicOutput{Message: fmt.Sprintf("Topic '%s' not found.", input.Topic)}, nil
	}
	return nil, GetTopicOutput{
		Message: topicresolve.NotFoundMessage(input.Topic, input.Category, topicCategoryMap, allTopics),
	}, nil
}

// buildTopicIndex enumerates every category's topics, used to build the
// cross-category/suggestion index backing cangjie_get_topic's miss path.
func (s *Server) buildTopicIndex(ctx context.Context) (map[string][]string, []string, error) {
	categories, err := s.docs.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	topicsByCategory := make(map[string][]string, len(categories))
	seen := make(map[string]bool)
	var allTopics []string
	for _, cat := range categories {
		topics, err := s.docs.TopicsIn(ctx, cat)
		if err != nil {
			return nil, nil, err
		}
		topicsByCategory[cat] = topics
		for _, t := range topics {
			if !seen[t] {
				seen[t] = true
				allTopics = append(allTopics, t)
			}
		}
	}
	return topicresolve.BuildTopicCategoryMap(topicsByCategory), allTopics, nil
}

// mcpListTopicsHandler is the MCP SDK handler for cangjie_list_topics.
// Grounded on server/tools.rs's list_topics.
func (s *Server) mcpListTopicsHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListTopicsInput) (
	*mcp.CallToolResult, ListTopicsOutput, error,
) {
	if s.docs == nil {
		return nil, ListTopicsOutput{}, NewInvalidParamsError("documentation source is not available")
	}

	categories, err := s.docs.Categories(ctx)
	if err != nil {
		return nil, ListTopicsOutput{}, MapError(err)
	}

	if input.Category != "" && !containsString(categories, input.Category) {
		sorted := append([]string(nil), categories...)
		sort.Strings(sorted)
		return nil, ListTopicsOutput{
			Categories:          map[string][]TopicInfo{},
			Error:               fmt.Sprintf("Category '%s' not found.", input.Category),
			AvailableCategories: sorted,
		}, nil
	}

	targets := categories
	if input.Category != "" {
		targets = []string{input.Category}
	}

	out := ListTopicsOutput{Categories: make(map[string][]TopicInfo, len(targets))}
	for _, cat := range targets {
		titles, err := s.docs.TopicTitles(ctx, cat)
		if err != nil {
			return nil, ListTopicsOutput{}, MapError(err)
		}
		names := make([]string, 0, len(titles))
		for name := range titles {
			names = append(names, name)
		}
		sort.Strings(names)
		infos := make([]TopicInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, TopicInfo{Name: name, Title: titles[name]})
		}
		out.Categories[cat] = infos
		out.TotalTopics += len(infos)
	}
	out.TotalCategories = len(targets)

	return nil, out, nil
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

// resolveLSPPosition validates the file, lazily starts (or reuses) the LSP
// client, resolves the symbol's 0-based position via the file's document
// symbol tree, and returns a non-empty message instead of an error for every
// recoverable failure mode — mirroring the original's plain-string error
// path (get_validate_error / lsp_unavailable_message / resolve_symbol all
// just produce a message, not a protocol error).
func (s *Server) resolveLSPPosition(ctx context.Context, filePath, symbol string, lineHint *int) (*lspbridge.Client, int, int, string) {
	if msg := lsptools.ValidateFilePath(filePath, s.config.LSP.SourceExtension); msg != "" {
		return nil, 0, 0, msg
	}
	client, msg := s.getLSPClient(ctx)
	if msg != "" {
		return nil, 0, 0, msg
	}
	raw, err := client.DocumentSymbol(ctx, filePath)
	if err != nil {
		return nil, 0, 0, err.Error()
	}
	symbols := lsptools.ProcessSymbols(raw)
	line, character, err := lsptools.ResolveSymbol(symbols, filePath, symbol, lineHint)
	if err != nil {
		return nil, 0, 0, err.Error()
	}
	return client, line, character, ""
}

// getLSPClient lazily starts the cangjie-lsp bridge the first time an LSP
// tool is invoked, and reuses it while it stays alive. Grounded on
// server/tools.rs's get_client / lsp_unavailable_message.
func (s *Server) getLSPClient(ctx context.Context) (*lspbridge.Client, string) {
	s.lspMu.Lock()
	defer s.lspMu.Unlock()

	if s.lspClient != nil && s.lspClient.IsAlive() {
		return s.lspClient, ""
	}

	settings := lspbridge.NewSettings(s.config)
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, "LSP is not available: " + strings.Join(problems, "; ") +
			". Set sdk_root (CANGJIE_HOME) and workspace_path in configuration."
	}

	resolver := depresolve.NewResolver(settings.WorkspacePath, s.logger)
	modules := resolver.Resolve()

	client, err := lspbridge.Start(ctx, settings, lspbridge.InitOptions{
		MultiModuleOption: multiModuleOptionJSON(modules),
	}, resolver.RequirePath())
	if err != nil {
		return nil, fmt.Sprintf("failed to start cangjie-lsp: %s", err)
	}

	s.lspClient = client
	return client, ""
}

// multiModuleOptionJSON converts the resolver's module graph into the plain
// map shape the language server's initializationOptions.multiModuleOption
// expects, by round-tripping through JSON (ModuleOption's json tags already
// match the wire shape).
func multiModuleOptionJSON(modules map[string]depresolve.ModuleOption) map[string]any {
	raw, err := json.Marshal(modules)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (s *Server) mcpLspDefinitionHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, DefinitionOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.DefinitionResult](msg), nil
	}
	raw, err := client.Definition(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.DefinitionResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessDefinition(raw)), nil
}

func (s *Server) mcpLspReferencesHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, ReferencesOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.ReferencesResult](msg), nil
	}
	raw, err := client.References(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.ReferencesResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessReferences(raw)), nil
}

func (s *Server) mcpLspHoverHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, HoverToolOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.HoverOutput](msg), nil
	}
	raw, err := client.Hover(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.HoverOutput](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessHover(raw, input.FilePath)), nil
}

func (s *Server) mcpLspSymbolsHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspFileInput) (
	*mcp.CallToolResult, SymbolsOutput, error,
) {
	if msg := lsptools.ValidateFilePath(input.FilePath, s.config.LSP.SourceExtension); msg != "" {
		return nil, errOutput[lsptools.SymbolsResult](msg), nil
	}
	client, msg := s.getLSPClient(ctx)
	if msg != "" {
		return nil, errOutput[lsptools.SymbolsResult](msg), nil
	}
	raw, err := client.DocumentSymbol(ctx, input.FilePath)
	if err != nil {
		return nil, errOutput[lsptools.SymbolsResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessSymbols(raw)), nil
}

func (s *Server) mcpLspDiagnosticsHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspFileInput) (
	*mcp.CallToolResult, DiagnosticsOutput, error,
) {
	if msg := lsptools.ValidateFilePath(input.FilePath, s.config.LSP.SourceExtension); msg != "" {
		return nil, errOutput[lsptools.DiagnosticsResult](msg), nil
	}
	client, msg := s.getLSPClient(ctx)
	if msg != "" {
		return nil, errOutput[lsptools.DiagnosticsResult](msg), nil
	}
	diags, err := client.GetDiagnostics(ctx, input.FilePath)
	if err != nil {
		return nil, errOutput[lsptools.DiagnosticsResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessDiagnostics(diags)), nil
}

func (s *Server) mcpLspWorkspaceSymbolHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspWorkspaceSymbolInput) (
	*mcp.CallToolResult, WorkspaceSymbolOutput, error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, WorkspaceSymbolOutput{}, NewInvalidParamsError("query parameter is required")
	}
	client, msg := s.getLSPClient(ctx)
	if msg != "" {
		return nil, errOutput[lsptools.SymbolsResult](msg), nil
	}
	raw, err := client.WorkspaceSymbol(ctx, input.Query)
	if err != nil {
		return nil, errOutput[lsptools.SymbolsResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessWorkspaceSymbols(raw)), nil
}

func (s *Server) mcpLspIncomingCallsHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, IncomingCallsOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.IncomingCallsResult](msg), nil
	}
	raw, err := client.IncomingCalls(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.IncomingCallsResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessIncomingCalls(raw)), nil
}

func (s *Server) mcpLspOutgoingCallsHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, OutgoingCallsOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.OutgoingCallsResult](msg), nil
	}
	raw, err := client.OutgoingCalls(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.OutgoingCallsResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessOutgoingCalls(raw)), nil
}

func (s *Server) mcpLspTypeSupertypesHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, TypeHierarchyOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.TypeHierarchyResult](msg), nil
	}
	raw, err := client.TypeSupertypes(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.TypeHierarchyResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessTypeHierarchy(raw)), nil
}

func (s *Server) mcpLspTypeSubtypesHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspSymbolInput) (
	*mcp.CallToolResult, TypeHierarchyOutput, error,
) {
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.TypeHierarchyResult](msg), nil
	}
	raw, err := client.TypeSubtypes(ctx, input.FilePath, line, character)
	if err != nil {
		return nil, errOutput[lsptools.TypeHierarchyResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessTypeHierarchy(raw)), nil
}

func (s *Server) mcpLspRenameHandler(ctx context.Context, _ *mcp.CallToolRequest, input LspRenameInput) (
	*mcp.CallToolResult, RenameOutput, error,
) {
	if strings.TrimSpace(input.NewName) == "" {
		return nil, RenameOutput{}, NewInvalidParamsError("new_name parameter is required")
	}
	client, line, character, msg := s.resolveLSPPosition(ctx, input.FilePath, input.Symbol, input.Line)
	if msg != "" {
		return nil, errOutput[lsptools.RenameResult](msg), nil
	}
	raw, err := client.Rename(ctx, input.FilePath, line, character, input.NewName)
	if err != nil {
		return nil, errOutput[lsptools.RenameResult](err.Error()), nil
	}
	return nil, okOutput(lsptools.ProcessRename(raw)), nil
}

// ListResources returns all available resources: one per documentation
// topic, plus query_metrics when telemetry is enabled.
func (s *Server) ListResources(ctx context.Context, _ string) ([]ResourceInfo, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.docs == nil {
		return nil, "", nil
	}

	docs, err := s.docs.LoadAll(ctx)
	if err != nil {
		return nil, "", err
	}

	resources := make([]ResourceInfo, 0, len(docs))
	for _, d := range docs {
		resources = append(resources, ResourceInfo{
			URI:      topicURI(d.Metadata.Category, d.Metadata.Topic),
			Name:     d.Metadata.Title,
			MIMEType: "text/markdown",
		})
	}
	return resources, "", nil
}

// ReadResource reads a documentation topic by its topic:// URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ResourceContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.docs == nil {
		return nil, NewResourceNotFoundError(uri)
	}

	category, topic, ok := parseTopicURI(uri)
	if !ok {
		return nil, NewResourceNotFoundError(uri)
	}

	doc, found, err := s.docs.Document(ctx, topic, category)
	if err != nil {
		return nil, MapError(err)
	}
	if !found {
		return nil, NewResourceNotFoundError(uri)
	}

	return &ResourceContent{
		URI:      uri,
		Content:  doc.Text,
		MIMEType: "text/markdown",
	}, nil
}

func topicURI(category, topic string) string {
	return fmt.Sprintf("topic://%s/%s", category, topic)
}

func parseTopicURI(uri string) (category, topic string, ok bool) {
	const prefix = "topic://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, prefix)
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport), slog.String("addr", addr))

	switch transport {
	case "stdio":
		s.logger.Debug("using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	case "sse":
		return fmt.Errorf("SSE transport not yet implemented")
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources, shutting down the LSP bridge if it was
// started.
func (s *Server) Close() error {
	s.lspMu.Lock()
	defer s.lspMu.Unlock()
	if s.lspClient != nil {
		return s.lspClient.Shutdown(context.Background())
	}
	return nil
}
