package mcp

import (
	"github.com/Aman-CERP/cjdocs-bridge/internal/lsptools"
	"github.com/Aman-CERP/cjdocs-bridge/internal/searchpost"
)

// SearchDocsInput is the cangjie_search_docs tool input. Grounded on
// server/tools.rs's SearchDocsParams.
type SearchDocsInput struct {
	Query       string `json:"query" jsonschema:"search query describing what you're looking for"`
	Category    string `json:"category,omitempty" jsonschema:"optional category to filter results (e.g. 'cjpm', 'syntax', 'stdlib')"`
	Package     string `json:"package,omitempty" jsonschema:"optional package name to filter results"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"number of results to return, default 5, max 20"`
	Offset      int    `json:"offset,omitempty" jsonschema:"number of results to skip, for pagination"`
	ExtractCode bool   `json:"extract_code,omitempty" jsonschema:"whether to extract fenced code examples from matched results"`
}

// SearchDocsOutput is the cangjie_search_docs tool output.
type SearchDocsOutput = searchpost.SearchResponse

// GetTopicInput is the cangjie_get_topic tool input. Grounded on
// server/tools.rs's GetTopicParams.
type GetTopicInput struct {
	Topic    string `json:"topic" jsonschema:"topic name, the documentation file name without the .md extension"`
	Category string `json:"category,omitempty" jsonschema:"optional category to narrow the lookup (e.g. 'syntax', 'stdlib')"`
}

// GetTopicOutput is the cangjie_get_topic tool output. When the topic isn't
// found, Message carries a human-readable explanation (with suggestions)
// and the remaining fields are zero, mirroring get_topic's not-found branch,
// which returns a plain message rather than a protocol error. Grounded on
// server/tools.rs's TopicResult.
type GetTopicOutput struct {
	Content  string `json:"content,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Category string `json:"category,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ListTopicsInput is the cangjie_list_topics tool input. Grounded on
// server/tools.rs's ListTopicsParams.
type ListTopicsInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category to filter by (e.g. 'cjpm', 'syntax')"`
}

// TopicInfo is one entry in a category's topic listing.
type TopicInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ListTopicsOutput is the cangjie_list_topics tool output. Grounded on
// server/tools.rs's TopicsListResult.
type ListTopicsOutput struct {
	Categories          map[string][]TopicInfo `json:"categories"`
	TotalCategories      int                    `json:"total_categories"`
	TotalTopics          int                    `json:"total_topics"`
	Error                string                 `json:"error,omitempty"`
	AvailableCategories  []string               `json:"available_categories,omitempty"`
}

// LspSymbolInput is the input shared by LSP tools that locate a named
// symbol within a file. Grounded on server/tools.rs's LspSymbolParams.
type LspSymbolInput struct {
	FilePath string `json:"file_path" jsonschema:"absolute path to the .cj source file"`
	Symbol   string `json:"symbol" jsonschema:"symbol name to look up, e.g. 'processArgs' or 'MyClass'"`
	Line     *int   `json:"line,omitempty" jsonschema:"optional 1-based line number, to disambiguate when multiple symbols share the same name"`
}

// LspFileInput is the input shared by LSP tools that operate on a whole
// file. Grounded on server/tools.rs's LspFileParams.
type LspFileInput struct {
	FilePath string `json:"file_path" jsonschema:"absolute path to the .cj source file"`
}

// LspWorkspaceSymbolInput is the cangjie_lsp_workspace_symbol tool input.
// Grounded on server/tools.rs's LspWorkspaceSymbolParams.
type LspWorkspaceSymbolInput struct {
	Query string `json:"query" jsonschema:"query to find symbols by name across the whole workspace"`
}

// LspRenameInput is the cangjie_lsp_rename tool input. Grounded on
// server/tools.rs's LspRenameParams.
type LspRenameInput struct {
	FilePath string `json:"file_path" jsonschema:"absolute path to the .cj source file"`
	Symbol   string `json:"symbol" jsonschema:"symbol name to rename"`
	NewName  string `json:"new_name" jsonschema:"replacement name"`
	Line     *int   `json:"line,omitempty" jsonschema:"optional 1-based line number, to disambiguate when multiple symbols share the same name"`
}

// lspOutput wraps an LSP tool result with an optional non-fatal Message,
// used when the file path is invalid, the bridge isn't up, or the symbol
// can't be resolved. This mirrors the original's plain-string error path for
// these conditions (get_validate_error / lsp_unavailable_message /
// resolve_symbol failures all just return a message) rather than raising an
// MCP protocol error for what is, from the caller's point of view, a normal
// "try something else" outcome.
type lspOutput[T any] struct {
	Result  *T     `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func okOutput[T any](v T) lspOutput[T]         { return lspOutput[T]{Result: &v} }
func errOutput[T any](msg string) lspOutput[T] { return lspOutput[T]{Message: msg} }

type DefinitionOutput = lspOutput[lsptools.DefinitionResult]
type ReferencesOutput = lspOutput[lsptools.ReferencesResult]
type HoverToolOutput = lspOutput[lsptools.HoverOutput]
type SymbolsOutput = lspOutput[lsptools.SymbolsResult]
type DiagnosticsOutput = lspOutput[lsptools.DiagnosticsResult]
type WorkspaceSymbolOutput = lspOutput[lsptools.SymbolsResult]
type IncomingCallsOutput = lspOutput[lsptools.IncomingCallsResult]
type OutgoingCallsOutput = lspOutput[lsptools.OutgoingCallsResult]
type TypeHierarchyOutput = lspOutput[lsptools.TypeHierarchyResult]
type RenameOutput = lspOutput[lsptools.RenameResult]
