// Package lsptools normalizes raw JSON-RPC results from internal/lspbridge
// into stable, MCP-tool-shaped output structs, and provides the symbol
// resolution and file-path validation helpers shared across the tool
// handlers. Grounded on
// original_source/cangjie-mcp/src/lsp/tools.rs and server/tools.rs.
package lsptools

// LocationResult is a single source location in a tool-facing, 1-based form.
type LocationResult struct {
	FilePath     string `json:"file_path"`
	Line         int    `json:"line"`
	Character    int    `json:"character"`
	EndLine      *int   `json:"end_line,omitempty"`
	EndCharacter *int   `json:"end_character,omitempty"`
}

type DefinitionResult struct {
	Locations []LocationResult `json:"locations"`
	Count     int              `json:"count"`
}

type ReferencesResult struct {
	Locations []LocationResult `json:"locations"`
	Count     int              `json:"count"`
}

type HoverOutput struct {
	Content string          `json:"content"`
	Range   *LocationResult `json:"range,omitempty"`
}

type SymbolOutput struct {
	Name         string         `json:"name"`
	Kind         string         `json:"kind"`
	Line         int            `json:"line"`
	Character    int            `json:"character"`
	EndLine      int            `json:"end_line"`
	EndCharacter int            `json:"end_character"`
	Children     []SymbolOutput `json:"children,omitempty"`
}

type SymbolsResult struct {
	Symbols []SymbolOutput `json:"symbols"`
	Count   int            `json:"count"`
}

type DiagnosticOutput struct {
	Message      string  `json:"message"`
	Severity     string  `json:"severity"`
	Line         int     `json:"line"`
	Character    int     `json:"character"`
	EndLine      int     `json:"end_line"`
	EndCharacter int     `json:"end_character"`
	Code         *string `json:"code,omitempty"`
	Source       *string `json:"source,omitempty"`
}

type DiagnosticsResult struct {
	Diagnostics  []DiagnosticOutput `json:"diagnostics"`
	ErrorCount   int                `json:"error_count"`
	WarningCount int                `json:"warning_count"`
	InfoCount    int                `json:"info_count"`
	HintCount    int                `json:"hint_count"`
}

type CompletionOutput struct {
	Label         string  `json:"label"`
	Kind          *string `json:"kind,omitempty"`
	Detail        *string `json:"detail,omitempty"`
	Documentation *string `json:"documentation,omitempty"`
	InsertText    *string `json:"insert_text,omitempty"`
}

type CompletionResult struct {
	Items []CompletionOutput `json:"items"`
	Count int                `json:"count"`
}

// HierarchyItemOutput is the shared shape of a CallHierarchyItem and a
// TypeHierarchyItem: a named, kinded symbol at a location with optional
// detail text (e.g. a type signature or enclosing scope).
type HierarchyItemOutput struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	FilePath  string  `json:"file_path"`
	Line      int     `json:"line"`
	Character int     `json:"character"`
	Detail    *string `json:"detail,omitempty"`
}

type IncomingCallOutput struct {
	From       HierarchyItemOutput `json:"from"`
	FromRanges []LocationResult    `json:"from_ranges"`
}

type IncomingCallsResult struct {
	Calls []IncomingCallOutput `json:"calls"`
	Count int                  `json:"count"`
}

type OutgoingCallOutput struct {
	To         HierarchyItemOutput `json:"to"`
	FromRanges []LocationResult    `json:"from_ranges"`
}

type OutgoingCallsResult struct {
	Calls []OutgoingCallOutput `json:"calls"`
	Count int                  `json:"count"`
}

type TypeHierarchyResult struct {
	Items []HierarchyItemOutput `json:"items"`
	Count int                   `json:"count"`
}

type TextEditOutput struct {
	Line         int    `json:"line"`
	Character    int    `json:"character"`
	EndLine      int    `json:"end_line"`
	EndCharacter int    `json:"end_character"`
	NewText      string `json:"new_text"`
}

type RenameFileEdit struct {
	FilePath string           `json:"file_path"`
	Edits    []TextEditOutput `json:"edits"`
}

type RenameResult struct {
	Changes   []RenameFileEdit `json:"changes"`
	FileCount int              `json:"file_count"`
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
