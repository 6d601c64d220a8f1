package lsptools

// symbolKindNames maps the LSP SymbolKind integer (1-26) to its display
// name. Grounded on tools.rs's symbol_kind_name match arms.
var symbolKindNames = map[int]string{
	1:  "file",
	2:  "module",
	3:  "namespace",
	4:  "package",
	5:  "class",
	6:  "method",
	7:  "property",
	8:  "field",
	9:  "constructor",
	10: "enum",
	11: "interface",
	12: "function",
	13: "variable",
	14: "constant",
	15: "string",
	16: "number",
	17: "boolean",
	18: "array",
	19: "object",
	20: "key",
	21: "null",
	22: "enum member",
	23: "struct",
	24: "event",
	25: "operator",
	26: "type parameter",
}

func symbolKindName(kind int) string {
	if name, ok := symbolKindNames[kind]; ok {
		return name
	}
	return "unknown"
}

// completionKindNames maps the LSP CompletionItemKind integer (1-25) to its
// display name. Grounded on tools.rs's completion_kind_name match arms.
var completionKindNames = map[int]string{
	1:  "text",
	2:  "method",
	3:  "function",
	4:  "constructor",
	5:  "field",
	6:  "variable",
	7:  "class",
	8:  "interface",
	9:  "module",
	10: "property",
	11: "unit",
	12: "value",
	13: "enum",
	14: "keyword",
	15: "snippet",
	16: "color",
	17: "file",
	18: "reference",
	19: "folder",
	20: "enum member",
	21: "constant",
	22: "struct",
	23: "event",
	24: "operator",
	25: "type parameter",
}

func completionKindName(kind int) string {
	if name, ok := completionKindNames[kind]; ok {
		return name
	}
	return "unknown"
}

// severityName maps the LSP DiagnosticSeverity integer (1-4) to its display
// name. Grounded on tools.rs's severity_name match arms.
func severityName(severity int) string {
	switch severity {
	case 1:
		return "error"
	case 2:
		return "warning"
	case 3:
		return "information"
	case 4:
		return "hint"
	default:
		return "unknown"
	}
}
