package lspbridge

// Position is an LSP zero-based line/character position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func tdPosition(uri string, line, character int) textDocumentPositionParams {
	return textDocumentPositionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Position:     Position{Line: line, Character: character},
	}
}

type referenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type referenceParams struct {
	textDocumentPositionParams
	Context referenceContext `json:"context"`
}

type documentSymbolParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

type callHierarchyPrepareParams = textDocumentPositionParams

type callHierarchyIncomingCallsParams struct {
	Item any `json:"item"`
}

type callHierarchyOutgoingCallsParams struct {
	Item any `json:"item"`
}

type typeHierarchyPrepareParams = textDocumentPositionParams

type typeHierarchySupertypesParams struct {
	Item any `json:"item"`
}

type typeHierarchySubtypesParams struct {
	Item any `json:"item"`
}

type renameParams struct {
	textDocumentPositionParams
	NewName string `json:"newName"`
}

type didOpenTextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type didOpenTextDocumentParams struct {
	TextDocument didOpenTextDocumentItem `json:"textDocument"`
}
