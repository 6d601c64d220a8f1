package lsptools

import (
	"encoding/json"
	"strconv"

	"github.com/Aman-CERP/cjdocs-bridge/internal/uriutil"
)

type lspRange struct {
	Start lspPosition `json:"start"`
	End   lspPosition `json:"end"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspLocation struct {
	URI   string   `json:"uri"`
	Range lspRange `json:"range"`
}

type lspLocationLink struct {
	TargetURI   string   `json:"targetUri"`
	TargetRange lspRange `json:"targetRange"`
}

func locationToResult(loc lspLocation) LocationResult {
	return LocationResult{
		FilePath:     uriutil.URIToPath(loc.URI),
		Line:         loc.Range.Start.Line + 1,
		Character:    loc.Range.Start.Character + 1,
		EndLine:      intPtr(loc.Range.End.Line + 1),
		EndCharacter: intPtr(loc.Range.End.Character + 1),
	}
}

func locationLinkToResult(link lspLocationLink) LocationResult {
	return LocationResult{
		FilePath:     uriutil.URIToPath(link.TargetURI),
		Line:         link.TargetRange.Start.Line + 1,
		Character:    link.TargetRange.Start.Character + 1,
		EndLine:      intPtr(link.TargetRange.End.Line + 1),
		EndCharacter: intPtr(link.TargetRange.End.Character + 1),
	}
}

// ProcessDefinition normalizes a textDocument/definition result, which the
// LSP spec allows to be a single Location, a Location array, or a
// LocationLink array. Grounded on tools.rs's process_definition.
func ProcessDefinition(result json.RawMessage) DefinitionResult {
	locations := []LocationResult{}

	if len(result) == 0 || string(result) == "null" {
		return DefinitionResult{Locations: locations, Count: 0}
	}

	var single lspLocation
	if err := json.Unmarshal(result, &single); err == nil && single.URI != "" {
		locations = append(locations, locationToResult(single))
		return DefinitionResult{Locations: locations, Count: len(locations)}
	}

	var links []lspLocationLink
	if err := json.Unmarshal(result, &links); err == nil && len(links) > 0 && links[0].TargetURI != "" {
		for _, l := range links {
			locations = append(locations, locationLinkToResult(l))
		}
		return DefinitionResult{Locations: locations, Count: len(locations)}
	}

	var locs []lspLocation
	if err := json.Unmarshal(result, &locs); err == nil {
		for _, l := range locs {
			locations = append(locations, locationToResult(l))
		}
	}
	return DefinitionResult{Locations: locations, Count: len(locations)}
}

// ProcessReferences normalizes a textDocument/references result (a plain
// Location array). Grounded on tools.rs's process_references.
func ProcessReferences(result json.RawMessage) ReferencesResult {
	locations := []LocationResult{}
	var locs []lspLocation
	if len(result) > 0 && string(result) != "null" {
		_ = json.Unmarshal(result, &locs)
	}
	for _, l := range locs {
		locations = append(locations, locationToResult(l))
	}
	return ReferencesResult{Locations: locations, Count: len(locations)}
}

type markupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type markedStringObj struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type hoverResponse struct {
	Contents json.RawMessage `json:"contents"`
	Range    *lspRange       `json:"range"`
}

// ProcessHover normalizes a textDocument/hover result into an HoverOutput.
// hover contents may be a plain string, a MarkupContent object, a
// {language,value} MarkedString object, or an array mixing strings and
// MarkedString objects. Grounded on tools.rs's process_hover.
func ProcessHover(result json.RawMessage, filePath string) HoverOutput {
	if len(result) == 0 || string(result) == "null" {
		return HoverOutput{Content: "No hover information available"}
	}

	var hover hoverResponse
	if err := json.Unmarshal(result, &hover); err != nil {
		return HoverOutput{Content: "No hover information available"}
	}

	content := extractHoverContents(hover.Contents)

	var rangeOut *LocationResult
	if hover.Range != nil {
		rangeOut = &LocationResult{
			FilePath:     filePath,
			Line:         hover.Range.Start.Line + 1,
			Character:    hover.Range.Start.Character + 1,
			EndLine:      intPtr(hover.Range.End.Line + 1),
			EndCharacter: intPtr(hover.Range.End.Character + 1),
		}
	}

	return HoverOutput{Content: content, Range: rangeOut}
}

func extractHoverContents(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asMarkup markupContent
	if err := json.Unmarshal(raw, &asMarkup); err == nil && asMarkup.Value != "" {
		return asMarkup.Value
	}

	var asArray []json.RawMessage
	if err := json.Unmarshal(raw, &asArray); err == nil {
		parts := make([]string, 0, len(asArray))
		for _, item := range asArray {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				parts = append(parts, s)
				continue
			}
			var ms markedStringObj
			if err := json.Unmarshal(item, &ms); err == nil {
				parts = append(parts, ms.Value)
			}
		}
		return joinParagraphs(parts)
	}

	var asMarked markedStringObj
	if err := json.Unmarshal(raw, &asMarked); err == nil {
		return asMarked.Value
	}

	return ""
}

func joinParagraphs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

type documentSymbolJSON struct {
	Name     string               `json:"name"`
	Kind     int                  `json:"kind"`
	Range    lspRange             `json:"range"`
	Children []documentSymbolJSON `json:"children,omitempty"`
}

type symbolInformationJSON struct {
	Name     string      `json:"name"`
	Kind     int         `json:"kind"`
	Location lspLocation `json:"location"`
}

func convertDocumentSymbol(sym documentSymbolJSON) SymbolOutput {
	var children []SymbolOutput
	for _, kid := range sym.Children {
		children = append(children, convertDocumentSymbol(kid))
	}
	return SymbolOutput{
		Name:         sym.Name,
		Kind:         symbolKindName(sym.Kind),
		Line:         sym.Range.Start.Line + 1,
		Character:    sym.Range.Start.Character + 1,
		EndLine:      sym.Range.End.Line + 1,
		EndCharacter: sym.Range.End.Character + 1,
		Children:     children,
	}
}

// ProcessSymbols normalizes a textDocument/documentSymbol result, which is
// either a flat SymbolInformation array (has a "location" field) or a
// nested DocumentSymbol array (has a "range" field). Grounded on
// tools.rs's process_symbols.
func ProcessSymbols(result json.RawMessage) SymbolsResult {
	symbols := []SymbolOutput{}
	if len(result) == 0 || string(result) == "null" {
		return SymbolsResult{Symbols: symbols, Count: 0}
	}

	var nested []documentSymbolJSON
	if err := json.Unmarshal(result, &nested); err == nil && len(nested) > 0 && hasRangeField(result) {
		for _, s := range nested {
			symbols = append(symbols, convertDocumentSymbol(s))
		}
		return SymbolsResult{Symbols: symbols, Count: len(symbols)}
	}

	var flat []symbolInformationJSON
	if err := json.Unmarshal(result, &flat); err == nil {
		for _, s := range flat {
			symbols = append(symbols, SymbolOutput{
				Name:         s.Name,
				Kind:         symbolKindName(s.Kind),
				Line:         s.Location.Range.Start.Line + 1,
				Character:    s.Location.Range.Start.Character + 1,
				EndLine:      s.Location.Range.End.Line + 1,
				EndCharacter: s.Location.Range.End.Character + 1,
			})
		}
	}
	return SymbolsResult{Symbols: symbols, Count: len(symbols)}
}

// hasRangeField sniffs whether the first element of a JSON array has a
// "range" key (DocumentSymbol) rather than a "location" key
// (SymbolInformation) — both unmarshal successfully into either Go struct
// since all fields are optional, so the raw key presence is the only
// reliable discriminant.
func hasRangeField(raw json.RawMessage) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe) == 0 {
		return false
	}
	_, ok := probe[0]["range"]
	return ok
}

type diagnosticJSON struct {
	Message  string          `json:"message"`
	Severity int             `json:"severity"`
	Range    lspRange        `json:"range"`
	Code     json.RawMessage `json:"code,omitempty"`
	Source   string          `json:"source,omitempty"`
}

func extractDiagnosticCode(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return &asString
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strPtr(trimTrailingZero(asNumber))
	}
	return nil
}

func trimTrailingZero(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ProcessDiagnostics normalizes published diagnostics and tallies severity
// counts. Grounded on tools.rs's process_diagnostics.
func ProcessDiagnostics(diags []json.RawMessage) DiagnosticsResult {
	result := DiagnosticsResult{Diagnostics: []DiagnosticOutput{}}
	for _, raw := range diags {
		var d diagnosticJSON
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		switch d.Severity {
		case 1:
			result.ErrorCount++
		case 2:
			result.WarningCount++
		case 3:
			result.InfoCount++
		case 4:
			result.HintCount++
		}

		out := DiagnosticOutput{
			Message:      d.Message,
			Severity:     severityName(d.Severity),
			Line:         d.Range.Start.Line + 1,
			Character:    d.Range.Start.Character + 1,
			EndLine:      d.Range.End.Line + 1,
			EndCharacter: d.Range.End.Character + 1,
			Code:         extractDiagnosticCode(d.Code),
		}
		if d.Source != "" {
			out.Source = strPtr(d.Source)
		}
		result.Diagnostics = append(result.Diagnostics, out)
	}
	return result
}

type completionItemJSON struct {
	Label         string          `json:"label"`
	Kind          *int            `json:"kind,omitempty"`
	Detail        *string         `json:"detail,omitempty"`
	Documentation json.RawMessage `json:"documentation,omitempty"`
	InsertText    *string         `json:"insertText,omitempty"`
}

type completionListJSON struct {
	IsIncomplete bool                  `json:"isIncomplete"`
	Items        []completionItemJSON `json:"items"`
}

func extractDocumentation(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return &asString
	}
	var asMarkup markupContent
	if err := json.Unmarshal(raw, &asMarkup); err == nil {
		return &asMarkup.Value
	}
	return nil
}

func completionItemToOutput(item completionItemJSON) CompletionOutput {
	out := CompletionOutput{
		Label:         item.Label,
		Detail:        item.Detail,
		Documentation: extractDocumentation(item.Documentation),
		InsertText:    item.InsertText,
	}
	if item.Kind != nil {
		out.Kind = strPtr(completionKindName(*item.Kind))
	}
	return out
}

// ProcessWorkspaceSymbols normalizes a workspace/symbol result (a flat
// SymbolInformation/WorkspaceSymbol array). Not backed by a process_*
// function in tools.rs — server/tools.rs calls
// lsp_tools::process_workspace_symbols, but no such function exists in the
// extracted original source, so this is designed by analogy to
// ProcessSymbols's flat (SymbolInformation) branch, which shares the same
// {name, kind, location} wire shape.
func ProcessWorkspaceSymbols(result json.RawMessage) SymbolsResult {
	symbols := []SymbolOutput{}
	if len(result) == 0 || string(result) == "null" {
		return SymbolsResult{Symbols: symbols, Count: 0}
	}

	var flat []symbolInformationJSON
	if err := json.Unmarshal(result, &flat); err == nil {
		for _, s := range flat {
			symbols = append(symbols, SymbolOutput{
				Name:         s.Name,
				Kind:         symbolKindName(s.Kind),
				Line:         s.Location.Range.Start.Line + 1,
				Character:    s.Location.Range.Start.Character + 1,
				EndLine:      s.Location.Range.End.Line + 1,
				EndCharacter: s.Location.Range.End.Character + 1,
			})
		}
	}
	return SymbolsResult{Symbols: symbols, Count: len(symbols)}
}

type hierarchyItemJSON struct {
	Name           string   `json:"name"`
	Kind           int      `json:"kind"`
	URI            string   `json:"uri"`
	Range          lspRange `json:"range"`
	SelectionRange lspRange `json:"selectionRange"`
	Detail         *string  `json:"detail,omitempty"`
}

func hierarchyItemToOutput(item hierarchyItemJSON) HierarchyItemOutput {
	return HierarchyItemOutput{
		Name:      item.Name,
		Kind:      symbolKindName(item.Kind),
		FilePath:  uriutil.URIToPath(item.URI),
		Line:      item.SelectionRange.Start.Line + 1,
		Character: item.SelectionRange.Start.Character + 1,
		Detail:    item.Detail,
	}
}

type incomingCallJSON struct {
	From       hierarchyItemJSON `json:"from"`
	FromRanges []lspRange        `json:"fromRanges"`
}

type outgoingCallJSON struct {
	To         hierarchyItemJSON `json:"to"`
	FromRanges []lspRange        `json:"fromRanges"`
}

func rangesToLocations(filePath string, ranges []lspRange) []LocationResult {
	out := make([]LocationResult, 0, len(ranges))
	for _, rg := range ranges {
		out = append(out, LocationResult{
			FilePath:     filePath,
			Line:         rg.Start.Line + 1,
			Character:    rg.Start.Character + 1,
			EndLine:      intPtr(rg.End.Line + 1),
			EndCharacter: intPtr(rg.End.Character + 1),
		})
	}
	return out
}

// ProcessIncomingCalls normalizes a callHierarchy/incomingCalls result.
// Like ProcessWorkspaceSymbols, this has no corresponding process_* function
// in the extracted original source; designed by analogy to
// ProcessReferences/ProcessDefinition's location handling, applied to the
// standard CallHierarchyIncomingCall wire shape.
func ProcessIncomingCalls(result json.RawMessage) IncomingCallsResult {
	calls := []IncomingCallOutput{}
	if len(result) == 0 || string(result) == "null" {
		return IncomingCallsResult{Calls: calls, Count: 0}
	}

	var raw []incomingCallJSON
	if err := json.Unmarshal(result, &raw); err == nil {
		for _, c := range raw {
			from := hierarchyItemToOutput(c.From)
			calls = append(calls, IncomingCallOutput{
				From:       from,
				FromRanges: rangesToLocations(from.FilePath, c.FromRanges),
			})
		}
	}
	return IncomingCallsResult{Calls: calls, Count: len(calls)}
}

// ProcessOutgoingCalls normalizes a callHierarchy/outgoingCalls result.
// Same grounding-gap note as ProcessIncomingCalls applies.
func ProcessOutgoingCalls(result json.RawMessage) OutgoingCallsResult {
	calls := []OutgoingCallOutput{}
	if len(result) == 0 || string(result) == "null" {
		return OutgoingCallsResult{Calls: calls, Count: 0}
	}

	var raw []outgoingCallJSON
	if err := json.Unmarshal(result, &raw); err == nil {
		for _, c := range raw {
			to := hierarchyItemToOutput(c.To)
			calls = append(calls, OutgoingCallOutput{
				To:         to,
				FromRanges: rangesToLocations(to.FilePath, c.FromRanges),
			})
		}
	}
	return OutgoingCallsResult{Calls: calls, Count: len(calls)}
}

// ProcessTypeHierarchy normalizes a typeHierarchy/supertypes or
// typeHierarchy/subtypes result (both return a TypeHierarchyItem array with
// the identical wire shape as CallHierarchyItem). No process_* function for
// this exists in the extracted original source either; designed by analogy
// to the call-hierarchy handling above.
func ProcessTypeHierarchy(result json.RawMessage) TypeHierarchyResult {
	items := []HierarchyItemOutput{}
	if len(result) == 0 || string(result) == "null" {
		return TypeHierarchyResult{Items: items, Count: 0}
	}

	var raw []hierarchyItemJSON
	if err := json.Unmarshal(result, &raw); err == nil {
		for _, item := range raw {
			items = append(items, hierarchyItemToOutput(item))
		}
	}
	return TypeHierarchyResult{Items: items, Count: len(items)}
}

type textEditJSON struct {
	Range   lspRange `json:"range"`
	NewText string   `json:"newText"`
}

type workspaceEditJSON struct {
	Changes map[string][]textEditJSON `json:"changes"`
}

// ProcessRename normalizes a textDocument/rename result (a WorkspaceEdit).
// Only the "changes" map form is handled; the "documentChanges" form (used
// by servers that need create/rename/delete file operations) is not, since
// cangjie-lsp's rename responses are observed to use plain "changes". No
// process_* function for this exists in the extracted original source
// either (server/tools.rs calls lsp_tools::process_rename); designed by
// analogy to the other hierarchy/location conversions above.
func ProcessRename(result json.RawMessage) RenameResult {
	changes := []RenameFileEdit{}
	if len(result) == 0 || string(result) == "null" {
		return RenameResult{Changes: changes, FileCount: 0}
	}

	var we workspaceEditJSON
	if err := json.Unmarshal(result, &we); err != nil {
		return RenameResult{Changes: changes, FileCount: 0}
	}

	for uri, edits := range we.Changes {
		fileEdit := RenameFileEdit{FilePath: uriutil.URIToPath(uri)}
		for _, e := range edits {
			fileEdit.Edits = append(fileEdit.Edits, TextEditOutput{
				Line:         e.Range.Start.Line + 1,
				Character:    e.Range.Start.Character + 1,
				EndLine:      e.Range.End.Line + 1,
				EndCharacter: e.Range.End.Character + 1,
				NewText:      e.NewText,
			})
		}
		changes = append(changes, fileEdit)
	}
	return RenameResult{Changes: changes, FileCount: len(changes)}
}

// ProcessCompletion normalizes a textDocument/completion result, which may
// be a plain CompletionItem array or a CompletionList object. Grounded on
// tools.rs's process_completion.
func ProcessCompletion(result json.RawMessage) CompletionResult {
	items := []CompletionOutput{}
	if len(result) == 0 || string(result) == "null" {
		return CompletionResult{Items: items, Count: 0}
	}

	var list completionListJSON
	if err := json.Unmarshal(result, &list); err == nil && len(list.Items) > 0 {
		for _, item := range list.Items {
			items = append(items, completionItemToOutput(item))
		}
		return CompletionResult{Items: items, Count: len(items)}
	}

	var arr []completionItemJSON
	if err := json.Unmarshal(result, &arr); err == nil {
		for _, item := range arr {
			items = append(items, completionItemToOutput(item))
		}
	}
	return CompletionResult{Items: items, Count: len(items)}
}
