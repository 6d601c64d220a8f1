package lspbridge

// buildClientCapabilities returns the literal capabilities payload sent on
// initialize, reproduced field-for-field from
// original_source/cangjie-mcp/src/lsp/client.rs's build_client_capabilities:
// client/server interop depends on the exact shape, not a paraphrase.
func buildClientCapabilities() map[string]any {
	return map[string]any{
		"workspace": map[string]any{
			"applyEdit": true,
			"workspaceEdit": map[string]any{
				"documentChanges":      true,
				"resourceOperations":   []string{"create", "rename", "delete"},
				"failureHandling":      "textOnlyTransactional",
				"normalizesLineEndings": true,
				"changeAnnotationSupport": map[string]any{
					"groupsOnLabel": true,
				},
			},
			"configuration": true,
			"didChangeWatchedFiles": map[string]any{
				"dynamicRegistration":      true,
				"relativePatternSupport":   true,
			},
			"symbol": map[string]any{
				"dynamicRegistration": true,
				"symbolKind": map[string]any{
					"valueSet": symbolKindValueSet,
				},
				"tagSupport": map[string]any{
					"valueSet": []int{1},
				},
				"resolveSupport": map[string]any{
					"properties": []string{"location.range"},
				},
			},
			"codeLens":               map[string]any{"refreshSupport": true},
			"executeCommand":         map[string]any{"dynamicRegistration": true},
			"didChangeConfiguration": map[string]any{"dynamicRegistration": true},
			"workspaceFolders":       true,
			"semanticTokens":         map[string]any{"refreshSupport": true},
			"fileOperations": map[string]any{
				"dynamicRegistration": true,
				"didCreate":           true,
				"didRename":           true,
				"didDelete":           true,
				"willCreate":          true,
				"willRename":          true,
				"willDelete":          true,
			},
			"inlineValue": map[string]any{"refreshSupport": true},
			"inlayHint":   map[string]any{"refreshSupport": true},
			"diagnostics": map[string]any{"refreshSupport": true},
		},
		"textDocument": map[string]any{
			"publishDiagnostics": map[string]any{
				"relatedInformation": true,
				"versionSupport":     false,
				"tagSupport": map[string]any{
					"valueSet": []int{1, 2},
				},
				"codeDescriptionSupport": true,
				"dataSupport":            true,
			},
			"synchronization": map[string]any{
				"dynamicRegistration": true,
				"willSave":            true,
				"willSaveWaitUntil":   true,
				"didSave":             true,
			},
			"completion": map[string]any{
				"dynamicRegistration": true,
				"contextSupport":      true,
				"completionItem": map[string]any{
					"snippetSupport":           true,
					"commitCharactersSupport":  true,
					"documentationFormat":      []string{"markdown", "plaintext"},
					"deprecatedSupport":        true,
					"preselectSupport":         true,
					"tagSupport":               map[string]any{"valueSet": []int{1}},
					"insertReplaceSupport":     true,
					"resolveSupport":           map[string]any{"properties": []string{"documentation", "detail", "additionalTextEdits"}},
					"insertTextModeSupport":    map[string]any{"valueSet": []int{1, 2}},
					"labelDetailsSupport":      true,
				},
				"insertTextMode": 2,
				"completionItemKind": map[string]any{
					"valueSet": completionKindValueSet,
				},
				"completionList": map[string]any{
					"itemDefaults": []string{"commitCharacters", "editRange", "insertTextFormat", "insertTextMode"},
				},
			},
			"hover": map[string]any{
				"dynamicRegistration": true,
				"contentFormat":       []string{"markdown", "plaintext"},
			},
			"signatureHelp": map[string]any{
				"dynamicRegistration": true,
				"signatureInformation": map[string]any{
					"documentationFormat": []string{"markdown", "plaintext"},
					"parameterInformation": map[string]any{
						"labelOffsetSupport": true,
					},
					"activeParameterSupport": true,
				},
				"contextSupport": true,
			},
			"definition":        map[string]any{"dynamicRegistration": true, "linkSupport": true},
			"references":        map[string]any{"dynamicRegistration": true},
			"documentHighlight": map[string]any{"dynamicRegistration": true},
			"documentSymbol": map[string]any{
				"dynamicRegistration": true,
				"symbolKind": map[string]any{
					"valueSet": symbolKindValueSet,
				},
				"hierarchicalDocumentSymbolSupport": true,
				"tagSupport":                        map[string]any{"valueSet": []int{1}},
				"labelSupport":                       true,
			},
			"codeAction": map[string]any{
				"dynamicRegistration": true,
				"isPreferredSupport":  true,
				"disabledSupport":     true,
				"dataSupport":         true,
				"resolveSupport":      map[string]any{"properties": []string{"edit"}},
				"codeActionLiteralSupport": map[string]any{
					"codeActionKind": map[string]any{
						"valueSet": []string{
							"", "quickfix", "refactor", "refactor.extract", "refactor.inline",
							"refactor.rewrite", "source", "source.organizeImports",
						},
					},
				},
				"honorsChangeAnnotations": false,
			},
			"codeLens":           map[string]any{"dynamicRegistration": true},
			"formatting":         map[string]any{"dynamicRegistration": true},
			"rangeFormatting":    map[string]any{"dynamicRegistration": true},
			"onTypeFormatting":   map[string]any{"dynamicRegistration": true},
			"rename": map[string]any{
				"dynamicRegistration":           true,
				"prepareSupport":                true,
				"prepareSupportDefaultBehavior": 1,
				"honorsChangeAnnotations":       true,
			},
			"documentLink":   map[string]any{"dynamicRegistration": true, "tooltipSupport": true},
			"typeDefinition": map[string]any{"dynamicRegistration": true, "linkSupport": true},
			"implementation": map[string]any{"dynamicRegistration": true, "linkSupport": true},
			"colorProvider":  map[string]any{"dynamicRegistration": true},
			"foldingRange": map[string]any{
				"dynamicRegistration": true,
				"rangeLimit":          5000,
				"lineFoldingOnly":     true,
				"foldingRangeKind":    map[string]any{"valueSet": []string{"comment", "imports", "region"}},
				"foldingRange":        map[string]any{"collapsedText": false},
			},
			"declaration":    map[string]any{"dynamicRegistration": true, "linkSupport": true},
			"selectionRange": map[string]any{"dynamicRegistration": true},
			"callHierarchy":  map[string]any{"dynamicRegistration": true},
			"semanticTokens": map[string]any{
				"dynamicRegistration": true,
				"tokenTypes": []string{
					"namespace", "type", "class", "enum", "interface", "struct",
					"typeParameter", "parameter", "variable", "property", "enumMember",
					"event", "function", "method", "macro", "keyword", "modifier",
					"comment", "string", "number", "regexp", "operator", "decorator",
				},
				"tokenModifiers": []string{
					"declaration", "definition", "readonly", "static", "deprecated",
					"abstract", "async", "modification", "documentation", "defaultLibrary",
				},
				"formats": []string{"relative"},
				"requests": map[string]any{
					"range": true,
					"full":  map[string]any{"delta": true},
				},
				"multilineTokenSupport":   false,
				"overlappingTokenSupport": false,
				"serverCancelSupport":     true,
				"augmentsSyntaxTokens":    true,
			},
			"linkedEditingRange": map[string]any{"dynamicRegistration": true},
			"typeHierarchy":      map[string]any{"dynamicRegistration": true},
			"inlineValue":        map[string]any{"dynamicRegistration": true},
			"inlayHint": map[string]any{
				"dynamicRegistration": true,
				"resolveSupport": map[string]any{
					"properties": []string{"tooltip", "textEdits", "label.tooltip", "label.location", "label.command"},
				},
			},
			"diagnostic": map[string]any{
				"dynamicRegistration":      true,
				"relatedDocumentSupport": false,
			},
		},
		"window": map[string]any{
			"showMessage": map[string]any{
				"messageActionItem": map[string]any{"additionalPropertiesSupport": true},
			},
			"showDocument":    map[string]any{"support": true},
			"workDoneProgress": true,
		},
		"general": map[string]any{
			"staleRequestSupport": map[string]any{
				"cancel": true,
				"retryOnContentModified": []string{
					"textDocument/semanticTokens/full",
					"textDocument/semanticTokens/range",
					"textDocument/semanticTokens/full/delta",
				},
			},
			"regularExpressions": map[string]any{"engine": "ECMAScript", "version": "ES2020"},
			"markdown":           map[string]any{"parser": "marked", "version": "1.1.0"},
			"positionEncodings":  []string{"utf-16"},
		},
		"notebookDocument": map[string]any{
			"synchronization": map[string]any{
				"dynamicRegistration":       true,
				"executionSummarySupport": true,
			},
		},
	}
}

var symbolKindValueSet = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26}

var completionKindValueSet = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
