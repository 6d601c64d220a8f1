package lsptools

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveSymbol turns a symbol name (optionally disambiguated by a 1-based
// line hint) into a 0-based (line, character) position, by scanning a
// document's symbol tree for exact or constructor-call-style prefix
// matches ("name(" — matches overloaded/constructor entries the server
// names with their signature). Grounded on server/tools.rs's resolve_symbol.
func ResolveSymbol(symbols SymbolsResult, filePath, symbol string, lineHint *int) (line, character int, err error) {
	var matches [][2]int
	var collect func(syms []SymbolOutput)
	collect = func(syms []SymbolOutput) {
		prefix := symbol + "("
		for _, s := range syms {
			if s.Name == symbol || hasPrefix(s.Name, prefix) {
				matches = append(matches, [2]int{s.Line, s.Character})
			}
			if len(s.Children) > 0 {
				collect(s.Children)
			}
		}
	}
	collect(symbols.Symbols)

	if len(matches) == 0 {
		available := make([]string, 0, len(symbols.Symbols))
		for _, s := range symbols.Symbols {
			available = append(available, s.Name)
		}
		return 0, 0, fmt.Errorf("symbol %q not found in %s. Available: %v", symbol, filePath, available)
	}

	var line1, char1 int
	if len(matches) == 1 {
		line1, char1 = matches[0][0], matches[0][1]
	} else if lineHint != nil {
		best := matches[0]
		bestDist := absInt(best[0] - *lineHint)
		for _, m := range matches[1:] {
			d := absInt(m[0] - *lineHint)
			if d < bestDist {
				best, bestDist = m, d
			}
		}
		line1, char1 = best[0], best[1]
	} else {
		lines := make([]int, 0, len(matches))
		for _, m := range matches {
			lines = append(lines, m[0])
		}
		return 0, 0, fmt.Errorf("symbol %q appears %d times (lines: %v). Provide 'line' to disambiguate", symbol, len(matches), lines)
	}

	return line1 - 1, char1 - 1, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ValidateFilePath checks that filePath exists, is a regular file, and
// carries the configured source extension, returning a human-readable
// problem description or "" if valid. Generalized from tools.rs's
// validate_file_path, which hardcodes ".cj": sourceExtension lets the same
// check serve any language the bridge is configured for.
func ValidateFilePath(filePath, sourceExtension string) string {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Sprintf("File not found: %s", filePath)
	}
	if info.IsDir() {
		return fmt.Sprintf("Not a file: %s", filePath)
	}
	if filepath.Ext(filePath) != sourceExtension {
		return fmt.Sprintf("Not a %s file (expected %s extension): %s", sourceExtension, sourceExtension, filePath)
	}
	return ""
}
