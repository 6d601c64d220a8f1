package store

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenRegex matches alphanumeric sequences (including underscores for initial split).
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// TokenizeCode splits text with code-aware rules.
// It handles camelCase, PascalCase, snake_case, and filters short tokens.
// All tokens are lowercased.
func TokenizeCode(text string) []string {
	var tokens []string

	// Split on whitespace and punctuation first
	words := tokenRegex.FindAllString(text, -1)

	for _, word := range words {
		// Split camelCase and snake_case
		subTokens := SplitCodeToken(word)
		for _, t := range subTokens {
			lower := strings.ToLower(t)
			// Filter tokens < 2 chars
			if len(lower) >= 2 {
				tokens = append(tokens, lower)
			}
		}
	}

	return tokens
}

// SplitCodeToken splits camelCase and snake_case identifiers.
func SplitCodeToken(token string) []string {
	var result []string

	// Handle snake_case first
	if strings.Contains(token, "_") {
		parts := strings.Split(token, "_")
		for _, part := range parts {
			if part != "" {
				// Recursively handle camelCase in each part
				result = append(result, SplitCamelCase(part)...)
			}
		}
		return result
	}

	return SplitCamelCase(token)
}

// SplitCamelCase splits camelCase and PascalCase identifiers.
// Examples:
//   - "getUserById" -> ["get", "User", "By", "Id"]
//   - "HTTPHandler" -> ["HTTP", "Handler"]
//   - "parseHTTPRequest" -> ["parse", "HTTP", "Request"]
func SplitCamelCase(s string) []string {
	// Return empty slice, not nil, for consistent API behavior (DEBT-012)
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			// Split if previous is lowercase OR next is lowercase (handles acronyms)
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// TokenizeDocs splits documentation text for indexing. It segments runs of
// CJK characters with the jieba/gse search-mode tokenizer (via segmentCJK,
// see tokenizer_cjk*.go) and falls back to the alphanumeric/camelCase
// splitter for everything else, so a sentence mixing Chinese prose with a
// Cangjie identifier like "关于 HttpClient 的说明" yields
// ["关于", "http", "client", "的", "说明"].
func TokenizeDocs(text string) []string {
	var tokens []string
	var run []rune

	flushLatin := func() {
		if len(run) == 0 {
			return
		}
		tokens = append(tokens, TokenizeCode(string(run))...)
		run = run[:0]
	}

	var cjkRun []rune
	flushCJK := func() {
		if len(cjkRun) == 0 {
			return
		}
		for _, seg := range segmentCJK(string(cjkRun)) {
			seg = strings.TrimSpace(seg)
			if seg != "" {
				tokens = append(tokens, strings.ToLower(seg))
			}
		}
		cjkRun = cjkRun[:0]
	}

	for _, r := range text {
		if isCJK(r) {
			flushLatin()
			cjkRun = append(cjkRun, r)
			continue
		}
		flushCJK()
		run = append(run, r)
	}
	flushLatin()
	flushCJK()

	return tokens
}

// isCJK reports whether r falls in one of the common CJK Unicode ranges.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana + Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul syllables
		return true
	default:
		return false
	}
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		lower := strings.ToLower(token)
		if _, isStop := stopWords[lower]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
