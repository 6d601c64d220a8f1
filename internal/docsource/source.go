// Package docsource implements the DocumentSource capability: enumerate
// categories, list topics, fetch a document, and load the full corpus, from
// either a local git checkout or a remote peer.
package docsource

import (
	"context"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// Source is the DocumentSource capability (spec.md §4.2).
type Source interface {
	IsAvailable(ctx context.Context) bool
	Categories(ctx context.Context) ([]string, error)
	TopicsIn(ctx context.Context, category string) ([]string, error)
	Document(ctx context.Context, topic string, category string) (*model.DocData, bool, error)
	LoadAll(ctx context.Context) ([]model.DocData, error)
	TopicTitles(ctx context.Context, category string) (map[string]string, error)
}

// DocsSourceDirName maps a docs language code ("zh" or "en", case
// insensitive) to the directory name under docs/dev-guide/ that holds that
// language's documentation tree. Unrecognized codes default to "zh".
func DocsSourceDirName(lang string) string {
	switch lang {
	case "en", "EN", "En", "eN":
		return "source_en"
	default:
		return "source_zh_cn"
	}
}

// ExtractTitle returns the first "^#\s+...$" heading's text, or "".
func ExtractTitle(text string) string {
	for _, line := range splitLines(text) {
		trimmed := trimSpace(line)
		if len(trimmed) > 1 && trimmed[0] == '#' {
			i := 0
			for i < len(trimmed) && trimmed[i] == '#' {
				i++
			}
			if i < len(trimmed) && trimmed[i] == ' ' {
				return trimSpace(trimmed[i+1:])
			}
		}
	}
	return ""
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

// shouldExclude reports whether a tree entry name should be skipped when
// enumerating categories or topics: names beginning with '.' or '_'. This
// predicate is specific to documentation-tree enumeration and is
// deliberately NOT shared with the dependency resolver's traversal (open
// question (b)).
func shouldExclude(name string) bool {
	return len(name) > 0 && (name[0] == '.' || name[0] == '_')
}
