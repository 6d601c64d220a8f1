package chunk

import (
	"regexp"
	"strings"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

// docHeadingPattern matches ATX headings; reused alongside markdown_chunker.go's
// code/table/MDX atomic-block patterns (headerPattern, codeBlockPattern,
// tablePattern, mdxSelfClosingPattern) so both chunkers agree on what an
// "atomic block" is.
var docHeadingPattern = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+\S.*$`)

var sentenceBoundary = regexp.MustCompile(`[.!?][\s]+`)

// ChunkDocument splits doc into TextChunks of at most maxSize runes,
// preferring to split on markdown structural boundaries in order: headings,
// then paragraphs, then sentences, then raw characters. An empty document
// yields no chunks; a document at or under maxSize yields exactly one
// chunk. has_code is recomputed per chunk from its own text; every other
// DocMetadata field is copied from the parent unchanged.
func ChunkDocument(doc model.DocData, maxSize int) []model.TextChunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = 2000
	}

	if runeLen(doc.Text) <= maxSize {
		return []model.TextChunk{newChunk(doc.Text, doc.Metadata)}
	}

	pieces := splitByHeadings(doc.Text, maxSize)
	chunks := make([]model.TextChunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, newChunk(p, doc.Metadata))
	}
	return chunks
}

func newChunk(text string, parent model.DocMetadata) model.TextChunk {
	meta := parent
	meta.HasCode = strings.Contains(text, "```")
	return model.TextChunk{Text: strings.TrimRight(text, "\n"), Metadata: meta}
}

func runeLen(s string) int { return len([]rune(s)) }

// splitByHeadings packs the document into size-bounded pieces, preferring
// to keep whole headings' sections together and falling back to smaller
// units (paragraph, sentence, character) only for sections that themselves
// exceed maxSize.
func splitByHeadings(text string, maxSize int) []string {
	sections := splitKeepingDelimiter(text, docHeadingPattern)
	var units []string
	for _, sec := range sections {
		if runeLen(sec) <= maxSize {
			units = append(units, sec)
			continue
		}
		units = append(units, splitByParagraphs(sec, maxSize)...)
	}
	return packUnits(units, maxSize)
}

// splitKeepingDelimiter splits text into sections starting at each match of
// pattern (a heading line), with any leading preamble (before the first
// heading) as its own section.
func splitKeepingDelimiter(text string, pattern *regexp.Regexp) []string {
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var sections []string
	start := 0
	if locs[0][0] > 0 {
		sections = append(sections, text[:locs[0][0]])
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, text[loc[0]:end])
		start = end
	}
	_ = start
	return sections
}

func splitByParagraphs(text string, maxSize int) []string {
	blocks := findAtomicBlockSpans(text)
	paras := splitOnBlankLinesPreservingBlocks(text, blocks)
	var units []string
	for _, p := range paras {
		if runeLen(p) <= maxSize {
			units = append(units, p)
			continue
		}
		units = append(units, splitBySentences(p, maxSize)...)
	}
	return units
}

func splitBySentences(text string, maxSize int) []string {
	idxs := sentenceBoundary.FindAllStringIndex(text, -1)
	var sentences []string
	start := 0
	for _, loc := range idxs {
		sentences = append(sentences, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	if len(sentences) <= 1 {
		return splitByChars(text, maxSize)
	}
	var units []string
	for _, s := range sentences {
		if runeLen(s) <= maxSize {
			units = append(units, s)
		} else {
			units = append(units, splitByChars(s, maxSize)...)
		}
	}
	return units
}

func splitByChars(text string, maxSize int) []string {
	runes := []rune(text)
	var units []string
	for i := 0; i < len(runes); i += maxSize {
		end := i + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		units = append(units, string(runes[i:end]))
	}
	return units
}

// packUnits greedily concatenates consecutive units into chunks as large as
// possible without exceeding maxSize, so adjacent small sections (e.g. a
// short heading followed by a short paragraph) share a chunk rather than
// each becoming its own.
func packUnits(units []string, maxSize int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	for _, u := range units {
		uLen := runeLen(u)
		if curLen > 0 && curLen+uLen > maxSize {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(u)
		curLen += uLen
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

// findAtomicBlockSpans locates fenced code blocks, tables, and MDX
// components that must never be split across a paragraph boundary.
func findAtomicBlockSpans(text string) [][2]int {
	var spans [][2]int
	for _, loc := range codeBlockPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	for _, loc := range tablePattern.FindAllStringIndex(text, -1) {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	for _, loc := range mdxSelfClosingPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	return spans
}

func insideAnySpan(pos int, spans [][2]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// splitOnBlankLinesPreservingBlocks splits on "\n\n" but never inside an
// atomic block span.
func splitOnBlankLinesPreservingBlocks(text string, spans [][2]int) []string {
	var paras []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '\n' && text[i+1] == '\n' && !insideAnySpan(i, spans) {
			if seg := strings.TrimSpace(text[start:i]); seg != "" {
				paras = append(paras, text[start:i])
			}
			start = i + 2
		}
	}
	if seg := strings.TrimSpace(text[start:]); seg != "" {
		paras = append(paras, text[start:])
	}
	if len(paras) == 0 {
		return []string{text}
	}
	return paras
}
