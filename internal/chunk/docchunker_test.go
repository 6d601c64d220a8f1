package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

func doc(text string) model.DocData {
	return model.DocData{
		DocID: "basics/variables.md",
		Text:  text,
		Metadata: model.DocMetadata{
			FilePath: "basics/variables.md",
			Category: "basics",
			Topic:    "variables",
			Title:    "Variables",
		},
	}
}

func TestChunkDocument_EmptyYieldsEmpty(t *testing.T) {
	assert.Empty(t, ChunkDocument(doc(""), 500))
	assert.Empty(t, ChunkDocument(doc("   \n\n  "), 500))
}

func TestChunkDocument_SmallDocYieldsOneChunk(t *testing.T) {
	text := "# Variables\n\nA variable binds a name to a value."
	chunks := ChunkDocument(doc(text), 500)
	require.Len(t, chunks, 1)
	assert.Equal(t, "basics", chunks[0].Metadata.Category)
	assert.Equal(t, "variables", chunks[0].Metadata.Topic)
}

func TestChunkDocument_MetadataPreservedExceptHasCode(t *testing.T) {
	d := doc("# Title\n\nSome body text without code.")
	chunks := ChunkDocument(d, 500)
	require.Len(t, chunks, 1)
	assert.Equal(t, d.Metadata.FilePath, chunks[0].Metadata.FilePath)
	assert.Equal(t, d.Metadata.Title, chunks[0].Metadata.Title)
	assert.False(t, chunks[0].Metadata.HasCode)
}

func TestChunkDocument_CodeDetectionPerChunk(t *testing.T) {
	text := "# A\n\n```cangjie\nlet x = 1\n```\n\n# B\n\nno code here at all"
	chunks := ChunkDocument(doc(text), 20)
	require.NotEmpty(t, chunks)
	foundCode, foundPlain := false, false
	for _, c := range chunks {
		hasFence := strings.Contains(c.Text, "```")
		assert.Equal(t, hasFence, c.Metadata.HasCode)
		if hasFence {
			foundCode = true
		} else {
			foundPlain = true
		}
	}
	assert.True(t, foundCode)
	assert.True(t, foundPlain)
}

func TestChunkDocument_LargeDocSplitsIntoMultipleChunks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("## Section heading\n\nThis is a reasonably long paragraph of body text that repeats. ")
	}
	chunks := ChunkDocument(doc(sb.String()), 200)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, runeLen(c.Text), 200+runeLen("## Section heading\n\n"))
	}
}

func TestChunkDocument_CompletenessCoversAllHeadings(t *testing.T) {
	text := "# Top\n\nIntro paragraph.\n\n## First\n\nFirst body.\n\n## Second\n\nSecond body."
	chunks := ChunkDocument(doc(text), 30)
	var all strings.Builder
	for _, c := range chunks {
		all.WriteString(c.Text)
		all.WriteString(" ")
	}
	joined := all.String()
	for _, heading := range []string{"# Top", "## First", "## Second"} {
		assert.Contains(t, joined, heading)
	}
}
