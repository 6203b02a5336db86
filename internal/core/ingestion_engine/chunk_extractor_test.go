package ingestion_engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinContent(t *testing.T, md string) string {
	t.Helper()
	var b strings.Builder
	for _, c := range Chunk(md) {
		b.WriteString(c.Content)
	}
	return b.String()
}

func TestChunkHeadings(t *testing.T) {
	md := "intro line\n# Setup\nstep one\n### detail\nmore\n## API\r\ncall it\n"

	chunks := Chunk(md)

	require.Len(t, chunks, 3)
	assert.Equal(t, "chunk-0", chunks[0].ID)
	assert.Equal(t, "Introduction", chunks[0].Title)
	assert.Equal(t, "intro line\n", chunks[0].Content)

	assert.Equal(t, "Setup", chunks[1].Title)
	assert.Equal(t, "# Setup\nstep one\n### detail\nmore\n", chunks[1].Content)

	assert.Equal(t, "chunk-2", chunks[2].ID)
	assert.Equal(t, "API", chunks[2].Title)
	assert.Equal(t, md, joinContent(t, md))
}

func TestChunkSizeAndPreview(t *testing.T) {
	md := "# Заголовок\n" + strings.Repeat("данные ", 100) + "\n"

	chunks := Chunk(md)

	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, utf8.RuneCountInString(c.Content), c.Size)
	assert.Equal(t, 200, utf8.RuneCountInString(c.Preview))
	assert.True(t, strings.HasPrefix(c.Content, c.Preview))
}

func TestChunkForcedSplit(t *testing.T) {
	t.Run("many lines without headings", func(t *testing.T) {
		line := strings.Repeat("x", 99) + "\n"
		md := strings.Repeat(line, 250) // 25,000 chars

		chunks := Chunk(md)

		assert.GreaterOrEqual(t, len(chunks), 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, c.Size, MaxChunkChars)
			assert.Equal(t, "Introduction", c.Title)
		}
		assert.Equal(t, md, joinContent(t, md))
	})

	t.Run("single oversize line", func(t *testing.T) {
		md := strings.Repeat("y", 25000)

		chunks := Chunk(md)

		require.Len(t, chunks, 3)
		assert.Equal(t, 10000, chunks[0].Size)
		assert.Equal(t, 10000, chunks[1].Size)
		assert.Equal(t, 5000, chunks[2].Size)
		assert.Equal(t, md, joinContent(t, md))
	})
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Empty(t, Chunk(""))
}

func TestChunkDeterministic(t *testing.T) {
	md := "# A\n" + strings.Repeat("z", 12000) + "\n# B\nend"
	assert.Equal(t, Chunk(md), Chunk(md))
}
