package ingestion_engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

const (
	// MaxChunkChars is the hard ceiling on a chunk's content, in characters.
	MaxChunkChars = 10000
	previewChars  = 200
	defaultTitle  = "Introduction"
)

// h1/h2 only; "###" does not split.
var headingRe = regexp.MustCompile(`^##?\s+(.*)`)

// Chunk splits markdown into heading-titled chunks of at most MaxChunkChars characters.
// Lines keep their terminators, so concatenating every Content in order yields the input.
func Chunk(markdown string) []models.DocChunk {
	var (
		out   []models.DocChunk
		title = defaultTitle
		buf   strings.Builder
		size  int
	)

	flush := func() {
		if size == 0 {
			return
		}
		out = append(out, newChunk(len(out), title, buf.String(), size))
		buf.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(markdown, "\n") {
		if line == "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			if title == "" {
				title = defaultTitle
			}
		}

		n := utf8.RuneCountInString(line)
		if size+n > MaxChunkChars {
			flush()
		}
		for n > MaxChunkChars {
			head, rest := splitRunes(line, MaxChunkChars)
			buf.WriteString(head)
			size = MaxChunkChars
			flush()
			line, n = rest, n-MaxChunkChars
		}
		buf.WriteString(line)
		size += n
	}
	flush()
	return out
}

func newChunk(idx int, title, content string, size int) models.DocChunk {
	preview, _ := splitRunes(content, previewChars)
	return models.DocChunk{
		ID:      fmt.Sprintf("chunk-%d", idx),
		Title:   title,
		Size:    size,
		Preview: preview,
		Content: content,
	}
}

// splitRunes cuts s after n runes; head is all of s when it is shorter.
func splitRunes(s string, n int) (head, rest string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
