package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/core/ingestion_engine"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

var (
	pdfFile  = models.UploadedFile{Name: "spec.pdf", Type: ingestion_engine.MimePDF, Data: []byte("%PDF-1.7")}
	docxFile = models.UploadedFile{Name: "spec.docx", Type: ingestion_engine.MimeDOCX, Data: []byte("PK")}
)

func splitAnswer(s string) []string {
	mid := len(s) / 2
	return []string{s[:mid], s[mid:]}
}

func storedReview(t *testing.T, h *harness, id string) models.ReviewRequest {
	t.Helper()
	var r models.ReviewRequest
	found, err := db.GetJSON(context.Background(), h.kv, ReviewKey(id), &r)
	require.NoError(t, err)
	require.True(t, found)
	return r
}

func TestStartStoresPendingReview(t *testing.T) {
	h := newHarness(t, &scriptedLLM{})

	review, err := h.svc.Start(context.Background(), testPayload())
	require.NoError(t, err)

	got := storedReview(t, h, review.ID)
	assert.Equal(t, models.ReviewPending, got.Status)
	assert.Equal(t, "alice", got.Requester.Username)
	assert.Equal(t, "Acme", got.ProjectName)
	assert.NotZero(t, got.CreatedAt)
}

func TestRunPDFWithoutDocs(t *testing.T) {
	llm := &scriptedLLM{
		images:   `{"selected":[{"page":2,"reason":"architecture"},{"page":9,"reason":"not offered"}],"skip":[]}`,
		diagrams: `[{"page":1,"type":"diagram","description":"flow","implications":"steps"}]`,
		analysis: splitAnswer(analysisJSON),
	}
	h := newHarness(t, llm)
	h.pages.pages = []models.PageInfo{
		{Page: 1, TextChars: 120, ThumbnailURL: "https://blob.test/t1.png"},
		{Page: 2, TextChars: 80, ThumbnailURL: "https://blob.test/t2.png"},
		{Page: 3, TextChars: 10},
	}
	ctx := context.Background()

	review, err := h.svc.Start(ctx, testPayload())
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{Payload: testPayload(), File: pdfFile}, h.sink)

	assert.Equal(t, []string{
		"uploading:5", "processing-pdf:20", "selecting-images:40", "analyzing:60",
		"token", "token",
		"creating-notion:80", "posting-telegram:90", "result", "completed:100",
	}, h.sink.trace())

	assert.Equal(t, []string{"uploads/req-1/spec.pdf"}, h.objects.keys)
	assert.Equal(t, "pdf-thumbs/req-1", h.pages.prefix)

	require.Len(t, llm.streams, 1)
	assert.Equal(t, []string{"https://blob.test/t2.png"}, llm.streams[0].ImageURLs)
	assert.Contains(t, llm.streams[0].Prompt, "Invoice processing requirements")

	res := h.sink.events[8].data.(models.AnalyzeResultEvent)
	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, "page-1", res.NotionPageID)
	assert.Equal(t, "https://blob.test/uploads/req-1/spec.pdf", res.BlobURL)
	require.Len(t, res.Analysis.DiagramFindings, 1)
	assert.Equal(t, "https://blob.test/t1.png", res.Analysis.DiagramFindings[0].ImageURL)

	got := storedReview(t, h, "req-1")
	assert.Equal(t, models.ReviewCompleted, got.Status)
	assert.Equal(t, "https://notion.so/page-1", got.NotionURL)
	assert.Equal(t, models.TelegramRefs{ChannelMessageID: 77, ThreadID: 5}, got.Telegram)
	assert.Equal(t, models.FeasibilityHigh, got.Analysis.Feasibility)

	var plog models.PromptContextLog
	found, err := db.GetJSON(ctx, h.kv, PromptLogKey("req-1"), &plog)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, plog.SelectedImages, 1)
	assert.Equal(t, "architecture", plog.SelectedImages[0].Reason)
	assert.Positive(t, plog.TokenEstimate.Input)

	require.Len(t, h.notion.blocks, 1)
	assert.Equal(t, "Looks doable", blockText(h.notion.blocks[0][0]))
	require.Len(t, h.notion.appended, 1)
	assert.True(t, strings.HasPrefix(blockText(h.notion.appended[0][0]), "PromptContextLog:\n{"))

	require.Len(t, h.notifier.posts, 1)
	assert.Contains(t, h.notifier.posts[0], "https://notion.so/page-1")
	assert.Equal(t, "act:req-1:approve", h.notifier.markups[0].InlineKeyboard[0][0].CallbackData)
}

func TestRunDOCXWithRawMarkdown(t *testing.T) {
	llm := &scriptedLLM{
		chunks:   `{"selected":[{"id":"chunk-1","reason":"api"},{"id":"chunk-9","reason":"ghost"}]}`,
		analysis: []string{analysisJSON},
	}
	h := newHarness(t, llm)
	ctx := context.Background()

	p := testPayload()
	p.DocumentationURLs = []string{"https://docs.example.com/ignored"}
	review, err := h.svc.Start(ctx, p)
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{
		Payload:     p,
		File:        docxFile,
		RawMarkdown: "# Intro\nhello\n## API\nendpoints\n",
	}, h.sink)

	assert.Equal(t, []string{
		"uploading:5", "processing-docx:20", "selecting-chunks:50", "analyzing:60",
		"token", "creating-notion:80", "posting-telegram:90", "result", "completed:100",
	}, h.sink.trace())

	require.Len(t, llm.streams, 1)
	assert.Contains(t, llm.streams[0].Prompt, "### Chunk 1: API\n## API\nendpoints")
	assert.NotContains(t, llm.streams[0].Prompt, "hello")
	assert.Empty(t, llm.streams[0].ImageURLs)
}

func TestRunInvalidModelJSON(t *testing.T) {
	h := newHarness(t, &scriptedLLM{analysis: []string{"Here is my analysis: ", "feasible"}})
	ctx := context.Background()

	review, err := h.svc.Start(ctx, testPayload())
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{Payload: testPayload(), File: docxFile}, h.sink)

	last := h.sink.last()
	assert.Equal(t, models.StageError, last.Stage)
	assert.Equal(t, 100, last.Progress)
	require.NotNil(t, last.Error)
	assert.Equal(t, models.CodeModelInvalidJSON, last.Error.Code)

	assert.Equal(t, models.ReviewError, storedReview(t, h, "req-1").Status)
	assert.Empty(t, h.notion.properties)
	assert.Empty(t, h.notifier.posts)
}

func TestRunDisallowedDocsDomain(t *testing.T) {
	llm := &scriptedLLM{analysis: []string{analysisJSON}}
	h := newHarness(t, llm, "docs.example.com")
	ctx := context.Background()

	p := testPayload()
	p.DocumentationURLs = []string{"https://evil.test/doc"}
	review, err := h.svc.Start(ctx, p)
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{Payload: p, File: docxFile}, h.sink)

	assert.Equal(t, []string{"uploading:5", "processing-docx:20", "fetching-docs:30", "error:100"}, h.sink.trace())
	assert.Equal(t, models.CodeDocsFetch, h.sink.last().Error.Code)
	assert.Zero(t, llm.calls())
}

func TestRunDegradedSelection(t *testing.T) {
	llm := &scriptedLLM{
		imagesErr: errors.New("upstream 503"),
		diagrams:  "no diagrams here",
		analysis:  []string{analysisJSON},
	}
	h := newHarness(t, llm)
	h.pages.pages = []models.PageInfo{{Page: 1, ThumbnailURL: "https://blob.test/t1.png"}}
	ctx := context.Background()

	review, err := h.svc.Start(ctx, testPayload())
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{Payload: testPayload(), File: pdfFile}, h.sink)

	assert.Equal(t, models.StageCompleted, h.sink.last().Stage)
	require.Len(t, llm.streams, 1)
	assert.Empty(t, llm.streams[0].ImageURLs)
	assert.Empty(t, storedReview(t, h, "req-1").Analysis.DiagramFindings)
}

func TestRunSelectionWithoutSelectedKey(t *testing.T) {
	llm := &scriptedLLM{
		images:   `{"pages":[{"page":1,"reason":"diagram"}]}`,
		chunks:   `{"chosen":[{"id":"chunk-1","reason":"api"}]}`,
		diagrams: `{"findings":[]}`,
		analysis: []string{analysisJSON},
	}
	h := newHarness(t, llm)
	h.pages.pages = []models.PageInfo{{Page: 1, ThumbnailURL: "https://blob.test/t1.png"}}
	ctx := context.Background()

	review, err := h.svc.Start(ctx, testPayload())
	require.NoError(t, err)
	h.svc.Run(ctx, review, AnalyzeRequest{
		Payload:     testPayload(),
		File:        pdfFile,
		RawMarkdown: "# Intro\nhello\n## API\nendpoints\n",
	}, h.sink)

	assert.Equal(t, []string{
		"uploading:5", "processing-pdf:20", "selecting-images:40", "selecting-chunks:50", "analyzing:60",
		"token", "creating-notion:80", "posting-telegram:90", "result", "completed:100",
	}, h.sink.trace())

	require.Len(t, llm.streams, 1)
	assert.Empty(t, llm.streams[0].ImageURLs)
	assert.NotContains(t, llm.streams[0].Prompt, "endpoints")
	assert.Equal(t, models.ReviewCompleted, storedReview(t, h, "req-1").Status)
}

func TestRunErrorCodes(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *harness)
		file  models.UploadedFile
		want  models.ErrorCode
	}{
		{"upload", func(h *harness) { h.objects.err = errors.New("object store not configured") }, docxFile, models.CodeUpload},
		{"docx extraction", func(h *harness) { h.extractor.err = errors.New("corrupt zip") }, docxFile, models.CodeDocExtract},
		{"pdf pages", func(h *harness) { h.pages.err = errors.New("pdfcpu read: broken xref") }, pdfFile, models.CodePDFRender},
		{"notion", func(h *harness) { h.notion.err = errors.New("HTTP 401") }, docxFile, models.CodeNotion},
		{"telegram", func(h *harness) { h.notifier.channelErr = errors.New("chat not found") }, docxFile, models.CodeTelegramPost},
		{"stream", func(h *harness) { h.llm.streamErr = errors.New("connection reset") }, docxFile, models.CodeUpload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &scriptedLLM{analysis: []string{analysisJSON}})
			tc.setup(h)
			ctx := context.Background()

			review, err := h.svc.Start(ctx, testPayload())
			require.NoError(t, err)
			h.svc.Run(ctx, review, AnalyzeRequest{Payload: testPayload(), File: tc.file}, h.sink)

			last := h.sink.last()
			assert.Equal(t, models.StageError, last.Stage)
			assert.Equal(t, tc.want, last.Error.Code)
			assert.Equal(t, models.ReviewError, storedReview(t, h, "req-1").Status)
		})
	}
}

func TestRunSurvivesClosedTransport(t *testing.T) {
	h := newHarness(t, &scriptedLLM{analysis: []string{analysisJSON}})
	h.sink.closeAfter = 2
	ctx, cancel := context.WithCancel(context.Background())

	review, err := h.svc.Start(ctx, testPayload())
	require.NoError(t, err)
	cancel()
	h.svc.Run(ctx, review, AnalyzeRequest{Payload: testPayload(), File: docxFile}, h.sink)

	assert.Len(t, h.sink.events, 2)
	assert.Equal(t, 1, h.sink.rejected)
	assert.Equal(t, models.ReviewCompleted, storedReview(t, h, "req-1").Status)
	assert.Len(t, h.notifier.posts, 1)
}

func TestProgressIsMonotonicAndTerminal(t *testing.T) {
	sink := &recordingSink{}
	p := newProgress(sink, logger.Discard())

	p.status(models.StageAnalyzing, 60, "a")
	p.status(models.StageSelectingChunks, 50, "late")
	p.fail(models.CodeNotion, "boom", "")
	p.status(models.StageCompleted, 100, "ignored")
	p.token("ignored")

	assert.Equal(t, []string{"analyzing:60", "selecting-chunks:60", "error:100"}, sink.trace())
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "при", prefix("привет", 3))
	assert.Equal(t, "abc", prefix("abc", 10))
	assert.Equal(t, "abc", prefix("abc", 0))
}
