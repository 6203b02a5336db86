package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/require"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/core/analysis_engine"
	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/core/ingestion_engine"
	"github.com/moskvinegor321/Project-analyzer/internal/core/notion"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

const analysisJSON = `{"feasibility":"high","comments":"Looks doable","missingRequirements":["SLA"],` +
	`"estimatedTimeline":"4 weeks","confidence":0.8,"documentSummary":"Invoices"}`

// scriptedLLM answers each kind of JSON call with a canned response.
type scriptedLLM struct {
	mu        sync.Mutex
	images    string
	imagesErr error
	chunks    string
	diagrams  string
	analysis  []string
	streamErr error
	completes []core.LLMRequest
	streams   []core.LLMRequest
}

func (f *scriptedLLM) Complete(_ context.Context, req core.LLMRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes = append(f.completes, req)
	switch {
	case strings.Contains(req.Prompt, "\nPages:\n"):
		return f.images, f.imagesErr
	case strings.Contains(req.Prompt, "\nChunks:\n"):
		return f.chunks, nil
	default:
		return f.diagrams, nil
	}
}

func (f *scriptedLLM) Stream(_ context.Context, req core.LLMRequest, onText func(string)) error {
	f.mu.Lock()
	f.streams = append(f.streams, req)
	f.mu.Unlock()
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, c := range f.analysis {
		onText(c)
	}
	return nil
}

func (f *scriptedLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completes) + len(f.streams)
}

type fakeObjects struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeObjects) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://blob.test/" + key, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(context.Context, []byte, string) (*core.ExtractedText, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.ExtractedText{Text: f.text}, nil
}

type fakePages struct {
	pages  []models.PageInfo
	err    error
	prefix string
}

func (f *fakePages) PageInfo(_ context.Context, _ []byte, keyPrefix string) ([]models.PageInfo, error) {
	f.prefix = keyPrefix
	return f.pages, f.err
}

type fakeNotion struct {
	mu         sync.Mutex
	properties []notionapi.Properties
	blocks     [][]notionapi.Block
	appended   [][]notionapi.Block
	updates    map[string]notionapi.Properties
	err        error
}

func (f *fakeNotion) CreatePage(_ context.Context, properties notionapi.Properties, blocks []notionapi.Block) (*models.PageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.properties = append(f.properties, properties)
	f.blocks = append(f.blocks, blocks)
	return &models.PageRef{ID: "page-1", URL: "https://notion.so/page-1"}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, properties notionapi.Properties) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]notionapi.Properties{}
	}
	f.updates[pageID] = properties
	return f.err
}

func (f *fakeNotion) AppendBlocks(_ context.Context, _ string, blocks []notionapi.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, blocks)
	return f.err
}

type fakeNotifier struct {
	mu         sync.Mutex
	posts      []string
	markups    []*models.InlineKeyboard
	direct     []string
	answers    []string
	channelErr error
	directErr  error
}

func (f *fakeNotifier) SendChannelMessage(_ context.Context, text string, markup *models.InlineKeyboard) (*models.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	f.posts = append(f.posts, text)
	f.markups = append(f.markups, markup)
	return &models.SentMessage{MessageID: 77, ThreadID: 5}, nil
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID, text string, replyTo int64) (*models.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.directErr != nil {
		return nil, f.directErr
	}
	f.direct = append(f.direct, fmt.Sprintf("%s|%d|%s", chatID, replyTo, text))
	return &models.SentMessage{MessageID: 1}, nil
}

func (f *fakeNotifier) AnswerCallbackQuery(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

type event struct {
	name string
	data any
}

// recordingSink keeps every event; after closeAfter events (when > 0) it reports a closed transport.
type recordingSink struct {
	events     []event
	closeAfter int
	rejected   int
}

func (s *recordingSink) Send(name string, data any) error {
	if s.closeAfter > 0 && len(s.events) >= s.closeAfter {
		s.rejected++
		return fmt.Errorf("client gone")
	}
	s.events = append(s.events, event{name, data})
	return nil
}

// trace renders statuses as "stage:progress" and other events by name.
func (s *recordingSink) trace() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		if st, ok := e.data.(models.ProcessingStatus); ok {
			out = append(out, fmt.Sprintf("%s:%d", st.Stage, st.Progress))
			continue
		}
		out = append(out, e.name)
	}
	return out
}

func (s *recordingSink) last() models.ProcessingStatus {
	for i := len(s.events) - 1; i >= 0; i-- {
		if st, ok := s.events[i].data.(models.ProcessingStatus); ok {
			return st
		}
	}
	return models.ProcessingStatus{}
}

type harness struct {
	svc       *AnalyzeService
	kv        *db.MemoryStore
	llm       *scriptedLLM
	objects   *fakeObjects
	extractor *fakeExtractor
	pages     *fakePages
	notion    *fakeNotion
	notifier  *fakeNotifier
	sink      *recordingSink
}

func newHarness(t *testing.T, llm *scriptedLLM, allowedDocs ...string) *harness {
	t.Helper()
	kv, err := db.NewMemoryStore(100)
	require.NoError(t, err)

	h := &harness{
		kv:        kv,
		llm:       llm,
		objects:   &fakeObjects{},
		extractor: &fakeExtractor{text: "Invoice processing requirements"},
		pages:     &fakePages{},
		notion:    &fakeNotion{},
		notifier:  &fakeNotifier{},
		sink:      &recordingSink{},
	}
	log := logger.Discard()
	guard := analysis_engine.BudgetGuard{MaxInputTokens: 180000, MaxOutputTokens: 2048, CostSoftLimitUSD: 0.5}

	h.svc = NewAnalyzeService(AnalyzeDeps{
		KV:        kv,
		Objects:   h.objects,
		Extractor: h.extractor,
		Pages:     h.pages,
		Docs:      ingestion_engine.NewDocumentationFetcher(kv, allowedDocs, time.Second, log),
		Reasoner:  analysis_engine.NewReasoner(llm, guard, time.Second, log),
		Notion:    NewNotionPublisher(h.notion, notion.NewPropertyBuilder(nil)),
		Notifier:  h.notifier,
	}, AnalyzeOptions{MaxImages: 10, MaxDiagramPages: 10, DocSummaryChars: 5000}, log)
	h.svc.newID = func() string { return "req-1" }
	return h
}

func testPayload() models.SubmissionPayload {
	return models.SubmissionPayload{
		ProjectName:      "Acme",
		TelegramUsername: "@alice",
		QuotaLink:        "https://quota.test/1",
		BlobURL:          "https://client.test/spec.pdf",
		FileName:         "spec.pdf",
	}
}

func blockText(b notionapi.Block) string {
	p := b.(*notionapi.ParagraphBlock)
	return p.Paragraph.RichText[0].Text.Content
}
