package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/core/analysis_engine"
	db "github.com/moskvinegor321/Project-analyzer/internal/core/database"
	"github.com/moskvinegor321/Project-analyzer/internal/core/ingestion_engine"
	"github.com/moskvinegor321/Project-analyzer/internal/core/telegram"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

const recordTTL = 24 * time.Hour

func ReviewKey(id string) string    { return "review:" + id }
func PromptLogKey(id string) string { return "prompt-log:" + id }

// AnalyzeRequest is one validated submission.
type AnalyzeRequest struct {
	Payload     models.SubmissionPayload
	File        models.UploadedFile
	RawMarkdown string
}

// DocsFetcher turns documentation URLs into markdown chunks.
type DocsFetcher interface {
	FetchAndChunk(ctx context.Context, urls []string, forceRefresh bool) (*ingestion_engine.DocsBundle, error)
}

type AnalyzeOptions struct {
	MaxImages       int
	MaxDiagramPages int
	DocSummaryChars int
}

// AnalyzeDeps are the collaborators of the pipeline.
type AnalyzeDeps struct {
	KV        core.KVStore
	Objects   core.ObjectClient
	Extractor core.DocumentExtractor
	Pages     core.PageInspector
	Docs      DocsFetcher
	Reasoner  *analysis_engine.Reasoner
	Notion    *NotionPublisher
	Notifier  core.Notifier
}

// AnalyzeService runs the upload → extract → select → analyze → publish pipeline.
type AnalyzeService struct {
	deps  AnalyzeDeps
	opts  AnalyzeOptions
	newID func() string
	now   func() time.Time
	log   *slog.Logger
}

func NewAnalyzeService(deps AnalyzeDeps, opts AnalyzeOptions, log *slog.Logger) *AnalyzeService {
	return &AnalyzeService{
		deps:  deps,
		opts:  opts,
		newID: uuid.NewString,
		now:   time.Now,
		log:   log.With("component", "pipeline"),
	}
}

// Start registers a pending review for the submission. The caller must not stream when this fails.
func (s *AnalyzeService) Start(ctx context.Context, p models.SubmissionPayload) (*models.ReviewRequest, error) {
	review := &models.ReviewRequest{
		SubmissionPayload: p,
		ID:                s.newID(),
		CreatedAt:         s.now().UnixMilli(),
		Status:            models.ReviewPending,
		Requester:         models.Requester{Username: strings.TrimPrefix(p.TelegramUsername, "@")},
	}
	if err := db.SetJSON(ctx, s.deps.KV, ReviewKey(review.ID), review, recordTTL); err != nil {
		return nil, fmt.Errorf("store pending review: %w", err)
	}
	return review, nil
}

// Run executes the pipeline for a started review and reports progress to sink.
// Exactly one terminal status is emitted. Cancellation of ctx does not stop the run.
func (s *AnalyzeService) Run(ctx context.Context, review *models.ReviewRequest, req AnalyzeRequest, sink EventSink) {
	ctx = context.WithoutCancel(ctx)
	log := s.log.With("requestId", review.ID)
	p := newProgress(sink, log)

	ev, err := s.run(ctx, review, req, p, log)
	if err != nil {
		s.fail(ctx, review, err, p, log)
		return
	}
	p.result(*ev)
	p.status(models.StageCompleted, 100, "Analysis completed")
	log.Info("analysis completed", "feasibility", ev.Analysis.Feasibility, "notionPageId", ev.NotionPageID)
}

func (s *AnalyzeService) run(ctx context.Context, review *models.ReviewRequest, req AnalyzeRequest, p *progress, log *slog.Logger) (*models.AnalyzeResultEvent, error) {
	id := review.ID

	p.status(models.StageUploading, 5, "Uploading file to blob")
	blobURL, err := s.deps.Objects.Put(ctx, path.Join("uploads", id, path.Base(req.File.Name)), req.File.Data, req.File.Type)
	if err != nil {
		return nil, models.NewAppError(models.CodeUpload, err)
	}
	review.BlobURL = blobURL

	isPDF := req.File.Type == ingestion_engine.MimePDF
	text, pages, err := s.extract(ctx, id, req.File, isPDF, p)
	if err != nil {
		return nil, err
	}

	chunks, err := s.documentation(ctx, req, p)
	if err != nil {
		return nil, err
	}

	var (
		images   []models.SelectedImage
		findings []models.DiagramFinding
	)
	if isPDF {
		p.status(models.StageSelectingImages, 40, "Selecting PDF images")
		images, findings = s.selectVisuals(ctx, pages, log)
	}

	var selected []analysis_engine.SelectedChunk
	if len(chunks) > 0 {
		p.status(models.StageSelectingChunks, 50, "Selecting doc chunks")
		selected = s.selectChunks(ctx, chunks, log)
	}

	p.status(models.StageAnalyzing, 60, "Running AI analysis")
	in := models.AnalysisInput{
		DocSummary:     prefix(text, s.opts.DocSummaryChars),
		SelectedChunks: make([]models.DocChunk, len(selected)),
		Images:         images,
	}
	for i, c := range selected {
		in.SelectedChunks[i] = c.Chunk
	}
	analysis, usage, err := s.deps.Reasoner.Analyze(ctx, in, p.token)
	if err != nil {
		return nil, err
	}
	if len(findings) > 0 {
		analysis.DiagramFindings = findings
	}

	promptLog := buildPromptLog(usage, selected, images)
	if err := db.SetJSON(ctx, s.deps.KV, PromptLogKey(id), promptLog, recordTTL); err != nil {
		log.Warn("prompt log not stored", "err", err)
	}

	p.status(models.StageCreatingNotion, 80, "Creating Notion page")
	page, err := s.deps.Notion.CreateAnalysisPage(ctx, review.SubmissionPayload, analysis)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Notion.AppendPromptLog(ctx, page.ID, promptLog); err != nil {
		return nil, err
	}

	p.status(models.StagePostingTelegram, 90, "Posting to Telegram")
	post := telegram.BuildChannelPost(review.SubmissionPayload, analysis, page.URL)
	msg, err := s.deps.Notifier.SendChannelMessage(ctx, post, telegram.ReviewKeyboard(id))
	if err != nil {
		return nil, models.NewAppError(models.CodeTelegramPost, err)
	}

	review.Status = models.ReviewCompleted
	review.NotionPageID = page.ID
	review.NotionURL = page.URL
	review.Analysis = analysis
	review.Telegram = models.TelegramRefs{ChannelMessageID: msg.MessageID, ThreadID: msg.ThreadID}
	if err := db.SetJSON(ctx, s.deps.KV, ReviewKey(id), review, recordTTL); err != nil {
		log.Warn("completed review not stored", "err", err)
	}

	return &models.AnalyzeResultEvent{
		BlobURL:      blobURL,
		NotionPageID: page.ID,
		NotionURL:    page.URL,
		Analysis:     analysis,
		RequestID:    id,
	}, nil
}

func (s *AnalyzeService) extract(ctx context.Context, id string, f models.UploadedFile, isPDF bool, p *progress) (string, []models.PageInfo, error) {
	if !isPDF {
		p.status(models.StageProcessingDOCX, 20, "Extracting text")
		res, err := s.deps.Extractor.ExtractText(ctx, f.Data, f.Type)
		if err != nil {
			return "", nil, models.NewAppError(models.CodeDocExtract, err)
		}
		return res.Text, nil, nil
	}

	p.status(models.StageProcessingPDF, 20, "Extracting text")
	res, err := s.deps.Extractor.ExtractText(ctx, f.Data, f.Type)
	if err != nil {
		return "", nil, models.NewAppError(models.CodePDFRender, err)
	}
	pages, err := s.deps.Pages.PageInfo(ctx, f.Data, path.Join("pdf-thumbs", id))
	if err != nil {
		return "", nil, models.NewAppError(models.CodePDFRender, err)
	}
	return res.Text, pages, nil
}

// documentation prefers supplied markdown; URLs are fetched only without it.
func (s *AnalyzeService) documentation(ctx context.Context, req AnalyzeRequest, p *progress) ([]models.DocChunk, error) {
	if req.RawMarkdown != "" {
		return ingestion_engine.Chunk(req.RawMarkdown), nil
	}
	if len(req.Payload.DocumentationURLs) == 0 {
		return nil, nil
	}
	p.status(models.StageFetchingDocs, 30, "Fetching documentation")
	bundle, err := s.deps.Docs.FetchAndChunk(ctx, req.Payload.DocumentationURLs, false)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewAppError(models.CodeDocsFetch, err)
	}
	return bundle.Chunks, nil
}

// selectVisuals runs image selection and diagram detection side by side. Both degrade to nothing.
func (s *AnalyzeService) selectVisuals(ctx context.Context, pages []models.PageInfo, log *slog.Logger) ([]models.SelectedImage, []models.DiagramFinding) {
	offered := make([]models.PageInfo, 0, len(pages))
	for _, pg := range pages {
		if pg.ThumbnailURL != "" {
			offered = append(offered, pg)
		}
	}
	if len(offered) == 0 {
		log.Info("pdf has no page images, skipping image selection")
		return nil, nil
	}

	var (
		images   []models.SelectedImage
		findings []models.DiagramFinding
		g        errgroup.Group
	)
	g.Go(func() error {
		sel, err := s.deps.Reasoner.SelectImages(ctx, offered, s.opts.MaxImages)
		if err != nil {
			log.Warn("image selection failed", "err", err)
			return nil
		}
		images = analysis_engine.FilterPageSelections(sel, offered, s.opts.MaxImages)
		return nil
	})
	g.Go(func() error {
		dp := make([]analysis_engine.DiagramPage, len(offered))
		for i, pg := range offered {
			dp[i] = analysis_engine.DiagramPage{Index: pg.Page, ImageURL: pg.ThumbnailURL}
		}
		findings = s.deps.Reasoner.DetectDiagrams(ctx, dp, s.opts.MaxDiagramPages)
		return nil
	})
	_ = g.Wait()

	return images, findings
}

func (s *AnalyzeService) selectChunks(ctx context.Context, chunks []models.DocChunk, log *slog.Logger) []analysis_engine.SelectedChunk {
	metas := make([]models.ChunkMeta, len(chunks))
	for i, c := range chunks {
		metas[i] = c.Meta()
	}
	sel, err := s.deps.Reasoner.SelectChunks(ctx, metas)
	if err != nil {
		log.Warn("chunk selection failed", "err", err)
		return nil
	}
	return analysis_engine.FilterChunkSelections(sel, chunks)
}

func (s *AnalyzeService) fail(ctx context.Context, review *models.ReviewRequest, err error, p *progress, log *slog.Logger) {
	code := models.ClassifyError(err)
	log.Error("analysis failed", "code", code, "err", err)

	failed := *review
	failed.Status = models.ReviewError
	if perr := db.SetJSON(ctx, s.deps.KV, ReviewKey(review.ID), &failed, recordTTL); perr != nil {
		log.Warn("error status not stored", "err", perr)
	}

	details := ""
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		details = appErr.Err.Error()
	}
	p.fail(code, err.Error(), details)
}

func buildPromptLog(u analysis_engine.Usage, chunks []analysis_engine.SelectedChunk, images []models.SelectedImage) models.PromptContextLog {
	log := models.PromptContextLog{
		DocSummaryUsed:    u.DocSummary,
		SelectedDocChunks: make([]models.ChunkLogEntry, len(chunks)),
		SelectedImages:    make([]models.SelectedImage, len(images)),
		TokenEstimate:     models.TokenEstimate{Input: u.InputTokens, Output: u.OutputTokens},
		CostEstimateUSD:   u.CostUSD,
		Truncated:         u.Truncated,
	}
	for i, c := range chunks {
		log.SelectedDocChunks[i] = models.ChunkLogEntry{ID: c.Chunk.ID, Title: c.Chunk.Title, Reason: c.Reason}
	}
	for i, img := range images {
		if img.Reason == "" {
			img.Reason = "selected by model"
		}
		log.SelectedImages[i] = img
	}
	return log
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
