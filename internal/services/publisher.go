package services

import (
	"context"
	"encoding/json"

	"github.com/jomei/notionapi"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/core/notion"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// NotionPublisher turns an analysis into a page in the review database.
type NotionPublisher struct {
	pages core.PageClient
	props *notion.PropertyBuilder
}

func NewNotionPublisher(pages core.PageClient, props *notion.PropertyBuilder) *NotionPublisher {
	return &NotionPublisher{pages: pages, props: props}
}

// CreateAnalysisPage creates the page with the comments as its body. Errors carry NOTION_ERROR.
func (n *NotionPublisher) CreateAnalysisPage(ctx context.Context, p models.SubmissionPayload, a *models.AnalysisResult) (*models.PageRef, error) {
	page, err := n.pages.CreatePage(ctx, n.props.Build(p, a), notion.ParagraphBlocks(a.Comments))
	if err != nil {
		return nil, models.NewAppError(models.CodeNotion, err)
	}
	return page, nil
}

// AppendPromptLog attaches the prompt context log to the page as indented JSON.
func (n *NotionPublisher) AppendPromptLog(ctx context.Context, pageID string, log models.PromptContextLog) error {
	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return models.NewAppError(models.CodeNotion, err)
	}
	if err := n.pages.AppendBlocks(ctx, pageID, notion.ParagraphBlocks("PromptContextLog:\n"+string(raw))); err != nil {
		return models.NewAppError(models.CodeNotion, err)
	}
	return nil
}

// RecordDecision mirrors a reviewer decision onto the page.
func (n *NotionPublisher) RecordDecision(ctx context.Context, pageID string, props notionapi.Properties) error {
	if err := n.pages.UpdatePage(ctx, pageID, props); err != nil {
		return models.NewAppError(models.CodeNotion, err)
	}
	return nil
}

func (n *NotionPublisher) Properties() *notion.PropertyBuilder { return n.props }
