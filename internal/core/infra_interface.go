package core

import (
	"context"
	"time"

	"github.com/jomei/notionapi"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// KVStore is the key-value cache for review records and fetched documentation.
// A missing or expired key is reported as found=false, never as an error.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ObjectClient stores binaries and returns their public URL.
// It is abstract so S3 and MinIO can be swapped by configuration.
type ObjectClient interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}

// PageClient is the page-creation service (Notion).
type PageClient interface {
	CreatePage(ctx context.Context, properties notionapi.Properties, blocks []notionapi.Block) (*models.PageRef, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error
	AppendBlocks(ctx context.Context, pageID string, blocks []notionapi.Block) error
}

// Notifier is the chat-notification service (Telegram).
type Notifier interface {
	SendChannelMessage(ctx context.Context, text string, markup *models.InlineKeyboard) (*models.SentMessage, error)
	SendMessage(ctx context.Context, chatID string, text string, replyTo int64) (*models.SentMessage, error)
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}
