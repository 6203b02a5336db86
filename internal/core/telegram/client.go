// Package telegram talks to the Telegram Bot API and renders the review post.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

type Client struct {
	bot       *tgbotapi.BotAPI
	http      *http.Client
	channelID string
	threadID  int64
}

var _ core.Notifier = (*Client)(nil)

// NewClient does not call getMe; a bad token surfaces on the first send.
func NewClient(baseURL, token, channelID string, threadID int64, timeout time.Duration) *Client {
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		channelID: channelID,
		threadID:  threadID,
	}
	if token == "" {
		return c
	}
	c.bot = &tgbotapi.BotAPI{Token: token, Client: c.http, Buffer: 100}
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		c.bot.SetAPIEndpoint(baseURL + "/bot%s/%s")
	} else {
		c.bot.SetAPIEndpoint(tgbotapi.APIEndpoint)
	}
	return c
}

// ctxDoer binds a request context to the bot's HTTP calls.
type ctxDoer struct {
	ctx    context.Context
	client *http.Client
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(d.ctx))
}

func (c *Client) botFor(ctx context.Context) (*tgbotapi.BotAPI, error) {
	if c.bot == nil {
		return nil, fmt.Errorf("telegram %w: TELEGRAM_BOT_TOKEN missing", models.ErrNotConfigured)
	}
	bot := *c.bot
	bot.Client = ctxDoer{ctx: ctx, client: c.http}
	return &bot, nil
}

// SendChannelMessage posts Markdown text to the review channel (and thread, when configured).
func (c *Client) SendChannelMessage(ctx context.Context, text string, markup *models.InlineKeyboard) (*models.SentMessage, error) {
	if c.channelID == "" {
		return nil, fmt.Errorf("telegram %w: TELEGRAM_CHANNEL_ID missing", models.ErrNotConfigured)
	}
	params := messageParams(c.channelID, text)
	params.AddNonZero64("message_thread_id", c.threadID)
	if markup != nil {
		if err := params.AddInterface("reply_markup", keyboard(markup)); err != nil {
			return nil, fmt.Errorf("telegram: encode keyboard: %w", err)
		}
	}
	return c.sendMessage(ctx, params)
}

// SendMessage sends Markdown text to any chat, optionally as a reply.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, replyTo int64) (*models.SentMessage, error) {
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat id is required")
	}
	params := messageParams(chatID, text)
	params.AddNonZero64("reply_to_message_id", replyTo)
	return c.sendMessage(ctx, params)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	bot, err := c.botFor(ctx)
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return requestError(ctx, "answerCallbackQuery", err)
	}
	return nil
}

// chat_id goes out as given so both numeric ids and @channel names work.
func messageParams(chatID, text string) tgbotapi.Params {
	params := tgbotapi.Params{"chat_id": chatID}
	params.AddNonEmpty("text", text)
	params.AddNonEmpty("parse_mode", tgbotapi.ModeMarkdown)
	return params
}

func (c *Client) sendMessage(ctx context.Context, params tgbotapi.Params) (*models.SentMessage, error) {
	bot, err := c.botFor(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := bot.MakeRequest("sendMessage", params)
	if err != nil {
		return nil, requestError(ctx, "sendMessage", err)
	}
	var msg models.SentMessage
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return nil, fmt.Errorf("telegram sendMessage: decode result: %w", err)
	}
	return &msg, nil
}

// requestError keeps API errors and hides transport errors, whose URL carries the token.
func requestError(ctx context.Context, method string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("telegram %s: %w", method, ctx.Err())
	}
	return fmt.Errorf("telegram %s: request failed", method)
}

func keyboard(k *models.InlineKeyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(k.InlineKeyboard))
	for _, row := range k.InlineKeyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
