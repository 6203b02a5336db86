package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

type TelegramHandler struct {
	reviews  *services.ReviewService
	notifier core.Notifier
	log      *slog.Logger
}

func NewTelegramHandler(reviews *services.ReviewService, notifier core.Notifier, log *slog.Logger) *TelegramHandler {
	return &TelegramHandler{reviews: reviews, notifier: notifier, log: log.With("component", "telegram-handler")}
}

// Webhook receives bot updates. Telegram retries non-2xx answers, so processing
// problems are logged and the update is still acknowledged.
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid update")
		return
	}
	if update.CallbackQuery != nil {
		if err := h.reviews.HandleCallback(r.Context(), update.CallbackQuery); err != nil {
			h.log.Error("callback not processed", "updateId", update.UpdateID, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type sendRequest struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	ChatID  string `json:"chatId"`
	ReplyTo int64  `json:"replyTo"`
}

// Send relays a message for internal callers: a channel post, a reply or a direct message.
func (h *TelegramHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid body")
		return
	}

	var (
		err  error
		code = models.CodeTelegramPost
	)
	switch req.Type {
	case "post":
		_, err = h.notifier.SendChannelMessage(r.Context(), req.Text, nil)
	case "reply":
		_, err = h.notifier.SendMessage(r.Context(), req.ChatID, req.Text, req.ReplyTo)
	case "dm":
		code = models.CodeTelegramDM
		_, err = h.notifier.SendMessage(r.Context(), req.ChatID, req.Text, 0)
	default:
		writeFailure(w, http.StatusBadRequest, "unsupported type")
		return
	}
	if err != nil {
		h.log.Warn("telegram send failed", "type", req.Type, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "code": code, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
