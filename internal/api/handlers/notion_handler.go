package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

type NotionHandler struct {
	pub *services.NotionPublisher
	log *slog.Logger
}

func NewNotionHandler(pub *services.NotionPublisher, log *slog.Logger) *NotionHandler {
	return &NotionHandler{pub: pub, log: log.With("component", "notion-handler")}
}

type notionRequest struct {
	Payload  models.SubmissionPayload `json:"payload"`
	Analysis *models.AnalysisResult   `json:"analysis"`
}

// CreatePage publishes an already computed analysis.
func (h *NotionHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req notionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Analysis == nil {
		writeFailure(w, http.StatusBadRequest, "payload and analysis required")
		return
	}

	page, err := h.pub.CreateAnalysisPage(r.Context(), req.Payload, req.Analysis)
	if err != nil {
		h.log.Warn("notion page not created", "err", err)
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notionPageId": page.ID, "notionUrl": page.URL})
}
