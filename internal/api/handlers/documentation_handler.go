package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

type DocumentationHandler struct {
	docs services.DocsFetcher
	log  *slog.Logger
}

func NewDocumentationHandler(docs services.DocsFetcher, log *slog.Logger) *DocumentationHandler {
	return &DocumentationHandler{docs: docs, log: log.With("component", "docs-handler")}
}

type documentationRequest struct {
	URLs         []string `json:"urls"`
	ForceRefresh bool     `json:"forceRefresh"`
}

func (h *DocumentationHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req documentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeFailure(w, http.StatusBadRequest, "urls required")
		return
	}

	bundle, err := h.docs.FetchAndChunk(r.Context(), req.URLs, req.ForceRefresh)
	if err != nil {
		h.log.Warn("documentation fetch failed", "err", err)
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"rawMarkdown": bundle.RawMarkdown,
		"chunks":      bundle.Chunks,
		"sourceUrls":  bundle.SourceURLs,
	})
}
