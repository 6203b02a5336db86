package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

type ReviewHandler struct {
	svc *services.ReviewService
	log *slog.Logger
}

func NewReviewHandler(svc *services.ReviewService, log *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, log: log.With("component", "review-handler")}
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeFailure(w, http.StatusBadRequest, "id required")
		return
	}
	review, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, services.ErrReviewNotFound) {
		writeFailure(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.log.Error("review lookup failed", "id", id, "err", err)
		writeFailure(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": review})
}
