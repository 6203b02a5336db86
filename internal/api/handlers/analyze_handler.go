package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

// maxAnalyzeBody bounds the JSON body, base64 file included.
const maxAnalyzeBody = 64 << 20

type AnalyzeHandler struct {
	svc *services.AnalyzeService
	log *slog.Logger
}

func NewAnalyzeHandler(svc *services.AnalyzeService, log *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc, log: log.With("component", "analyze-handler")}
}

// Analyze validates the submission, registers the review and streams the pipeline as SSE.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		http.Error(w, "Invalid payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	review, err := h.svc.Start(r.Context(), req.Payload)
	if err != nil {
		h.log.Error("pending review not stored", "err", err)
		http.Error(w, "could not register request", http.StatusInternalServerError)
		return
	}

	h.svc.Run(r.Context(), review, req, NewSSEWriter(w, r))
}
