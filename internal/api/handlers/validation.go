package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/moskvinegor321/Project-analyzer/internal/core/ingestion_engine"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

type analyzeBody struct {
	Payload models.SubmissionPayload `json:"payload"`
	File    struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Data string `json:"data"`
	} `json:"file"`
	Documentation *struct {
		RawMarkdown string `json:"rawMarkdown"`
	} `json:"documentation,omitempty"`
}

func isURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func validatePayload(p models.SubmissionPayload) error {
	if strings.TrimSpace(p.ProjectName) == "" {
		return errors.New("projectName is required")
	}
	if strings.TrimSpace(p.TelegramUsername) == "" {
		return errors.New("telegramUsername is required")
	}
	if !isURL(p.QuotaLink) {
		return errors.New("quotaLink must be a URL")
	}
	if !isURL(p.BlobURL) {
		return errors.New("blobUrl must be a URL")
	}
	for _, u := range p.DocumentationURLs {
		if !isURL(u) {
			return fmt.Errorf("documentationUrls: %q is not a URL", u)
		}
	}
	optional := map[string]string{"tzLink": p.TZLink, "pipedriveLink": p.PipedriveLink, "examplesLink": p.ExamplesLink}
	for name, v := range optional {
		if v != "" && !isURL(v) {
			return fmt.Errorf("%s must be a URL", name)
		}
	}
	return nil
}

// toRequest validates the body and decodes the file.
func (b *analyzeBody) toRequest() (services.AnalyzeRequest, error) {
	var req services.AnalyzeRequest
	if err := validatePayload(b.Payload); err != nil {
		return req, err
	}
	if b.File.Name == "" || b.File.Data == "" {
		return req, errors.New("file is required")
	}
	switch b.File.Type {
	case ingestion_engine.MimePDF, ingestion_engine.MimeDOCX:
	default:
		return req, fmt.Errorf("unsupported file type %q", b.File.Type)
	}
	data, err := base64.StdEncoding.DecodeString(b.File.Data)
	if err != nil {
		return req, fmt.Errorf("file data is not base64: %w", err)
	}

	req.Payload = b.Payload
	req.File = models.UploadedFile{Name: b.File.Name, Type: b.File.Type, Data: data}
	if b.Documentation != nil {
		req.RawMarkdown = b.Documentation.RawMarkdown
	}
	return req, nil
}
