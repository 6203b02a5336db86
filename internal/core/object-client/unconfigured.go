package objectclient

import (
	"context"
	"fmt"
	"log/slog"

	cfg "github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Unconfigured is used when the blob store could not be built at startup.
// Every upload fails with the startup reason.
type Unconfigured struct {
	Reason error
}

func (u Unconfigured) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", fmt.Errorf("object store %w: %v", models.ErrNotConfigured, u.Reason)
}

// New picks the backend named by BLOB_PROVIDER.
func New(ctx context.Context, c *cfg.Config, log *slog.Logger) core.ObjectClient {
	var (
		client core.ObjectClient
		err    error
	)
	switch c.BlobProvider {
	case "minio":
		client, err = NewMinioClient(ctx, c, log)
	default:
		client, err = NewS3Client(ctx, c, log)
	}
	if err != nil {
		log.Warn("object store unavailable, uploads will fail", "provider", c.BlobProvider, "err", err)
		return Unconfigured{Reason: err}
	}
	return client
}
