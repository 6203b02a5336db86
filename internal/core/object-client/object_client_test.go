package objectclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

func TestNewWithoutCredentialsFallsBackToUnconfigured(t *testing.T) {
	c := &cfg.Config{BlobProvider: "s3", AwsRegion: "us-east-2", BucketName: "b"}

	client := New(context.Background(), c, logger.Discard())

	_, ok := client.(Unconfigured)
	require.True(t, ok)
	_, err := client.Put(context.Background(), "uploads/x/a.pdf", []byte("x"), "application/pdf")
	assert.True(t, errors.Is(err, models.ErrNotConfigured))
	assert.ErrorContains(t, err, "AWS credentials not set")
}

func TestMinioRequiresEndpoint(t *testing.T) {
	_, err := NewMinioClient(context.Background(), &cfg.Config{BlobProvider: "minio"}, logger.Discard())
	assert.ErrorContains(t, err, "MINIO_ENDPOINT")
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/uploads/1/a.pdf", publicURL("https://cdn.example.com/", "/uploads/1/a.pdf"))
}
