package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

// MinioClient stores blobs in an S3-compatible MinIO bucket.
type MinioClient struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioClient(ctx context.Context, cfg *cfg.Config, log *slog.Logger) (core.ObjectClient, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT not set")
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("MinIO credentials not set")
	}

	cli, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.AwsRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctxBoot, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctxBoot, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctxBoot, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.AwsRegion}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.Info("created bucket", "bucket", cfg.BucketName)
	}

	baseURL := cfg.BlobPublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cli.EndpointURL().Host, cfg.BucketName)
	}

	log.Info("object store ready", "provider", "minio", "bucket", cfg.BucketName)
	return &MinioClient{client: cli, bucket: cfg.BucketName, baseURL: baseURL}, nil
}

func (m *MinioClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := m.client.PutObject(ctxUpload, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio upload failed: %w", err)
	}
	return publicURL(m.baseURL, key), nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
