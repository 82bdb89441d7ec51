// Package storage archives uploaded OCR images in MinIO or any S3
// compatible store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config selects the MinIO endpoint. An empty Endpoint disables archiving.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Archiver uploads images under ocr/YYYY/MM/<uuid><ext>.
type Archiver struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
	now    func() time.Time
}

// New connects to MinIO and checks that the bucket exists, creating it when
// missing.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Archiver, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "scriptbridge"
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("archive bucket created", slog.String("bucket", cfg.Bucket))
	}

	return &Archiver{client: client, bucket: cfg.Bucket, log: log, now: time.Now}, nil
}

// Archive stores data and returns "<bucket>/<object>".
func (a *Archiver) Archive(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := ObjectName(a.now(), uuid.New(), contentType)

	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return a.bucket + "/" + objectName, nil
}

// ObjectName builds the object key for an upload received at t.
func ObjectName(t time.Time, id uuid.UUID, contentType string) string {
	t = t.UTC()
	return fmt.Sprintf("ocr/%d/%02d/%s%s", t.Year(), t.Month(), id, FileExtension(contentType))
}

// FileExtension maps an image content type to a file extension.
func FileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".bin"
	}
}
