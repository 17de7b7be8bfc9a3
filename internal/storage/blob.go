// Package storage stores note attachments in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"diarydesk/internal/config"
	"diarydesk/internal/model"
)

// BlobStore persists uploaded files and describes them as attachments.
type BlobStore interface {
	Put(ctx context.Context, owner, filename string, r io.Reader, size int64, contentType string) (*model.Attachment, error)
}

// MinioStore is a BlobStore backed by MinIO or any S3-compatible server.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMinioStore connects to the configured endpoint and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg config.MinIO) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

// Put uploads r under "<owner>/<uuid>-<filename>".
func (s *MinioStore) Put(ctx context.Context, owner, filename string, r io.Reader, size int64, contentType string) (*model.Attachment, error) {
	name := ObjectName(owner, filename)
	info, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	return &model.Attachment{
		Filename:   path.Base(filename),
		URL:        s.publicURL + "/" + name,
		Size:       info.Size,
		UploadDate: s.now().UTC(),
	}, nil
}

// ObjectName builds a collision-free key for an owner's upload.
func ObjectName(owner, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	return owner + "/" + uuid.NewString() + "-" + base
}
