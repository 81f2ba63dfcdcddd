// Package storage archives contact import payloads in S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"contactcenter_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive stores raw import payloads so a disputed or failed import can be
// replayed. It satisfies the dialer service's ImportArchiver interface.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive creates the archive client. The bucket is created on first use
// if it does not exist.
func NewArchive(cfg config.MinIOConfig) (*Archive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Archive{
		client: client,
		bucket: cfg.GetMinioBucketContactImports(),
	}, nil
}

// EnsureBucketExists creates the archive bucket if it doesn't exist.
func (a *Archive) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}

	return nil
}

// ArchiveImport stores one raw import payload and returns its object key.
// Keys are time-prefixed per campaign so repeated imports never collide.
func (a *Archive) ArchiveImport(ctx context.Context, campaignID uuid.UUID, payload []byte) (string, error) {
	key := fmt.Sprintf("%s/%s_%s.json",
		campaignID, time.Now().UTC().Format("20060102T150405Z"), uuid.New().String()[:8])

	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to archive import %s: %w", key, err)
	}

	return key, nil
}
