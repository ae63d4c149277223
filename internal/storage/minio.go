package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
)

// MinioStore stores images in an S3-compatible bucket and issues presigned
// download URLs.
type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *observability.Logger
}

// MinioOptions configures the MinIO backend.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Expiry    time.Duration
}

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(ctx context.Context, opts MinioOptions, logger *observability.Logger) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, domain.StorageError("initialize client", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, domain.StorageError("check bucket", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, domain.StorageError("create bucket", err)
		}
		logger.Info().Str("bucket", opts.Bucket).Msg("Created storage bucket")
	}

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &MinioStore{
		client: client,
		bucket: opts.Bucket,
		expiry: expiry,
		logger: logger,
	}, nil
}

// Put uploads the image under a uuid-based key and presigns a download URL.
func (s *MinioStore) Put(ctx context.Context, data []byte, filename, contentType string) (domain.StoredImage, error) {
	key := objectKey(filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return domain.StoredImage{}, domain.StorageError(fmt.Sprintf("upload %s", key), err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return domain.StoredImage{}, domain.StorageError(fmt.Sprintf("presign %s", key), err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Uploaded image")

	return domain.StoredImage{
		Key:         key,
		Bucket:      s.bucket,
		ContentType: contentType,
		URL:         presigned.String(),
		ExpiresAt:   expiresAt(s.expiry),
	}, nil
}

// Get downloads a stored object.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, domain.StorageError(fmt.Sprintf("fetch %s", key), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, domain.StorageError(fmt.Sprintf("read %s", key), err)
	}
	return data, nil
}

// Ping verifies the bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return domain.StorageError("ping bucket", err)
	}
	return nil
}

// objectKey builds a collision-free key keeping the original extension.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.New().String() + ext
}
