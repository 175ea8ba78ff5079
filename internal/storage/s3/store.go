// Package s3 persists state documents as objects in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reserveguard/internal/storage"
	"reserveguard/pkg/platform/sentinel"
)

// Config holds the connection settings for the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Store writes each document to <prefix><key>.json in one bucket.
// Objects are written one after another; S3 offers no multi-object atomicity.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects to the object store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
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

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) object(key string) string {
	return s.prefix + key + ".json"
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(key, err)
	}
	return body, nil
}

func (s *Store) Save(ctx context.Context, docs ...storage.Document) error {
	for _, doc := range docs {
		_, err := s.client.PutObject(ctx, s.bucket, s.object(doc.Key),
			bytes.NewReader(doc.Body), int64(len(doc.Body)),
			minio.PutObjectOptions{ContentType: "application/json"},
		)
		if err != nil {
			return fmt.Errorf("save document %s: %w", doc.Key, err)
		}
	}
	return nil
}

func (s *Store) translate(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("document %s: %w", key, sentinel.ErrNotFound)
	}
	return fmt.Errorf("load document %s: %w", key, err)
}
