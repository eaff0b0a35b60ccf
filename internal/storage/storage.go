package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/kurin/blazer/b2"
)

// ErrDisabled 未設定物件儲存
var ErrDisabled = errors.New("object storage not configured")

// Storage 上傳檔案並回傳公開 URL
type Storage interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

type B2Storage struct {
	client *b2.Client
	bucket *b2.Bucket
}

var newB2Client = b2.NewClient

func NewB2(ctx context.Context, keyID, appKey, bucketName string) (*B2Storage, error) {
	client, err := newB2Client(ctx, keyID, appKey)
	if err != nil {
		return nil, fmt.Errorf("NewB2: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("NewB2: %w", err)
	}
	return &B2Storage{client: client, bucket: bucket}, nil
}

func (s *B2Storage) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx).WithAttrs(&b2.Attrs{ContentType: contentType})
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Put: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Put: %w", err)
	}
	return obj.URL(), nil
}

type Disabled struct{}

func (Disabled) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrDisabled
}

// ObjectKey 產生 prefix/<uuid><副檔名> 形式的物件鍵
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}
