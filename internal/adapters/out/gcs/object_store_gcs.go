// internal/adapters/out/gcs/object_store_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// ErrObjectNotFound は対象オブジェクトが存在しない場合に返します。
var ErrObjectNotFound = errors.New("gcs: object not found")

// ObjectStoreGCS はシードファイルの読み込みとレポートのアップロードを担当します。
// seedfile.ObjectOpener / report.ObjectWriter の両方を満たします。
type ObjectStoreGCS struct {
	Client *storage.Client
}

func NewObjectStoreGCS(client *storage.Client) *ObjectStoreGCS {
	return &ObjectStoreGCS{Client: client}
}

// Open は gs://bucket/object を読み込み用に開きます。呼び出し側で Close してください。
func (s *ObjectStoreGCS) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	oh, err := s.handle(bucket, object)
	if err != nil {
		return nil, err
	}

	rc, err := oh.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, object)
		}
		return nil, fmt.Errorf("gcs: open gs://%s/%s: %w", bucket, object, err)
	}
	return rc, nil
}

// Write は data を gs://bucket/object に書き込みます（既存オブジェクトは上書き）。
func (s *ObjectStoreGCS) Write(ctx context.Context, bucket, object, contentType string, data []byte) error {
	oh, err := s.handle(bucket, object)
	if err != nil {
		return err
	}

	w := oh.NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: write gs://%s/%s: %w", bucket, object, err)
	}
	// Close でアップロードが確定する
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: close gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func (s *ObjectStoreGCS) handle(bucket, object string) (*storage.ObjectHandle, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("ObjectStoreGCS: nil storage client")
	}
	bucket = strings.TrimSpace(bucket)
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("gcs: bucket and object are required (bucket=%q object=%q)", bucket, object)
	}
	return s.Client.Bucket(bucket).Object(object), nil
}
