package gcs

import (
	"context"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestObjectStoreGCS_NilClient(t *testing.T) {
	s := NewObjectStoreGCS(nil)

	_, err := s.Open(context.Background(), "bucket", "units.yaml")
	assert.ErrorContains(t, err, "nil storage client")

	err = s.Write(context.Background(), "bucket", "report.xlsx", "", []byte("x"))
	assert.ErrorContains(t, err, "nil storage client")
}

func TestObjectStoreGCS_Handle(t *testing.T) {
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := NewObjectStoreGCS(client)

	_, err = s.handle(" ", "units.yaml")
	assert.ErrorContains(t, err, "bucket and object are required")

	_, err = s.handle("bucket", "/")
	assert.ErrorContains(t, err, "bucket and object are required")

	oh, err := s.handle(" seeds ", "/config/units.yaml")
	require.NoError(t, err)
	assert.Equal(t, "seeds", oh.BucketName())
	assert.Equal(t, "config/units.yaml", oh.ObjectName())
}
