// internal/infra/mongodb/client.go
package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ClientWrapper は MongoDB クライアントと対象 DB をまとめて保持します。
type ClientWrapper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewClient は URI に接続し、プライマリへの Ping で疎通を確認します。
func NewClient(ctx context.Context, uri, database string, log *zap.Logger) (*ClientWrapper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	uri = strings.TrimSpace(uri)
	database = strings.TrimSpace(database)
	if uri == "" {
		return nil, fmt.Errorf("mongodb: uri is empty")
	}
	if database == "" {
		return nil, fmt.Errorf("mongodb: database is empty")
	}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetAppName("seed_fire_units"))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	log.Info("✅ connected to MongoDB", zap.String("database", database))
	return &ClientWrapper{Client: client, Database: client.Database(database)}, nil
}

func (w *ClientWrapper) Close(ctx context.Context) error {
	if w == nil || w.Client == nil {
		return nil
	}
	return w.Client.Disconnect(ctx)
}
