// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	pgrepo "github.com/edmundobop/plataforma-bravo/internal/adapters/out/db"
	fsrepo "github.com/edmundobop/plataforma-bravo/internal/adapters/out/firestore"
	gcsadapter "github.com/edmundobop/plataforma-bravo/internal/adapters/out/gcs"
	mongorepo "github.com/edmundobop/plataforma-bravo/internal/adapters/out/mongo"
	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
	appcfg "github.com/edmundobop/plataforma-bravo/internal/infra/config"
	"github.com/edmundobop/plataforma-bravo/internal/infra/database"
	firestoreinfra "github.com/edmundobop/plataforma-bravo/internal/infra/firestore"
	"github.com/edmundobop/plataforma-bravo/internal/infra/mongodb"
	"github.com/edmundobop/plataforma-bravo/internal/infra/secret"
)

// Container is the runtime infrastructure for one CLI invocation.
// - owns external clients (Firestore / MongoDB / PostgreSQL / GCS), Close-managed
// - exposes the fire unit repository for the selected driver
//
// The store client is strict (return error). GCS is created only when a gs:// path is used.
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	// Clients (owned; Close-managed). Only the one for Config.Driver is set.
	Firestore *firestoreinfra.ClientWrapper
	Mongo     *mongodb.ClientWrapper
	Postgres  *database.DB
	GCS       *storage.Client

	Repo fudom.Repository

	mongoRepo     *mongorepo.FireUnitRepositoryMongo
	clientOpts    []option.ClientOption
	credsResolved bool
}

// CredentialsSource は Secret Manager からサービスアカウント JSON を取得するポートです。
type CredentialsSource interface {
	CredentialsJSON(ctx context.Context, secretID string) ([]byte, error)
	Close() error
}

// newCredentialsSource は差し替え可能（テスト用）。
var newCredentialsSource = func(ctx context.Context, projectID string) (CredentialsSource, error) {
	return secret.NewCredentialsProvider(ctx, projectID)
}

// NewContainer は cfg.Driver に応じたストアへ接続し、リポジトリを組み立てます。
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("infra")

	c := &Container{Config: cfg, Logger: logger}

	switch cfg.Driver {
	case appcfg.DriverFirestore:
		opts, err := c.gcpOptions(ctx)
		if err != nil {
			return nil, err
		}

		fs, err := firestoreinfra.NewClient(ctx, cfg.ProjectID, logger.Named("firestore"), opts...)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.Firestore = fs
		c.Repo = fsrepo.NewFireUnitRepositoryFS(fs.Client, cfg.Collection)

	case appcfg.DriverMongo:
		mc, err := mongodb.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger.Named("mongo"))
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.Mongo = mc
		c.mongoRepo = mongorepo.NewFireUnitRepositoryMongo(mc.Database, cfg.Collection)
		c.Repo = c.mongoRepo

	case appcfg.DriverPostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseURL, logger.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.Postgres = db
		c.Repo = pgrepo.NewFireUnitRepositoryPG(db.Client, cfg.Collection)
	}

	log.Info("🔧 fire unit repository ready",
		zap.String("driver", cfg.Driver),
		zap.String("collection", cfg.Collection),
	)
	return c, nil
}

// ObjectStore は GCS クライアントを必要になった時点で生成して返します。
func (c *Container) ObjectStore(ctx context.Context) (*gcsadapter.ObjectStoreGCS, error) {
	if c.GCS == nil {
		opts, err := c.gcpOptions(ctx)
		if err != nil {
			return nil, err
		}
		gcsClient, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("di: storage.NewClient failed: %w", err)
		}
		c.GCS = gcsClient
		c.Logger.Named("infra").Info("GCS storage client initialized")
	}
	return gcsadapter.NewObjectStoreGCS(c.GCS), nil
}

// EnsureSchema は書き込み前にインデックス / テーブルを用意します（冪等）。
func (c *Container) EnsureSchema(ctx context.Context) error {
	switch {
	case c.Postgres != nil:
		return c.Postgres.Migrate(ctx)
	case c.mongoRepo != nil:
		return c.mongoRepo.EnsureIndexes(ctx)
	}
	return nil
}

// gcpOptions は GCP クライアント用の資格情報を一度だけ解決します。
func (c *Container) gcpOptions(ctx context.Context) ([]option.ClientOption, error) {
	if c.credsResolved {
		return c.clientOpts, nil
	}
	opts, err := resolveClientOptions(ctx, c.Config, c.Logger.Named("infra"))
	if err != nil {
		return nil, err
	}
	c.clientOpts = opts
	c.credsResolved = true
	return opts, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Firestore != nil {
		errs = append(errs, c.Firestore.Close())
	}
	if c.Mongo != nil {
		errs = append(errs, c.Mongo.Close(context.Background()))
	}
	if c.Postgres != nil {
		errs = append(errs, c.Postgres.Close())
	}
	if c.GCS != nil {
		errs = append(errs, c.GCS.Close())
	}
	return errors.Join(errs...)
}

// resolveClientOptions は GCP クライアントの資格情報を決めます。
// 1) 資格情報ファイル 2) Secret Manager の JSON 3) ADC（オプションなし）
func resolveClientOptions(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) ([]option.ClientOption, error) {
	if credFile := strings.TrimSpace(cfg.CredentialsFile()); credFile != "" {
		log.Info("Using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
		return []option.ClientOption{option.WithCredentialsFile(credFile)}, nil
	}

	if secretID := strings.TrimSpace(cfg.CredentialsSecret); secretID != "" {
		src, err := newCredentialsSource(ctx, cfg.SecretProjectID)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		defer src.Close()

		raw, err := src.CredentialsJSON(ctx, secretID)
		if err != nil {
			return nil, fmt.Errorf("di: load credentials from secret: %w", err)
		}
		log.Info("Using credentials from Secret Manager", zap.String("secret", secretID))
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
	}

	log.Info("Using Application Default Credentials (no credentials file configured)")
	return nil, nil
}

func redactPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	// Keep only the last segment
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
