// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ストアの種類
const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
	DriverPostgres  = "postgres"
)

const (
	defaultCollection = "fire_units"
	defaultMinUnits   = 5
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config はツール全体の環境変数設定を保持します。
type Config struct {
	Driver string

	// GCP / Firestore
	ProjectID                string
	FirestoreCredentialsFile string
	GCPCreds                 string // GOOGLE_APPLICATION_CREDENTIALS
	CredentialsSecret        string // Secret Manager の secret ID（サービスアカウント JSON）
	SecretProjectID          string

	Collection string

	// シード
	SeedFile string
	MinUnits int

	// Mongo
	MongoURI      string
	MongoDatabase string

	// Postgres
	DatabaseURL string

	// メール通知（SendGrid）
	SendGridAPIKey string
	SendGridFrom   string
	ReportTo       string

	// ログ
	LogLevel  string
	LogFormat string

	// 環境変数の解析エラー（Validate で返す）
	parseErrs []error
}

// Load は .env（存在すれば）と環境変数を読み込み Config を返します。
// .env の値は既存の環境変数を上書きしません。
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv は環境変数のみから Config を組み立てます。
func FromEnv() *Config {
	// ベースとなる GCP プロジェクト ID
	defaultProject := getenvDefault("GCP_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT"))
	projectID := getenvDefault("FIRESTORE_PROJECT_ID", defaultProject)

	minUnits, minErr := getenvInt("FIRE_UNITS_MIN_COUNT", defaultMinUnits)

	c := &Config{
		Driver: strings.ToLower(getenvDefault("FIRE_UNITS_DRIVER", DriverFirestore)),

		ProjectID:                projectID,
		FirestoreCredentialsFile: getenvTrim("FIRESTORE_CREDENTIALS_FILE"),
		GCPCreds:                 getenvTrim("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsSecret:        getenvTrim("FIRESTORE_CREDENTIALS_SECRET"),
		SecretProjectID:          getenvDefault("SECRET_PROJECT_ID", projectID),

		Collection: getenvDefault("FIRE_UNITS_COLLECTION", defaultCollection),

		SeedFile: getenvTrim("FIRE_UNITS_SEED_FILE"),
		MinUnits: minUnits,

		MongoURI:      getenvTrim("MONGO_URI"),
		MongoDatabase: getenvDefault("MONGO_DATABASE", "plataforma_bravo"),

		DatabaseURL: getenvTrim("DATABASE_URL"),

		SendGridAPIKey: getenvTrim("SENDGRID_API_KEY"),
		SendGridFrom:   getenvTrim("SENDGRID_FROM"),
		ReportTo:       getenvTrim("SETUP_REPORT_TO"),

		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "console"),
	}
	if minErr != nil {
		c.parseErrs = append(c.parseErrs, minErr)
	}
	return c
}

// Validate はストア種別ごとの必須設定を確認します。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if len(c.parseErrs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(c.parseErrs...))
	}
	if strings.TrimSpace(c.Collection) == "" {
		return fmt.Errorf("%w: collection is empty", ErrInvalidConfig)
	}
	if c.MinUnits < 1 {
		return fmt.Errorf("%w: FIRE_UNITS_MIN_COUNT must be >= 1 (got %d)", ErrInvalidConfig, c.MinUnits)
	}

	switch c.Driver {
	case DriverFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("%w: projectID is empty (set FIRESTORE_PROJECT_ID, GCP_PROJECT_ID or GOOGLE_CLOUD_PROJECT)", ErrInvalidConfig)
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is empty", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is empty", ErrInvalidConfig)
		}
		// 同梱のマイグレーションが作るのは fire_units テーブルのみ
		if c.Collection != defaultCollection {
			return fmt.Errorf("%w: postgres driver only supports the %q table (got %q)", ErrInvalidConfig, defaultCollection, c.Collection)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q (firestore|mongo|postgres)", ErrInvalidConfig, c.Driver)
	}
	return nil
}

// CredentialsFile は明示設定 → GOOGLE_APPLICATION_CREDENTIALS の順で返します。
func (c *Config) CredentialsFile() string {
	if c.FirestoreCredentialsFile != "" {
		return c.FirestoreCredentialsFile
	}
	return c.GCPCreds
}

// MailEnabled は SendGrid 通知に必要な値が揃っているかを返します。
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFrom != "" && c.ReportTo != ""
}

func getenvTrim(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getenvDefault(key, def string) string {
	if v := getenvTrim(key); v != "" {
		return v
	}
	return strings.TrimSpace(def)
}

func getenvInt(key string, def int) (int, error) {
	v := getenvTrim(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s must be an integer (got %q)", key, v)
	}
	return n, nil
}
