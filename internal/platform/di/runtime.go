// internal/platform/di/runtime.go
package di

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edmundobop/plataforma-bravo/internal/adapters/in/cli"
	"github.com/edmundobop/plataforma-bravo/internal/adapters/out/mail"
	"github.com/edmundobop/plataforma-bravo/internal/adapters/out/report"
	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
	appcfg "github.com/edmundobop/plataforma-bravo/internal/infra/config"
	"github.com/edmundobop/plataforma-bravo/internal/infra/seedfile"
)

// ApplyOptions は CLI フラグで設定を上書きしたコピーを返します（base は変更しない）。
func ApplyOptions(base *appcfg.Config, opts cli.Options) *appcfg.Config {
	cfg := appcfg.Config{}
	if base != nil {
		cfg = *base
	}
	if v := strings.ToLower(strings.TrimSpace(opts.Driver)); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(opts.Collection); v != "" {
		cfg.Collection = v
	}
	if v := strings.TrimSpace(opts.SeedFile); v != "" {
		cfg.SeedFile = v
	}
	if opts.MinCount > 0 {
		cfg.MinUnits = opts.MinCount
	}
	return &cfg
}

// NewFactory は cli.Factory を返します。base / runID は全コマンドで共有します。
func NewFactory(base *appcfg.Config, logger *zap.Logger, runID string) cli.Factory {
	return func(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
		return NewRuntime(ctx, base, logger, runID, opts)
	}
}

// NewRuntime は 1 コマンド分の依存（ストア接続・ユースケース・シード読み込み・出力先）を組み立てます。
func NewRuntime(ctx context.Context, base *appcfg.Config, logger *zap.Logger, runID string, opts cli.Options) (*cli.Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := ApplyOptions(base, opts)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rt, err := buildRuntime(ctx, c, runID, opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return rt, nil
}

func buildRuntime(ctx context.Context, c *Container, runID string, opts cli.Options) (*cli.Runtime, error) {
	cfg, logger := c.Config, c.Logger

	// スキーマ準備は書き込みコマンドのみ（list / migrate / dry-run では行わない）
	if opts.EnsureSchema && !opts.DryRun {
		if err := c.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("di: ensure schema: %w", err)
		}
	}

	// gs:// を使う場合のみ GCS を初期化
	var (
		opener seedfile.ObjectOpener
		writer report.ObjectWriter
	)
	if isGCSURI(cfg.SeedFile) || isGCSURI(opts.Report) {
		store, err := c.ObjectStore(ctx)
		if err != nil {
			return nil, err
		}
		opener, writer = store, store
	}

	uc := usecase.NewFireUnitSetupUsecase(c.Repo, logger.Named("setup")).
		WithDryRun(opts.DryRun).
		WithRunID(runID)

	if dest := strings.TrimSpace(opts.Report); dest != "" {
		uc.WithReporter(report.NewXLSXReporter(dest, writer, logger.Named("report")))
	}
	if opts.Notify {
		if cfg.MailEnabled() {
			uc.WithNotifier(mail.NewSetupReportMailerWithSendGrid(
				cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.ReportTo, logger.Named("mail"),
			))
		} else {
			logger.Warn("⚠️ --notify ignored: SENDGRID_API_KEY, SENDGRID_FROM and SETUP_REPORT_TO are required")
		}
	}

	loader := seedfile.NewLoader(opener)
	seeds := func(ctx context.Context) ([]fudom.FireUnit, error) {
		source := cfg.SeedFile
		if source == "" {
			logger.Info("📦 loading seed catalog", zap.String("source", seedfile.DefaultSource))
		} else {
			logger.Info("📦 loading seed catalog", zap.String("source", source))
		}
		return loader.Load(ctx, source)
	}

	var migrate func(ctx context.Context) error
	if c.Postgres != nil {
		migrate = c.Postgres.Migrate
	}

	return &cli.Runtime{
		Usecase:  uc,
		Seeds:    seeds,
		Migrate:  migrate,
		MinCount: cfg.MinUnits,
		Close:    c.Close,
	}, nil
}

func isGCSURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "gs://")
}
