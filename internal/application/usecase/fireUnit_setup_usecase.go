// internal/application/usecase/fireUnit_setup_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// ErrInvalidMinUnits は Setup の minUnits が 1 未満の場合に返します。
var ErrInvalidMinUnits = errors.New("usecase: minUnits must be >= 1")

// ItemFailure は 1 件単位の失敗（ログ出力後に処理は継続）を表します。
type ItemFailure struct {
	Code string
	Err  error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Code, f.Err)
}

// ActivationResult は ActivateExisting の集計結果です。
type ActivationResult struct {
	Total         int
	Activated     int
	AlreadyActive int
	Failures      []ItemFailure
}

// InsertResult は AddMissing の集計結果です。
type InsertResult struct {
	Added    int
	Existing int
	Failures []ItemFailure
}

// SetupResult は Setup 全体の結果です。
type SetupResult struct {
	RunID         string
	DryRun        bool
	Activation    ActivationResult
	Insert        InsertResult
	InsertSkipped bool // 既存件数が閾値以上だったため追加をスキップした
	Active        []fudom.FireUnit
	StartedAt     time.Time
	FinishedAt    time.Time
}

// FailureCount は有効化・追加の失敗件数の合計です。
func (r SetupResult) FailureCount() int {
	return len(r.Activation.Failures) + len(r.Insert.Failures)
}

// SetupReporter / SetupNotifier は Setup 完了後の出力先（任意）です。
// エラーはログに出すだけで Setup 自体は失敗扱いにしません。
type SetupReporter interface {
	Report(ctx context.Context, res SetupResult) error
}

type SetupNotifier interface {
	NotifySetup(ctx context.Context, res SetupResult) error
}

// FireUnitSetupUsecase は fire_units の有効化とシード投入を行います。
type FireUnitSetupUsecase struct {
	repo      fudom.Repository
	logger    *zap.Logger
	now       func() time.Time
	dryRun    bool
	runID     string
	reporters []SetupReporter
	notifiers []SetupNotifier
}

func NewFireUnitSetupUsecase(repo fudom.Repository, logger *zap.Logger) *FireUnitSetupUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FireUnitSetupUsecase{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithDryRun は書き込みを行わず、行う予定の操作をログに出すモードに切り替えます。
func (u *FireUnitSetupUsecase) WithDryRun(dryRun bool) *FireUnitSetupUsecase {
	u.dryRun = dryRun
	return u
}

func (u *FireUnitSetupUsecase) WithRunID(runID string) *FireUnitSetupUsecase {
	u.runID = strings.TrimSpace(runID)
	return u
}

func (u *FireUnitSetupUsecase) WithClock(now func() time.Time) *FireUnitSetupUsecase {
	if now != nil {
		u.now = now
	}
	return u
}

func (u *FireUnitSetupUsecase) WithReporter(r SetupReporter) *FireUnitSetupUsecase {
	if r != nil {
		u.reporters = append(u.reporters, r)
	}
	return u
}

func (u *FireUnitSetupUsecase) WithNotifier(n SetupNotifier) *FireUnitSetupUsecase {
	if n != nil {
		u.notifiers = append(u.notifiers, n)
	}
	return u
}

// ============================================================
// ActivateExisting
// ============================================================

// ActivateExisting は全件を走査し、isActive が未設定/false のものを有効化します。
// 一覧取得の失敗のみエラーを返し、1 件ごとの更新失敗は Failures に積んで継続します。
func (u *FireUnitSetupUsecase) ActivateExisting(ctx context.Context) (ActivationResult, error) {
	u.logger.Info("🔍 looking up existing fire units")

	units, err := u.repo.ListAll(ctx)
	if err != nil {
		return ActivationResult{}, fmt.Errorf("fireUnit setup: list units: %w", err)
	}

	res := ActivationResult{Total: len(units)}
	u.logger.Info(fmt.Sprintf("📊 found %d fire units in total", res.Total))

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		u.logger.Info("📋 fire unit",
			zap.String("code", unit.Code),
			zap.String("name", unit.Name),
			zap.Bool("isActive", unit.IsActive),
		)

		if !unit.NeedsActivation() {
			u.logger.Info("ℹ️ fire unit already active", zap.String("code", unit.Code))
			res.AlreadyActive++
			continue
		}

		if u.dryRun {
			u.logger.Info("🧪 [dry-run] would activate fire unit", zap.String("code", unit.Code), zap.String("id", unit.ID))
			res.Activated++
			continue
		}

		if _, err := u.repo.Update(ctx, unit.ID, fudom.ActivationPatch(u.now())); err != nil {
			u.logger.Error("❌ failed to activate fire unit", zap.String("code", unit.Code), zap.String("id", unit.ID), zap.Error(err))
			res.Failures = append(res.Failures, ItemFailure{Code: unit.Code, Err: err})
			continue
		}

		u.logger.Info("✅ fire unit activated", zap.String("code", unit.Code))
		res.Activated++
	}

	u.logger.Info(fmt.Sprintf("🎉 %d fire units were activated", res.Activated),
		zap.Int("alreadyActive", res.AlreadyActive),
		zap.Int("failed", len(res.Failures)),
	)
	return res, nil
}

// ============================================================
// AddMissing
// ============================================================

// AddMissing はシードを順に確認し、同じ code が存在しないものだけを追加します。
func (u *FireUnitSetupUsecase) AddMissing(ctx context.Context, seeds []fudom.FireUnit) (InsertResult, error) {
	u.logger.Info("🔍 checking which fire units need to be added",
		zap.Int("seeds", len(seeds)),
		zap.Strings("codes", fudom.Codes(seeds)),
	)

	var res InsertResult
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		code := strings.TrimSpace(seed.Code)
		if code == "" {
			u.logger.Error("❌ seed without code", zap.String("name", seed.Name))
			res.Failures = append(res.Failures, ItemFailure{Code: seed.Name, Err: fudom.ErrInvalidCode})
			continue
		}

		exists, err := u.repo.ExistsByCode(ctx, code)
		if err != nil {
			u.logger.Error("❌ failed to look up fire unit", zap.String("code", code), zap.Error(err))
			res.Failures = append(res.Failures, ItemFailure{Code: code, Err: err})
			continue
		}
		if exists {
			u.logger.Info("ℹ️ fire unit already exists", zap.String("code", code))
			res.Existing++
			continue
		}

		if u.dryRun {
			u.logger.Info("🧪 [dry-run] would add fire unit", zap.String("code", code), zap.String("name", seed.Name))
			res.Added++
			continue
		}

		unit := seed
		unit.ID = ""
		if err := unit.MarkCreated(u.now()); err != nil {
			res.Failures = append(res.Failures, ItemFailure{Code: code, Err: err})
			continue
		}

		created, err := u.repo.Create(ctx, unit)
		if err != nil {
			u.logger.Error("❌ failed to add fire unit", zap.String("code", code), zap.Error(err))
			res.Failures = append(res.Failures, ItemFailure{Code: code, Err: err})
			continue
		}

		u.logger.Info("✅ fire unit added", zap.String("code", created.Code), zap.String("id", created.ID))
		res.Added++
	}

	u.logger.Info(fmt.Sprintf("🎉 %d new fire units were added", res.Added),
		zap.Int("existing", res.Existing),
		zap.Int("failed", len(res.Failures)),
	)
	return res, nil
}

// ============================================================
// ListActive
// ============================================================

func (u *FireUnitSetupUsecase) ListActive(ctx context.Context) ([]fudom.FireUnit, error) {
	active, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("fireUnit setup: list active units: %w", err)
	}
	return fudom.SortByCode(active), nil
}

// Overview は登録済みの総数と有効な部隊一覧です。
type Overview struct {
	Total  int
	Active []fudom.FireUnit
}

// Overview は総数（Count）と有効な部隊一覧を返します。書き込みは行いません。
func (u *FireUnitSetupUsecase) Overview(ctx context.Context) (Overview, error) {
	total, err := u.repo.Count(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("fireUnit setup: count units: %w", err)
	}
	active, err := u.ListActive(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{Total: total, Active: active}, nil
}

// ============================================================
// Setup
// ============================================================

// Setup は有効化 → （既存件数 < minUnits なら）不足分追加 → 有効件数の確認、の順に実行します。
func (u *FireUnitSetupUsecase) Setup(ctx context.Context, seeds []fudom.FireUnit, minUnits int) (SetupResult, error) {
	if minUnits < 1 {
		return SetupResult{}, fmt.Errorf("%w (got %d)", ErrInvalidMinUnits, minUnits)
	}

	res := SetupResult{
		RunID:     u.runID,
		DryRun:    u.dryRun,
		StartedAt: u.now().UTC(),
	}
	u.logger.Info("🚀 starting fire unit setup", zap.Int("minUnits", minUnits), zap.Bool("dryRun", u.dryRun))

	act, err := u.ActivateExisting(ctx)
	res.Activation = act
	if err != nil {
		return res, err
	}

	if act.Total < minUnits {
		u.logger.Info("📝 adding missing fire units", zap.Int("existing", act.Total), zap.Int("minUnits", minUnits))
		ins, err := u.AddMissing(ctx, seeds)
		res.Insert = ins
		if err != nil {
			return res, err
		}
	} else {
		res.InsertSkipped = true
		u.logger.Info("ℹ️ enough fire units exist, skipping insert", zap.Int("existing", act.Total), zap.Int("minUnits", minUnits))
	}

	u.logger.Info("📊 checking final result")
	active, err := u.ListActive(ctx)
	if err != nil {
		return res, err
	}
	res.Active = active
	res.FinishedAt = u.now().UTC()

	u.logger.Info(fmt.Sprintf("🎯 total active fire units: %d", len(active)))
	for _, a := range active {
		u.logger.Info(fmt.Sprintf("   ✅ %s: %s", a.Code, a.Name))
	}

	u.publish(ctx, res)

	u.logger.Info("🎉 fire unit setup finished", zap.Int("failures", res.FailureCount()))
	return res, nil
}

func (u *FireUnitSetupUsecase) publish(ctx context.Context, res SetupResult) {
	for _, r := range u.reporters {
		if err := r.Report(ctx, res); err != nil {
			u.logger.Warn("⚠️ setup report failed", zap.Error(err))
		}
	}
	for _, n := range u.notifiers {
		if err := n.NotifySetup(ctx, res); err != nil {
			u.logger.Warn("⚠️ setup notification failed", zap.Error(err))
		}
	}
}
