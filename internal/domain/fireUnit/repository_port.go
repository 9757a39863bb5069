package fireUnit

import (
	"context"
	"errors"
	"time"
)

// DefaultCollection は Firestore / Mongo のコレクション名、Postgres のテーブル名の既定値です。
const DefaultCollection = "fire_units"

// Patch（部分更新）: nil のフィールドは更新しない
type FireUnitPatch struct {
	Name          *string
	Address       *string
	City          *string
	State         *string
	Phone         *string
	Email         *string
	CommanderName *string
	CommanderRank *string
	IsActive      *bool

	UpdatedAt *time.Time
}

// ActivationPatch は FireUnit.Activate と同じ変更を表す Patch を返します。
func ActivationPatch(now time.Time) FireUnitPatch {
	var u FireUnit
	u.Activate(now)
	return FireUnitPatch{IsActive: &u.IsActive, UpdatedAt: u.UpdatedAt}
}

// IsEmpty は更新対象フィールドが一つもない場合に true を返します。
func (p FireUnitPatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.City == nil && p.State == nil &&
		p.Phone == nil && p.Email == nil && p.CommanderName == nil &&
		p.CommanderRank == nil && p.IsActive == nil && p.UpdatedAt == nil
}

// 代表的なエラー（契約上の表現）
var (
	ErrNotFound = errors.New("fireUnit: not found")
	ErrConflict = errors.New("fireUnit: conflict")
)

// Repository ポート（契約）
type Repository interface {
	// 取得
	ListAll(ctx context.Context) ([]FireUnit, error)
	ListActive(ctx context.Context) ([]FireUnit, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int, error)

	// 変更
	Create(ctx context.Context, u FireUnit) (FireUnit, error)
	Update(ctx context.Context, id string, patch FireUnitPatch) (FireUnit, error)
}
