// internal/adapters/in/cli/runtime.go
package cli

import (
	"context"

	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// Options はコマンドラインフラグの値です。ゼロ値の項目は設定（環境変数）の値を使います。
type Options struct {
	Driver     string
	Collection string
	SeedFile   string
	MinCount   int
	DryRun     bool
	Report     string
	Notify     bool

	// EnsureSchema は書き込みを行うコマンドのみ true にします（フラグではない）。
	EnsureSchema bool
}

func (o Options) forWrite() Options {
	o.EnsureSchema = true
	return o
}

// Runtime は 1 回のコマンド実行に必要な依存一式です（DI 側で組み立てる）。
type Runtime struct {
	Usecase  *usecase.FireUnitSetupUsecase
	Seeds    func(ctx context.Context) ([]fudom.FireUnit, error)
	Migrate  func(ctx context.Context) error // postgres 以外は nil
	MinCount int
	Close    func() error
}

// Factory は Options から Runtime を生成します。
type Factory func(ctx context.Context, opts Options) (*Runtime, error)

func (r *Runtime) close() {
	if r != nil && r.Close != nil {
		_ = r.Close()
	}
}
