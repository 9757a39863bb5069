// internal/domain/fireUnit/entity.go
package fireUnit

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ---------------------------
// 正規表現
// ---------------------------

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ---------------------------
// Domain errors
// ---------------------------

var (
	ErrInvalidName      = errors.New("fireUnit: invalid name")
	ErrInvalidCode      = errors.New("fireUnit: invalid code")
	ErrInvalidEmail     = errors.New("fireUnit: invalid email")
	ErrInvalidCreatedAt = errors.New("fireUnit: invalid createdAt")
)

// ----------------------------------------
// FireUnit entity
// ----------------------------------------

// FireUnit は消防部隊（Grupamento / 駐屯地）1件を表します。
// Code は重複チェック用のキーですが、スキーマ上の一意制約ではありません。
type FireUnit struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`

	CommanderName string `json:"commanderName"`
	CommanderRank string `json:"commanderRank"`

	IsActive bool `json:"isActive"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"` // 未更新なら nil
}

// ----------------------------------------
// Constructor
// ----------------------------------------

// NewFireUnit はシード用の FireUnit を生成・検証します。
// CreatedAt はゼロ値のまま（書き込み時にセット）でも構いません。
func NewFireUnit(
	name, code, address, city, state, phone, email, commanderName, commanderRank string,
	isActive bool,
) (FireUnit, error) {
	u := FireUnit{
		Name:          strings.TrimSpace(name),
		Code:          strings.TrimSpace(code),
		Address:       strings.TrimSpace(address),
		City:          strings.TrimSpace(city),
		State:         strings.ToUpper(strings.TrimSpace(state)),
		Phone:         strings.TrimSpace(phone),
		Email:         strings.ToLower(strings.TrimSpace(email)),
		CommanderName: strings.TrimSpace(commanderName),
		CommanderRank: strings.TrimSpace(commanderRank),
		IsActive:      isActive,
	}
	if err := u.validate(); err != nil {
		return FireUnit{}, err
	}
	return u, nil
}

// ----------------------------------------
// Behavior
// ----------------------------------------

// NeedsActivation は isActive が未設定または false の場合に true を返します。
func (u FireUnit) NeedsActivation() bool {
	return !u.IsActive
}

// Activate は isActive=true と updatedAt を設定します。
func (u *FireUnit) Activate(now time.Time) {
	t := now.UTC()
	u.IsActive = true
	u.UpdatedAt = &t
}

// MarkCreated は挿入直前のタイムスタンプを設定します。
func (u *FireUnit) MarkCreated(now time.Time) error {
	if now.IsZero() {
		return ErrInvalidCreatedAt
	}
	u.CreatedAt = now.UTC()
	u.UpdatedAt = nil
	return nil
}

// Label はログ表示用の "<code> - <name>" を返します。
func (u FireUnit) Label() string {
	code := strings.TrimSpace(u.Code)
	if code == "" {
		code = "(sem código)"
	}
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return code
	}
	return code + " - " + name
}

// ----------------------------------------
// Validation
// ----------------------------------------

func (u FireUnit) validate() error {
	if u.Name == "" || len(u.Name) > 200 {
		return ErrInvalidName
	}
	if u.Code == "" || len(u.Code) > 50 {
		return ErrInvalidCode
	}
	if u.Email != "" && !emailRe.MatchString(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}
