// internal/adapters/out/db/fireUnit_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// pgUniqueViolation は PostgreSQL の unique_violation です。
const pgUniqueViolation = "23505"

var fireUnitColumns = []string{
	"id", "name", "code", "address", "city", "state", "phone", "email",
	"commander_name", "commander_rank", "is_active", "created_at", "updated_at",
}

// FireUnitRepositoryPG implements the fire unit repository on PostgreSQL.
type FireUnitRepositoryPG struct {
	DB    *sql.DB
	table string
	qb    sq.StatementBuilderType
}

func NewFireUnitRepositoryPG(db *sql.DB, table string) *FireUnitRepositoryPG {
	table = strings.TrimSpace(table)
	if table == "" {
		table = fudom.DefaultCollection
	}
	return &FireUnitRepositoryPG{
		DB:    db,
		table: table,
		qb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ==============================
// Queries
// ==============================

func (r *FireUnitRepositoryPG) ListAll(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.list(ctx, r.selectBase().OrderBy("created_at ASC", "id ASC"))
}

func (r *FireUnitRepositoryPG) ListActive(ctx context.Context) ([]fudom.FireUnit, error) {
	return r.list(ctx, r.selectBase().Where(sq.Eq{"is_active": true}).OrderBy("code ASC"))
}

func (r *FireUnitRepositoryPG) ExistsByCode(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	inner := r.qb.Select("1").From(r.table).Where(sq.Eq{"code": code}).Limit(1)
	q, args, err := r.qb.Select().Column(sq.Expr("EXISTS (?)", inner)).ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *FireUnitRepositoryPG) Count(ctx context.Context) (int, error) {
	q, args, err := r.qb.Select("COUNT(*)").From(r.table).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ==============================
// Mutations
// ==============================

func (r *FireUnitRepositoryPG) Create(ctx context.Context, u fudom.FireUnit) (fudom.FireUnit, error) {
	if strings.TrimSpace(u.ID) == "" {
		u.ID = uuid.NewString()
	} else if _, err := uuid.Parse(strings.TrimSpace(u.ID)); err != nil {
		return fudom.FireUnit{}, err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	q, args, err := r.qb.Insert(r.table).
		Columns(fireUnitColumns...).
		Values(
			strings.TrimSpace(u.ID),
			strings.TrimSpace(u.Name),
			strings.TrimSpace(u.Code),
			strings.TrimSpace(u.Address),
			strings.TrimSpace(u.City),
			strings.TrimSpace(u.State),
			strings.TrimSpace(u.Phone),
			strings.TrimSpace(u.Email),
			strings.TrimSpace(u.CommanderName),
			strings.TrimSpace(u.CommanderRank),
			u.IsActive,
			u.CreatedAt.UTC(),
			nullTime(u.UpdatedAt),
		).
		Suffix("RETURNING " + strings.Join(fireUnitColumns, ", ")).
		ToSql()
	if err != nil {
		return fudom.FireUnit{}, err
	}

	out, err := scanFireUnit(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return fudom.FireUnit{}, fudom.ErrConflict
		}
		return fudom.FireUnit{}, err
	}
	return out, nil
}

func (r *FireUnitRepositoryPG) Update(ctx context.Context, id string, patch fudom.FireUnitPatch) (fudom.FireUnit, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return fudom.FireUnit{}, fudom.ErrNotFound
	}

	if patch.IsEmpty() {
		return r.getByID(ctx, id)
	}

	q, args, err := r.qb.Update(r.table).
		SetMap(patchToSetMap(patch)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(fireUnitColumns, ", ")).
		ToSql()
	if err != nil {
		return fudom.FireUnit{}, err
	}

	out, err := scanFireUnit(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return fudom.FireUnit{}, fudom.ErrNotFound
	}
	return out, err
}

func (r *FireUnitRepositoryPG) getByID(ctx context.Context, id string) (fudom.FireUnit, error) {
	q, args, err := r.selectBase().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fudom.FireUnit{}, err
	}
	out, err := scanFireUnit(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return fudom.FireUnit{}, fudom.ErrNotFound
	}
	return out, err
}

// ==============================
// Helpers
// ==============================

func (r *FireUnitRepositoryPG) selectBase() sq.SelectBuilder {
	return r.qb.Select(fireUnitColumns...).From(r.table)
}

func (r *FireUnitRepositoryPG) list(ctx context.Context, b sq.SelectBuilder) ([]fudom.FireUnit, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fudom.FireUnit
	for rows.Next() {
		u, err := scanFireUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFireUnit(s rowScanner) (fudom.FireUnit, error) {
	var (
		u         fudom.FireUnit
		updatedAt sql.NullTime
	)
	err := s.Scan(
		&u.ID, &u.Name, &u.Code, &u.Address, &u.City, &u.State, &u.Phone, &u.Email,
		&u.CommanderName, &u.CommanderRank, &u.IsActive, &u.CreatedAt, &updatedAt,
	)
	if err != nil {
		return fudom.FireUnit{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		u.UpdatedAt = &t
	}
	return u, nil
}

func patchToSetMap(p fudom.FireUnitPatch) map[string]any {
	set := map[string]any{}

	setStr := func(col string, v *string) {
		if v != nil {
			set[col] = strings.TrimSpace(*v)
		}
	}
	setStr("name", p.Name)
	setStr("address", p.Address)
	setStr("city", p.City)
	setStr("state", p.State)
	setStr("phone", p.Phone)
	setStr("email", p.Email)
	setStr("commander_name", p.CommanderName)
	setStr("commander_rank", p.CommanderRank)

	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	if p.UpdatedAt != nil {
		set["updated_at"] = nullTime(p.UpdatedAt)
	}
	return set
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
