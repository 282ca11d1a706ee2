package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
	txcontext "taxdesk/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type actorRow struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	Role         string         `db:"role"`
	Permissions  pq.StringArray `db:"permissions"`
	IsActive     bool           `db:"is_active"`
	PasswordHash string         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// toModel trusts the permission names stored by Save; rows written out of
// band with unknown names are dropped rather than failing the whole read.
func (r actorRow) toModel() *models.Actor {
	perms := make([]permission.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		if parsed, err := permission.Parse(p); err == nil {
			perms = append(perms, parsed)
		}
	}
	return &models.Actor{
		ID:           id.ActorID(r.ID),
		Email:        r.Email,
		Name:         r.Name,
		Role:         permission.Role(r.Role),
		Permissions:  perms,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const selectActor = `
	SELECT id, email, name, role, permissions, is_active, password_hash, created_at, updated_at
	FROM actors`

func (s *PostgresStore) get(ctx context.Context, where string, arg any) (*models.Actor, error) {
	var row actorRow
	err := txcontext.Pick(ctx, s.db).GetContext(ctx, &row, selectActor+" WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query actor: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	return s.get(ctx, "id = $1", uuid.UUID(actorID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Actor, error) {
	return s.get(ctx, "lower(email) = lower($1)", email)
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Actor) error {
	perms := make([]string, len(a.Permissions))
	for i, p := range a.Permissions {
		perms[i] = string(p)
	}
	const query = `
		INSERT INTO actors (id, email, name, role, permissions, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			permissions = EXCLUDED.permissions,
			is_active = EXCLUDED.is_active,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Email, a.Name, string(a.Role), pq.Array(perms),
		a.IsActive, a.PasswordHash, a.CreatedAt, a.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save actor: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Actor, error) {
	var rows []actorRow
	if err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, selectActor+" ORDER BY created_at, email"); err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	out := make([]*models.Actor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, actorID id.ActorID) error {
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM actors WHERE id = $1`, uuid.UUID(actorID))
	if err != nil {
		return fmt.Errorf("delete actor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
