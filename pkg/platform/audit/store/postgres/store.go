package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	id "taxdesk/pkg/domain"
	audit "taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/audit/outbox"
	txcontext "taxdesk/pkg/platform/tx"
)

// Store implements audit.Store with the transactional outbox pattern: each
// Append writes the queryable entry and an outbox row in the caller's
// transaction, and the relay publishes outbox rows to Kafka afterwards.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type entryRow struct {
	Seq        int64          `db:"seq"`
	ID         uuid.UUID      `db:"id"`
	ActorID    uuid.UUID      `db:"actor_id"`
	ActorName  string         `db:"actor_name"`
	Action     string         `db:"action"`
	EntityType string         `db:"entity_type"`
	EntityID   string         `db:"entity_id"`
	OldValue   sql.NullString `db:"old_value"`
	NewValue   sql.NullString `db:"new_value"`
	CreatedAt  time.Time      `db:"created_at"`
	RequestID  string         `db:"request_id"`
}

func (r entryRow) toEntry() audit.Entry {
	e := audit.Entry{
		ID:         id.AuditEntryID(r.ID),
		Sequence:   r.Seq,
		ActorID:    id.ActorID(r.ActorID),
		ActorName:  r.ActorName,
		Action:     audit.Action(r.Action),
		EntityType: audit.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Timestamp:  r.CreatedAt.UTC(),
		RequestID:  r.RequestID,
	}
	if r.OldValue.Valid {
		e.OldValue = audit.Value(r.OldValue.String)
	}
	if r.NewValue.Valid {
		e.NewValue = audit.Value(r.NewValue.String)
	}
	return e
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Append joins the transaction in ctx, or opens its own so that the entry
// and its outbox row are never written separately.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	if tx, ok := txcontext.From(ctx); ok {
		return s.append(ctx, tx, entry)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.append(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) append(ctx context.Context, tx *sqlx.Tx, entry *audit.Entry) error {
	const insertEntry = `
		INSERT INTO audit_entries (
			id, actor_id, actor_name, action, entity_type, entity_id,
			old_value, new_value, created_at, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`
	err := tx.QueryRowxContext(ctx, insertEntry,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.ActorID),
		entry.ActorName,
		string(entry.Action),
		string(entry.EntityType),
		entry.EntityID,
		nullable(entry.OldValue),
		nullable(entry.NewValue),
		entry.Timestamp,
		entry.RequestID,
	).Scan(&entry.Sequence)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	const insertOutbox = `
		INSERT INTO audit_outbox (entry_id, category, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insertOutbox,
		uuid.UUID(entry.ID),
		string(entry.Action.Category()),
		payload,
		entry.Timestamp,
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Action != "" {
		where = append(where, "action ILIKE "+arg("%"+filter.Action+"%"))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, "(action ILIKE "+p+" OR actor_name ILIKE "+p+")")
	}
	if filter.EntityType != "" {
		where = append(where, "entity_type = "+arg(string(filter.EntityType)))
	}
	if filter.EntityID != "" {
		where = append(where, "entity_id = "+arg(filter.EntityID))
	}

	query := `
		SELECT seq, id, actor_id, actor_name, action, entity_type, entity_id,
			   old_value, new_value, created_at, request_id
		FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	var rows []entryRow
	if err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	out := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntry())
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := txcontext.Pick(ctx, s.db).GetContext(ctx, &n, `SELECT COUNT(*) FROM audit_entries`); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Outbox source for the relay
// -----------------------------------------------------------------------------

type outboxRow struct {
	ID        int64     `db:"id"`
	EntryID   uuid.UUID `db:"entry_id"`
	Category  string    `db:"category"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// Pending returns the oldest unpublished outbox rows.
func (s *Store) Pending(ctx context.Context, limit int) ([]outbox.Record, error) {
	const query = `
		SELECT id, entry_id, category, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`
	var rows []outboxRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	out := make([]outbox.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, outbox.Record{
			ID:        r.ID,
			EntryID:   r.EntryID.String(),
			Category:  r.Category,
			Payload:   r.Payload,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)`
	if _, err := s.db.ExecContext(ctx, query, at, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
