package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	actorservice "taxdesk/internal/actors/service"
	actorstore "taxdesk/internal/actors/store"
	authservice "taxdesk/internal/auth/service"
	"taxdesk/internal/auth/lockout"
	"taxdesk/internal/auth/store/session"
	clientservice "taxdesk/internal/clients/service"
	clientstore "taxdesk/internal/clients/store"
	"taxdesk/internal/platform/config"
	"taxdesk/internal/platform/database"
	"taxdesk/internal/platform/redis"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/audit/outbox"
	auditmemory "taxdesk/pkg/platform/audit/store/memory"
	auditpostgres "taxdesk/pkg/platform/audit/store/postgres"
	"taxdesk/pkg/platform/tx"
)

// backend holds the storage selected by configuration: PostgreSQL when
// DATABASE_URL is set, in-memory otherwise. Redis sessions are independent.
type backend struct {
	kind      string
	db        *sqlx.DB
	redis     *redis.Client
	runner    tx.Runner
	actors    actorservice.Store
	workload  actorservice.WorkloadCounter
	sessions  authservice.SessionStore
	lockouts  lockout.Store
	clients   clientservice.ClientStore
	documents clientservice.DocumentStore
	payments  clientservice.PaymentStore
	notes     clientservice.NoteStore
	audit     audit.Store
	outbox    outbox.Source
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	b := &backend{}
	if cfg.Database.URL == "" {
		clients := clientstore.NewInMemoryClients()
		b.kind = "memory"
		b.runner = tx.NewShardedRunner(0)
		b.actors = actorstore.NewInMemory()
		b.clients = clients
		b.workload = clients
		b.documents = clientstore.NewInMemoryDocuments()
		b.payments = clientstore.NewInMemoryPayments()
		b.notes = clientstore.NewInMemoryNotes()
		b.audit = auditmemory.NewStore()
	} else {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		clients := clientstore.NewPostgresClients(db)
		auditPG := auditpostgres.New(db)
		b.kind = "postgres"
		b.db = db
		b.runner = newPostgresRunner(db)
		b.actors = actorstore.NewPostgres(db)
		b.clients = clients
		b.workload = clients
		b.documents = clientstore.NewPostgresDocuments(db)
		b.payments = clientstore.NewPostgresPayments(db)
		b.notes = clientstore.NewPostgresNotes(db)
		b.audit = auditPG
		b.outbox = auditPG
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		b.redis = rc
		b.sessions = session.NewRedis(rc.Client)
		b.lockouts = lockout.NewRedis(rc.Client)
	} else {
		b.sessions = session.New()
		b.lockouts = lockout.NewInMemory()
	}
	return b, nil
}

func (b *backend) healthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if b.db != nil {
		checks["postgres"] = func(ctx context.Context) error { return database.Health(ctx, b.db) }
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Health
	}
	return checks
}

func (b *backend) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}
