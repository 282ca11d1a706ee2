package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	actorhandler "taxdesk/internal/actors/handler"
	actorservice "taxdesk/internal/actors/service"
	auditlog "taxdesk/internal/audit"
	audithandler "taxdesk/internal/audit/handler"
	authhandler "taxdesk/internal/auth/handler"
	"taxdesk/internal/auth/lockout"
	authmw "taxdesk/internal/auth/middleware"
	authservice "taxdesk/internal/auth/service"
	"taxdesk/internal/auth/token"
	clienthandler "taxdesk/internal/clients/handler"
	clientmetrics "taxdesk/internal/clients/metrics"
	clientservice "taxdesk/internal/clients/service"
	"taxdesk/internal/platform/config"
	"taxdesk/internal/platform/httpserver"
	"taxdesk/internal/platform/logger"
	"taxdesk/internal/platform/metrics"
	"taxdesk/internal/seed"
	"taxdesk/internal/workflow"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/audit/outbox"
	"taxdesk/pkg/platform/httputil"
	"taxdesk/pkg/platform/middleware/metadata"
	request "taxdesk/pkg/platform/middleware/request"
	"taxdesk/pkg/platform/middleware/requesttime"
)

// main wires the stores, services and handlers, then runs the HTTP server
// and the audit relay until SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taxdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	router, policy, err := newApp(ctx, cfg, b, m, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting taxdesk", "addr", cfg.Server.Addr, "workflow_policy", policy.Name(), "storage", b.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if b.outbox != nil && len(cfg.Kafka.Brokers) > 0 {
		publisher, err := outbox.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, -1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		relay := outbox.NewRelay(b.outbox, publisher, log,
			outbox.WithInterval(cfg.Kafka.PollInterval),
			outbox.WithBatchSize(cfg.Kafka.BatchSize),
			outbox.WithMetrics(m.OutboxPublished, m.OutboxLag),
		)
		g.Go(func() error {
			log.Info("audit relay started", "topic", cfg.Kafka.AuditTopic)
			return relay.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("goodbye")
	return nil
}

// newApp builds the services on top of b and returns the HTTP handler.
func newApp(ctx context.Context, cfg config.Config, b *backend, m *metrics.Metrics, log *slog.Logger) (http.Handler, workflow.Policy, error) {
	policy, err := workflow.PolicyFromName(cfg.Clients.WorkflowPolicy)
	if err != nil {
		return nil, nil, err
	}

	recorder := audit.NewRecorder(b.audit,
		audit.WithLogger(log),
		audit.WithEntryCounter(m.AuditEntries),
	)
	tokens, err := token.New(cfg.Server.JWTSigningKey)
	if err != nil {
		return nil, nil, err
	}
	guard, err := lockout.New(b.lockouts,
		lockout.WithLimits(cfg.Server.MaxLoginAttempts, cfg.Server.LoginWindow, cfg.Server.LoginLockout),
		lockout.WithLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}
	authSvc, err := authservice.New(b.actors, b.sessions, tokens, recorder,
		authservice.WithLogger(log),
		authservice.WithSignInLimiter(guard),
		authservice.WithSessionTTL(cfg.Server.SessionTTL),
		authservice.WithLoginCounter(m.Sessions),
	)
	if err != nil {
		return nil, nil, err
	}
	actorSvc, err := actorservice.New(b.actors, b.runner, recorder,
		actorservice.WithLogger(log),
		actorservice.WithWorkloadCounter(b.workload),
		actorservice.WithSessionRevoker(authSvc),
	)
	if err != nil {
		return nil, nil, err
	}
	clientSvc, err := clientservice.New(b.clients, b.documents, b.payments, b.notes, b.runner, recorder,
		clientservice.WithLogger(log),
		clientservice.WithMetrics(clientmetrics.New(m.Registry)),
		clientservice.WithPolicy(policy),
		clientservice.WithOverpaymentRejected(cfg.Clients.RejectOverpayment),
		clientservice.WithAdminDirectory(actorSvc),
	)
	if err != nil {
		return nil, nil, err
	}
	auditSvc, err := auditlog.NewService(b.audit, auditlog.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	if cfg.SeedDemoData {
		if err := seed.Run(ctx, b.actors, clientSvc, log); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return newRouter(cfg, b, m, log, authSvc, actorSvc, clientSvc, auditSvc), policy, nil
}

func newRouter(
	cfg config.Config,
	b *backend,
	m *metrics.Metrics,
	log *slog.Logger,
	authSvc *authservice.Service,
	actorSvc *actorservice.Service,
	clientSvc *clientservice.Service,
	auditSvc *auditlog.Service,
) http.Handler {
	router := chi.NewRouter()
	router.Use(request.RequestID)
	router.Use(request.Recovery(log))
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(request.Logger(log))
	router.Use(request.Latency(m.HTTPLatency))

	health := healthHandler(b)
	router.Get("/health", health)
	router.Handle("/metrics", m.Handler())

	requireSession := authmw.RequireSession(authSvc, log)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Get("/health", health)
		authhandler.New(authSvc, log).Register(r, requireSession)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			actorhandler.New(actorSvc, log).Register(r)
			clienthandler.New(clientSvc, log).Register(r)
			audithandler.New(auditSvc, log).Register(r)
		})
	})
	return router
}

type healthResponse struct {
	Status  string            `json:"status"`
	Storage string            `json:"storage"`
	Checks  map[string]string `json:"checks"`
}

// healthHandler reports 503 when any configured dependency fails its ping.
func healthHandler(b *backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Storage: b.kind, Checks: map[string]string{}}
		for name, check := range b.healthChecks() {
			if err := check(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
