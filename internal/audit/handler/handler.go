package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	actormodels "taxdesk/internal/actors/models"
	auditlog "taxdesk/internal/audit"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/httputil"
	request "taxdesk/pkg/platform/middleware/request"
)

type Service interface {
	List(ctx context.Context, actor *actormodels.Actor, filter audit.Filter) ([]audit.Entry, error)
	Summary(ctx context.Context, actor *actormodels.Actor) (*auditlog.Summary, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/audit-logs", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		Search:     q.Get("search"),
		EntityType: audit.EntityType(q.Get("entityType")),
		EntityID:   q.Get("entityId"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid limit parameter"))
			return
		}
		filter.Limit = limit
	}
	entries, err := h.svc.List(ctx, actormodels.ActorFrom(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "failed to list audit entries", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, entries, httputil.NewMeta(1, filter.Limit, len(entries)))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sum, err := h.svc.Summary(ctx, actormodels.ActorFrom(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to summarize audit entries", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, sum, nil)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
