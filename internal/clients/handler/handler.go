// Package handler exposes the client aggregate over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/clients/service"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/httputil"
	request "taxdesk/pkg/platform/middleware/request"
)

// Service is the part of the client service reachable over HTTP.
type Service interface {
	CreateClient(ctx context.Context, actor *actormodels.Actor, req service.CreateClientRequest) (*models.Client, error)
	UpdateClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req service.UpdateClientRequest) (*models.Client, error)
	ListClients(ctx context.Context, actor *actormodels.Actor, filter models.ListFilter) (*service.Page, error)
	ClientSummary(ctx context.Context, actor *actormodels.Actor, filter models.ListFilter) (*models.Summary, error)
	ClientDetail(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (*models.Detail, error)
	DeleteClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) error
	ApplyTransition(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, to workflow.ClientStatus) (*models.Client, error)
	AssignClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, adminID id.ActorID) (*models.Client, error)
	AddPayment(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req service.AddPaymentRequest) (*service.PaymentResult, error)
	ApproveCostEstimate(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, total models.Money) (*models.Client, error)
	Reconcile(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (*service.Reconciliation, error)
	AddDocument(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req service.AddDocumentRequest) (*models.Document, error)
	MarkMissing(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID, message string) (*models.Document, error)
	MarkVerified(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID) (*models.Document, error)
	DeleteDocument(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID) error
	ListDocuments(ctx context.Context, actor *actormodels.Actor, filter models.DocumentFilter) (*service.DocumentList, error)
	RequestDocuments(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, section models.Section, message string) error
	AddNote(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, content string, clientFacing bool) (*models.Note, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts client and document routes. The caller applies session
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/summary", h.handleSummary)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleDetail)
			r.Patch("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Put("/status", h.handleTransition)
			r.Put("/assignee", h.handleAssign)
			r.Put("/cost-estimate", h.handleCostEstimate)
			r.Post("/payments", h.handleAddPayment)
			r.Get("/reconciliation", h.handleReconcile)
			r.Post("/documents", h.handleAddDocument)
			r.Post("/document-requests", h.handleRequestDocuments)
			r.Post("/notes", h.handleAddNote)
		})
	})
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.handleListDocuments)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", h.handleDeleteDocument)
			r.Put("/missing", h.handleMarkMissing)
			r.Put("/verified", h.handleMarkVerified)
		})
	})
}

type CreateClientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FilingYear  int          `json:"filingYear"`
	TotalAmount models.Money `json:"totalAmount"`
}

func (r *CreateClientRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.FilingYear < 0 {
		return dErrors.New(dErrors.CodeValidation, "filing year is invalid")
	}
	if r.TotalAmount < 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "Total amount cannot be negative")
	}
	return nil
}

type UpdateClientRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (r *UpdateClientRequest) Validate() error {
	if r.Name == nil && r.Email == nil && r.Phone == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	return nil
}

type TransitionRequest struct {
	Status string `json:"status"`

	to workflow.ClientStatus
}

func (r *TransitionRequest) Validate() error {
	to, err := workflow.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.to = to
	return nil
}

type AssignRequest struct {
	AdminID string `json:"adminId"`

	adminID id.ActorID
}

func (r *AssignRequest) Validate() error {
	adminID, err := id.ParseActorID(r.AdminID)
	if err != nil {
		return err
	}
	r.adminID = adminID
	return nil
}

// AmountRequest carries a dollar amount, sent as a number (250.5) or as
// dashboard input ("$1,250.00").
type AmountRequest struct {
	Amount *models.Money `json:"amount"`
	Method string        `json:"method"`
	Note   string        `json:"note"`
}

func (r *AmountRequest) Validate() error {
	if r.Amount == nil {
		return dErrors.New(dErrors.CodeInvalidAmount, "Please enter a valid amount")
	}
	return nil
}

type AddDocumentRequest struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	URL     string `json:"url"`

	section models.Section
}

func (r *AddDocumentRequest) Validate() error {
	section, err := models.ParseSection(r.Section)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "document name is required")
	}
	r.section = section
	return nil
}

type RequestDocumentsRequest struct {
	Section string `json:"section"`
	Message string `json:"message"`

	section models.Section
}

func (r *RequestDocumentsRequest) Validate() error {
	section, err := models.ParseSection(r.Section)
	if err != nil {
		return err
	}
	r.section = section
	return nil
}

type MarkMissingRequest struct {
	Message string `json:"message"`
}

func (r *MarkMissingRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return dErrors.New(dErrors.CodeValidation, "Please explain what is missing")
	}
	return nil
}

type AddNoteRequest struct {
	Content        string `json:"content"`
	IsClientFacing bool   `json:"isClientFacing"`
}

func (r *AddNoteRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "note content is required")
	}
	return nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.svc.ListClients(ctx, actormodels.ActorFrom(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "failed to list clients", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, page.Clients, httputil.NewMeta(filter.Page, filter.Limit, page.Total))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sum, err := h.svc.ClientSummary(ctx, actormodels.ActorFrom(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "failed to summarize clients", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, sum, nil)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateClientRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.svc.CreateClient(ctx, actormodels.ActorFrom(ctx), service.CreateClientRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		FilingYear:  req.FilingYear,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create client", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, created, nil)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.ClientDetail(ctx, actormodels.ActorFrom(ctx), clientID)
	if err != nil {
		h.fail(ctx, w, "failed to load client", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail, nil)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateClientRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.UpdateClient(ctx, actormodels.ActorFrom(ctx), clientID, service.UpdateClientRequest{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.fail(ctx, w, "failed to update client", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(ctx, actormodels.ActorFrom(ctx), clientID); err != nil {
		h.fail(ctx, w, "failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.ApplyTransition(ctx, actormodels.ActorFrom(ctx), clientID, req.to)
	if err != nil {
		h.fail(ctx, w, "failed to change client status", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.AssignClient(ctx, actormodels.ActorFrom(ctx), clientID, req.adminID)
	if err != nil {
		h.fail(ctx, w, "failed to assign client", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleCostEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.svc.ApproveCostEstimate(ctx, actormodels.ActorFrom(ctx), clientID, *req.Amount)
	if err != nil {
		h.fail(ctx, w, "failed to approve cost estimate", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated, nil)
}

func (h *Handler) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	result, err := h.svc.AddPayment(ctx, actormodels.ActorFrom(ctx), clientID, service.AddPaymentRequest{
		Amount: *req.Amount,
		Method: req.Method,
		Note:   req.Note,
	})
	if err != nil {
		h.fail(ctx, w, "failed to add payment", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, result, nil)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Reconcile(ctx, actormodels.ActorFrom(ctx), clientID)
	if err != nil {
		h.fail(ctx, w, "failed to reconcile payments", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, rec, nil)
}

func (h *Handler) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddDocumentRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	doc, err := h.svc.AddDocument(ctx, actormodels.ActorFrom(ctx), clientID, service.AddDocumentRequest{
		Section: req.section,
		Name:    req.Name,
		URL:     req.URL,
	})
	if err != nil {
		h.fail(ctx, w, "failed to add document", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, doc, nil)
}

func (h *Handler) handleRequestDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RequestDocumentsRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	if err := h.svc.RequestDocuments(ctx, actormodels.ActorFrom(ctx), clientID, req.section, req.Message); err != nil {
		h.fail(ctx, w, "failed to request documents", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddNoteRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	note, err := h.svc.AddNote(ctx, actormodels.ActorFrom(ctx), clientID, req.Content, req.IsClientFacing)
	if err != nil {
		h.fail(ctx, w, "failed to add note", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, note, nil)
}

func (h *Handler) handleMarkMissing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MarkMissingRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	doc, err := h.svc.MarkMissing(ctx, actormodels.ActorFrom(ctx), documentID, req.Message)
	if err != nil {
		h.fail(ctx, w, "failed to mark document missing", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, doc, nil)
}

func (h *Handler) handleMarkVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.MarkVerified(ctx, actormodels.ActorFrom(ctx), documentID)
	if err != nil {
		h.fail(ctx, w, "failed to verify document", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, doc, nil)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(ctx, actormodels.ActorFrom(ctx), documentID); err != nil {
		h.fail(ctx, w, "failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDocuments serves the cross-client document list. "all" and an
// empty status both mean no status filter.
func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.DocumentFilter{Search: q.Get("search")}
	if status := q.Get("status"); status != "all" {
		filter.Status = models.DocumentStatus(status)
	}
	list, err := h.svc.ListDocuments(ctx, actormodels.ActorFrom(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "failed to list documents", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, list, nil)
}

// parseFilter reads the list query string. Unknown statuses are left for the
// service to reject.
func parseFilter(q url.Values) (models.ListFilter, error) {
	f := models.ListFilter{
		Status:        workflow.ClientStatus(q.Get("status")),
		PaymentStatus: models.PaymentStatus(q.Get("paymentStatus")),
		Search:        q.Get("search"),
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"year", &f.FilingYear},
		{"page", &f.Page},
		{"limit", &f.Limit},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return models.ListFilter{}, dErrors.New(dErrors.CodeValidation, "invalid "+p.key+" parameter")
		}
		*p.dst = v
	}
	if raw := q.Get("assignedTo"); raw != "" {
		adminID, err := id.ParseActorID(raw)
		if err != nil {
			return models.ListFilter{}, err
		}
		f.AssignedTo = &adminID
	}
	return f, nil
}

func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (id.ClientID, bool) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ClientID{}, false
	}
	return clientID, true
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	documentID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.DocumentID{}, false
	}
	return documentID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
