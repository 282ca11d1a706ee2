package service

import (
	"context"
	"errors"
	"strings"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/requestcontext"
)

type CreateClientRequest struct {
	Name        string
	Email       string
	Phone       string
	FilingYear  int
	TotalAmount models.Money
}

func (s *Service) CreateClient(ctx context.Context, actor *actormodels.Actor, req CreateClientRequest) (created *models.Client, err error) {
	ctx, done := s.begin(ctx, "CreateClient")
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditClient); err != nil {
		return nil, err
	}
	c, err := models.NewClient(id.NewClientID(), req.Name, req.Email, req.Phone, req.FilingYear, req.TotalAmount, requestcontext.Now(ctx))
	if err != nil {
		return nil, invariantToValidation(err)
	}
	err = s.tx.RunInTx(ctx, c.ID.String(), func(ctx context.Context) error {
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		return s.record(ctx, actor, audit.ActionClientCreated, audit.EntityClient, c.ID.String(), nil, audit.Value(c.Contact()))
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "client created", "client_id", c.ID.String(), "actor_id", actor.ID.String())
	return c, nil
}

// UpdateClientRequest carries contact edits. Nil fields are left alone.
type UpdateClientRequest struct {
	Name  *string
	Email *string
	Phone *string
}

func (s *Service) UpdateClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req UpdateClientRequest) (updated *models.Client, err error) {
	ctx, done := s.begin(ctx, "UpdateClient", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditClient); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "client name cannot be empty")
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "client email cannot be empty")
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		before := c.Contact()
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			c.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Phone != nil {
			c.Phone = strings.TrimSpace(*req.Phone)
		}
		c.UpdatedAt = requestcontext.Now(ctx)
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		if err := s.record(ctx, actor, audit.ActionClientUpdated, audit.EntityClient, c.ID.String(),
			audit.Value(before), audit.Value(c.Contact())); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (*models.Client, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.loadClient(ctx, clientID)
}

// Page is one page of ListClients plus the unpaged match count.
type Page struct {
	Clients []*models.Client
	Total   int
}

const maxPageSize = 100

// ListClients returns matching clients, newest first. A zero Limit returns
// every match.
func (s *Service) ListClients(ctx context.Context, actor *actormodels.Actor, filter models.ListFilter) (*Page, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, "Invalid status: "+string(filter.Status))
	}
	all, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	page := &Page{Clients: all, Total: len(all)}
	if filter.Limit > 0 {
		limit := min(filter.Limit, maxPageSize)
		start := (max(filter.Page, 1) - 1) * limit
		end := min(start+limit, len(all))
		if start >= len(all) {
			page.Clients = []*models.Client{}
		} else {
			page.Clients = all[start:end]
		}
	}
	return page, nil
}

// ClientDetail loads the client with everything it owns.
func (s *Service) ClientDetail(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (*models.Detail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	payments, err := s.payments.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	notes, err := s.notes.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notes")
	}
	return &models.Detail{
		Client:        c,
		Documents:     docs,
		Payments:      payments,
		Notes:         notes,
		VerifiedCount: models.VerifiedCount(docs),
		Outstanding:   c.Outstanding(),
		Credit:        c.Credit(),
	}, nil
}

// DeleteClient removes the client with its documents, payments and notes.
func (s *Service) DeleteClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (err error) {
	ctx, done := s.begin(ctx, "DeleteClient", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditClient); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		if err := s.documents.DeleteByClient(ctx, clientID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete documents")
		}
		if err := s.payments.DeleteByClient(ctx, clientID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete payments")
		}
		if err := s.notes.DeleteByClient(ctx, clientID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete notes")
		}
		if err := s.clients.Delete(ctx, clientID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "Client not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete client")
		}
		return s.record(ctx, actor, audit.ActionClientDeleted, audit.EntityClient, clientID.String(), audit.Value(c.Contact()), nil)
	})
}

// ClientSummary counts clients per status for the list header.
func (s *Service) ClientSummary(ctx context.Context, actor *actormodels.Actor, filter models.ListFilter) (*models.Summary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter.Status = ""
	all, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	sum := models.Summarize(all)
	return &sum, nil
}
