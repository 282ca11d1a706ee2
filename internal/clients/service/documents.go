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

type AddDocumentRequest struct {
	Section models.Section
	Name    string
	URL     string
}

func (s *Service) AddDocument(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req AddDocumentRequest) (created *models.Document, err error) {
	ctx, done := s.begin(ctx, "AddDocument", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditClient); err != nil {
		return nil, err
	}
	section, err := models.ParseSection(string(req.Section))
	if err != nil {
		return nil, err
	}
	d, err := models.NewDocument(id.NewDocumentID(), clientID, section, req.Name, req.URL, requestcontext.Now(ctx))
	if err != nil {
		return nil, invariantToValidation(err)
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		if _, err := s.loadClient(ctx, clientID); err != nil {
			return err
		}
		if err := s.saveDocument(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, actor, audit.ActionDocumentAdded, audit.EntityDocument, d.ID.String(),
			nil, audit.Value(section.Label()+": "+d.Name))
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MarkMissing flags a document as missing with a message for the client.
// Repeated calls leave the same state and are each audited.
func (s *Service) MarkMissing(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID, message string) (updated *models.Document, err error) {
	ctx, done := s.begin(ctx, "MarkMissing", "document.id", documentID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.RequestDocuments); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Please explain what is missing")
	}
	return s.mutateDocument(ctx, actor, documentID, audit.ActionDocumentMissing, func(d *models.Document) *string {
		d.MarkMissing(message, requestcontext.Now(ctx))
		return audit.Value(message)
	})
}

// MarkVerified approves a document. Repeated calls leave the same state and
// are each audited.
func (s *Service) MarkVerified(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID) (updated *models.Document, err error) {
	ctx, done := s.begin(ctx, "MarkVerified", "document.id", documentID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.RequestDocuments); err != nil {
		return nil, err
	}
	return s.mutateDocument(ctx, actor, documentID, audit.ActionDocumentVerified, func(d *models.Document) *string {
		d.MarkVerified(requestcontext.Now(ctx))
		return audit.Value(string(d.Status))
	})
}

// mutateDocument locks on the owning client, since the document belongs to
// that aggregate.
func (s *Service) mutateDocument(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID, action audit.Action, mutate func(*models.Document) *string) (*models.Document, error) {
	d, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	var updated *models.Document
	err = s.tx.RunInTx(ctx, d.ClientID.String(), func(ctx context.Context) error {
		d, err := s.loadDocument(ctx, documentID)
		if err != nil {
			return err
		}
		oldValue := audit.Value(string(d.Status))
		newValue := mutate(d)
		if err := s.saveDocument(ctx, d); err != nil {
			return err
		}
		if err := s.record(ctx, actor, action, audit.EntityDocument, d.ID.String(), oldValue, newValue); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDocument removes a document from its client.
func (s *Service) DeleteDocument(ctx context.Context, actor *actormodels.Actor, documentID id.DocumentID) (err error) {
	ctx, done := s.begin(ctx, "DeleteDocument", "document.id", documentID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditClient); err != nil {
		return err
	}
	d, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, d.ClientID.String(), func(ctx context.Context) error {
		d, err := s.loadDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if err := s.documents.Delete(ctx, documentID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "Document not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
		}
		return s.record(ctx, actor, audit.ActionDocumentDeleted, audit.EntityDocument, d.ID.String(),
			audit.Value(d.Section.Label()+": "+d.Name), nil)
	})
}

// DocumentView is a document with the name of the client it belongs to.
type DocumentView struct {
	*models.Document
	ClientName string `json:"clientName"`
}

// DocumentSummary counts every document regardless of the list filter.
type DocumentSummary struct {
	Total    int `json:"total"`
	Complete int `json:"complete"`
	Pending  int `json:"pending"`
	Missing  int `json:"missing"`
}

type DocumentList struct {
	Documents []DocumentView  `json:"documents"`
	Summary   DocumentSummary `json:"summary"`
}

const unknownClientName = "Unknown"

// ListDocuments lists documents across all clients. Search is a
// case-insensitive match on the document name or the client name.
func (s *Service) ListDocuments(ctx context.Context, actor *actormodels.Actor, filter models.DocumentFilter) (*DocumentList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid document status: "+string(filter.Status))
	}
	docs, err := s.documents.List(ctx, filter.Status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	counts, err := s.documents.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count documents")
	}

	names := make(map[id.ClientID]string)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := &DocumentList{Documents: []DocumentView{}}
	for _, d := range docs {
		name, ok := names[d.ClientID]
		if !ok {
			name, err = s.clientName(ctx, d.ClientID)
			if err != nil {
				return nil, err
			}
			names[d.ClientID] = name
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(name), search) {
			continue
		}
		out.Documents = append(out.Documents, DocumentView{Document: d, ClientName: name})
	}
	for status, n := range counts {
		out.Summary.Total += n
		switch status {
		case models.DocumentComplete:
			out.Summary.Complete = n
		case models.DocumentPending:
			out.Summary.Pending = n
		case models.DocumentMissing:
			out.Summary.Missing = n
		}
	}
	return out, nil
}

func (s *Service) clientName(ctx context.Context, clientID id.ClientID) (string, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return unknownClientName, nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return c.Name, nil
}

// RequestDocuments asks the client for documents in a section. Only the
// audit trail changes.
func (s *Service) RequestDocuments(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, section models.Section, message string) (err error) {
	ctx, done := s.begin(ctx, "RequestDocuments", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.RequestDocuments); err != nil {
		return err
	}
	sec, err := models.ParseSection(string(section))
	if err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		if _, err := s.loadClient(ctx, clientID); err != nil {
			return err
		}
		value := sec.Label()
		if msg := strings.TrimSpace(message); msg != "" {
			value += ": " + msg
		}
		return s.record(ctx, actor, audit.ActionDocumentsRequested, audit.EntityClient, clientID.String(), nil, audit.Value(value))
	})
}

func (s *Service) saveDocument(ctx context.Context, d *models.Document) error {
	if err := s.documents.Save(ctx, d); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}
	return nil
}
