package service

import (
	"context"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/models"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/requestcontext"
)

// AddNote attaches a note to the client. Any signed-in admin may write notes.
func (s *Service) AddNote(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, content string, clientFacing bool) (created *models.Note, err error) {
	ctx, done := s.begin(ctx, "AddNote", "client.id", clientID.String())
	defer done(&err)

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	n, err := models.NewNote(clientID, actor.ID, actor.Name, content, clientFacing, requestcontext.Now(ctx))
	if err != nil {
		return nil, invariantToValidation(err)
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		if _, err := s.loadClient(ctx, clientID); err != nil {
			return err
		}
		if err := s.notes.Append(ctx, n); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save note")
		}
		return s.record(ctx, actor, audit.ActionNoteAdded, audit.EntityNote, n.ID.String(), nil, audit.Value(n.Content))
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}
