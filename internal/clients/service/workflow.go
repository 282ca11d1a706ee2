package service

import (
	"context"
	"fmt"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/permission"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/requestcontext"
)

// CanTransition reports whether the active policy allows the move. Unknown
// statuses are never allowed.
func (s *Service) CanTransition(from, to workflow.ClientStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	return s.policy.CanTransition(from, to)
}

// ApplyTransition moves a client to a new workflow status.
func (s *Service) ApplyTransition(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, to workflow.ClientStatus) (updated *models.Client, err error) {
	ctx, done := s.begin(ctx, "ApplyTransition", "client.id", clientID.String(), "status.to", string(to))
	defer done(&err)

	if err := permission.Authorize(actor, permission.UpdateWorkflow); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidStatus, fmt.Sprintf("Invalid status: %s", to))
	}

	var from workflow.ClientStatus
	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		from = c.Status
		if !s.policy.CanTransition(from, to) {
			return dErrors.New(dErrors.CodeInvalidStatus,
				fmt.Sprintf("Cannot move from %s to %s", from.Label(), to.Label()))
		}
		c.SetStatus(to, actor.ID, requestcontext.Now(ctx))
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		if err := s.record(ctx, actor, audit.ActionStatusChanged, audit.EntityClient, c.ID.String(),
			audit.Value(from.Label()), audit.Value(to.Label())); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(to))
	}
	s.logger.InfoContext(ctx, "client status changed",
		"client_id", clientID.String(),
		"from", string(from),
		"to", string(to),
		"actor_id", actor.ID.String(),
	)
	return updated, nil
}

// AssignClient hands the client to an active admin.
func (s *Service) AssignClient(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, adminID id.ActorID) (updated *models.Client, err error) {
	ctx, done := s.begin(ctx, "AssignClient", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AssignClients); err != nil {
		return nil, err
	}
	if s.admins == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "admin directory is not configured")
	}
	assignee, err := s.admins.FindActive(ctx, adminID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		var oldValue *string
		if c.AssignedAdminID != nil {
			oldValue = audit.Value(s.adminName(ctx, *c.AssignedAdminID))
		}
		c.Assign(assignee.ID, requestcontext.Now(ctx))
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		if err := s.record(ctx, actor, audit.ActionClientAssigned, audit.EntityClient, c.ID.String(),
			oldValue, audit.Value(assignee.Name)); err != nil {
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

// adminName resolves a previous assignee for the audit trail. The admin may
// have been deactivated or deleted since, in which case the raw ID is used.
func (s *Service) adminName(ctx context.Context, adminID id.ActorID) string {
	if a, err := s.admins.FindActive(ctx, adminID); err == nil {
		return a.Name
	}
	return adminID.String()
}
