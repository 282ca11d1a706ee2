package service

import (
	"context"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/permission"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/audit"
	"taxdesk/pkg/requestcontext"
)

type AddPaymentRequest struct {
	Amount models.Money
	// Method defaults to models.DefaultPaymentMethod when empty.
	Method string
	Note   string
}

// PaymentResult is the ledger line together with the client it was applied to.
type PaymentResult struct {
	Payment *models.Payment `json:"payment"`
	Client  *models.Client  `json:"client"`
}

// AddPayment appends a ledger line and raises the client's paid amount.
func (s *Service) AddPayment(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, req AddPaymentRequest) (result *PaymentResult, err error) {
	ctx, done := s.begin(ctx, "AddPayment", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.AddEditPayment); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Payment amount must be greater than zero")
	}
	if req.Amount > models.MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Payment amount cannot exceed "+models.MaxAmount.Dollars())
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		if c.PaidAmount > models.MaxAmount-req.Amount {
			return dErrors.New(dErrors.CodeInvalidAmount,
				"Payments for one client cannot exceed "+models.MaxAmount.Dollars())
		}
		if s.rejectOverpayment && c.PaidAmount+req.Amount > c.TotalAmount {
			return dErrors.New(dErrors.CodeInvalidAmount,
				"Payment exceeds the outstanding balance of "+c.Outstanding().Dollars())
		}
		now := requestcontext.Now(ctx)
		p, err := models.NewPayment(c.ID, req.Amount, req.Method, req.Note, actor.ID, now)
		if err != nil {
			return err
		}
		oldPaid := c.PaidAmount
		c.ApplyPayment(p.Amount, now)

		if err := s.payments.Append(ctx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
		}
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		if err := s.record(ctx, actor, audit.ActionPaymentAdded, audit.EntityPayment, p.ID.String(),
			audit.Value(oldPaid.Dollars()), audit.Value(c.PaidAmount.Dollars())); err != nil {
			return err
		}
		result = &PaymentResult{Payment: p, Client: c}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordPayment(int64(req.Amount))
	}
	s.logger.InfoContext(ctx, "payment recorded",
		"client_id", clientID.String(),
		"reference", result.Payment.Reference,
		"amount_cents", int64(req.Amount),
		"payment_status", string(result.Client.PaymentStatus),
	)
	return result, nil
}

// ParseAmount converts dashboard input such as "$1,250.00" to cents.
func (s *Service) ParseAmount(raw string) (models.Money, error) {
	return models.ParseAmount(raw)
}

// ApproveCostEstimate sets the amount the client owes.
func (s *Service) ApproveCostEstimate(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID, total models.Money) (updated *models.Client, err error) {
	ctx, done := s.begin(ctx, "ApproveCostEstimate", "client.id", clientID.String())
	defer done(&err)

	if err := permission.Authorize(actor, permission.ApproveCostEstimate); err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Cost estimate cannot be negative")
	}
	if total > models.MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "Cost estimate cannot exceed "+models.MaxAmount.Dollars())
	}

	err = s.tx.RunInTx(ctx, clientID.String(), func(ctx context.Context) error {
		c, err := s.loadClient(ctx, clientID)
		if err != nil {
			return err
		}
		oldTotal := c.TotalAmount
		c.SetTotal(total, requestcontext.Now(ctx))
		if err := s.saveClient(ctx, c); err != nil {
			return err
		}
		if err := s.record(ctx, actor, audit.ActionCostEstimate, audit.EntityClient, c.ID.String(),
			audit.Value(oldTotal.Dollars()), audit.Value(total.Dollars())); err != nil {
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

// Reconciliation compares the payment ledger with the stored paid amount.
type Reconciliation struct {
	ClientID   id.ClientID  `json:"clientId"`
	LedgerSum  models.Money `json:"ledgerSum"`
	PaidAmount models.Money `json:"paidAmount"`
	Balanced   bool         `json:"balanced"`
}

func (s *Service) Reconcile(ctx context.Context, actor *actormodels.Actor, clientID id.ClientID) (*Reconciliation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	sum, err := s.payments.SumByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum payments")
	}
	r := &Reconciliation{
		ClientID:   clientID,
		LedgerSum:  sum,
		PaidAmount: c.PaidAmount,
		Balanced:   sum == c.PaidAmount,
	}
	if !r.Balanced {
		s.logger.WarnContext(ctx, "payment ledger out of balance",
			"client_id", clientID.String(),
			"ledger_cents", int64(sum),
			"paid_cents", int64(c.PaidAmount),
		)
	}
	return r, nil
}
