// Package seed loads the demo accounts and a handful of sample clients into
// an empty installation.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taxdesk/internal/actors/models"
	"taxdesk/internal/actors/secrets"
	clientmodels "taxdesk/internal/clients/models"
	"taxdesk/internal/clients/service"
	"taxdesk/internal/permission"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
	"taxdesk/pkg/requestcontext"
)

const (
	SuperAdminEmail = "superadmin@taxpro.ca"
	AdminEmail      = "admin@taxpro.ca"
	DemoPassword    = "demo123"
)

type ActorStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Actor, error)
	Save(ctx context.Context, a *models.Actor) error
}

// ClientService is the part of the client service the sample data goes
// through, so seeded clients are validated and audited like real ones.
type ClientService interface {
	CreateClient(ctx context.Context, actor *models.Actor, req service.CreateClientRequest) (*clientmodels.Client, error)
	ApplyTransition(ctx context.Context, actor *models.Actor, clientID id.ClientID, to workflow.ClientStatus) (*clientmodels.Client, error)
	ApproveCostEstimate(ctx context.Context, actor *models.Actor, clientID id.ClientID, total clientmodels.Money) (*clientmodels.Client, error)
	AddPayment(ctx context.Context, actor *models.Actor, clientID id.ClientID, req service.AddPaymentRequest) (*service.PaymentResult, error)
	AssignClient(ctx context.Context, actor *models.Actor, clientID id.ClientID, adminID id.ActorID) (*clientmodels.Client, error)
	AddDocument(ctx context.Context, actor *models.Actor, clientID id.ClientID, req service.AddDocumentRequest) (*clientmodels.Document, error)
	MarkVerified(ctx context.Context, actor *models.Actor, documentID id.DocumentID) (*clientmodels.Document, error)
}

type sampleClient struct {
	name, email, phone string
	status             workflow.ClientStatus
	estimate, paid     clientmodels.Money
	assignToAdmin      bool
	documents          []clientmodels.Section
}

var samples = []sampleClient{
	{name: "Emily Tremblay", email: "emily.tremblay@example.ca", phone: "416-555-0142",
		status: workflow.DocumentsPending, assignToAdmin: true},
	{name: "Liam Chen", email: "liam.chen@example.ca", phone: "604-555-0178",
		status: workflow.UnderReview, documents: []clientmodels.Section{clientmodels.SectionPersonalInfo, clientmodels.SectionEmployment}},
	{name: "Olivia Gagnon", email: "olivia.gagnon@example.ca",
		status: workflow.AwaitingPayment, estimate: 45000, assignToAdmin: true,
		documents: []clientmodels.Section{clientmodels.SectionEmployment, clientmodels.SectionRRSP}},
	{name: "Noah Patel", email: "noah.patel@example.ca", phone: "403-555-0110",
		status: workflow.InPreparation, estimate: 85000, paid: 40000,
		documents: []clientmodels.Section{clientmodels.SectionSelfEmployment, clientmodels.SectionDeductions}},
	{name: "Ava Roy", email: "ava.roy@example.ca",
		status: workflow.Completed, estimate: 30000, paid: 30000,
		documents: []clientmodels.Section{clientmodels.SectionEmployment}},
}

// Run seeds an empty installation. It does nothing once the superadmin
// account exists.
func Run(ctx context.Context, actors ActorStore, clients ClientService, logger *slog.Logger) error {
	_, err := actors.FindByEmail(ctx, SuperAdminEmail)
	if err == nil {
		logger.InfoContext(ctx, "demo data already present")
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("check for demo accounts: %w", err)
	}

	now := requestcontext.Now(ctx)
	root, err := newAccount(SuperAdminEmail, "John Smith", permission.RoleSuperAdmin, nil)
	if err != nil {
		return err
	}
	admin, err := newAccount(AdminEmail, "Sarah Johnson", permission.RoleAdmin, []permission.Permission{
		permission.AddEditClient, permission.RequestDocuments, permission.UpdateWorkflow,
	})
	if err != nil {
		return err
	}
	for _, a := range []*models.Actor{root, admin} {
		a.CreatedAt, a.UpdatedAt = now, now
		if err := actors.Save(ctx, a); err != nil {
			return fmt.Errorf("save demo account %s: %w", a.Email, err)
		}
	}

	for _, sc := range samples {
		if err := seedClient(ctx, clients, root, admin, sc); err != nil {
			return fmt.Errorf("seed client %s: %w", sc.email, err)
		}
	}
	logger.InfoContext(ctx, "demo data seeded", "accounts", 2, "clients", len(samples))
	return nil
}

func newAccount(email, name string, role permission.Role, perms []permission.Permission) (*models.Actor, error) {
	hash, err := secrets.Hash(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &models.Actor{
		ID:           id.NewActorID(),
		Email:        email,
		Name:         name,
		Role:         role,
		Permissions:  perms,
		IsActive:     true,
		PasswordHash: hash,
	}, nil
}

func seedClient(ctx context.Context, svc ClientService, root, admin *models.Actor, sc sampleClient) error {
	c, err := svc.CreateClient(ctx, root, service.CreateClientRequest{Name: sc.name, Email: sc.email, Phone: sc.phone})
	if err != nil {
		return err
	}
	if sc.estimate > 0 {
		if _, err := svc.ApproveCostEstimate(ctx, root, c.ID, sc.estimate); err != nil {
			return err
		}
	}
	if sc.paid > 0 {
		if _, err := svc.AddPayment(ctx, root, c.ID, service.AddPaymentRequest{Amount: sc.paid, Method: "E-Transfer"}); err != nil {
			return err
		}
	}
	for _, section := range sc.documents {
		doc, err := svc.AddDocument(ctx, root, c.ID, service.AddDocumentRequest{Section: section, Name: section.Label()})
		if err != nil {
			return err
		}
		if _, err := svc.MarkVerified(ctx, root, doc.ID); err != nil {
			return err
		}
	}
	if sc.assignToAdmin {
		if _, err := svc.AssignClient(ctx, root, c.ID, admin.ID); err != nil {
			return err
		}
	}
	if sc.status != c.Status {
		if _, err := svc.ApplyTransition(ctx, root, c.ID, sc.status); err != nil {
			return err
		}
	}
	return nil
}
