package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taxdesk/internal/clients/models"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	"taxdesk/pkg/platform/sentinel"
	txcontext "taxdesk/pkg/platform/tx"
)

// PostgresClients stores clients in the clients table. Documents, payments
// and notes reference it with ON DELETE CASCADE.
type PostgresClients struct {
	db *sqlx.DB
}

func NewPostgresClients(db *sqlx.DB) *PostgresClients {
	return &PostgresClients{db: db}
}

type clientRow struct {
	ID                 uuid.UUID     `db:"id"`
	Name               string        `db:"name"`
	Email              string        `db:"email"`
	Phone              string        `db:"phone"`
	FilingYear         int           `db:"filing_year"`
	Status             string        `db:"status"`
	TotalCents         int64         `db:"total_cents"`
	PaidCents          int64         `db:"paid_cents"`
	PaymentStatus      string        `db:"payment_status"`
	AssignedAdminID    uuid.NullUUID `db:"assigned_admin_id"`
	LastStatusChangeBy uuid.NullUUID `db:"last_status_change_by"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

func nullActor(a *id.ActorID) uuid.NullUUID {
	if a == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*a), Valid: true}
}

func actorPtr(n uuid.NullUUID) *id.ActorID {
	if !n.Valid {
		return nil
	}
	a := id.ActorID(n.UUID)
	return &a
}

func toClientRow(c *models.Client) clientRow {
	return clientRow{
		ID:                 uuid.UUID(c.ID),
		Name:               c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		FilingYear:         c.FilingYear,
		Status:             string(c.Status),
		TotalCents:         int64(c.TotalAmount),
		PaidCents:          int64(c.PaidAmount),
		PaymentStatus:      string(c.PaymentStatus),
		AssignedAdminID:    nullActor(c.AssignedAdminID),
		LastStatusChangeBy: nullActor(c.LastStatusChangeBy),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// toModel re-derives the payment status from the amounts.
func (r clientRow) toModel() (*models.Client, error) {
	status, err := workflow.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", r.ID, err)
	}
	total, paid := models.Money(r.TotalCents), models.Money(r.PaidCents)
	return &models.Client{
		ID:                 id.ClientID(r.ID),
		Name:               r.Name,
		Email:              r.Email,
		Phone:              r.Phone,
		FilingYear:         r.FilingYear,
		Status:             status,
		TotalAmount:        total,
		PaidAmount:         paid,
		PaymentStatus:      models.DerivePaymentStatus(total, paid),
		AssignedAdminID:    actorPtr(r.AssignedAdminID),
		LastStatusChangeBy: actorPtr(r.LastStatusChangeBy),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

const selectClient = `
	SELECT id, name, email, phone, filing_year, status, total_cents, paid_cents, payment_status,
	       assigned_admin_id, last_status_change_by, created_at, updated_at
	FROM clients`

func (s *PostgresClients) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	var row clientRow
	err := txcontext.Pick(ctx, s.db).GetContext(ctx, &row, selectClient+" WHERE id = $1", uuid.UUID(clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query client: %w", err)
	}
	return row.toModel()
}

func (s *PostgresClients) Save(ctx context.Context, c *models.Client) error {
	const q = `
		INSERT INTO clients (id, name, email, phone, filing_year, status, total_cents, paid_cents, payment_status,
		                     assigned_admin_id, last_status_change_by, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :filing_year, :status, :total_cents, :paid_cents, :payment_status,
		        :assigned_admin_id, :last_status_change_by, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			filing_year = EXCLUDED.filing_year,
			status = EXCLUDED.status,
			total_cents = EXCLUDED.total_cents,
			paid_cents = EXCLUDED.paid_cents,
			payment_status = EXCLUDED.payment_status,
			assigned_admin_id = EXCLUDED.assigned_admin_id,
			last_status_change_by = EXCLUDED.last_status_change_by,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Pick(ctx, s.db), q, toClientRow(c)); err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (s *PostgresClients) List(ctx context.Context, filter models.ListFilter) ([]*models.Client, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.FilingYear != 0 {
		where = append(where, "filing_year = "+arg(filter.FilingYear))
	}
	if filter.AssignedTo != nil {
		where = append(where, "assigned_admin_id = "+arg(uuid.UUID(*filter.AssignedTo)))
	}
	if filter.PaymentStatus != "" {
		where = append(where, "payment_status = "+arg(string(filter.PaymentStatus)))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		p := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR email ILIKE %s OR phone ILIKE %s)", p, p, p))
	}
	query := selectClient
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, name ASC"

	var rows []clientRow
	if err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]*models.Client, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *PostgresClients) Delete(ctx context.Context, clientID id.ClientID) error {
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, uuid.UUID(clientID))
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresClients) CountAssigned(ctx context.Context) (map[id.ActorID]int, error) {
	var rows []struct {
		AdminID uuid.UUID `db:"assigned_admin_id"`
		Count   int       `db:"n"`
	}
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT assigned_admin_id, COUNT(*) AS n
		FROM clients
		WHERE assigned_admin_id IS NOT NULL
		GROUP BY assigned_admin_id`)
	if err != nil {
		return nil, fmt.Errorf("count assigned clients: %w", err)
	}
	counts := make(map[id.ActorID]int, len(rows))
	for _, r := range rows {
		counts[id.ActorID(r.AdminID)] = r.Count
	}
	return counts, nil
}

type PostgresDocuments struct {
	db *sqlx.DB
}

func NewPostgresDocuments(db *sqlx.DB) *PostgresDocuments {
	return &PostgresDocuments{db: db}
}

type documentRow struct {
	ID             uuid.UUID `db:"id"`
	ClientID       uuid.UUID `db:"client_id"`
	Section        string    `db:"section"`
	Name           string    `db:"name"`
	URL            string    `db:"url"`
	Status         string    `db:"status"`
	IsMissing      bool      `db:"is_missing"`
	MissingMessage string    `db:"missing_message"`
	UploadedAt     time.Time `db:"uploaded_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r documentRow) toModel() *models.Document {
	return &models.Document{
		ID:             id.DocumentID(r.ID),
		ClientID:       id.ClientID(r.ClientID),
		Section:        models.Section(r.Section),
		Name:           r.Name,
		URL:            r.URL,
		Status:         models.DocumentStatus(r.Status),
		IsMissing:      r.IsMissing,
		MissingMessage: r.MissingMessage,
		UploadedAt:     r.UploadedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const selectDocument = `
	SELECT id, client_id, section, name, url, status, is_missing, missing_message, uploaded_at, updated_at
	FROM documents`

func (s *PostgresDocuments) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	var row documentRow
	err := txcontext.Pick(ctx, s.db).GetContext(ctx, &row, selectDocument+" WHERE id = $1", uuid.UUID(documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresDocuments) Save(ctx context.Context, d *models.Document) error {
	const q = `
		INSERT INTO documents (id, client_id, section, name, url, status, is_missing, missing_message, uploaded_at, updated_at)
		VALUES (:id, :client_id, :section, :name, :url, :status, :is_missing, :missing_message, :uploaded_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			is_missing = EXCLUDED.is_missing,
			missing_message = EXCLUDED.missing_message,
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			updated_at = EXCLUDED.updated_at`
	row := documentRow{
		ID:             uuid.UUID(d.ID),
		ClientID:       uuid.UUID(d.ClientID),
		Section:        string(d.Section),
		Name:           d.Name,
		URL:            d.URL,
		Status:         string(d.Status),
		IsMissing:      d.IsMissing,
		MissingMessage: d.MissingMessage,
		UploadedAt:     d.UploadedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Pick(ctx, s.db), q, row); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresDocuments) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Document, error) {
	var rows []documentRow
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows,
		selectDocument+" WHERE client_id = $1 ORDER BY uploaded_at ASC, id ASC", uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]*models.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// List returns documents of every client in upload order. An empty status
// matches all of them.
func (s *PostgresDocuments) List(ctx context.Context, status models.DocumentStatus) ([]*models.Document, error) {
	var rows []documentRow
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows,
		selectDocument+" WHERE ($1 = '' OR status = $1) ORDER BY uploaded_at ASC, id ASC", string(status))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]*models.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresDocuments) CountByStatus(ctx context.Context) (map[models.DocumentStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	counts := make(map[models.DocumentStatus]int, len(rows))
	for _, r := range rows {
		counts[models.DocumentStatus(r.Status)] = r.Count
	}
	return counts, nil
}

func (s *PostgresDocuments) Delete(ctx context.Context, documentID id.DocumentID) error {
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, uuid.UUID(documentID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresDocuments) DeleteByClient(ctx context.Context, clientID id.ClientID) error {
	if _, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE client_id = $1`, uuid.UUID(clientID)); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

type PostgresPayments struct {
	db *sqlx.DB
}

func NewPostgresPayments(db *sqlx.DB) *PostgresPayments {
	return &PostgresPayments{db: db}
}

type paymentRow struct {
	ID          uuid.UUID `db:"id"`
	ClientID    uuid.UUID `db:"client_id"`
	AmountCents int64     `db:"amount_cents"`
	Method      string    `db:"method"`
	Reference   string    `db:"reference"`
	Note        string    `db:"note"`
	CreatedBy   uuid.UUID `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (s *PostgresPayments) Append(ctx context.Context, p *models.Payment) error {
	const q = `
		INSERT INTO payments (id, client_id, amount_cents, method, reference, note, created_by, created_at)
		VALUES (:id, :client_id, :amount_cents, :method, :reference, :note, :created_by, :created_at)`
	row := paymentRow{
		ID:          uuid.UUID(p.ID),
		ClientID:    uuid.UUID(p.ClientID),
		AmountCents: int64(p.Amount),
		Method:      p.Method,
		Reference:   p.Reference,
		Note:        p.Note,
		CreatedBy:   uuid.UUID(p.CreatedBy),
		CreatedAt:   p.CreatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Pick(ctx, s.db), q, row); err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	return nil
}

func (s *PostgresPayments) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Payment, error) {
	var rows []paymentRow
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT id, client_id, amount_cents, method, reference, note, created_by, created_at
		FROM payments WHERE client_id = $1 ORDER BY created_at ASC, reference ASC`, uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]*models.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Payment{
			ID:        id.PaymentID(r.ID),
			ClientID:  id.ClientID(r.ClientID),
			Amount:    models.Money(r.AmountCents),
			Method:    r.Method,
			Reference: r.Reference,
			Note:      r.Note,
			CreatedBy: id.ActorID(r.CreatedBy),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *PostgresPayments) SumByClient(ctx context.Context, clientID id.ClientID) (models.Money, error) {
	var sum int64
	err := txcontext.Pick(ctx, s.db).GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE client_id = $1`, uuid.UUID(clientID))
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return models.Money(sum), nil
}

func (s *PostgresPayments) DeleteByClient(ctx context.Context, clientID id.ClientID) error {
	if _, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM payments WHERE client_id = $1`, uuid.UUID(clientID)); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	return nil
}

type PostgresNotes struct {
	db *sqlx.DB
}

func NewPostgresNotes(db *sqlx.DB) *PostgresNotes {
	return &PostgresNotes{db: db}
}

type noteRow struct {
	ID             uuid.UUID `db:"id"`
	ClientID       uuid.UUID `db:"client_id"`
	AuthorID       uuid.UUID `db:"author_id"`
	AuthorName     string    `db:"author_name"`
	Content        string    `db:"content"`
	IsClientFacing bool      `db:"is_client_facing"`
	CreatedAt      time.Time `db:"created_at"`
}

func (s *PostgresNotes) Append(ctx context.Context, n *models.Note) error {
	const q = `
		INSERT INTO notes (id, client_id, author_id, author_name, content, is_client_facing, created_at)
		VALUES (:id, :client_id, :author_id, :author_name, :content, :is_client_facing, :created_at)`
	row := noteRow{
		ID:             uuid.UUID(n.ID),
		ClientID:       uuid.UUID(n.ClientID),
		AuthorID:       uuid.UUID(n.AuthorID),
		AuthorName:     n.AuthorName,
		Content:        n.Content,
		IsClientFacing: n.IsClientFacing,
		CreatedAt:      n.CreatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Pick(ctx, s.db), q, row); err != nil {
		return fmt.Errorf("append note: %w", err)
	}
	return nil
}

func (s *PostgresNotes) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Note, error) {
	var rows []noteRow
	err := txcontext.Pick(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT id, client_id, author_id, author_name, content, is_client_facing, created_at
		FROM notes WHERE client_id = $1 ORDER BY created_at ASC, id ASC`, uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]*models.Note, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Note{
			ID:             id.NoteID(r.ID),
			ClientID:       id.ClientID(r.ClientID),
			AuthorID:       id.ActorID(r.AuthorID),
			AuthorName:     r.AuthorName,
			Content:        r.Content,
			IsClientFacing: r.IsClientFacing,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

func (s *PostgresNotes) DeleteByClient(ctx context.Context, clientID id.ClientID) error {
	if _, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `DELETE FROM notes WHERE client_id = $1`, uuid.UUID(clientID)); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	return nil
}
