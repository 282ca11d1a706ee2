package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	actormodels "taxdesk/internal/actors/models"
	"taxdesk/internal/clients/handler/mocks"
	"taxdesk/internal/clients/models"
	"taxdesk/internal/clients/service"
	"taxdesk/internal/permission"
	"taxdesk/internal/workflow"
	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type ClientHandlerSuite struct {
	suite.Suite
	svc      *mocks.MockService
	router   chi.Router
	actor    *actormodels.Actor
	clientID id.ClientID
}

func TestClientHandlerSuite(t *testing.T) {
	suite.Run(t, new(ClientHandlerSuite))
}

func (s *ClientHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.actor = &actormodels.Actor{ID: id.NewActorID(), Name: "Sarah Johnson", Role: permission.RoleAdmin, IsActive: true}
	s.clientID = id.NewClientID()
}

func (s *ClientHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithActor(req, s.actor))
}

func (s *ClientHandlerSuite) path(suffix string) string {
	return "/clients/" + s.clientID.String() + suffix
}

func (s *ClientHandlerSuite) TestList() {
	s.Run("passes the query as a filter and pages the response", func() {
		s.svc.EXPECT().ListClients(gomock.Any(), s.actor, models.ListFilter{
			Status: workflow.UnderReview, FilingYear: 2025, Search: "tremblay", Page: 2, Limit: 10,
		}).Return(&service.Page{Clients: []*models.Client{{ID: s.clientID, Name: "Emily Tremblay"}}, Total: 11}, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients/?status=under_review&year=2025&search=tremblay&page=2&limit=10"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		list := testutil.UnmarshalData[[]map[string]any](s.T(), rr)
		s.Require().Len(list, 1)
		s.Equal("Emily Tremblay", list[0]["name"])
		s.Contains(rr.Body.String(), `"totalPages":2`)
	})

	s.Run("bad year never reaches the service", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients/?year=last"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ClientHandlerSuite) TestCreate() {
	s.Run("parses the dashboard amount", func() {
		s.svc.EXPECT().CreateClient(gomock.Any(), s.actor, service.CreateClientRequest{
			Name: "Emily Tremblay", Email: "emily@example.ca", TotalAmount: 125000,
		}).Return(&models.Client{ID: s.clientID, Name: "Emily Tremblay"}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/clients", map[string]any{
			"name": "Emily Tremblay", "email": "emily@example.ca", "totalAmount": "$1,250.00",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("missing email", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/clients", map[string]any{"name": "Emily"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("permission denied maps to 403", func() {
		s.svc.EXPECT().CreateClient(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodePermissionDenied, "You do not have permission to perform this action"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/clients", map[string]any{
			"name": "Emily", "email": "emily@example.ca",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodePermissionDenied))
	})
}

func (s *ClientHandlerSuite) TestTransition() {
	s.Run("moves the client", func() {
		s.svc.EXPECT().ApplyTransition(gomock.Any(), s.actor, s.clientID, workflow.AwaitingPayment).
			Return(&models.Client{ID: s.clientID, Status: workflow.AwaitingPayment}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, s.path("/status"), map[string]string{"status": "awaiting_payment"}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalData[map[string]any](s.T(), rr)
		s.Equal("awaiting_payment", body["status"])
	})

	s.Run("unknown status is invalid_status", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, s.path("/status"), map[string]string{"status": "archived"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidStatus))
	})

	s.Run("malformed client id", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/clients/nope/status", map[string]string{"status": "filed"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("missing client maps to 404", func() {
		s.svc.EXPECT().ApplyTransition(gomock.Any(), gomock.Any(), s.clientID, workflow.Filed).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Client not found"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, s.path("/status"), map[string]string{"status": "filed"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *ClientHandlerSuite) TestAddPayment() {
	s.Run("records the payment", func() {
		s.svc.EXPECT().AddPayment(gomock.Any(), s.actor, s.clientID, service.AddPaymentRequest{Amount: 25050, Method: "E-Transfer"}).
			Return(&service.PaymentResult{
				Payment: &models.Payment{Amount: 25050, Reference: "PAY-1"},
				Client:  &models.Client{ID: s.clientID, PaidAmount: 25050, PaymentStatus: models.PaymentPartial},
			}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/payments"), map[string]string{
			"amount": "250.50", "method": "E-Transfer",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := testutil.UnmarshalData[map[string]map[string]any](s.T(), rr)
		s.Equal("partial", body["client"]["paymentStatus"])
	})

	s.Run("amounts are dollars in both directions", func() {
		s.svc.EXPECT().AddPayment(gomock.Any(), s.actor, s.clientID, service.AddPaymentRequest{Amount: 25000}).
			Return(&service.PaymentResult{
				Payment: &models.Payment{Amount: 25000, Reference: "PAY-2"},
				Client:  &models.Client{ID: s.clientID, TotalAmount: 50000, PaidAmount: 25000, PaymentStatus: models.PaymentPartial},
			}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/payments"), map[string]any{"amount": 250}))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := testutil.UnmarshalData[map[string]map[string]any](s.T(), rr)
		s.InDelta(250.0, body["payment"]["amount"], 0.001)
		s.InDelta(250.0, body["client"]["paidAmount"], 0.001)
		s.InDelta(500.0, body["client"]["totalAmount"], 0.001)
	})

	s.Run("missing amount is invalid_amount", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/payments"), map[string]string{"method": "Cash"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidAmount))
	})

	s.Run("non-numeric amount is invalid_amount", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/payments"), map[string]string{"amount": "a lot"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidAmount))
	})

	s.Run("zero is passed on and rejected by the service", func() {
		s.svc.EXPECT().AddPayment(gomock.Any(), gomock.Any(), s.clientID, service.AddPaymentRequest{Amount: 0}).
			Return(nil, dErrors.New(dErrors.CodeInvalidAmount, "Payment amount must be greater than zero"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/payments"), map[string]string{"amount": "0"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidAmount))
	})
}

func (s *ClientHandlerSuite) TestReconcile() {
	s.svc.EXPECT().Reconcile(gomock.Any(), s.actor, s.clientID).
		Return(&service.Reconciliation{ClientID: s.clientID, LedgerSum: 20000, PaidAmount: 20000, Balanced: true}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, s.path("/reconciliation")))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalData[map[string]any](s.T(), rr)
	s.Equal(true, body["balanced"])
	s.InDelta(200.0, body["ledgerSum"], 0.001)
}

func (s *ClientHandlerSuite) TestDocuments() {
	documentID := id.NewDocumentID()

	s.Run("mark missing requires a message", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/documents/"+documentID.String()+"/missing", map[string]string{"message": " "}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("mark verified", func() {
		s.svc.EXPECT().MarkVerified(gomock.Any(), s.actor, documentID).
			Return(&models.Document{ID: documentID, Status: models.DocumentApproved}, nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPut, "/documents/"+documentID.String()+"/verified"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("request documents for a section", func() {
		s.svc.EXPECT().RequestDocuments(gomock.Any(), s.actor, s.clientID, models.SectionRRSP, "2025 slips").Return(nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/document-requests"), map[string]string{
			"section": "rrsp", "message": "2025 slips",
		}))
		testutil.AssertStatus(s.T(), rr, http.StatusAccepted)
	})

	s.Run("lists documents with the status and search filter", func() {
		s.svc.EXPECT().ListDocuments(gomock.Any(), s.actor, models.DocumentFilter{Status: models.DocumentMissing, Search: "t4"}).
			Return(&service.DocumentList{
				Documents: []service.DocumentView{{
					Document:   &models.Document{ID: documentID, ClientID: s.clientID, Name: "T4 - Acme Corp", Status: models.DocumentMissing},
					ClientName: "Emily Tremblay",
				}},
				Summary: service.DocumentSummary{Total: 3, Complete: 1, Pending: 1, Missing: 1},
			}, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/documents?status=missing&search=t4"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalData[struct {
			Documents []map[string]any `json:"documents"`
			Summary   map[string]int   `json:"summary"`
		}](s.T(), rr)
		s.Require().Len(body.Documents, 1)
		s.Equal("Emily Tremblay", body.Documents[0]["clientName"])
		s.Equal("T4 - Acme Corp", body.Documents[0]["name"])
		s.Equal(map[string]int{"total": 3, "complete": 1, "pending": 1, "missing": 1}, body.Summary)
	})

	s.Run("status all is no filter", func() {
		s.svc.EXPECT().ListDocuments(gomock.Any(), s.actor, models.DocumentFilter{}).
			Return(&service.DocumentList{Documents: []service.DocumentView{}}, nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/documents?status=all"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("delete document", func() {
		s.svc.EXPECT().DeleteDocument(gomock.Any(), s.actor, documentID).Return(nil)
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/documents/"+documentID.String()))
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("delete without permission maps to 403", func() {
		s.svc.EXPECT().DeleteDocument(gomock.Any(), s.actor, documentID).
			Return(dErrors.New(dErrors.CodePermissionDenied, "You do not have permission to perform this action"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/documents/"+documentID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodePermissionDenied))
	})

	s.Run("unknown section", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/documents"), map[string]string{
			"section": "receipts", "name": "x",
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ClientHandlerSuite) TestDelete() {
	s.svc.EXPECT().DeleteClient(gomock.Any(), s.actor, s.clientID).Return(nil)
	rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, s.path("")))
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *ClientHandlerSuite) TestInternalErrorsHideDetail() {
	s.svc.EXPECT().ClientDetail(gomock.Any(), s.actor, s.clientID).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to load client"))
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, s.path("")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	s.NotContains(rr.Body.String(), "failed to load client")
}
