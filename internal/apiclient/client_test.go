package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "taxdesk/pkg/domain-errors"
	"taxdesk/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	var err error
	s.client, err = New(s.server.URL+"/api/v1/",
		WithTimeout(time.Second),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *ClientSuite) apiError(err error) *Error {
	var apiErr *Error
	s.Require().ErrorAs(err, &apiErr)
	return apiErr
}

func (s *ClientSuite) TestEnvelopeIsUnwrapped() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v1/clients", r.URL.Path)
		s.Equal("Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"name":"Emily"}],"meta":{"page":1,"limit":20,"total":1,"totalPages":1},"message":"ok"}`)
	}
	s.client.SetToken("tok-1")

	resp, err := s.client.Get(context.Background(), "/clients")
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal("ok", resp.Message)
	s.Require().NotNil(resp.Meta)
	s.Equal(1, resp.Meta.Total)

	list, err := Decode[[]map[string]string](resp)
	s.Require().NoError(err)
	s.Equal("Emily", list[0]["name"])
}

func (s *ClientSuite) TestUnwrappedBodyIsData() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	}
	resp, err := s.client.Get(context.Background(), "health")
	s.Require().NoError(err)
	body, err := Decode[map[string]string](resp)
	s.Require().NoError(err)
	s.Equal("ok", body["status"])
}

func (s *ClientSuite) TestEmptyAndNonJSONBodiesSucceed() {
	resp, err := s.client.Delete(context.Background(), "/clients/1")
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Nil(resp.Data)

	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "pong")
	}
	resp, err = s.client.Get(context.Background(), "/ping")
	s.Require().NoError(err)
	s.Nil(resp.Data)
}

func (s *ClientSuite) TestPostSendsJSON() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		s.NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("250.00", body["amount"])
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"reference":"PAY-1"}}`)
	}
	resp, err := s.client.Post(context.Background(), "/clients/1/payments", map[string]string{"amount": "250.00"})
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, resp.Status)
}

func (s *ClientSuite) TestUnauthorizedClearsToken() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"unauthorized","error_description":"invalid token"}`)
	}
	s.client.SetToken("stale")

	_, err := s.client.Get(context.Background(), "/auth/me")
	apiErr := s.apiError(err)
	s.Equal(dErrors.CodeUnauthorized, apiErr.Code)
	s.Equal(http.StatusUnauthorized, apiErr.Status)
	s.Equal("Session expired. Please log in again.", apiErr.Message)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Empty(s.client.Token())
}

func (s *ClientSuite) TestStatusMapping() {
	cases := []struct {
		status int
		body   string
		code   dErrors.Code
		msg    string
	}{
		{http.StatusForbidden, `{}`, dErrors.CodePermissionDenied, "You do not have permission to perform this action."},
		{http.StatusNotFound, `{"error":"not_found","error_description":"Client not found"}`, dErrors.CodeNotFound, "Client not found"},
		{http.StatusNotFound, ``, dErrors.CodeNotFound, "Resource not found."},
		{http.StatusUnprocessableEntity, `{"message":"email is required"}`, dErrors.CodeValidation, "email is required"},
		{http.StatusBadRequest, `not json`, dErrors.CodeValidation, "HTTP Error: 400 Bad Request"},
		{http.StatusConflict, `{"message":"dup"}`, dErrors.CodeBadRequest, "dup"},
		{http.StatusTooManyRequests, `{"error":"too_many_requests","error_description":"Too many failed sign-in attempts."}`, dErrors.CodeTooManyRequests, "Too many failed sign-in attempts."},
	}
	for _, tc := range cases {
		s.Run(http.StatusText(tc.status), func() {
			s.handler = func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, tc.status, tc.body) }
			_, err := s.client.Get(context.Background(), "/x")
			apiErr := s.apiError(err)
			s.Equal(tc.code, apiErr.Code)
			s.Equal(tc.msg, apiErr.Message)
			s.Equal(tc.status, apiErr.Status)
		})
	}
}

func (s *ClientSuite) TestServerErrorsOpenTheCircuit() {
	calls := 0
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, http.StatusInternalServerError, `{"error":"internal_error"}`)
	}
	for range 2 {
		_, err := s.client.Get(context.Background(), "/clients")
		s.Equal(dErrors.CodeServerError, s.apiError(err).Code)
	}

	_, err := s.client.Get(context.Background(), "/clients")
	apiErr := s.apiError(err)
	s.Equal(dErrors.CodeNetworkError, apiErr.Code)
	s.Equal(0, apiErr.Status)
	s.Equal(2, calls, "an open circuit fails fast")
	s.False(s.client.HealthCheck(context.Background()))
}

func (s *ClientSuite) TestClientErrorsKeepTheCircuitClosed() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, http.StatusNotFound, `{}`) }
	for range 3 {
		_, err := s.client.Get(context.Background(), "/missing")
		s.Equal(dErrors.CodeNotFound, s.apiError(err).Code)
	}
}

func (s *ClientSuite) TestCallerCancellationKeepsTheCircuitClosed() {
	calls := 0
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, http.StatusOK, `{}`)
	}
	for range 3 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.client.Get(ctx, "/clients")
		apiErr := s.apiError(err)
		s.Equal(dErrors.CodeNetworkError, apiErr.Code)
		s.Equal(msgCanceled, apiErr.Message)
		s.Zero(apiErr.Status)
	}

	_, err := s.client.Get(context.Background(), "/clients")
	s.Require().NoError(err)
	s.Equal(1, calls)
}

func (s *ClientSuite) TestUploadFile() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		s.NoError(r.ParseMultipartForm(1 << 20))
		s.Equal("employment_income", r.FormValue("section"))
		f, hdr, err := r.FormFile("file")
		s.Require().NoError(err)
		defer f.Close()
		s.Equal("t4.pdf", hdr.Filename)
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":"d1"}}`)
	}
	resp, err := s.client.UploadFile(context.Background(), "/clients/1/documents", "t4.pdf",
		strings.NewReader("%PDF-1.7"), map[string]string{"section": "employment_income"})
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, resp.Status)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := New(server.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/slow")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, dErrors.CodeTimeout, apiErr.Code)
	assert.Equal(t, http.StatusRequestTimeout, apiErr.Status)
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client, err := New(addr)
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/health")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNetworkError))
	assert.False(t, client.HealthCheck(context.Background()))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
