package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/isra2/desasolve/internal/api"
	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type mockQuoteService struct {
	LoadFunc      func(ctx context.Context) error
	AcceptFunc    func(ctx context.Context, id string) error
	RejectFunc    func(ctx context.Context, id string) error
	CreateFunc    func(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error)
	SubscribeFunc func() (<-chan services.QuoteSnapshot, func())
	snapshot      services.QuoteSnapshot
	snapshotCalls int
}

func (m *mockQuoteService) LoadQuotes(ctx context.Context) error {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil
}

func (m *mockQuoteService) AcceptQuote(ctx context.Context, id string) error {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, id)
	}
	return nil
}

func (m *mockQuoteService) RejectQuote(ctx context.Context, id string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id)
	}
	return nil
}

func (m *mockQuoteService) CreateQuote(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, draft)
	}
	return nil, nil
}

func (m *mockQuoteService) Snapshot() services.QuoteSnapshot {
	m.snapshotCalls++
	return m.snapshot
}

func (m *mockQuoteService) Subscribe() (<-chan services.QuoteSnapshot, func()) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc()
	}
	ch := make(chan services.QuoteSnapshot)
	close(ch)
	return ch, func() {}
}

func testQuote(id string, status models.QuoteStatus) models.Quote {
	return models.Quote{
		ID:          id,
		ServiceID:   "10",
		Amount:      decimal.RequireFromString("1500.50"),
		Description: "Limpieza de campana",
		Status:      status,
		CreatedAt:   time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC),
		ValidUntil:  time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
	}
}

// assertStatus проверяет код ответа или код echo.HTTPError.
func assertStatus(t *testing.T, err error, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if want < 400 {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Code != want {
			t.Fatalf("status = %d, want %d", rec.Code, want)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != want {
		t.Fatalf("status = %d, want %d", he.Code, want)
	}
}

func TestQuoteHandler_List(t *testing.T) {
	mock := &mockQuoteService{
		snapshot: services.QuoteSnapshot{
			Items: []models.Quote{
				testQuote("1", models.QuoteStatusPending),
				testQuote("2", models.QuoteStatusAccepted),
				testQuote("3", models.QuoteStatusPending),
			},
			Err: "failed to load quotes: 500",
		},
	}

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []string
	}{
		{name: "all", expectedStatus: http.StatusOK, expectedIDs: []string{"1", "2", "3"}},
		{name: "pending", query: "?status=pending", expectedStatus: http.StatusOK, expectedIDs: []string{"1", "3"}},
		{name: "accepted", query: "?status=ACCEPTED", expectedStatus: http.StatusOK, expectedIDs: []string{"2"}},
		{name: "invalid status", query: "?status=lost", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/quotes"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			mock.snapshotCalls = 0
			err := NewQuoteHandler(mock).List(c)
			assertStatus(t, err, rec, tt.expectedStatus)
			if mock.snapshotCalls != 1 {
				t.Errorf("Snapshot() called %d times, want 1", mock.snapshotCalls)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.QuoteListResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Quotes) != len(tt.expectedIDs) {
				t.Fatalf("got %d quotes, want %d", len(resp.Quotes), len(tt.expectedIDs))
			}
			for i, id := range tt.expectedIDs {
				if resp.Quotes[i].ID != id {
					t.Errorf("quote[%d].ID = %s, want %s", i, resp.Quotes[i].ID, id)
				}
			}
			if resp.Error != "failed to load quotes: 500" {
				t.Errorf("Error = %q", resp.Error)
			}
			if resp.Quotes[0].AmountText != "$1500.50" {
				t.Errorf("AmountText = %q, want $1500.50", resp.Quotes[0].AmountText)
			}
		})
	}
}

func TestQuoteHandler_AcceptReject(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		reject         bool
		id             string
		expectedStatus int
	}{
		{name: "accepted", id: "1", expectedStatus: http.StatusOK},
		{name: "rejected", id: "1", reject: true, expectedStatus: http.StatusOK},
		{name: "unknown id", id: "99", expectedStatus: http.StatusNoContent},
		{name: "busy", id: "1", err: services.ErrQuoteBusy, expectedStatus: http.StatusConflict},
		{
			name:           "backend error",
			id:             "1",
			err:            &services.OperationError{Op: "accept quote", Message: "failed to accept quote: 500", Err: &api.StatusError{StatusCode: 500}},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "dot id",
			id:             "..",
			err:            &services.OperationError{Op: "accept quote", Message: `invalid id ".."`, Err: fmt.Errorf("accept quote: %w %q", api.ErrInvalidID, "..")},
			expectedStatus: http.StatusBadRequest,
		},
		{name: "store closed", id: "1", err: services.ErrStoreClosed, expectedStatus: http.StatusServiceUnavailable},
		{name: "unexpected", id: "1", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called string
			mock := &mockQuoteService{
				snapshot: services.QuoteSnapshot{Items: []models.Quote{testQuote("1", models.QuoteStatusAccepted)}},
				AcceptFunc: func(ctx context.Context, id string) error {
					called = "accept:" + id
					return tt.err
				},
				RejectFunc: func(ctx context.Context, id string) error {
					called = "reject:" + id
					return tt.err
				},
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			handler := NewQuoteHandler(mock)
			var err error
			want := "accept:" + tt.id
			if tt.reject {
				err = handler.Reject(c)
				want = "reject:" + tt.id
			} else {
				err = handler.Accept(c)
			}

			assertStatus(t, err, rec, tt.expectedStatus)
			if called != want {
				t.Errorf("called = %q, want %q", called, want)
			}
			if he, ok := err.(*echo.HTTPError); ok && tt.expectedStatus == http.StatusBadGateway {
				if he.Message != "failed to accept quote: 500" {
					t.Errorf("Message = %v", he.Message)
				}
			}
		})
	}
}

func TestQuoteHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockCreate     func(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error)
		expectedStatus int
	}{
		{
			name: "created",
			body: `{"client_name":"Hotel Plaza","service_type":"kitchen","labor_cost":1200,
				"materials":[{"name":"Desengrasante","quantity":3,"unit_price":150}],
				"additional_costs":[{"description":"Traslado","amount":250}],"valid_until":"2024-03-22"}`,
			mockCreate: func(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error) {
				if draft.ServiceType != models.ServiceTypeKitchen {
					return nil, errors.New("unexpected service type")
				}
				if !draft.Amount().Equal(decimal.NewFromInt(1900)) {
					return nil, errors.New("unexpected amount")
				}
				q := testQuote("42", models.QuoteStatusPending)
				return &q, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "created without body",
			body: `{"service_type":"DRAINAGE","labor_cost":500,"valid_until":"2024-03-22"}`,
			mockCreate: func(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error) {
				return nil, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed json",
			body:           `{"labor_cost":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad valid_until",
			body:           `{"service_type":"KITCHEN","valid_until":"22/03/2024"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid draft",
			body: `{"service_type":"PLUMBING","valid_until":"2024-03-22"}`,
			mockCreate: func(ctx context.Context, draft services.QuoteDraft) (*models.Quote, error) {
				return nil, &services.OperationError{Op: "create quote", Message: "invalid quote", Err: services.ErrInvalidQuoteDraft}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := NewQuoteHandler(&mockQuoteService{CreateFunc: tt.mockCreate}).Create(c)
			assertStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestQuoteHandler_Refresh(t *testing.T) {
	mock := &mockQuoteService{
		LoadFunc: func(ctx context.Context) error {
			return &services.OperationError{Message: "connection error: refused", Err: errors.New("refused")}
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/quotes/refresh", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := NewQuoteHandler(mock).Refresh(c)
	assertStatus(t, err, rec, http.StatusBadGateway)

	mock.LoadFunc = nil
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	assertStatus(t, NewQuoteHandler(mock).Refresh(c), rec, http.StatusOK)
}

func TestQuoteHandler_Events(t *testing.T) {
	unsubscribed := false
	mock := &mockQuoteService{
		SubscribeFunc: func() (<-chan services.QuoteSnapshot, func()) {
			ch := make(chan services.QuoteSnapshot, 1)
			ch <- services.QuoteSnapshot{Items: []models.Quote{testQuote("1", models.QuoteStatusPending)}, Loading: true}
			close(ch)
			return ch, func() { unsubscribed = true }
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/quotes/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewQuoteHandler(mock).Events(c); err != nil {
		t.Fatalf("Events() error = %v", err)
	}

	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: quotes\ndata: ") {
		t.Fatalf("unexpected body: %q", body)
	}
	if !strings.Contains(body, `"loading":true`) || !strings.HasSuffix(body, "\n\n") {
		t.Errorf("unexpected event payload: %q", body)
	}
	if !unsubscribed {
		t.Error("subscription must be released")
	}
}

func TestQuoteResponse(t *testing.T) {
	labor := decimal.NewFromInt(1200)
	q := testQuote("1", models.QuoteStatusPending)
	q.LaborCost = &labor
	q.Materials = []models.Material{models.NewMaterial("Sosa", 2, decimal.RequireFromString("150.25"))}

	resp := quoteResponse(q)
	if resp.CreatedAt != "2024-03-10T09:15:00Z" {
		t.Errorf("CreatedAt = %s", resp.CreatedAt)
	}
	if resp.ValidUntil != "2024-03-17" {
		t.Errorf("ValidUntil = %s", resp.ValidUntil)
	}
	if resp.LaborCost == nil || *resp.LaborCost != 1200 {
		t.Errorf("LaborCost = %v", resp.LaborCost)
	}
	if len(resp.Materials) != 1 || resp.Materials[0].Total != 300.5 {
		t.Errorf("Materials = %+v", resp.Materials)
	}
}
