package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	return client
}

func TestNewHTTPClient_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "trailing slash added", raw: "http://localhost:8000/api", want: "http://localhost:8000/api/"},
		{name: "trailing slash kept", raw: "https://api.desasolve.com/api/", want: "https://api.desasolve.com/api/"},
		{name: "host only", raw: "http://localhost:8000", want: "http://localhost:8000/"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no scheme", raw: "localhost:8000/api", wantErr: true},
		{name: "unsupported scheme", raw: "ftp://localhost/api", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewHTTPClient(Config{BaseURL: tt.raw})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBaseURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestNewHTTPClient_Timeouts(t *testing.T) {
	client, err := NewHTTPClient(Config{BaseURL: "http://localhost/api/"})
	require.NoError(t, err)
	assert.Equal(t, 3*DefaultTimeout, client.httpClient.Timeout)

	client, err = NewHTTPClient(Config{
		BaseURL:        "http://localhost/api/",
		ConnectTimeout: time.Second,
		ReadTimeout:    2 * time.Second,
		WriteTimeout:   3 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, client.httpClient.Timeout)
}

func TestHTTPClient_ListQuotes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/quotes/", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":"1","serviceId":"10","amount":1500.50,"description":"Limpieza de campana","status":"pending",
			 "createdAt":"2024-03-10T09:15:00","validUntil":"2024-03-17","clientName":"Cafetería Central"},
			{"id":"2","serviceId":"11","amount":2650,"description":"Desazolve","status":"ACCEPTED",
			 "createdAt":"2024-03-11T10:00:00Z","validUntil":"2024-03-20",
			 "laborCost":1200,"materials":[{"name":"Sosa","quantity":3,"unitPrice":150,"total":450}],
			 "additionalCosts":[{"description":"Traslado","amount":1000}]}
		]`)
	})

	quotes, err := client.ListQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	first := quotes[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, models.QuoteStatusPending, first.Status)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(first.Amount))
	assert.Equal(t, time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), first.ValidUntil)
	require.NotNil(t, first.ClientName)
	assert.Equal(t, "Cafetería Central", *first.ClientName)
	assert.Nil(t, first.ClientPhone)
	assert.False(t, first.HasBreakdown())

	second := quotes[1]
	assert.Equal(t, models.QuoteStatusAccepted, second.Status)
	require.Len(t, second.Materials, 1)
	assert.True(t, second.AmountConsistent())
}

func TestHTTPClient_ListQuotes_EmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	quotes, err := client.ListQuotes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)
}

func TestHTTPClient_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListQuotes(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "list quotes", se.Op)
	assert.False(t, IsNotFound(err))
}

func TestHTTPClient_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quotes/99/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetQuote(context.Background(), "99")
	assert.True(t, IsNotFound(err))
}

func TestHTTPClient_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"not":"a list"}`)
	})

	_, err := client.ListQuotes(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewHTTPClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	srv.Close()

	_, err = client.ListQuotes(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestHTTPClient_InvalidID(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	for _, id := range []string{"", " ", ".", ".."} {
		_, err := client.AcceptQuote(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "accept %q", id)
		_, err = client.RejectQuote(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "reject %q", id)
		_, err = client.GetQuote(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "get %q", id)
		_, err = client.GetService(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "get service %q", id)
		_, err = client.UpdateService(ctx, id, models.Service{})
		assert.ErrorIs(t, err, ErrInvalidID, "update service %q", id)
	}
	assert.Zero(t, hits.Load(), "no request may reach the backend")

	// Точки внутри id экранировать не нужно, путь остаётся в коллекции
	_, err := client.AcceptQuote(ctx, "a.b")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPClient_BodyReadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "[")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			io.WriteString(w, "]")
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Config{BaseURL: srv.URL, ReadTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.ListQuotes(context.Background())
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPClient_AcceptReject(t *testing.T) {
	tests := []struct {
		name     string
		call     func(c *HTTPClient) (*models.Quote, error)
		wantPath string
		body     string
		wantNil  bool
		want     models.QuoteStatus
	}{
		{
			name:     "accept with body",
			call:     func(c *HTTPClient) (*models.Quote, error) { return c.AcceptQuote(context.Background(), "7") },
			wantPath: "/api/quotes/7/accept/",
			body:     `{"id":"7","serviceId":"1","amount":100,"description":"x","status":"ACCEPTED","createdAt":"2024-03-10T09:15:00Z","validUntil":"2024-03-17"}`,
			want:     models.QuoteStatusAccepted,
		},
		{
			name:     "reject without body",
			call:     func(c *HTTPClient) (*models.Quote, error) { return c.RejectQuote(context.Background(), "7") },
			wantPath: "/api/quotes/7/reject/",
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				if tt.body == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				io.WriteString(w, tt.body)
			})

			q, err := tt.call(client)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, q)
				return
			}
			require.NotNil(t, q)
			assert.Equal(t, tt.want, q.Status)
		})
	}
}

func TestHTTPClient_CreateQuote(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/quotes/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"42","serviceId":"9","amount":1650,"description":"Limpieza","status":"PENDING","createdAt":"2024-03-10T09:15:00Z","validUntil":"2024-04-01"}`)
	})

	labor := decimal.NewFromInt(1200)
	draft := models.Quote{
		Amount:      decimal.NewFromInt(1650),
		Description: "Limpieza",
		Status:      models.QuoteStatusPending,
		CreatedAt:   time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC),
		ValidUntil:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		LaborCost:   &labor,
		Materials:   []models.Material{models.NewMaterial("Desengrasante", 3, decimal.NewFromInt(150))},
	}

	created, err := client.CreateQuote(context.Background(), draft)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "42", created.ID)

	assert.Equal(t, "", got["id"])
	assert.Equal(t, "", got["serviceId"])
	assert.Equal(t, 1650.0, got["amount"])
	assert.Equal(t, "PENDING", got["status"])
	assert.Equal(t, "2024-04-01", got["validUntil"])
	assert.Equal(t, "2024-03-10T09:15:00Z", got["createdAt"])
	assert.Equal(t, 1200.0, got["laborCost"])
	assert.NotContains(t, got, "clientName")
	assert.NotContains(t, got, "additionalCosts")
}

func TestHTTPClient_Services(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/services/":
			io.WriteString(w, `[{"id":"s1","clientName":"Hotel Plaza Mayor","address":"Calle Comercial 456","date":"2024-03-15","time":"10:00","type":"DRAINAGE","status":"SCHEDULED",
				"quote":{"id":"q1","serviceId":"s1","amount":800,"description":"Desazolve","status":"PENDING","createdAt":"2024-03-10T09:00:00","validUntil":"2024-03-20"}}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/services/s1/":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "COMPLETED", body["status"])
			assert.Equal(t, "2024-03-15", body["date"])
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})

	services, err := client.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, models.ServiceTypeDrainage, services[0].Type)
	require.NotNil(t, services[0].Quote)
	assert.Equal(t, "q1", services[0].Quote.ID)

	svc := services[0]
	svc.Status = models.ServiceStatusCompleted
	updated, err := client.UpdateService(context.Background(), "s1", svc)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestHTTPClient_LogBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	client, err := NewHTTPClient(Config{
		BaseURL:   srv.URL,
		LogBodies: true,
		Logger:    log.New(&buf, "", 0),
	})
	require.NoError(t, err)

	_, err = client.ListQuotes(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "--> GET")
	assert.Contains(t, out, "<-- 200")
	assert.Contains(t, out, "[]")
}
