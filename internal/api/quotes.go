package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/isra2/desasolve/internal/models"
)

const quotesPath = "quotes/"

// QuoteGateway - граница между хранилищем предложений и сетью.
// Мутирующие методы возвращают (nil, nil), если сервер ответил 2xx без тела.
type QuoteGateway interface {
	ListQuotes(ctx context.Context) ([]models.Quote, error)
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	CreateQuote(ctx context.Context, draft models.Quote) (*models.Quote, error)
	AcceptQuote(ctx context.Context, id string) (*models.Quote, error)
	RejectQuote(ctx context.Context, id string) (*models.Quote, error)
}

var _ QuoteGateway = (*HTTPClient)(nil)

// ListQuotes выполняет GET /quotes/. Пустое тело - пустой список.
func (c *HTTPClient) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	const op = "list quotes"
	data, err := c.do(ctx, op, http.MethodGet, quotesPath, nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []models.Quote{}, nil
	}

	var payload []quotePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	quotes := make([]models.Quote, 0, len(payload))
	for _, p := range payload {
		q, err := toQuote(p)
		if err != nil {
			return nil, fmt.Errorf("%s: quote %q: %w", op, p.ID, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// GetQuote выполняет GET /quotes/{id}/.
func (c *HTTPClient) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	const op = "get quote"
	path, err := itemPath(quotesPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.quoteCall(ctx, op, http.MethodGet, path, nil)
}

// CreateQuote выполняет POST /quotes/. Сервер назначает id и serviceId.
func (c *HTTPClient) CreateQuote(ctx context.Context, draft models.Quote) (*models.Quote, error) {
	return c.quoteCall(ctx, "create quote", http.MethodPost, quotesPath, fromQuote(draft))
}

// AcceptQuote выполняет POST /quotes/{id}/accept/.
func (c *HTTPClient) AcceptQuote(ctx context.Context, id string) (*models.Quote, error) {
	const op = "accept quote"
	path, err := itemPath(quotesPath, id, "accept")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.quoteCall(ctx, op, http.MethodPost, path, nil)
}

// RejectQuote выполняет POST /quotes/{id}/reject/.
func (c *HTTPClient) RejectQuote(ctx context.Context, id string) (*models.Quote, error) {
	const op = "reject quote"
	path, err := itemPath(quotesPath, id, "reject")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.quoteCall(ctx, op, http.MethodPost, path, nil)
}

func (c *HTTPClient) quoteCall(ctx context.Context, op, method, path string, in any) (*models.Quote, error) {
	data, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var payload quotePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	q, err := toQuote(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &q, nil
}
