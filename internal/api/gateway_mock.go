package api

import (
	"context"
	"errors"

	"github.com/isra2/desasolve/internal/models"
)

var errNotMocked = errors.New("not mocked")

// MockQuoteGateway мок QuoteGateway для тестов.
type MockQuoteGateway struct {
	ListQuotesFunc  func(ctx context.Context) ([]models.Quote, error)
	GetQuoteFunc    func(ctx context.Context, id string) (*models.Quote, error)
	CreateQuoteFunc func(ctx context.Context, draft models.Quote) (*models.Quote, error)
	AcceptQuoteFunc func(ctx context.Context, id string) (*models.Quote, error)
	RejectQuoteFunc func(ctx context.Context, id string) (*models.Quote, error)
}

var _ QuoteGateway = (*MockQuoteGateway)(nil)

func (m *MockQuoteGateway) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	if m.ListQuotesFunc != nil {
		return m.ListQuotesFunc(ctx)
	}
	return []models.Quote{}, nil
}

func (m *MockQuoteGateway) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *MockQuoteGateway) CreateQuote(ctx context.Context, draft models.Quote) (*models.Quote, error) {
	if m.CreateQuoteFunc != nil {
		return m.CreateQuoteFunc(ctx, draft)
	}
	return nil, errNotMocked
}

func (m *MockQuoteGateway) AcceptQuote(ctx context.Context, id string) (*models.Quote, error) {
	if m.AcceptQuoteFunc != nil {
		return m.AcceptQuoteFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockQuoteGateway) RejectQuote(ctx context.Context, id string) (*models.Quote, error) {
	if m.RejectQuoteFunc != nil {
		return m.RejectQuoteFunc(ctx, id)
	}
	return nil, nil
}

// MockServiceGateway мок ServiceGateway для тестов.
type MockServiceGateway struct {
	ListServicesFunc  func(ctx context.Context) ([]models.Service, error)
	GetServiceFunc    func(ctx context.Context, id string) (*models.Service, error)
	CreateServiceFunc func(ctx context.Context, service models.Service) (*models.Service, error)
	UpdateServiceFunc func(ctx context.Context, id string, service models.Service) (*models.Service, error)
}

var _ ServiceGateway = (*MockServiceGateway)(nil)

func (m *MockServiceGateway) ListServices(ctx context.Context) ([]models.Service, error) {
	if m.ListServicesFunc != nil {
		return m.ListServicesFunc(ctx)
	}
	return []models.Service{}, nil
}

func (m *MockServiceGateway) GetService(ctx context.Context, id string) (*models.Service, error) {
	if m.GetServiceFunc != nil {
		return m.GetServiceFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *MockServiceGateway) CreateService(ctx context.Context, service models.Service) (*models.Service, error) {
	if m.CreateServiceFunc != nil {
		return m.CreateServiceFunc(ctx, service)
	}
	return nil, errNotMocked
}

func (m *MockServiceGateway) UpdateService(ctx context.Context, id string, service models.Service) (*models.Service, error) {
	if m.UpdateServiceFunc != nil {
		return m.UpdateServiceFunc(ctx, id, service)
	}
	return nil, nil
}
