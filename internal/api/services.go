package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/isra2/desasolve/internal/models"
)

const servicesPath = "services/"

// ServiceGateway описывает операции с выездами на бэкенде.
type ServiceGateway interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, service models.Service) (*models.Service, error)
	UpdateService(ctx context.Context, id string, service models.Service) (*models.Service, error)
}

var _ ServiceGateway = (*HTTPClient)(nil)

// ListServices выполняет GET /services/.
func (c *HTTPClient) ListServices(ctx context.Context) ([]models.Service, error) {
	const op = "list services"
	data, err := c.do(ctx, op, http.MethodGet, servicesPath, nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []models.Service{}, nil
	}

	var payload []servicePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	services := make([]models.Service, 0, len(payload))
	for _, p := range payload {
		s, err := toService(p)
		if err != nil {
			return nil, fmt.Errorf("%s: service %q: %w", op, p.ID, err)
		}
		services = append(services, s)
	}
	return services, nil
}

// GetService выполняет GET /services/{id}/.
func (c *HTTPClient) GetService(ctx context.Context, id string) (*models.Service, error) {
	const op = "get service"
	path, err := itemPath(servicesPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.serviceCall(ctx, op, http.MethodGet, path, nil)
}

// CreateService выполняет POST /services/.
func (c *HTTPClient) CreateService(ctx context.Context, service models.Service) (*models.Service, error) {
	return c.serviceCall(ctx, "create service", http.MethodPost, servicesPath, fromService(service))
}

// UpdateService выполняет PUT /services/{id}/.
func (c *HTTPClient) UpdateService(ctx context.Context, id string, service models.Service) (*models.Service, error) {
	const op = "update service"
	path, err := itemPath(servicesPath, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.serviceCall(ctx, op, http.MethodPut, path, fromService(service))
}

func (c *HTTPClient) serviceCall(ctx context.Context, op, method, path string, in any) (*models.Service, error) {
	data, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var payload servicePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	s, err := toService(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
