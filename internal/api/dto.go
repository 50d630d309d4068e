package api

import (
	"fmt"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/shopspring/decimal"
)

// quotePayload - предложение в том виде, в каком его отдаёт сервер.
// decimal разбирает числа без потери точности.
type quotePayload struct {
	ID              string                  `json:"id"`
	ServiceID       string                  `json:"serviceId"`
	Amount          decimal.Decimal         `json:"amount"`
	Description     string                  `json:"description"`
	Status          string                  `json:"status"`
	CreatedAt       string                  `json:"createdAt"`
	ValidUntil      string                  `json:"validUntil"`
	ClientAddress   *string                 `json:"clientAddress,omitempty"`
	ClientName      *string                 `json:"clientName,omitempty"`
	ClientPhone     *string                 `json:"clientPhone,omitempty"`
	Materials       []materialPayload       `json:"materials,omitempty"`
	LaborCost       *decimal.Decimal        `json:"laborCost,omitempty"`
	AdditionalCosts []additionalCostPayload `json:"additionalCosts,omitempty"`
}

type materialPayload struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

type additionalCostPayload struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// quoteRequest - исходящее предложение. Суммы уходят числами, а не строками.
type quoteRequest struct {
	ID              string                  `json:"id"`
	ServiceID       string                  `json:"serviceId"`
	Amount          float64                 `json:"amount"`
	Description     string                  `json:"description"`
	Status          string                  `json:"status"`
	CreatedAt       string                  `json:"createdAt"`
	ValidUntil      string                  `json:"validUntil,omitempty"`
	ClientAddress   *string                 `json:"clientAddress,omitempty"`
	ClientName      *string                 `json:"clientName,omitempty"`
	ClientPhone     *string                 `json:"clientPhone,omitempty"`
	Materials       []materialRequest       `json:"materials,omitempty"`
	LaborCost       *float64                `json:"laborCost,omitempty"`
	AdditionalCosts []additionalCostRequest `json:"additionalCosts,omitempty"`
}

type materialRequest struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

type additionalCostRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type servicePayload struct {
	ID         string        `json:"id"`
	ClientName string        `json:"clientName"`
	Address    string        `json:"address"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Type       string        `json:"type"`
	Status     string        `json:"status"`
	Quote      *quotePayload `json:"quote,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
}

type serviceRequest struct {
	ID         string        `json:"id"`
	ClientName string        `json:"clientName"`
	Address    string        `json:"address"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Type       string        `json:"type"`
	Status     string        `json:"status"`
	Quote      *quoteRequest `json:"quote,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
}

// dateTimeLayouts - варианты ISO-8601, которые встречаются у бэкенда.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return models.DateOf(t), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func toQuote(p quotePayload) (models.Quote, error) {
	status, err := models.ParseQuoteStatus(p.Status)
	if err != nil {
		return models.Quote{}, err
	}
	createdAt, err := parseDateTime(p.CreatedAt)
	if err != nil {
		return models.Quote{}, err
	}
	validUntil, err := parseDate(p.ValidUntil)
	if err != nil {
		return models.Quote{}, err
	}

	q := models.Quote{
		ID:            p.ID,
		ServiceID:     p.ServiceID,
		Amount:        p.Amount,
		Description:   p.Description,
		Status:        status,
		CreatedAt:     createdAt,
		ValidUntil:    validUntil,
		ClientName:    p.ClientName,
		ClientAddress: p.ClientAddress,
		ClientPhone:   p.ClientPhone,
		LaborCost:     p.LaborCost,
	}
	if len(p.Materials) > 0 {
		q.Materials = make([]models.Material, 0, len(p.Materials))
		for _, m := range p.Materials {
			q.Materials = append(q.Materials, models.Material{
				Name:      m.Name,
				Quantity:  m.Quantity,
				UnitPrice: m.UnitPrice,
				Total:     m.Total,
			})
		}
	}
	if len(p.AdditionalCosts) > 0 {
		q.AdditionalCosts = make([]models.AdditionalCost, 0, len(p.AdditionalCosts))
		for _, c := range p.AdditionalCosts {
			q.AdditionalCosts = append(q.AdditionalCosts, models.AdditionalCost{
				Description: c.Description,
				Amount:      c.Amount,
			})
		}
	}
	return q, nil
}

func fromQuote(q models.Quote) quoteRequest {
	amount, _ := q.Amount.Float64()
	req := quoteRequest{
		ID:            q.ID,
		ServiceID:     q.ServiceID,
		Amount:        amount,
		Description:   q.Description,
		Status:        string(q.Status),
		ValidUntil:    formatDate(q.ValidUntil),
		ClientAddress: q.ClientAddress,
		ClientName:    q.ClientName,
		ClientPhone:   q.ClientPhone,
	}
	if !q.CreatedAt.IsZero() {
		req.CreatedAt = q.CreatedAt.UTC().Format(time.RFC3339)
	}
	if q.LaborCost != nil {
		labor, _ := q.LaborCost.Float64()
		req.LaborCost = &labor
	}
	for _, m := range q.Materials {
		unit, _ := m.UnitPrice.Float64()
		total, _ := m.Total.Float64()
		req.Materials = append(req.Materials, materialRequest{
			Name:      m.Name,
			Quantity:  m.Quantity,
			UnitPrice: unit,
			Total:     total,
		})
	}
	for _, c := range q.AdditionalCosts {
		val, _ := c.Amount.Float64()
		req.AdditionalCosts = append(req.AdditionalCosts, additionalCostRequest{
			Description: c.Description,
			Amount:      val,
		})
	}
	return req
}

func toService(p servicePayload) (models.Service, error) {
	serviceType, err := models.ParseServiceType(p.Type)
	if err != nil {
		return models.Service{}, err
	}
	status, err := models.ParseServiceStatus(p.Status)
	if err != nil {
		return models.Service{}, err
	}
	date, err := parseDate(p.Date)
	if err != nil {
		return models.Service{}, err
	}

	s := models.Service{
		ID:         p.ID,
		ClientName: p.ClientName,
		Address:    p.Address,
		Date:       date,
		Time:       p.Time,
		Type:       serviceType,
		Status:     status,
		Notes:      p.Notes,
	}
	if p.Quote != nil {
		q, err := toQuote(*p.Quote)
		if err != nil {
			return models.Service{}, fmt.Errorf("service %s quote: %w", p.ID, err)
		}
		s.Quote = &q
	}
	return s, nil
}

func fromService(s models.Service) serviceRequest {
	req := serviceRequest{
		ID:         s.ID,
		ClientName: s.ClientName,
		Address:    s.Address,
		Date:       formatDate(s.Date),
		Time:       s.Time,
		Type:       string(s.Type),
		Status:     string(s.Status),
		Notes:      s.Notes,
	}
	if s.Quote != nil {
		q := fromQuote(*s.Quote)
		req.Quote = &q
	}
	return req
}
