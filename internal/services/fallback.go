package services

import (
	"fmt"
	"os"
	"time"

	"github.com/isra2/desasolve/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FallbackProvider отдаёт предложения, показываемые при недоступности сервера.
type FallbackProvider interface {
	FallbackQuotes(now time.Time) []models.Quote
}

type fallbackFile struct {
	Quotes []fallbackQuote `yaml:"quotes"`
}

type fallbackQuote struct {
	ID            string        `yaml:"id"`
	ServiceID     string        `yaml:"service_id"`
	Amount        string        `yaml:"amount"`
	Description   string        `yaml:"description"`
	Status        string        `yaml:"status"`
	CreatedAgo    time.Duration `yaml:"created_ago"`
	ValidDays     int           `yaml:"valid_days"`
	ClientName    string        `yaml:"client_name"`
	ClientAddress string        `yaml:"client_address"`
	ClientPhone   string        `yaml:"client_phone"`
}

// StaticFallback - фиксированный набор предложений с датами относительно now.
type StaticFallback struct {
	quotes []fallbackQuote
}

var _ FallbackProvider = (*StaticFallback)(nil)

// LoadFallbackFile читает YAML-файл с тестовыми предложениями.
func LoadFallbackFile(path string) (*StaticFallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback quotes: %w", err)
	}
	return ParseFallback(data)
}

// ParseFallback разбирает YAML с тестовыми предложениями.
func ParseFallback(data []byte) (*StaticFallback, error) {
	var file fallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fallback quotes: %w", err)
	}
	for i, q := range file.Quotes {
		if _, err := models.ParseQuoteStatus(q.Status); err != nil {
			return nil, fmt.Errorf("fallback quote %d: %w", i+1, err)
		}
		if q.Amount != "" {
			if _, err := decimal.NewFromString(q.Amount); err != nil {
				return nil, fmt.Errorf("fallback quote %d: amount: %w", i+1, err)
			}
		}
	}
	return &StaticFallback{quotes: file.Quotes}, nil
}

// FallbackQuotes строит предложения: createdAt = now - created_ago,
// validUntil = дата now + valid_days.
func (f *StaticFallback) FallbackQuotes(now time.Time) []models.Quote {
	quotes := make([]models.Quote, 0, len(f.quotes))
	for _, q := range f.quotes {
		status, _ := models.ParseQuoteStatus(q.Status)
		amount := decimal.Zero
		if q.Amount != "" {
			amount, _ = decimal.NewFromString(q.Amount)
		}
		quotes = append(quotes, models.Quote{
			ID:            q.ID,
			ServiceID:     q.ServiceID,
			Amount:        amount,
			Description:   q.Description,
			Status:        status,
			CreatedAt:     now.Add(-q.CreatedAgo),
			ValidUntil:    models.DateOf(now).AddDate(0, 0, q.ValidDays),
			ClientName:    optionalString(q.ClientName),
			ClientAddress: optionalString(q.ClientAddress),
			ClientPhone:   optionalString(q.ClientPhone),
		})
	}
	return quotes
}
