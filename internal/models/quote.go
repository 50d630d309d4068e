package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus описывает состояние коммерческого предложения.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

// ParseQuoteStatus разбирает статус без учёта регистра.
func ParseQuoteStatus(s string) (QuoteStatus, error) {
	status := QuoteStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown quote status %q", s)
	}
	return status, nil
}

// Valid сообщает, входит ли статус в допустимый набор.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

// Terminal возвращает true для принятых и отклонённых предложений.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected
}

// Material - позиция материалов в предложении.
type Material struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// NewMaterial считает Total как quantity * unitPrice.
func NewMaterial(name string, quantity int, unitPrice decimal.Decimal) Material {
	return Material{
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// AdditionalCost - дополнительная статья расходов.
type AdditionalCost struct {
	Description string
	Amount      decimal.Decimal
}

// Quote представляет коммерческое предложение по работе.
// ID и ServiceID пусты, пока их не назначит сервер.
type Quote struct {
	ID          string
	ServiceID   string
	Amount      decimal.Decimal
	Description string
	Status      QuoteStatus
	CreatedAt   time.Time
	ValidUntil  time.Time

	ClientName    *string
	ClientAddress *string
	ClientPhone   *string

	Materials       []Material
	LaborCost       *decimal.Decimal
	AdditionalCosts []AdditionalCost
}

// HasBreakdown сообщает, есть ли у предложения детализация суммы.
func (q Quote) HasBreakdown() bool {
	return q.LaborCost != nil || len(q.Materials) > 0 || len(q.AdditionalCosts) > 0
}

// BreakdownTotal возвращает сумму детализации, если она есть.
func (q Quote) BreakdownTotal() (decimal.Decimal, bool) {
	if !q.HasBreakdown() {
		return decimal.Zero, false
	}
	labor := decimal.Zero
	if q.LaborCost != nil {
		labor = *q.LaborCost
	}
	return QuoteTotal(labor, q.Materials, q.AdditionalCosts), true
}

// AmountConsistent проверяет, что Amount совпадает с детализацией.
// Предложение без детализации считается согласованным.
func (q Quote) AmountConsistent() bool {
	total, ok := q.BreakdownTotal()
	if !ok {
		return true
	}
	return total.Equal(q.Amount)
}

// WithStatus возвращает копию предложения с новым статусом.
func (q Quote) WithStatus(status QuoteStatus) Quote {
	q.Status = status
	return q
}

// QuoteTotal: laborCost + сумма materials.Total + сумма additionalCosts.Amount.
func QuoteTotal(laborCost decimal.Decimal, materials []Material, additionalCosts []AdditionalCost) decimal.Decimal {
	total := laborCost
	for _, m := range materials {
		total = total.Add(m.Total)
	}
	for _, c := range additionalCosts {
		total = total.Add(c.Amount)
	}
	return total
}
