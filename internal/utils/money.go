package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount форматирует сумму для показа: "$1234.50".
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// ParseDay разбирает дату YYYY-MM-DD. Пустая строка - сегодня по UTC.
func ParseDay(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}
