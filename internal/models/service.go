package models

import (
	"fmt"
	"strings"
	"time"
)

// ServiceType - вид работ.
type ServiceType string

const (
	ServiceTypeKitchen     ServiceType = "KITCHEN"
	ServiceTypeDrainage    ServiceType = "DRAINAGE"
	ServiceTypeMaintenance ServiceType = "MAINTENANCE"
	ServiceTypeCleaning    ServiceType = "CLEANING"
)

var serviceTypeNames = map[ServiceType]string{
	ServiceTypeKitchen:     "Cocinas",
	ServiceTypeDrainage:    "Desazolve",
	ServiceTypeMaintenance: "Mantenimiento",
	ServiceTypeCleaning:    "Limpieza",
}

// ParseServiceType разбирает вид работ без учёта регистра.
func ParseServiceType(s string) (ServiceType, error) {
	t := ServiceType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown service type %q", s)
	}
	return t, nil
}

func (t ServiceType) Valid() bool {
	_, ok := serviceTypeNames[t]
	return ok
}

// DisplayName возвращает название для интерфейса.
func (t ServiceType) DisplayName() string {
	if name, ok := serviceTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// ServiceStatus - статус выезда.
type ServiceStatus string

const (
	ServiceStatusCompleted     ServiceStatus = "COMPLETED"
	ServiceStatusInProgress    ServiceStatus = "IN_PROGRESS"
	ServiceStatusPending       ServiceStatus = "PENDING"
	ServiceStatusScheduled     ServiceStatus = "SCHEDULED"
	ServiceStatusQuoted        ServiceStatus = "QUOTED"
	ServiceStatusQuoteAccepted ServiceStatus = "QUOTE_ACCEPTED"
	ServiceStatusQuoteRejected ServiceStatus = "QUOTE_REJECTED"
)

// ParseServiceStatus разбирает статус выезда без учёта регистра.
func ParseServiceStatus(s string) (ServiceStatus, error) {
	status := ServiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case ServiceStatusCompleted, ServiceStatusInProgress, ServiceStatusPending, ServiceStatusScheduled,
		ServiceStatusQuoted, ServiceStatusQuoteAccepted, ServiceStatusQuoteRejected:
		return status, nil
	}
	return "", fmt.Errorf("unknown service status %q", s)
}

// Service представляет запланированный выезд.
type Service struct {
	ID         string
	ClientName string
	Address    string
	Date       time.Time
	Time       string
	Type       ServiceType
	Status     ServiceStatus
	Quote      *Quote
	Notes      *string
}

// DateLayout - формат календарной даты на проводе.
const DateLayout = "2006-01-02"

// DateOf отбрасывает время суток и приводит к UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay сравнивает календарные даты.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
