package models

import (
	"time"

	"github.com/google/uuid"
)

type IncidentStatus string

const (
	StatusNew           IncidentStatus = "new"
	StatusInvestigating IncidentStatus = "investigating"
	StatusResolved      IncidentStatus = "resolved"
	StatusDismissed     IncidentStatus = "dismissed"
)

// transitions - допустимые переходы статуса инцидента
var transitions = map[IncidentStatus][]IncidentStatus{
	StatusNew:           {StatusInvestigating, StatusResolved, StatusDismissed},
	StatusInvestigating: {StatusResolved, StatusDismissed},
}

// Valid проверяет, что статус входит в перечисление
func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInvestigating, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов (кроме удаления)
func (s IncidentStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// CanTransition проверяет переход from -> to. Переход в тот же статус запрещен.
func CanTransition(from, to IncidentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Incident struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	Status      IncidentStatus `json:"status"`
	ReporterID  uuid.UUID      `json:"reporter_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewIncident - данные сообщения об инциденте от пользователя
type NewIncident struct {
	Type        string `json:"type" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"min=10"`
	Severity    string `json:"severity" validate:"oneof=low medium high critical"`
}

// IncidentFilter - параметры выборки списка инцидентов
type IncidentFilter struct {
	Status   IncidentStatus
	Page     int
	PageSize int
}

// IncidentSummary - инцидент с именем автора для дашборда
type IncidentSummary struct {
	ID           uuid.UUID      `json:"id"`
	Type         string         `json:"type"`
	Location     string         `json:"location"`
	Status       IncidentStatus `json:"status"`
	ReporterName string         `json:"reporter_name"`
	CreatedAt    time.Time      `json:"created_at"`
}
