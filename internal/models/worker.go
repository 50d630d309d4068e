package models

import (
	"time"

	"github.com/google/uuid"
)

// Worker представляет сотрудника бригады.
type Worker struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// AttendanceEntry - отметка присутствия сотрудника за день.
type AttendanceEntry struct {
	Worker  Worker
	Day     time.Time
	Present bool
}

// WorkerRequest DTO для добавления сотрудника.
type WorkerRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// WorkerResponse DTO сотрудника.
type WorkerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AttendanceRequest DTO для отметки присутствия.
type AttendanceRequest struct {
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

// AttendanceResponse DTO списка присутствия за день.
type AttendanceResponse struct {
	Date    string                   `json:"date"`
	Present int                      `json:"present"`
	Total   int                      `json:"total"`
	Entries []AttendanceEntryPayload `json:"entries"`
}

type AttendanceEntryPayload struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Present  bool   `json:"present"`
}
