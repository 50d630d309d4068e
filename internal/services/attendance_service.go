package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/models"
	"github.com/isra2/desasolve/internal/storage"
)

var (
	ErrInvalidWorkerName = errors.New("worker name is required")
	ErrWorkerExists      = errors.New("worker already exists")
	ErrWorkerNotFound    = errors.New("worker not found")
)

// AttendanceService определяет операции со списком бригады и присутствием.
type AttendanceService interface {
	ListWorkers(ctx context.Context) ([]*models.Worker, error)
	AddWorker(ctx context.Context, name, role string) (*models.Worker, error)
	RemoveWorker(ctx context.Context, id uuid.UUID) error
	MarkAttendance(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error
	DailyAttendance(ctx context.Context, day time.Time) ([]models.AttendanceEntry, error)
	PresentCount(ctx context.Context, day time.Time) (int, error)
}

// AttendanceServiceImpl реализует AttendanceService.
type AttendanceServiceImpl struct {
	workers    storage.WorkerStorage
	attendance storage.AttendanceStorage
}

// NewAttendanceService создаёт новый экземпляр AttendanceService.
func NewAttendanceService(workers storage.WorkerStorage, attendance storage.AttendanceStorage) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		workers:    workers,
		attendance: attendance,
	}
}

func (s *AttendanceServiceImpl) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	workers, err := s.workers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

// AddWorker добавляет сотрудника. Имя обрезается и должно быть уникальным.
func (s *AttendanceServiceImpl) AddWorker(ctx context.Context, name, role string) (*models.Worker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidWorkerName
	}

	worker := &models.Worker{
		ID:   uuid.New(),
		Name: name,
		Role: strings.TrimSpace(role),
	}
	if err := s.workers.Create(ctx, worker); err != nil {
		if errors.Is(err, storage.ErrWorkerAlreadyExists) {
			return nil, ErrWorkerExists
		}
		return nil, fmt.Errorf("failed to add worker: %w", err)
	}
	return worker, nil
}

// RemoveWorker удаляет сотрудника вместе с его отметками.
func (s *AttendanceServiceImpl) RemoveWorker(ctx context.Context, id uuid.UUID) error {
	if err := s.workers.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrWorkerNotFound) {
			return ErrWorkerNotFound
		}
		return fmt.Errorf("failed to remove worker: %w", err)
	}
	return nil
}

// MarkAttendance отмечает присутствие за день.
func (s *AttendanceServiceImpl) MarkAttendance(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error {
	if err := s.attendance.Mark(ctx, workerID, models.DateOf(day), present); err != nil {
		if errors.Is(err, storage.ErrWorkerNotFound) {
			return ErrWorkerNotFound
		}
		return fmt.Errorf("failed to mark attendance: %w", err)
	}
	return nil
}

// DailyAttendance возвращает всех сотрудников с отметкой за день.
// Сотрудник без отметки считается отсутствующим.
func (s *AttendanceServiceImpl) DailyAttendance(ctx context.Context, day time.Time) ([]models.AttendanceEntry, error) {
	day = models.DateOf(day)

	workers, err := s.workers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	marks, err := s.attendance.GetByDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	entries := make([]models.AttendanceEntry, 0, len(workers))
	for _, w := range workers {
		entries = append(entries, models.AttendanceEntry{
			Worker:  *w,
			Day:     day,
			Present: marks[w.ID],
		})
	}
	return entries, nil
}

// PresentCount считает присутствующих за день.
func (s *AttendanceServiceImpl) PresentCount(ctx context.Context, day time.Time) (int, error) {
	entries, err := s.DailyAttendance(ctx, day)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.Present {
			count++
		}
	}
	return count, nil
}
