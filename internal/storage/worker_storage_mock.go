package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/models"
)

// MockWorkerStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockWorkerStorage struct {
	CreateFunc  func(ctx context.Context, worker *models.Worker) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	ListFunc    func(ctx context.Context) ([]*models.Worker, error)
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *MockWorkerStorage) Create(ctx context.Context, worker *models.Worker) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, worker)
	}
	return nil
}

func (m *MockWorkerStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrWorkerNotFound
}

func (m *MockWorkerStorage) List(ctx context.Context) ([]*models.Worker, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Worker{}, nil
}

func (m *MockWorkerStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAttendanceStorage - мок для тестов.
type MockAttendanceStorage struct {
	MarkFunc     func(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error
	GetByDayFunc func(ctx context.Context, day time.Time) (map[uuid.UUID]bool, error)
}

func (m *MockAttendanceStorage) Mark(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error {
	if m.MarkFunc != nil {
		return m.MarkFunc(ctx, workerID, day, present)
	}
	return nil
}

func (m *MockAttendanceStorage) GetByDay(ctx context.Context, day time.Time) (map[uuid.UUID]bool, error) {
	if m.GetByDayFunc != nil {
		return m.GetByDayFunc(ctx, day)
	}
	return map[uuid.UUID]bool{}, nil
}
