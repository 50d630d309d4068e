package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttendanceStorage определяет интерфейс для отметок присутствия.
type AttendanceStorage interface {
	Mark(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error
	GetByDay(ctx context.Context, day time.Time) (map[uuid.UUID]bool, error)
}

// PostgresAttendanceStorage реализует AttendanceStorage для PostgreSQL.
type PostgresAttendanceStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresAttendanceStorage создаёт новый экземпляр PostgresAttendanceStorage.
func NewPostgresAttendanceStorage(pool *pgxpool.Pool) *PostgresAttendanceStorage {
	return &PostgresAttendanceStorage{pool: pool}
}

// Mark сохраняет отметку за день, повторная отметка перезаписывает прежнюю.
func (s *PostgresAttendanceStorage) Mark(ctx context.Context, workerID uuid.UUID, day time.Time, present bool) error {
	query := `
		INSERT INTO attendance (worker_id, day, present, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (worker_id, day)
		DO UPDATE SET present = EXCLUDED.present, updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query, workerID, models.DateOf(day), present)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrWorkerNotFound
		}
		return fmt.Errorf("failed to mark attendance: %w", err)
	}

	return nil
}

// GetByDay возвращает отметки за день по ID сотрудника.
func (s *PostgresAttendanceStorage) GetByDay(ctx context.Context, day time.Time) (map[uuid.UUID]bool, error) {
	query := `
		SELECT worker_id, present
		FROM attendance
		WHERE day = $1
	`

	rows, err := s.pool.Query(ctx, query, models.DateOf(day))
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	defer rows.Close()

	marks := make(map[uuid.UUID]bool)
	for rows.Next() {
		var (
			workerID uuid.UUID
			present  bool
		)
		if err := rows.Scan(&workerID, &present); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		marks[workerID] = present
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return marks, nil
}
