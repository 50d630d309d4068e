package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrWorkerAlreadyExists = errors.New("worker already exists")
)

// WorkerStorage определяет интерфейс для работы с сотрудниками.
type WorkerStorage interface {
	Create(ctx context.Context, worker *models.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	List(ctx context.Context) ([]*models.Worker, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresWorkerStorage реализует WorkerStorage для PostgreSQL.
type PostgresWorkerStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresWorkerStorage создаёт новый экземпляр PostgresWorkerStorage.
func NewPostgresWorkerStorage(pool *pgxpool.Pool) *PostgresWorkerStorage {
	return &PostgresWorkerStorage{pool: pool}
}

// Create добавляет сотрудника. Имя уникально.
func (s *PostgresWorkerStorage) Create(ctx context.Context, worker *models.Worker) error {
	query := `
		INSERT INTO workers (id, name, role, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	if worker.ID == uuid.Nil {
		worker.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query, worker.ID, worker.Name, worker.Role).Scan(&worker.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrWorkerAlreadyExists
		}
		return fmt.Errorf("failed to create worker: %w", err)
	}

	return nil
}

// GetByID ищет сотрудника по ID.
func (s *PostgresWorkerStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	query := `
		SELECT id, name, role, created_at
		FROM workers
		WHERE id = $1
	`

	worker, err := scanWorker(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("failed to get worker by id: %w", err)
	}
	return worker, nil
}

// List возвращает сотрудников по порядку добавления.
func (s *PostgresWorkerStorage) List(ctx context.Context) ([]*models.Worker, error) {
	query := `
		SELECT id, name, role, created_at
		FROM workers
		ORDER BY created_at ASC, name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*models.Worker
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return workers, nil
}

// Delete удаляет сотрудника. Отметки присутствия удаляются каскадно.
func (s *PostgresWorkerStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM workers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete worker: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}

	return nil
}

func scanWorker(row pgx.Row) (*models.Worker, error) {
	worker := &models.Worker{}
	if err := row.Scan(&worker.ID, &worker.Name, &worker.Role, &worker.CreatedAt); err != nil {
		return nil, err
	}
	return worker, nil
}
