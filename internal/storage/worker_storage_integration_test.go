//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isra2/desasolve/internal/migrations"
	"github.com/isra2/desasolve/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDBPool(t *testing.T) *pgxpool.Pool {
	dbURI := os.Getenv("DATABASE_URI")
	if dbURI == "" {
		t.Skip("DATABASE_URI not set, skipping integration tests")
	}

	sqlDB, err := sql.Open("pgx", dbURI)
	if err != nil {
		t.Fatalf("Unable to open database: %v", err)
	}
	defer sqlDB.Close()
	if err := migrations.Run(sqlDB); err != nil {
		t.Fatalf("Unable to run migrations: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dbURI)
	if err != nil {
		t.Fatalf("Unable to connect to database: %v", err)
	}

	return pool
}

func TestPostgresWorkerStorage_Create(t *testing.T) {
	pool := getTestDBPool(t)
	defer pool.Close()

	storage := NewPostgresWorkerStorage(pool)
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		worker := &models.Worker{
			Name: "Juan " + uuid.New().String(),
			Role: "técnico",
		}

		if err := storage.Create(ctx, worker); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if worker.ID == uuid.Nil {
			t.Fatal("expected generated ID")
		}

		retrieved, err := storage.GetByID(ctx, worker.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if retrieved.Name != worker.Name {
			t.Errorf("Name mismatch: got %v, want %v", retrieved.Name, worker.Name)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		name := "Pedro " + uuid.New().String()

		if err := storage.Create(ctx, &models.Worker{Name: name}); err != nil {
			t.Fatalf("First Create() error = %v", err)
		}

		err := storage.Create(ctx, &models.Worker{Name: name})
		if !errors.Is(err, ErrWorkerAlreadyExists) {
			t.Errorf("Expected ErrWorkerAlreadyExists, got %v", err)
		}
	})
}

func TestPostgresWorkerStorage_Delete(t *testing.T) {
	pool := getTestDBPool(t)
	defer pool.Close()

	workers := NewPostgresWorkerStorage(pool)
	attendance := NewPostgresAttendanceStorage(pool)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	worker := &models.Worker{Name: "Luis " + uuid.New().String()}
	if err := workers.Create(ctx, worker); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := attendance.Mark(ctx, worker.ID, day, true); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	if err := workers.Delete(ctx, worker.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	marks, err := attendance.GetByDay(ctx, day)
	if err != nil {
		t.Fatalf("GetByDay() error = %v", err)
	}
	if _, ok := marks[worker.ID]; ok {
		t.Error("attendance mark should be removed with the worker")
	}

	if err := workers.Delete(ctx, worker.ID); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("Expected ErrWorkerNotFound, got %v", err)
	}
}

func TestPostgresAttendanceStorage_Mark(t *testing.T) {
	pool := getTestDBPool(t)
	defer pool.Close()

	workers := NewPostgresWorkerStorage(pool)
	attendance := NewPostgresAttendanceStorage(pool)
	ctx := context.Background()
	day := time.Date(2024, 3, 16, 9, 30, 0, 0, time.UTC)

	worker := &models.Worker{Name: "Ana " + uuid.New().String()}
	if err := workers.Create(ctx, worker); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer workers.Delete(ctx, worker.ID)

	t.Run("upsert overwrites", func(t *testing.T) {
		if err := attendance.Mark(ctx, worker.ID, day, true); err != nil {
			t.Fatalf("Mark() error = %v", err)
		}
		if err := attendance.Mark(ctx, worker.ID, day, false); err != nil {
			t.Fatalf("Mark() error = %v", err)
		}

		marks, err := attendance.GetByDay(ctx, day)
		if err != nil {
			t.Fatalf("GetByDay() error = %v", err)
		}
		present, ok := marks[worker.ID]
		if !ok || present {
			t.Errorf("mark = %v (found %v), want false", present, ok)
		}
	})

	t.Run("unknown worker", func(t *testing.T) {
		err := attendance.Mark(ctx, uuid.New(), day, true)
		if !errors.Is(err, ErrWorkerNotFound) {
			t.Errorf("Expected ErrWorkerNotFound, got %v", err)
		}
	})
}
