package services

import (
	"context"
	"log"
	"time"
)

// RefreshFunc перезагружает одно хранилище.
type RefreshFunc func(ctx context.Context) error

// Refresher периодически перезагружает предложения и расписание с сервера.
type Refresher struct {
	targets  map[string]RefreshFunc
	order    []string
	interval time.Duration
	logger   *log.Logger
}

// NewRefresher создаёт воркер обновления. interval 0 означает однократную загрузку при старте.
func NewRefresher(interval time.Duration, logger *log.Logger) *Refresher {
	if interval < 0 {
		interval = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{
		targets:  make(map[string]RefreshFunc),
		interval: interval,
		logger:   logger,
	}
}

// Add регистрирует хранилище под именем для журнала.
func (r *Refresher) Add(name string, fn RefreshFunc) *Refresher {
	if _, ok := r.targets[name]; !ok {
		r.order = append(r.order, name)
	}
	r.targets[name] = fn
	return r
}

// Start запускает воркер в отдельной горутине и останавливается по ctx.Done().
// Возвращаемый канал закрывается после остановки.
func (r *Refresher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.refreshAll(ctx)
		if r.interval == 0 {
			return
		}

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refreshAll(ctx)
			}
		}
	}()
	return done
}

func (r *Refresher) refreshAll(ctx context.Context) {
	for _, name := range r.order {
		if ctx.Err() != nil {
			return
		}
		if err := r.targets[name](ctx); err != nil {
			r.logger.Printf("refresh %s error: %v", name, err)
		}
	}
}
