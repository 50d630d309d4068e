package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/isra2/desasolve/internal/api"
	"github.com/isra2/desasolve/internal/models"
)

var ErrInvalidService = errors.New("invalid service")

// ServiceSnapshot - состояние расписания для наблюдателей.
type ServiceSnapshot = Snapshot[models.Service]

// ServiceFilter - фильтр экрана расписания.
// Статусы, связанные с предложениями, показываются всегда.
type ServiceFilter struct {
	Type           *models.ServiceType
	Date           *time.Time
	ShowCompleted  bool
	ShowPending    bool
	ShowInProgress bool
	ShowScheduled  bool
}

// DefaultServiceFilter показывает все статусы без ограничения по типу и дате.
func DefaultServiceFilter() ServiceFilter {
	return ServiceFilter{
		ShowCompleted:  true,
		ShowPending:    true,
		ShowInProgress: true,
		ShowScheduled:  true,
	}
}

// Match проверяет выезд по фильтру.
func (f ServiceFilter) Match(s models.Service) bool {
	if f.Type != nil && s.Type != *f.Type {
		return false
	}
	if f.Date != nil && !models.SameDay(s.Date, *f.Date) {
		return false
	}
	switch s.Status {
	case models.ServiceStatusCompleted:
		return f.ShowCompleted
	case models.ServiceStatusPending:
		return f.ShowPending
	case models.ServiceStatusInProgress:
		return f.ShowInProgress
	case models.ServiceStatusScheduled:
		return f.ShowScheduled
	default:
		return true
	}
}

// ScheduleService определяет операции с расписанием выездов.
type ScheduleService interface {
	LoadServices(ctx context.Context) error
	CreateService(ctx context.Context, service models.Service) (*models.Service, error)
	UpdateService(ctx context.Context, id string, service models.Service) (*models.Service, error)
	Filter(f ServiceFilter) []models.Service
	Snapshot() ServiceSnapshot
}

// ScheduleStore владеет расписанием выездов за сессию.
type ScheduleStore struct {
	gateway api.ServiceGateway
	logger  *log.Logger
	state   *listState[models.Service]

	ctx    context.Context
	cancel context.CancelFunc
}

var _ ScheduleService = (*ScheduleStore)(nil)

// NewScheduleStore создаёт хранилище расписания поверх шлюза.
func NewScheduleStore(gateway api.ServiceGateway, logger *log.Logger) *ScheduleStore {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ScheduleStore{
		gateway: gateway,
		logger:  logger,
		state:   newListState[models.Service](),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// LoadServices заменяет расписание ответом сервера.
func (s *ScheduleStore) LoadServices(ctx context.Context) error {
	const op = "load services"
	if !s.state.begin() {
		return ErrStoreClosed
	}

	services, err := s.gateway.ListServices(ctx)
	if err != nil {
		opErr := newOperationError(op, err)
		s.logger.Printf("%s failed: %v", op, err)
		s.state.fail(opErr.Message, nil)
		return opErr
	}

	s.state.succeed(func([]models.Service) []models.Service {
		return services
	})
	return nil
}

// CreateService создаёт выезд и добавляет ответ сервера в конец расписания.
func (s *ScheduleStore) CreateService(ctx context.Context, service models.Service) (*models.Service, error) {
	create := func(ctx context.Context, svc models.Service) (*models.Service, error) {
		return s.gateway.CreateService(ctx, svc)
	}
	return s.save(ctx, "create service", service, false, create)
}

// UpdateService обновляет выезд и заменяет его в расписании.
// Пустой id - ошибка проверки, запрос не отправляется.
func (s *ScheduleStore) UpdateService(ctx context.Context, id string, service models.Service) (*models.Service, error) {
	service.ID = id
	update := func(ctx context.Context, svc models.Service) (*models.Service, error) {
		return s.gateway.UpdateService(ctx, id, svc)
	}
	return s.save(ctx, "update service", service, true, update)
}

func (s *ScheduleStore) save(
	ctx context.Context,
	op string,
	service models.Service,
	update bool,
	call func(context.Context, models.Service) (*models.Service, error),
) (*models.Service, error) {
	if !s.state.begin() {
		return nil, ErrStoreClosed
	}

	err := validateService(service)
	if err == nil && update && strings.TrimSpace(service.ID) == "" {
		err = fmt.Errorf("%w: service id is required", ErrInvalidService)
	}
	if err != nil {
		opErr := newOperationError(op, err)
		s.state.fail(opErr.Message, nil)
		return nil, opErr
	}

	saved, err := call(ctx, service)
	if err != nil {
		opErr := newOperationError(op, err)
		s.logger.Printf("%s failed: %v", op, err)
		s.state.fail(opErr.Message, nil)
		return nil, opErr
	}

	if saved == nil {
		if !update {
			s.state.succeed(nil)
			return nil, nil
		}
		// 2xx без тела: сохраняем отправленную версию.
		saved = &service
	}

	result := *saved
	s.state.succeed(func(items []models.Service) []models.Service {
		return upsertService(items, result)
	})
	return &result, nil
}

// Services возвращает копию расписания.
func (s *ScheduleStore) Services() []models.Service {
	return s.state.list()
}

// Filter возвращает выезды, подходящие под фильтр, в исходном порядке.
func (s *ScheduleStore) Filter(f ServiceFilter) []models.Service {
	services := s.state.list()
	filtered := make([]models.Service, 0, len(services))
	for _, svc := range services {
		if f.Match(svc) {
			filtered = append(filtered, svc)
		}
	}
	return filtered
}

// ServicesOn возвращает все выезды на дату.
func (s *ScheduleStore) ServicesOn(day time.Time) []models.Service {
	f := DefaultServiceFilter()
	f.Date = &day
	return s.Filter(f)
}

func (s *ScheduleStore) Loading() bool {
	return s.state.snapshot().Loading
}

func (s *ScheduleStore) ErrorMessage() string {
	return s.state.snapshot().Err
}

func (s *ScheduleStore) Snapshot() ServiceSnapshot {
	return s.state.snapshot()
}

func (s *ScheduleStore) Subscribe() (<-chan ServiceSnapshot, func()) {
	return s.state.subscribe()
}

func (s *ScheduleStore) LoadServicesAsync() *Task {
	return runTask(s.ctx, s.LoadServices)
}

func (s *ScheduleStore) CreateServiceAsync(service models.Service) *Task {
	return runTask(s.ctx, func(ctx context.Context) error {
		_, err := s.CreateService(ctx, service)
		return err
	})
}

func (s *ScheduleStore) UpdateServiceAsync(id string, service models.Service) *Task {
	return runTask(s.ctx, func(ctx context.Context) error {
		_, err := s.UpdateService(ctx, id, service)
		return err
	})
}

// Close отменяет фоновые операции и закрывает подписки.
func (s *ScheduleStore) Close() {
	s.cancel()
	s.state.close()
}

func validateService(s models.Service) error {
	if strings.TrimSpace(s.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidService)
	}
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidService)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidService)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidService, s.Type)
	}
	if _, err := models.ParseServiceStatus(string(s.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidService, err)
	}
	return nil
}

func upsertService(items []models.Service, svc models.Service) []models.Service {
	next := make([]models.Service, 0, len(items)+1)
	replaced := false
	for _, item := range items {
		if item.ID == svc.ID {
			next = append(next, svc)
			replaced = true
			continue
		}
		next = append(next, item)
	}
	if !replaced {
		next = append(next, svc)
	}
	return next
}
