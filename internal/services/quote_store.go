package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/isra2/desasolve/internal/api"
	"github.com/isra2/desasolve/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrQuoteBusy         = errors.New("quote operation already in progress")
	ErrInvalidQuoteDraft = errors.New("invalid quote")
)

// QuoteSnapshot - состояние списка предложений для наблюдателей.
type QuoteSnapshot = Snapshot[models.Quote]

// QuoteService определяет операции с предложениями за сессию.
type QuoteService interface {
	LoadQuotes(ctx context.Context) error
	AcceptQuote(ctx context.Context, quoteID string) error
	RejectQuote(ctx context.Context, quoteID string) error
	CreateQuote(ctx context.Context, draft QuoteDraft) (*models.Quote, error)
	Snapshot() QuoteSnapshot
	Subscribe() (<-chan QuoteSnapshot, func())
}

// QuoteDraft - данные нового предложения, введённые в офисе.
type QuoteDraft struct {
	ClientName      string
	ClientAddress   string
	ClientPhone     string
	Description     string
	ServiceType     models.ServiceType
	LaborCost       decimal.Decimal
	Materials       []models.Material
	AdditionalCosts []models.AdditionalCost
	ValidUntil      time.Time
}

// Validate проверяет черновик до отправки на сервер.
func (d QuoteDraft) Validate() error {
	if !d.ServiceType.Valid() {
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidQuoteDraft, d.ServiceType)
	}
	if d.LaborCost.IsNegative() {
		return fmt.Errorf("%w: labor cost must not be negative", ErrInvalidQuoteDraft)
	}
	for i, m := range d.Materials {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: material %d has no name", ErrInvalidQuoteDraft, i+1)
		}
		if m.Quantity <= 0 {
			return fmt.Errorf("%w: material %q quantity must be positive", ErrInvalidQuoteDraft, m.Name)
		}
		if m.UnitPrice.IsNegative() || m.Total.IsNegative() {
			return fmt.Errorf("%w: material %q price must not be negative", ErrInvalidQuoteDraft, m.Name)
		}
	}
	for _, c := range d.AdditionalCosts {
		if c.Amount.IsNegative() {
			return fmt.Errorf("%w: cost %q must not be negative", ErrInvalidQuoteDraft, c.Description)
		}
	}
	if d.ValidUntil.IsZero() {
		return fmt.Errorf("%w: valid until date is required", ErrInvalidQuoteDraft)
	}
	return nil
}

// Amount считает итог предложения по детализации.
func (d QuoteDraft) Amount() decimal.Decimal {
	return models.QuoteTotal(d.LaborCost, d.Materials, d.AdditionalCosts)
}

// Quote строит черновик предложения: без id и serviceId, в статусе PENDING.
func (d QuoteDraft) Quote(now time.Time) models.Quote {
	labor := d.LaborCost
	q := models.Quote{
		Amount:        d.Amount(),
		Description:   d.Description,
		Status:        models.QuoteStatusPending,
		CreatedAt:     now,
		ValidUntil:    models.DateOf(d.ValidUntil),
		ClientName:    optionalString(d.ClientName),
		ClientAddress: optionalString(d.ClientAddress),
		ClientPhone:   optionalString(d.ClientPhone),
		LaborCost:     &labor,
	}
	if len(d.Materials) > 0 {
		q.Materials = d.Materials
	}
	if len(d.AdditionalCosts) > 0 {
		q.AdditionalCosts = d.AdditionalCosts
	}
	return q
}

// QuoteStoreOption настраивает QuoteStore.
type QuoteStoreOption func(*QuoteStore)

// WithFallback задаёт источник запасных данных на случай сбоя сети.
// Предназначено только для разработки.
func WithFallback(p FallbackProvider) QuoteStoreOption {
	return func(s *QuoteStore) {
		s.fallback = p
	}
}

// WithClock подменяет часы для CreatedAt.
func WithClock(now func() time.Time) QuoteStoreOption {
	return func(s *QuoteStore) {
		s.now = now
	}
}

// QuoteStore владеет списком предложений за сессию и синхронизирует его с сервером.
type QuoteStore struct {
	gateway  api.QuoteGateway
	fallback FallbackProvider
	logger   *log.Logger
	now      func() time.Time

	state *listState[models.Quote]

	busyMu sync.Mutex
	busy   map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

var _ QuoteService = (*QuoteStore)(nil)

// NewQuoteStore создаёт хранилище поверх шлюза.
func NewQuoteStore(gateway api.QuoteGateway, logger *log.Logger, opts ...QuoteStoreOption) *QuoteStore {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &QuoteStore{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
		state:   newListState[models.Quote](),
		busy:    make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadQuotes заменяет список целиком ответом сервера.
// При ошибке список остаётся прежним.
func (s *QuoteStore) LoadQuotes(ctx context.Context) error {
	const op = "load quotes"
	if !s.state.begin() {
		return ErrStoreClosed
	}

	quotes, err := s.gateway.ListQuotes(ctx)
	if err != nil {
		opErr := newOperationError(op, err)
		var replace []models.Quote
		if s.fallback != nil && isTransportError(err) {
			replace = s.fallback.FallbackQuotes(s.now())
			s.logger.Printf("%s failed, using %d fallback quotes: %v", op, len(replace), err)
		} else {
			s.logger.Printf("%s failed: %v", op, err)
		}
		s.state.fail(opErr.Message, replace)
		return opErr
	}

	s.checkAmounts(quotes...)
	s.state.succeed(func([]models.Quote) []models.Quote {
		return quotes
	})
	return nil
}

// AcceptQuote переводит предложение в ACCEPTED после подтверждения сервера.
func (s *QuoteStore) AcceptQuote(ctx context.Context, quoteID string) error {
	return s.transition(ctx, "accept quote", quoteID, models.QuoteStatusAccepted, s.gateway.AcceptQuote)
}

// RejectQuote переводит предложение в REJECTED после подтверждения сервера.
func (s *QuoteStore) RejectQuote(ctx context.Context, quoteID string) error {
	return s.transition(ctx, "reject quote", quoteID, models.QuoteStatusRejected, s.gateway.RejectQuote)
}

func (s *QuoteStore) transition(
	ctx context.Context,
	op, quoteID string,
	target models.QuoteStatus,
	call func(ctx context.Context, id string) (*models.Quote, error),
) error {
	if !s.acquire(quoteID) {
		return ErrQuoteBusy
	}
	defer s.release(quoteID)

	if !s.state.begin() {
		return ErrStoreClosed
	}

	updated, err := call(ctx, quoteID)
	if err != nil {
		opErr := newOperationError(op, err)
		s.logger.Printf("%s %s failed: %v", op, quoteID, err)
		s.state.fail(opErr.Message, nil)
		return opErr
	}

	if updated != nil {
		s.checkAmounts(*updated)
	}
	s.state.succeed(func(items []models.Quote) []models.Quote {
		next := make([]models.Quote, len(items))
		for i, q := range items {
			switch {
			case q.ID != quoteID:
				next[i] = q
			case updated != nil:
				next[i] = *updated
			default:
				// 2xx без тела: переход применяется локально.
				next[i] = q.WithStatus(target)
			}
		}
		return next
	})
	return nil
}

// CreateQuote отправляет новое предложение и добавляет ответ сервера в конец списка.
// При ошибке черновик отбрасывается.
func (s *QuoteStore) CreateQuote(ctx context.Context, draft QuoteDraft) (*models.Quote, error) {
	const op = "create quote"
	if !s.state.begin() {
		return nil, ErrStoreClosed
	}

	if err := draft.Validate(); err != nil {
		opErr := newOperationError(op, err)
		s.state.fail(opErr.Message, nil)
		return nil, opErr
	}

	created, err := s.gateway.CreateQuote(ctx, draft.Quote(s.now()))
	if err != nil {
		opErr := newOperationError(op, err)
		s.logger.Printf("%s failed: %v", op, err)
		s.state.fail(opErr.Message, nil)
		return nil, opErr
	}

	if created == nil {
		s.logger.Printf("%s: server returned no body, nothing to append", op)
		s.state.succeed(nil)
		return nil, nil
	}

	s.checkAmounts(*created)
	quote := *created
	s.state.succeed(func(items []models.Quote) []models.Quote {
		next := make([]models.Quote, 0, len(items)+1)
		next = append(next, items...)
		return append(next, quote)
	})
	return &quote, nil
}

// FilteredQuotes возвращает предложения с заданным статусом в исходном порядке.
func (s *QuoteStore) FilteredQuotes(status models.QuoteStatus) []models.Quote {
	return FilterByStatus(s.state.list(), status)
}

// FilterByStatus отбирает предложения со статусом status, не меняя порядок.
func FilterByStatus(quotes []models.Quote, status models.QuoteStatus) []models.Quote {
	filtered := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Status == status {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// Quotes возвращает копию текущего списка.
func (s *QuoteStore) Quotes() []models.Quote {
	return s.state.list()
}

// Loading сообщает, выполняется ли сейчас хотя бы одна операция.
func (s *QuoteStore) Loading() bool {
	return s.state.snapshot().Loading
}

// ErrorMessage возвращает последнюю ошибку или пустую строку.
func (s *QuoteStore) ErrorMessage() string {
	return s.state.snapshot().Err
}

func (s *QuoteStore) Snapshot() QuoteSnapshot {
	return s.state.snapshot()
}

// Subscribe возвращает канал снимков и функцию отписки.
// Первый снимок приходит сразу, медленный читатель видит только последний.
func (s *QuoteStore) Subscribe() (<-chan QuoteSnapshot, func()) {
	return s.state.subscribe()
}

// LoadQuotesAsync запускает LoadQuotes в фоне.
func (s *QuoteStore) LoadQuotesAsync() *Task {
	return runTask(s.ctx, s.LoadQuotes)
}

func (s *QuoteStore) AcceptQuoteAsync(quoteID string) *Task {
	return runTask(s.ctx, func(ctx context.Context) error {
		return s.AcceptQuote(ctx, quoteID)
	})
}

func (s *QuoteStore) RejectQuoteAsync(quoteID string) *Task {
	return runTask(s.ctx, func(ctx context.Context) error {
		return s.RejectQuote(ctx, quoteID)
	})
}

func (s *QuoteStore) CreateQuoteAsync(draft QuoteDraft) *Task {
	return runTask(s.ctx, func(ctx context.Context) error {
		_, err := s.CreateQuote(ctx, draft)
		return err
	})
}

// Close отменяет фоновые операции и закрывает подписки.
func (s *QuoteStore) Close() {
	s.cancel()
	s.state.close()
}

func (s *QuoteStore) acquire(quoteID string) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if _, ok := s.busy[quoteID]; ok {
		return false
	}
	s.busy[quoteID] = struct{}{}
	return true
}

func (s *QuoteStore) release(quoteID string) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	delete(s.busy, quoteID)
}

// checkAmounts пишет предупреждение, если сумма не сходится с детализацией.
func (s *QuoteStore) checkAmounts(quotes ...models.Quote) {
	for _, q := range quotes {
		if !q.AmountConsistent() {
			total, _ := q.BreakdownTotal()
			s.logger.Printf("quote %s amount %s does not match breakdown %s", q.ID, q.Amount, total)
		}
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
