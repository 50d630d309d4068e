package services

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/isra2/desasolve/internal/api"
)

var ErrStoreClosed = errors.New("store closed")

// OperationError - неудачная операция хранилища с сообщением для интерфейса.
type OperationError struct {
	Op      string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// newOperationError превращает ошибку шлюза в сообщение для пользователя.
func newOperationError(op string, err error) *OperationError {
	var (
		statusErr *api.StatusError
		msg       string
	)
	switch {
	case errors.As(err, &statusErr):
		msg = fmt.Sprintf("failed to %s: %d", op, statusErr.StatusCode)
	case errors.Is(err, ErrInvalidQuoteDraft), errors.Is(err, ErrInvalidService), errors.Is(err, api.ErrInvalidID):
		msg = err.Error()
	default:
		msg = "connection error: " + err.Error()
	}
	return &OperationError{Op: op, Message: msg, Err: err}
}

// isTransportError - сбой сети или разбора ответа, а не отказ сервера.
func isTransportError(err error) bool {
	var statusErr *api.StatusError
	return !errors.As(err, &statusErr)
}

// Snapshot - согласованное состояние списка: элементы, загрузка и ошибка.
type Snapshot[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// listState хранит список, счётчик операций в полёте и последнюю ошибку.
// Список всегда заменяется целиком. Уведомления отправляются под той же
// блокировкой, что и изменение, поэтому наблюдатель не увидит эффект раньше
// завершения операции.
type listState[T any] struct {
	mu      sync.Mutex
	items   []T
	pending int
	errMsg  string
	closed  bool
	subs    map[int]chan Snapshot[T]
	nextSub int
}

func newListState[T any]() *listState[T] {
	return &listState[T]{
		items: []T{},
		subs:  make(map[int]chan Snapshot[T]),
	}
}

// begin отмечает начало операции: загрузка включена, ошибка сброшена.
func (s *listState[T]) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending++
	s.errMsg = ""
	s.notifyLocked()
	return true
}

// succeed завершает операцию и применяет apply к текущему списку.
func (s *listState[T]) succeed(apply func(items []T) []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending--
	if apply != nil {
		s.items = apply(s.items)
	}
	s.notifyLocked()
}

// fail завершает операцию с ошибкой. replace != nil заменяет список.
func (s *listState[T]) fail(msg string, replace []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending--
	s.errMsg = msg
	if replace != nil {
		s.items = replace
	}
	s.notifyLocked()
}

func (s *listState[T]) snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *listState[T]) list() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *listState[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Items:   slices.Clone(s.items),
		Loading: s.pending > 0,
		Err:     s.errMsg,
	}
}

// notifyLocked отправляет снимок всем подписчикам. Буфер канала - один
// снимок, устаревший вытесняется, поэтому отправка не блокируется.
func (s *listState[T]) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *listState[T]) subscribe() (<-chan Snapshot[T], func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot[T], 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// close закрывает подписки. Поздние завершения операций игнорируются.
func (s *listState[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pending = 0
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
