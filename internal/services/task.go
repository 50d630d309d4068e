package services

import "context"

// Task - асинхронная операция хранилища с каналом завершения.
type Task struct {
	done chan struct{}
	err  error
}

func runTask(ctx context.Context, fn func(ctx context.Context) error) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn(ctx)
	}()
	return t
}

// Done закрывается, когда операция завершена.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err возвращает результат завершённой операции и nil, пока она выполняется.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait ждёт завершения операции или отмены ctx.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
