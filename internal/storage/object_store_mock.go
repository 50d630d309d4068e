package storage

import (
	"context"
	"fmt"
	"time"
)

// MockObjectStore - мок для тестов.
type MockObjectStore struct {
	PutFunc        func(ctx context.Context, key, contentType string, body []byte) error
	ExistsFunc     func(ctx context.Context, key string) (bool, error)
	PresignGetFunc func(ctx context.Context, key string, expires time.Duration) (string, error)
}

func (m *MockObjectStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, contentType, body)
	}
	return nil
}

func (m *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, key)
	}
	return false, nil
}

func (m *MockObjectStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.PresignGetFunc != nil {
		return m.PresignGetFunc(ctx, key, expires)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}
