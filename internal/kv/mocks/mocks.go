package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Store is a mock for kv.Store. It deliberately does not implement
// kv.Batcher, so callers exercise their Set-then-Remove path.
type Store struct {
	mock.Mock
}

func (m *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	args := m.Called(ctx, keys)
	if items, ok := args.Get(0).(map[string][]byte); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Set(ctx context.Context, items map[string][]byte) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *Store) Remove(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// BatchStore is a mock for a store that also implements kv.Batcher.
type BatchStore struct {
	Store
}

func (m *BatchStore) Apply(ctx context.Context, set map[string][]byte, remove []string) error {
	args := m.Called(ctx, set, remove)
	return args.Error(0)
}
