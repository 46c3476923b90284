package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"appcontext/internal/model"
	"appcontext/internal/repository"
)

type MockRepository[T model.Entity] struct {
	mock.Mock
}

var _ repository.Repository[model.Sample] = (*MockRepository[model.Sample])(nil)

func (m *MockRepository[T]) Filter(ctx context.Context, filter any) ([]T, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) Insert(ctx context.Context, item *T) (bool, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, id uuid.UUID, item *T) (bool, error) {
	args := m.Called(ctx, id, item)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository[T]) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
