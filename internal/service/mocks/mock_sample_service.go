package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"appcontext/internal/model"
	"appcontext/internal/service"
)

type MockSampleService struct {
	mock.Mock
}

func (m *MockSampleService) Create(ctx context.Context, in service.SampleInput) (*model.Sample, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sample), args.Error(1)
}

func (m *MockSampleService) Get(ctx context.Context, id string) (*model.Sample, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sample), args.Error(1)
}

func (m *MockSampleService) List(ctx context.Context) ([]model.Sample, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Sample), args.Error(1)
}

func (m *MockSampleService) Search(ctx context.Context, q service.SampleQuery) ([]model.Sample, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Sample), args.Error(1)
}

func (m *MockSampleService) Update(ctx context.Context, id string, in service.SampleInput) (*model.Sample, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sample), args.Error(1)
}

func (m *MockSampleService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSampleService) Export(ctx context.Context) (*service.ExportResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}
