package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockLifecycle struct {
	mock.Mock
}

func (m *mockLifecycle) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockLifecycle) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
