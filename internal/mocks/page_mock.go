package mocks

import (
	"context"

	"github.com/benmeehan/trailprint/internal/services"
	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockPageGenerator is a mock implementation of the PageGenerator interface
type MockPageGenerator struct {
	mock.Mock
}

func (m *MockPageGenerator) Generate(ctx context.Context, ev location.Event) (*services.Document, error) {
	args := m.Called(ctx, ev)
	if doc, ok := args.Get(0).(*services.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}
