package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockJobSubmitter is a mock implementation of the printer JobSubmitter interface
type MockJobSubmitter struct {
	mock.Mock
}

func (m *MockJobSubmitter) PrintFile(filePath, printer string, jobAttributes map[string]interface{}) (int, error) {
	args := m.Called(filePath, printer, jobAttributes)
	return args.Int(0), args.Error(1)
}

// MockPrinter is a mock implementation of the Printer interface
type MockPrinter struct {
	mock.Mock
}

func (m *MockPrinter) Print(ctx context.Context, doc []byte) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
