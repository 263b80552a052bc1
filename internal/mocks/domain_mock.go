package mocks

import (
	"context"
	"image"

	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockPusher is a mock implementation of the traccar Pusher interface
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, deviceID string, p location.Point) (int, error) {
	args := m.Called(ctx, deviceID, p)
	return args.Int(0), args.Error(1)
}

func (m *MockPusher) PushAll(ctx context.Context, ev location.Event) (int, error) {
	args := m.Called(ctx, ev)
	return args.Int(0), args.Error(1)
}

// MockPhotoSource is a mock implementation of the photos Source interface
type MockPhotoSource struct {
	mock.Mock
}

func (m *MockPhotoSource) RandomPhoto(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoSource) Resolve(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// MockRenderer is a mock implementation of the maprender Renderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, ev location.Event, width, height int) (image.Image, error) {
	args := m.Called(ctx, ev, width, height)
	if img, ok := args.Get(0).(image.Image); ok {
		return img, args.Error(1)
	}
	return nil, args.Error(1)
}
