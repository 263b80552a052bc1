package mqtt_test

import (
	"errors"
	"testing"

	"github.com/benmeehan/trailprint/internal/mocks"
	"github.com/benmeehan/trailprint/pkg/mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMqttService_PublishPoint_Success tests publishing on the per-device topic.
func TestMqttService_PublishPoint_Success(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	payload := []byte(`{"device_id":"phone-1"}`)

	mockClient.On("Publish", "trailprint/points/phone-1", byte(1), false, payload).Return(mockToken)
	mockToken.On("WaitTimeout", mock.Anything).Return(true)
	mockToken.On("Error").Return(nil)

	s := mqtt.NewMqttServiceWithClient(mockClient, "trailprint/points", 1)

	// Execute
	err := s.PublishPoint("phone-1", payload)

	// Assert
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
	mockToken.AssertExpectations(t)
}

// TestMqttService_PublishPoint_Timeout tests that a broker that never acknowledges is reported.
func TestMqttService_PublishPoint_Timeout(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)

	mockClient.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mockToken)
	mockToken.On("WaitTimeout", mock.Anything).Return(false)

	s := mqtt.NewMqttServiceWithClient(mockClient, "points", 0)
	err := s.PublishPoint("phone-1", []byte("{}"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

// TestMqttService_PublishPoint_Error tests that token errors are wrapped.
func TestMqttService_PublishPoint_Error(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	boom := errors.New("not connected")

	mockClient.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mockToken)
	mockToken.On("WaitTimeout", mock.Anything).Return(true)
	mockToken.On("Error").Return(boom)

	s := mqtt.NewMqttServiceWithClient(mockClient, "points", 0)
	err := s.PublishPoint("phone-1", []byte("{}"))

	assert.ErrorIs(t, err, boom)
}

func TestMqttService_Disconnect(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	mockClient.On("Disconnect", uint(250)).Return()

	mqtt.NewMqttServiceWithClient(mockClient, "points", 0).Disconnect(250)

	mockClient.AssertExpectations(t)
}
