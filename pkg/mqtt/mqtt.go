package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/benmeehan/trailprint/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a mirrored point may wait for the broker.
const publishTimeout = 5 * time.Second

// MQTTClient defines the subset of the paho client used here.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MqttService mirrors pushed points to an MQTT broker, one topic per device.
type MqttService struct {
	client     MQTTClient
	fileClient file.FileOperations
	topic      string
	qos        byte
}

// NewMqttService creates a new MqttService publishing under topic.
func NewMqttService(fileClient file.FileOperations, topic string, qos int) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		topic:      topic,
		qos:        byte(qos),
	}
}

// NewMqttServiceWithClient creates a MqttService around an already connected client.
func NewMqttServiceWithClient(client MQTTClient, topic string, qos int) *MqttService {
	return &MqttService{
		client: client,
		topic:  topic,
		qos:    byte(qos),
	}
}

// Initialize sets up the MQTT client, with TLS when caCertPath is set, and connects.
func (s *MqttService) Initialize(broker, clientID, caCertPath string) error {
	// Set up the MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	if caCertPath != "" {
		caCert, err := s.fileClient.ReadFileRaw(caCertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %v", err)
		}

		// Create a CA certificate pool and append the CA certificate to it
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return fmt.Errorf("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool})
	}

	// Create and assign the MQTT client to the service
	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

// PublishPoint publishes a point payload on <topic>/<deviceID>.
func (s *MqttService) PublishPoint(deviceID string, payload []byte) error {
	topic := s.topic + "/" + deviceID

	token := s.client.Publish(topic, s.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	if s.client != nil {
		s.client.Disconnect(quiesce)
	}
}
