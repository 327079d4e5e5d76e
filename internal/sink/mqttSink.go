package sink

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/wheelibin/mowd/internal/config"
)

const connectTimeout = 10 * time.Second
const publishTimeout = 5 * time.Second

// MQTTSink projects the state tree onto retained MQTT topics.
//
// A path like "abc.battery.batteryPercent" becomes the topic
// "<prefix>/abc/battery/batteryPercent". User writes arrive on the
// matching "<topic>/set" topic, which keeps them distinct from the
// daemon's own retained state publishes.
type MQTTSink struct {
	logger *log.Logger
	client mqtt.Client
	prefix string

	mu      sync.RWMutex
	ensured map[string]Shape
	values  map[string]any
	handler ExternalWriteHandler
}

func NewMQTTSink(logger *log.Logger, cfg config.MQTT) (*MQTTSink, error) {
	s := &MQTTSink{
		logger:  logger,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		ensured: map[string]Shape{},
		values:  map[string]any{},
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetOrderMatters(true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.logger.Info("Connected to MQTT broker", "broker", cfg.Broker)
		s.resubscribe()
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		s.logger.Warn("MQTT connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("error connecting to MQTT broker: %w", err)
	}

	return s, nil
}

func (s *MQTTSink) EnsurePath(path string, shape Shape) error {
	s.mu.Lock()
	if _, exists := s.ensured[path]; exists {
		s.mu.Unlock()
		return nil
	}
	s.ensured[path] = shape
	_, hasValue := s.values[path]
	s.mu.Unlock()

	if shape.Default != nil && !hasValue {
		return s.WriteValue(path, shape.Default)
	}
	return nil
}

func (s *MQTTSink) WriteValue(path string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding value for %s: %w", path, err)
	}

	token := s.client.Publish(s.topicFor(path), 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing %s", path)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("error publishing %s: %w", path, err)
	}

	s.mu.Lock()
	s.values[path] = value
	s.mu.Unlock()
	return nil
}

func (s *MQTTSink) ReadValue(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path]
	return v, ok
}

func (s *MQTTSink) DeletePath(path string, recursive bool) error {
	targets := []string{path}
	if recursive {
		prefix := path + "."
		s.mu.RLock()
		for p := range s.values {
			if strings.HasPrefix(p, prefix) {
				targets = append(targets, p)
			}
		}
		s.mu.RUnlock()
	}

	for _, p := range targets {
		// an empty retained payload clears the topic on the broker
		token := s.client.Publish(s.topicFor(p), 1, true, []byte{})
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("timed out deleting %s", p)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("error deleting %s: %w", p, err)
		}
		s.mu.Lock()
		delete(s.values, p)
		delete(s.ensured, p)
		s.mu.Unlock()
	}
	return nil
}

func (s *MQTTSink) SubscribeExternal(handler ExternalWriteHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
	s.resubscribe()
}

func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}

func (s *MQTTSink) resubscribe() {
	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return
	}

	token := s.client.Subscribe(s.prefix+"/#", 1, s.onMessage)
	if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		s.logger.Error("error subscribing to user writes", "error", token.Error())
	}
}

func (s *MQTTSink) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if !strings.HasSuffix(msg.Topic(), "/set") {
		return
	}
	path := s.pathFor(strings.TrimSuffix(msg.Topic(), "/set"))

	var value any
	if err := json.Unmarshal(msg.Payload(), &value); err != nil {
		// not JSON, treat the raw payload as a string value
		value = string(msg.Payload())
	}

	s.mu.Lock()
	s.values[path] = value
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(path, value)
	}
}

func (s *MQTTSink) topicFor(path string) string {
	return s.prefix + "/" + strings.ReplaceAll(path, ".", "/")
}

func (s *MQTTSink) pathFor(topic string) string {
	return strings.ReplaceAll(strings.TrimPrefix(topic, s.prefix+"/"), "/", ".")
}
