package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/types"
	"go.uber.org/zap"
)

// MessageHandler receives one inbound message for a subscribed topic filter.
type MessageHandler func(topic string, payload []byte)

// Client is the process-wide MQTT connection. It lives for the process
// lifetime, reconnects on its own, and resubscribes every registered filter
// on reconnect. Operations invoked while disconnected fail fast with
// types.ErrTransportUnavailable instead of queueing.
type Client struct {
	cfg    config.MQTTConfig
	client mqtt.Client
	logger *zap.Logger

	mu        sync.RWMutex
	connected bool
	handlers  map[string]MessageHandler
}

func NewClient(cfg config.MQTTConfig, logger *zap.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]MessageHandler),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	// Unique client ID so multiple instances never evict each other
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(cfg.ReconnectInterval)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Warn("MQTT connection lost", zap.Error(err))
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	})

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.logger.Info("MQTT connected", zap.String("broker", cfg.BrokerURL))
		c.mu.Lock()
		c.connected = true
		handlers := make(map[string]MessageHandler, len(c.handlers))
		for filter, h := range c.handlers {
			handlers[filter] = h
		}
		c.mu.Unlock()

		// Clean sessions lose subscriptions across reconnects
		for filter, h := range handlers {
			if err := c.subscribe(filter, h); err != nil {
				c.logger.Error("MQTT resubscribe failed",
					zap.String("filter", filter), zap.Error(err))
			}
		}
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		c.logger.Info("MQTT reconnecting", zap.String("broker", cfg.BrokerURL))
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect dials the broker, retrying with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	retries := c.cfg.ConnectRetries
	if retries <= 0 {
		retries = 5
	}

	var err error
	for i := 0; i < retries; i++ {
		token := c.client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			return nil
		}
		err = token.Error()

		backoff := time.Duration(1<<uint(i)) * time.Second
		c.logger.Warn("MQTT connect attempt failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", retries),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("mqtt connect failed after %d attempts: %w", retries, err)
}

func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Publish sends one message at QoS 1. Retained publishes are used for
// commands so a device reconnecting later still receives the last one.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if !c.IsConnected() {
		return fmt.Errorf("publish to %s: %w", topic, types.ErrTransportUnavailable)
	}

	token := c.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("publish to %s timed out: %w", topic, types.ErrTransportUnavailable)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	c.logger.Debug("MQTT message published",
		zap.String("topic", topic),
		zap.Bool("retained", retained))
	return nil
}

// Subscribe registers a handler for a topic filter. The registration survives
// reconnects; delivery starts as soon as the connection is up.
func (c *Client) Subscribe(filter string, handler MessageHandler) error {
	c.mu.Lock()
	c.handlers[filter] = handler
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		// OnConnect will pick it up
		return nil
	}
	return c.subscribe(filter, handler)
}

func (c *Client) subscribe(filter string, handler MessageHandler) error {
	token := c.client.Subscribe(filter, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", filter, token.Error())
	}

	c.logger.Info("MQTT subscribed", zap.String("filter", filter))
	return nil
}
