package sinks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"single_sensor/internal/logger"
)

var (
	ErrNotConnected  = errors.New("mqtt client not connected")
	ErrClientStopped = errors.New("mqtt client stopped")
)

// TelemetryOptions configures the Adafruit IO MQTT connection. Username and
// Key come from the operator settings file.
type TelemetryOptions struct {
	Broker   string
	ClientID string
	Username string
	Key      string
}

// AdafruitIO publishes feed values to Adafruit IO over MQTT.
type AdafruitIO struct {
	client   mqtt.Client
	username string
	log      *logger.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewAdafruitIO(opts TelemetryOptions, log *logger.Logger) *AdafruitIO {
	a := &AdafruitIO{
		username: opts.Username,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	o.SetClientID(opts.ClientID)
	o.SetUsername(opts.Username)
	o.SetPassword(opts.Key)

	o.SetCleanSession(true)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(5 * time.Second)
	o.SetMaxReconnectInterval(60 * time.Second)

	o.SetKeepAlive(30 * time.Second)
	o.SetPingTimeout(10 * time.Second)

	o.SetOnConnectHandler(func(_ mqtt.Client) {
		a.setConnected(true)
		log.Infow("telemetry connected", "broker", opts.Broker)
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.setConnected(false)
		log.Warnw("telemetry connection lost", "err", err)
	})

	a.client = mqtt.NewClient(o)
	return a
}

// Connect waits for the initial connection. It respects ctx and Disconnect.
func (a *AdafruitIO) Connect(ctx context.Context) error {
	select {
	case <-a.stopCh:
		return ErrClientStopped
	default:
	}
	if a.IsConnected() {
		return nil
	}

	token := a.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stopCh:
			return ErrClientStopped
		default:
		}
	}
}

// Publish sends one value to the "group.feed" key.
func (a *AdafruitIO) Publish(ctx context.Context, feedKey string, value float64) error {
	if !a.IsConnected() {
		return ErrNotConnected
	}

	topic := feedTopic(a.username, feedKey)
	token := a.client.Publish(topic, 1, false, formatValue(value))
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	a.log.Debugw("published telemetry", "topic", topic, "value", value)
	return nil
}

func (a *AdafruitIO) IsConnected() bool {
	a.mu.RLock()
	connected := a.connected
	a.mu.RUnlock()
	return connected && a.client.IsConnected()
}

// Disconnect is idempotent. Connect returns ErrClientStopped afterwards.
func (a *AdafruitIO) Disconnect() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	if a.client != nil {
		a.client.Disconnect(250)
	}
	a.setConnected(false)
	a.log.Infow("telemetry disconnected")
}

func (a *AdafruitIO) setConnected(v bool) {
	a.mu.Lock()
	a.connected = v
	a.mu.Unlock()
}

func feedTopic(username, feedKey string) string {
	return username + "/feeds/" + feedKey
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
