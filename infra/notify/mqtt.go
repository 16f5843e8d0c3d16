// Package notify delivers driver notifications over MQTT. Driver apps
// subscribe to their per-driver topic; the dispatcher publishes one retained
// message per notification. The notifier implements the persistence port's
// notification capability so the orchestrator needs no MQTT knowledge.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/avelot/fleetdispatch/core/store"
	"github.com/avelot/fleetdispatch/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT notifier.
type Config struct {
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TopicPrefix    string `json:"topic_prefix"`
	QoS            byte   `json:"qos"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "drivers"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// pahoClient abstracts the Paho client for testing.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoNotifier publishes notifications with Eclipse Paho.
type PahoNotifier struct {
	cli     pahoClient
	prefix  string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// message is the wire payload a driver app receives.
type message struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	ActionURL string `json:"action_url,omitempty"`
}

// NewPahoNotifier connects to the broker and returns a ready notifier.
func NewPahoNotifier(cfg Config, log logger.Logger) (*PahoNotifier, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.New("mqtt-notifier")
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	n := &PahoNotifier{
		cli:     cli,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:     log,
	}
	tok := cli.Connect()
	if !tok.WaitTimeout(n.timeout) {
		return nil, fmt.Errorf("notify: connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("notify: connect to %s: %w", cfg.Broker, err)
	}
	return n, nil
}

// CreateNotification implements store.NotificationWriter. The returned id is
// generated client-side so delivery stays a single publish.
func (n *PahoNotifier) CreateNotification(ctx context.Context, notif store.Notification) (string, error) {
	if !n.cli.IsConnected() {
		return "", fmt.Errorf("notify: not connected")
	}
	id := uuid.NewString()
	payload, err := json.Marshal(message{
		ID:        id,
		Title:     notif.Title,
		Message:   notif.Message,
		Type:      notif.Type,
		ActionURL: notif.ActionURL,
	})
	if err != nil {
		return "", err
	}

	topic := fmt.Sprintf("%s/%s/notifications", n.prefix, notif.RecipientID)
	tok := n.cli.Publish(topic, n.qos, false, payload)

	wait := n.timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < wait {
			wait = until
		}
	}
	if !tok.WaitTimeout(wait) {
		return "", fmt.Errorf("notify: publish to %s timed out", topic)
	}
	if err := tok.Error(); err != nil {
		return "", fmt.Errorf("notify: publish to %s: %w", topic, err)
	}
	n.log.Debugf("notification %s published to %s", id, topic)
	return id, nil
}

// Close disconnects from the broker.
func (n *PahoNotifier) Close() {
	n.cli.Disconnect(250)
}
