package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/avelot/fleetdispatch/core/logger"
	"github.com/avelot/fleetdispatch/core/store"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return !t.timeout
}
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	connected  bool
	publishErr error
	timeout    bool

	topics   []string
	payloads [][]byte
	qos      []byte
	retained []bool
}

func (c *fakeClient) IsConnected() bool   { return c.connected }
func (c *fakeClient) Connect() paho.Token { return &fakeToken{} }
func (c *fakeClient) Disconnect(uint)     { c.connected = false }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	c.qos = append(c.qos, qos)
	c.retained = append(c.retained, retained)
	return &fakeToken{err: c.publishErr, timeout: c.timeout}
}

func newFakeNotifier(cli *fakeClient) *PahoNotifier {
	return &PahoNotifier{
		cli:     cli,
		prefix:  "drivers",
		qos:     1,
		timeout: time.Second,
		log:     corelogger.NopLogger{},
	}
}

func TestCreateNotification_Publishes(t *testing.T) {
	cli := &fakeClient{connected: true}
	n := newFakeNotifier(cli)

	id, err := n.CreateNotification(context.Background(), store.Notification{
		RecipientID: "driver-1",
		Title:       "New delivery",
		Message:     "Order order-1 has been assigned to you",
		Type:        "order_assigned",
		ActionURL:   "/orders/order-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, cli.topics, 1)
	assert.Equal(t, "drivers/driver-1/notifications", cli.topics[0])
	assert.Equal(t, byte(1), cli.qos[0])
	assert.False(t, cli.retained[0])

	var msg message
	require.NoError(t, json.Unmarshal(cli.payloads[0], &msg))
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "New delivery", msg.Title)
	assert.Equal(t, "order_assigned", msg.Type)
}

func TestCreateNotification_NotConnected(t *testing.T) {
	n := newFakeNotifier(&fakeClient{connected: false})
	_, err := n.CreateNotification(context.Background(), store.Notification{RecipientID: "driver-1"})
	require.Error(t, err)
}

func TestCreateNotification_PublishError(t *testing.T) {
	boom := errors.New("broker rejected")
	n := newFakeNotifier(&fakeClient{connected: true, publishErr: boom})
	_, err := n.CreateNotification(context.Background(), store.Notification{RecipientID: "driver-1"})
	require.ErrorIs(t, err, boom)
}

func TestCreateNotification_PublishTimeout(t *testing.T) {
	n := newFakeNotifier(&fakeClient{connected: true, timeout: true})
	_, err := n.CreateNotification(context.Background(), store.Notification{RecipientID: "driver-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "drivers", cfg.TopicPrefix)
	assert.Equal(t, 5, cfg.TimeoutSeconds)
}

func TestClose_Disconnects(t *testing.T) {
	cli := &fakeClient{connected: true}
	n := newFakeNotifier(cli)
	n.Close()
	assert.False(t, cli.connected)
}
