package amqplog

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelCall struct {
	op      string // "declare" or "publish"
	queue   string
	durable bool
	msg     amqp.Publishing
}

type fakeChannel struct {
	calls      []channelCall
	declareErr error
	publishErr error
	closed     int
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.calls = append(c.calls, channelCall{op: "declare", queue: name, durable: durable})
	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}

	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.calls = append(c.calls, channelCall{op: "publish", queue: key, msg: msg})
	if exchange != "" {
		return errors.New("expected default exchange")
	}

	return c.publishErr
}

func (c *fakeChannel) Close() error {
	c.closed++
	return nil
}

type fakeConn struct {
	closed int
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func TestBrokerPublish(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	b := &Broker{conn: &fakeConn{}, ch: ch}

	require.NoError(t, b.Publish(t.Context(), QueueLogs, []byte(`{"message":"started"}`)))

	require.Len(t, ch.calls, 2)

	declare := ch.calls[0]
	assert.Equal(t, "declare", declare.op, "queue must be declared before the publish")
	assert.Equal(t, "logs", declare.queue)
	assert.True(t, declare.durable, "queue declaration must be durable")

	publish := ch.calls[1]
	assert.Equal(t, "publish", publish.op)
	assert.Equal(t, "logs", publish.queue)
	assert.Equal(t, amqp.Persistent, publish.msg.DeliveryMode, "publish must use persistent delivery")
	assert.Equal(t, "application/json", publish.msg.ContentType)
	assert.JSONEq(t, `{"message":"started"}`, string(publish.msg.Body))
}

func TestBrokerPublishRedeclares(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	b := &Broker{conn: &fakeConn{}, ch: ch}

	require.NoError(t, b.Publish(t.Context(), QueueLogs, []byte("{}")))
	require.NoError(t, b.Publish(t.Context(), QueueLogs, []byte("{}")))
	require.NoError(t, b.Publish(t.Context(), QueueAlerts, []byte("{}")))

	var declares []string
	for _, call := range ch.calls {
		if call.op == "declare" {
			declares = append(declares, call.queue)
			assert.True(t, call.durable)
		}
	}

	// Declaration is idempotent and repeated on every publish.
	assert.Equal(t, []string{"logs", "logs", "alerts"}, declares)
}

func TestBrokerPublishErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		channel *fakeChannel
		wantErr error
	}{
		"declare failure is a connect error": {
			channel: &fakeChannel{declareErr: errors.New("no route to host")},
			wantErr: ErrConnect,
		},
		"publish failure is a publish error": {
			channel: &fakeChannel{publishErr: errors.New("channel closed")},
			wantErr: ErrPublish,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := &Broker{conn: &fakeConn{}, ch: tc.channel}

			err := b.Publish(t.Context(), QueueLogs, []byte("{}"))
			require.Error(t, err)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBrokerClose(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	conn := &fakeConn{}
	b := &Broker{conn: conn, ch: ch}

	require.NoError(t, b.Close())
	assert.Equal(t, 1, ch.closed)
	assert.Equal(t, 1, conn.closed)
}
