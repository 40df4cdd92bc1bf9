package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func newMessage(src ids.PluginID, dest plugin.Destination, payload []byte) plugin.Message {
	return plugin.Message{ID: ids.NewPluginID().String(), Source: src, Destination: dest, Payload: payload, Timestamp: time.Now()}
}

func TestSend_DirectDelivery_FIFO(t *testing.T) {
	b := New(Config{})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	recv, unsub := b.Subscribe(plugin.ToPlugin(dest))
	defer unsub()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte{byte(i)})))
	}

	for i := 0; i < 3; i++ {
		msg := <-recv
		assert.Equal(t, []byte{byte(i)}, msg.Payload)
	}
}

func TestSend_TopicFanOut(t *testing.T) {
	b := New(Config{})
	src := ids.NewPluginID()
	topic := plugin.ToTopic("alerts")

	recvA, unsubA := b.Subscribe(topic)
	defer unsubA()
	recvB, unsubB := b.Subscribe(topic)
	defer unsubB()

	require.NoError(t, b.Send(context.Background(), newMessage(src, topic, []byte("fire"))))

	msgA := <-recvA
	msgB := <-recvB
	assert.Equal(t, "fire", string(msgA.Payload))
	assert.Equal(t, "fire", string(msgB.Payload))
}

func TestSend_RejectsOversizedPayload(t *testing.T) {
	b := New(Config{MaxMessageSize: 4})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()

	err := b.Send(context.Background(), newMessage(src, plugin.ToPlugin(dest), []byte("toolong")))
	var tooLarge *MessageTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 7, tooLarge.Size)
	assert.Equal(t, 4, tooLarge.Limit)
}

func TestSend_BusFullAfterTimeout(t *testing.T) {
	b := New(Config{MaxRetainedMessages: 1, EnqueueTimeout: 20 * time.Millisecond})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()

	ctx := context.Background()
	require.NoError(t, b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("a"))))

	err := b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("b")))
	var full *BusFullError
	require.True(t, errors.As(err, &full))
}

func TestSend_UnblocksOnceConsumed(t *testing.T) {
	b := New(Config{MaxRetainedMessages: 1, EnqueueTimeout: time.Second})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	recv, unsub := b.Subscribe(plugin.ToPlugin(dest))
	defer unsub()

	ctx := context.Background()
	require.NoError(t, b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("a"))))

	done := make(chan error, 1)
	go func() { done <- b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("b"))) }()

	<-recv // frees the one slot
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock after the queue drained")
	}
}

func TestSend_RateLimited(t *testing.T) {
	b := New(Config{EnqueueTimeout: 20 * time.Millisecond})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	b.SetSourceLimit(src, 1) // 1/s, burst 1

	ctx := context.Background()
	require.NoError(t, b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("a"))))

	err := b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte("b")))
	var limited *RateLimitedError
	require.True(t, errors.As(err, &limited))
}

func TestSend_UnlimitedSourceByDefault(t *testing.T) {
	b := New(Config{})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Send(ctx, newMessage(src, plugin.ToPlugin(dest), []byte{byte(i)})))
	}
}

func TestAtLeastOnce_RetainsUntilAcked(t *testing.T) {
	b := New(Config{AtLeastOnce: true})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	msg := newMessage(src, plugin.ToPlugin(dest), []byte("payload"))

	require.NoError(t, b.Send(context.Background(), msg))
	assert.True(t, b.Pending(msg.ID))

	b.Ack(msg.ID)
	assert.False(t, b.Pending(msg.ID))
}

func TestAtMostOnce_NeverRetained(t *testing.T) {
	b := New(Config{})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	msg := newMessage(src, plugin.ToPlugin(dest), []byte("payload"))

	require.NoError(t, b.Send(context.Background(), msg))
	assert.False(t, b.Pending(msg.ID))
}

func TestRemoveSource_ClearsLimiterAndMailbox(t *testing.T) {
	b := New(Config{})
	src := ids.NewPluginID()
	dest := ids.NewPluginID()
	b.SetSourceLimit(src, 1)

	b.RemoveSource(src)
	assert.Nil(t, b.limiters[src])
	assert.Nil(t, b.direct[src])
}
