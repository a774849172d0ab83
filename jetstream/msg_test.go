package jetstream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/jetstream"
	"github.com/ceyewan/jetkit/transport"
)

// nextPulledMsg 发布一条消息并通过同步订阅取回
func nextPulledMsg(t *testing.T, data string) (*jetstream.Msg, interface{ Published() []transport.Msg }) {
	t.Helper()
	sub, fake, tr := newPullSubscription(t, 10)
	fake.publish([]byte(data))
	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)
	return m, tr
}

func countPayload(pubs []transport.Msg, subject, payload string) int {
	n := 0
	for _, m := range pubs {
		if m.Subject == subject && string(m.Data) == payload {
			n++
		}
	}
	return n
}

func TestMsgAck(t *testing.T) {
	m, tr := nextPulledMsg(t, "payload")

	require.NoError(t, m.Ack())
	assert.Equal(t, 1, countPayload(tr.Published(), m.Reply, "+ACK"))

	// 重复确认被拒绝，不再发出第二条控制消息
	assert.ErrorIs(t, m.Ack(), jetstream.ErrMsgAlreadyAcked)
	assert.ErrorIs(t, m.Nak(), jetstream.ErrMsgAlreadyAcked)
	assert.Equal(t, 1, countPayload(tr.Published(), m.Reply, "+ACK"))
}

func TestMsgNak(t *testing.T) {
	m, tr := nextPulledMsg(t, "payload")

	require.NoError(t, m.Nak())
	assert.Equal(t, 1, countPayload(tr.Published(), m.Reply, "-NAK"))
}

func TestMsgTerm(t *testing.T) {
	m, tr := nextPulledMsg(t, "payload")

	require.NoError(t, m.Term())
	assert.Equal(t, 1, countPayload(tr.Published(), m.Reply, "+TERM"))
}

func TestMsgInProgress(t *testing.T) {
	m, tr := nextPulledMsg(t, "payload")

	// InProgress 不是终结操作，可以多次调用，之后仍可确认
	require.NoError(t, m.InProgress())
	require.NoError(t, m.InProgress())
	require.NoError(t, m.Ack())
	assert.Equal(t, 2, countPayload(tr.Published(), m.Reply, "+WPI"))
	assert.Equal(t, 1, countPayload(tr.Published(), m.Reply, "+ACK"))
}

func TestMsgAckSync(t *testing.T) {
	sub, fake, tr := newPullSubscription(t, 10)
	fake.publish([]byte("payload"))
	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)

	// 服务端对确认的回执
	tr.Respond("$JS.ACK.>", func(*transport.Msg) []byte { return []byte("+OK") })
	require.NoError(t, m.AckSync(t.Context()))
	assert.ErrorIs(t, m.AckSync(t.Context()), jetstream.ErrMsgAlreadyAcked)
}

func TestMsgMetadata(t *testing.T) {
	m, _ := nextPulledMsg(t, "payload")

	meta, err := m.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "pull-stream", meta.Stream)
	assert.Equal(t, "pull-durable", meta.Consumer)
	assert.Equal(t, uint64(1), meta.NumDelivered)
	assert.Equal(t, uint64(1), meta.StreamSeq)
	assert.Equal(t, uint64(1), meta.ConsumerSeq)
	assert.Equal(t, int64(1611186068), meta.Timestamp.Unix())
	assert.Equal(t, uint64(0), meta.NumPending)
}

func TestMsgMetadataRejectsForeignReply(t *testing.T) {
	js, tr := newTestClient(t)
	respondStreamNames(tr, "ORDERS")
	respondConsumerCreate(tr, "$JS.API.CONSUMER.CREATE.ORDERS", "eph-1")

	sub, err := js.SubscribeSync(t.Context(), "orders.created")
	require.NoError(t, err)

	// 应答主题不是 $JS.ACK 格式
	tr.Deliver(sub.DeliverSubject(), "some.plain.reply", []byte("x"))
	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)

	_, err = m.Metadata()
	assert.ErrorIs(t, err, jetstream.ErrNotJSMessage)
}

func TestMsgAckWithoutReply(t *testing.T) {
	js, tr := newTestClient(t)
	respondStreamNames(tr, "ORDERS")
	respondConsumerCreate(tr, "$JS.API.CONSUMER.CREATE.ORDERS", "eph-1")

	sub, err := js.SubscribeSync(t.Context(), "orders.created")
	require.NoError(t, err)

	tr.Deliver(sub.DeliverSubject(), "", []byte("x"))
	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Ack(), jetstream.ErrMsgNoReply)
}

func TestMsgAckNoneIsNoop(t *testing.T) {
	js, tr := newTestClient(t)
	respondStreamNames(tr, "ORDERS")
	respondConsumerCreate(tr, "$JS.API.CONSUMER.CREATE.ORDERS", "eph-1")

	sub, err := js.SubscribeSync(t.Context(), "orders.created",
		jetstream.WithAckPolicy(jetstream.AckNone))
	require.NoError(t, err)

	ackReply := "$JS.ACK.ORDERS.eph-1.1.1.1.1611186068000000000.0"
	tr.Deliver(sub.DeliverSubject(), ackReply, []byte("x"))
	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)

	// 确认策略为 None 时 Ack 是空操作
	require.NoError(t, m.Ack())
	require.NoError(t, m.Ack())
	assert.Equal(t, 0, countPayload(tr.Published(), ackReply, "+ACK"))
}
