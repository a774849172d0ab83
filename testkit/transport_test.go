package testkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/transport"
)

func TestSubjectMatches(t *testing.T) {
	cases := []struct {
		pattern, subject string
		want             bool
	}{
		{"a.b", "a.b", true},
		{"a.b", "a.c", false},
		{"a.*", "a.b", true},
		{"a.*", "a.b.c", false},
		{"a.>", "a.b.c", true},
		{"a.>", "a", false},
		{">", "anything.at.all", true},
		{"$JS.API.*", "$JS.API.INFO", true},
		{"$JS.API.*", "$JS.API.STREAM.NAMES", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, subjectMatches(tc.pattern, tc.subject), "%s vs %s", tc.pattern, tc.subject)
	}
}

func TestRequestResponder(t *testing.T) {
	tr := NewTransport()

	// 没有应答方
	_, err := tr.Request(t.Context(), "no.one", nil, time.Second)
	assert.ErrorIs(t, err, transport.ErrNoResponders)

	// 应答方返回 nil 表示超时
	tr.Respond("slow", func(*transport.Msg) []byte { return nil })
	_, err = tr.Request(t.Context(), "slow", nil, time.Second)
	assert.ErrorIs(t, err, transport.ErrTimeout)

	tr.RespondJSON("echo", map[string]any{"ok": true})
	resp, err := tr.Request(t.Context(), "echo", []byte("ping"), time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
}

func TestDeliverToSyncSubscription(t *testing.T) {
	tr := NewTransport()

	sub, err := tr.SubscribeSync("orders.*", "")
	require.NoError(t, err)

	tr.Deliver("orders.created", "reply.1", []byte("one"))
	tr.Deliver("invoices.created", "", []byte("nope"))

	m, err := sub.NextMsg(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "orders.created", m.Subject)
	assert.Equal(t, "reply.1", m.Reply)
	assert.Equal(t, "one", string(m.Data))

	// 不匹配的主题不投递
	_, err = sub.NextMsg(0)
	assert.ErrorIs(t, err, transport.ErrTimeout)

	require.NoError(t, sub.Unsubscribe())
	_, err = sub.NextMsg(time.Second)
	assert.ErrorIs(t, err, transport.ErrSubscriptionClosed)
}

func TestQueueGroupDeliversOnce(t *testing.T) {
	tr := NewTransport()

	var count int
	handler := func(*transport.Msg) { count++ }
	_, err := tr.Subscribe("jobs", "workers", handler)
	require.NoError(t, err)
	_, err = tr.Subscribe("jobs", "workers", handler)
	require.NoError(t, err)

	tr.Deliver("jobs", "", []byte("x"))
	assert.Equal(t, 1, count)
}
