package jetstream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/jetstream"
	"github.com/ceyewan/jetkit/transport"
)

func TestPublishHappyPath(t *testing.T) {
	js, tr := newTestClient(t)
	tr.RespondJSON("orders.created", map[string]any{"stream": "ORDERS", "seq": 42})

	ack, err := js.Publish(t.Context(), "orders.created", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "ORDERS", ack.Stream)
	assert.Equal(t, uint64(42), ack.Sequence)
	assert.False(t, ack.Duplicate)
}

func TestPublishDuplicate(t *testing.T) {
	js, tr := newTestClient(t)
	tr.RespondJSON("orders.created", map[string]any{"stream": "ORDERS", "seq": 42, "duplicate": true})

	ack, err := js.Publish(t.Context(), "orders.created", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, ack.Duplicate)
}

func TestPublishInvalidAck(t *testing.T) {
	cases := []struct {
		name string
		resp map[string]any
	}{
		{"empty stream", map[string]any{"stream": "", "seq": 42}},
		{"zero sequence", map[string]any{"stream": "ORDERS", "seq": 0}},
		{"empty object", map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js, tr := newTestClient(t)
			tr.RespondJSON("orders.created", tc.resp)

			_, err := js.Publish(t.Context(), "orders.created", nil)
			assert.ErrorIs(t, err, jetstream.ErrInvalidAck)
		})
	}
}

func TestPublishMalformedAck(t *testing.T) {
	js, tr := newTestClient(t)
	tr.Respond("orders.created", func(*transport.Msg) []byte { return []byte("not json") })

	_, err := js.Publish(t.Context(), "orders.created", nil)
	assert.ErrorIs(t, err, jetstream.ErrInvalidAck)
}

func TestPublishStreamMismatch(t *testing.T) {
	js, tr := newTestClient(t)
	tr.RespondJSON("orders.created", map[string]any{"stream": "OTHER", "seq": 42})

	_, err := js.Publish(t.Context(), "orders.created", nil, jetstream.ExpectStream("ORDERS"))
	assert.ErrorIs(t, err, jetstream.ErrStreamMismatch)
}

func TestPublishExpectedStreamMatches(t *testing.T) {
	js, tr := newTestClient(t)
	tr.RespondJSON("orders.created", map[string]any{"stream": "ORDERS", "seq": 7})

	ack, err := js.Publish(t.Context(), "orders.created", nil, jetstream.ExpectStream("ORDERS"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ack.Sequence)
}

func TestPublishTimeout(t *testing.T) {
	js, tr := newTestClient(t)
	tr.Respond("orders.created", func(*transport.Msg) []byte { return nil })

	_, err := js.Publish(t.Context(), "orders.created", nil, jetstream.MaxWait(50*time.Millisecond))
	assert.ErrorIs(t, err, jetstream.ErrTimeout)
}

func TestPublishNoStreamResponse(t *testing.T) {
	// 主题没有任何流接收时直接失败，不做重试
	js, _ := newTestClient(t)

	_, err := js.Publish(t.Context(), "orders.created", nil)
	assert.ErrorIs(t, err, jetstream.ErrNoStreamResponse)
}

func TestPublishServerError(t *testing.T) {
	js, tr := newTestClient(t)
	tr.RespondJSON("orders.created", map[string]any{
		"error": map[string]any{"code": 400, "description": "maximum messages exceeded"},
	})

	_, err := js.Publish(t.Context(), "orders.created", nil)
	assert.ErrorIs(t, err, jetstream.ErrServerError)

	var apiErr *jetstream.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
}
