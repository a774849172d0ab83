package jetstream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/jetstream"
	"github.com/ceyewan/jetkit/testkit"
	"github.com/ceyewan/jetkit/transport"
)

func TestContextOptionValidation(t *testing.T) {
	tr := testkit.NewTransport()
	tr.EnableJetStream("$JS.API.")

	// 前缀不能包含通配符
	_, err := jetstream.New(tr, jetstream.WithAPIPrefix(">"))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = jetstream.New(tr, jetstream.WithAPIPrefix("*"))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = jetstream.New(tr, jetstream.WithAPIPrefix(""))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = jetstream.New(tr, jetstream.WithRequestTimeout(0))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = jetstream.New(tr, jetstream.WithRequestTimeout(-time.Second))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = jetstream.New(nil)
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)
}

func TestContextOptions(t *testing.T) {
	tr := testkit.NewTransport()
	tr.EnableJetStream("pre.")

	js, err := jetstream.New(tr,
		jetstream.WithAPIPrefix("pre"),
		jetstream.WithRequestTimeout(42*time.Second),
		jetstream.WithDirectMode())
	require.NoError(t, err)
	require.NotNil(t, js)

	pubs := tr.Published()
	require.NotEmpty(t, pubs)
	assert.Equal(t, "pre.INFO", pubs[0].Subject)
}

func TestPubOptValidation(t *testing.T) {
	js, _ := newTestClient(t)

	_, err := js.Publish(t.Context(), "orders.created", nil, jetstream.ExpectStream(""))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = js.Publish(t.Context(), "orders.created", nil, jetstream.ExpectStream("a.b"))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = js.Publish(t.Context(), "orders.created", nil, jetstream.MaxWait(0))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)
}

func TestSubOptValidation(t *testing.T) {
	js, _ := newTestClient(t)
	ctx := t.Context()

	// 批大小必须为正
	_, err := js.SubscribeSync(ctx, "orders.created", jetstream.Pull(0))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = js.SubscribeSync(ctx, "orders.created", jetstream.Pull(-5))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	// 名称不允许通配符与分隔符
	_, err = js.SubscribeSync(ctx, "orders.created", jetstream.Durable("a.b"))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = js.SubscribeSync(ctx, "orders.created", jetstream.Attach("stream", "has space"))
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	// 主题不能为空或带空白
	_, err = js.SubscribeSync(ctx, "")
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)

	_, err = js.SubscribeSync(ctx, "orders created")
	assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)
}

func TestSubOptCombination(t *testing.T) {
	// attach + 配置 + pushDirect + 手动确认 + durable + pull 的组合：
	// 直连模式下按配置的投递主题挂载，拉取批大小生效
	tr := testkit.NewTransport()
	tr.EnableJetStream("$JS.API.")
	js, err := jetstream.New(tr, jetstream.WithDirectMode())
	require.NoError(t, err)

	cc := &jetstream.ConsumerConfig{AckPolicy: jetstream.AckExplicit}
	sub, err := js.SubscribeSync(t.Context(), "orders.created",
		jetstream.Attach("foo", "bar"),
		jetstream.WithConsumerConfig(cc),
		jetstream.PushDirect("pushsubj"),
		jetstream.ManualAck(),
		jetstream.Durable("durable"),
		jetstream.Pull(1234))
	require.NoError(t, err)

	assert.Equal(t, "foo", sub.Stream())
	assert.Equal(t, "bar", sub.Consumer())
	assert.Equal(t, "pushsubj", sub.DeliverSubject())
	assert.True(t, sub.PullMode())
}

func TestWithConsumerConfigCopies(t *testing.T) {
	// WithConsumerConfig 应复制配置，后续选项不回写调用方的对象
	tr := testkit.NewTransport()
	tr.EnableJetStream("$JS.API.")
	js, err := jetstream.New(tr, jetstream.WithDirectMode())
	require.NoError(t, err)

	cc := &jetstream.ConsumerConfig{}
	_, err = js.SubscribeSync(t.Context(), "orders.created",
		jetstream.WithConsumerConfig(cc),
		jetstream.PushDirect("pushsubj"),
		jetstream.Durable("durable"))
	require.NoError(t, err)
	assert.Empty(t, cc.DeliverSubject)
	assert.Empty(t, cc.Durable)

	var nilErr error
	_, nilErr = js.SubscribeSync(t.Context(), "orders.created", jetstream.WithConsumerConfig(nil))
	assert.ErrorIs(t, nilErr, jetstream.ErrInvalidArgument)
}

func TestPullNotAllowedWithHandler(t *testing.T) {
	js, _ := newTestClient(t)

	handler := func(m *jetstream.Msg) error { return nil }
	_, err := js.Subscribe(t.Context(), "orders.created", handler, jetstream.Pull(10))
	assert.ErrorIs(t, err, jetstream.ErrPullModeNotAllowed)
}

var _ transport.Transport = (*testkit.Transport)(nil)
