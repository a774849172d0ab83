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

// newTestClient 创建一个启用了 JetStream 的进程内客户端
func newTestClient(t *testing.T, opts ...jetstream.Option) (jetstream.Client, *testkit.Transport) {
	t.Helper()
	tr := testkit.NewTransport()
	tr.EnableJetStream("$JS.API.")
	js, err := jetstream.New(tr, opts...)
	require.NoError(t, err)
	return js, tr
}

func TestNewProbesAccountInfo(t *testing.T) {
	tr := testkit.NewTransport()
	tr.EnableJetStream("$JS.API.")

	js, err := jetstream.New(tr)
	require.NoError(t, err)
	require.NotNil(t, js)

	// 构造时必须切换为独立应答主题的请求方式
	assert.True(t, tr.OldRequestStyle())

	// 探测请求应发往 <prefix>INFO
	pubs := tr.Published()
	require.NotEmpty(t, pubs)
	assert.Equal(t, "$JS.API.INFO", pubs[0].Subject)
}

func TestNewJetStreamNotEnabled(t *testing.T) {
	tr := testkit.NewTransport()
	tr.RespondJSON("$JS.API.INFO", map[string]any{
		"error": map[string]any{"code": 503, "description": "jetstream not enabled for account"},
	})

	_, err := jetstream.New(tr)
	assert.ErrorIs(t, err, jetstream.ErrJetStreamNotEnabled)
}

func TestNewNoResponders(t *testing.T) {
	// 没有任何应答方等价于账户未启用
	tr := testkit.NewTransport()

	_, err := jetstream.New(tr)
	assert.ErrorIs(t, err, jetstream.ErrJetStreamNotEnabled)
}

func TestNewProbeTimeout(t *testing.T) {
	tr := testkit.NewTransport()
	tr.Respond("$JS.API.INFO", func(*transport.Msg) []byte { return nil })

	_, err := jetstream.New(tr, jetstream.WithRequestTimeout(50*time.Millisecond))
	assert.ErrorIs(t, err, jetstream.ErrTimeout)
}

func TestNewCustomPrefix(t *testing.T) {
	tr := testkit.NewTransport()
	tr.EnableJetStream("adm.js.")

	js, err := jetstream.New(tr, jetstream.WithAPIPrefix("adm.js"))
	require.NoError(t, err)
	require.NotNil(t, js)

	pubs := tr.Published()
	require.NotEmpty(t, pubs)
	// 前缀自动补全结尾的 '.'
	assert.Equal(t, "adm.js.INFO", pubs[0].Subject)
}

func TestAccountInfoLimits(t *testing.T) {
	tr := testkit.NewTransport()
	// limits 缺失的字段应落到 -1
	tr.RespondJSON("$JS.API.INFO", map[string]any{
		"memory": 1024, "streams": 2,
		"limits": map[string]any{"max_memory": 4096},
	})

	js, err := jetstream.New(tr)
	require.NoError(t, err)

	info, err := js.AccountInfo(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), info.Memory)
	assert.Equal(t, 2, info.Streams)
	assert.Equal(t, int64(4096), info.Limits.MaxMemory)
	assert.Equal(t, int64(-1), info.Limits.MaxStore)
	assert.Equal(t, -1, info.Limits.MaxStreams)
	assert.Equal(t, -1, info.Limits.MaxConsumers)
}
