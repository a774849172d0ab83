package jetstream_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/jetstream"
)

func TestConsumerConfigRoundTrip(t *testing.T) {
	start := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	cfg := jetstream.ConsumerConfig{
		Durable:         "worker",
		DeliverSubject:  "deliver.worker",
		DeliverPolicy:   jetstream.DeliverByStartTime,
		OptStartTime:    &start,
		AckPolicy:       jetstream.AckExplicit,
		AckWait:         30 * time.Second,
		MaxDeliver:      5,
		FilterSubject:   "orders.created",
		ReplayPolicy:    jetstream.ReplayOriginal,
		RateLimit:       1024,
		SampleFrequency: "100",
		MaxWaiting:      512,
		MaxAckPending:   1000,
	}

	data, err := json.Marshal(&cfg)
	require.NoError(t, err)

	var parsed jetstream.ConsumerConfig
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, cfg, parsed)
}

func TestStreamConfigSerializesOmittedFields(t *testing.T) {
	cfg := jetstream.StreamConfig{Name: "ORDERS", Subjects: []string{"orders.>"}}

	data, err := json.Marshal(&cfg)
	require.NoError(t, err)

	// 未设置的可选字段不应出现在 JSON 中
	assert.NotContains(t, string(data), "max_msg_size")
	assert.NotContains(t, string(data), "no_ack")
	assert.NotContains(t, string(data), "duplicate_window")
	assert.Contains(t, string(data), `"name":"ORDERS"`)
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	// 新版本服务端的额外字段必须被忽略
	payload := `{
		"stream_name": "ORDERS",
		"name": "worker",
		"config": {"durable_name": "worker", "ack_policy": "explicit", "future_field": 42},
		"num_pending": 7,
		"some_new_top_level": {"nested": true}
	}`

	var info jetstream.ConsumerInfo
	require.NoError(t, json.Unmarshal([]byte(payload), &info))
	assert.Equal(t, "ORDERS", info.Stream)
	assert.Equal(t, "worker", info.Name)
	assert.Equal(t, jetstream.AckExplicit, info.Config.AckPolicy)
	assert.Equal(t, uint64(7), info.NumPending)
}

func TestParseStringArrayField(t *testing.T) {
	payload := "{\"fieldName\": [\n      \"value1\",\n      \"value2\"\n    ]}"
	var v struct {
		Field []string `json:"fieldName"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &v))
	assert.Equal(t, []string{"value1", "value2"}, v.Field)

	empty := "{\"fieldName\": [\n   ]}"
	require.NoError(t, json.Unmarshal([]byte(empty), &v))
	assert.Empty(t, v.Field)
}

func TestEnumJSONRepresentation(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{jetstream.LimitsPolicy, `"limits"`},
		{jetstream.WorkQueuePolicy, `"workqueue"`},
		{jetstream.MemoryStorage, `"memory"`},
		{jetstream.FileStorage, `"file"`},
		{jetstream.DiscardNew, `"new"`},
		{jetstream.DeliverByStartSequence, `"by_start_sequence"`},
		{jetstream.AckExplicit, `"explicit"`},
		{jetstream.AckNone, `"none"`},
		{jetstream.ReplayOriginal, `"original"`},
	}
	for _, tc := range cases {
		data, err := json.Marshal(tc.value)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data))
	}

	// 未知取值保持零值，不报错
	var p jetstream.DeliverPolicy
	require.NoError(t, json.Unmarshal([]byte(`"some_future_policy"`), &p))
	assert.Equal(t, jetstream.DeliverAll, p)
}

func TestStreamConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     *jetstream.StreamConfig
		wantErr bool
	}{
		{"valid", &jetstream.StreamConfig{Name: "ORDERS"}, false},
		{"empty name", &jetstream.StreamConfig{}, true},
		{"dot in name", &jetstream.StreamConfig{Name: "a.b"}, true},
		{"star in name", &jetstream.StreamConfig{Name: "a*"}, true},
		{"gt in name", &jetstream.StreamConfig{Name: "a>"}, true},
		{"whitespace in name", &jetstream.StreamConfig{Name: "a b"}, true},
		{"bad subject", &jetstream.StreamConfig{Name: "S", Subjects: []string{"has space"}}, true},
		{"wildcard subject ok", &jetstream.StreamConfig{Name: "S", Subjects: []string{"orders.*"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, jetstream.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
