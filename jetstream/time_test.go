package jetstream_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/jetkit/jetstream"
)

// zeroInstantUnix 零值时刻对应的 epoch 秒
const zeroInstantUnix = int64(-62135596800)

func TestParseTime(t *testing.T) {
	cases := []struct {
		name  string
		input string
		unix  int64
	}{
		{"utc with fraction", "2021-01-20T23:41:08.579594Z", 1611186068},
		{"offset with fraction", "2021-02-02T11:18:28.347722551-08:00", 1612293508},
		{"no fraction", "2021-01-20T23:41:08Z", 1611186068},
		{"garbage", "anything-not-valid", zeroInstantUnix},
		{"empty", "", zeroInstantUnix},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.unix, jetstream.ParseTime(tc.input).Unix())
		})
	}
}

func TestTimeUnmarshalTolerant(t *testing.T) {
	var v struct {
		Created jetstream.Time `json:"created"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"created":"2021-01-20T23:41:08.579594Z"}`), &v))
	assert.Equal(t, int64(1611186068), v.Created.Unix())

	// 非法取值落到零值时刻而不是报错
	require.NoError(t, json.Unmarshal([]byte(`{"created":"not-a-date"}`), &v))
	assert.Equal(t, zeroInstantUnix, v.Created.Unix())

	require.NoError(t, json.Unmarshal([]byte(`{"created":null}`), &v))
	assert.Equal(t, zeroInstantUnix, v.Created.Unix())

	require.NoError(t, json.Unmarshal([]byte(`{"created":12345}`), &v))
	assert.Equal(t, zeroInstantUnix, v.Created.Unix())
}
