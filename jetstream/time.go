package jetstream

import (
	"encoding/json"
	"time"
)

// apiTimeLayouts 服务端时间戳的候选格式：ISO-8601，
// 小数秒与时区偏移（Z 或 ±HH:MM）均可选。
var apiTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTime 解析服务端返回的时间戳。
// 解析失败返回零值时刻而不是错误，保证对未来格式变化的容错。
func ParseTime(s string) time.Time {
	for _, layout := range apiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Time 包装 time.Time，反序列化遵循 ParseTime 的容错语义。
// 序列化沿用 time.Time 的 RFC3339Nano 行为。
type Time struct {
	time.Time
}

// UnmarshalJSON 容错解析：非字符串、null 或无法解析的值都落到零值时刻
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTime(s)
	return nil
}
