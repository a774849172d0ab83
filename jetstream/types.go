package jetstream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ceyewan/jetkit/xerrors"
)

// ==================== 枚举 ====================
// 枚举在 JSON 中以服务端约定的字符串表示。
// 反序列化遇到未知取值时保持零值，不报错，保证对新版本服务端的前向兼容。

func jsonString(s string) string {
	return "\"" + s + "\""
}

// RetentionPolicy 流的消息保留策略
type RetentionPolicy int

const (
	// LimitsPolicy 按上限保留（默认）
	LimitsPolicy RetentionPolicy = iota
	// InterestPolicy 有消费者关注时保留
	InterestPolicy
	// WorkQueuePolicy 工作队列语义，消费即删除
	WorkQueuePolicy
)

func (p RetentionPolicy) MarshalJSON() ([]byte, error) {
	switch p {
	case InterestPolicy:
		return []byte(jsonString("interest")), nil
	case WorkQueuePolicy:
		return []byte(jsonString("workqueue")), nil
	default:
		return []byte(jsonString("limits")), nil
	}
}

func (p *RetentionPolicy) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case jsonString("interest"):
		*p = InterestPolicy
	case jsonString("workqueue"):
		*p = WorkQueuePolicy
	default:
		*p = LimitsPolicy
	}
	return nil
}

// StorageType 流的存储类型
type StorageType int

const (
	// FileStorage 文件存储（默认）
	FileStorage StorageType = iota
	// MemoryStorage 内存存储
	MemoryStorage
)

func (t StorageType) MarshalJSON() ([]byte, error) {
	if t == MemoryStorage {
		return []byte(jsonString("memory")), nil
	}
	return []byte(jsonString("file")), nil
}

func (t *StorageType) UnmarshalJSON(data []byte) error {
	if string(data) == jsonString("memory") {
		*t = MemoryStorage
	} else {
		*t = FileStorage
	}
	return nil
}

// DiscardPolicy 流写满后的丢弃策略
type DiscardPolicy int

const (
	// DiscardOld 丢弃最老的消息（默认）
	DiscardOld DiscardPolicy = iota
	// DiscardNew 拒绝新消息
	DiscardNew
)

func (p DiscardPolicy) MarshalJSON() ([]byte, error) {
	if p == DiscardNew {
		return []byte(jsonString("new")), nil
	}
	return []byte(jsonString("old")), nil
}

func (p *DiscardPolicy) UnmarshalJSON(data []byte) error {
	if string(data) == jsonString("new") {
		*p = DiscardNew
	} else {
		*p = DiscardOld
	}
	return nil
}

// DeliverPolicy 消费者的起始投递策略
type DeliverPolicy int

const (
	// DeliverAll 从头投递（默认）
	DeliverAll DeliverPolicy = iota
	// DeliverLast 从最后一条开始
	DeliverLast
	// DeliverNew 仅投递订阅之后的新消息
	DeliverNew
	// DeliverByStartSequence 从指定序号开始
	DeliverByStartSequence
	// DeliverByStartTime 从指定时间开始
	DeliverByStartTime
)

func (p DeliverPolicy) MarshalJSON() ([]byte, error) {
	switch p {
	case DeliverLast:
		return []byte(jsonString("last")), nil
	case DeliverNew:
		return []byte(jsonString("new")), nil
	case DeliverByStartSequence:
		return []byte(jsonString("by_start_sequence")), nil
	case DeliverByStartTime:
		return []byte(jsonString("by_start_time")), nil
	default:
		return []byte(jsonString("all")), nil
	}
}

func (p *DeliverPolicy) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case jsonString("last"):
		*p = DeliverLast
	case jsonString("new"):
		*p = DeliverNew
	case jsonString("by_start_sequence"):
		*p = DeliverByStartSequence
	case jsonString("by_start_time"):
		*p = DeliverByStartTime
	default:
		*p = DeliverAll
	}
	return nil
}

// AckPolicy 消费者的确认策略
type AckPolicy int

const (
	// AckNone 不需要确认
	AckNone AckPolicy = iota
	// AckAll 确认序号 N 隐含确认所有 ≤N 的消息
	AckAll
	// AckExplicit 每条消息单独确认
	AckExplicit
)

// ackPolicyNotSet 订阅选项中"未显式设置"的内部标记
const ackPolicyNotSet = AckPolicy(99)

func (p AckPolicy) MarshalJSON() ([]byte, error) {
	switch p {
	case AckAll:
		return []byte(jsonString("all")), nil
	case AckExplicit:
		return []byte(jsonString("explicit")), nil
	default:
		return []byte(jsonString("none")), nil
	}
}

func (p *AckPolicy) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case jsonString("all"):
		*p = AckAll
	case jsonString("explicit"):
		*p = AckExplicit
	default:
		*p = AckNone
	}
	return nil
}

// ReplayPolicy 消费者的回放策略
type ReplayPolicy int

const (
	// ReplayInstant 尽快回放（默认）
	ReplayInstant ReplayPolicy = iota
	// ReplayOriginal 按原始节奏回放
	ReplayOriginal
)

func (p ReplayPolicy) MarshalJSON() ([]byte, error) {
	if p == ReplayOriginal {
		return []byte(jsonString("original")), nil
	}
	return []byte(jsonString("instant")), nil
}

func (p *ReplayPolicy) UnmarshalJSON(data []byte) error {
	if string(data) == jsonString("original") {
		*p = ReplayOriginal
	} else {
		*p = ReplayInstant
	}
	return nil
}

// ==================== 名称校验 ====================

// validateName 流名、消费者名等标识符：非空，不含空白与通配符/分隔符
func validateName(name, kind string) error {
	if name == "" {
		return xerrors.Wrapf(ErrInvalidArgument, "%s name is required", kind)
	}
	if strings.ContainsAny(name, ".*> \t\r\n") {
		return xerrors.Wrapf(ErrInvalidArgument, "invalid %s name %q", kind, name)
	}
	return nil
}

// validateSubject 订阅主题：非空，不含空白（允许通配符）
func validateSubject(subject string) error {
	if subject == "" {
		return xerrors.Wrap(ErrInvalidArgument, "subject is required")
	}
	if strings.ContainsAny(subject, " \t\r\n") {
		return xerrors.Wrapf(ErrInvalidArgument, "invalid subject %q", subject)
	}
	return nil
}

// ==================== 流配置与状态 ====================

// StreamConfig 流配置
type StreamConfig struct {
	Name         string          `json:"name"`
	Subjects     []string        `json:"subjects,omitempty"`
	Retention    RetentionPolicy `json:"retention"`
	MaxConsumers int             `json:"max_consumers"`
	MaxMsgs      int64           `json:"max_msgs"`
	MaxBytes     int64           `json:"max_bytes"`
	MaxAge       time.Duration   `json:"max_age"`
	MaxMsgSize   int32           `json:"max_msg_size,omitempty"`
	Discard      DiscardPolicy   `json:"discard"`
	Storage      StorageType     `json:"storage"`
	Replicas     int             `json:"num_replicas"`
	NoAck        bool            `json:"no_ack,omitempty"`
	Duplicates   time.Duration   `json:"duplicate_window,omitempty"`
}

// Validate 校验流配置
func (c *StreamConfig) Validate() error {
	if c == nil {
		return xerrors.Wrap(ErrInvalidArgument, "nil stream config")
	}
	if err := validateName(c.Name, "stream"); err != nil {
		return err
	}
	for _, s := range c.Subjects {
		if err := validateSubject(s); err != nil {
			return err
		}
	}
	return nil
}

// StreamState 流的运行时状态
type StreamState struct {
	Msgs      uint64 `json:"messages"`
	Bytes     uint64 `json:"bytes"`
	FirstSeq  uint64 `json:"first_seq"`
	LastSeq   uint64 `json:"last_seq"`
	Consumers int    `json:"consumer_count"`
}

// StreamInfo 服务端返回的流信息
type StreamInfo struct {
	Config  StreamConfig `json:"config"`
	Created Time         `json:"created"`
	State   StreamState  `json:"state"`
}

// ==================== 消费者配置与状态 ====================

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Durable         string        `json:"durable_name,omitempty"`
	DeliverSubject  string        `json:"deliver_subject,omitempty"`
	DeliverPolicy   DeliverPolicy `json:"deliver_policy"`
	OptStartSeq     uint64        `json:"opt_start_seq,omitempty"`
	OptStartTime    *time.Time    `json:"opt_start_time,omitempty"`
	AckPolicy       AckPolicy     `json:"ack_policy"`
	AckWait         time.Duration `json:"ack_wait,omitempty"`
	MaxDeliver      int           `json:"max_deliver,omitempty"`
	FilterSubject   string        `json:"filter_subject,omitempty"`
	ReplayPolicy    ReplayPolicy  `json:"replay_policy"`
	RateLimit       uint64        `json:"rate_limit_bps,omitempty"`
	SampleFrequency string        `json:"sample_freq,omitempty"`
	MaxWaiting      int           `json:"max_waiting,omitempty"`
	MaxAckPending   int           `json:"max_ack_pending,omitempty"`
}

// Validate 校验消费者配置
func (c *ConsumerConfig) Validate() error {
	if c == nil {
		return xerrors.Wrap(ErrInvalidArgument, "nil consumer config")
	}
	if c.Durable != "" {
		if err := validateName(c.Durable, "durable"); err != nil {
			return err
		}
	}
	return nil
}

// SequencePair 流序号与消费序号对
type SequencePair struct {
	Consumer uint64 `json:"consumer_seq"`
	Stream   uint64 `json:"stream_seq"`
}

// ConsumerInfo 服务端返回的消费者信息
type ConsumerInfo struct {
	Stream         string         `json:"stream_name"`
	Name           string         `json:"name"`
	Created        Time           `json:"created"`
	Config         ConsumerConfig `json:"config"`
	Delivered      SequencePair   `json:"delivered"`
	AckFloor       SequencePair   `json:"ack_floor"`
	NumAckPending  int            `json:"num_ack_pending"`
	NumRedelivered int            `json:"num_redelivered"`
	NumWaiting     int            `json:"num_waiting"`
	NumPending     uint64         `json:"num_pending"`
}

// ==================== 发布确认 ====================

// PubAck 服务端对发布的确认
type PubAck struct {
	Stream    string `json:"stream"`
	Sequence  uint64 `json:"seq"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// ==================== 账户信息 ====================

// AccountLimits 账户级 JetStream 上限，未设置的字段为 -1
type AccountLimits struct {
	MaxMemory    int64 `json:"max_memory"`
	MaxStore     int64 `json:"max_storage"`
	MaxStreams   int   `json:"max_streams"`
	MaxConsumers int   `json:"max_consumers"`
}

// UnmarshalJSON 缺失字段落到 -1 而不是 0
func (l *AccountLimits) UnmarshalJSON(data []byte) error {
	type limitsAlias AccountLimits
	a := limitsAlias{
		MaxMemory:    -1,
		MaxStore:     -1,
		MaxStreams:   -1,
		MaxConsumers: -1,
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = AccountLimits(a)
	return nil
}

// AccountInfo 账户级 JetStream 用量
type AccountInfo struct {
	Memory    uint64        `json:"memory"`
	Store     uint64        `json:"storage"`
	Streams   int           `json:"streams"`
	Consumers int           `json:"consumers"`
	Limits    AccountLimits `json:"limits"`
}
