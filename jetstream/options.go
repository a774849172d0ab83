package jetstream

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/xerrors"
)

// defaultRequestTimeout 管理与发布请求的默认等待时间
const defaultRequestTimeout = 5 * time.Second

// ==================== 上下文选项 ====================

// Option JetStream 上下文的函数式选项，校验失败时 New 返回错误
type Option func(*ctxOptions) error

type ctxOptions struct {
	prefix   string
	timeout  time.Duration
	direct   bool
	logger   clog.Logger
	registry prometheus.Registerer
	tracerTP trace.TracerProvider
}

func defaultCtxOptions() *ctxOptions {
	return &ctxOptions{
		prefix:  DefaultAPIPrefix,
		timeout: defaultRequestTimeout,
		logger:  clog.Discard(),
	}
}

// WithAPIPrefix 设置管理接口的主题前缀。
// 前缀不能为空、不能包含通配符，最终保证以 '.' 结尾。
func WithAPIPrefix(prefix string) Option {
	return func(o *ctxOptions) error {
		if prefix == "" {
			return xerrors.Wrap(ErrInvalidArgument, "api prefix is required")
		}
		if strings.ContainsAny(prefix, "*>") {
			return xerrors.Wrapf(ErrInvalidArgument, "api prefix %q must not contain wildcards", prefix)
		}
		if !strings.HasSuffix(prefix, ".") {
			prefix += "."
		}
		o.prefix = prefix
		return nil
	}
}

// WithRequestTimeout 设置管理与发布请求的默认等待时间
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *ctxOptions) error {
		if timeout <= 0 {
			return xerrors.Wrap(ErrInvalidArgument, "request timeout must be positive")
		}
		o.timeout = timeout
		return nil
	}
}

// WithDirectMode 启用直连模式。
// 直连模式下只能挂载既有消费者，不会代替调用方创建消费者。
func WithDirectMode() Option {
	return func(o *ctxOptions) error {
		o.direct = true
		return nil
	}
}

// WithLogger 注入日志组件
func WithLogger(logger clog.Logger) Option {
	return func(o *ctxOptions) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithMetrics 注入 Prometheus registerer，nil 表示禁用指标
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *ctxOptions) error {
		o.registry = reg
		return nil
	}
}

// WithTracerProvider 注入 OpenTelemetry TracerProvider，nil 表示禁用追踪
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *ctxOptions) error {
		o.tracerTP = tp
		return nil
	}
}

// ==================== 发布选项 ====================

// PubOpt 发布选项
type PubOpt func(*pubOpts) error

type pubOpts struct {
	// expectStream 非空时校验确认来自该流
	expectStream string
	// timeout 本次发布的等待时间，覆盖上下文默认值
	timeout time.Duration
}

// ExpectStream 要求发布确认来自指定的流
func ExpectStream(stream string) PubOpt {
	return func(o *pubOpts) error {
		if err := validateName(stream, "stream"); err != nil {
			return err
		}
		o.expectStream = stream
		return nil
	}
}

// MaxWait 设置本次发布等待确认的最长时间
func MaxWait(timeout time.Duration) PubOpt {
	return func(o *pubOpts) error {
		if timeout <= 0 {
			return xerrors.Wrap(ErrInvalidArgument, "publish timeout must be positive")
		}
		o.timeout = timeout
		return nil
	}
}

// ==================== 订阅选项 ====================

// SubOpt 订阅选项
type SubOpt func(*subOpts) error

type subOpts struct {
	// stream/consumer 挂载既有消费者
	stream, consumer string
	// pull 拉取批大小，>0 表示拉取模式
	pull int
	// manualAck 关闭自动确认
	manualAck bool
	// cfg 创建消费者用的配置
	cfg *ConsumerConfig
}

// WithConsumerConfig 以 cfg 为基础配置创建消费者。
// 与其他修改消费者配置的选项组合时应最先应用。
func WithConsumerConfig(cfg *ConsumerConfig) SubOpt {
	return func(o *subOpts) error {
		if cfg == nil {
			return xerrors.Wrap(ErrInvalidArgument, "nil consumer config")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c := *cfg
		o.cfg = &c
		return nil
	}
}

// Durable 以持久化名称创建消费者
func Durable(name string) SubOpt {
	return func(o *subOpts) error {
		if err := validateName(name, "durable"); err != nil {
			return err
		}
		o.cfg.Durable = name
		return nil
	}
}

// Attach 挂载既有消费者而不是创建新的
func Attach(stream, consumer string) SubOpt {
	return func(o *subOpts) error {
		if err := validateName(stream, "stream"); err != nil {
			return err
		}
		if err := validateName(consumer, "consumer"); err != nil {
			return err
		}
		o.stream = stream
		o.consumer = consumer
		return nil
	}
}

// PushDirect 直接使用既有消费者的投递主题
func PushDirect(deliverSubject string) SubOpt {
	return func(o *subOpts) error {
		if err := validateSubject(deliverSubject); err != nil {
			return err
		}
		o.cfg.DeliverSubject = deliverSubject
		return nil
	}
}

// Pull 启用拉取模式并设置批大小
func Pull(batchSize int) SubOpt {
	return func(o *subOpts) error {
		if batchSize <= 0 {
			return xerrors.Wrap(ErrInvalidArgument, "pull batch size must be positive")
		}
		o.pull = batchSize
		return nil
	}
}

// PullDirect 挂载既有消费者并启用拉取模式
func PullDirect(stream, consumer string, batchSize int) SubOpt {
	return func(o *subOpts) error {
		if err := Attach(stream, consumer)(o); err != nil {
			return err
		}
		return Pull(batchSize)(o)
	}
}

// ManualAck 关闭自动确认，由调用方显式 Ack
func ManualAck() SubOpt {
	return func(o *subOpts) error {
		o.manualAck = true
		return nil
	}
}

// DeliverAllMsgs 从流的第一条消息开始投递
func DeliverAllMsgs() SubOpt {
	return func(o *subOpts) error {
		o.cfg.DeliverPolicy = DeliverAll
		return nil
	}
}

// DeliverLastMsg 从流的最后一条消息开始投递
func DeliverLastMsg() SubOpt {
	return func(o *subOpts) error {
		o.cfg.DeliverPolicy = DeliverLast
		return nil
	}
}

// DeliverNewMsgs 只投递订阅之后发布的消息
func DeliverNewMsgs() SubOpt {
	return func(o *subOpts) error {
		o.cfg.DeliverPolicy = DeliverNew
		return nil
	}
}

// StartSequence 从指定流序号开始投递
func StartSequence(seq uint64) SubOpt {
	return func(o *subOpts) error {
		o.cfg.DeliverPolicy = DeliverByStartSequence
		o.cfg.OptStartSeq = seq
		return nil
	}
}

// StartTime 从指定时间开始投递
func StartTime(start time.Time) SubOpt {
	return func(o *subOpts) error {
		o.cfg.DeliverPolicy = DeliverByStartTime
		o.cfg.OptStartTime = &start
		return nil
	}
}

// AckWait 设置服务端等待确认的时长
func AckWait(wait time.Duration) SubOpt {
	return func(o *subOpts) error {
		if wait <= 0 {
			return xerrors.Wrap(ErrInvalidArgument, "ack wait must be positive")
		}
		o.cfg.AckWait = wait
		return nil
	}
}

// MaxDeliver 设置单条消息的最大投递次数
func MaxDeliver(n int) SubOpt {
	return func(o *subOpts) error {
		o.cfg.MaxDeliver = n
		return nil
	}
}

// MaxAckPending 设置在途未确认消息的上限
func MaxAckPending(n int) SubOpt {
	return func(o *subOpts) error {
		o.cfg.MaxAckPending = n
		return nil
	}
}

// WithAckPolicy 显式设置确认策略
func WithAckPolicy(p AckPolicy) SubOpt {
	return func(o *subOpts) error {
		switch p {
		case AckNone, AckAll, AckExplicit:
			o.cfg.AckPolicy = p
			return nil
		default:
			return xerrors.Wrap(ErrInvalidArgument, "unknown ack policy")
		}
	}
}
