// Package jetstream 实现 NATS JetStream 客户端核心：
// 流与消费者的管理面、带确认校验的发布路径，以及推/拉两种投递模式的订阅编排。
//
// 底层传输（连接管理、协议解析、inbox 生成）由 transport 包抽象，
// 本包只依赖其请求/应答、发布与订阅原语。
//
// 特性：
//   - 管理面：流与消费者的增删改查，分页列表，按主题查流
//   - 发布：等待并校验 PubAck（流名、序号、期望流匹配）
//   - 订阅编排：挂载既有消费者或代替调用方创建消费者，自动确认可选
//   - 拉取模式：显式批量拉取，支持 no_wait 与过期时间
//
// 基本使用：
//
//	js, err := jetstream.New(t)
//	if err != nil {
//	    return err
//	}
//	ack, err := js.Publish(ctx, "orders.created", data)
//	sub, err := js.SubscribeSync(ctx, "orders.created", jetstream.Durable("worker"), jetstream.Pull(10))
package jetstream

import (
	"context"
	"encoding/json"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/transport"
	"github.com/ceyewan/jetkit/xerrors"
)

// Handler 订阅消息回调。返回非 nil 错误时自动确认被跳过，消息将被重投。
type Handler func(msg *Msg) error

// Publisher JetStream 发布接口
type Publisher interface {
	// Publish 发布消息并等待服务端确认
	Publish(ctx context.Context, subject string, data []byte, opts ...PubOpt) (*PubAck, error)
}

// Subscriber JetStream 订阅接口
type Subscriber interface {
	// Subscribe 创建异步订阅，消息通过 handler 派发
	Subscribe(ctx context.Context, subject string, handler Handler, opts ...SubOpt) (*Subscription, error)

	// QueueSubscribe 创建带队列组的异步订阅
	QueueSubscribe(ctx context.Context, subject, queue string, handler Handler, opts ...SubOpt) (*Subscription, error)

	// SubscribeSync 创建同步订阅，消息通过 NextMsg 拉取
	SubscribeSync(ctx context.Context, subject string, opts ...SubOpt) (*Subscription, error)

	// QueueSubscribeSync 创建带队列组的同步订阅
	QueueSubscribeSync(ctx context.Context, subject, queue string, opts ...SubOpt) (*Subscription, error)
}

// Manager JetStream 管理接口
type Manager interface {
	// AddStream 创建流
	AddStream(ctx context.Context, cfg *StreamConfig) (*StreamInfo, error)

	// UpdateStream 更新流配置
	UpdateStream(ctx context.Context, cfg *StreamConfig) (*StreamInfo, error)

	// DeleteStream 删除流
	DeleteStream(ctx context.Context, name string) error

	// PurgeStream 清空流中的消息
	PurgeStream(ctx context.Context, name string) error

	// StreamInfo 查询流信息
	StreamInfo(ctx context.Context, name string) (*StreamInfo, error)

	// Streams 列出所有流（自动翻页）
	Streams(ctx context.Context) ([]*StreamInfo, error)

	// StreamNames 列出所有流名（自动翻页）
	StreamNames(ctx context.Context) ([]string, error)

	// LookupStreamBySubject 返回唯一匹配主题的流名
	LookupStreamBySubject(ctx context.Context, subject string) (string, error)

	// DeleteMsg 删除流中的一条消息
	DeleteMsg(ctx context.Context, stream string, seq uint64) error

	// AddConsumer 创建消费者，durable 与否决定管理主题
	AddConsumer(ctx context.Context, stream string, cfg *ConsumerConfig) (*ConsumerInfo, error)

	// DeleteConsumer 删除消费者
	DeleteConsumer(ctx context.Context, stream, consumer string) error

	// ConsumerInfo 查询消费者信息
	ConsumerInfo(ctx context.Context, stream, consumer string) (*ConsumerInfo, error)

	// Consumers 列出流上的所有消费者（自动翻页）
	Consumers(ctx context.Context, stream string) ([]*ConsumerInfo, error)

	// AccountInfo 查询账户级 JetStream 用量
	AccountInfo(ctx context.Context) (*AccountInfo, error)
}

// Client JetStream 客户端上下文。
// 无内部状态，可被多个 goroutine 并发使用；不拥有底层传输的生命周期。
type Client interface {
	Publisher
	Subscriber
	Manager
}

type client struct {
	api    apiClient
	direct bool
	tracer *tracing
}

// New 基于传输创建 JetStream 上下文。
//
// 构造时会把传输切换为独立应答主题的请求方式，并向 <prefix>INFO
// 发起一次探测：超时返回 ErrTimeout，账户未启用返回 ErrJetStreamNotEnabled。
func New(t transport.Transport, opts ...Option) (Client, error) {
	if t == nil {
		return nil, xerrors.Wrap(ErrInvalidArgument, "nil transport")
	}

	o := defaultCtxOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	c := &client{
		api: apiClient{
			t:       t,
			prefix:  o.prefix,
			timeout: o.timeout,
			logger:  o.logger.WithNamespace("jetstream"),
			metrics: newMetricsSet(o.registry),
		},
		direct: o.direct,
		tracer: newTracing(o.tracerTP),
	}

	// JetStream 的挂载与拉取流程要求应答可以并发到达不同 inbox
	t.UseOldRequestStyle()

	if _, err := c.accountInfo(context.Background()); err != nil {
		return nil, err
	}

	c.api.logger.Info("jetstream context ready",
		clog.String("prefix", o.prefix),
		clog.Duration("timeout", o.timeout),
		clog.Bool("direct", o.direct))
	return c, nil
}

// accountInfo 账户探测，JetStream 未启用时归一到 ErrJetStreamNotEnabled
func (c *client) accountInfo(ctx context.Context) (*AccountInfo, error) {
	resp, err := c.api.request(ctx, apiAccountInfo, nil)
	if err != nil {
		return nil, err
	}

	var info accountInfoResponse
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, xerrors.Wrap(err, "parse account info")
	}
	if info.Error != nil {
		if info.Error.Code == jetStreamNotEnabledCode {
			return nil, ErrJetStreamNotEnabled
		}
		return nil, xerrors.WithSentinel(info.Error, ErrJetStreamNotEnabled)
	}
	return &info.AccountInfo, nil
}

// AccountInfo 查询账户级 JetStream 用量
func (c *client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	return c.accountInfo(ctx)
}
