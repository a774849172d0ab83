// Package transport 定义 jetkit 所依赖的底层消息传输接口。
//
// JetStream 客户端核心只关心请求/应答、发布与订阅这几个原语，
// 不关心连接管理、协议解析与重连。生产实现基于 NATS Core 连接
// （见 NewNATS），测试实现见 testkit 包。
//
// 约定：
//   - Request 在超时内未收到应答时返回 ErrTimeout
//   - 请求没有任何应答方时返回 ErrNoResponders
//   - 收件箱（inbox）是唯一且不可预测的应答主题
package transport

import (
	"context"
	"time"
)

// Msg 一条从传输层收到或将要发出的消息
type Msg struct {
	Subject string // 消息主题
	Reply   string // 应答主题，可为空
	Data    []byte // 消息体
}

// MsgHandler 异步订阅的消息回调，由传输层的派发线程调用
type MsgHandler func(msg *Msg)

// Subscription 一个本地订阅
type Subscription interface {
	// Subject 返回订阅主题
	Subject() string

	// Queue 返回队列组名称，非队列订阅为空
	Queue() string

	// NextMsg 阻塞等待下一条消息，仅对同步订阅有效。
	// 超时返回 ErrTimeout，timeout 为 0 时立即返回当前可用消息。
	NextMsg(timeout time.Duration) (*Msg, error)

	// PendingLimits 返回本地待处理队列的上限（消息数、字节数）
	PendingLimits() (int, int, error)

	// IsValid 订阅是否仍然有效（未被取消）
	IsValid() bool

	// Unsubscribe 取消订阅，幂等
	Unsubscribe() error
}

// Transport 底层传输接口
type Transport interface {
	// Request 发出请求并等待应答
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Msg, error)

	// Publish 发布一条消息
	Publish(subject string, data []byte) error

	// PublishRequest 发布一条带应答主题的消息
	PublishRequest(subject, reply string, data []byte) error

	// Subscribe 创建异步订阅，消息通过 handler 派发
	Subscribe(subject, queue string, handler MsgHandler) (Subscription, error)

	// SubscribeSync 创建同步订阅，消息通过 NextMsg 拉取
	SubscribeSync(subject, queue string) (Subscription, error)

	// NewInbox 分配一个唯一的应答主题
	NewInbox() string

	// Flush 将缓冲区内的消息写出并等待服务端确认
	Flush(timeout time.Duration) error

	// FlushBuffer 尽力而为地写出缓冲区，等待时长有上限；
	// NATS 实现最多等待 500ms 的服务端确认
	FlushBuffer() error

	// UseOldRequestStyle 切换为每个请求独立应答主题的请求方式。
	// JetStream 的挂载与拉取流程要求应答可以并发到达不同 inbox，
	// 共享复用 inbox 的请求方式无法满足。
	UseOldRequestStyle()
}
