package jetstream

import "github.com/ceyewan/jetkit/xerrors"

// Sentinel Errors - JetStream 客户端核心的哨兵错误
var (
	// ErrTimeout 在期限内没有收到应答
	ErrTimeout = xerrors.New("jetstream: timeout")

	// ErrJetStreamNotEnabled 账户未启用 JetStream
	ErrJetStreamNotEnabled = xerrors.New("jetstream: not enabled for account")

	// ErrInvalidArgument 调用方提供的名称或配置无效
	ErrInvalidArgument = xerrors.New("jetstream: invalid argument")

	// ErrServerError API 应答携带错误对象
	ErrServerError = xerrors.New("jetstream: server error")

	// ErrNotFound 操作的流或消费者不存在
	ErrNotFound = xerrors.New("jetstream: not found")

	// ErrInterrupted 阻塞等待被取消
	ErrInterrupted = xerrors.New("jetstream: interrupted")

	// ErrNoStreamResponse 发布的主题没有任何流接收
	ErrNoStreamResponse = xerrors.New("jetstream: no response from stream")

	// ErrInvalidAck 发布确认格式非法
	ErrInvalidAck = xerrors.New("jetstream: invalid publish ack")

	// ErrStreamMismatch 发布确认来自非预期的流
	ErrStreamMismatch = xerrors.New("jetstream: expected stream does not match ack stream")

	// ErrNoMatchingStream 没有流与主题匹配（或匹配不唯一）
	ErrNoMatchingStream = xerrors.New("jetstream: no exact stream matches subject")

	// ErrPullModeNotAllowed 拉取模式不允许设置消息回调
	ErrPullModeNotAllowed = xerrors.New("jetstream: pull mode not allowed with a message handler")

	// ErrDirectModeRequired 挂载既有消费者要求上下文处于直连模式
	ErrDirectModeRequired = xerrors.New("jetstream: direct mode is required to attach to an existing consumer")

	// ErrDirectModeNoCreate 直连模式下不能创建消费者
	ErrDirectModeNoCreate = xerrors.New("jetstream: can not create a consumer in direct mode")

	// ErrSubjectMismatch 订阅主题与消费者的过滤主题不一致
	ErrSubjectMismatch = xerrors.New("jetstream: subject does not match consumer filter subject")

	// ErrAlreadyBound 订阅已经绑定过消费者（重复 setup）
	ErrAlreadyBound = xerrors.New("jetstream: subscription already bound to a consumer")

	// ErrNotBound 订阅尚未绑定消费者
	ErrNotBound = xerrors.New("jetstream: subscription is not bound to a consumer")

	// ErrNotPullMode 仅拉取模式的订阅可以发起拉取
	ErrNotPullMode = xerrors.New("jetstream: not a pull mode subscription")

	// ErrSubscriptionClosed 订阅已取消
	ErrSubscriptionClosed = xerrors.New("jetstream: subscription closed")

	// ErrSyncSubRequired NextMsg 仅对同步订阅有效
	ErrSyncSubRequired = xerrors.New("jetstream: illegal call on an async subscription")

	// ErrMsgNoReply 消息没有应答主题，无法确认
	ErrMsgNoReply = xerrors.New("jetstream: message does not have a reply subject")

	// ErrNotJSMessage 消息不是由 JetStream 投递的
	ErrNotJSMessage = xerrors.New("jetstream: not a jetstream message")

	// ErrMsgAlreadyAcked 消息已经被确认过
	ErrMsgAlreadyAcked = xerrors.New("jetstream: message was already acknowledged")
)
