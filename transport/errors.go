package transport

import "github.com/ceyewan/jetkit/xerrors"

// Sentinel Errors - 传输层专用的哨兵错误
var (
	// ErrNotConnected 连接尚未建立
	ErrNotConnected = xerrors.New("transport: not connected")

	// ErrTimeout 等待应答或消息超时
	ErrTimeout = xerrors.New("transport: timeout")

	// ErrNoResponders 请求没有任何应答方
	ErrNoResponders = xerrors.New("transport: no responders available for request")

	// ErrConnection 连接建立失败
	ErrConnection = xerrors.New("transport: connection failed")

	// ErrConfig 配置无效
	ErrConfig = xerrors.New("transport: invalid config")

	// ErrSubscriptionClosed 订阅已取消
	ErrSubscriptionClosed = xerrors.New("transport: subscription closed")

	// ErrSyncSubRequired NextMsg 仅对同步订阅有效
	ErrSyncSubRequired = xerrors.New("transport: illegal call on an async subscription")
)
