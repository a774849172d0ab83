package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/xerrors"
)

// defaultBufferFlushWait FlushBuffer 的最大等待时间
const defaultBufferFlushWait = 500 * time.Millisecond

// NATSTransport 基于 NATS Core 连接的传输实现
type NATSTransport interface {
	Transport

	// Connect 建立连接
	Connect(ctx context.Context) error

	// Close 关闭连接
	Close() error

	// HealthCheck 检查连接健康状态
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回缓存的健康状态
	IsHealthy() bool

	// Conn 返回原生 NATS 连接
	Conn() *nats.Conn
}

type natsTransport struct {
	cfg     *NATSConfig
	conn    *nats.Conn
	logger  clog.Logger
	healthy atomic.Bool
	mu      sync.RWMutex
}

// NewNATS 创建 NATS 传输
func NewNATS(cfg *NATSConfig, opts ...Option) (NATSTransport, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid nats config")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &natsTransport{
		cfg:    cfg,
		logger: o.logger.With(clog.String("transport", "nats"), clog.String("name", cfg.Name)),
	}, nil
}

// Connect 建立连接
func (t *natsTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil && !t.conn.IsClosed() {
		return nil
	}

	t.logger.Info("attempting to connect to nats", clog.String("url", t.cfg.URL))

	natsOpts := []nats.Option{
		nats.Name(t.cfg.Name),
		nats.Timeout(t.cfg.ConnectWait),
		nats.ReconnectWait(t.cfg.ReconnectWait),
		nats.MaxReconnects(t.cfg.MaxReconnects),
		nats.PingInterval(t.cfg.PingInterval),
	}
	if t.cfg.Username != "" && t.cfg.Password != "" {
		natsOpts = append(natsOpts, nats.UserInfo(t.cfg.Username, t.cfg.Password))
	}
	if t.cfg.Token != "" {
		natsOpts = append(natsOpts, nats.Token(t.cfg.Token))
	}

	conn, err := nats.Connect(t.cfg.URL, natsOpts...)
	if err != nil {
		t.logger.Error("failed to connect to nats", clog.Error(err), clog.String("url", t.cfg.URL))
		return xerrors.WithSentinel(err, ErrConnection)
	}

	t.conn = conn
	t.healthy.Store(true)
	t.logger.Info("successfully connected to nats", clog.String("url", t.cfg.URL))
	return nil
}

// Close 关闭连接
func (t *natsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.healthy.Store(false)
	if t.conn != nil {
		t.conn.Close()
		t.logger.Info("nats connection closed")
	}
	return nil
}

// HealthCheck 检查连接健康状态
func (t *natsTransport) HealthCheck(ctx context.Context) error {
	conn := t.current()
	if conn == nil {
		t.healthy.Store(false)
		return ErrNotConnected
	}
	status := conn.Status()
	if status == nats.CLOSED || status == nats.RECONNECTING {
		t.healthy.Store(false)
		return xerrors.Wrapf(ErrConnection, "connection status %s", status.String())
	}
	t.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (t *natsTransport) IsHealthy() bool {
	return t.healthy.Load()
}

// Conn 返回原生 NATS 连接
func (t *natsTransport) Conn() *nats.Conn {
	return t.current()
}

func (t *natsTransport) current() *nats.Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn
}

// Request 发出请求并等待应答
func (t *natsTransport) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Msg, error) {
	conn := t.current()
	if conn == nil {
		return nil, ErrNotConnected
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, mapNATSError(err)
	}
	return fromNATSMsg(resp), nil
}

// Publish 发布一条消息
func (t *natsTransport) Publish(subject string, data []byte) error {
	conn := t.current()
	if conn == nil {
		return ErrNotConnected
	}
	return mapNATSError(conn.Publish(subject, data))
}

// PublishRequest 发布一条带应答主题的消息
func (t *natsTransport) PublishRequest(subject, reply string, data []byte) error {
	conn := t.current()
	if conn == nil {
		return ErrNotConnected
	}
	return mapNATSError(conn.PublishRequest(subject, reply, data))
}

// Subscribe 创建异步订阅
func (t *natsTransport) Subscribe(subject, queue string, handler MsgHandler) (Subscription, error) {
	conn := t.current()
	if conn == nil {
		return nil, ErrNotConnected
	}

	cb := func(m *nats.Msg) {
		handler(fromNATSMsg(m))
	}

	var sub *nats.Subscription
	var err error
	if queue != "" {
		sub, err = conn.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = conn.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "subscribe %s", subject)
	}
	return &natsSubscription{sub: sub, sync: false}, nil
}

// SubscribeSync 创建同步订阅
func (t *natsTransport) SubscribeSync(subject, queue string) (Subscription, error) {
	conn := t.current()
	if conn == nil {
		return nil, ErrNotConnected
	}

	var sub *nats.Subscription
	var err error
	if queue != "" {
		sub, err = conn.QueueSubscribeSync(subject, queue)
	} else {
		sub, err = conn.SubscribeSync(subject)
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "subscribe %s", subject)
	}
	return &natsSubscription{sub: sub, sync: true}, nil
}

// NewInbox 分配一个唯一的应答主题
func (t *natsTransport) NewInbox() string {
	conn := t.current()
	if conn == nil {
		return nats.NewInbox()
	}
	return conn.NewInbox()
}

// Flush 写出缓冲区并等待服务端确认
func (t *natsTransport) Flush(timeout time.Duration) error {
	conn := t.current()
	if conn == nil {
		return ErrNotConnected
	}
	return mapNATSError(conn.FlushTimeout(timeout))
}

// FlushBuffer 尽力而为地写出缓冲区
func (t *natsTransport) FlushBuffer() error {
	conn := t.current()
	if conn == nil {
		return ErrNotConnected
	}
	return mapNATSError(conn.FlushTimeout(defaultBufferFlushWait))
}

// UseOldRequestStyle 切换为每个请求独立应答主题的请求方式
func (t *natsTransport) UseOldRequestStyle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Opts.UseOldRequestStyle = true
	}
}

// natsSubscription 包装 nats.Subscription
type natsSubscription struct {
	sub  *nats.Subscription
	sync bool
}

func (s *natsSubscription) Subject() string {
	return s.sub.Subject
}

func (s *natsSubscription) Queue() string {
	return s.sub.Queue
}

func (s *natsSubscription) NextMsg(timeout time.Duration) (*Msg, error) {
	if !s.sync {
		return nil, ErrSyncSubRequired
	}
	m, err := s.sub.NextMsg(timeout)
	if err != nil {
		return nil, mapNATSError(err)
	}
	return fromNATSMsg(m), nil
}

func (s *natsSubscription) PendingLimits() (int, int, error) {
	return s.sub.PendingLimits()
}

func (s *natsSubscription) IsValid() bool {
	return s.sub.IsValid()
}

func (s *natsSubscription) Unsubscribe() error {
	if !s.sub.IsValid() {
		return nil
	}
	return s.sub.Unsubscribe()
}

func fromNATSMsg(m *nats.Msg) *Msg {
	if m == nil {
		return nil
	}
	return &Msg{Subject: m.Subject, Reply: m.Reply, Data: m.Data}
}

// mapNATSError 将 nats.go 的错误映射到传输层哨兵
func mapNATSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return xerrors.WithSentinel(err, ErrTimeout)
	case errors.Is(err, nats.ErrNoResponders):
		return xerrors.WithSentinel(err, ErrNoResponders)
	case errors.Is(err, nats.ErrConnectionClosed):
		return xerrors.WithSentinel(err, ErrNotConnected)
	case errors.Is(err, nats.ErrBadSubscription):
		return xerrors.WithSentinel(err, ErrSubscriptionClosed)
	default:
		return err
	}
}
