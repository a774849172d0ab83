package jetstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ceyewan/jetkit/transport"
	"github.com/ceyewan/jetkit/xerrors"
)

// Subscription JetStream 订阅。
// 在普通订阅之上记录绑定的流/消费者身份与投递模式，
// 拉取模式下提供显式的批量拉取操作。
//
// 身份信息由编排流程通过 bind 一次性写入，之后只读。
type Subscription struct {
	api apiClient

	mu      sync.Mutex
	sub     transport.Subscription
	subject string

	// bind 一次性写入的字段
	bound    bool
	stream   string
	consumer string
	deliver  string
	pull     int // 批大小，>0 表示拉取模式
	ackNone  bool
}

// bind 记录解析出的流/消费者身份，只允许调用一次
func (s *Subscription) bind(stream, consumer, deliver string, pull int, ackNone bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound {
		return ErrAlreadyBound
	}
	s.bound = true
	s.stream = stream
	s.consumer = consumer
	s.deliver = deliver
	s.pull = pull
	s.ackNone = ackNone
	return nil
}

// Subject 返回订阅的逻辑主题
func (s *Subscription) Subject() string {
	return s.subject
}

// Queue 返回队列组名称
func (s *Subscription) Queue() string {
	return s.sub.Queue()
}

// Stream 返回绑定的流名
func (s *Subscription) Stream() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Consumer 返回绑定的消费者名
func (s *Subscription) Consumer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumer
}

// DeliverSubject 返回消息实际到达的主题，可能不同于逻辑主题
func (s *Subscription) DeliverSubject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliver
}

// PullMode 是否为拉取模式
func (s *Subscription) PullMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pull > 0
}

// IsValid 订阅是否仍然有效
func (s *Subscription) IsValid() bool {
	return s.sub != nil && s.sub.IsValid()
}

// NextMsg 阻塞等待下一条消息，仅对同步订阅有效。
// 超时返回 ErrTimeout，timeout 为 0 时为非阻塞轮询。
func (s *Subscription) NextMsg(timeout time.Duration) (*Msg, error) {
	tm, err := s.sub.NextMsg(timeout)
	if err != nil {
		switch {
		case errors.Is(err, transport.ErrTimeout):
			return nil, xerrors.WithSentinel(err, ErrTimeout)
		case errors.Is(err, transport.ErrSyncSubRequired):
			return nil, xerrors.WithSentinel(err, ErrSyncSubRequired)
		case errors.Is(err, transport.ErrSubscriptionClosed):
			return nil, xerrors.WithSentinel(err, ErrSubscriptionClosed)
		default:
			return nil, err
		}
	}
	return s.wrap(tm), nil
}

// Pull 请求服务端投递最多 batch 条消息。
// 服务端可能投递少于 batch 条，调用方不应假设收满。
func (s *Subscription) Pull(batch int) error {
	return s.pullRequest(batch, false, 0)
}

// PullNoWait 请求一批消息，服务端没有现成消息时立即返回而不等待
func (s *Subscription) PullNoWait(batch int) error {
	return s.pullRequest(batch, true, 0)
}

// PullExpiresIn 请求一批消息，expiry 之后请求在服务端过期
func (s *Subscription) PullExpiresIn(batch int, expiry time.Duration) error {
	if expiry <= 0 {
		return xerrors.Wrap(ErrInvalidArgument, "pull expiry must be positive")
	}
	return s.pullRequest(batch, false, expiry)
}

func (s *Subscription) pullRequest(batch int, noWait bool, expiry time.Duration) error {
	if batch <= 0 {
		return xerrors.Wrap(ErrInvalidArgument, "pull batch size must be positive")
	}

	s.mu.Lock()
	if !s.bound {
		s.mu.Unlock()
		return ErrNotBound
	}
	if s.pull == 0 {
		s.mu.Unlock()
		return ErrNotPullMode
	}
	stream, consumer, deliver := s.stream, s.consumer, s.deliver
	s.mu.Unlock()

	// 取消之后不再发出任何拉取请求
	if !s.IsValid() {
		return ErrSubscriptionClosed
	}

	req := nextRequest{Batch: batch, NoWait: noWait}
	if expiry > 0 {
		// 服务端要求绝对时间戳
		req.Expires = time.Now().Add(expiry).UnixNano()
	}
	body, err := json.Marshal(&req)
	if err != nil {
		return xerrors.Wrap(err, "marshal pull request")
	}

	subj := s.api.subject(fmt.Sprintf(apiRequestNextT, stream, consumer))
	if err := s.api.t.PublishRequest(subj, deliver, body); err != nil {
		return xerrors.Wrapf(err, "pull %s", subj)
	}
	s.api.metrics.incPull()

	// 尽力而为地把请求刷出去
	_ = s.api.t.FlushBuffer()
	return nil
}

// ConsumerInfo 查询绑定消费者的信息
func (s *Subscription) ConsumerInfo(ctx context.Context) (*ConsumerInfo, error) {
	s.mu.Lock()
	stream, consumer := s.stream, s.consumer
	bound := s.bound
	s.mu.Unlock()

	if !bound || consumer == "" {
		return nil, ErrNotBound
	}
	return s.api.consumerInfo(ctx, stream, consumer)
}

// Unsubscribe 取消本地订阅，幂等。
// 服务端消费者只有持久化的才会保留，临时消费者由服务端自行清理。
func (s *Subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// wrap 把传输层消息包装成 JetStream 消息
func (s *Subscription) wrap(tm *transport.Msg) *Msg {
	return &Msg{
		Subject: tm.Subject,
		Reply:   tm.Reply,
		Data:    tm.Data,
		sub:     s,
	}
}
