package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/jetkit/transport"
)

// Responder 脚本化的应答函数。
// 请求路径上返回 nil 表示无应答（调用方超时）；
// PublishRequest 路径上非 nil 返回值会投递到请求的应答主题。
type Responder func(req *transport.Msg) []byte

// Transport 进程内传输，实现 transport.Transport。
// 行为完全由注册的 Responder 与显式 Deliver 驱动，用于单元测试。
type Transport struct {
	mu         sync.Mutex
	responders []responderEntry
	subs       []*memSubscription
	published  []transport.Msg
	oldRequest bool
	flushes    int
}

type responderEntry struct {
	pattern string
	fn      Responder
}

// NewTransport 创建进程内传输
func NewTransport() *Transport {
	return &Transport{}
}

// Respond 为匹配 pattern 的主题注册应答函数，支持 * 与 > 通配符。
// 后注册的优先。
func (t *Transport) Respond(pattern string, fn Responder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responders = append([]responderEntry{{pattern: pattern, fn: fn}}, t.responders...)
}

// RespondJSON 注册一个返回固定 JSON 应答的应答函数
func (t *Transport) RespondJSON(pattern string, v any) {
	body := JSON(v)
	t.Respond(pattern, func(*transport.Msg) []byte { return body })
}

// EnableJetStream 注册账户探测应答，表示 JetStream 已启用
func (t *Transport) EnableJetStream(prefix string) {
	t.RespondJSON(prefix+"INFO", map[string]any{
		"memory": 0, "storage": 0, "streams": 0, "consumers": 0,
		"limits": map[string]any{"max_memory": -1, "max_storage": -1},
	})
}

// JSON 序列化测试载荷，失败时 panic
func JSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal payload: %v", err))
	}
	return b
}

// Published 返回所有经由 Publish/PublishRequest 发出的消息快照
func (t *Transport) Published() []transport.Msg {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]transport.Msg, len(t.published))
	copy(out, t.published)
	return out
}

// Flushes 返回 Flush/FlushBuffer 的调用次数
func (t *Transport) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}

// ActiveSubscriptions 返回仍然有效的本地订阅数
func (t *Transport) ActiveSubscriptions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, sub := range t.subs {
		if sub.valid() {
			n++
		}
	}
	return n
}

// OldRequestStyle 是否已切换请求方式
func (t *Transport) OldRequestStyle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.oldRequest
}

// Deliver 把一条消息投递给所有匹配 subject 的订阅
func (t *Transport) Deliver(subject, reply string, data []byte) {
	msg := &transport.Msg{Subject: subject, Reply: reply, Data: data}

	t.mu.Lock()
	var targets []*memSubscription
	seenQueues := map[string]bool{}
	for _, sub := range t.subs {
		if !sub.valid() || !subjectMatches(sub.subject, subject) {
			continue
		}
		// 队列组内只投递一个成员
		if sub.queue != "" {
			if seenQueues[sub.queue] {
				continue
			}
			seenQueues[sub.queue] = true
		}
		targets = append(targets, sub)
	}
	t.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(msg)
	}
}

func (t *Transport) lookupResponder(subject string) Responder {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.responders {
		if subjectMatches(e.pattern, subject) {
			return e.fn
		}
	}
	return nil
}

func (t *Transport) record(msg transport.Msg) {
	t.mu.Lock()
	t.published = append(t.published, msg)
	t.mu.Unlock()
}

// ==================== transport.Transport ====================

func (t *Transport) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*transport.Msg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inbox := t.NewInbox()
	t.record(transport.Msg{Subject: subject, Reply: inbox, Data: data})

	fn := t.lookupResponder(subject)
	if fn == nil {
		return nil, transport.ErrNoResponders
	}
	reply := fn(&transport.Msg{Subject: subject, Reply: inbox, Data: data})
	if reply == nil {
		return nil, transport.ErrTimeout
	}
	return &transport.Msg{Subject: inbox, Data: reply}, nil
}

func (t *Transport) Publish(subject string, data []byte) error {
	t.record(transport.Msg{Subject: subject, Data: data})
	t.Deliver(subject, "", data)
	return nil
}

func (t *Transport) PublishRequest(subject, reply string, data []byte) error {
	t.record(transport.Msg{Subject: subject, Reply: reply, Data: data})

	if fn := t.lookupResponder(subject); fn != nil {
		if resp := fn(&transport.Msg{Subject: subject, Reply: reply, Data: data}); resp != nil {
			t.Deliver(reply, "", resp)
		}
		return nil
	}
	t.Deliver(subject, reply, data)
	return nil
}

func (t *Transport) Subscribe(subject, queue string, handler transport.MsgHandler) (transport.Subscription, error) {
	return t.addSub(subject, queue, handler), nil
}

func (t *Transport) SubscribeSync(subject, queue string) (transport.Subscription, error) {
	return t.addSub(subject, queue, nil), nil
}

func (t *Transport) addSub(subject, queue string, handler transport.MsgHandler) *memSubscription {
	sub := &memSubscription{
		t:       t,
		subject: subject,
		queue:   queue,
		handler: handler,
		ch:      make(chan *transport.Msg, 1024),
	}
	sub.alive.Store(true)
	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return sub
}

func (t *Transport) NewInbox() string {
	return "_INBOX." + uuid.NewString()
}

func (t *Transport) Flush(timeout time.Duration) error {
	t.mu.Lock()
	t.flushes++
	t.mu.Unlock()
	return nil
}

func (t *Transport) FlushBuffer() error {
	return t.Flush(0)
}

func (t *Transport) UseOldRequestStyle() {
	t.mu.Lock()
	t.oldRequest = true
	t.mu.Unlock()
}

// ==================== 订阅 ====================

type memSubscription struct {
	t       *Transport
	subject string
	queue   string
	handler transport.MsgHandler
	ch      chan *transport.Msg
	alive   atomic.Bool
}

func (s *memSubscription) valid() bool { return s.alive.Load() }

func (s *memSubscription) deliver(msg *transport.Msg) {
	if s.handler != nil {
		s.handler(msg)
		return
	}
	select {
	case s.ch <- msg:
	default:
		// 队列写满时丢弃，模拟 slow consumer
	}
}

func (s *memSubscription) Subject() string { return s.subject }
func (s *memSubscription) Queue() string   { return s.queue }

func (s *memSubscription) NextMsg(timeout time.Duration) (*transport.Msg, error) {
	if s.handler != nil {
		return nil, transport.ErrSyncSubRequired
	}
	if !s.valid() {
		return nil, transport.ErrSubscriptionClosed
	}
	if timeout <= 0 {
		select {
		case m := <-s.ch:
			return m, nil
		default:
			return nil, transport.ErrTimeout
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-s.ch:
		return m, nil
	case <-timer.C:
		return nil, transport.ErrTimeout
	}
}

func (s *memSubscription) PendingLimits() (int, int, error) {
	return 65536, 64 * 1024 * 1024, nil
}

func (s *memSubscription) IsValid() bool { return s.valid() }

func (s *memSubscription) Unsubscribe() error {
	s.alive.Store(false)
	return nil
}

// ==================== 工具 ====================

// subjectMatches 主题匹配：* 匹配一个 token，> 匹配剩余全部
func subjectMatches(pattern, subject string) bool {
	if pattern == subject {
		return true
	}
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, token := range pt {
		if token == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if token != "*" && token != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
