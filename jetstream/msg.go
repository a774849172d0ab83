package jetstream

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ceyewan/jetkit/xerrors"
)

// 确认控制载荷，发布到消息的应答主题
var (
	ackAck      = []byte("+ACK")
	ackNak      = []byte("-NAK")
	ackProgress = []byte("+WPI")
	ackTerm     = []byte("+TERM")
)

// Msg 由 JetStream 投递的消息
type Msg struct {
	Subject string // 消息实际到达的主题
	Reply   string // 确认用的应答主题
	Data    []byte // 消息体

	sub   *Subscription
	acked atomic.Bool
}

// IsJetStream 消息是否来自 JetStream 订阅
func (m *Msg) IsJetStream() bool {
	return m != nil && m.sub != nil
}

// Ack 确认消息。
// 消费者的确认策略为 None 时是空操作；重复确认返回 ErrMsgAlreadyAcked。
func (m *Msg) Ack() error {
	return m.ackReply(context.Background(), ackAck, "ack", true, false)
}

// AckSync 确认消息并等待服务端回执
func (m *Msg) AckSync(ctx context.Context) error {
	return m.ackReply(ctx, ackAck, "ack", true, true)
}

// Nak 否定确认，表示无法处理，服务端会重投
func (m *Msg) Nak() error {
	return m.ackReply(context.Background(), ackNak, "nak", true, false)
}

// InProgress 告知服务端消息仍在处理，重置重投计时器。可多次调用。
func (m *Msg) InProgress() error {
	return m.ackReply(context.Background(), ackProgress, "in_progress", false, false)
}

// Term 终止投递，无论剩余投递次数如何都不再重投
func (m *Msg) Term() error {
	return m.ackReply(context.Background(), ackTerm, "term", true, false)
}

// ackReply 所有确认类操作的公共路径。
// terminal 操作（ack/nak/term）对同一条消息只允许一次。
func (m *Msg) ackReply(ctx context.Context, payload []byte, kind string, terminal, sync bool) error {
	if m == nil || m.sub == nil {
		return ErrNotJSMessage
	}
	if m.Reply == "" {
		return ErrMsgNoReply
	}
	if m.sub.ackNone {
		return nil
	}
	if terminal && !m.acked.CompareAndSwap(false, true) {
		return ErrMsgAlreadyAcked
	}

	if sync {
		if _, err := m.sub.api.t.Request(ctx, m.Reply, payload, m.sub.api.timeout); err != nil {
			return m.sub.api.mapRequestErr(err, kind)
		}
	} else {
		if err := m.sub.api.t.Publish(m.Reply, payload); err != nil {
			return xerrors.Wrapf(err, "%s %s", kind, m.Reply)
		}
	}
	m.sub.api.metrics.incAck(kind)
	return nil
}

// MsgMetadata 从应答主题解出的投递元数据
type MsgMetadata struct {
	Stream       string
	Consumer     string
	NumDelivered uint64
	StreamSeq    uint64
	ConsumerSeq  uint64
	Timestamp    time.Time
	NumPending   uint64
}

// ackReplyTokens $JS.ACK.<stream>.<consumer>.<delivered>.<sseq>.<cseq>.<ts>.<pending>
const ackReplyTokens = 9

// Metadata 解析消息的投递元数据
func (m *Msg) Metadata() (*MsgMetadata, error) {
	if m == nil || m.sub == nil {
		return nil, ErrNotJSMessage
	}
	if m.Reply == "" {
		return nil, ErrMsgNoReply
	}

	tokens := strings.Split(m.Reply, ".")
	if len(tokens) != ackReplyTokens || tokens[0] != "$JS" || tokens[1] != "ACK" {
		return nil, ErrNotJSMessage
	}

	return &MsgMetadata{
		Stream:       tokens[2],
		Consumer:     tokens[3],
		NumDelivered: uint64(parseNum(tokens[4])),
		StreamSeq:    uint64(parseNum(tokens[5])),
		ConsumerSeq:  uint64(parseNum(tokens[6])),
		Timestamp:    time.Unix(0, parseNum(tokens[7])),
		NumPending:   uint64(parseNum(tokens[8])),
	}, nil
}

// parseNum 应答主题里非负十进制数的快速解析，非法输入返回 -1
func parseNum(d string) (n int64) {
	if len(d) == 0 {
		return -1
	}
	for _, dec := range d {
		if dec < '0' || dec > '9' {
			return -1
		}
		n = n*10 + int64(dec-'0')
	}
	return n
}
