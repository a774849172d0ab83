package jetstream

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/transport"
	"github.com/ceyewan/jetkit/xerrors"
)

// pubAckResponse 发布确认的应答外壳
type pubAckResponse struct {
	apiResponse
	*PubAck
}

// Publish 发布消息并等待服务端确认。
//
// 确认中流名为空或序号为 0 视为非法确认；通过 ExpectStream 指定了
// 期望流时，确认来自其他流返回 ErrStreamMismatch。本层不做重试，
// 重试策略由调用方决定。
func (c *client) Publish(ctx context.Context, subject string, data []byte, opts ...PubOpt) (*PubAck, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}

	o := pubOpts{timeout: c.api.timeout}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	ctx, end := c.tracer.startPublish(ctx, subject)

	ack, err := c.publish(ctx, subject, data, &o)
	end(err)
	if err != nil {
		c.api.metrics.incPublish("error")
		return nil, err
	}
	c.api.metrics.incPublish("ok")
	return ack, nil
}

func (c *client) publish(ctx context.Context, subject string, data []byte, o *pubOpts) (*PubAck, error) {
	resp, err := c.api.t.Request(ctx, subject, data, o.timeout)
	if err != nil {
		switch {
		case errors.Is(err, transport.ErrNoResponders):
			return nil, xerrors.WithSentinel(err, ErrNoStreamResponse)
		case errors.Is(err, transport.ErrTimeout):
			return nil, xerrors.WithSentinel(err, ErrTimeout)
		case errors.Is(err, context.Canceled):
			return nil, xerrors.WithSentinel(err, ErrInterrupted)
		default:
			return nil, xerrors.Wrapf(err, "publish %s", subject)
		}
	}

	var pa pubAckResponse
	if err := json.Unmarshal(resp.Data, &pa); err != nil {
		return nil, xerrors.WithSentinel(err, ErrInvalidAck)
	}
	if pa.Error != nil {
		return nil, pa.Error
	}
	if pa.PubAck == nil || pa.PubAck.Stream == "" || pa.PubAck.Sequence == 0 {
		return nil, ErrInvalidAck
	}
	if o.expectStream != "" && o.expectStream != pa.PubAck.Stream {
		return nil, xerrors.Wrapf(ErrStreamMismatch, "expected %q, ack from %q", o.expectStream, pa.PubAck.Stream)
	}

	c.api.logger.Debug("publish acked",
		clog.String("subject", subject),
		clog.String("stream", pa.PubAck.Stream),
		clog.Uint64("seq", pa.PubAck.Sequence),
		clog.Bool("duplicate", pa.PubAck.Duplicate))
	return pa.PubAck, nil
}
