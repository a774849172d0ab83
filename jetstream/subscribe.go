package jetstream

import (
	"context"
	"errors"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/transport"
	"github.com/ceyewan/jetkit/xerrors"
)

// Subscribe 创建异步订阅，消息通过 handler 派发
func (c *client) Subscribe(ctx context.Context, subject string, handler Handler, opts ...SubOpt) (*Subscription, error) {
	if handler == nil {
		return nil, xerrors.Wrap(ErrInvalidArgument, "nil handler")
	}
	return c.subscribe(ctx, subject, "", handler, opts)
}

// QueueSubscribe 创建带队列组的异步订阅
func (c *client) QueueSubscribe(ctx context.Context, subject, queue string, handler Handler, opts ...SubOpt) (*Subscription, error) {
	if handler == nil {
		return nil, xerrors.Wrap(ErrInvalidArgument, "nil handler")
	}
	if queue == "" {
		return nil, xerrors.Wrap(ErrInvalidArgument, "queue group is required")
	}
	return c.subscribe(ctx, subject, queue, handler, opts)
}

// SubscribeSync 创建同步订阅，消息通过 NextMsg 拉取
func (c *client) SubscribeSync(ctx context.Context, subject string, opts ...SubOpt) (*Subscription, error) {
	return c.subscribe(ctx, subject, "", nil, opts)
}

// QueueSubscribeSync 创建带队列组的同步订阅
func (c *client) QueueSubscribeSync(ctx context.Context, subject, queue string, opts ...SubOpt) (*Subscription, error) {
	if queue == "" {
		return nil, xerrors.Wrap(ErrInvalidArgument, "queue group is required")
	}
	return c.subscribe(ctx, subject, queue, nil, opts)
}

// subscribe 订阅编排：
//
//  1. 归一化选项，决定拉取/推送与挂载/创建
//  2. 规则检查：拉取模式不允许 handler；挂载要求直连模式，创建要求 API 模式
//  3. 解析投递主题与目标流
//  4. 先建立本地订阅，保证服务端投递不会跑在接收方就绪之前
//  5. 创建消费者（或记录挂载目标）；创建失败时撤销本地订阅
//  6. 拉取模式立即发出一次批量拉取
func (c *client) subscribe(ctx context.Context, subject, queue string, handler Handler, opts []SubOpt) (*Subscription, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}

	o := subOpts{cfg: &ConsumerConfig{AckPolicy: ackPolicyNotSet}}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	isPull := o.pull > 0
	shouldAttach := (o.stream != "" && o.consumer != "") || o.cfg.DeliverSubject != ""
	shouldCreate := !shouldAttach

	if handler != nil && isPull {
		return nil, ErrPullModeNotAllowed
	}
	if shouldAttach && !c.direct {
		return nil, ErrDirectModeRequired
	}
	if shouldCreate && c.direct {
		return nil, ErrDirectModeNoCreate
	}

	var deliver, stream string
	var attachedCfg *ConsumerConfig

	if shouldAttach {
		if o.cfg.DeliverSubject != "" {
			deliver = o.cfg.DeliverSubject
		} else {
			info, err := c.api.consumerInfo(ctx, o.stream, o.consumer)
			if err != nil {
				return nil, err
			}
			attachedCfg = &info.Config
			// 订阅主题必须与消费者的过滤主题一致
			if attachedCfg.FilterSubject != "" && attachedCfg.FilterSubject != subject {
				return nil, xerrors.Wrapf(ErrSubjectMismatch, "subject %q, filter %q", subject, attachedCfg.FilterSubject)
			}
			if attachedCfg.DeliverSubject != "" {
				deliver = attachedCfg.DeliverSubject
			} else {
				deliver = c.api.t.NewInbox()
			}
		}
	} else {
		var err error
		stream, err = c.api.lookupStreamBySubject(ctx, subject)
		if err != nil {
			return nil, err
		}
		deliver = c.api.t.NewInbox()
		if !isPull {
			o.cfg.DeliverSubject = deliver
		}
		// 始终按订阅主题过滤，服务端会在不需要时清除
		o.cfg.FilterSubject = subject
	}

	jsSub := &Subscription{
		api:     c.api,
		subject: subject,
	}

	// 本地订阅必须先于消费者创建存在
	var tSub transport.Subscription
	var err error
	if handler != nil {
		tSub, err = c.api.t.Subscribe(deliver, queue, c.dispatchHandler(jsSub, subject, handler, !o.manualAck))
	} else {
		tSub, err = c.api.t.SubscribeSync(deliver, queue)
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "subscribe %s", deliver)
	}
	jsSub.sub = tSub

	if shouldCreate {
		if o.cfg.AckPolicy == ackPolicyNotSet {
			o.cfg.AckPolicy = AckExplicit
		}
		// 未设置在途上限时用本地待处理队列的上限兜底
		if o.cfg.MaxAckPending == 0 && o.cfg.AckPolicy != AckNone {
			if maxMsgs, _, plErr := tSub.PendingLimits(); plErr == nil && maxMsgs > 0 {
				o.cfg.MaxAckPending = maxMsgs
			}
		}

		ci, cErr := c.AddConsumer(ctx, stream, o.cfg)
		if cErr != nil {
			// 消费者创建失败时不能留下孤儿订阅
			_ = tSub.Unsubscribe()
			return nil, cErr
		}

		boundDeliver := deliver
		if ci.Config.DeliverSubject != "" {
			boundDeliver = ci.Config.DeliverSubject
		}
		if err = jsSub.bind(ci.Stream, ci.Name, boundDeliver, o.pull, ci.Config.AckPolicy == AckNone); err != nil {
			_ = tSub.Unsubscribe()
			return nil, err
		}
	} else {
		ackNone := false
		if attachedCfg != nil {
			ackNone = attachedCfg.AckPolicy == AckNone
		}
		if err = jsSub.bind(o.stream, o.consumer, deliver, o.pull, ackNone); err != nil {
			_ = tSub.Unsubscribe()
			return nil, err
		}
	}

	if isPull {
		if pErr := jsSub.Pull(o.pull); pErr != nil {
			c.api.logger.Warn("priming pull failed",
				clog.String("subject", subject), clog.Error(pErr))
		}
	}

	c.api.logger.Debug("subscription ready",
		clog.String("subject", subject),
		clog.String("deliver", deliver),
		clog.String("stream", jsSub.Stream()),
		clog.String("consumer", jsSub.Consumer()),
		clog.Bool("pull", isPull))
	return jsSub, nil
}

// dispatchHandler 把用户回调包装成传输层回调。
// autoAck 为 true 时在回调成功返回后补发确认；回调报错或 panic 则跳过确认，
// 消息会在 ack_wait 之后被服务端重投。
func (c *client) dispatchHandler(jsSub *Subscription, subject string, handler Handler, autoAck bool) transport.MsgHandler {
	logger := c.api.logger
	return func(tm *transport.Msg) {
		m := jsSub.wrap(tm)

		_, end := c.tracer.startProcess(subject)
		err := invokeHandler(handler, m)
		end(err)

		if err != nil {
			logger.Warn("message handler failed",
				clog.String("subject", subject), clog.Error(err))
			return
		}
		if autoAck && m.Reply != "" {
			if ackErr := m.Ack(); ackErr != nil && !errors.Is(ackErr, ErrMsgAlreadyAcked) {
				logger.Warn("auto ack failed",
					clog.String("subject", subject), clog.Error(ackErr))
			}
		}
	}
}

func invokeHandler(handler Handler, m *Msg) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("jetstream: handler panic: %v", r)
		}
	}()
	return handler(m)
}
