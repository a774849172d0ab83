package jetstream

import (
	"context"
	"fmt"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/xerrors"
)

// AddStream 创建流
func (c *client) AddStream(ctx context.Context, cfg *StreamConfig) (*StreamInfo, error) {
	return c.upsertStream(ctx, cfg, apiStreamCreateT)
}

// UpdateStream 更新流配置
func (c *client) UpdateStream(ctx context.Context, cfg *StreamConfig) (*StreamInfo, error) {
	return c.upsertStream(ctx, cfg, apiStreamUpdateT)
}

func (c *client) upsertStream(ctx context.Context, cfg *StreamConfig, subjectT string) (*StreamInfo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var resp streamResponse
	op := fmt.Sprintf(subjectT, cfg.Name)
	if err := c.api.requestJSON(ctx, op, cfg, &resp); err != nil {
		return nil, err
	}
	if resp.StreamInfo == nil {
		return nil, xerrors.Wrapf(ErrInvalidAck, "empty stream info for %s", cfg.Name)
	}
	c.api.logger.Debug("stream upserted", clog.String("stream", cfg.Name))
	return resp.StreamInfo, nil
}

// DeleteStream 删除流
func (c *client) DeleteStream(ctx context.Context, name string) error {
	if err := validateName(name, "stream"); err != nil {
		return err
	}

	var resp streamDeleteResponse
	return c.api.requestJSON(ctx, fmt.Sprintf(apiStreamDeleteT, name), nil, &resp)
}

// PurgeStream 清空流中的消息
func (c *client) PurgeStream(ctx context.Context, name string) error {
	if err := validateName(name, "stream"); err != nil {
		return err
	}

	var resp streamPurgeResponse
	if err := c.api.requestJSON(ctx, fmt.Sprintf(apiStreamPurgeT, name), nil, &resp); err != nil {
		return err
	}
	c.api.logger.Debug("stream purged",
		clog.String("stream", name), clog.Uint64("purged", resp.Purged))
	return nil
}

// StreamInfo 查询流信息
func (c *client) StreamInfo(ctx context.Context, name string) (*StreamInfo, error) {
	if err := validateName(name, "stream"); err != nil {
		return nil, err
	}

	var resp streamResponse
	if err := c.api.requestJSON(ctx, fmt.Sprintf(apiStreamInfoT, name), nil, &resp); err != nil {
		return nil, err
	}
	if resp.StreamInfo == nil {
		return nil, xerrors.Wrapf(ErrNotFound, "stream %s", name)
	}
	return resp.StreamInfo, nil
}

// Streams 列出所有流，按 offset 翻页直到收齐
func (c *client) Streams(ctx context.Context) ([]*StreamInfo, error) {
	var streams []*StreamInfo
	for offset := 0; ; {
		var resp streamListResponse
		req := &apiPagedRequest{Offset: offset}
		if err := c.api.requestJSON(ctx, apiStreamList, req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Streams) == 0 {
			break
		}
		streams = append(streams, resp.Streams...)
		offset += len(resp.Streams)
		if offset >= resp.Total {
			break
		}
	}
	return streams, nil
}

// StreamNames 列出所有流名，按 offset 翻页直到收齐
func (c *client) StreamNames(ctx context.Context) ([]string, error) {
	var names []string
	for offset := 0; ; {
		var resp streamNamesResponse
		req := &streamNamesRequest{apiPagedRequest: apiPagedRequest{Offset: offset}}
		if err := c.api.requestJSON(ctx, apiStreamNames, req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Streams) == 0 {
			break
		}
		names = append(names, resp.Streams...)
		offset += len(resp.Streams)
		if offset >= resp.Total {
			break
		}
	}
	return names, nil
}

// LookupStreamBySubject 返回唯一匹配主题的流名
func (c *client) LookupStreamBySubject(ctx context.Context, subject string) (string, error) {
	return c.api.lookupStreamBySubject(ctx, subject)
}

// DeleteMsg 删除流中的一条消息
func (c *client) DeleteMsg(ctx context.Context, stream string, seq uint64) error {
	if err := validateName(stream, "stream"); err != nil {
		return err
	}
	if seq == 0 {
		return xerrors.Wrap(ErrInvalidArgument, "message sequence must be positive")
	}

	var resp msgDeleteResponse
	req := &msgDeleteRequest{Seq: seq}
	return c.api.requestJSON(ctx, fmt.Sprintf(apiMsgDeleteT, stream), req, &resp)
}

// AddConsumer 创建消费者。
// durable 与否只体现在管理主题的选择上：
// 有 durable 名称走 CONSUMER.DURABLE.CREATE，否则走 CONSUMER.CREATE。
func (c *client) AddConsumer(ctx context.Context, stream string, cfg *ConsumerConfig) (*ConsumerInfo, error) {
	if err := validateName(stream, "stream"); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var op string
	if cfg.Durable != "" {
		op = fmt.Sprintf(apiDurableCreateT, stream, cfg.Durable)
	} else {
		op = fmt.Sprintf(apiConsumerCreateT, stream)
	}

	var resp consumerResponse
	req := &createConsumerRequest{Stream: stream, Config: cfg}
	if err := c.api.requestJSON(ctx, op, req, &resp); err != nil {
		return nil, err
	}
	if resp.ConsumerInfo == nil {
		return nil, xerrors.Wrapf(ErrInvalidAck, "empty consumer info on stream %s", stream)
	}
	c.api.logger.Debug("consumer created",
		clog.String("stream", stream), clog.String("consumer", resp.ConsumerInfo.Name))
	return resp.ConsumerInfo, nil
}

// DeleteConsumer 删除消费者
func (c *client) DeleteConsumer(ctx context.Context, stream, consumer string) error {
	if err := validateName(stream, "stream"); err != nil {
		return err
	}
	if err := validateName(consumer, "consumer"); err != nil {
		return err
	}

	var resp consumerDeleteResponse
	return c.api.requestJSON(ctx, fmt.Sprintf(apiConsumerDeleteT, stream, consumer), nil, &resp)
}

// ConsumerInfo 查询消费者信息
func (c *client) ConsumerInfo(ctx context.Context, stream, consumer string) (*ConsumerInfo, error) {
	return c.api.consumerInfo(ctx, stream, consumer)
}

// Consumers 列出流上的所有消费者，按 offset 翻页直到收齐
func (c *client) Consumers(ctx context.Context, stream string) ([]*ConsumerInfo, error) {
	if err := validateName(stream, "stream"); err != nil {
		return nil, err
	}

	var consumers []*ConsumerInfo
	for offset := 0; ; {
		var resp consumerListResponse
		req := &apiPagedRequest{Offset: offset}
		if err := c.api.requestJSON(ctx, fmt.Sprintf(apiConsumerListT, stream), req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Consumers) == 0 {
			break
		}
		consumers = append(consumers, resp.Consumers...)
		offset += len(resp.Consumers)
		if offset >= resp.Total {
			break
		}
	}
	return consumers, nil
}
