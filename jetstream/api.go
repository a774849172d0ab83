package jetstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/transport"
	"github.com/ceyewan/jetkit/xerrors"
)

// DefaultAPIPrefix JetStream 管理接口的默认主题前缀
const DefaultAPIPrefix = "$JS.API."

// 管理接口的主题模板，%s 在运行时替换
const (
	apiAccountInfo     = "INFO"
	apiStreamCreateT   = "STREAM.CREATE.%s"
	apiStreamUpdateT   = "STREAM.UPDATE.%s"
	apiStreamDeleteT   = "STREAM.DELETE.%s"
	apiStreamInfoT     = "STREAM.INFO.%s"
	apiStreamPurgeT    = "STREAM.PURGE.%s"
	apiStreamList      = "STREAM.LIST"
	apiStreamNames     = "STREAM.NAMES"
	apiMsgDeleteT      = "STREAM.MSG.DELETE.%s"
	apiConsumerCreateT = "CONSUMER.CREATE.%s"
	apiDurableCreateT  = "CONSUMER.DURABLE.CREATE.%s.%s"
	apiConsumerInfoT   = "CONSUMER.INFO.%s.%s"
	apiConsumerDeleteT = "CONSUMER.DELETE.%s.%s"
	apiConsumerListT   = "CONSUMER.LIST.%s"
	apiRequestNextT    = "CONSUMER.MSG.NEXT.%s.%s"
)

// jetStreamNotEnabledCode 服务端用 HTTP 风格的 503 表示 JetStream 未启用
const jetStreamNotEnabledCode = 503

// notFoundCode 流或消费者不存在
const notFoundCode = 404

// APIError JetStream API 应答中的错误对象
type APIError struct {
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jetstream: api error %d: %s", e.Code, e.Description)
}

// Is 将服务端错误码归类到哨兵错误
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrServerError:
		return true
	case ErrNotFound:
		return e.Code == notFoundCode
	case ErrJetStreamNotEnabled:
		return e.Code == jetStreamNotEnabledCode
	}
	return false
}

// apiResponse 所有 API 应答的公共外壳。
// 未知字段一律忽略，保证对新版本服务端的前向兼容。
type apiResponse struct {
	Type  string    `json:"type"`
	Error *APIError `json:"error"`
}

func (r *apiResponse) apiError() *APIError {
	return r.Error
}

// apiResponder 可以携带 API 错误的应答
type apiResponder interface {
	apiError() *APIError
}

// apiPaged 分页应答的公共字段
type apiPaged struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// apiPagedRequest 分页请求体
type apiPagedRequest struct {
	Offset int `json:"offset"`
}

// ==================== 请求/应答载荷 ====================

type accountInfoResponse struct {
	apiResponse
	AccountInfo
}

type streamResponse struct {
	apiResponse
	*StreamInfo
}

type streamDeleteResponse struct {
	apiResponse
	Success bool `json:"success,omitempty"`
}

type streamPurgeResponse struct {
	apiResponse
	Success bool   `json:"success,omitempty"`
	Purged  uint64 `json:"purged"`
}

type streamNamesRequest struct {
	apiPagedRequest
	Subject string `json:"subject,omitempty"`
}

type streamNamesResponse struct {
	apiResponse
	apiPaged
	Streams []string `json:"streams"`
}

type streamListResponse struct {
	apiResponse
	apiPaged
	Streams []*StreamInfo `json:"streams"`
}

type msgDeleteRequest struct {
	Seq uint64 `json:"seq"`
}

type msgDeleteResponse struct {
	apiResponse
	Success bool `json:"success,omitempty"`
}

type createConsumerRequest struct {
	Stream string          `json:"stream_name"`
	Config *ConsumerConfig `json:"config"`
}

type consumerResponse struct {
	apiResponse
	*ConsumerInfo
}

type consumerDeleteResponse struct {
	apiResponse
	Success bool `json:"success,omitempty"`
}

type consumerListResponse struct {
	apiResponse
	apiPaged
	Consumers []*ConsumerInfo `json:"consumers"`
}

// nextRequest 拉取请求体。Expires 为绝对时间戳（UnixNano）。
type nextRequest struct {
	Batch   int   `json:"batch"`
	NoWait  bool  `json:"no_wait,omitempty"`
	Expires int64 `json:"expires,omitempty"`
}

// ==================== API 客户端 ====================

// apiClient 管理接口的请求执行器。
// 按值持有，订阅与上下文各自保留一份句柄，避免跨所有权边界的环。
type apiClient struct {
	t       transport.Transport
	prefix  string // 以 '.' 结尾
	timeout time.Duration
	logger  clog.Logger
	metrics *metricsSet
}

// subject 拼出完整的管理主题
func (a apiClient) subject(op string) string {
	return a.prefix + op
}

// request 对管理主题发起请求并映射传输层错误
func (a apiClient) request(ctx context.Context, op string, body []byte) (*transport.Msg, error) {
	resp, err := a.t.Request(ctx, a.subject(op), body, a.timeout)
	if err != nil {
		a.metrics.incAPI("error")
		return nil, a.mapRequestErr(err, op)
	}
	a.metrics.incAPI("ok")
	return resp, nil
}

// requestJSON 请求并将应答解析到 resp，检查 API 错误
func (a apiClient) requestJSON(ctx context.Context, op string, req any, resp apiResponder) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return xerrors.Wrapf(err, "marshal request for %s", op)
		}
	}

	msg, err := a.request(ctx, op, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg.Data, resp); err != nil {
		return xerrors.Wrapf(err, "parse response for %s", op)
	}
	if apiErr := resp.apiError(); apiErr != nil {
		a.logger.Debug("api request failed",
			clog.String("op", op),
			clog.Int("code", apiErr.Code),
			clog.String("description", apiErr.Description))
		return apiErr
	}
	return nil
}

// mapRequestErr 传输层错误到 JetStream 错误分类的映射。
// 没有应答方意味着账户没有启用 JetStream。
func (a apiClient) mapRequestErr(err error, op string) error {
	switch {
	case errors.Is(err, transport.ErrNoResponders):
		return xerrors.WithSentinel(err, ErrJetStreamNotEnabled)
	case errors.Is(err, transport.ErrTimeout):
		return xerrors.WithSentinel(err, ErrTimeout)
	case errors.Is(err, context.Canceled):
		return xerrors.WithSentinel(err, ErrInterrupted)
	default:
		return xerrors.Wrapf(err, "request %s", op)
	}
}

// consumerInfo 查询消费者信息，订阅与管理面共用
func (a apiClient) consumerInfo(ctx context.Context, stream, consumer string) (*ConsumerInfo, error) {
	if err := validateName(stream, "stream"); err != nil {
		return nil, err
	}
	if err := validateName(consumer, "consumer"); err != nil {
		return nil, err
	}

	var resp consumerResponse
	op := fmt.Sprintf(apiConsumerInfoT, stream, consumer)
	if err := a.requestJSON(ctx, op, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ConsumerInfo == nil {
		return nil, xerrors.Wrapf(ErrNotFound, "consumer %s on stream %s", consumer, stream)
	}
	return resp.ConsumerInfo, nil
}

// lookupStreamBySubject 通过 STREAM.NAMES 找到唯一匹配主题的流
func (a apiClient) lookupStreamBySubject(ctx context.Context, subject string) (string, error) {
	if err := validateSubject(subject); err != nil {
		return "", err
	}

	var resp streamNamesResponse
	req := &streamNamesRequest{Subject: subject}
	if err := a.requestJSON(ctx, apiStreamNames, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Streams) != 1 {
		return "", xerrors.Wrapf(ErrNoMatchingStream, "subject %q matched %d streams", subject, len(resp.Streams))
	}
	return resp.Streams[0], nil
}
