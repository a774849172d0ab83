package jetstream

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName 本包的 instrumentation scope
const tracerName = "github.com/ceyewan/jetkit/jetstream"

// tracing 可选的 OpenTelemetry 埋点。nil 时所有方法都是空操作。
type tracing struct {
	tracer trace.Tracer
}

func newTracing(tp trace.TracerProvider) *tracing {
	if tp == nil {
		return nil
	}
	return &tracing{tracer: tp.Tracer(tracerName)}
}

func messagingAttrs(operation, subject string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.system", "nats"),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination.name", subject),
	}
}

// startPublish 开启一个 producer span，返回结束回调
func (t *tracing) startPublish(ctx context.Context, subject string) (context.Context, func(error)) {
	if t == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, "jetstream.publish "+subject,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(messagingAttrs("publish", subject)...))
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// startProcess 为派发回调开启一个 consumer span。
// 派发线程没有调用方上下文，span 挂在后台上下文上。
func (t *tracing) startProcess(subject string) (context.Context, func(error)) {
	if t == nil {
		return context.Background(), func(error) {}
	}
	ctx, span := t.tracer.Start(context.Background(), "jetstream.process "+subject,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(messagingAttrs("process", subject)...))
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
