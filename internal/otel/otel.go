// Package otel turns boost events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"github.com/hanpama/boost/internal/eventbus"
	"github.com/hanpama/boost/internal/events"
	"github.com/hanpama/boost/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/hanpama/boost"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := newSubscriber(otel.Tracer(instrumentationName))
	sub.register()

	return func(ctx context.Context) error {
		sub.unregister()
		return tp.Shutdown(ctx)
	}, nil
}

// subscriber keeps open spans keyed by request ID.
type subscriber struct {
	tracer      trace.Tracer
	gqlSpans    sync.Map // rid -> trace.Span
	cmdSpans    sync.Map // provider/rid -> trace.Span
	clientSpans sync.Map // rid -> trace.Span
	serverSpans sync.Map // rid -> trace.Span
	unsubscribe []func()
}

func newSubscriber(tracer trace.Tracer) *subscriber {
	return &subscriber{tracer: tracer}
}

// parent returns ctx carrying the innermost open span of the request.
func (s *subscriber) parent(ctx context.Context, rid string, maps ...*sync.Map) context.Context {
	for _, m := range maps {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

// commandKey keys command spans by provider so that a process serving its
// own remote commands keeps both sides apart.
func commandKey(provider, rid string) string {
	return provider + "/" + rid
}

func finish(m *sync.Map, rid string, fn func(trace.Span)) {
	v, ok := m.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	fn(span)
	span.End()
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *subscriber) register() {
	s.unsubscribe = append(s.unsubscribe,
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
			_, span := s.tracer.Start(ctx, "graphql.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
				attribute.String("graphql.document", e.Query),
			)
			s.gqlSpans.Store(e.RequestID, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			finish(&s.gqlSpans, e.RequestID, func(span trace.Span) {
				span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
				for _, err := range e.Errors {
					recordError(span, err)
				}
			})
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.CommandStart) {
			parent := s.parent(ctx, e.RequestID, &s.serverSpans, &s.gqlSpans)
			_, span := s.tracer.Start(parent, "command.dispatch")
			span.SetAttributes(
				attribute.String("boost.command", e.Command),
				attribute.String("boost.request_id", e.RequestID),
				attribute.String("boost.provider", e.Provider),
			)
			s.cmdSpans.Store(commandKey(e.Provider, e.RequestID), span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.CommandFinish) {
			finish(&s.cmdSpans, commandKey(e.Provider, e.RequestID), func(span trace.Span) {
				span.SetAttributes(attribute.Bool("boost.accepted", e.Accepted))
				recordError(span, e.Err)
			})
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GRPCClientStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := s.parent(ctx, rid, &s.gqlSpans)
			if v, ok := s.cmdSpans.Load(commandKey("grpc", rid)); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "grpc.client", trace.WithSpanKind(trace.SpanKindClient))
			span.SetAttributes(
				semconv.RPCSystemKey.String("grpc"),
				semconv.RPCServiceKey.String(e.Service),
				semconv.RPCMethodKey.String(e.Method),
				attribute.String("net.peer.name", e.Target),
			)
			s.clientSpans.Store(rid, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GRPCClientFinish) {
			rid, _ := reqid.FromContext(ctx)
			finish(&s.clientSpans, rid, func(span trace.Span) {
				span.SetAttributes(attribute.String("grpc.code", e.Code.String()))
				recordError(span, e.Err)
			})
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GRPCServerStart) {
			_, span := s.tracer.Start(ctx, "grpc.server", trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				semconv.RPCSystemKey.String("grpc"),
				semconv.RPCMethodKey.String(e.Method),
				attribute.String("boost.request_id", e.RequestID),
			)
			s.serverSpans.Store(e.RequestID, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GRPCServerFinish) {
			finish(&s.serverSpans, e.RequestID, func(span trace.Span) {
				span.SetAttributes(attribute.String("grpc.code", e.Code.String()))
				recordError(span, e.Err)
			})
		}),
	)
}

func (s *subscriber) unregister() {
	for _, u := range s.unsubscribe {
		u()
	}
	s.unsubscribe = nil
}
