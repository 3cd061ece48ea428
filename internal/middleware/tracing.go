package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"myvetstudy/internal/metrics"
	"myvetstudy/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelCodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const tracerName = "myvetstudy"

// InitTracer installs the global tracer provider. With an empty endpoint
// spans are still created but never exported.
func InitTracer(ctx context.Context, endpoint, serviceName, env string) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("environment", env),
		)),
	}

	if endpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(10),
		))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Logger.Info("Tracer provider initialized", zap.String("endpoint", endpoint))
	return tp, nil
}

func TracingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx = extractTraceContext(ctx)

	ctx, span := otel.Tracer("grpc").Start(ctx, info.FullMethod,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.RPCSystemGRPC,
			semconv.RPCServiceKey.String("myvetstudy.permissions.v1"),
			semconv.RPCMethodKey.String(info.FullMethod),
		))
	defer span.End()

	startTime := time.Now()
	logger.Logger.Debug("Starting request",
		zap.String("method", info.FullMethod),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	res, err := handler(ctx, req)
	duration := time.Since(startTime)

	statusCode := codes.OK
	if err != nil {
		statusMessage := err.Error()
		if s, ok := status.FromError(err); ok {
			statusCode = s.Code()
			statusMessage = s.Message()
		}
		span.SetStatus(otelCodes.Error, statusMessage)
		span.RecordError(err)
	} else {
		span.SetStatus(otelCodes.Ok, "OK")
	}

	span.SetAttributes(
		semconv.RPCGRPCStatusCodeKey.Int64(int64(statusCode)),
	)
	metrics.RecordRequest("grpc", info.FullMethod, statusCode.String(), duration.Seconds())

	logger.Logger.Info("Request completed",
		zap.String("method", info.FullMethod),
		zap.Duration("duration", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("status", statusCode.String()),
		zap.Error(err),
	)

	return res, err
}

func extractTraceContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
}

type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// unmatchedRoute labels requests no route claimed.
const unmatchedRoute = "unmatched"

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// SetRoute records the route pattern that matched the request. Metrics and
// span names use it instead of the raw path.
func SetRoute(ctx context.Context, pattern string) {
	if h, ok := ctx.Value(routeKey{}).(*routeHolder); ok {
		h.pattern = pattern
	}
}

// HTTPTracing starts a server span per request and records its outcome.
func HTTPTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			))
		defer span.End()

		route := &routeHolder{}
		ctx = context.WithValue(ctx, routeKey{}, route)

		startTime := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		duration := time.Since(startTime)

		pattern := route.pattern
		if pattern == "" {
			pattern = unmatchedRoute
		}
		span.SetName(r.Method + " " + pattern)
		span.SetAttributes(
			attribute.String("http.route", pattern),
			attribute.Int("http.status_code", rec.status),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(otelCodes.Error, http.StatusText(rec.status))
		}
		metrics.RecordRequest("http", pattern, strconv.Itoa(rec.status), duration.Seconds())

		logger.Logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", pattern),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
		)
	})
}
