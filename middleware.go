package vidgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"go.appointy.com/vidgraph/metrics"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type requestIDKeyType int

const requestIDKey requestIDKeyType = 0

// RequestID returns the id LoggingMiddleware assigned to the request, or "".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LoggingMiddleware logs every executed request with a fresh request id.
func LoggingMiddleware(logger *zap.Logger) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) *graphql.Result {
			id := uuid.New().String()
			ctx = context.WithValue(ctx, requestIDKey, id)

			start := time.Now()
			result := next(ctx, req)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("operation", req.Operation),
				zap.String("operation_name", req.OperationName),
				zap.Duration("elapsed", time.Since(start)),
			}
			if result.HasErrors() {
				msgs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					msgs = append(msgs, e.Message)
				}
				logger.Warn("graphql request failed", append(fields, zap.Strings("errors", msgs))...)
			} else {
				logger.Info("graphql request", fields...)
			}
			return result
		}
	}
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(m *metrics.Metrics) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) *graphql.Result {
			start := time.Now()
			result := next(ctx, req)
			m.ObserveRequest(req.Operation, result.HasErrors(), time.Since(start))
			return result
		}
	}
}

// TracingMiddleware runs each request inside a span.
func TracingMiddleware(tracer trace.Tracer) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) *graphql.Result {
			ctx, span := tracer.Start(ctx, "graphql."+req.Operation, trace.WithAttributes(
				attribute.String("graphql.operation.type", req.Operation),
				attribute.String("graphql.operation.name", req.OperationName),
			))
			defer span.End()

			result := next(ctx, req)
			if result.HasErrors() {
				span.SetStatus(otelcodes.Error, result.Errors[0].Message)
			}
			return result
		}
	}
}

// RecoverMiddleware turns a panic during execution into an error result.
func RecoverMiddleware(logger *zap.Logger) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (result *graphql.Result) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("panic while executing graphql request",
						zap.Any("panic", p), zap.String("request_id", RequestID(ctx)), zap.Stack("stack"))
					result = &graphql.Result{
						Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError(fmt.Sprintf("internal error: %v", p))},
					}
				}
			}()
			return next(ctx, req)
		}
	}
}
