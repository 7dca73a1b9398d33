// Package monitoring provides the zap-backed logger and Prometheus metrics.
package monitoring

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/logger"
)

type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger creates the production Logger implementation.
func NewZapLogger(cfg config.LogConfig) (logger.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return &zapLogger{l: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))}, nil
}

func (z *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	z.l.Debug(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	z.l.Info(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	z.l.Warn(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	if err != nil {
		fields = append(fields, logger.Err(err))
	}
	z.l.Error(msg, z.convert(ctx, fields)...)
}

func (z *zapLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &zapLogger{l: z.l.With(z.convert(context.Background(), fields)...)}
}

func (z *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{l: z.l.With(zap.String("component", component))}
}

// convert maps Fields to zap fields, masking sensitive values and attaching
// trace context and request correlation from ctx.
func (z *zapLogger) convert(ctx context.Context, fields []logger.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+3)

	if ctx != nil {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			zapFields = append(zapFields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
			zapFields = append(zapFields, zap.String("request_id", requestID))
		}
	}

	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, sanitizeValue(f.Key, f.Value)))
	}
	return zapFields
}

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
}

// sanitizeValue masks values whose keys look sensitive. Hashes are exempt:
// a token hash is the store identifier, not the credential.
func sanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	if strings.Contains(keyLower, "hash") {
		return value
	}
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			if s, ok := value.(string); ok && s != "" {
				return maskString(s)
			}
			return "***REDACTED***"
		}
	}
	return value
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
