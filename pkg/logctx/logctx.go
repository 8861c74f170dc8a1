package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

// Keys shared by the middleware chain and FromCtx.
const (
	LoggerKey  ctxKey = "logger"
	TraceIDKey ctxKey = "traceID"
	UserIDKey  ctxKey = "user_id"
)

// FromGin returns the request-scoped logger stored on the gin context,
// falling back to the request context and finally base.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(string(LoggerKey)); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	if c.Request == nil {
		return base
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from ctx if set, otherwise base enriched with
// trace_id/user_id found in ctx.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok && uid != "" {
		fields = append(fields, "user_id", uid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

// WithLogger stores lg on ctx.
func WithLogger(ctx context.Context, lg *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, lg)
}

// WithUser enriches the request logger with user_id once the caller is known.
func WithUser(c *gin.Context, base *zap.SugaredLogger, userID string) {
	lg := FromGin(c, base).With("user_id", userID)
	c.Set(string(LoggerKey), lg)
	ctx := context.WithValue(c.Request.Context(), UserIDKey, userID)
	c.Request = c.Request.WithContext(WithLogger(ctx, lg))
}
