package gormlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/brainac/backend/pkg/logctx"
)

// ZapLogger bridges gorm logging onto the request-scoped zap logger so that
// SQL traces carry trace_id/user_id.
type ZapLogger struct {
	base          *zap.SugaredLogger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// New returns a gorm logger. Verbose enables per-statement Info traces; prod
// only reports warnings, slow queries and errors.
func New(base *zap.SugaredLogger, verbose bool) *ZapLogger {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &ZapLogger{base: base.Named("gorm"), level: level, slowThreshold: 300 * time.Millisecond}
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *z
	cp.level = level
	return &cp
}

func (z *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Info {
		logctx.FromCtx(ctx, z.base).Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Warn {
		logctx.FromCtx(ctx, z.base).Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.level >= gormlogger.Error {
		logctx.FromCtx(ctx, z.base).Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	lg := logctx.FromCtx(ctx, z.base)
	fields := []interface{}{
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", shortCaller(utils.FileWithLineNum()),
		"sql", sql,
	}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		lg.Errorw("gorm_error", append(fields, "err", err)...)
	case elapsed > z.slowThreshold:
		lg.Warnw("gorm_slow", fields...)
	case z.level >= gormlogger.Info:
		lg.Debugw("gorm", fields...)
	}
}

// shortCaller trims absolute build paths to the repo-relative part,
// e.g. /home/ci/src/internal/store/gorm.go:38 -> internal/store/gorm.go:38.
func shortCaller(s string) string {
	if s == "" {
		return s
	}
	pathPart, linePart := s, ""
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		pathPart, linePart = s[:idx], s[idx:]
	}
	p := strings.ReplaceAll(pathPart, `\`, "/")
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(p, marker); i >= 0 {
			return p[i+1:] + linePart
		}
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if n := len(parts); n > 3 {
		parts = parts[n-3:]
	}
	return strings.Join(parts, "/") + linePart
}
